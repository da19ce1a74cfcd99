package history

import "math"

// PredictTrend fits a linear regression over a drive's AFR history and
// projects when its annual failure probability would cross afpThreshold.
// Returns nil with fewer than 3 data points.
func PredictTrend(records []DeviceRecord, afpThreshold float64) *TrendPrediction {
	if len(records) < 3 {
		return nil
	}

	first := records[0].Timestamp
	xs := make([]float64, len(records))
	ys := make([]float64, len(records))
	for i, r := range records {
		xs[i] = r.Timestamp.Sub(first).Hours() / 24.0
		ys[i] = r.AFR
	}

	slope, _ := linearRegression(xs, ys)

	pred := &TrendPrediction{
		DailyRate:  slope,
		Confidence: trendConfidence(xs[len(xs)-1]),
	}

	// Only project forward while the rate is actually climbing.
	if slope > 1e-6 && afpThreshold > 0 && afpThreshold < 1 {
		// AFP = 1 - e^(-AFR), so the threshold is crossed at this rate:
		targetAFR := -math.Log(1 - afpThreshold)
		currentAFR := records[len(records)-1].AFR
		if currentAFR < targetAFR {
			days := (targetAFR - currentAFR) / slope
			pred.DaysToThreshold = &days
		}
	}

	return pred
}

// linearRegression computes slope and intercept for y = slope*x + intercept.
func linearRegression(xs, ys []float64) (slope, intercept float64) {
	n := float64(len(xs))
	if n == 0 {
		return 0, 0
	}

	var sumX, sumY, sumXY, sumX2 float64
	for i := range xs {
		sumX += xs[i]
		sumY += ys[i]
		sumXY += xs[i] * ys[i]
		sumX2 += xs[i] * xs[i]
	}

	denom := n*sumX2 - sumX*sumX
	if math.Abs(denom) < 1e-10 {
		return 0, sumY / n
	}

	slope = (n*sumXY - sumX*sumY) / denom
	intercept = (sumY - slope*sumX) / n
	return slope, intercept
}

func trendConfidence(dataSpanDays float64) string {
	switch {
	case dataSpanDays >= 90:
		return "high"
	case dataSpanDays >= 30:
		return "medium"
	default:
		return "low"
	}
}
