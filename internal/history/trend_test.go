package history

import (
	"math"
	"testing"
	"time"
)

// ── Test helpers ────────────────────────────────────────────────────────────

func makeRecords(startAFR, dailyIncrease float64, days int, start time.Time) []DeviceRecord {
	records := make([]DeviceRecord, days)
	for i := range records {
		afr := startAFR + dailyIncrease*float64(i)
		records[i] = DeviceRecord{
			Serial:    "SN-001",
			AFR:       afr,
			AFP:       1 - math.Exp(-afr),
			Timestamp: start.Add(time.Duration(i) * 24 * time.Hour),
		}
	}
	return records
}

func assertNear(t *testing.T, name string, got, want, tolerance float64) {
	t.Helper()
	if math.Abs(got-want) > tolerance {
		t.Errorf("%s = %.6f, want ~%.6f", name, got, want)
	}
}

// ── PredictTrend ────────────────────────────────────────────────────────────

func TestPredictTrend_InsufficientData(t *testing.T) {
	start := time.Now()
	for _, count := range []int{0, 1, 2} {
		if pred := PredictTrend(makeRecords(0.1, 0.01, count, start), 0.2); pred != nil {
			t.Errorf("expected nil for %d data points, got %+v", count, pred)
		}
	}
}

func TestPredictTrend_StableDrive(t *testing.T) {
	start := time.Now().AddDate(0, 0, -100)
	records := makeRecords(0.05, 0, 100, start)

	pred := PredictTrend(records, 0.2)

	if pred == nil {
		t.Fatal("expected prediction, got nil")
	}
	if pred.DaysToThreshold != nil {
		t.Errorf("stable drive should have nil DaysToThreshold, got %.2f", *pred.DaysToThreshold)
	}
	assertNear(t, "DailyRate", pred.DailyRate, 0, 0.0001)
	if pred.Confidence != "high" {
		t.Errorf("100 days of data should be high confidence, got %q", pred.Confidence)
	}
}

func TestPredictTrend_DegradingDrive(t *testing.T) {
	// AFR climbing 0.002/day from 0.05 over 60 days.
	start := time.Now().AddDate(0, 0, -60)
	records := makeRecords(0.05, 0.002, 60, start)

	pred := PredictTrend(records, 0.5)

	if pred == nil {
		t.Fatal("expected prediction, got nil")
	}
	assertNear(t, "DailyRate", pred.DailyRate, 0.002, 0.0001)
	if pred.Confidence != "medium" {
		t.Errorf("60 days should be medium confidence, got %q", pred.Confidence)
	}

	if pred.DaysToThreshold == nil {
		t.Fatal("expected DaysToThreshold, got nil")
	}
	// Threshold AFP 0.5 means AFR -ln(0.5) ≈ 0.693. Current AFR is
	// 0.05 + 0.002*59 = 0.168, so about (0.693-0.168)/0.002 ≈ 263 days.
	assertNear(t, "DaysToThreshold", *pred.DaysToThreshold, 263, 5)
}

func TestPredictTrend_AlreadyPastThreshold(t *testing.T) {
	start := time.Now().AddDate(0, 0, -30)
	records := makeRecords(2.0, 0.01, 30, start)

	pred := PredictTrend(records, 0.2)

	if pred == nil {
		t.Fatal("expected prediction, got nil")
	}
	// Current AFR already exceeds the threshold AFR; nothing to project.
	if pred.DaysToThreshold != nil {
		t.Errorf("expected nil DaysToThreshold past the threshold, got %.2f", *pred.DaysToThreshold)
	}
}

func TestPredictTrend_ImprovingDrive(t *testing.T) {
	start := time.Now().AddDate(0, 0, -30)
	records := makeRecords(0.5, -0.01, 30, start)

	pred := PredictTrend(records, 0.2)

	if pred == nil {
		t.Fatal("expected prediction, got nil")
	}
	if pred.DaysToThreshold != nil {
		t.Errorf("improving drive should have nil DaysToThreshold")
	}
	if pred.DailyRate >= 0 {
		t.Errorf("improving drive should have negative daily rate, got %.4f", pred.DailyRate)
	}
}

// ── Confidence tiers ────────────────────────────────────────────────────────

func TestTrendConfidence(t *testing.T) {
	tests := []struct {
		days float64
		want string
	}{
		{5, "low"},
		{29, "low"},
		{30, "medium"},
		{89, "medium"},
		{90, "high"},
		{365, "high"},
	}

	for _, tt := range tests {
		if got := trendConfidence(tt.days); got != tt.want {
			t.Errorf("trendConfidence(%.0f) = %q, want %q", tt.days, got, tt.want)
		}
	}
}

// ── Linear regression ───────────────────────────────────────────────────────

func TestLinearRegression_PerfectLine(t *testing.T) {
	// y = 2x + 5
	xs := []float64{0, 1, 2, 3, 4}
	ys := []float64{5, 7, 9, 11, 13}

	slope, intercept := linearRegression(xs, ys)

	assertNear(t, "slope", slope, 2.0, 0.0001)
	assertNear(t, "intercept", intercept, 5.0, 0.0001)
}

func TestLinearRegression_Degenerate(t *testing.T) {
	slope, intercept := linearRegression(nil, nil)
	if slope != 0 || intercept != 0 {
		t.Errorf("empty data: slope=%.4f intercept=%.4f, want 0,0", slope, intercept)
	}

	slope, intercept = linearRegression([]float64{5}, []float64{42})
	assertNear(t, "single-point slope", slope, 0, 0.0001)
	assertNear(t, "single-point intercept", intercept, 42, 0.0001)
}
