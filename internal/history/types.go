// Package history persists forecast passes to SQLite and projects AFR
// trends from the stored record.
package history

import "time"

const timeFormat = "2006-01-02 15:04:05"

// DeviceRecord is one drive's forecast persisted from a pass.
type DeviceRecord struct {
	ID        int       `json:"id,omitempty"`
	PassID    string    `json:"pass_id"`
	Serial    string    `json:"serial"`
	Name      string    `json:"name,omitempty"`
	Member    bool      `json:"member"`
	AFR       float64   `json:"afr"`
	AFP       float64   `json:"afp"`
	Timestamp time.Time `json:"timestamp"`
}

// PassRecord is the array-level summary of a forecast pass.
type PassRecord struct {
	PassID                  string    `json:"pass_id"`
	DiskCount               int       `json:"disk_count"`
	ArrayFailureRate        float64   `json:"array_failure_rate"`
	ArrayFailureProbability float64   `json:"array_failure_probability"`
	Timestamp               time.Time `json:"timestamp"`
}

// TrendPrediction projects a drive's AFR trajectory from its history.
type TrendPrediction struct {
	// DailyRate is the fitted AFR change per day.
	DailyRate float64 `json:"daily_rate"`
	// Confidence reflects the span of data behind the fit.
	Confidence string `json:"confidence"` // "low", "medium", "high"
	// DaysToThreshold estimates when the drive's AFP crosses the given
	// alert threshold; nil when the trend is flat or improving.
	DaysToThreshold *float64 `json:"days_to_threshold,omitempty"`
}
