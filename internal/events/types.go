package events

import "time"

// EventType identifies the kind of event being published.
type EventType string

const (
	// Forecast events
	HighFailureProbability EventType = "high_failure_probability"
	DataLossRisk           EventType = "data_loss_risk"
	ReportProcessed        EventType = "report_processed"
)

// Severity indicates the urgency of an event.
type Severity int

const (
	SeverityInfo     Severity = 0
	SeverityWarning  Severity = 1
	SeverityCritical Severity = 2
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Event is the payload published through the bus.
type Event struct {
	Type         EventType         `json:"type"`
	Severity     Severity          `json:"severity"`
	SerialNumber string            `json:"serial_number,omitempty"`
	Message      string            `json:"message"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	Timestamp    time.Time         `json:"timestamp"`
}
