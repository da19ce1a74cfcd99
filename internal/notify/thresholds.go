// Package notify turns forecast results into events and dispatches them
// to the configured notification service.
package notify

import (
	"fmt"

	"raidcast/internal/events"
	"raidcast/internal/reliability"
)

// Thresholds are the alerting levels applied to a forecast pass.
type Thresholds struct {
	// AFPWarn and AFPCritical bound the per-disk annual failure
	// probability, 0..1.
	AFPWarn     float64
	AFPCritical float64

	// LossRisk bounds the array data-loss probability at the local
	// array's parity level and scrub cadence.
	LossRisk    float64
	ParityLevel int
	ScrubRate   float64
}

// Evaluate publishes events for every threshold a forecast crosses.
// It never fails: an array too small for its configured parity simply
// yields no data-loss event.
func Evaluate(bus *events.Bus, f *reliability.Forecast, th Thresholds) {
	for i := range f.Devices {
		df := &f.Devices[i]
		var severity events.Severity
		switch {
		case th.AFPCritical > 0 && df.AFP >= th.AFPCritical:
			severity = events.SeverityCritical
		case th.AFPWarn > 0 && df.AFP >= th.AFPWarn:
			severity = events.SeverityWarning
		default:
			continue
		}

		bus.Publish(events.Event{
			Type:         events.HighFailureProbability,
			Severity:     severity,
			SerialNumber: df.Device.Serial,
			Message: fmt.Sprintf("disk %s (%s) has a %.1f%% chance of failing within a year",
				df.Device.Serial, nameOrPath(&df.Device), df.AFP*100),
			Metadata: map[string]string{
				"afr": fmt.Sprintf("%.6f", df.AFR),
				"afp": fmt.Sprintf("%.6f", df.AFP),
			},
		})
	}

	if th.LossRisk <= 0 || th.ParityLevel < 1 || f.DiskCount <= th.ParityLevel {
		return
	}

	p, err := reliability.DataLossProbability(f.ArrayFailureRate, th.ScrubRate, f.DiskCount, th.ParityLevel)
	if err != nil || p < th.LossRisk {
		return
	}

	bus.Publish(events.Event{
		Type:     events.DataLossRisk,
		Severity: events.SeverityCritical,
		Message: fmt.Sprintf("array data-loss probability is %.3f%% over the next year at parity %d",
			p*100, th.ParityLevel),
		Metadata: map[string]string{
			"probability":  fmt.Sprintf("%.9f", p),
			"parity":       fmt.Sprintf("%d", th.ParityLevel),
			"repairs_year": fmt.Sprintf("%.2f", th.ScrubRate),
		},
	})
}

func nameOrPath(d *reliability.Device) string {
	if d.Name != "" {
		return d.Name
	}
	if d.Path != "" {
		return d.Path
	}
	return "unnamed"
}
