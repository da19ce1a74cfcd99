package notify

import (
	"errors"
	"sync"
	"testing"
	"time"

	"raidcast/internal/events"
	"raidcast/internal/reliability"
)

// ── Test helpers ────────────────────────────────────────────────────────────

// fakeSender records dispatched messages.
type fakeSender struct {
	mu       sync.Mutex
	messages []string
	fail     bool
}

func (f *fakeSender) Send(url, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("sender down")
	}
	f.messages = append(f.messages, message)
	return nil
}

func (f *fakeSender) sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.messages...)
}

func warning(serial string) events.Event {
	return events.Event{
		Type:         events.HighFailureProbability,
		Severity:     events.SeverityWarning,
		SerialNumber: serial,
		Message:      "disk is degrading",
	}
}

// ── Dispatcher ──────────────────────────────────────────────────────────────

func TestDispatcher_ForwardsWarnings(t *testing.T) {
	bus := events.NewBus()
	sender := &fakeSender{}
	d := NewDispatcher("discord://token@channel", sender)
	d.Start(bus)

	bus.Publish(warning("SN-001"))
	d.Stop()

	sent := sender.sent()
	if len(sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(sent))
	}
	if want := "[WARNING] disk is degrading (serial SN-001)"; sent[0] != want {
		t.Errorf("message = %q, want %q", sent[0], want)
	}
}

func TestDispatcher_IgnoresInfo(t *testing.T) {
	bus := events.NewBus()
	sender := &fakeSender{}
	d := NewDispatcher("discord://token@channel", sender)
	d.Start(bus)

	bus.Publish(events.Event{
		Type:     events.HighFailureProbability,
		Severity: events.SeverityInfo,
		Message:  "all healthy",
	})
	d.Stop()

	if len(sender.sent()) != 0 {
		t.Errorf("info events must not dispatch, sent %v", sender.sent())
	}
}

func TestDispatcher_EmptyURLDisables(t *testing.T) {
	bus := events.NewBus()
	sender := &fakeSender{}
	d := NewDispatcher("", sender)
	d.Start(bus)

	bus.Publish(warning("SN-001"))
	d.Stop()

	if len(sender.sent()) != 0 {
		t.Errorf("empty URL must disable dispatch, sent %v", sender.sent())
	}
}

func TestDispatcher_CooldownSuppressesRepeats(t *testing.T) {
	bus := events.NewBus()
	sender := &fakeSender{}
	d := NewDispatcher("discord://token@channel", sender)
	d.Start(bus)

	bus.Publish(warning("SN-001"))
	bus.Publish(warning("SN-001")) // same drive, inside cooldown
	bus.Publish(warning("SN-002")) // different drive, fires
	d.Stop()

	if got := len(sender.sent()); got != 2 {
		t.Errorf("sent %d messages, want 2 (cooldown on SN-001)", got)
	}
}

func TestDispatcher_CooldownExpires(t *testing.T) {
	sender := &fakeSender{}
	d := NewDispatcher("discord://token@channel", sender)
	d.cooldown = 10 * time.Millisecond

	d.handle(warning("SN-001"))
	time.Sleep(20 * time.Millisecond)
	d.handle(warning("SN-001"))

	if got := len(sender.sent()); got != 2 {
		t.Errorf("sent %d messages, want 2 after cooldown expiry", got)
	}
}

func TestDispatcher_SendFailureDoesNotPanic(t *testing.T) {
	bus := events.NewBus()
	sender := &fakeSender{fail: true}
	d := NewDispatcher("discord://token@channel", sender)
	d.Start(bus)

	bus.Publish(warning("SN-001"))
	d.Stop()

	if len(sender.sent()) != 0 {
		t.Error("failed send should record nothing")
	}
}

// ── Evaluate ────────────────────────────────────────────────────────────────

func degradedForecast(t *testing.T) *reliability.Forecast {
	t.Helper()
	devices := []reliability.Device{
		{
			Serial:      "BAD-1",
			Name:        "data1",
			ArrayMember: true,
			// Pending sectors at 250 puts the AFR above 3.
			Attributes: map[int]uint64{reliability.AttrPendingSectors: 250},
		},
		{Serial: "OK-1", Name: "data2", ArrayMember: true, Attributes: map[int]uint64{}},
		{Serial: "OK-2", Name: "parity", ArrayMember: true, Attributes: map[int]uint64{}},
	}
	f, err := reliability.Compute(devices, reliability.Config{MaxParity: 2})
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func TestEvaluate_CriticalDisk(t *testing.T) {
	bus := events.NewBus()
	var got []events.Event
	bus.Subscribe(func(e events.Event) { got = append(got, e) })

	Evaluate(bus, degradedForecast(t), Thresholds{
		AFPWarn:     0.05,
		AFPCritical: 0.20,
		LossRisk:    0.0001,
		ParityLevel: 1,
		ScrubRate:   reliability.RepairWeekly,
	})

	var diskEvents, lossEvents int
	for _, e := range got {
		switch e.Type {
		case events.HighFailureProbability:
			diskEvents++
			if e.SerialNumber != "BAD-1" {
				t.Errorf("unexpected disk event for %s", e.SerialNumber)
			}
			if e.Severity != events.SeverityCritical {
				t.Errorf("severity = %s, want critical", e.Severity)
			}
		case events.DataLossRisk:
			lossEvents++
		}
	}
	if diskEvents != 1 {
		t.Errorf("disk events = %d, want 1", diskEvents)
	}
	if lossEvents != 1 {
		t.Errorf("loss events = %d, want 1", lossEvents)
	}
}

func TestEvaluate_HealthyArrayStaysQuiet(t *testing.T) {
	devices := []reliability.Device{
		{Serial: "OK-1", ArrayMember: true, Attributes: map[int]uint64{}},
		{Serial: "OK-2", ArrayMember: true, Attributes: map[int]uint64{}},
	}
	f, err := reliability.Compute(devices, reliability.Config{MaxParity: 1})
	if err != nil {
		t.Fatal(err)
	}

	bus := events.NewBus()
	var count int
	bus.Subscribe(func(e events.Event) { count++ })

	Evaluate(bus, f, Thresholds{
		AFPWarn:     0.05,
		AFPCritical: 0.20,
		LossRisk:    0.01,
		ParityLevel: 1,
		ScrubRate:   reliability.RepairWeekly,
	})

	if count != 0 {
		t.Errorf("healthy array published %d events, want 0", count)
	}
}

func TestEvaluate_ParityExceedsArraySkipsLossCheck(t *testing.T) {
	f := degradedForecast(t)

	bus := events.NewBus()
	var lossEvents int
	bus.Subscribe(func(e events.Event) { lossEvents++ }, events.DataLossRisk)

	Evaluate(bus, f, Thresholds{
		LossRisk:    0.000001,
		ParityLevel: f.DiskCount, // more parity than disks can carry
		ScrubRate:   reliability.RepairWeekly,
	})

	if lossEvents != 0 {
		t.Errorf("loss events = %d, want 0 for oversized parity", lossEvents)
	}
}
