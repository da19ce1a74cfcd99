package events

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestPublishCallsMatchingSubscriber(t *testing.T) {
	bus := NewBus()
	var called atomic.Bool

	bus.Subscribe(func(e Event) {
		if e.Type != HighFailureProbability {
			t.Errorf("expected HighFailureProbability, got %s", e.Type)
		}
		called.Store(true)
	}, HighFailureProbability)

	bus.Publish(Event{Type: HighFailureProbability, Message: "test"})

	if !called.Load() {
		t.Error("subscriber was not called")
	}
}

func TestSubscriberIgnoresUnmatchedTypes(t *testing.T) {
	bus := NewBus()
	var called atomic.Bool

	bus.Subscribe(func(e Event) {
		called.Store(true)
	}, HighFailureProbability)

	bus.Publish(Event{Type: ReportProcessed, Message: "pass"})

	if called.Load() {
		t.Error("subscriber should not have been called for ReportProcessed")
	}
}

func TestWildcardSubscriberReceivesAll(t *testing.T) {
	bus := NewBus()
	var count atomic.Int32

	bus.Subscribe(func(e Event) {
		count.Add(1)
	})

	bus.Publish(Event{Type: HighFailureProbability, Message: "a"})
	bus.Publish(Event{Type: DataLossRisk, Message: "b"})
	bus.Publish(Event{Type: ReportProcessed, Message: "c"})

	if count.Load() != 3 {
		t.Errorf("expected 3 calls, got %d", count.Load())
	}
}

func TestPublishSetsTimestamp(t *testing.T) {
	bus := NewBus()
	var got time.Time

	bus.Subscribe(func(e Event) {
		got = e.Timestamp
	})

	bus.Publish(Event{Type: DataLossRisk, Message: "ts"})

	if got.IsZero() {
		t.Error("timestamp was not set")
	}
}

func TestPublishPreservesExplicitTimestamp(t *testing.T) {
	bus := NewBus()
	explicit := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var got time.Time

	bus.Subscribe(func(e Event) {
		got = e.Timestamp
	})

	bus.Publish(Event{Type: DataLossRisk, Message: "ts", Timestamp: explicit})

	if !got.Equal(explicit) {
		t.Errorf("expected %v, got %v", explicit, got)
	}
}

func TestSubscriberPanicIsContained(t *testing.T) {
	bus := NewBus()
	var after atomic.Bool

	bus.Subscribe(func(e Event) { panic("boom") })
	bus.Subscribe(func(e Event) { after.Store(true) })

	bus.Publish(Event{Type: ReportProcessed, Message: "survive"})

	if !after.Load() {
		t.Error("subscriber after the panicking one was not called")
	}
}

func TestConcurrentPublishSubscribe(t *testing.T) {
	bus := NewBus()
	var count atomic.Int32
	var wg sync.WaitGroup

	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			bus.Subscribe(func(e Event) {
				count.Add(1)
			}, HighFailureProbability)
		}()
	}
	wg.Wait()

	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			bus.Publish(Event{Type: HighFailureProbability, Message: "concurrent"})
		}()
	}
	wg.Wait()

	if count.Load() != 1000 {
		t.Errorf("expected 1000, got %d", count.Load())
	}
}
