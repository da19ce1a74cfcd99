// Package events is the in-process pub/sub channel between the forecast
// pipeline and its consumers (notifier, websocket stream).
package events

import (
	"log"
	"sync"
	"time"
)

// Handler is a callback invoked when a matching event is published.
type Handler func(Event)

// subscription ties a handler to the event types it listens for.
// An empty filter receives everything.
type subscription struct {
	filter  []EventType
	handler Handler
}

func (s *subscription) matches(t EventType) bool {
	if len(s.filter) == 0 {
		return true
	}
	for _, f := range s.filter {
		if f == t {
			return true
		}
	}
	return false
}

// Bus is a thread-safe, in-process publish/subscribe event bus.
type Bus struct {
	mu   sync.RWMutex
	subs []subscription
}

// NewBus creates a ready-to-use event bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a handler for the given event types.
// With no types the handler receives every event.
func (b *Bus) Subscribe(handler Handler, types ...EventType) {
	b.mu.Lock()
	b.subs = append(b.subs, subscription{filter: types, handler: handler})
	b.mu.Unlock()
}

// Publish delivers an event to all matching subscribers, synchronously in
// the caller's goroutine. Subscribers needing their own concurrency queue
// internally (see notify.Dispatcher). A zero timestamp is filled in.
func (b *Bus) Publish(e Event) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}

	b.mu.RLock()
	subs := make([]subscription, len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	for i := range subs {
		if !subs[i].matches(e.Type) {
			continue
		}
		deliver(&subs[i], e)
	}
}

// deliver isolates subscriber panics so one bad handler cannot take down
// the publisher.
func deliver(s *subscription, e Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("events: subscriber panic on %s: %v", e.Type, r)
		}
	}()
	s.handler(e)
}
