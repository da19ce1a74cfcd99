package notify

import (
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/nicholas-fedor/shoutrrr"

	"raidcast/internal/events"
)

// defaultCooldown suppresses repeats of the same alert for the same drive.
const defaultCooldown = 6 * time.Hour

// Sender abstracts message dispatch so the dispatcher can be tested
// without hitting real services.
type Sender interface {
	Send(shoutrrrURL, message string) error
}

// ShoutrrrSender dispatches via the Shoutrrr library.
type ShoutrrrSender struct{}

func (ShoutrrrSender) Send(url, message string) error {
	return shoutrrr.Send(url, message)
}

// Dispatcher subscribes to the event bus, enforces per-alert cooldowns,
// and forwards warning and critical events to the Shoutrrr URL.
type Dispatcher struct {
	url      string
	sender   Sender
	cooldown time.Duration

	// lastSent tracks the last dispatch per (event type, serial).
	mu       sync.Mutex
	lastSent map[string]time.Time

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewDispatcher creates a dispatcher targeting the given Shoutrrr URL.
// An empty URL disables dispatch entirely.
func NewDispatcher(url string, sender Sender) *Dispatcher {
	if sender == nil {
		sender = ShoutrrrSender{}
	}
	return &Dispatcher{
		url:      url,
		sender:   sender,
		cooldown: defaultCooldown,
		lastSent: make(map[string]time.Time),
		stopCh:   make(chan struct{}),
	}
}

// Start subscribes to the bus and begins dispatching.
func (d *Dispatcher) Start(bus *events.Bus) {
	ch := make(chan events.Event, 256)

	bus.Subscribe(func(e events.Event) {
		select {
		case ch <- e:
		default:
			log.Printf("notify: event queue full, dropping %s event", e.Type)
		}
	}, events.HighFailureProbability, events.DataLossRisk)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for {
			select {
			case e := <-ch:
				d.handle(e)
			case <-d.stopCh:
				// Drain remaining events
				for {
					select {
					case e := <-ch:
						d.handle(e)
					default:
						return
					}
				}
			}
		}
	}()
}

// Stop signals the dispatcher goroutine to finish and waits for it.
func (d *Dispatcher) Stop() {
	close(d.stopCh)
	d.wg.Wait()
}

func (d *Dispatcher) handle(e events.Event) {
	if d.url == "" || e.Severity < events.SeverityWarning {
		return
	}
	if !d.clearCooldown(e) {
		return
	}

	if err := d.sender.Send(d.url, formatMessage(e)); err != nil {
		log.Printf("notify: dispatch %s failed: %v", e.Type, err)
		return
	}
	log.Printf("notify: dispatched %s (%s)", e.Type, e.Severity)
}

// clearCooldown reports whether the alert may fire, and records it.
func (d *Dispatcher) clearCooldown(e events.Event) bool {
	key := string(e.Type) + "|" + e.SerialNumber

	d.mu.Lock()
	defer d.mu.Unlock()

	if last, ok := d.lastSent[key]; ok && time.Since(last) < d.cooldown {
		return false
	}
	d.lastSent[key] = time.Now()
	return true
}

func formatMessage(e events.Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", strings.ToUpper(e.Severity.String()), e.Message)
	if e.SerialNumber != "" {
		fmt.Fprintf(&b, " (serial %s)", e.SerialNumber)
	}
	return b.String()
}
