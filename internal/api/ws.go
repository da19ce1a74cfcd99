package api

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"raidcast/internal/events"
)

const (
	writeTimeout = 10 * time.Second
	pingInterval = 30 * time.Second
)

// EventStream broadcasts bus events to connected websocket clients.
type EventStream struct {
	bus      *events.Bus
	upgrader websocket.Upgrader

	mu    sync.Mutex
	conns map[*websocket.Conn]chan events.Event
}

// NewEventStream creates a stream hub subscribed to every event.
func NewEventStream(bus *events.Bus) *EventStream {
	es := &EventStream{
		bus: bus,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		conns: make(map[*websocket.Conn]chan events.Event),
	}

	bus.Subscribe(es.broadcast)
	return es
}

func (es *EventStream) broadcast(e events.Event) {
	es.mu.Lock()
	defer es.mu.Unlock()

	for conn, ch := range es.conns {
		select {
		case ch <- e:
		default:
			// Slow consumer: drop the connection rather than the event
			// queue of everyone else.
			log.Printf("ws: dropping slow consumer %s", conn.RemoteAddr())
			close(ch)
			delete(es.conns, conn)
		}
	}
}

// HandleConnection upgrades to a websocket and streams events until the
// client goes away.
func (es *EventStream) HandleConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := es.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws: upgrade failed: %v", err)
		return
	}

	ch := make(chan events.Event, 64)
	es.mu.Lock()
	es.conns[conn] = ch
	es.mu.Unlock()

	log.Printf("ws: client %s connected", conn.RemoteAddr())

	go es.readLoop(conn)
	es.writeLoop(conn, ch)

	es.mu.Lock()
	if cur, ok := es.conns[conn]; ok && cur == ch {
		close(ch)
		delete(es.conns, conn)
	}
	es.mu.Unlock()
	conn.Close()

	log.Printf("ws: client %s disconnected", conn.RemoteAddr())
}

// readLoop discards client frames; the stream is one-way, but reading is
// required to notice closes and answer pings.
func (es *EventStream) readLoop(conn *websocket.Conn) {
	conn.SetReadLimit(1024)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (es *EventStream) writeLoop(conn *websocket.Conn, ch chan events.Event) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case e, ok := <-ch:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(e); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
