// Package sse implements a Server-Sent Events broker for console updates.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

// Event types.
const (
	EventCatalogUpdated = "catalog.updated"
	EventNavigate       = "navigate"
)

// Event represents an SSE event to broadcast. A non-empty Session limits
// delivery to subscribers of that session; unscoped subscribers get every
// event.
type Event struct {
	Type    string `json:"type"`
	Session string `json:"-"`
	Data    any    `json:"data"`
}

type client struct {
	ch      chan []byte
	session string
}

type subscribeReq struct {
	session string
	ch      chan []byte
}

type catalogEventReq struct {
	checksum string
	count    int
}

// Broker manages SSE client connections and broadcasts events.
//
// A single internal event loop owns the client set and the catalog throttle
// timestamp; public methods talk to it over channels.
type Broker struct {
	catalogMin time.Duration

	subscribeCh    chan subscribeReq
	unsubscribeCh  chan chan []byte
	publishCh      chan Event
	catalogEventCh chan catalogEventReq
	countReqCh     chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a broker that emits at most one catalog.updated event
// per catalogThrottle.
func NewBroker(catalogThrottle time.Duration) *Broker {
	if catalogThrottle <= 0 {
		catalogThrottle = 2 * time.Second
	}

	b := &Broker{
		catalogMin:     catalogThrottle,
		subscribeCh:    make(chan subscribeReq),
		unsubscribeCh:  make(chan chan []byte),
		publishCh:      make(chan Event, 256),
		catalogEventCh: make(chan catalogEventReq, 256),
		countReqCh:     make(chan chan int),
		stopCh:         make(chan struct{}),
		stopped:        make(chan struct{}),
	}

	go b.run()
	return b
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]client)
	var lastCatalog time.Time

	broadcast := func(event Event) {
		payload, err := json.Marshal(event.Data)
		if err != nil {
			return
		}
		raw := []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", event.Type, payload))

		for ch, c := range clients {
			if event.Session != "" && c.session != "" && c.session != event.Session {
				continue
			}
			select {
			case ch <- raw:
			default:
				// Client buffer full; skip to avoid blocking broker loop.
			}
		}
	}

	for {
		select {
		case <-b.stopCh:
			for ch := range clients {
				close(ch)
			}
			return

		case req := <-b.subscribeCh:
			clients[req.ch] = client{ch: req.ch, session: req.session}

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case event := <-b.publishCh:
			broadcast(event)

		case req := <-b.catalogEventCh:
			now := time.Now()
			if now.Sub(lastCatalog) < b.catalogMin {
				continue
			}
			lastCatalog = now
			broadcast(Event{Type: EventCatalogUpdated, Data: map[string]any{
				"checksum": req.checksum,
				"reports":  req.count,
			}})

		case resp := <-b.countReqCh:
			resp <- len(clients)
		}
	}
}

// Close gracefully stops broker loop and closes all client channels.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe adds a client that receives every event.
func (b *Broker) Subscribe() chan []byte {
	return b.SubscribeSession("")
}

// SubscribeSession adds a client that receives unscoped events and events
// scoped to session.
func (b *Broker) SubscribeSession(session string) chan []byte {
	ch := make(chan []byte, 64)
	if b.closed.Load() {
		close(ch)
		return ch
	}

	select {
	case b.subscribeCh <- subscribeReq{session: session, ch: ch}:
	case <-b.stopped:
		close(ch)
	}

	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}

	resp := make(chan int, 1)
	select {
	case b.countReqCh <- resp:
	case <-b.stopped:
		return 0
	}

	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish sends an event to all matching clients.
func (b *Broker) Publish(event Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- event:
	case <-b.stopped:
	}
}

// PublishNavigate tells the session's clients to move to route.
func (b *Broker) PublishNavigate(session, route string) {
	b.Publish(Event{Type: EventNavigate, Session: session, Data: map[string]string{
		"session": session,
		"route":   route,
	}})
}

// PublishCatalogEvent announces a reloaded catalog, throttled.
func (b *Broker) PublishCatalogEvent(checksum string, count int) {
	if b.closed.Load() {
		return
	}
	select {
	case b.catalogEventCh <- catalogEventReq{checksum: checksum, count: count}:
	case <-b.stopped:
	}
}

// ServeHTTP is the SSE endpoint handler (GET /api/events). The optional
// "session" query parameter scopes the stream.
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.SubscribeSession(r.URL.Query().Get("session"))
	defer b.Unsubscribe(ch)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
