// Package sse streams live-reload events to preview pages over Server-Sent
// Events.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// Event types sent to clients.
const (
	TypePostPublished = "post.published"
	TypeIndexUpdated  = "index.updated"
)

// clientBuffer is how many events a slow client may fall behind before
// further events are dropped for it.
const clientBuffer = 16

// Broker fans post events out to connected clients. index.updated follows a
// post event at most once per throttle interval.
type Broker struct {
	indexMin time.Duration

	mu        sync.Mutex
	clients   map[chan []byte]struct{}
	lastIndex time.Time
	closed    bool
}

// NewBroker creates a broker. A non-positive indexThrottle means two seconds.
func NewBroker(indexThrottle time.Duration) *Broker {
	if indexThrottle <= 0 {
		indexThrottle = 2 * time.Second
	}
	return &Broker{
		indexMin: indexThrottle,
		clients:  make(map[chan []byte]struct{}),
	}
}

// PublishPost announces a published post to every client.
func (b *Broker) PublishPost(slug, lede string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}

	b.send(TypePostPublished, map[string]string{"slug": slug, "lede": lede})

	if now := time.Now(); now.Sub(b.lastIndex) >= b.indexMin {
		b.lastIndex = now
		b.send(TypeIndexUpdated, map[string]string{})
	}
}

// send writes one event to every client without blocking. b.mu must be held.
func (b *Broker) send(eventType string, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		return
	}
	msg := []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", eventType, payload))
	for ch := range b.clients {
		select {
		case ch <- msg:
		default:
		}
	}
}

// Clients returns the number of connected clients.
func (b *Broker) Clients() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.clients)
}

// Close disconnects every client. Later subscribers are refused.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for ch := range b.clients {
		close(ch)
		delete(b.clients, ch)
	}
}

func (b *Broker) subscribe() (chan []byte, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, false
	}
	ch := make(chan []byte, clientBuffer)
	b.clients[ch] = struct{}{}
	return ch, true
}

func (b *Broker) unsubscribe(ch chan []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.clients[ch]; ok {
		delete(b.clients, ch)
		close(ch)
	}
}

// ServeHTTP streams events to one client (GET /api/events) until it
// disconnects or the broker closes.
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	ch, ok := b.subscribe()
	if !ok {
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}
	defer b.unsubscribe(ch)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
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
