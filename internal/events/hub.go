// Package events fans per-export progress out to interested listeners.
// Every event carries the session ID of the export it belongs to, so a
// subscriber watching one session ignores traffic from concurrent ones.
package events

import (
	"sync"
	"time"
)

const (
	TypeProgress = "progress"
	TypeFallback = "fallback"
	TypeDone     = "done"
	TypeFailed   = "failed"
)

// Event is one export lifecycle notification.
type Event struct {
	SessionID string    `json:"session_id"`
	Type      string    `json:"type"`
	Percent   float64   `json:"percent,omitempty"`
	Error     string    `json:"error,omitempty"`
	At        time.Time `json:"at"`
}

const subscriberBuffer = 64

// Hub is a process-local broadcast channel for export events.
// Publishing never blocks: a subscriber that stops draining its channel
// misses events rather than stalling the encode pipeline.
type Hub struct {
	mu   sync.Mutex
	subs map[chan Event]struct{}
	now  func() time.Time
}

func NewHub() *Hub {
	return &Hub{
		subs: map[chan Event]struct{}{},
		now:  time.Now,
	}
}

// Subscribe registers a listener for all sessions. The caller must
// eventually Unsubscribe the returned channel.
func (h *Hub) Subscribe() chan Event {
	ch := make(chan Event, subscriberBuffer)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

// Unsubscribe removes and closes a listener channel.
func (h *Hub) Unsubscribe(ch chan Event) {
	h.mu.Lock()
	if _, ok := h.subs[ch]; ok {
		delete(h.subs, ch)
		close(ch)
	}
	h.mu.Unlock()
}

// Publish delivers ev to every subscriber without blocking.
func (h *Hub) Publish(ev Event) {
	if ev.At.IsZero() {
		ev.At = h.now()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- ev:
		default:
			// Slow subscriber, drop the event.
		}
	}
}

// Progress publishes a throttle-shaped progress value for a session.
func (h *Hub) Progress(sessionID string, percent float64) {
	h.Publish(Event{SessionID: sessionID, Type: TypeProgress, Percent: percent})
}

// Fallback publishes the one-way switch to software encoding.
func (h *Hub) Fallback(sessionID string) {
	h.Publish(Event{SessionID: sessionID, Type: TypeFallback})
}

// Done publishes successful completion.
func (h *Hub) Done(sessionID string) {
	h.Publish(Event{SessionID: sessionID, Type: TypeDone, Percent: 100})
}

// Failed publishes a terminal failure with its message.
func (h *Hub) Failed(sessionID string, errMsg string) {
	h.Publish(Event{SessionID: sessionID, Type: TypeFailed, Error: errMsg})
}
