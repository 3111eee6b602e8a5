// Package presence broadcasts user online/offline transitions to connected
// websocket subscribers. The authoritative online flag lives on the user
// record; this package only fans out the transitions as they happen.
package presence

import (
	"log/slog"
	"sync"
	"time"
)

// Event is one online/offline transition for a user.
type Event struct {
	UserID string    `json:"user_id"`
	Online bool      `json:"online"`
	At     time.Time `json:"at"`
}

// Hub owns the in-memory subscriber set.
//
// Subscriber channels are bounded. A subscriber that cannot keep up misses
// events rather than blocking publishers; presence is a best-effort feed.
type Hub struct {
	log *slog.Logger

	mu   sync.Mutex
	subs map[*subscriber]struct{}
}

type subscriber struct {
	ch chan Event
}

// NewHub constructs a Hub instance.
func NewHub(log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		log:  log,
		subs: make(map[*subscriber]struct{}),
	}
}

// Subscribe registers a new subscriber with a bounded queue and returns its
// event channel plus a cancel func. Cancel is idempotent via the map delete;
// the channel is never closed to keep concurrent publishes safe.
func (h *Hub) Subscribe(queueSize int) (<-chan Event, func()) {
	if queueSize <= 0 {
		queueSize = 16
	}
	sub := &subscriber{ch: make(chan Event, queueSize)}

	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		delete(h.subs, sub)
		h.mu.Unlock()
	}
	return sub.ch, cancel
}

// Publish fans ev out to all current subscribers without blocking.
func (h *Hub) Publish(ev Event) {
	if h == nil {
		return
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for sub := range h.subs {
		select {
		case sub.ch <- ev:
		default:
			h.log.Debug("presence.drop", "user_id", ev.UserID)
		}
	}
}

// Subscribers reports the current subscriber count.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
