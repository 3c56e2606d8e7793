// Package broadcast fans out auction events to connected observers.
//
// Ordering: all state-changing events are published by the engine while it
// holds its admission lock, and the hub delivers each publish to every
// subscriber channel before returning, so every observer sees events in
// admission order. A subscriber whose buffer is full loses events instead
// of blocking admission.
package broadcast

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/jensholdgaard/live-auction/internal/event"
)

// Message is a single event delivered to observers.
type Message struct {
	Type event.Type `json:"type"`
	Data any        `json:"data"`
}

// Subscriber is one connected observer.
type Subscriber struct {
	ID uuid.UUID
	C  <-chan Message

	ch      chan Message
	dropped int
}

// Hub manages the observer set.
type Hub struct {
	mu          sync.Mutex
	subscribers map[uuid.UUID]*Subscriber
	buffer      int
	logger      *slog.Logger
}

// NewHub creates a Hub whose subscribers buffer up to buffer messages.
func NewHub(buffer int, logger *slog.Logger) *Hub {
	return &Hub{
		subscribers: make(map[uuid.UUID]*Subscriber),
		buffer:      buffer,
		logger:      logger,
	}
}

// Subscribe registers a new observer and returns its subscription.
func (h *Hub) Subscribe() *Subscriber {
	sub := &Subscriber{
		ID: uuid.New(),
		ch: make(chan Message, h.buffer),
	}
	sub.C = sub.ch

	h.mu.Lock()
	h.subscribers[sub.ID] = sub
	h.mu.Unlock()

	h.logger.Debug("observer subscribed", slog.String("subscriber_id", sub.ID.String()))
	return sub
}

// Unsubscribe removes an observer and closes its channel.
func (h *Hub) Unsubscribe(id uuid.UUID) {
	h.mu.Lock()
	sub, ok := h.subscribers[id]
	if ok {
		delete(h.subscribers, id)
		close(sub.ch)
	}
	h.mu.Unlock()

	if ok {
		h.logger.Debug("observer unsubscribed",
			slog.String("subscriber_id", id.String()),
			slog.Int("dropped", sub.dropped),
		)
	}
}

// Publish delivers msg to every subscriber without blocking.
func (h *Hub) Publish(msg Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, sub := range h.subscribers {
		select {
		case sub.ch <- msg:
		default:
			sub.dropped++
			if sub.dropped == 1 || sub.dropped%100 == 0 {
				h.logger.Warn("slow observer, dropping events",
					slog.String("subscriber_id", sub.ID.String()),
					slog.Int("dropped", sub.dropped),
				)
			}
		}
	}
}

// Len returns the number of connected observers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}
