// Package memory is an in-process sync channel. A Hub fans roster service
// events out to Clients, which can be taken offline to exercise the
// disconnect path.
package memory

import (
	"log/slog"
	"sync"

	"github.com/mcoot/rewardroster/internal/model"
)

// subscriptionBuffer bounds undelivered events per client
const subscriptionBuffer = 256

type subscription struct {
	events chan model.Event
}

// Hub broadcasts events to every live subscription, the writer's included.
// A subscriber that falls a full buffer behind is dropped and has to
// reconnect.
type Hub struct {
	mu     sync.Mutex
	subs   map[*subscription]struct{}
	logger *slog.Logger
}

// NewHub creates an empty hub
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		subs:   make(map[*subscription]struct{}),
		logger: logger.With(slog.String("component", "memory-hub")),
	}
}

// Publish delivers ev to all subscribers
func (h *Hub) Publish(ev model.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs {
		select {
		case sub.events <- ev:
		default:
			h.logger.Warn("subscriber buffer full, dropping subscriber")
			delete(h.subs, sub)
			close(sub.events)
		}
	}
}

func (h *Hub) subscribe() *subscription {
	h.mu.Lock()
	defer h.mu.Unlock()
	sub := &subscription{events: make(chan model.Event, subscriptionBuffer)}
	h.subs[sub] = struct{}{}
	return sub
}

func (h *Hub) unsubscribe(sub *subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[sub]; ok {
		delete(h.subs, sub)
		close(sub.events)
	}
}

// Subscribers returns the number of live subscriptions
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
