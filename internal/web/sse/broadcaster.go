package sse

import (
	"encoding/json"
	"log/slog"

	"github.com/mcoot/rewardroster/internal/model"
)

// Broadcaster publishes roster service events to SSE clients
type Broadcaster struct {
	hub    *Hub
	logger *slog.Logger
}

// NewBroadcaster creates a new Broadcaster
func NewBroadcaster(hub *Hub, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		hub:    hub,
		logger: logger.With(slog.String("component", "sse-broadcaster")),
	}
}

// Publish sends ev as an SSE event named after its type
func (b *Broadcaster) Publish(ev model.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		b.logger.Error("sse failed to encode event",
			slog.String("type", string(ev.Type)),
			slog.Any("error", err))
		return
	}
	b.hub.BroadcastEvent(string(ev.Type), string(data))
}
