package remote

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mcoot/rewardroster/internal/model"
	"github.com/mcoot/rewardroster/internal/web/sse"
)

// ErrStreamClosed is returned when the server ends the event stream
var ErrStreamClosed = errors.New("event stream closed")

// maxEventSize bounds one SSE line; full snapshots travel as one line
const maxEventSize = 8 << 20

// Message is one parsed SSE message
type Message struct {
	Event string
	Data  string
}

// Stream reads raw SSE messages until ctx is cancelled or the server
// closes the stream
func (c *Client) Stream(ctx context.Context, handle func(Message)) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/events", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.stream.Do(req)
	if err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), maxEventSize)
	var current string
	var dataLines []string

	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case strings.HasPrefix(line, "event: "):
			current = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			dataLines = append(dataLines, strings.TrimPrefix(line, "data: "))
		case line == "":
			if current != "" {
				handle(Message{Event: current, Data: strings.Join(dataLines, "\n")})
			}
			current = ""
			dataLines = nil
		}
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("stream error: %w", err)
	}
	return ErrStreamClosed
}

// Listen subscribes to roster events. onReady runs when the server
// confirms the subscription. An event whose data cannot be decoded is
// handed on with its type and no payload, which the reconciler reports
// as a malformed snapshot.
func (c *Client) Listen(ctx context.Context, onReady func(), handle func(model.Event)) error {
	return c.Stream(ctx, func(m Message) {
		if m.Event == sse.ConnectedEvent {
			onReady()
			return
		}
		var ev model.Event
		if err := json.Unmarshal([]byte(m.Data), &ev); err != nil {
			c.logger.Warn("undecodable event",
				slog.String("event", m.Event),
				slog.String("error", err.Error()))
			ev = model.Event{Type: model.EventType(m.Event)}
		}
		handle(ev)
	})
}
