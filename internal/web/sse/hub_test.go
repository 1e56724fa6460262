package sse

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/rewardroster/internal/model"
	"github.com/mcoot/rewardroster/internal/testutil"
)

func TestFormatSSEMessage(t *testing.T) {
	tests := []struct {
		name      string
		eventName string
		data      string
		expected  string
	}{
		{
			name:      "single line data",
			eventName: "player-added",
			data:      `{"name":"A"}`,
			expected:  "event: player-added\ndata: {\"name\":\"A\"}\n\n",
		},
		{
			name:      "multi-line data",
			eventName: "state-replaced",
			data:      "{\n  \"revision\": 2\n}",
			expected:  "event: state-replaced\ndata: {\ndata:   \"revision\": 2\ndata: }\n\n",
		},
		{
			name:      "empty data",
			eventName: "ping",
			data:      "",
			expected:  "event: ping\ndata: \n\n",
		},
		{
			name:      "data with carriage returns",
			eventName: "test",
			data:      "line1\r\nline2",
			expected:  "event: test\ndata: line1\ndata: line2\n\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, string(formatSSEMessage(tt.eventName, tt.data)))
		})
	}
}

func TestSplitLines(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{"single line", "hello", []string{"hello"}},
		{"two lines", "line1\nline2", []string{"line1", "line2"}},
		{"trailing newline", "line1\n", []string{"line1"}},
		{"empty string", "", []string{""}},
		{"crlf line endings", "line1\r\nline2\r\n", []string{"line1", "line2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, splitLines(tt.input))
		})
	}
}

func newRunningHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(testutil.NopLogger())
	go hub.Run()
	t.Cleanup(hub.Close)
	return hub
}

func receive(t *testing.T, c *Client) string {
	t.Helper()
	select {
	case msg, ok := <-c.send:
		require.True(t, ok, "client channel closed")
		return string(msg)
	case <-time.After(time.Second):
		t.Fatal("client did not receive message")
		return ""
	}
}

func TestHub_RegisterAndBroadcast(t *testing.T) {
	hub := newRunningHub(t)

	client := NewClient(hub, "origin-1")
	require.True(t, hub.Register(client))
	assert.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, time.Millisecond)

	hub.BroadcastEvent("player-removed", `{"name":"A"}`)
	assert.Equal(t, "event: player-removed\ndata: {\"name\":\"A\"}\n\n", receive(t, client))
}

func TestHub_Unregister(t *testing.T) {
	hub := newRunningHub(t)

	client := NewClient(hub, "origin-1")
	hub.Register(client)
	hub.Unregister(client)

	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, time.Millisecond)
	_, ok := <-client.send
	assert.False(t, ok)
}

func TestHub_BroadcastToMultipleClients(t *testing.T) {
	hub := newRunningHub(t)

	clients := []*Client{NewClient(hub, "a"), NewClient(hub, "b"), NewClient(hub, "c")}
	for _, c := range clients {
		hub.Register(c)
	}
	assert.Eventually(t, func() bool { return hub.ClientCount() == 3 }, time.Second, time.Millisecond)

	hub.BroadcastEvent("update", "data")
	for _, c := range clients {
		assert.Equal(t, "event: update\ndata: data\n\n", receive(t, c))
	}
}

func TestHub_SlowClientIsDisconnected(t *testing.T) {
	hub := newRunningHub(t)

	slow := NewClient(hub, "slow")
	hub.Register(slow)
	for i := 0; i < sendBufferSize+1; i++ {
		hub.BroadcastEvent("update", "data")
	}

	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, time.Millisecond)
	n := 0
	for range slow.send {
		n++
	}
	assert.Equal(t, sendBufferSize, n)
}

func TestHub_CloseReleasesCallers(t *testing.T) {
	hub := NewHub(testutil.NopLogger())
	hub.Close()
	hub.Close()

	assert.False(t, hub.Register(NewClient(hub, "late")))
	hub.Broadcast([]byte("x"))
}

func TestBroadcaster_PublishesJSONEvent(t *testing.T) {
	hub := newRunningHub(t)
	client := NewClient(hub, "listener")
	hub.Register(client)
	assert.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, time.Millisecond)

	b := NewBroadcaster(hub, testutil.NopLogger())
	p := model.NewPlayer("Z")
	b.Publish(model.Event{Type: model.EventPlayerAdded, Origin: "writer", Revision: 3, Player: &p})

	msg := receive(t, client)
	require.True(t, strings.HasPrefix(msg, "event: player-added\ndata: "))
	payload := strings.TrimSuffix(strings.TrimPrefix(msg, "event: player-added\ndata: "), "\n\n")

	var ev model.Event
	require.NoError(t, json.Unmarshal([]byte(payload), &ev))
	assert.Equal(t, "writer", ev.Origin)
	assert.Equal(t, int64(3), ev.Revision)
	require.NotNil(t, ev.Player)
	assert.Equal(t, "Z", ev.Player.Name)
}

func TestServeSSE_HeadersAndConnectedEvent(t *testing.T) {
	hub := newRunningHub(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/events", nil)
	ctx, cancel := context.WithTimeout(req.Context(), 100*time.Millisecond)
	defer cancel()
	req = req.WithContext(ctx)

	rr := httptest.NewRecorder()
	ServeSSE(rr, req, hub, "origin-1")

	assert.Equal(t, "text/event-stream", rr.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", rr.Header().Get("Cache-Control"))
	assert.Equal(t, "no", rr.Header().Get("X-Accel-Buffering"))
	body := rr.Body.String()
	assert.Contains(t, body, "retry: 3000")
	assert.Contains(t, body, "event: connected\ndata: {\"status\":\"connected\"}")
}
