// Package remote is the sync channel backed by the roster server's HTTP
// API and its server-sent event stream.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mcoot/rewardroster/internal/api/apierr"
	"github.com/mcoot/rewardroster/internal/api/request"
	"github.com/mcoot/rewardroster/internal/api/response"
	"github.com/mcoot/rewardroster/internal/model"
	"github.com/mcoot/rewardroster/internal/reconcile"
)

// DefaultTimeout bounds every non-streaming request
const DefaultTimeout = 30 * time.Second

// Client is an HTTP client for the roster API
type Client struct {
	baseURL    string
	httpClient *http.Client
	stream     *http.Client
	logger     *slog.Logger
}

var (
	_ reconcile.Channel        = (*Client)(nil)
	_ reconcile.HistoryDeleter = (*Client)(nil)
)

// NewClient creates a new API client
func NewClient(baseURL string, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		stream: &http.Client{
			Timeout: 0, // No timeout for SSE
		},
		logger: logger.With(slog.String("component", "remote")),
	}
}

// Error is an error response from the API. It unwraps to the matching
// model sentinel when there is one.
type Error struct {
	Status  int
	Code    string
	Message string
}

func (e *Error) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("HTTP %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Code)
}

func (e *Error) Unwrap() error {
	return apierr.Sentinel(e.Code)
}

// Do performs an HTTP request. A non-empty origin is sent as the origin
// header.
func (c *Client) Do(ctx context.Context, method, path, origin string, body, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if origin != "" {
		req.Header.Set(request.OriginHeader, origin)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp apierr.ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error.Code != "" {
			return &Error{Status: resp.StatusCode, Code: errResp.Error.Code, Message: errResp.Error.Message}
		}
		return &Error{Status: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return nil
}

// LoadState fetches the shared snapshot
func (c *Client) LoadState(ctx context.Context) (*model.Snapshot, error) {
	var snap model.Snapshot
	if err := c.Do(ctx, http.MethodGet, "/api/v1/state", "", nil, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// PushState replaces the shared snapshot
func (c *Client) PushState(ctx context.Context, u model.Update) (model.PushAck, error) {
	var rev response.Revision
	if err := c.Do(ctx, http.MethodPut, "/api/v1/state", u.Origin, &u.Snapshot, &rev); err != nil {
		return model.PushAck{}, err
	}
	return model.PushAck{Revision: rev.Revision}, nil
}

// DeleteHistory deletes one history entry
func (c *Client) DeleteHistory(ctx context.Context, id string) error {
	return c.Do(ctx, http.MethodDelete, "/api/v1/history/"+url.PathEscape(id), "", nil, nil)
}

// Health reports server status
func (c *Client) Health(ctx context.Context) (response.Health, error) {
	var h response.Health
	err := c.Do(ctx, http.MethodGet, "/api/v1/health", "", nil, &h)
	return h, err
}
