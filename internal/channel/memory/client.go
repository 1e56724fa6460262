package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/mcoot/rewardroster/internal/model"
	"github.com/mcoot/rewardroster/internal/reconcile"
	"github.com/mcoot/rewardroster/internal/services/roster"
)

var (
	// ErrOffline is returned while the client is disconnected
	ErrOffline = errors.New("memory channel offline")
	// ErrDropped is returned when the hub drops a slow subscriber
	ErrDropped = errors.New("subscription dropped")
)

// Client talks to a roster service in the same process
type Client struct {
	service *roster.Service
	hub     *Hub

	mu     sync.Mutex
	online bool
	kick   chan struct{}
}

// NewClient creates a connected client
func NewClient(service *roster.Service, hub *Hub) *Client {
	return &Client{
		service: service,
		hub:     hub,
		online:  true,
		kick:    make(chan struct{}),
	}
}

var (
	_ reconcile.Channel        = (*Client)(nil)
	_ reconcile.HistoryDeleter = (*Client)(nil)
)

// Disconnect takes the client offline and ends any active Listen
func (c *Client) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.online {
		return
	}
	c.online = false
	close(c.kick)
}

// Reconnect brings the client back online
func (c *Client) Reconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.online {
		return
	}
	c.online = true
	c.kick = make(chan struct{})
}

func (c *Client) state() (bool, chan struct{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.online, c.kick
}

func (c *Client) LoadState(ctx context.Context) (*model.Snapshot, error) {
	if online, _ := c.state(); !online {
		return nil, ErrOffline
	}
	return c.service.State(ctx)
}

func (c *Client) PushState(ctx context.Context, u model.Update) (model.PushAck, error) {
	if online, _ := c.state(); !online {
		return model.PushAck{}, ErrOffline
	}
	rev, err := c.service.ReplaceState(ctx, u.Origin, &u.Snapshot)
	if err != nil {
		return model.PushAck{}, err
	}
	return model.PushAck{Revision: rev}, nil
}

func (c *Client) DeleteHistory(ctx context.Context, id string) error {
	if online, _ := c.state(); !online {
		return ErrOffline
	}
	return c.service.DeleteHistory(ctx, "", id)
}

func (c *Client) Listen(ctx context.Context, onReady func(), handle func(model.Event)) error {
	online, kick := c.state()
	if !online {
		return ErrOffline
	}
	sub := c.hub.subscribe()
	defer c.hub.unsubscribe(sub)

	onReady()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-kick:
			return ErrOffline
		case ev, ok := <-sub.events:
			if !ok {
				return ErrDropped
			}
			handle(ev)
		}
	}
}
