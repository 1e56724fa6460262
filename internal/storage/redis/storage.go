package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/rewardroster/internal/model"
	"github.com/mcoot/rewardroster/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface.
// The roster lives in one JSON value and the history in a list.
type Storage struct {
	client *redis.Client
	cfg    Config
}

// storedState is the JSON shape of the state key
type storedState struct {
	Revision int64          `json:"revision"`
	Players  []model.Player `json:"players"`
	Items    []string       `json:"items"`
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return NewWithClient(client, cfg), nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = DefaultConfig().KeyPrefix
	}
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

func (s *Storage) GetSnapshot(ctx context.Context) (*model.Snapshot, error) {
	data, err := s.client.Get(ctx, stateKey(s.cfg.KeyPrefix)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrStateNotFound
		}
		return nil, err
	}

	var st storedState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}

	raw, err := s.client.LRange(ctx, historyKey(s.cfg.KeyPrefix), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	history := make([]model.HistoryEntry, 0, len(raw))
	for _, item := range raw {
		var h model.HistoryEntry
		if err := json.Unmarshal([]byte(item), &h); err != nil {
			return nil, fmt.Errorf("decode history: %w", err)
		}
		history = append(history, h)
	}

	snap := &model.Snapshot{
		Revision: st.Revision,
		Players:  st.Players,
		Items:    st.Items,
		History:  history,
	}
	if snap.Players == nil {
		snap.Players = []model.Player{}
	}
	if snap.Items == nil {
		snap.Items = []string{}
	}
	snap.Normalize()
	return snap, nil
}

func (s *Storage) SaveSnapshot(ctx context.Context, snap *model.Snapshot) error {
	data, err := json.Marshal(storedState{
		Revision: snap.Revision,
		Players:  snap.Players,
		Items:    snap.Items,
	})
	if err != nil {
		return err
	}
	entries := make([]any, 0, len(snap.History))
	for _, h := range snap.History {
		b, err := json.Marshal(h)
		if err != nil {
			return err
		}
		entries = append(entries, b)
	}

	// MULTI/EXEC so readers never see state and history from different saves
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, stateKey(s.cfg.KeyPrefix), data, s.cfg.StateTTL)
		pipe.Del(ctx, historyKey(s.cfg.KeyPrefix))
		if len(entries) > 0 {
			pipe.RPush(ctx, historyKey(s.cfg.KeyPrefix), entries...)
			if s.cfg.StateTTL > 0 {
				pipe.Expire(ctx, historyKey(s.cfg.KeyPrefix), s.cfg.StateTTL)
			}
		}
		return nil
	})
	return err
}

func (s *Storage) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
