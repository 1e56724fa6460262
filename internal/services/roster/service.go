package roster

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mcoot/rewardroster/internal/model"
	"github.com/mcoot/rewardroster/internal/storage"
)

// Publisher fans events out to connected clients
type Publisher interface {
	Publish(ev model.Event)
}

// Service owns the shared roster on the server. Every accepted write bumps
// the revision, is persisted, and is published with the writer's origin.
type Service struct {
	storage storage.Storage
	logger  *slog.Logger

	mu         sync.Mutex
	publishers []Publisher
}

// New creates a roster service
func New(st storage.Storage, logger *slog.Logger, publishers ...Publisher) *Service {
	return &Service{
		storage:    st,
		logger:     logger.With(slog.String("component", "roster")),
		publishers: publishers,
	}
}

// AddPublisher registers another event sink
func (s *Service) AddPublisher(p Publisher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.publishers = append(s.publishers, p)
}

// State returns the current shared snapshot. An empty store yields an
// empty roster at revision zero.
func (s *Service) State(ctx context.Context) (*model.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

func (s *Service) load(ctx context.Context) (*model.Snapshot, error) {
	snap, err := s.storage.GetSnapshot(ctx)
	if errors.Is(err, model.ErrStateNotFound) {
		return model.EmptySnapshot(), nil
	}
	if err != nil {
		return nil, err
	}
	snap.UI = model.UIFlags{}
	return snap, nil
}

// commit saves snap at the next revision and publishes ev for it.
// s.mu must be held.
func (s *Service) commit(ctx context.Context, snap *model.Snapshot, ev model.Event) (int64, error) {
	snap.Revision++
	snap.UI = model.UIFlags{}
	if err := s.storage.SaveSnapshot(ctx, snap); err != nil {
		return 0, fmt.Errorf("save roster: %w", err)
	}
	ev.Revision = snap.Revision
	if ev.Snapshot != nil {
		ev.Snapshot.Revision = snap.Revision
	}
	for _, p := range s.publishers {
		p.Publish(ev)
	}
	s.logger.Info("roster updated",
		slog.String("event", string(ev.Type)),
		slog.String("origin", ev.Origin),
		slog.Int64("revision", snap.Revision))
	return snap.Revision, nil
}

// ReplaceState overwrites the shared roster with a client's full snapshot
func (s *Service) ReplaceState(ctx context.Context, origin string, next *model.Snapshot) (int64, error) {
	if err := next.Validate(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.load(ctx)
	if err != nil {
		return 0, err
	}
	snap := next.Clone()
	snap.Normalize()
	snap.Revision = current.Revision
	return s.commit(ctx, snap, model.Event{Type: model.EventStateReplaced, Origin: origin, Snapshot: snap.Clone()})
}

// AddPlayer appends a new active player
func (s *Service) AddPlayer(ctx context.Context, origin, name string) (*model.Player, error) {
	if !model.ValidPlayerName(name) {
		return nil, fmt.Errorf("%q: %w", name, model.ErrInvalidPlayerName)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	if snap.PlayerIndex(name) >= 0 {
		return nil, fmt.Errorf("%s: %w", name, model.ErrDuplicatePlayer)
	}
	p := model.NewPlayer(name)
	snap.Players = append(snap.Players, p)
	announced := p.Clone()
	if _, err := s.commit(ctx, snap, model.Event{Type: model.EventPlayerAdded, Origin: origin, Player: &announced}); err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdatePlayer merges patch into the named player
func (s *Service) UpdatePlayer(ctx context.Context, origin string, patch model.PlayerPatch) (*model.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	i := snap.PlayerIndex(patch.Name)
	if i < 0 {
		return nil, fmt.Errorf("%s: %w", patch.Name, model.ErrPlayerNotFound)
	}
	for item := range patch.Counts {
		if !contains(snap.Items, item) {
			return nil, fmt.Errorf("%s: %w", item, model.ErrItemNotFound)
		}
	}
	updated := patch.Apply(snap.Players[i])
	snap.Players[i] = updated
	published := patch
	if _, err := s.commit(ctx, snap, model.Event{Type: model.EventPlayerUpdated, Origin: origin, Patch: &published}); err != nil {
		return nil, err
	}
	return &updated, nil
}

// RemovePlayer deletes the named player
func (s *Service) RemovePlayer(ctx context.Context, origin, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.load(ctx)
	if err != nil {
		return err
	}
	i := snap.PlayerIndex(name)
	if i < 0 {
		return fmt.Errorf("%s: %w", name, model.ErrPlayerNotFound)
	}
	snap.Players = append(snap.Players[:i], snap.Players[i+1:]...)
	_, err = s.commit(ctx, snap, model.Event{Type: model.EventPlayerRemoved, Origin: origin, Name: name})
	return err
}

// DeleteHistory removes one history entry. Clients learn about it through
// a full state replace.
func (s *Service) DeleteHistory(ctx context.Context, origin, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.load(ctx)
	if err != nil {
		return err
	}
	idx := -1
	for i, h := range snap.History {
		if h.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%s: %w", id, model.ErrHistoryNotFound)
	}
	snap.History = append(snap.History[:idx], snap.History[idx+1:]...)
	_, err = s.commit(ctx, snap, model.Event{Type: model.EventStateReplaced, Origin: origin, Snapshot: snap.Clone()})
	return err
}

// Seed stores initial when nothing is stored yet. It reports whether the
// seed was applied.
func (s *Service) Seed(ctx context.Context, initial *model.Snapshot) (bool, error) {
	if err := initial.Validate(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.storage.GetSnapshot(ctx)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, model.ErrStateNotFound) {
		return false, err
	}
	snap := initial.Clone()
	snap.Normalize()
	snap.Revision = 1
	snap.UI = model.UIFlags{}
	if err := s.storage.SaveSnapshot(ctx, snap); err != nil {
		return false, fmt.Errorf("save seed: %w", err)
	}
	s.logger.Info("roster seeded",
		slog.Int("players", len(snap.Players)),
		slog.Int("items", len(snap.Items)))
	return true, nil
}

// Ping checks the storage backend
func (s *Service) Ping(ctx context.Context) error {
	return s.storage.Ping(ctx)
}

func contains(items []string, item string) bool {
	for _, it := range items {
		if it == item {
			return true
		}
	}
	return false
}
