// Package state holds the authoritative in-memory roster. Every mutation
// runs to completion under one lock: it invalidates derived caches,
// queues the outbound push for local changes, then notifies subscribers
// in mutation order.
package state

import (
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/google/uuid"

	"github.com/mcoot/rewardroster/internal/cache"
	"github.com/mcoot/rewardroster/internal/dependencies/clock"
	"github.com/mcoot/rewardroster/internal/model"
)

// Origin says where a mutation came from
type Origin string

const (
	OriginLocal  Origin = "local"
	OriginRemote Origin = "remote"
)

// ChangeKind identifies a mutation
type ChangeKind string

const (
	ChangePlayerAdded   ChangeKind = "player-added"
	ChangePlayerRemoved ChangeKind = "player-removed"
	ChangePlayerUpdated ChangeKind = "player-updated"
	ChangeCounts        ChangeKind = "counts-changed"
	ChangeBatch         ChangeKind = "batch-applied"
	ChangeReordered     ChangeKind = "reordered"
	ChangeReplaced      ChangeKind = "replaced"
	ChangeUI            ChangeKind = "ui-changed"
)

// Change is delivered to subscribers after a mutation completes.
// Snapshot is a private copy of the post-mutation state.
type Change struct {
	Kind     ChangeKind
	Origin   Origin
	Player   string
	Snapshot *model.Snapshot
}

// Listener receives changes. Listeners run synchronously and must not
// mutate the store.
type Listener func(Change)

// Invalidator clears derived data
type Invalidator interface {
	InvalidateAll()
}

// Syncer gates and publishes local mutations. Ready fails when a push
// cannot be delivered; Push must not block.
type Syncer interface {
	Ready() error
	Push(s *model.Snapshot)
}

// MaxCount bounds coerced count values
const MaxCount = math.MaxInt32

// Store is the roster state
type Store struct {
	mu     sync.Mutex
	snap   *model.Snapshot
	caches Invalidator
	sync   Syncer
	clock  clock.Clock
	logger *slog.Logger

	notifyMu  sync.Mutex
	listeners map[int]Listener
	nextID    int
	order     []int
}

// New creates a store holding initial, or an empty roster if nil
func New(initial *model.Snapshot, caches Invalidator, clk clock.Clock, logger *slog.Logger) *Store {
	snap := model.EmptySnapshot()
	if initial != nil {
		snap = initial.Clone()
		snap.Normalize()
	}
	return &Store{
		snap:      snap,
		caches:    caches,
		clock:     clk,
		logger:    logger.With(slog.String("component", "state")),
		listeners: make(map[int]Listener),
	}
}

// SetSyncer attaches the reconciler. Without one, local mutations are
// neither gated nor pushed.
func (s *Store) SetSyncer(sy Syncer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sync = sy
}

// Subscribe registers l and returns a function removing it
func (s *Store) Subscribe(l Listener) func() {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	s.order = append(s.order, id)
	return func() {
		s.notifyMu.Lock()
		defer s.notifyMu.Unlock()
		delete(s.listeners, id)
		for i, v := range s.order {
			if v == id {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
	}
}

// Snapshot returns a copy of the current state
func (s *Store) Snapshot() *model.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.Clone()
}

// Players returns a copy of the roster in display order
func (s *Store) Players() []model.Player {
	return s.Snapshot().Players
}

// Items returns the catalog
func (s *Store) Items() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.snap.Items...)
}

// Player returns a copy of the named player
func (s *Store) Player(name string) (model.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.snap.PlayerIndex(name)
	if i < 0 {
		return model.Player{}, fmt.Errorf("%s: %w", name, model.ErrPlayerNotFound)
	}
	return s.snap.Players[i].Clone(), nil
}

// UI returns the view flags
func (s *Store) UI() model.UIFlags {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.UI
}

// Revision returns the last known server revision
func (s *Store) Revision() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.Revision
}

// SetRevision records a server-acknowledged revision. It does not notify.
func (s *Store) SetRevision(rev int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rev > s.snap.Revision {
		s.snap.Revision = rev
	}
}

// commit finishes a mutation while s.mu is held: caches are cleared, a
// local change is queued for push, and subscribers are notified after
// the lock is released. commit releases s.mu.
func (s *Store) commit(kind ChangeKind, origin Origin, player string) {
	if s.caches != nil {
		s.caches.InvalidateAll()
	}
	shared := kind != ChangeUI
	if shared && origin == OriginLocal && s.sync != nil {
		s.sync.Push(s.snap.Clone())
	}
	change := Change{Kind: kind, Origin: origin, Player: player, Snapshot: s.snap.Clone()}

	s.notifyMu.Lock()
	s.mu.Unlock()
	defer s.notifyMu.Unlock()
	for _, id := range s.order {
		s.listeners[id](change)
	}
}

// ready checks the syncer while s.mu is held
func (s *Store) ready() error {
	if s.sync == nil {
		return nil
	}
	return s.sync.Ready()
}

func (s *Store) notFound(op, name string) error {
	s.logger.Warn("mutation target not found",
		slog.String("op", op),
		slog.String("player", name))
	return fmt.Errorf("%s %s: %w", op, name, model.ErrPlayerNotFound)
}

func (s *Store) hasItem(item string) bool {
	for _, it := range s.snap.Items {
		if it == item {
			return true
		}
	}
	return false
}

// AddPlayer appends a new active player
func (s *Store) AddPlayer(name string) (model.Player, error) {
	s.mu.Lock()
	if !model.ValidPlayerName(name) {
		s.mu.Unlock()
		return model.Player{}, fmt.Errorf("%q: %w", name, model.ErrInvalidPlayerName)
	}
	if s.snap.PlayerIndex(name) >= 0 {
		s.mu.Unlock()
		return model.Player{}, fmt.Errorf("%s: %w", name, model.ErrDuplicatePlayer)
	}
	if err := s.ready(); err != nil {
		s.mu.Unlock()
		return model.Player{}, err
	}
	p := model.NewPlayer(name)
	s.snap.Players = append(s.snap.Players, p)
	s.commit(ChangePlayerAdded, OriginLocal, name)
	return p.Clone(), nil
}

// RemovePlayer deletes the named player
func (s *Store) RemovePlayer(name string) error {
	s.mu.Lock()
	i := s.snap.PlayerIndex(name)
	if i < 0 {
		s.mu.Unlock()
		return s.notFound("remove", name)
	}
	if err := s.ready(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.snap.Players = append(s.snap.Players[:i], s.snap.Players[i+1:]...)
	s.commit(ChangePlayerRemoved, OriginLocal, name)
	return nil
}

// SetActive sets whether the player is in the default suggestion pool
func (s *Store) SetActive(name string, active bool) error {
	s.mu.Lock()
	i := s.snap.PlayerIndex(name)
	if i < 0 {
		s.mu.Unlock()
		return s.notFound("set active", name)
	}
	if s.snap.Players[i].Active == active {
		s.mu.Unlock()
		return nil
	}
	if err := s.ready(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.snap.Players[i].Active = active
	s.commit(ChangePlayerUpdated, OriginLocal, name)
	return nil
}

// CoerceCount maps any numeric input to a valid count: max(0, floor(v)),
// NaN as zero, capped at MaxCount.
func CoerceCount(v float64) int {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	f := math.Floor(v)
	if f >= MaxCount {
		return MaxCount
	}
	return int(f)
}

// SetCount sets the player's count of item and returns the stored value
func (s *Store) SetCount(name, item string, value float64) (int, error) {
	s.mu.Lock()
	i := s.snap.PlayerIndex(name)
	if i < 0 {
		s.mu.Unlock()
		return 0, s.notFound("set count", name)
	}
	if !s.hasItem(item) {
		s.mu.Unlock()
		return 0, fmt.Errorf("%s: %w", item, model.ErrItemNotFound)
	}
	n := CoerceCount(value)
	old := s.snap.Players[i].Count(item)
	if n == old {
		s.mu.Unlock()
		return n, nil
	}
	if err := s.ready(); err != nil {
		s.mu.Unlock()
		return old, err
	}

	s.snap.Players[i].Counts[item] = n
	action := model.ActionIncrease
	quantity := n - old
	if quantity < 0 {
		action = model.ActionDecrease
		quantity = -quantity
	}
	s.appendHistory(name, item, quantity, action)
	s.commit(ChangeCounts, OriginLocal, name)
	return n, nil
}

// AdjustCount adds delta to the player's count of item, clamping at zero
func (s *Store) AdjustCount(name, item string, delta int) (int, error) {
	p, err := s.Player(name)
	if err != nil {
		s.logger.Warn("mutation target not found",
			slog.String("op", "adjust"),
			slog.String("player", name))
		return 0, err
	}
	return s.SetCount(name, item, float64(p.Count(item)+delta))
}

// ApplyBatch hands out every assignment as one mutation: all targets are
// validated first, increments are grouped per player, and subscribers see
// a single change.
func (s *Store) ApplyBatch(assignments []model.Assignment) error {
	if len(assignments) == 0 {
		return nil
	}
	s.mu.Lock()
	type group struct {
		index int
		adds  map[string]int
	}
	var groups []*group
	byName := make(map[string]*group)
	for _, a := range assignments {
		g, ok := byName[a.Player]
		if !ok {
			i := s.snap.PlayerIndex(a.Player)
			if i < 0 {
				s.mu.Unlock()
				return s.notFound("distribute", a.Player)
			}
			g = &group{index: i, adds: make(map[string]int)}
			byName[a.Player] = g
			groups = append(groups, g)
		}
		if !s.hasItem(a.Item) {
			s.mu.Unlock()
			return fmt.Errorf("%s: %w", a.Item, model.ErrItemNotFound)
		}
		g.adds[a.Item] += quantity(a)
	}
	if err := s.ready(); err != nil {
		s.mu.Unlock()
		return err
	}

	for _, g := range groups {
		p := &s.snap.Players[g.index]
		for item, n := range g.adds {
			p.Counts[item] = min(p.Counts[item]+n, MaxCount)
		}
	}
	for _, a := range assignments {
		s.appendHistory(a.Player, a.Item, quantity(a), model.ActionDistribute)
	}
	player := ""
	if len(groups) == 1 {
		player = assignments[0].Player
	}
	s.commit(ChangeBatch, OriginLocal, player)
	return nil
}

func quantity(a model.Assignment) int {
	if a.Quantity <= 0 {
		return 1
	}
	return a.Quantity
}

// Reorder moves the player at from so it ends up at index to. Moving a
// player onto its own index changes nothing.
func (s *Store) Reorder(from, to int) error {
	s.mu.Lock()
	n := len(s.snap.Players)
	if from < 0 || from >= n || to < 0 || to >= n {
		s.mu.Unlock()
		return fmt.Errorf("reorder %d to %d of %d: %w", from, to, n, model.ErrInvalidIndex)
	}
	if from == to {
		s.mu.Unlock()
		return nil
	}
	if err := s.ready(); err != nil {
		s.mu.Unlock()
		return err
	}
	moved := s.snap.Players[from]
	players := append(s.snap.Players[:from:from], s.snap.Players[from+1:]...)
	players = append(players[:to], append([]model.Player{moved}, players[to:]...)...)
	s.snap.Players = players
	s.commit(ChangeReordered, OriginLocal, moved.Name)
	return nil
}

// SetEditUnlocked toggles editing. View flags are local to this client
// and are never pushed.
func (s *Store) SetEditUnlocked(unlocked bool) {
	s.mu.Lock()
	if s.snap.UI.EditUnlocked == unlocked {
		s.mu.Unlock()
		return
	}
	s.snap.UI.EditUnlocked = unlocked
	s.commit(ChangeUI, OriginLocal, "")
}

// SetSearchQuery records the active search. Surrounding whitespace is kept
// so the input field round-trips.
func (s *Store) SetSearchQuery(query string) {
	s.mu.Lock()
	if s.snap.UI.SearchQuery == query {
		s.mu.Unlock()
		return
	}
	s.snap.UI.SearchQuery = query
	s.commit(ChangeUI, OriginLocal, "")
}

func (s *Store) appendHistory(player, item string, quantity int, action model.HistoryAction) {
	s.snap.History = append(s.snap.History, model.HistoryEntry{
		ID:        uuid.NewString(),
		Player:    player,
		Item:      item,
		Quantity:  quantity,
		Timestamp: s.clock.Now(),
		Action:    action,
	})
}

// ReplaceAll swaps in a full snapshot. A malformed snapshot is rejected
// and the current state kept. Replacing with identical shared content is
// a no-op. View flags survive a remote replace.
func (s *Store) ReplaceAll(next *model.Snapshot, origin Origin) error {
	if err := next.Validate(); err != nil {
		s.logger.Warn("rejected snapshot",
			slog.String("origin", string(origin)),
			slog.String("error", err.Error()))
		return err
	}
	incoming := next.Clone()
	incoming.Normalize()

	s.mu.Lock()
	if origin == OriginRemote {
		incoming.UI = s.snap.UI
	}
	if cache.SnapshotHash(incoming) == cache.SnapshotHash(s.snap) {
		if incoming.Revision > s.snap.Revision {
			s.snap.Revision = incoming.Revision
		}
		s.mu.Unlock()
		return nil
	}
	if origin == OriginLocal {
		if err := s.ready(); err != nil {
			s.mu.Unlock()
			return err
		}
	}
	s.snap = incoming
	s.commit(ChangeReplaced, origin, "")
	return nil
}

// ApplyRemoteAdd inserts a player announced by another client. If the
// player exists, the announced fields win.
func (s *Store) ApplyRemoteAdd(p model.Player) error {
	if !model.ValidPlayerName(p.Name) {
		return fmt.Errorf("%w: invalid player name %q", model.ErrMalformedSnapshot, p.Name)
	}
	incoming := model.PlayerPatch{Name: p.Name, Active: &p.Active, Counts: p.Counts}.Apply(model.NewPlayer(p.Name))

	s.mu.Lock()
	if i := s.snap.PlayerIndex(p.Name); i >= 0 {
		if samePlayer(s.snap.Players[i], incoming) {
			s.mu.Unlock()
			return nil
		}
		s.snap.Players[i] = incoming
		s.commit(ChangePlayerUpdated, OriginRemote, p.Name)
		return nil
	}
	s.snap.Players = append(s.snap.Players, incoming)
	s.commit(ChangePlayerAdded, OriginRemote, p.Name)
	return nil
}

// ApplyRemoteUpdate merges a patch by player name
func (s *Store) ApplyRemoteUpdate(patch model.PlayerPatch) error {
	s.mu.Lock()
	i := s.snap.PlayerIndex(patch.Name)
	if i < 0 {
		s.mu.Unlock()
		return s.notFound("remote update", patch.Name)
	}
	merged := patch.Apply(s.snap.Players[i])
	if samePlayer(s.snap.Players[i], merged) {
		s.mu.Unlock()
		return nil
	}
	s.snap.Players[i] = merged
	s.commit(ChangePlayerUpdated, OriginRemote, patch.Name)
	return nil
}

// ApplyRemoteRemove deletes a player removed elsewhere. Removing an absent
// player is a no-op.
func (s *Store) ApplyRemoteRemove(name string) error {
	s.mu.Lock()
	i := s.snap.PlayerIndex(name)
	if i < 0 {
		s.mu.Unlock()
		return nil
	}
	s.snap.Players = append(s.snap.Players[:i], s.snap.Players[i+1:]...)
	s.commit(ChangePlayerRemoved, OriginRemote, name)
	return nil
}

func samePlayer(a, b model.Player) bool {
	if a.Name != b.Name || a.Active != b.Active {
		return false
	}
	return cache.SerializeCounts(withoutZeros(a.Counts)) == cache.SerializeCounts(withoutZeros(b.Counts))
}

func withoutZeros(counts map[string]int) map[string]int {
	out := make(map[string]int, len(counts))
	for k, v := range counts {
		if v != 0 {
			out[k] = v
		}
	}
	return out
}
