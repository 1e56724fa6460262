package state

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/rewardroster/internal/cache"
	"github.com/mcoot/rewardroster/internal/dependencies/mocks"
	"github.com/mcoot/rewardroster/internal/model"
	"github.com/mcoot/rewardroster/internal/testutil"
)

type fakeSyncer struct {
	err    error
	pushed []*model.Snapshot
}

func (f *fakeSyncer) Ready() error { return f.err }

func (f *fakeSyncer) Push(s *model.Snapshot) { f.pushed = append(f.pushed, s) }

type StoreSuite struct {
	suite.Suite
	clock   *mocks.MockClock
	layer   *cache.Layer
	syncer  *fakeSyncer
	store   *Store
	changes []Change
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) SetupTest() {
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.layer = cache.NewLayer(s.clock, cache.DefaultConfig(), testutil.NopLogger())
	s.syncer = &fakeSyncer{}
	s.store = New(&model.Snapshot{
		Players: []model.Player{
			{Name: "A", Active: true, Counts: map[string]int{"X": 0}},
			{Name: "B", Active: true, Counts: map[string]int{"X": 1}},
			{Name: "C", Active: false, Counts: map[string]int{}},
			{Name: "D", Active: true, Counts: map[string]int{}},
			{Name: "E", Active: true, Counts: map[string]int{}},
		},
		Items: []string{"X", "Y"},
	}, s.layer, s.clock, testutil.NopLogger())
	s.store.SetSyncer(s.syncer)
	s.changes = nil
	s.store.Subscribe(func(c Change) { s.changes = append(s.changes, c) })
}

func (s *StoreSuite) names() []string {
	players := s.store.Players()
	out := make([]string, len(players))
	for i, p := range players {
		out[i] = p.Name
	}
	return out
}

func (s *StoreSuite) count(name, item string) int {
	p, err := s.store.Player(name)
	s.Require().NoError(err)
	return p.Count(item)
}

// AddPlayer / RemovePlayer

func (s *StoreSuite) TestAddPlayer() {
	p, err := s.store.AddPlayer("F")
	s.Require().NoError(err)

	s.True(p.Active)
	s.Equal("F", s.names()[5])
	s.Require().Len(s.changes, 1)
	s.Equal(ChangePlayerAdded, s.changes[0].Kind)
	s.Len(s.syncer.pushed, 1)
	s.Equal(int64(1), s.layer.Invalidations())
}

func (s *StoreSuite) TestAddDuplicateIsRejected() {
	_, err := s.store.AddPlayer("A")
	s.ErrorIs(err, model.ErrDuplicatePlayer)
	s.Len(s.store.Players(), 5)
	s.Empty(s.changes)
}

func (s *StoreSuite) TestAddInvalidName() {
	_, err := s.store.AddPlayer(" ")
	s.ErrorIs(err, model.ErrInvalidPlayerName)
}

func (s *StoreSuite) TestRemovePlayer() {
	s.Require().NoError(s.store.RemovePlayer("B"))
	s.Equal([]string{"A", "C", "D", "E"}, s.names())
}

func (s *StoreSuite) TestMutatingMissingPlayerIsNotFound() {
	s.ErrorIs(s.store.RemovePlayer("Z"), model.ErrPlayerNotFound)
	s.ErrorIs(s.store.SetActive("Z", false), model.ErrPlayerNotFound)
	_, err := s.store.SetCount("Z", "X", 1)
	s.ErrorIs(err, model.ErrPlayerNotFound)

	s.Empty(s.changes)
	s.Empty(s.syncer.pushed)
	s.Equal(int64(0), s.layer.Invalidations())
}

// Counts

func (s *StoreSuite) TestSetCountClamps() {
	inputs := []float64{-5, -0.5, 0, 0.9, 3.7, 12, math.NaN(), math.Inf(-1), math.Inf(1), 1e20}
	for _, v := range inputs {
		n, err := s.store.SetCount("A", "Y", v)
		s.Require().NoError(err)
		s.GreaterOrEqual(n, 0)
		s.GreaterOrEqual(s.count("A", "Y"), 0)
	}
	n, _ := s.store.SetCount("A", "Y", 3.7)
	s.Equal(3, n)
}

func (s *StoreSuite) TestSetCountRecordsHistory() {
	_, err := s.store.SetCount("B", "X", 4)
	s.Require().NoError(err)
	_, err = s.store.SetCount("B", "X", 2)
	s.Require().NoError(err)

	history := s.store.Snapshot().History
	s.Require().Len(history, 2)
	s.Equal(model.ActionIncrease, history[0].Action)
	s.Equal(3, history[0].Quantity)
	s.Equal(model.ActionDecrease, history[1].Action)
	s.Equal(2, history[1].Quantity)
	s.NotEmpty(history[0].ID)
	s.Equal(s.clock.Now(), history[0].Timestamp)
}

func (s *StoreSuite) TestSetCountUnknownItem() {
	_, err := s.store.SetCount("A", "Q", 1)
	s.ErrorIs(err, model.ErrItemNotFound)
}

func (s *StoreSuite) TestSetCountUnchangedIsNoop() {
	_, err := s.store.SetCount("B", "X", 1)
	s.Require().NoError(err)
	s.Empty(s.changes)
	s.Empty(s.syncer.pushed)
}

func (s *StoreSuite) TestAdjustCountClampsAtZero() {
	n, err := s.store.AdjustCount("B", "X", -3)
	s.Require().NoError(err)
	s.Equal(0, n)

	n, err = s.store.AdjustCount("B", "X", 2)
	s.Require().NoError(err)
	s.Equal(2, n)
}

// ApplyBatch

func (s *StoreSuite) TestApplyBatchNotifiesOnce() {
	batch := []model.Assignment{
		{Player: "A", Item: "X"},
		{Player: "B", Item: "Y"},
		{Player: "A", Item: "Y", Quantity: 2},
		{Player: "A", Item: "X"},
	}
	s.Require().NoError(s.store.ApplyBatch(batch))

	s.Require().Len(s.changes, 1)
	after := s.changes[0].Snapshot
	s.Equal(2, after.Players[0].Counts["X"])
	s.Equal(2, after.Players[0].Counts["Y"])
	s.Equal(1, after.Players[1].Counts["Y"])
	s.Len(after.History, 4)

	s.Len(s.syncer.pushed, 1)
	s.Equal(int64(1), s.layer.Invalidations())
}

func (s *StoreSuite) TestApplyBatchIsAllOrNothing() {
	err := s.store.ApplyBatch([]model.Assignment{
		{Player: "A", Item: "X"},
		{Player: "Z", Item: "X"},
	})
	s.ErrorIs(err, model.ErrPlayerNotFound)
	s.Equal(0, s.count("A", "X"))
	s.Empty(s.changes)

	err = s.store.ApplyBatch([]model.Assignment{
		{Player: "A", Item: "X"},
		{Player: "B", Item: "Q"},
	})
	s.ErrorIs(err, model.ErrItemNotFound)
	s.Equal(0, s.count("A", "X"))
}

// Reorder

func (s *StoreSuite) TestReorderMovesPlayer() {
	s.Require().NoError(s.store.Reorder(0, 2))
	s.Equal([]string{"B", "C", "A", "D", "E"}, s.names())
	s.Len(s.syncer.pushed, 1)
	s.Equal(ChangeReordered, s.changes[0].Kind)
}

func (s *StoreSuite) TestReorderOntoSelfIsNoop() {
	s.Require().NoError(s.store.Reorder(3, 3))

	s.Equal([]string{"A", "B", "C", "D", "E"}, s.names())
	s.Empty(s.changes)
	s.Empty(s.syncer.pushed)
	s.Equal(int64(0), s.layer.Invalidations())
}

func (s *StoreSuite) TestReorderOutOfRange() {
	s.ErrorIs(s.store.Reorder(0, 5), model.ErrInvalidIndex)
	s.ErrorIs(s.store.Reorder(-1, 0), model.ErrInvalidIndex)
}

// Offline

func (s *StoreSuite) TestOfflineMutationsFailFast() {
	s.syncer.err = model.ErrNotConnected

	_, err := s.store.SetCount("C", "Y", 3)
	s.ErrorIs(err, model.ErrNotConnected)
	s.Equal(0, s.count("C", "Y"))

	s.ErrorIs(s.store.ApplyBatch([]model.Assignment{{Player: "A", Item: "X"}}), model.ErrNotConnected)
	s.ErrorIs(s.store.Reorder(0, 1), model.ErrNotConnected)
	_, err = s.store.AddPlayer("F")
	s.ErrorIs(err, model.ErrNotConnected)

	s.Empty(s.changes)
	s.Empty(s.syncer.pushed)
}

func (s *StoreSuite) TestViewFlagsWorkOffline() {
	s.syncer.err = model.ErrNotConnected

	s.store.SetSearchQuery("a")
	s.store.SetEditUnlocked(true)

	s.Equal(model.UIFlags{EditUnlocked: true, SearchQuery: "a"}, s.store.UI())
	s.Len(s.changes, 2)
	s.Empty(s.syncer.pushed)
	s.Equal(int64(2), s.layer.Invalidations())
}

// Remote

func (s *StoreSuite) TestReplaceAllFromRemote() {
	s.store.SetSearchQuery("x")
	next := &model.Snapshot{
		Revision: 7,
		Players:  []model.Player{{Name: "Q", Active: true, Counts: map[string]int{"X": 3}}},
		Items:    []string{"X"},
		History:  []model.HistoryEntry{},
	}

	s.Require().NoError(s.store.ReplaceAll(next, OriginRemote))

	got := s.store.Snapshot()
	s.Equal(next.Players, got.Players)
	s.Equal(next.Items, got.Items)
	s.Equal(int64(7), got.Revision)
	s.Equal("x", got.UI.SearchQuery)
	s.Empty(s.syncer.pushed)
}

func (s *StoreSuite) TestReplaceAllIsIdempotent() {
	next := s.store.Snapshot()
	next.Revision = 3

	s.Require().NoError(s.store.ReplaceAll(next, OriginRemote))

	s.Empty(s.changes)
	s.Equal(int64(3), s.store.Revision())
	s.Equal(int64(0), s.layer.Invalidations())
}

func (s *StoreSuite) TestReplaceAllRejectsMalformed() {
	before := s.store.Snapshot()
	bad := &model.Snapshot{Players: []model.Player{{Name: "A"}, {Name: "A"}}, Items: []string{}}

	s.ErrorIs(s.store.ReplaceAll(bad, OriginRemote), model.ErrMalformedSnapshot)
	s.ErrorIs(s.store.ReplaceAll(nil, OriginRemote), model.ErrMalformedSnapshot)
	s.Equal(before, s.store.Snapshot())
	s.Empty(s.changes)
}

func (s *StoreSuite) TestRemoteUpdateMergesSuppliedFields() {
	inactive := false
	patch := model.PlayerPatch{Name: "B", Active: &inactive, Counts: map[string]int{"Y": 4}}

	s.Require().NoError(s.store.ApplyRemoteUpdate(patch))

	p, _ := s.store.Player("B")
	s.False(p.Active)
	s.Equal(1, p.Count("X"))
	s.Equal(4, p.Count("Y"))
	s.Equal(OriginRemote, s.changes[0].Origin)
	s.Empty(s.syncer.pushed)

	// applying it again changes nothing
	s.Require().NoError(s.store.ApplyRemoteUpdate(patch))
	s.Len(s.changes, 1)
}

func (s *StoreSuite) TestRemoteUpdateUnknownPlayer() {
	s.ErrorIs(s.store.ApplyRemoteUpdate(model.PlayerPatch{Name: "Z"}), model.ErrPlayerNotFound)
}

func (s *StoreSuite) TestRemoteAddAndRemoveAreIdempotent() {
	p := model.Player{Name: "F", Active: true, Counts: map[string]int{"X": 2}}
	s.Require().NoError(s.store.ApplyRemoteAdd(p))
	s.Require().NoError(s.store.ApplyRemoteAdd(p))
	s.Len(s.store.Players(), 6)
	s.Len(s.changes, 1)

	s.Require().NoError(s.store.ApplyRemoteRemove("F"))
	s.Require().NoError(s.store.ApplyRemoteRemove("F"))
	s.Len(s.store.Players(), 5)
	s.Len(s.changes, 2)
	s.Empty(s.syncer.pushed)
}

func (s *StoreSuite) TestRemoteWorksOffline() {
	s.syncer.err = model.ErrNotConnected
	s.Require().NoError(s.store.ApplyRemoteRemove("A"))
	s.Len(s.store.Players(), 4)
}

// Subscribers

func (s *StoreSuite) TestChangesArriveInOrderAndCachesAreClearFirst() {
	s.layer.Computed.Set(cache.NamespaceRankings, "k", 1)
	var sawEntries int
	s.store.Subscribe(func(c Change) { sawEntries = s.layer.Computed.Len() })

	_, _ = s.store.SetCount("A", "X", 1)
	_, _ = s.store.SetCount("A", "X", 2)

	s.Equal(0, sawEntries)
	s.Require().Len(s.changes, 2)
	s.Equal(1, s.changes[0].Snapshot.Players[0].Counts["X"])
	s.Equal(2, s.changes[1].Snapshot.Players[0].Counts["X"])
}

func (s *StoreSuite) TestUnsubscribe() {
	calls := 0
	unsubscribe := s.store.Subscribe(func(Change) { calls++ })
	_ = s.store.SetActive("A", false)
	unsubscribe()
	_ = s.store.SetActive("A", true)
	s.Equal(1, calls)
}

func TestCoerceCount(t *testing.T) {
	assert.Equal(t, 0, CoerceCount(-1))
	assert.Equal(t, 0, CoerceCount(math.NaN()))
	assert.Equal(t, 2, CoerceCount(2.99))
	assert.Equal(t, MaxCount, CoerceCount(math.Inf(1)))
}
