package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/rewardroster/internal/model"
)

type StorageSuite struct {
	suite.Suite
	mini    *miniredis.Miniredis
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.mini = miniredis.RunT(s.T())

	client := redis.NewClient(&redis.Options{
		Addr: s.mini.Addr(),
	})

	cfg := DefaultConfig()
	cfg.StateTTL = time.Hour

	s.storage = NewWithClient(client, cfg)
	s.ctx = context.Background()
}

func (s *StorageSuite) TearDownTest() {
	if s.storage != nil {
		_ = s.storage.Close()
	}
	if s.mini != nil {
		s.mini.Close()
	}
}

func sampleSnapshot() *model.Snapshot {
	return &model.Snapshot{
		Revision: 3,
		Players: []model.Player{
			{Name: "A", Active: true, Counts: map[string]int{"X": 1}},
			{Name: "B", Active: false, Counts: map[string]int{}},
		},
		Items: []string{"X", "Y"},
		History: []model.HistoryEntry{
			{ID: "h1", Player: "A", Item: "X", Quantity: 1, Timestamp: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC), Action: model.ActionDistribute},
		},
	}
}

func (s *StorageSuite) TestGetEmpty() {
	_, err := s.storage.GetSnapshot(s.ctx)
	s.ErrorIs(err, model.ErrStateNotFound)
}

func (s *StorageSuite) TestSaveAndGet() {
	snap := sampleSnapshot()
	s.Require().NoError(s.storage.SaveSnapshot(s.ctx, snap))

	got, err := s.storage.GetSnapshot(s.ctx)
	s.Require().NoError(err)
	s.Equal(snap.Revision, got.Revision)
	s.Equal(snap.Players, got.Players)
	s.Equal(snap.Items, got.Items)
	s.Require().Len(got.History, 1)
	s.Equal("h1", got.History[0].ID)
	s.True(snap.History[0].Timestamp.Equal(got.History[0].Timestamp))
}

func (s *StorageSuite) TestHistoryIsStoredAsList() {
	s.Require().NoError(s.storage.SaveSnapshot(s.ctx, sampleSnapshot()))

	items, err := s.mini.List("roster:history")
	s.Require().NoError(err)
	s.Len(items, 1)
	s.True(s.mini.Exists("roster:state"))
}

func (s *StorageSuite) TestSaveReplacesHistory() {
	s.Require().NoError(s.storage.SaveSnapshot(s.ctx, sampleSnapshot()))

	snap := sampleSnapshot()
	snap.History = []model.HistoryEntry{}
	s.Require().NoError(s.storage.SaveSnapshot(s.ctx, snap))

	got, err := s.storage.GetSnapshot(s.ctx)
	s.Require().NoError(err)
	s.Empty(got.History)
	s.False(s.mini.Exists("roster:history"))
}

func (s *StorageSuite) TestStateExpires() {
	s.Require().NoError(s.storage.SaveSnapshot(s.ctx, sampleSnapshot()))

	s.mini.FastForward(2 * time.Hour)

	_, err := s.storage.GetSnapshot(s.ctx)
	s.ErrorIs(err, model.ErrStateNotFound)
}

func (s *StorageSuite) TestPing() {
	s.NoError(s.storage.Ping(s.ctx))
}
