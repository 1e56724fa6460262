package roster

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/rewardroster/internal/model"
	"github.com/mcoot/rewardroster/internal/storage/memory"
	"github.com/mcoot/rewardroster/internal/testutil"
)

type recorder struct {
	events []model.Event
}

func (r *recorder) Publish(ev model.Event) {
	r.events = append(r.events, ev)
}

type ServiceSuite struct {
	suite.Suite
	storage  *memory.Storage
	recorder *recorder
	service  *Service
	ctx      context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.storage = memory.New()
	s.recorder = &recorder{}
	s.service = New(s.storage, testutil.NopLogger(), s.recorder)
	s.ctx = context.Background()

	seeded, err := s.service.Seed(s.ctx, &model.Snapshot{
		Players: []model.Player{
			{Name: "A", Active: true, Counts: map[string]int{"X": 1}},
			{Name: "B", Active: true, Counts: map[string]int{}},
		},
		Items: []string{"X", "Y"},
		History: []model.HistoryEntry{
			{ID: "h1", Player: "A", Item: "X", Quantity: 1, Action: model.ActionDistribute},
		},
	})
	s.Require().NoError(err)
	s.Require().True(seeded)
}

func (s *ServiceSuite) TestStateOnEmptyStorage() {
	svc := New(memory.New(), testutil.NopLogger())
	snap, err := svc.State(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(0), snap.Revision)
	s.Empty(snap.Players)
}

func (s *ServiceSuite) TestSeedOnlyOnce() {
	seeded, err := s.service.Seed(s.ctx, model.EmptySnapshot())
	s.Require().NoError(err)
	s.False(seeded)

	snap, _ := s.service.State(s.ctx)
	s.Len(snap.Players, 2)
	s.Equal(int64(1), snap.Revision)
}

func (s *ServiceSuite) TestReplaceStateBumpsRevisionAndPublishes() {
	next := &model.Snapshot{
		Players: []model.Player{{Name: "C", Active: true, Counts: map[string]int{"Y": 2}}},
		Items:   []string{"Y"},
		UI:      model.UIFlags{SearchQuery: "ignored"},
	}

	rev, err := s.service.ReplaceState(s.ctx, "client-1", next)
	s.Require().NoError(err)
	s.Equal(int64(2), rev)

	s.Require().Len(s.recorder.events, 1)
	ev := s.recorder.events[0]
	s.Equal(model.EventStateReplaced, ev.Type)
	s.Equal("client-1", ev.Origin)
	s.Equal(int64(2), ev.Revision)
	s.Equal(int64(2), ev.Snapshot.Revision)
	s.Equal(model.UIFlags{}, ev.Snapshot.UI)

	stored, _ := s.service.State(s.ctx)
	s.Equal("C", stored.Players[0].Name)
}

func (s *ServiceSuite) TestReplaceStateRejectsMalformed() {
	_, err := s.service.ReplaceState(s.ctx, "c", &model.Snapshot{Items: []string{}})
	s.ErrorIs(err, model.ErrMalformedSnapshot)
	s.Empty(s.recorder.events)
}

func (s *ServiceSuite) TestAddPlayer() {
	p, err := s.service.AddPlayer(s.ctx, "c", "C")
	s.Require().NoError(err)
	s.True(p.Active)

	s.Equal(model.EventPlayerAdded, s.recorder.events[0].Type)
	s.Equal("C", s.recorder.events[0].Player.Name)

	_, err = s.service.AddPlayer(s.ctx, "c", "C")
	s.ErrorIs(err, model.ErrDuplicatePlayer)
	_, err = s.service.AddPlayer(s.ctx, "c", "")
	s.ErrorIs(err, model.ErrInvalidPlayerName)
}

func (s *ServiceSuite) TestUpdatePlayer() {
	inactive := false
	p, err := s.service.UpdatePlayer(s.ctx, "c", model.PlayerPatch{Name: "A", Active: &inactive, Counts: map[string]int{"Y": 3}})
	s.Require().NoError(err)

	s.False(p.Active)
	s.Equal(1, p.Count("X"))
	s.Equal(3, p.Count("Y"))
	s.Equal(model.EventPlayerUpdated, s.recorder.events[0].Type)
	s.Equal(int64(2), s.recorder.events[0].Revision)
}

func (s *ServiceSuite) TestUpdatePlayerErrors() {
	_, err := s.service.UpdatePlayer(s.ctx, "c", model.PlayerPatch{Name: "Z"})
	s.ErrorIs(err, model.ErrPlayerNotFound)

	_, err = s.service.UpdatePlayer(s.ctx, "c", model.PlayerPatch{Name: "A", Counts: map[string]int{"Q": 1}})
	s.ErrorIs(err, model.ErrItemNotFound)
}

func (s *ServiceSuite) TestRemovePlayer() {
	s.Require().NoError(s.service.RemovePlayer(s.ctx, "c", "A"))
	s.Equal("A", s.recorder.events[0].Name)

	s.ErrorIs(s.service.RemovePlayer(s.ctx, "c", "A"), model.ErrPlayerNotFound)
}

func (s *ServiceSuite) TestDeleteHistoryPublishesReplace() {
	s.Require().NoError(s.service.DeleteHistory(s.ctx, "c", "h1"))

	ev := s.recorder.events[0]
	s.Equal(model.EventStateReplaced, ev.Type)
	s.Empty(ev.Snapshot.History)

	s.ErrorIs(s.service.DeleteHistory(s.ctx, "c", "h1"), model.ErrHistoryNotFound)
}

func (s *ServiceSuite) TestRevisionsIncrease() {
	_, _ = s.service.AddPlayer(s.ctx, "c", "C")
	_ = s.service.RemovePlayer(s.ctx, "c", "C")

	s.Equal(int64(2), s.recorder.events[0].Revision)
	s.Equal(int64(3), s.recorder.events[1].Revision)
}
