package remote_test

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/rewardroster/internal/api"
	"github.com/mcoot/rewardroster/internal/channel/remote"
	"github.com/mcoot/rewardroster/internal/engine"
	"github.com/mcoot/rewardroster/internal/factory"
	"github.com/mcoot/rewardroster/internal/model"
	"github.com/mcoot/rewardroster/internal/testutil"
)

const waitFor = 5 * time.Second

type RemoteSuite struct {
	suite.Suite
	app    *factory.TestApp
	server *httptest.Server
	client *remote.Client
	ctx    context.Context
	cancel context.CancelFunc
}

func TestRemoteSuite(t *testing.T) {
	suite.Run(t, new(RemoteSuite))
}

func (s *RemoteSuite) SetupTest() {
	s.app = factory.NewTestApp()
	_, err := s.app.RosterService.Seed(context.Background(), &model.Snapshot{
		Players: []model.Player{model.NewPlayer("A"), model.NewPlayer("B")},
		Items:   []string{"X"},
	})
	s.Require().NoError(err)

	s.server = httptest.NewServer(api.NewRouter(api.RouterConfig{
		Logger:  testutil.NopLogger(),
		Service: s.app.RosterService,
		Hub:     s.app.SSEHub,
	}))
	s.client = remote.NewClient(s.server.URL+"/", testutil.NopLogger())
	s.ctx, s.cancel = context.WithTimeout(context.Background(), waitFor)
}

func (s *RemoteSuite) TearDownTest() {
	s.cancel()
	s.server.CloseClientConnections()
	s.server.Close()
	_ = s.app.Close()
}

func (s *RemoteSuite) TestLoadAndPush() {
	snap, err := s.client.LoadState(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(1), snap.Revision)
	s.Len(snap.Players, 2)

	snap.Players[1].Counts["X"] = 4
	ack, err := s.client.PushState(s.ctx, model.Update{Origin: "me", Snapshot: *snap})
	s.Require().NoError(err)
	s.Equal(int64(2), ack.Revision)

	stored, err := s.app.RosterService.State(s.ctx)
	s.Require().NoError(err)
	s.Equal(4, stored.Players[1].Count("X"))
}

func (s *RemoteSuite) TestErrorsUnwrapToSentinels() {
	err := s.client.DeleteHistory(s.ctx, "missing")
	s.ErrorIs(err, model.ErrHistoryNotFound)

	var apiErr *remote.Error
	s.Require().ErrorAs(err, &apiErr)
	s.Equal(404, apiErr.Status)

	_, err = s.client.PushState(s.ctx, model.Update{Snapshot: model.Snapshot{}})
	s.ErrorIs(err, model.ErrMalformedSnapshot)
}

func (s *RemoteSuite) TestHealth() {
	h, err := s.client.Health(s.ctx)
	s.Require().NoError(err)
	s.Equal("ok", h.Status)
}

func (s *RemoteSuite) TestListen() {
	ready := make(chan struct{})
	events := make(chan model.Event, 4)
	done := make(chan error, 1)
	go func() {
		done <- s.client.Listen(s.ctx, func() { close(ready) }, func(ev model.Event) {
			events <- ev
		})
	}()

	select {
	case <-ready:
	case <-s.ctx.Done():
		s.FailNow("never connected")
	}

	s.Require().NoError(s.app.RosterService.RemovePlayer(context.Background(), "other", "A"))

	select {
	case ev := <-events:
		s.Equal(model.EventPlayerRemoved, ev.Type)
		s.Equal("other", ev.Origin)
	case <-s.ctx.Done():
		s.FailNow("no event")
	}

	s.app.SSEHub.Close()
	select {
	case err := <-done:
		s.ErrorIs(err, remote.ErrStreamClosed)
	case <-s.ctx.Done():
		s.FailNow("stream did not end")
	}
}

func (s *RemoteSuite) TestEngineOverHTTP() {
	e, err := engine.New(s.client, nil, s.app.MockClock, engine.DefaultConfig(), testutil.NopLogger())
	s.Require().NoError(err)

	runDone := make(chan struct{})
	go func() {
		defer close(runDone)
		_ = e.Run(s.ctx)
	}()
	defer func() {
		s.cancel()
		<-runDone
	}()
	s.Require().Eventually(e.Connected, waitFor, time.Millisecond)

	s.Require().NoError(e.Give("B", "X"))
	s.Require().NoError(e.Flush(s.ctx))

	stored, err := s.app.RosterService.State(context.Background())
	s.Require().NoError(err)
	s.Equal(1, stored.Players[1].Count("X"))

	// a write from elsewhere arrives over the stream
	_, err = s.app.RosterService.AddPlayer(context.Background(), "other", "C")
	s.Require().NoError(err)
	s.Require().Eventually(func() bool {
		return e.Snapshot().PlayerIndex("C") == 2
	}, waitFor, time.Millisecond)

	// a history deletion comes back as a full replace
	id := e.Snapshot().History[0].ID
	s.Require().NoError(e.DeleteHistory(s.ctx, id))
	s.Require().Eventually(func() bool {
		return len(e.Snapshot().History) == 0
	}, waitFor, time.Millisecond)
}

func (s *RemoteSuite) TestUndecodableEventRaisesMalformedNotice() {
	e, err := engine.New(s.client, nil, s.app.MockClock, engine.DefaultConfig(), testutil.NopLogger())
	s.Require().NoError(err)
	notices := make(chan engine.Notice, 16)
	e.OnNotice(func(n engine.Notice) {
		select {
		case notices <- n:
		default:
		}
	})

	runDone := make(chan struct{})
	go func() {
		defer close(runDone)
		_ = e.Run(s.ctx)
	}()
	defer func() {
		s.cancel()
		<-runDone
	}()
	s.Require().Eventually(e.Connected, waitFor, time.Millisecond)

	s.app.SSEHub.BroadcastEvent(string(model.EventStateReplaced), `{"snapshot":`)

	for {
		select {
		case n := <-notices:
			if n.Key != engine.NoticeMalformedSnapshot {
				continue
			}
			s.Equal(engine.LevelWarn, n.Level)
			s.ErrorIs(n.Err, model.ErrMalformedSnapshot)
			s.Len(e.Snapshot().Players, 2)
			s.True(e.Connected())
			return
		case <-s.ctx.Done():
			s.FailNow("no malformed snapshot notice")
		}
	}
}
