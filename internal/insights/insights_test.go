package insights

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/rewardroster/internal/cache"
	"github.com/mcoot/rewardroster/internal/dependencies/mocks"
	"github.com/mcoot/rewardroster/internal/model"
)

type InsightsSuite struct {
	suite.Suite
	clock    *mocks.MockClock
	computed *cache.Computed
	service  *Service
	roster   []model.Player
	items    []string
}

func TestInsightsSuite(t *testing.T) {
	suite.Run(t, new(InsightsSuite))
}

func (s *InsightsSuite) SetupTest() {
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.computed = cache.NewComputed(s.clock, 5*time.Minute)
	s.service = New(s.computed)
	s.items = []string{"X", "Y"}
	s.roster = []model.Player{
		{Name: "A", Active: true, Counts: map[string]int{"X": 1, "Y": 0}},
		{Name: "B", Active: true, Counts: map[string]int{"X": 2, "Y": 2}},
		{Name: "C", Active: false, Counts: map[string]int{"X": 1, "Y": 3}},
		{Name: "D", Active: true, Counts: map[string]int{}},
	}
}

func (s *InsightsSuite) TestRankingsOrder() {
	rankings := s.service.Rankings("X", s.roster)

	s.Require().Len(rankings, 4)
	names := []string{rankings[0].Player, rankings[1].Player, rankings[2].Player, rankings[3].Player}
	s.Equal([]string{"B", "C", "A", "D"}, names)
	s.Equal(1, rankings[0].Position)
	s.Equal(2, rankings[0].Count)
	s.Equal(4, rankings[3].Position)
}

func (s *InsightsSuite) TestRankingsAreCached() {
	first := s.service.Rankings("X", s.roster)
	s.Equal(1, s.computed.Len())

	second := s.service.Rankings("X", s.roster)
	s.Equal(first, second)
	s.Equal(1, s.computed.Len())
}

func (s *InsightsSuite) TestRankingsKeyFollowsCounts() {
	s.service.Rankings("X", s.roster)
	s.roster[3].Counts = map[string]int{"X": 9}

	rankings := s.service.Rankings("X", s.roster)
	s.Equal("D", rankings[0].Player)
}

func (s *InsightsSuite) TestStats() {
	st := s.service.Stats(s.roster, s.items)

	s.Equal(map[string]int{"X": 4, "Y": 5}, st.ItemTotals)
	s.Equal(9, st.GrandTotal)
	s.Equal(4, st.PlayerTotals["B"])
	s.Equal(0, st.PlayerTotals["D"])
	s.Equal(4, st.Players)
	s.Equal(3, st.ActivePlayers)
	s.Equal(2, st.Repeats)
}

func (s *InsightsSuite) TestStatsExpire() {
	s.service.Stats(s.roster, s.items)
	s.clock.Advance(5 * time.Minute)

	_, ok := s.computed.Get(cache.NamespaceStatistics, cache.Key("stats", append(rosterKey(s.roster), s.items...)...))
	s.False(ok)
}
