// Package insights derives rankings and statistics from the roster and
// memoizes them in the computed cache.
package insights

import (
	"sort"
	"strconv"

	"github.com/mcoot/rewardroster/internal/cache"
	"github.com/mcoot/rewardroster/internal/fairness"
	"github.com/mcoot/rewardroster/internal/model"
)

// Ranking is one row of an item leaderboard
type Ranking struct {
	Position int    `json:"position"`
	Player   string `json:"player"`
	Count    int    `json:"count"`
	Total    int    `json:"total"`
}

func (r Ranking) score() fairness.Score {
	return fairness.Score{ItemCount: r.Count, TotalCount: r.Total}
}

// Stats summarizes the distribution so far
type Stats struct {
	ItemTotals    map[string]int `json:"item_totals"`
	PlayerTotals  map[string]int `json:"player_totals"`
	GrandTotal    int            `json:"grand_total"`
	Players       int            `json:"players"`
	ActivePlayers int            `json:"active_players"`
	// Repeats is how many players hold two or more of some item
	Repeats int `json:"repeats"`
}

// Service computes insights through a computed cache
type Service struct {
	cache *cache.Computed
}

// New creates an insights service
func New(c *cache.Computed) *Service {
	return &Service{cache: c}
}

// Rankings orders the roster by count of item descending, then total
// descending, then roster order.
func (s *Service) Rankings(item string, roster []model.Player) []Ranking {
	key := cache.Key(item, rosterKey(roster)...)
	return cache.GetOrCompute(s.cache, cache.NamespaceRankings, key, func() []Ranking {
		return ComputeRankings(item, roster)
	})
}

// Stats returns statistics over the roster and catalog
func (s *Service) Stats(roster []model.Player, items []string) Stats {
	key := cache.Key("stats", append(rosterKey(roster), items...)...)
	return cache.GetOrCompute(s.cache, cache.NamespaceStatistics, key, func() Stats {
		return ComputeStats(roster, items)
	})
}

// ComputeRankings is the uncached form of Rankings
func ComputeRankings(item string, roster []model.Player) []Ranking {
	out := make([]Ranking, len(roster))
	for i, p := range roster {
		out[i] = Ranking{Player: p.Name, Count: p.Count(item), Total: p.Total()}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[j].score().Less(out[i].score())
	})
	for i := range out {
		out[i].Position = i + 1
	}
	return out
}

// ComputeStats is the uncached form of Stats
func ComputeStats(roster []model.Player, items []string) Stats {
	st := Stats{
		ItemTotals:   make(map[string]int, len(items)),
		PlayerTotals: make(map[string]int, len(roster)),
		Players:      len(roster),
	}
	for _, item := range items {
		st.ItemTotals[item] = 0
	}
	for _, p := range roster {
		if p.Active {
			st.ActivePlayers++
		}
		repeat := false
		for _, item := range items {
			n := p.Count(item)
			st.ItemTotals[item] += n
			if n >= 2 {
				repeat = true
			}
		}
		st.PlayerTotals[p.Name] = p.Total()
		st.GrandTotal += p.Total()
		if repeat {
			st.Repeats++
		}
	}
	return st
}

// rosterKey lists the inputs that change a result: names with serialized
// counts and active state.
func rosterKey(roster []model.Player) []string {
	parts := make([]string, len(roster))
	for i, p := range roster {
		parts[i] = p.Name + ":" + strconv.FormatBool(p.Active) + ":" + cache.SerializeCounts(p.Counts)
	}
	return parts
}
