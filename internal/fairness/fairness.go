// Package fairness picks the next recipient of an item: the candidate
// holding the fewest of that item, then the fewest rewards overall, then
// whoever comes first in pool order.
package fairness

import (
	"math"

	"github.com/mcoot/rewardroster/internal/cache"
	"github.com/mcoot/rewardroster/internal/model"
)

// Score is the (itemCount, totalCount) pair candidates are ranked by
type Score struct {
	ItemCount  int
	TotalCount int
}

// ScoreOf returns the fairness score of p for item
func ScoreOf(p model.Player, item string) Score {
	return Score{ItemCount: p.Count(item), TotalCount: p.Total()}
}

// Less reports whether s ranks strictly ahead of other
func (s Score) Less(other Score) bool {
	if s.ItemCount != other.ItemCount {
		return s.ItemCount < other.ItemCount
	}
	return s.TotalCount < other.TotalCount
}

// Suggest returns the best recipient of item from pool in a single pass.
// It returns false for an empty pool.
func Suggest(item string, pool []model.Player) (model.Player, bool) {
	best := -1
	bestScore := Score{ItemCount: math.MaxInt, TotalCount: math.MaxInt}
	for i, p := range pool {
		if score := ScoreOf(p, item); score.Less(bestScore) {
			best, bestScore = i, score
		}
	}
	if best < 0 {
		return model.Player{}, false
	}
	return pool[best], true
}

// ActivePlayers returns the default candidate pool
func ActivePlayers(roster []model.Player) []model.Player {
	pool := make([]model.Player, 0, len(roster))
	for _, p := range roster {
		if p.Active {
			pool = append(pool, p)
		}
	}
	return pool
}

// Suggester memoizes suggestions in the computed cache's suggestions
// namespace, keyed by item and pool membership. A cached winner can lag a
// count change made through another path for up to the cache max age.
type Suggester struct {
	cache *cache.Computed
}

// NewSuggester creates a suggester backed by c
func NewSuggester(c *cache.Computed) *Suggester {
	return &Suggester{cache: c}
}

type suggestion struct {
	name  string
	found bool
}

// Suggest returns the cached or freshly computed recipient of item
func (s *Suggester) Suggest(item string, pool []model.Player) (model.Player, bool) {
	names := make([]string, len(pool))
	for i, p := range pool {
		names[i] = p.Name
	}
	key := cache.Key(item, names...)

	result := cache.GetOrCompute(s.cache, cache.NamespaceSuggestions, key, func() suggestion {
		p, ok := Suggest(item, pool)
		return suggestion{name: p.Name, found: ok}
	})
	if !result.found {
		return model.Player{}, false
	}
	for _, p := range pool {
		if p.Name == result.name {
			return p, true
		}
	}
	return model.Player{}, false
}
