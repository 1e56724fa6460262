// Package search filters the roster against a free-text query. A player
// matches when every whitespace-separated term is a substring of its name,
// its active-state label, an item name, or one of its counts.
package search

import (
	"strconv"
	"strings"

	"github.com/mcoot/rewardroster/internal/model"
)

// Labeler supplies the localized active/inactive label
type Labeler interface {
	ActiveLabel(active bool) string
}

// Index searches a roster. It holds no per-query state.
type Index struct {
	labels Labeler
}

// New creates a search index using labels for the active-state field
func New(labels Labeler) *Index {
	return &Index{labels: labels}
}

// Terms lowercases query and splits it on whitespace. A blank query has
// no terms.
func Terms(query string) []string {
	return strings.Fields(strings.ToLower(query))
}

// Search returns the players matching query in roster order. A blank
// query returns the roster unchanged.
func (ix *Index) Search(roster []model.Player, items []string, query string) []model.Player {
	terms := Terms(query)
	if len(terms) == 0 {
		return roster
	}
	out := make([]model.Player, 0, len(roster))
	for _, p := range roster {
		if ix.Matches(p, items, terms) {
			out = append(out, p)
		}
	}
	return out
}

// Matches reports whether p satisfies every term
func (ix *Index) Matches(p model.Player, items []string, terms []string) bool {
	fields := ix.fields(p, items)
	for _, term := range terms {
		if !anyContains(fields, term) {
			return false
		}
	}
	return true
}

func (ix *Index) fields(p model.Player, items []string) []string {
	fields := make([]string, 0, 2+2*len(items))
	fields = append(fields, strings.ToLower(p.Name))
	fields = append(fields, strings.ToLower(ix.labels.ActiveLabel(p.Active)))
	for _, item := range items {
		fields = append(fields, strings.ToLower(item))
		fields = append(fields, strconv.Itoa(p.Count(item)))
	}
	return fields
}

func anyContains(fields []string, term string) bool {
	for _, f := range fields {
		if strings.Contains(f, term) {
			return true
		}
	}
	return false
}
