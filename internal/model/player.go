package model

import "strings"

// Player is a roster participant. Name is the primary key; there is no
// separate numeric id.
type Player struct {
	Name   string         `json:"name"`
	Active bool           `json:"active"`
	Counts map[string]int `json:"counts"`
}

// NewPlayer returns an active player with no counts
func NewPlayer(name string) Player {
	return Player{
		Name:   name,
		Active: true,
		Counts: map[string]int{},
	}
}

// Count returns how many of item the player holds. Missing entries are zero.
func (p Player) Count(item string) int {
	return p.Counts[item]
}

// Total returns the sum of all counts
func (p Player) Total() int {
	total := 0
	for _, n := range p.Counts {
		total += n
	}
	return total
}

// Clone returns a deep copy of the player
func (p Player) Clone() Player {
	counts := make(map[string]int, len(p.Counts))
	for item, n := range p.Counts {
		counts[item] = n
	}
	p.Counts = counts
	return p
}

// PlayerPatch carries a partial player update received from another client.
// Nil fields and absent count keys leave the local value untouched.
type PlayerPatch struct {
	Name   string         `json:"name"`
	Active *bool          `json:"active,omitempty"`
	Counts map[string]int `json:"counts,omitempty"`
}

// Apply merges the patch into p. Supplied fields win.
func (pp PlayerPatch) Apply(p Player) Player {
	p = p.Clone()
	if pp.Active != nil {
		p.Active = *pp.Active
	}
	for item, n := range pp.Counts {
		if n < 0 {
			n = 0
		}
		p.Counts[item] = n
	}
	return p
}

// ValidPlayerName reports whether name can be used as a roster key
func ValidPlayerName(name string) bool {
	return strings.TrimSpace(name) != "" && strings.TrimSpace(name) == name
}
