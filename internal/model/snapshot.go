package model

import "fmt"

// UIFlags is per-client view state
type UIFlags struct {
	EditUnlocked bool   `json:"edit_unlocked"`
	SearchQuery  string `json:"search_query"`
}

// Snapshot is the full shared state transferred on load and replace
type Snapshot struct {
	Revision int64          `json:"revision"`
	Players  []Player       `json:"players"`
	Items    []string       `json:"items"`
	History  []HistoryEntry `json:"history"`
	UI       UIFlags        `json:"ui"`
}

// Clone returns a deep copy of the snapshot
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	out := &Snapshot{
		Revision: s.Revision,
		Players:  make([]Player, len(s.Players)),
		Items:    make([]string, len(s.Items)),
		History:  make([]HistoryEntry, len(s.History)),
		UI:       s.UI,
	}
	for i, p := range s.Players {
		out.Players[i] = p.Clone()
	}
	copy(out.Items, s.Items)
	copy(out.History, s.History)
	return out
}

// PlayerIndex returns the roster position of name, or -1
func (s *Snapshot) PlayerIndex(name string) int {
	for i := range s.Players {
		if s.Players[i].Name == name {
			return i
		}
	}
	return -1
}

// Validate checks the snapshot has the required shape. Failures wrap
// ErrMalformedSnapshot.
func (s *Snapshot) Validate() error {
	if s == nil {
		return fmt.Errorf("%w: nil snapshot", ErrMalformedSnapshot)
	}
	if s.Players == nil {
		return fmt.Errorf("%w: missing players", ErrMalformedSnapshot)
	}
	if s.Items == nil {
		return fmt.Errorf("%w: missing items", ErrMalformedSnapshot)
	}

	items := make(map[string]bool, len(s.Items))
	for _, item := range s.Items {
		if item == "" {
			return fmt.Errorf("%w: empty item name", ErrMalformedSnapshot)
		}
		if items[item] {
			return fmt.Errorf("%w: duplicate item %q", ErrMalformedSnapshot, item)
		}
		items[item] = true
	}

	names := make(map[string]bool, len(s.Players))
	for _, p := range s.Players {
		if !ValidPlayerName(p.Name) {
			return fmt.Errorf("%w: invalid player name %q", ErrMalformedSnapshot, p.Name)
		}
		if names[p.Name] {
			return fmt.Errorf("%w: duplicate player %q", ErrMalformedSnapshot, p.Name)
		}
		names[p.Name] = true
		for item, n := range p.Counts {
			if n < 0 {
				return fmt.Errorf("%w: negative count for %s/%s", ErrMalformedSnapshot, p.Name, item)
			}
		}
	}
	return nil
}

// Normalize fills nil maps and slices left by partial decoders
func (s *Snapshot) Normalize() {
	for i := range s.Players {
		if s.Players[i].Counts == nil {
			s.Players[i].Counts = map[string]int{}
		}
	}
	if s.History == nil {
		s.History = []HistoryEntry{}
	}
}

// EmptySnapshot returns a valid snapshot with no players and no items
func EmptySnapshot() *Snapshot {
	return &Snapshot{
		Players: []Player{},
		Items:   []string{},
		History: []HistoryEntry{},
	}
}
