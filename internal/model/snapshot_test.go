package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validSnapshot() *Snapshot {
	return &Snapshot{
		Players: []Player{
			{Name: "A", Active: true, Counts: map[string]int{"X": 0}},
			{Name: "B", Active: false, Counts: map[string]int{"X": 1}},
		},
		Items:   []string{"X", "Y"},
		History: []HistoryEntry{},
	}
}

func TestSnapshotValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(s *Snapshot)
		valid  bool
	}{
		{name: "valid", mutate: func(s *Snapshot) {}, valid: true},
		{name: "missing players", mutate: func(s *Snapshot) { s.Players = nil }},
		{name: "missing items", mutate: func(s *Snapshot) { s.Items = nil }},
		{name: "empty item", mutate: func(s *Snapshot) { s.Items = append(s.Items, "") }},
		{name: "duplicate item", mutate: func(s *Snapshot) { s.Items = append(s.Items, "X") }},
		{name: "duplicate player", mutate: func(s *Snapshot) { s.Players[1].Name = "A" }},
		{name: "blank player name", mutate: func(s *Snapshot) { s.Players[0].Name = "  " }},
		{name: "negative count", mutate: func(s *Snapshot) { s.Players[0].Counts["X"] = -1 }},
		{name: "empty roster", mutate: func(s *Snapshot) { s.Players = []Player{} }, valid: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSnapshot()
			tt.mutate(s)
			err := s.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrMalformedSnapshot)
			}
		})
	}

	var nilSnapshot *Snapshot
	assert.ErrorIs(t, nilSnapshot.Validate(), ErrMalformedSnapshot)
}

func TestSnapshotCloneIsDeep(t *testing.T) {
	s := validSnapshot()
	c := s.Clone()

	c.Players[0].Counts["X"] = 9
	c.Items[0] = "Z"

	assert.Equal(t, 0, s.Players[0].Counts["X"])
	assert.Equal(t, "X", s.Items[0])
}

func TestPlayerPatchApply(t *testing.T) {
	active := false
	p := Player{Name: "A", Active: true, Counts: map[string]int{"X": 2, "Y": 1}}

	patched := PlayerPatch{
		Name:   "A",
		Active: &active,
		Counts: map[string]int{"X": 5, "Z": -3},
	}.Apply(p)

	assert.False(t, patched.Active)
	assert.Equal(t, 5, patched.Counts["X"])
	assert.Equal(t, 1, patched.Counts["Y"], "absent keys are untouched")
	assert.Equal(t, 0, patched.Counts["Z"], "negative counts clamp to zero")
	assert.Equal(t, 2, p.Counts["X"], "original is not modified")
	assert.True(t, p.Active)
}

func TestPlayerTotal(t *testing.T) {
	p := Player{Counts: map[string]int{"X": 2, "Y": 3}}
	assert.Equal(t, 5, p.Total())
	assert.Equal(t, 0, p.Count("missing"))
}
