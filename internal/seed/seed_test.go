package seed

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/rewardroster/internal/model"
)

func TestParse(t *testing.T) {
	snap, err := Parse([]byte(`
items: [X, Y]
players:
  - name: A
    counts: {X: 2}
  - name: B
    active: false
`))
	require.NoError(t, err)

	assert.Equal(t, []string{"X", "Y"}, snap.Items)
	require.Len(t, snap.Players, 2)
	assert.True(t, snap.Players[0].Active)
	assert.Equal(t, 2, snap.Players[0].Count("X"))
	assert.False(t, snap.Players[1].Active)
	assert.NotNil(t, snap.Players[1].Counts)
	assert.Empty(t, snap.History)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"duplicate player", "items: [X]\nplayers: [{name: A}, {name: A}]"},
		{"duplicate item", "items: [X, X]\nplayers: []"},
		{"negative count", "items: [X]\nplayers: [{name: A, counts: {X: -1}}]"},
		{"blank name", "items: [X]\nplayers: [{name: ' '}]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			assert.ErrorIs(t, err, model.ErrMalformedSnapshot)
		})
	}

	_, err := Parse([]byte("items: {"))
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	snap, err := Load("../../data/seed.yaml")
	require.NoError(t, err)
	assert.NotEmpty(t, snap.Items)
	assert.NotEmpty(t, snap.Players)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
