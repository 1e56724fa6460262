// Package seed loads an initial roster from YAML. A seed is only applied
// to an empty store.
package seed

import (
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v3"

	"github.com/mcoot/rewardroster/internal/model"
)

// File is the on-disk seed layout
type File struct {
	Items   []string `yaml:"items"`
	Players []Player `yaml:"players"`
}

// Player is one seeded roster entry. Active defaults to true.
type Player struct {
	Name   string         `yaml:"name"`
	Active *bool          `yaml:"active"`
	Counts map[string]int `yaml:"counts"`
}

// Load reads and parses the seed file at path
func Load(path string) (*model.Snapshot, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed %s: %w", path, err)
	}
	snap, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("seed %s: %w", path, err)
	}
	return snap, nil
}

// Parse decodes a seed document into a validated snapshot
func Parse(b []byte) (*model.Snapshot, error) {
	var f File
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	return f.Snapshot()
}

// Snapshot converts the seed into a roster snapshot
func (f File) Snapshot() (*model.Snapshot, error) {
	snap := model.EmptySnapshot()
	snap.Items = append(snap.Items, f.Items...)
	for _, sp := range f.Players {
		p := model.NewPlayer(sp.Name)
		if sp.Active != nil {
			p.Active = *sp.Active
		}
		for item, n := range sp.Counts {
			p.Counts[item] = n
		}
		snap.Players = append(snap.Players, p)
	}
	if err := snap.Validate(); err != nil {
		return nil, err
	}
	snap.Normalize()
	return snap, nil
}
