package engine

import (
	"time"

	"github.com/mcoot/rewardroster/internal/cache"
	"github.com/mcoot/rewardroster/internal/reconcile"
	"github.com/mcoot/rewardroster/internal/render"
	"github.com/mcoot/rewardroster/internal/search"
)

// Config holds engine settings. Zero fields take their defaults.
type Config struct {
	Cache     cache.Config
	Render    render.Config
	Reconcile reconcile.Config
	Debounce  time.Duration
	// MessagesPath optionally overrides the embedded message catalog
	MessagesPath string
}

// DefaultConfig returns the default engine settings
func DefaultConfig() Config {
	return Config{
		Cache:     cache.DefaultConfig(),
		Render:    render.DefaultConfig(),
		Reconcile: reconcile.DefaultConfig(),
		Debounce:  search.DefaultDebounce,
	}
}
