// Package cache holds the expiring stores for rendered rows and derived
// aggregates. Validity is checked on every read; expired entries stay in
// place until a sweep removes them.
package cache

import "time"

const (
	// DefaultMaxAge is how long an entry stays valid
	DefaultMaxAge = 5 * time.Minute
	// DefaultRenderCapacity bounds the row-render cache
	DefaultRenderCapacity = 100
	// DefaultSweepInterval is the period of the background sweep
	DefaultSweepInterval = 5 * time.Minute
)

// Entry wraps a cached value with the time it was stored
type Entry[T any] struct {
	Data      T
	Timestamp time.Time
}

// Valid reports whether the entry may still be served at now
func (e Entry[T]) Valid(now time.Time, maxAge time.Duration) bool {
	return now.Sub(e.Timestamp) < maxAge
}

// Config holds cache sizing and expiry settings
type Config struct {
	MaxAge         time.Duration
	RenderCapacity int
	SweepInterval  time.Duration
}

// DefaultConfig returns the default cache settings
func DefaultConfig() Config {
	return Config{
		MaxAge:         DefaultMaxAge,
		RenderCapacity: DefaultRenderCapacity,
		SweepInterval:  DefaultSweepInterval,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MaxAge <= 0 {
		c.MaxAge = d.MaxAge
	}
	if c.RenderCapacity <= 0 {
		c.RenderCapacity = d.RenderCapacity
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = d.SweepInterval
	}
	return c
}
