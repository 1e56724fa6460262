package cache

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/mcoot/rewardroster/internal/dependencies/clock"
)

// Store is a cache that can be cleared and trimmed to size
type Store interface {
	Clear()
	Trim() int
}

// SweepStats reports what a sweep removed
type SweepStats struct {
	Expired int
	Evicted int
}

// Layer groups the computed cache with every registered row cache so a
// single call invalidates all of them.
type Layer struct {
	Computed *Computed

	clock  clock.Clock
	cfg    Config
	logger *slog.Logger

	mu     sync.Mutex
	stores []Store

	invalidations atomic.Int64
}

// NewLayer creates a cache layer with an empty computed cache
func NewLayer(clk clock.Clock, cfg Config, logger *slog.Logger) *Layer {
	cfg = cfg.withDefaults()
	return &Layer{
		Computed: NewComputed(clk, cfg.MaxAge),
		clock:    clk,
		cfg:      cfg,
		logger:   logger.With(slog.String("component", "cache")),
	}
}

// Config returns the layer's settings
func (l *Layer) Config() Config {
	return l.cfg
}

// Register adds a row cache to the layer
func (l *Layer) Register(s Store) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stores = append(l.stores, s)
}

// InvalidateAll clears every namespace and every registered store
func (l *Layer) InvalidateAll() {
	l.Computed.Clear()
	l.mu.Lock()
	stores := append([]Store(nil), l.stores...)
	l.mu.Unlock()
	for _, s := range stores {
		s.Clear()
	}
	l.invalidations.Add(1)
}

// Invalidations returns how many times InvalidateAll has run
func (l *Layer) Invalidations() int64 {
	return l.invalidations.Load()
}

// Sweep drops expired computed entries and trims row caches to capacity
func (l *Layer) Sweep() SweepStats {
	stats := SweepStats{Expired: l.Computed.Sweep()}
	l.mu.Lock()
	stores := append([]Store(nil), l.stores...)
	l.mu.Unlock()
	for _, s := range stores {
		stats.Evicted += s.Trim()
	}
	return stats
}

// Run sweeps on the configured interval until ctx is cancelled. The
// timer is re-armed after each sweep.
func (l *Layer) Run(ctx context.Context) {
	due := make(chan struct{}, 1)
	arm := func() clock.Timer {
		return l.clock.AfterFunc(l.cfg.SweepInterval, func() {
			select {
			case due <- struct{}{}:
			default:
			}
		})
	}

	timer := arm()
	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-due:
			stats := l.Sweep()
			if stats.Expired > 0 || stats.Evicted > 0 {
				l.logger.Debug("cache swept",
					slog.Int("expired", stats.Expired),
					slog.Int("evicted", stats.Evicted))
			}
			timer = arm()
		}
	}
}
