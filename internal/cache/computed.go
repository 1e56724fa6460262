package cache

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mcoot/rewardroster/internal/dependencies/clock"
)

// Namespace separates families of derived data
type Namespace string

const (
	NamespaceRankings    Namespace = "rankings"
	NamespaceStatistics  Namespace = "statistics"
	NamespaceSuggestions Namespace = "suggestions"
)

// Computed is an expiring key/value store for derived aggregates
type Computed struct {
	mu     sync.Mutex
	clock  clock.Clock
	maxAge time.Duration
	spaces map[Namespace]map[string]Entry[any]
}

// NewComputed creates an empty computed cache
func NewComputed(clk clock.Clock, maxAge time.Duration) *Computed {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return &Computed{
		clock:  clk,
		maxAge: maxAge,
		spaces: make(map[Namespace]map[string]Entry[any]),
	}
}

// Get returns the value for key if present and not expired
func (c *Computed) Get(ns Namespace, key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.spaces[ns][key]
	if !ok || !e.Valid(c.clock.Now(), c.maxAge) {
		return nil, false
	}
	return e.Data, true
}

// Set stores value under key
func (c *Computed) Set(ns Namespace, key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	space, ok := c.spaces[ns]
	if !ok {
		space = make(map[string]Entry[any])
		c.spaces[ns] = space
	}
	space[key] = Entry[any]{Data: value, Timestamp: c.clock.Now()}
}

// Sweep removes expired entries and returns how many were dropped
func (c *Computed) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.clock.Now()
	removed := 0
	for _, space := range c.spaces {
		for key, e := range space {
			if !e.Valid(now, c.maxAge) {
				delete(space, key)
				removed++
			}
		}
	}
	return removed
}

// Clear drops every namespace
func (c *Computed) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.spaces = make(map[Namespace]map[string]Entry[any])
}

// Len returns the number of stored entries, expired ones included
func (c *Computed) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, space := range c.spaces {
		n += len(space)
	}
	return n
}

// GetOrCompute returns the cached value for key or stores the result of compute.
// A stored value of the wrong type counts as a miss.
func GetOrCompute[T any](c *Computed, ns Namespace, key string, compute func() T) T {
	if v, ok := c.Get(ns, key); ok {
		if typed, ok := v.(T); ok {
			return typed
		}
	}
	v := compute()
	c.Set(ns, key, v)
	return v
}

// Key builds a deterministic cache key from a subject and its inputs,
// e.g. an item name and the candidate pool's player names. Each part is
// length-prefixed so separators inside names cannot collide.
func Key(subject string, inputs ...string) string {
	var b strings.Builder
	writeKeyPart(&b, subject)
	b.WriteByte('|')
	for i, in := range inputs {
		if i > 0 {
			b.WriteByte(',')
		}
		writeKeyPart(&b, in)
	}
	return b.String()
}

func writeKeyPart(b *strings.Builder, s string) {
	b.WriteString(strconv.Itoa(len(s)))
	b.WriteByte(':')
	b.WriteString(s)
}
