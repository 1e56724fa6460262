package cache

import (
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mcoot/rewardroster/internal/dependencies/clock"
	"github.com/mcoot/rewardroster/internal/model"
)

// RowKey addresses a rendered row by its content. The search query and
// highlight state are not part of the key.
type RowKey struct {
	Player       string
	Counts       string
	Active       bool
	EditUnlocked bool
}

// NewRowKey builds the key for a player row
func NewRowKey(p model.Player, editUnlocked bool) RowKey {
	return RowKey{
		Player:       p.Name,
		Counts:       SerializeCounts(p.Counts),
		Active:       p.Active,
		EditUnlocked: editUnlocked,
	}
}

// SerializeCounts renders counts in item order so equal maps serialize equally
func SerializeCounts(counts map[string]int) string {
	items := make([]string, 0, len(counts))
	for item := range counts {
		items = append(items, item)
	}
	sort.Strings(items)

	var b strings.Builder
	for _, item := range items {
		b.WriteString(item)
		b.WriteByte('=')
		b.WriteString(strconv.Itoa(counts[item]))
		b.WriteByte(';')
	}
	return b.String()
}

// RenderCache stores precomputed rows, evicting the oldest insertions
// once it holds more than its capacity.
type RenderCache[V any] struct {
	mu       sync.Mutex
	clock    clock.Clock
	maxAge   time.Duration
	capacity int
	entries  map[RowKey]Entry[V]
	order    []RowKey
}

// NewRenderCache creates a row cache bounded to capacity entries
func NewRenderCache[V any](clk clock.Clock, cfg Config) *RenderCache[V] {
	cfg = cfg.withDefaults()
	return &RenderCache[V]{
		clock:    clk,
		maxAge:   cfg.MaxAge,
		capacity: cfg.RenderCapacity,
		entries:  make(map[RowKey]Entry[V]),
	}
}

// Get returns the cached row for key
func (c *RenderCache[V]) Get(key RowKey) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || !e.Valid(c.clock.Now(), c.maxAge) {
		var zero V
		return zero, false
	}
	return e.Data, true
}

// Put stores a row and evicts the oldest entries beyond capacity
func (c *RenderCache[V]) Put(key RowKey, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[key]; !exists {
		c.order = append(c.order, key)
	}
	c.entries[key] = Entry[V]{Data: value, Timestamp: c.clock.Now()}
	c.trimLocked()
}

// GetOrRender returns the cached row or renders, stores and returns it
func (c *RenderCache[V]) GetOrRender(key RowKey, render func() V) (V, bool) {
	if v, ok := c.Get(key); ok {
		return v, true
	}
	v := render()
	c.Put(key, v)
	return v, false
}

// Trim evicts the oldest entries beyond capacity and returns how many went
func (c *RenderCache[V]) Trim() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.trimLocked()
}

func (c *RenderCache[V]) trimLocked() int {
	evicted := 0
	for len(c.order) > c.capacity {
		delete(c.entries, c.order[0])
		c.order = c.order[1:]
		evicted++
	}
	return evicted
}

// Clear drops every row
func (c *RenderCache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[RowKey]Entry[V])
	c.order = nil
}

// Len returns the number of stored rows
func (c *RenderCache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
