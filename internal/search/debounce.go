package search

import (
	"sync"
	"time"

	"github.com/mcoot/rewardroster/internal/dependencies/clock"
)

// DefaultDebounce is the quiet period before a debounced call fires
const DefaultDebounce = 300 * time.Millisecond

// Debouncer delays a call until input has been quiet for the configured
// delay. Each Trigger cancels the pending call and restarts the timer.
type Debouncer struct {
	clock clock.Clock
	delay time.Duration

	mu      sync.Mutex
	timer   clock.Timer
	pending string
	seq     uint64
}

// NewDebouncer creates a debouncer. A non-positive delay uses DefaultDebounce.
func NewDebouncer(clk clock.Clock, delay time.Duration) *Debouncer {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Debouncer{clock: clk, delay: delay}
}

// Trigger schedules fn(query) after the quiet period, replacing any
// pending call.
func (d *Debouncer) Trigger(query string, fn func(query string)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.seq++
	seq := d.seq
	d.pending = query
	d.timer = d.clock.AfterFunc(d.delay, func() {
		d.mu.Lock()
		if seq != d.seq {
			d.mu.Unlock()
			return
		}
		q := d.pending
		d.timer = nil
		d.mu.Unlock()
		fn(q)
	})
}

// Cancel drops the pending call, if any
func (d *Debouncer) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seq++
	if d.timer == nil {
		return false
	}
	stopped := d.timer.Stop()
	d.timer = nil
	return stopped
}

// Pending reports whether a call is scheduled
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}
