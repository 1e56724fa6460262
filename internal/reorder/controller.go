// Package reorder implements the drag state machine that moves a roster
// row to a new position. It never touches the roster until a drop.
package reorder

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/mcoot/rewardroster/internal/model"
)

// State is the drag phase
type State int

const (
	Idle State = iota
	Dragging
)

func (s State) String() string {
	if s == Dragging {
		return "dragging"
	}
	return "idle"
}

// Side says where the placeholder sits relative to the hovered row
type Side string

const (
	Before Side = "before"
	After  Side = "after"
)

// Placeholder is the visual drop marker shown during a drag
type Placeholder struct {
	Target int  `json:"target"`
	Side   Side `json:"side"`
}

// Mover applies a completed move. Reorder removes the row at from and
// inserts it so that it ends up at index to.
type Mover interface {
	Reorder(from, to int) error
}

// Controller tracks one drag at a time
type Controller struct {
	mu          sync.Mutex
	mover       Mover
	logger      *slog.Logger
	state       State
	source      int
	size        int
	placeholder *Placeholder
}

// New creates an idle controller
func New(mover Mover, logger *slog.Logger) *Controller {
	return &Controller{
		mover:  mover,
		logger: logger.With(slog.String("component", "reorder")),
	}
}

// State returns the current phase and, while dragging, the source index
func (c *Controller) State() (State, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state, c.source
}

// Placeholder returns the current drop marker, if any
func (c *Controller) Placeholder() (Placeholder, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.placeholder == nil {
		return Placeholder{}, false
	}
	return *c.placeholder, true
}

// DragStart begins dragging the row at source in a roster of size rows
func (c *Controller) DragStart(source, size int) error {
	if source < 0 || source >= size {
		return fmt.Errorf("drag start %d of %d: %w", source, size, model.ErrInvalidIndex)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = Dragging
	c.source = source
	c.size = size
	c.placeholder = nil
	return nil
}

// DragOver moves the placeholder next to target: before it when moving
// upward, after it when moving downward.
func (c *Controller) DragOver(target int) (Placeholder, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Dragging {
		return Placeholder{}, model.ErrNotDragging
	}
	if target < 0 || target >= c.size {
		return Placeholder{}, fmt.Errorf("drag over %d of %d: %w", target, c.size, model.ErrInvalidIndex)
	}
	ph := Placeholder{Target: target, Side: SideFor(c.source, target)}
	c.placeholder = &ph
	return ph, nil
}

// Drop completes the drag onto target. Dropping a row on itself is a
// no-op. The controller is idle afterwards whatever the outcome.
func (c *Controller) Drop(target int) (bool, error) {
	c.mu.Lock()
	state, source, size := c.state, c.source, c.size
	c.reset()
	c.mu.Unlock()

	if state != Dragging {
		return false, model.ErrNotDragging
	}
	if target == source {
		return false, nil
	}
	if target < 0 || target >= size {
		return false, fmt.Errorf("drop on %d of %d: %w", target, size, model.ErrInvalidIndex)
	}

	to := Destination(source, target)
	if err := c.mover.Reorder(source, to); err != nil {
		c.logger.Warn("drop failed",
			slog.Int("from", source),
			slog.Int("to", to),
			slog.String("error", err.Error()))
		return false, err
	}
	return true, nil
}

// DragEnd abandons any drag in progress
func (c *Controller) DragEnd() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reset()
}

func (c *Controller) reset() {
	c.state = Idle
	c.source = 0
	c.size = 0
	c.placeholder = nil
}

// SideFor returns the insertion side for a drag from source over target
func SideFor(source, target int) Side {
	if target > source {
		return After
	}
	return Before
}

// Destination returns the final index of a row dragged from source and
// dropped on target. The insertion point is computed against the full
// roster, then shifted down by one when the source sat above it.
func Destination(source, target int) int {
	insert := target
	if SideFor(source, target) == After {
		insert = target + 1
	}
	if source < insert {
		insert--
	}
	return insert
}

// Move returns a copy of roster with the row at from moved to index to
func Move[T any](roster []T, from, to int) ([]T, error) {
	if from < 0 || from >= len(roster) || to < 0 || to >= len(roster) {
		return nil, fmt.Errorf("move %d to %d of %d: %w", from, to, len(roster), model.ErrInvalidIndex)
	}
	out := make([]T, 0, len(roster))
	out = append(out, roster[:from]...)
	out = append(out, roster[from+1:]...)
	moved := roster[from]
	out = append(out[:to], append([]T{moved}, out[to:]...)...)
	return out, nil
}
