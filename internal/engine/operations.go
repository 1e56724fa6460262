package engine

import (
	"context"
	"fmt"

	"github.com/mcoot/rewardroster/internal/fairness"
	"github.com/mcoot/rewardroster/internal/insights"
	"github.com/mcoot/rewardroster/internal/model"
	"github.com/mcoot/rewardroster/internal/msgcat"
	"github.com/mcoot/rewardroster/internal/reorder"
)

// Suggest returns the active player who should next receive item
func (e *Engine) Suggest(item string) (model.Player, bool, error) {
	if !e.hasItem(item) {
		return model.Player{}, false, e.fail(fmt.Errorf("%s: %w", item, model.ErrItemNotFound), item)
	}
	p, ok := e.suggester.Suggest(item, fairness.ActivePlayers(e.store.Players()))
	return p, ok, nil
}

// SuggestionText describes the suggestion for item
func (e *Engine) SuggestionText(item string) (string, error) {
	p, ok, err := e.Suggest(item)
	if err != nil {
		return "", err
	}
	if !ok {
		return e.catalog.Text(msgcat.LabelNoSuggestion, map[string]any{"Item": item}), nil
	}
	return e.catalog.Text(msgcat.LabelSuggestion, map[string]any{"Item": item, "Player": p.Name}), nil
}

// Give hands one item to one player
func (e *Engine) Give(player, item string) error {
	return e.fail(e.store.ApplyBatch([]model.Assignment{{Player: player, Item: item, Quantity: 1}}), player)
}

// Distribute hands out a batch of rewards as one change
func (e *Engine) Distribute(assignments []model.Assignment) error {
	if err := e.store.ApplyBatch(assignments); err != nil {
		target := ""
		if len(assignments) > 0 {
			target = assignments[0].Player
		}
		return e.fail(err, target)
	}
	e.emit(info(e.catalog, NoticeBatchApplied, map[string]any{"Count": len(assignments)}))
	return nil
}

// AddPlayer appends an active player to the roster
func (e *Engine) AddPlayer(name string) error {
	_, err := e.store.AddPlayer(name)
	return e.fail(err, name)
}

// RemovePlayer deletes a player from the roster
func (e *Engine) RemovePlayer(name string) error {
	return e.fail(e.store.RemovePlayer(name), name)
}

// SetActive toggles whether a player takes part in suggestions
func (e *Engine) SetActive(name string, active bool) error {
	return e.fail(e.store.SetActive(name, active), name)
}

// SetCount edits one count cell. Editing must be unlocked.
func (e *Engine) SetCount(name, item string, value float64) (int, error) {
	if !e.store.UI().EditUnlocked {
		return 0, e.fail(model.ErrEditLocked, name)
	}
	n, err := e.store.SetCount(name, item, value)
	return n, e.fail(err, name)
}

// AdjustCount adds delta to one count cell, clamping at zero. Editing
// must be unlocked.
func (e *Engine) AdjustCount(name, item string, delta int) (int, error) {
	if !e.store.UI().EditUnlocked {
		return 0, e.fail(model.ErrEditLocked, name)
	}
	n, err := e.store.AdjustCount(name, item, delta)
	return n, e.fail(err, name)
}

// SetEditUnlocked toggles whether rows can be edited and dragged. Locking
// abandons any drag in progress.
func (e *Engine) SetEditUnlocked(unlocked bool) {
	if !unlocked {
		e.reorder.DragEnd()
	}
	e.store.SetEditUnlocked(unlocked)
}

// Search applies query immediately
func (e *Engine) Search(query string) {
	e.debouncer.Cancel()
	e.store.SetSearchQuery(query)
}

// Type records a keystroke in the search box. The query is applied once
// typing has paused for the debounce delay.
func (e *Engine) Type(query string) {
	e.debouncer.Trigger(query, e.store.SetSearchQuery)
}

// Matches returns the players matching the current search query
func (e *Engine) Matches() []model.Player {
	snap := e.store.Snapshot()
	return e.index.Search(snap.Players, snap.Items, snap.UI.SearchQuery)
}

// Rankings orders the roster by how many of item each player holds
func (e *Engine) Rankings(item string) ([]insights.Ranking, error) {
	if !e.hasItem(item) {
		return nil, e.fail(fmt.Errorf("%s: %w", item, model.ErrItemNotFound), item)
	}
	return e.insights.Rankings(item, e.store.Players()), nil
}

// Stats summarizes the roster's counts
func (e *Engine) Stats() insights.Stats {
	return e.insights.Stats(e.store.Players(), e.store.Items())
}

// DeleteHistory removes a history entry on the backend. The local copy
// changes when the backend confirms.
func (e *Engine) DeleteHistory(ctx context.Context, id string) error {
	return e.fail(e.sync.DeleteHistory(ctx, id), id)
}

// DragStart begins dragging the row at index. Editing must be unlocked.
func (e *Engine) DragStart(index int) error {
	if !e.store.UI().EditUnlocked {
		return e.fail(model.ErrEditLocked, "")
	}
	if err := e.reorder.DragStart(index, len(e.store.Players())); err != nil {
		return e.fail(err, "")
	}
	e.Redraw()
	return nil
}

// DragOver shows the drop placeholder next to the row at index
func (e *Engine) DragOver(index int) (reorder.Placeholder, error) {
	ph, err := e.reorder.DragOver(index)
	if err != nil {
		return ph, e.fail(err, "")
	}
	e.Redraw()
	return ph, nil
}

// Drop completes the drag onto the row at index. It reports whether the
// roster changed.
func (e *Engine) Drop(index int) (bool, error) {
	moved, err := e.reorder.Drop(index)
	if !moved {
		e.Redraw()
	}
	return moved, e.fail(err, "")
}

// DragEnd abandons the current drag and clears the placeholder
func (e *Engine) DragEnd() {
	e.reorder.DragEnd()
	e.Redraw()
}

// Move drags the row at source onto the row at target in one step
func (e *Engine) Move(source, target int) (bool, error) {
	if err := e.DragStart(source); err != nil {
		return false, err
	}
	if _, err := e.DragOver(target); err != nil {
		e.DragEnd()
		return false, err
	}
	return e.Drop(target)
}

func (e *Engine) hasItem(item string) bool {
	for _, it := range e.store.Items() {
		if it == item {
			return true
		}
	}
	return false
}

// lockedMover applies drops to the store while editing is unlocked
type lockedMover struct {
	e *Engine
}

func (m lockedMover) Reorder(from, to int) error {
	if !m.e.store.UI().EditUnlocked {
		return model.ErrEditLocked
	}
	return m.e.store.Reorder(from, to)
}
