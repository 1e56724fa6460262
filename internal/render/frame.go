// Package render turns roster state into row-level view frames. Row
// structure is cached per row content; highlighting, positions and the
// drop marker are applied on every pass.
package render

import (
	"github.com/mcoot/rewardroster/internal/model"
	"github.com/mcoot/rewardroster/internal/reorder"
)

// RepeatThreshold is the count at which a cell is flagged as a repeat
const RepeatThreshold = 2

// Cell is one item column of a row
type Cell struct {
	Item   string `json:"item"`
	Count  int    `json:"count"`
	Repeat bool   `json:"repeat,omitempty"`
}

// Row is the view of one player. Index is the player's roster position.
type Row struct {
	Index     int          `json:"index"`
	Player    string       `json:"player"`
	Active    bool         `json:"active"`
	Label     string       `json:"label"`
	Total     int          `json:"total"`
	Editable  bool         `json:"editable"`
	Draggable bool         `json:"draggable"`
	Cells     []Cell       `json:"cells"`
	Drop      reorder.Side `json:"drop,omitempty"`
}

func (r Row) clone() Row {
	cells := make([]Cell, len(r.Cells))
	copy(cells, r.Cells)
	r.Cells = cells
	return r
}

// Viewport is the visible scroll region in pixels
type Viewport struct {
	ScrollTop int `json:"scroll_top"`
	Height    int `json:"height"`
}

// Window is the half-open index range [Start, End) of visible rows
type Window struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Frame is one complete render of the roster view
type Frame struct {
	Items       []string `json:"items"`
	Rows        []Row    `json:"rows"`
	Matched     int      `json:"matched"`
	RosterSize  int      `json:"roster_size"`
	Query       string   `json:"query,omitempty"`
	Searching   bool     `json:"searching"`
	Editable    bool     `json:"editable"`
	Highlight   bool     `json:"highlight"`
	Virtualized bool     `json:"virtualized"`
	Window      Window   `json:"window"`
	PadTop      int      `json:"pad_top"`
	PadBottom   int      `json:"pad_bottom"`
}

// View is the input to a render pass
type View struct {
	Players []model.Player
	Items   []string
	UI      model.UIFlags
}

// ViewOf extracts the render input from a snapshot
func ViewOf(s *model.Snapshot) View {
	return View{Players: s.Players, Items: s.Items, UI: s.UI}
}

// VisibleWindow computes the rows to materialize for n rows at rowHeight
// under vp, widened by buffer rows on each side.
func VisibleWindow(n, rowHeight, buffer int, vp Viewport) Window {
	if n <= 0 {
		return Window{}
	}
	if rowHeight <= 0 {
		return Window{Start: 0, End: n}
	}
	scroll := max(vp.ScrollTop, 0)
	first := scroll / rowHeight
	last := (scroll + max(vp.Height, 0) + rowHeight - 1) / rowHeight

	start := max(first-buffer, 0)
	end := min(last+buffer, n)
	if start > end {
		start = end
	}
	return Window{Start: start, End: end}
}
