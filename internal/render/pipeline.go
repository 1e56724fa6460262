package render

import (
	"bytes"
	"context"
	"log/slog"
	"sync"

	"github.com/mcoot/rewardroster/internal/cache"
	"github.com/mcoot/rewardroster/internal/model"
	"github.com/mcoot/rewardroster/internal/reorder"
	"github.com/mcoot/rewardroster/internal/search"
)

const (
	// DefaultVirtualizeThreshold is the roster size above which only a
	// window of rows is materialized
	DefaultVirtualizeThreshold = 50
	// DefaultRowHeight is the row height estimate in pixels
	DefaultRowHeight = 40
	// DefaultBufferRows is the number of extra rows above and below the window
	DefaultBufferRows = 5
	// DefaultViewportHeight is used until the surface reports its size
	DefaultViewportHeight = 800
)

// Config holds render settings
type Config struct {
	VirtualizeThreshold int
	RowHeight           int
	BufferRows          int
}

// DefaultConfig returns the default render settings
func DefaultConfig() Config {
	return Config{
		VirtualizeThreshold: DefaultVirtualizeThreshold,
		RowHeight:           DefaultRowHeight,
		BufferRows:          DefaultBufferRows,
	}
}

// Surface is the output layer a frame is applied to
type Surface interface {
	Apply(ctx context.Context, f Frame) error
}

// PlaceholderSource reports the current drop marker, if a drag is active
type PlaceholderSource interface {
	Placeholder() (reorder.Placeholder, bool)
}

// Stats counts pipeline work
type Stats struct {
	Renders   int
	Skipped   int
	RowBuilds int
	RowHits   int
}

// Pipeline renders views onto a surface
type Pipeline struct {
	cfg     Config
	rows    *cache.RenderCache[Row]
	index   *search.Index
	labels  search.Labeler
	surface Surface
	logger  *slog.Logger

	mu           sync.Mutex
	placeholders PlaceholderSource
	viewport     Viewport
	lastHash     uint64
	rendered     bool
	last         Frame
	stats        Stats
}

// New creates a pipeline drawing rows through rows and applying frames to surface
func New(cfg Config, rows *cache.RenderCache[Row], labels search.Labeler, surface Surface, logger *slog.Logger) *Pipeline {
	d := DefaultConfig()
	if cfg.VirtualizeThreshold <= 0 {
		cfg.VirtualizeThreshold = d.VirtualizeThreshold
	}
	if cfg.RowHeight <= 0 {
		cfg.RowHeight = d.RowHeight
	}
	if cfg.BufferRows < 0 {
		cfg.BufferRows = d.BufferRows
	}
	return &Pipeline{
		cfg:      cfg,
		rows:     rows,
		index:    search.New(labels),
		labels:   labels,
		surface:  surface,
		logger:   logger.With(slog.String("component", "render")),
		viewport: Viewport{Height: DefaultViewportHeight},
	}
}

// SetPlaceholderSource wires the reorder controller's drop marker into rows
func (p *Pipeline) SetPlaceholderSource(src PlaceholderSource) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.placeholders = src
}

// Scroll records a new viewport. The next Render redraws even if the
// content is unchanged.
func (p *Pipeline) Scroll(vp Viewport) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.viewport = vp
	p.rendered = false
}

// Invalidate forces the next Render to redraw
func (p *Pipeline) Invalidate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rendered = false
}

// Render draws v unless its content hash matches the last successful
// render. It reports whether the surface was touched.
func (p *Pipeline) Render(ctx context.Context, v View) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	hash := cache.ContentHash(v.Players, v.Items, v.UI)
	if p.rendered && hash == p.lastHash {
		p.stats.Skipped++
		return false, nil
	}

	frame := p.build(v)
	if err := p.surface.Apply(ctx, frame); err != nil {
		p.logger.Warn("apply frame failed", slog.String("error", err.Error()))
		return false, err
	}
	p.stats.Renders++
	p.lastHash = hash
	p.rendered = true
	p.last = frame
	return true, nil
}

// Last returns the most recently applied frame
func (p *Pipeline) Last() Frame {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

// Stats returns the work counters
func (p *Pipeline) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

type indexed struct {
	index  int
	player model.Player
}

func (p *Pipeline) build(v View) Frame {
	terms := search.Terms(v.UI.SearchQuery)
	visible := make([]indexed, 0, len(v.Players))
	for i, pl := range v.Players {
		if len(terms) == 0 || p.index.Matches(pl, v.Items, terms) {
			visible = append(visible, indexed{index: i, player: pl})
		}
	}

	frame := Frame{
		Items:      v.Items,
		Matched:    len(visible),
		RosterSize: len(v.Players),
		Query:      v.UI.SearchQuery,
		Searching:  len(terms) > 0,
		Editable:   v.UI.EditUnlocked,
		Highlight:  hasRepeat(visible, v.Items),
		Window:     Window{Start: 0, End: len(visible)},
	}

	if len(visible) > p.cfg.VirtualizeThreshold {
		frame.Virtualized = true
		frame.Window = VisibleWindow(len(visible), p.cfg.RowHeight, p.cfg.BufferRows, p.viewport)
		frame.PadTop = frame.Window.Start * p.cfg.RowHeight
		frame.PadBottom = (len(visible) - frame.Window.End) * p.cfg.RowHeight
	}

	var ph reorder.Placeholder
	var dragging bool
	if p.placeholders != nil {
		ph, dragging = p.placeholders.Placeholder()
	}

	frame.Rows = make([]Row, 0, frame.Window.End-frame.Window.Start)
	for _, vis := range visible[frame.Window.Start:frame.Window.End] {
		key := cache.NewRowKey(vis.player, v.UI.EditUnlocked)
		cached, hit := p.rows.GetOrRender(key, func() Row {
			return p.buildRow(vis.player, v.Items, v.UI.EditUnlocked)
		})
		if hit {
			p.stats.RowHits++
		} else {
			p.stats.RowBuilds++
		}

		row := cached.clone()
		row.Index = vis.index
		for i := range row.Cells {
			row.Cells[i].Repeat = frame.Highlight && row.Cells[i].Count >= RepeatThreshold
		}
		if dragging && ph.Target == vis.index {
			row.Drop = ph.Side
		}
		frame.Rows = append(frame.Rows, row)
	}
	return frame
}

func (p *Pipeline) buildRow(pl model.Player, items []string, editable bool) Row {
	row := Row{
		Player:    pl.Name,
		Active:    pl.Active,
		Label:     p.labels.ActiveLabel(pl.Active),
		Total:     pl.Total(),
		Editable:  editable,
		Draggable: editable,
		Cells:     make([]Cell, len(items)),
	}
	for i, item := range items {
		row.Cells[i] = Cell{Item: item, Count: pl.Count(item)}
	}
	return row
}

// hasRepeat reports whether any visible player holds RepeatThreshold or
// more of some catalog item.
func hasRepeat(visible []indexed, items []string) bool {
	for _, vis := range visible {
		for _, item := range items {
			if vis.player.Count(item) >= RepeatThreshold {
				return true
			}
		}
	}
	return false
}

// HTMLSurface keeps the markup of the last applied frame
type HTMLSurface struct {
	mu      sync.Mutex
	html    string
	applied int
}

// NewHTMLSurface creates an empty HTML surface
func NewHTMLSurface() *HTMLSurface {
	return &HTMLSurface{}
}

// Apply renders f to markup
func (s *HTMLSurface) Apply(ctx context.Context, f Frame) error {
	var buf bytes.Buffer
	if err := FrameComponent(f).Render(ctx, &buf); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.html = buf.String()
	s.applied++
	return nil
}

// HTML returns the current markup
func (s *HTMLSurface) HTML() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.html
}

// Applied returns how many frames were applied
func (s *HTMLSurface) Applied() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applied
}
