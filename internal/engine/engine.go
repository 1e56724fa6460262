// Package engine wires the client-side roster components into one
// constructible context: state store, caches, fairness, search, reorder,
// render pipeline and the sync reconciler. Every user-facing operation
// goes through an Engine and reports failures as notices.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mcoot/rewardroster/internal/cache"
	"github.com/mcoot/rewardroster/internal/dependencies/clock"
	"github.com/mcoot/rewardroster/internal/fairness"
	"github.com/mcoot/rewardroster/internal/insights"
	"github.com/mcoot/rewardroster/internal/model"
	"github.com/mcoot/rewardroster/internal/msgcat"
	"github.com/mcoot/rewardroster/internal/reconcile"
	"github.com/mcoot/rewardroster/internal/render"
	"github.com/mcoot/rewardroster/internal/reorder"
	"github.com/mcoot/rewardroster/internal/search"
	"github.com/mcoot/rewardroster/internal/state"
)

// Engine is one client's view of the shared roster
type Engine struct {
	cfg     Config
	logger  *slog.Logger
	catalog *msgcat.Catalog

	caches    *cache.Layer
	rows      *cache.RenderCache[render.Row]
	store     *state.Store
	suggester *fairness.Suggester
	insights  *insights.Service
	index     *search.Index
	debouncer *search.Debouncer
	reorder   *reorder.Controller
	pipeline  *render.Pipeline
	sync      *reconcile.Reconciler

	mu       sync.Mutex
	onNotice func(Notice)
}

// New builds an engine syncing over ch and drawing onto surface. A nil
// surface keeps frames in memory only.
func New(ch reconcile.Channel, surface render.Surface, clk clock.Clock, cfg Config, logger *slog.Logger) (*Engine, error) {
	catalog, err := msgcat.New(cfg.MessagesPath)
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}
	if surface == nil {
		surface = render.NewHTMLSurface()
	}

	e := &Engine{
		cfg:     cfg,
		logger:  logger.With(slog.String("component", "engine")),
		catalog: catalog,
	}
	e.caches = cache.NewLayer(clk, cfg.Cache, logger)
	e.rows = cache.NewRenderCache[render.Row](clk, e.caches.Config())
	e.caches.Register(e.rows)

	e.store = state.New(nil, e.caches, clk, logger)
	e.suggester = fairness.NewSuggester(e.caches.Computed)
	e.insights = insights.New(e.caches.Computed)
	e.index = search.New(catalog)
	e.debouncer = search.NewDebouncer(clk, cfg.Debounce)
	e.reorder = reorder.New(lockedMover{e}, logger)

	e.pipeline = render.New(cfg.Render, e.rows, catalog, surface, logger)
	e.pipeline.SetPlaceholderSource(e.reorder)

	e.sync = reconcile.New(e.store, ch, clk, cfg.Reconcile, reconcile.Hooks{
		OnStatus:  e.onStatus,
		OnPush:    e.onPush,
		OnInbound: e.onInbound,
	}, logger)

	e.store.Subscribe(func(c state.Change) {
		e.draw(render.ViewOf(c.Snapshot))
	})
	return e, nil
}

// OnNotice registers the notice sink. Notices raised before a sink is
// registered are only logged.
func (e *Engine) OnNotice(fn func(Notice)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onNotice = fn
}

// Run connects, keeps the connection alive and sweeps caches until ctx
// is cancelled
func (e *Engine) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		e.caches.Run(ctx)
	}()
	err := e.sync.Run(ctx)
	e.debouncer.Cancel()
	wg.Wait()
	return err
}

// Flush waits until queued pushes have been attempted
func (e *Engine) Flush(ctx context.Context) error {
	return e.sync.Flush(ctx)
}

// Connected reports whether local changes can be saved
func (e *Engine) Connected() bool {
	return e.sync.Connected()
}

// Origin returns the tag this client's writes carry
func (e *Engine) Origin() string {
	return e.sync.Origin()
}

// Snapshot returns a copy of the local state
func (e *Engine) Snapshot() *model.Snapshot {
	return e.store.Snapshot()
}

// Catalog returns the message catalog
func (e *Engine) Catalog() *msgcat.Catalog {
	return e.catalog
}

func (e *Engine) emit(n Notice) {
	attrs := []any{slog.String("key", n.Key), slog.String("text", n.Text)}
	switch n.Level {
	case LevelError:
		e.logger.Error("notice", attrs...)
	case LevelWarn:
		e.logger.Warn("notice", attrs...)
	default:
		e.logger.Info("notice", attrs...)
	}

	e.mu.Lock()
	fn := e.onNotice
	e.mu.Unlock()
	if fn != nil {
		fn(n)
	}
}

// fail reports err as a notice and returns it
func (e *Engine) fail(err error, target string) error {
	if err != nil {
		e.emit(noticeFor(e.catalog, err, target))
	}
	return err
}

func (e *Engine) onStatus(s reconcile.Status) {
	if s.Connected {
		e.emit(info(e.catalog, NoticeConnected, nil))
		return
	}
	n := info(e.catalog, NoticeDisconnected, nil)
	n.Level = LevelWarn
	n.Err = s.Err
	e.emit(n)
}

func (e *Engine) onPush(r reconcile.PushResult) {
	if r.Err == nil {
		return
	}
	e.emit(Notice{
		Level: LevelError,
		Key:   NoticePushFailed,
		Text:  e.catalog.Text(NoticePushFailed, map[string]any{"Reason": r.Err.Error()}),
		Err:   r.Err,
	})
}

func (e *Engine) onInbound(_ model.Event, err error) {
	if err != nil && errors.Is(err, model.ErrMalformedSnapshot) {
		e.emit(noticeFor(e.catalog, err, ""))
	}
}

// draw renders v. Render failures are cosmetic and never undo the change
// that triggered them.
func (e *Engine) draw(v render.View) {
	if _, err := e.pipeline.Render(context.Background(), v); err != nil {
		e.logger.Warn("render failed", slog.String("error", err.Error()))
	}
}

// Redraw forces a full render of the current state
func (e *Engine) Redraw() {
	e.pipeline.Invalidate()
	e.draw(render.ViewOf(e.store.Snapshot()))
}

// Frame returns the last rendered frame
func (e *Engine) Frame() render.Frame {
	return e.pipeline.Last()
}

// RenderStats returns the render pipeline's work counters
func (e *Engine) RenderStats() render.Stats {
	return e.pipeline.Stats()
}

// Scroll moves the viewport and redraws the visible window
func (e *Engine) Scroll(vp render.Viewport) {
	e.pipeline.Scroll(vp)
	e.draw(render.ViewOf(e.store.Snapshot()))
}
