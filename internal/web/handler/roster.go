package handler

import (
	"context"
	"log/slog"
	"math"
	"net/http"

	"github.com/mcoot/rewardroster/internal/cache"
	"github.com/mcoot/rewardroster/internal/dependencies/clock"
	"github.com/mcoot/rewardroster/internal/fairness"
	"github.com/mcoot/rewardroster/internal/model"
	"github.com/mcoot/rewardroster/internal/msgcat"
	"github.com/mcoot/rewardroster/internal/render"
	"github.com/mcoot/rewardroster/internal/services/roster"
	"github.com/mcoot/rewardroster/internal/web/templates/pages"
)

// RosterHandler serves a read-only view of the shared roster
type RosterHandler struct {
	service *roster.Service
	catalog *msgcat.Catalog
	rows    *cache.RenderCache[render.Row]
	logger  *slog.Logger
}

// NewRosterHandler creates a new RosterHandler. Row markup is cached
// across requests.
func NewRosterHandler(service *roster.Service, catalog *msgcat.Catalog, clk clock.Clock, logger *slog.Logger) *RosterHandler {
	return &RosterHandler{
		service: service,
		catalog: catalog,
		rows:    cache.NewRenderCache[render.Row](clk, cache.DefaultConfig()),
		logger:  logger.With(slog.String("component", "web")),
	}
}

// Page renders the roster table. The q parameter filters rows the same
// way the client search box does.
func (h *RosterHandler) Page(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	snap, err := h.service.State(r.Context())
	if err != nil {
		h.logger.Error("load roster failed", slog.String("error", err.Error()))
		w.WriteHeader(http.StatusInternalServerError)
		_ = pages.Error("The roster could not be loaded").Render(r.Context(), w)
		return
	}
	snap.UI.SearchQuery = r.URL.Query().Get("q")

	// one pipeline per request; the row cache is what is shared
	var frame frameSurface
	pipeline := render.New(render.Config{VirtualizeThreshold: math.MaxInt}, h.rows, h.catalog, &frame, h.logger)
	if _, err := pipeline.Render(r.Context(), render.ViewOf(snap)); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		_ = pages.Error("The roster could not be rendered").Render(r.Context(), w)
		return
	}

	if err := pages.Roster(snap.Revision, suggestions(h.catalog, snap), frame.last).Render(r.Context(), w); err != nil {
		h.logger.Warn("write page failed", slog.String("error", err.Error()))
	}
}

// frameSurface keeps the frame of a single render pass
type frameSurface struct {
	last render.Frame
}

func (s *frameSurface) Apply(_ context.Context, f render.Frame) error {
	s.last = f
	return nil
}

// suggestions lists the next recipient of every item
func suggestions(cat *msgcat.Catalog, snap *model.Snapshot) []pages.Suggestion {
	pool := fairness.ActivePlayers(snap.Players)
	out := make([]pages.Suggestion, 0, len(snap.Items))
	for _, item := range snap.Items {
		text := cat.Text(msgcat.LabelNoSuggestion, map[string]any{"Item": item})
		if p, ok := fairness.Suggest(item, pool); ok {
			text = cat.Text(msgcat.LabelSuggestion, map[string]any{"Item": item, "Player": p.Name})
		}
		out = append(out, pages.Suggestion{Item: item, Text: text})
	}
	return out
}
