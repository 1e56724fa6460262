package web

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/rewardroster/internal/dependencies/clock"
	"github.com/mcoot/rewardroster/internal/msgcat"
	"github.com/mcoot/rewardroster/internal/services/roster"
	"github.com/mcoot/rewardroster/internal/web/handler"
	"github.com/mcoot/rewardroster/internal/web/middleware"
)

// RouterConfig holds configuration for the web router
type RouterConfig struct {
	Logger  *slog.Logger
	Service *roster.Service
	Clock   clock.Clock
	// Catalog supplies labels. Nil uses the embedded messages.
	Catalog *msgcat.Catalog
}

// NewRouter creates a new web router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))

	catalog := cfg.Catalog
	if catalog == nil {
		catalog = msgcat.Default()
	}
	clk := cfg.Clock
	if clk == nil {
		clk = clock.New()
	}

	rosterHandler := handler.NewRosterHandler(cfg.Service, catalog, clk, cfg.Logger)
	r.HandleFunc("/", rosterHandler.Page).Methods(http.MethodGet)

	return r
}
