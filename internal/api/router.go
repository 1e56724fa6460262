package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/rewardroster/internal/api/handler"
	"github.com/mcoot/rewardroster/internal/api/middleware"
	"github.com/mcoot/rewardroster/internal/api/request"
	"github.com/mcoot/rewardroster/internal/services/roster"
	"github.com/mcoot/rewardroster/internal/web/sse"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger  *slog.Logger
	Service *roster.Service
	Hub     *sse.Hub
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	stateHandler := handler.NewStateHandler(cfg.Service)
	playerHandler := handler.NewPlayerHandler(cfg.Service)
	historyHandler := handler.NewHistoryHandler(cfg.Service)
	healthHandler := handler.NewHealthHandler(cfg.Service, cfg.Logger)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.Recovery(cfg.Logger))
	api.Use(middleware.Logging(cfg.Logger))

	api.HandleFunc("/state", stateHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/state", stateHandler.Replace).Methods(http.MethodPut)

	api.HandleFunc("/players", playerHandler.Add).Methods(http.MethodPost)
	api.HandleFunc("/players/{name}", playerHandler.Update).Methods(http.MethodPatch)
	api.HandleFunc("/players/{name}", playerHandler.Remove).Methods(http.MethodDelete)

	api.HandleFunc("/history/{id}", historyHandler.Delete).Methods(http.MethodDelete)

	api.HandleFunc("/events", func(w http.ResponseWriter, r *http.Request) {
		sse.ServeSSE(w, r, cfg.Hub, r.Header.Get(request.OriginHeader))
	}).Methods(http.MethodGet)

	api.HandleFunc("/health", healthHandler.Get).Methods(http.MethodGet)

	return r
}
