package handler

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/rewardroster/internal/api/response"
	"github.com/mcoot/rewardroster/internal/services/roster"
)

// HealthHandler reports server and storage status
type HealthHandler struct {
	service *roster.Service
	logger  *slog.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(service *roster.Service, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{service: service, logger: logger}
}

// Get handles GET /api/v1/health
func (h *HealthHandler) Get(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Ping(r.Context()); err != nil {
		h.logger.Error("storage ping failed", slog.String("error", err.Error()))
		response.JSON(w, http.StatusServiceUnavailable, response.Health{Status: response.StatusDegraded, Storage: "unreachable"})
		return
	}
	response.JSON(w, http.StatusOK, response.Health{Status: response.StatusOK, Storage: "ok"})
}
