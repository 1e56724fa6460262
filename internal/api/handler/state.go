package handler

import (
	"encoding/json"
	"net/http"

	"github.com/mcoot/rewardroster/internal/api/request"
	"github.com/mcoot/rewardroster/internal/api/response"
	"github.com/mcoot/rewardroster/internal/model"
	"github.com/mcoot/rewardroster/internal/services/roster"
)

// StateHandler serves the full shared snapshot
type StateHandler struct {
	service *roster.Service
}

// NewStateHandler creates a new state handler
func NewStateHandler(service *roster.Service) *StateHandler {
	return &StateHandler{service: service}
}

// Get handles GET /api/v1/state
func (h *StateHandler) Get(w http.ResponseWriter, r *http.Request) {
	snap, err := h.service.State(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, snap)
}

// Replace handles PUT /api/v1/state
func (h *StateHandler) Replace(w http.ResponseWriter, r *http.Request) {
	var snap model.Snapshot
	if err := json.NewDecoder(r.Body).Decode(&snap); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	rev, err := h.service.ReplaceState(r.Context(), r.Header.Get(request.OriginHeader), &snap)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.Revision{Revision: rev})
}
