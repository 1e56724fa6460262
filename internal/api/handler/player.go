package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/rewardroster/internal/api/request"
	"github.com/mcoot/rewardroster/internal/api/response"
	"github.com/mcoot/rewardroster/internal/model"
	"github.com/mcoot/rewardroster/internal/services/roster"
)

// PlayerHandler handles single-player writes
type PlayerHandler struct {
	service *roster.Service
}

// NewPlayerHandler creates a new player handler
func NewPlayerHandler(service *roster.Service) *PlayerHandler {
	return &PlayerHandler{service: service}
}

// Add handles POST /api/v1/players
func (h *PlayerHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req request.AddPlayerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	p, err := h.service.AddPlayer(r.Context(), r.Header.Get(request.OriginHeader), req.Name)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, p)
}

// Update handles PATCH /api/v1/players/{name}
func (h *PlayerHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req request.UpdatePlayerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}
	for item, n := range req.Counts {
		if n < 0 {
			WriteError(w, NewInvalidRequestError("count for "+item+" must not be negative"))
			return
		}
	}

	patch := model.PlayerPatch{
		Name:   mux.Vars(r)["name"],
		Active: req.Active,
		Counts: req.Counts,
	}
	p, err := h.service.UpdatePlayer(r.Context(), r.Header.Get(request.OriginHeader), patch)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, p)
}

// Remove handles DELETE /api/v1/players/{name}
func (h *PlayerHandler) Remove(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if err := h.service.RemovePlayer(r.Context(), r.Header.Get(request.OriginHeader), name); err != nil {
		WriteError(w, err)
		return
	}
	response.NoContent(w)
}
