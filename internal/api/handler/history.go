package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/rewardroster/internal/api/request"
	"github.com/mcoot/rewardroster/internal/api/response"
	"github.com/mcoot/rewardroster/internal/services/roster"
)

// HistoryHandler handles history deletion
type HistoryHandler struct {
	service *roster.Service
}

// NewHistoryHandler creates a new history handler
func NewHistoryHandler(service *roster.Service) *HistoryHandler {
	return &HistoryHandler{service: service}
}

// Delete handles DELETE /api/v1/history/{id}
func (h *HistoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.service.DeleteHistory(r.Context(), r.Header.Get(request.OriginHeader), id); err != nil {
		WriteError(w, err)
		return
	}
	response.NoContent(w)
}
