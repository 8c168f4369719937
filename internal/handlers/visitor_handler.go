package handlers

import (
	"net/http"

	"hoa-backend/internal/models"
	"hoa-backend/internal/services"
	"hoa-backend/pkg/utils"

	"github.com/gorilla/mux"
)

// VisitorHandler serves resident guest passes and the gate desk.
type VisitorHandler struct {
	Service *services.VisitorService
}

func NewVisitorHandler(s *services.VisitorService) *VisitorHandler {
	return &VisitorHandler{Service: s}
}

func visitorFilter(r *http.Request) models.VisitorFilter {
	return models.VisitorFilter{
		Status: r.URL.Query().Get("status"),
		Date:   r.URL.Query().Get("date"),
	}
}

func (h *VisitorHandler) CreatePass(w http.ResponseWriter, r *http.Request) {
	var req models.CreateVisitorRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	v, err := h.Service.CreateVisitorPass(r.Context(), actorFrom(r), req)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, v)
}

func (h *VisitorHandler) GetMyVisitors(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.GetVisitorsForUser(r.Context(), actorFrom(r), visitorFilter(r))
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, list)
}

func (h *VisitorHandler) GetAllVisitors(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.GetAllVisitors(r.Context(), actorFrom(r), visitorFilter(r))
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, list)
}

// LookupPass finds a pass by the code the guest shows at the gate.
// GET /api/visitors/pass/{code}
func (h *VisitorHandler) LookupPass(w http.ResponseWriter, r *http.Request) {
	v, err := h.Service.LookupPass(r.Context(), actorFrom(r), mux.Vars(r)["code"])
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, v)
}

// PUT /api/visitors/{id}/status
func (h *VisitorHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req models.UpdateVisitorStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	v, err := h.Service.UpdateVisitorStatus(r.Context(), actorFrom(r), id, req)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, v)
}
