package handlers

import (
	"net/http"

	"hoa-backend/internal/models"
	"hoa-backend/internal/services"
	"hoa-backend/pkg/utils"
)

type DueHandler struct {
	Service *services.DueService
}

func NewDueHandler(s *services.DueService) *DueHandler {
	return &DueHandler{Service: s}
}

func dueFilter(r *http.Request) models.DueFilter {
	q := r.URL.Query()
	return models.DueFilter{
		Status:  q.Get("status"),
		Period:  q.Get("period"),
		OwnerID: queryInt(r, "owner_id"),
	}
}

// GetMyDues lists the signed-in resident's dues with their display status.
// GET /api/dues/mine
func (h *DueHandler) GetMyDues(w http.ResponseWriter, r *http.Request) {
	dues, err := h.Service.GetDuesForUser(r.Context(), actorFrom(r), dueFilter(r))
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dues)
}

// GetAllDues lists every due. Admin and staff.
// GET /api/dues
func (h *DueHandler) GetAllDues(w http.ResponseWriter, r *http.Request) {
	dues, err := h.Service.GetAllDues(r.Context(), actorFrom(r), dueFilter(r))
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dues)
}

// GET /api/dues/{id}
func (h *DueHandler) GetDue(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	due, err := h.Service.GetDue(r.Context(), actorFrom(r), id)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, due)
}

// RecordCashPayment settles a due with cash received at the office.
// POST /api/dues/{id}/cash
func (h *DueHandler) RecordCashPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req models.CashSettlementRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.DueID = id

	due, err := h.Service.RecordAdminCashPayment(r.Context(), actorFrom(r), req)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, due)
}

// GenerateDues creates one due per active homeowner for a period.
// POST /api/dues/generate
func (h *DueHandler) GenerateDues(w http.ResponseWriter, r *http.Request) {
	var req models.GenerateDuesRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	created, err := h.Service.GenerateDues(r.Context(), actorFrom(r), req)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]any{"period": req.Period, "created": created})
}
