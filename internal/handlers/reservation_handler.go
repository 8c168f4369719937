package handlers

import (
	"net/http"

	"hoa-backend/internal/models"
	"hoa-backend/internal/services"
	"hoa-backend/pkg/utils"
)

type ReservationHandler struct {
	Service *services.ReservationService
}

func NewReservationHandler(s *services.ReservationService) *ReservationHandler {
	return &ReservationHandler{Service: s}
}

func reservationFilter(r *http.Request) models.ReservationFilter {
	return models.ReservationFilter{
		Status:  r.URL.Query().Get("status"),
		Amenity: r.URL.Query().Get("amenity"),
	}
}

// POST /api/reservations
func (h *ReservationHandler) CreateReservation(w http.ResponseWriter, r *http.Request) {
	var req models.CreateReservationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.Service.CreateReservation(r.Context(), actorFrom(r), req)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, res)
}

// GET /api/reservations/mine
func (h *ReservationHandler) GetMyReservations(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.GetReservationsForUser(r.Context(), actorFrom(r), reservationFilter(r))
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, list)
}

// GET /api/reservations
func (h *ReservationHandler) GetAllReservations(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.GetAllReservations(r.Context(), actorFrom(r), reservationFilter(r))
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, list)
}

// UpdateStatus approves, denies or completes a reservation. A stale
// expected_version answers 409.
// PUT /api/reservations/{id}/status
func (h *ReservationHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req models.UpdateReservationStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.Service.UpdateReservationStatus(r.Context(), actorFrom(r), id, req)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, res)
}
