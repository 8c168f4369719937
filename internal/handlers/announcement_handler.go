package handlers

import (
	"net/http"

	"hoa-backend/internal/models"
	"hoa-backend/internal/services"
	"hoa-backend/pkg/utils"
)

type AnnouncementHandler struct {
	Service *services.AnnouncementService
}

func NewAnnouncementHandler(s *services.AnnouncementService) *AnnouncementHandler {
	return &AnnouncementHandler{Service: s}
}

// ListAnnouncements returns pinned announcements first, newest first.
func (h *AnnouncementHandler) ListAnnouncements(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.GetAnnouncements(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, list)
}

func (h *AnnouncementHandler) CreateAnnouncement(w http.ResponseWriter, r *http.Request) {
	var req models.CreateAnnouncementRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	a, err := h.Service.CreateAnnouncement(r.Context(), actorFrom(r), req)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, a)
}

func (h *AnnouncementHandler) DeleteAnnouncement(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.Service.DeleteAnnouncement(r.Context(), actorFrom(r), id); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
