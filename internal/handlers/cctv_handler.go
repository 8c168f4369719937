package handlers

import (
	"net/http"

	"hoa-backend/internal/models"
	"hoa-backend/internal/services"
	"hoa-backend/pkg/utils"
)

type CCTVHandler struct {
	Service *services.CCTVService
}

func NewCCTVHandler(s *services.CCTVService) *CCTVHandler {
	return &CCTVHandler{Service: s}
}

func (h *CCTVHandler) ListCameras(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.GetCCTVList(r.Context(), actorFrom(r))
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, list)
}

func (h *CCTVHandler) CreateCamera(w http.ResponseWriter, r *http.Request) {
	var req models.CameraRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	cam, err := h.Service.CreateCCTV(r.Context(), actorFrom(r), req)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, cam)
}

func (h *CCTVHandler) UpdateCamera(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req models.CameraRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	cam, err := h.Service.UpdateCCTV(r.Context(), actorFrom(r), id, req)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, cam)
}

func (h *CCTVHandler) DeleteCamera(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.Service.DeleteCCTV(r.Context(), actorFrom(r), id); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
