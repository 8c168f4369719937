package handlers

import (
	"net/http"

	"hoa-backend/internal/models"
	"hoa-backend/internal/services"
	"hoa-backend/pkg/utils"
)

type SettingHandler struct {
	Service *services.SystemSettingService
}

func NewSettingHandler(s *services.SystemSettingService) *SettingHandler {
	return &SettingHandler{Service: s}
}

// GetSettings returns the public settings; admins also see the rest.
func (h *SettingHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.Service.GetAppSettings(r.Context(), actorFrom(r))
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, settings)
}

func (h *SettingHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateSettingsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.Service.UpdateAppSettings(r.Context(), actorFrom(r), req); err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Settings updated"})
}
