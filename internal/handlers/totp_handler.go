package handlers

import (
	"net/http"

	"hoa-backend/internal/models"
	"hoa-backend/internal/services"
	"hoa-backend/pkg/utils"
)

// TOTPHandler manages authenticator-app 2FA. Routes are admin only.
type TOTPHandler struct {
	TOTPService *services.TOTPService
	Users       *services.UserService
}

func NewTOTPHandler(totpService *services.TOTPService, users *services.UserService) *TOTPHandler {
	return &TOTPHandler{TOTPService: totpService, Users: users}
}

// SetupTOTP initiates 2FA setup - returns secret and QR code
func (h *TOTPHandler) SetupTOTP(w http.ResponseWriter, r *http.Request) {
	user, err := h.Users.Profile(r.Context(), actorFrom(r))
	if err != nil {
		respondError(w, err)
		return
	}
	if user.TOTPEnabled {
		utils.RespondErrorWithCode(w, http.StatusConflict, utils.ErrCodeConflict, "2FA is already enabled", nil)
		return
	}

	resp, err := h.TOTPService.GenerateSetup(r.Context(), user)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}

// EnableTOTP verifies the first code and returns the backup codes.
func (h *TOTPHandler) EnableTOTP(w http.ResponseWriter, r *http.Request) {
	var req models.TOTPEnableRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		respondError(w, err)
		return
	}

	resp, err := h.TOTPService.VerifyAndEnable(r.Context(), actorFrom(r).ID, req.Code)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}

// DisableTOTP turns off 2FA after verifying password and code
func (h *TOTPHandler) DisableTOTP(w http.ResponseWriter, r *http.Request) {
	var req models.TOTPDisableRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		respondError(w, err)
		return
	}

	if err := h.TOTPService.Disable(r.Context(), actorFrom(r).ID, req.Password, req.Code); err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "2FA disabled successfully"})
}

func (h *TOTPHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.TOTPService.GetStatus(r.Context(), actorFrom(r).ID)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, status)
}

// RegenerateBackupCodes replaces the backup codes. Requires the password.
func (h *TOTPHandler) RegenerateBackupCodes(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password" validate:"required"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		respondError(w, err)
		return
	}

	resp, err := h.TOTPService.RegenerateBackupCodes(r.Context(), actorFrom(r).ID, req.Password)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}
