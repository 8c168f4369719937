package handlers

import (
	"context"
	"net/http"

	"hoa-backend/internal/models"
	"hoa-backend/pkg/utils"
)

const defaultLogLimit = 200

type ActionLogLister interface {
	ListActionLogs(ctx context.Context, limit int) ([]*models.AdminActionLog, error)
}

type LoginLogLister interface {
	ListLoginLogs(ctx context.Context, limit int) ([]*models.LoginLog, error)
}

// AuditLogHandler exposes the admin action trail and login history.
// Routes are admin only.
type AuditLogHandler struct {
	Actions ActionLogLister
	Logins  LoginLogLister
}

func NewAuditLogHandler(actions ActionLogLister, logins LoginLogLister) *AuditLogHandler {
	return &AuditLogHandler{Actions: actions, Logins: logins}
}

func logLimit(r *http.Request) int {
	n := queryInt(r, "limit")
	if n <= 0 || n > 1000 {
		return defaultLogLimit
	}
	return n
}

// GET /api/admin/action-logs?limit=
func (h *AuditLogHandler) ListActionLogs(w http.ResponseWriter, r *http.Request) {
	logs, err := h.Actions.ListActionLogs(r.Context(), logLimit(r))
	if err != nil {
		respondError(w, err)
		return
	}
	if logs == nil {
		logs = []*models.AdminActionLog{}
	}
	utils.RespondWithJSON(w, http.StatusOK, logs)
}

// GET /api/admin/login-logs?limit=
func (h *AuditLogHandler) ListLoginLogs(w http.ResponseWriter, r *http.Request) {
	logs, err := h.Logins.ListLoginLogs(r.Context(), logLimit(r))
	if err != nil {
		respondError(w, err)
		return
	}
	if logs == nil {
		logs = []*models.LoginLog{}
	}
	utils.RespondWithJSON(w, http.StatusOK, logs)
}
