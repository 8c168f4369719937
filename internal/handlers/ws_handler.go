package handlers

import (
	"net/http"

	"hoa-backend/internal/notify"
	"hoa-backend/pkg/utils"
)

// WSHandler upgrades staff and admin sessions to the live event stream.
type WSHandler struct {
	Hub *notify.Hub
}

func NewWSHandler(hub *notify.Hub) *WSHandler {
	return &WSHandler{Hub: hub}
}

// GET /ws?token=
func (h *WSHandler) Connect(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)
	if !actor.IsStaff() {
		respondError(w, utils.ErrForbidden)
		return
	}
	h.Hub.Serve(w, r, actor.ID, actor.Role)
}
