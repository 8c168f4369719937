package handlers

import (
	"net/http"

	"hoa-backend/internal/models"
	"hoa-backend/internal/services"
	"hoa-backend/pkg/utils"
)

// CheckoutHandler drives Razorpay card checkout for a single due.
type CheckoutHandler struct {
	Service *services.CheckoutService
}

func NewCheckoutHandler(s *services.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{Service: s}
}

// Status tells the client whether card checkout is on and which key to load.
// GET /api/checkout/status
func (h *CheckoutHandler) Status(w http.ResponseWriter, r *http.Request) {
	utils.RespondWithJSON(w, http.StatusOK, h.Service.Status(r.Context()))
}

// POST /api/checkout/order
func (h *CheckoutHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req models.CreateOrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	order, err := h.Service.CreateOrder(r.Context(), actorFrom(r), req)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, order)
}

// Verify checks the checkout signature and settles the due.
// POST /api/checkout/verify
func (h *CheckoutHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req models.VerifyCheckoutRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	payment, err := h.Service.VerifyCheckout(r.Context(), actorFrom(r), req)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, payment)
}
