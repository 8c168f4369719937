package handlers

import (
	"net/http"
	"strconv"

	"hoa-backend/internal/models"
	"hoa-backend/internal/services"
	"hoa-backend/pkg/utils"
)

type PaymentHandler struct {
	Service  *services.PaymentService
	Receipts *services.ReceiptService
}

func NewPaymentHandler(s *services.PaymentService, receipts *services.ReceiptService) *PaymentHandler {
	return &PaymentHandler{Service: s, Receipts: receipts}
}

// SubmitPayment takes a multipart form: due_id, method, notes and the proof file.
// POST /api/payments
func (h *PaymentHandler) SubmitPayment(w http.ResponseWriter, r *http.Request) {
	if !parseMultipart(w, r) {
		return
	}
	proof, err := readProof(r)
	if err != nil {
		respondError(w, err)
		return
	}
	dueID, _ := strconv.Atoi(r.FormValue("due_id"))
	req := models.SubmitPaymentRequest{
		DueID:  dueID,
		Method: r.FormValue("method"),
		Notes:  r.FormValue("notes"),
	}

	payment, err := h.Service.SubmitPayment(r.Context(), actorFrom(r), req, proof)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, payment)
}

// RecordCashIntent notes that the resident will pay cash at the office.
// POST /api/payments/cash-intent
func (h *PaymentHandler) RecordCashIntent(w http.ResponseWriter, r *http.Request) {
	var req models.CashIntentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	payment, err := h.Service.RecordCashPaymentIntent(r.Context(), actorFrom(r), req)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, payment)
}

// UpdateStatus verifies or rejects a pending payment.
// PUT /api/payments/{id}/status
func (h *PaymentHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req models.DecisionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	payment, err := h.Service.UpdatePaymentStatus(r.Context(), actorFrom(r), id, req)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, payment)
}

// GET /api/payments?status=&due_id=
func (h *PaymentHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	filter := models.PaymentFilter{
		Status: r.URL.Query().Get("status"),
		DueID:  queryInt(r, "due_id"),
	}
	payments, err := h.Service.ListPayments(r.Context(), actorFrom(r), filter)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, payments)
}

func (h *PaymentHandler) GetPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	payment, err := h.Service.GetPayment(r.Context(), actorFrom(r), id)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, payment)
}

// DownloadReceipt renders the PDF receipt of a verified payment.
// GET /api/payments/{id}/receipt
func (h *PaymentHandler) DownloadReceipt(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	pdf, err := h.Receipts.GenerateReceipt(r.Context(), actorFrom(r), id)
	if err != nil {
		respondError(w, err)
		return
	}
	writeFile(w, "application/pdf", services.ReceiptFilename(id), pdf)
}
