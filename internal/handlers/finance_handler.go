package handlers

import (
	"net/http"
	"time"

	"hoa-backend/internal/models"
	"hoa-backend/internal/services"
	"hoa-backend/pkg/utils"
)

type FinanceHandler struct {
	Service *services.FinanceService
}

func NewFinanceHandler(s *services.FinanceService) *FinanceHandler {
	return &FinanceHandler{Service: s}
}

// GetFinancialData returns revenue, expenses, receivables and cash position.
func (h *FinanceHandler) GetFinancialData(w http.ResponseWriter, r *http.Request) {
	data, err := h.Service.GetFinancialData(r.Context(), actorFrom(r))
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, data)
}

func (h *FinanceHandler) CreateExpense(w http.ResponseWriter, r *http.Request) {
	var req models.CreateExpenseRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	exp, err := h.Service.CreateExpense(r.Context(), actorFrom(r), req)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, exp)
}

func (h *FinanceHandler) ListExpenses(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.ListExpenses(r.Context(), actorFrom(r))
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, list)
}

// ExportReceivables downloads the open dues as an Excel workbook.
// GET /api/finance/receivables.xlsx
func (h *FinanceHandler) ExportReceivables(w http.ResponseWriter, r *http.Request) {
	data, err := h.Service.ExportReceivables(r.Context(), actorFrom(r))
	if err != nil {
		respondError(w, err)
		return
	}
	filename := "receivables-" + time.Now().Format("2006-01-02") + ".xlsx"
	writeFile(w, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", filename, data)
}
