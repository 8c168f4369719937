package handlers

import (
	"net/http"
	"strconv"

	"hoa-backend/internal/models"
	"hoa-backend/internal/services"
	"hoa-backend/pkg/utils"
)

type ContributionHandler struct {
	Service *services.ContributionService
}

func NewContributionHandler(s *services.ContributionService) *ContributionHandler {
	return &ContributionHandler{Service: s}
}

// CreateContribution takes a multipart form like SubmitPayment.
// POST /api/contributions
func (h *ContributionHandler) CreateContribution(w http.ResponseWriter, r *http.Request) {
	if !parseMultipart(w, r) {
		return
	}
	proof, err := readProof(r)
	if err != nil {
		respondError(w, err)
		return
	}
	projectID, _ := strconv.Atoi(r.FormValue("project_id"))
	req := models.ContributionRequest{
		ProjectID: projectID,
		Amount:    r.FormValue("amount"),
		Method:    r.FormValue("method"),
		Notes:     r.FormValue("notes"),
	}

	c, err := h.Service.CreateContribution(r.Context(), actorFrom(r), req, proof)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, c)
}

// CreateManual records a contribution received by an admin.
// POST /api/contributions/manual
func (h *ContributionHandler) CreateManual(w http.ResponseWriter, r *http.Request) {
	var req models.ManualContributionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	c, err := h.Service.CreateManualContribution(r.Context(), actorFrom(r), req)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, c)
}

// PUT /api/contributions/{id}/status
func (h *ContributionHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req models.DecisionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	c, err := h.Service.UpdateContributionStatus(r.Context(), actorFrom(r), id, req)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, c)
}

// ListContributions filters by ?project_id=; residents see only their own.
// GET /api/contributions
func (h *ContributionHandler) ListContributions(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.ListContributions(r.Context(), actorFrom(r), queryInt(r, "project_id"))
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, list)
}
