package services

import (
	"context"

	"hoa-backend/internal/cache"
	"hoa-backend/internal/metrics"
	"hoa-backend/internal/models"
	"hoa-backend/internal/notify"
	"hoa-backend/pkg/utils"

	"github.com/sirupsen/logrus"
)

// ContributionService handles resident contributions toward projects. It
// shares the verify/reject rules with payments through models.Verifiable.
type ContributionService struct {
	contributions ContributionStore
	projects      ProjectStore
	proofs        *ProofService
	audit         AuditLogger
	hub           notify.Publisher
	cache         *cache.Cache
	now           clock
}

func NewContributionService(
	contributions ContributionStore,
	projects ProjectStore,
	proofs *ProofService,
	audit AuditLogger,
	hub notify.Publisher,
	c *cache.Cache,
) *ContributionService {
	return &ContributionService{
		contributions: contributions,
		projects:      projects,
		proofs:        proofs,
		audit:         audit,
		hub:           hub,
		cache:         c,
		now:           defaultClock(nil),
	}
}

// CreateContribution records a pending contribution. Cash pledges need no proof.
func (s *ContributionService) CreateContribution(ctx context.Context, actor models.Actor, req models.ContributionRequest, proof *Proof) (*models.Contribution, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}
	amount, err := parseAmount("amount", req.Amount)
	if err != nil {
		return nil, err
	}
	if models.RequiresProof(req.Method) {
		if _, _, err := s.proofs.Check(proof); err != nil {
			return nil, err
		}
	}

	project, err := s.projects.Get(ctx, req.ProjectID)
	if err != nil {
		return nil, err
	}
	if project.Status == models.ProjectStatusCompleted {
		return nil, utils.NewValidationError("project_id", "Project is already completed")
	}

	var stored *StoredProof
	if models.RequiresProof(req.Method) {
		if stored, err = s.proofs.Store(ctx, "contributions", proof); err != nil {
			return nil, err
		}
	}

	c := &models.Contribution{
		ProjectID:     project.ID,
		ProjectName:   project.Name,
		ContributorID: actor.ID,
		Amount:        amount,
		Method:        req.Method,
		Verification:  models.Verification{Status: models.VerificationPending, Notes: req.Notes},
	}
	if stored != nil {
		c.ProofKey = stored.Key
		c.ProofThumbKey = stored.ThumbKey
	}
	if err := s.contributions.Create(ctx, c); err != nil {
		s.proofs.Discard(ctx, stored)
		return nil, err
	}

	metrics.PaymentsSubmitted.WithLabelValues("contribution", c.Method).Inc()
	utils.Logger.WithFields(logrus.Fields{
		"contribution_id": c.ID,
		"project_id":      project.ID,
		"contributor_id":  actor.ID,
		"amount":          amount.String(),
	}).Info("contribution submitted")
	publish(s.hub, notify.EventContributionSubmitted, map[string]any{
		"contribution_id": c.ID,
		"project_id":      project.ID,
		"project":         project.Name,
		"amount":          models.FormatMoney(amount),
		"contributor":     actor.Name,
	})
	return c, nil
}

// CreateManualContribution records a contribution an admin received in person.
// It is stored as verified and credited to the project immediately.
func (s *ContributionService) CreateManualContribution(ctx context.Context, actor models.Actor, req models.ManualContributionRequest) (*models.Contribution, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	amount, err := parseAmount("amount", req.Amount)
	if err != nil {
		return nil, err
	}
	project, err := s.projects.Get(ctx, req.ProjectID)
	if err != nil {
		return nil, err
	}

	method := req.Method
	if method == "" {
		method = models.PaymentMethodCash
	}
	now := s.now()
	verifier := actor.ID
	c := &models.Contribution{
		ProjectID:     project.ID,
		ProjectName:   project.Name,
		ContributorID: req.ContributorID,
		Amount:        amount,
		Method:        method,
		Verification: models.Verification{
			Status:     models.VerificationVerified,
			Notes:      req.Notes,
			VerifiedBy: &verifier,
			VerifiedAt: &now,
		},
	}
	if err := s.contributions.CreateVerified(ctx, c); err != nil {
		return nil, err
	}

	audit(ctx, s.audit, actor, models.ActionManualContrib, "project", project.ID,
		"Recorded "+models.FormatMoney(amount)+" contribution to "+project.Name)
	invalidateFinance(ctx, s.cache)
	return c, nil
}

// UpdateContributionStatus verifies or rejects a pending contribution.
func (s *ContributionService) UpdateContributionStatus(ctx context.Context, actor models.Actor, id int, req models.DecisionRequest) (*models.Contribution, error) {
	if err := models.ValidateDecision(req.Status, req.Notes); err != nil {
		return nil, err
	}
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	c, err := s.contributions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.RowVersion != req.ExpectedVersion {
		countConflict("contribution", utils.ErrRowVersionConflict)
		return nil, utils.ErrRowVersionConflict
	}
	if err := models.Decide(c, req.Status, req.Notes, actor.ID, s.now()); err != nil {
		return nil, err
	}
	if err := s.contributions.SaveDecision(ctx, c, req.ExpectedVersion); err != nil {
		countConflict("contribution", err)
		return nil, err
	}

	metrics.VerificationDecisions.WithLabelValues("contribution", c.Status).Inc()
	audit(ctx, s.audit, actor, models.ActionContribDecision, "contribution", c.ID,
		"Contribution "+c.Status+" ("+models.FormatMoney(c.Amount)+")")
	invalidateFinance(ctx, s.cache)
	return c, nil
}

// ListContributions returns contributions of a project (0 = all projects).
// Residents only see their own.
func (s *ContributionService) ListContributions(ctx context.Context, actor models.Actor, projectID int) ([]*models.Contribution, error) {
	list, err := s.contributions.List(ctx, projectID)
	if err != nil {
		return nil, err
	}
	out := list[:0]
	for _, c := range list {
		if !actor.IsAdmin() && c.ContributorID != actor.ID {
			continue
		}
		c.ProofURL = s.proofs.URL(ctx, c.ProofKey)
		out = append(out, c)
	}
	return out, nil
}
