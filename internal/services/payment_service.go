package services

import (
	"context"
	"errors"

	"hoa-backend/internal/cache"
	"hoa-backend/internal/metrics"
	"hoa-backend/internal/models"
	"hoa-backend/internal/notify"
	"hoa-backend/pkg/utils"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type PaymentService struct {
	dues     DueStore
	payments PaymentStore
	proofs   *ProofService
	audit    AuditLogger
	hub      notify.Publisher
	cache    *cache.Cache
	now      clock
}

func NewPaymentService(
	dues DueStore,
	payments PaymentStore,
	proofs *ProofService,
	audit AuditLogger,
	hub notify.Publisher,
	c *cache.Cache,
) *PaymentService {
	return &PaymentService{
		dues:     dues,
		payments: payments,
		proofs:   proofs,
		audit:    audit,
		hub:      hub,
		cache:    c,
		now:      defaultClock(nil),
	}
}

// SubmitPayment records a resident's claim of payment for a due. Non-cash
// methods need a proof image; the proof is checked before anything is read
// or written.
func (s *PaymentService) SubmitPayment(ctx context.Context, actor models.Actor, req models.SubmitPaymentRequest, proof *Proof) (*models.Payment, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}
	if models.RequiresProof(req.Method) {
		if _, _, err := s.proofs.Check(proof); err != nil {
			return nil, err
		}
	}

	due, err := s.payableDue(ctx, actor, req.DueID)
	if err != nil {
		return nil, err
	}

	var stored *StoredProof
	if models.RequiresProof(req.Method) {
		stored, err = s.proofs.Store(ctx, "payments", proof)
		if err != nil {
			return nil, err
		}
	}

	payment := &models.Payment{
		DueID:        due.ID,
		PayerID:      actor.ID,
		Amount:       due.Total(),
		Method:       req.Method,
		PaidAt:       s.now(),
		Verification: models.Verification{Status: models.VerificationPending, Notes: req.Notes},
	}
	if stored != nil {
		payment.ProofKey = stored.Key
		payment.ProofThumbKey = stored.ThumbKey
	}

	if err := s.payments.Create(ctx, payment); err != nil {
		s.proofs.Discard(ctx, stored)
		return nil, err
	}
	s.submitted(ctx, actor, due, payment)
	return payment, nil
}

// RecordCashPaymentIntent records that the resident will pay at the office.
// The payment stays pending until an admin verifies the cash was received.
func (s *PaymentService) RecordCashPaymentIntent(ctx context.Context, actor models.Actor, req models.CashIntentRequest) (*models.Payment, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}
	var amount decimal.Decimal
	if req.Amount != "" {
		a, err := parseAmount("amount", req.Amount)
		if err != nil {
			return nil, err
		}
		amount = a
	}

	due, err := s.payableDue(ctx, actor, req.DueID)
	if err != nil {
		return nil, err
	}
	if amount.IsZero() {
		amount = due.Total()
	}

	payment := &models.Payment{
		DueID:        due.ID,
		PayerID:      actor.ID,
		Amount:       amount,
		Method:       models.PaymentMethodCash,
		PaidAt:       s.now(),
		Verification: models.Verification{Status: models.VerificationPending, Notes: req.Notes},
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		return nil, err
	}
	s.submitted(ctx, actor, due, payment)
	return payment, nil
}

// payableDue loads a due the actor may pay: their own (admins may pay on
// behalf), not yet paid, and without a pending or verified payment.
func (s *PaymentService) payableDue(ctx context.Context, actor models.Actor, dueID int) (*models.Due, error) {
	due, err := s.dues.Get(ctx, dueID)
	if err != nil {
		return nil, err
	}
	if due.OwnerID != actor.ID && !actor.IsAdmin() {
		return nil, utils.ErrForbidden
	}
	if due.IsPaid() {
		return nil, utils.ErrAlreadyPaid
	}
	if _, err := s.payments.ActiveForDue(ctx, due.ID); err == nil {
		return nil, utils.ErrActivePayment
	} else if !errors.Is(err, utils.ErrNotFound) {
		return nil, err
	}
	return due, nil
}

func (s *PaymentService) submitted(ctx context.Context, actor models.Actor, due *models.Due, p *models.Payment) {
	metrics.PaymentsSubmitted.WithLabelValues("due", p.Method).Inc()
	utils.Logger.WithFields(logrus.Fields{
		"payment_id": p.ID,
		"due_id":     due.ID,
		"payer_id":   actor.ID,
		"method":     p.Method,
		"amount":     p.Amount.String(),
	}).Info("payment submitted")

	publish(s.hub, notify.EventPaymentSubmitted, map[string]any{
		"payment_id": p.ID,
		"due_id":     due.ID,
		"period":     due.Period,
		"method":     p.Method,
		"amount":     models.FormatMoney(p.Amount),
		"payer":      actor.Name,
	})
}

// UpdatePaymentStatus verifies or rejects a pending payment. The decision is
// validated before any storage access; verifying also marks the due paid.
func (s *PaymentService) UpdatePaymentStatus(ctx context.Context, actor models.Actor, paymentID int, req models.DecisionRequest) (*models.Payment, error) {
	if err := models.ValidateDecision(req.Status, req.Notes); err != nil {
		return nil, err
	}
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	payment, err := s.payments.Get(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.RowVersion != req.ExpectedVersion {
		countConflict("payment", utils.ErrRowVersionConflict)
		return nil, utils.ErrRowVersionConflict
	}
	if err := models.Decide(payment, req.Status, req.Notes, actor.ID, s.now()); err != nil {
		return nil, err
	}
	if err := s.payments.SaveDecision(ctx, payment, req.ExpectedVersion); err != nil {
		countConflict("payment", err)
		return nil, err
	}

	metrics.VerificationDecisions.WithLabelValues("payment", payment.Status).Inc()
	audit(ctx, s.audit, actor, models.ActionPaymentDecision, "payment", payment.ID,
		"Payment "+payment.Status+" ("+models.FormatMoney(payment.Amount)+" via "+payment.Method+")")
	invalidateFinance(ctx, s.cache)

	utils.Logger.WithFields(logrus.Fields{
		"payment_id": payment.ID,
		"due_id":     payment.DueID,
		"status":     payment.Status,
		"admin_id":   actor.ID,
	}).Info("payment decided")

	publish(s.hub, notify.EventPaymentUpdated, map[string]any{
		"payment_id": payment.ID,
		"due_id":     payment.DueID,
		"status":     payment.Status,
	})
	return payment, nil
}

// ListPayments returns payments. Residents only see their own.
func (s *PaymentService) ListPayments(ctx context.Context, actor models.Actor, filter models.PaymentFilter) ([]*models.Payment, error) {
	if !actor.IsAdmin() {
		filter.PayerID = actor.ID
	}
	list, err := s.payments.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	for _, p := range list {
		p.ProofURL = s.proofs.URL(ctx, p.ProofKey)
		p.ProofThumbURL = s.proofs.URL(ctx, p.ProofThumbKey)
	}
	return list, nil
}

// GetPayment returns one payment visible to the actor.
func (s *PaymentService) GetPayment(ctx context.Context, actor models.Actor, id int) (*models.Payment, error) {
	p, err := s.payments.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && p.PayerID != actor.ID {
		return nil, utils.ErrNotFound
	}
	p.ProofURL = s.proofs.URL(ctx, p.ProofKey)
	p.ProofThumbURL = s.proofs.URL(ctx, p.ProofThumbKey)
	return p, nil
}
