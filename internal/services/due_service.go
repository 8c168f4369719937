package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hoa-backend/internal/cache"
	"hoa-backend/internal/metrics"
	"hoa-backend/internal/models"
	"hoa-backend/internal/timeutil"
	"hoa-backend/pkg/utils"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// BillingConfig holds the fallback billing rules. The monthly amount and the
// penalty percent can be overridden at runtime through system settings.
type BillingConfig struct {
	MonthlyDues    decimal.Decimal
	DueDay         int
	PenaltyPercent decimal.Decimal
}

type DueService struct {
	dues     DueStore
	payments PaymentStore
	users    UserStore
	settings SettingStore
	proofs   *ProofService
	audit    AuditLogger
	cache    *cache.Cache
	billing  BillingConfig
	now      clock
}

func NewDueService(
	dues DueStore,
	payments PaymentStore,
	users UserStore,
	settings SettingStore,
	proofs *ProofService,
	audit AuditLogger,
	c *cache.Cache,
	billing BillingConfig,
) *DueService {
	return &DueService{
		dues:     dues,
		payments: payments,
		users:    users,
		settings: settings,
		proofs:   proofs,
		audit:    audit,
		cache:    c,
		billing:  billing,
		now:      defaultClock(nil),
	}
}

// GetDuesForUser lists the actor's own dues with their display status.
func (s *DueService) GetDuesForUser(ctx context.Context, actor models.Actor, filter models.DueFilter) ([]*models.DueView, error) {
	filter.OwnerID = actor.ID
	return s.listViews(ctx, filter)
}

// GetAllDues lists every resident's dues. Staff use it at the office desk.
func (s *DueService) GetAllDues(ctx context.Context, actor models.Actor, filter models.DueFilter) ([]*models.DueView, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	return s.listViews(ctx, filter)
}

// GetDue returns one due. Residents may only read their own.
func (s *DueService) GetDue(ctx context.Context, actor models.Actor, id int) (*models.DueView, error) {
	due, err := s.dues.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && due.OwnerID != actor.ID {
		return nil, utils.ErrNotFound
	}
	views, err := s.decorate(ctx, []*models.Due{due})
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

func (s *DueService) listViews(ctx context.Context, filter models.DueFilter) ([]*models.DueView, error) {
	dues, err := s.dues.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return s.decorate(ctx, dues)
}

// decorate attaches the latest payment of each due and derives its label.
func (s *DueService) decorate(ctx context.Context, dues []*models.Due) ([]*models.DueView, error) {
	ids := make([]int, len(dues))
	for i, d := range dues {
		ids[i] = d.ID
	}
	latest, err := s.payments.LatestForDues(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]*models.DueView, 0, len(dues))
	for _, d := range dues {
		p := latest[d.ID]
		if p != nil && s.proofs != nil {
			p.ProofURL = s.proofs.URL(ctx, p.ProofKey)
			p.ProofThumbURL = s.proofs.URL(ctx, p.ProofThumbKey)
		}
		views = append(views, models.NewDueView(d, p))
	}
	return views, nil
}

// RecordAdminCashPayment settles a due paid in cash at the office. The due
// must still carry expectedVersion and have no payment awaiting review.
func (s *DueService) RecordAdminCashPayment(ctx context.Context, actor models.Actor, req models.CashSettlementRequest) (*models.DueView, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	due, err := s.dues.Get(ctx, req.DueID)
	if err != nil {
		return nil, err
	}
	if due.IsPaid() {
		return nil, utils.ErrAlreadyPaid
	}
	if due.RowVersion != req.ExpectedVersion {
		countConflict("due", utils.ErrRowVersionConflict)
		return nil, utils.ErrRowVersionConflict
	}

	active, err := s.payments.ActiveForDue(ctx, due.ID)
	switch {
	case err == nil && active.Status == models.VerificationVerified:
		return nil, utils.ErrAlreadyPaid
	case err == nil:
		// a resident's submission is waiting; the admin must decide it instead
		return nil, utils.ErrActivePayment
	case !errors.Is(err, utils.ErrNotFound):
		return nil, err
	}

	now := s.now()
	verifier := actor.ID
	payment := &models.Payment{
		DueID:   due.ID,
		PayerID: due.OwnerID,
		Amount:  due.Total(),
		Method:  models.PaymentMethodCash,
		PaidAt:  now,
		Verification: models.Verification{
			Status:     models.VerificationVerified,
			Notes:      req.Notes,
			VerifiedBy: &verifier,
			VerifiedAt: &now,
		},
	}
	if err := s.payments.CreateCashSettlement(ctx, payment, req.ExpectedVersion); err != nil {
		countConflict("due", err)
		return nil, err
	}

	audit(ctx, s.audit, actor, models.ActionCashSettlement, "due", due.ID,
		fmt.Sprintf("Recorded cash payment of %s for %s (%s)", models.FormatMoney(payment.Amount), due.Period, due.OwnerName))
	invalidateFinance(ctx, s.cache)

	utils.Logger.WithFields(logrus.Fields{
		"due_id":   due.ID,
		"admin_id": actor.ID,
		"amount":   payment.Amount.String(),
	}).Info("due settled in cash")

	settled, err := s.dues.Get(ctx, due.ID)
	if err != nil {
		return nil, err
	}
	return models.NewDueView(settled, payment), nil
}

// GenerateMonthlyDues creates one due per active homeowner for period. Dues
// that already exist are left alone. Returns how many were created.
func (s *DueService) GenerateMonthlyDues(ctx context.Context, period string) (int, error) {
	if err := utils.ValidateStruct(models.GenerateDuesRequest{Period: period}); err != nil {
		return 0, err
	}
	dueDate, err := timeutil.PeriodDueDate(period, s.billing.DueDay)
	if err != nil {
		return 0, utils.NewValidationError("period", "must be YYYY-MM")
	}

	amount := s.monthlyAmount(ctx)
	owners, err := s.users.ListActiveHomeowners(ctx)
	if err != nil {
		return 0, err
	}

	created := 0
	for _, owner := range owners {
		due := &models.Due{
			OwnerID: owner.ID,
			Period:  period,
			Amount:  amount,
			Penalty: decimal.Zero,
			DueDate: dueDate,
			Status:  models.DueStatusUnpaid,
		}
		ok, err := s.dues.CreateIfAbsent(ctx, due)
		if err != nil {
			return created, fmt.Errorf("create due for user %d: %w", owner.ID, err)
		}
		if ok {
			created++
		}
	}

	if created > 0 {
		invalidateFinance(ctx, s.cache)
	}
	utils.Logger.WithFields(logrus.Fields{"period": period, "created": created}).Info("monthly dues generated")
	return created, nil
}

// GenerateDues is the admin-triggered run of GenerateMonthlyDues.
func (s *DueService) GenerateDues(ctx context.Context, actor models.Actor, req models.GenerateDuesRequest) (int, error) {
	if err := requireAdmin(actor); err != nil {
		return 0, err
	}
	return s.GenerateMonthlyDues(ctx, req.Period)
}

// MarkOverdue flips unpaid dues past their due date to overdue and applies
// the penalty. Dues with a payment pending review or verified are left alone,
// and dues changed concurrently are skipped until the next run.
func (s *DueService) MarkOverdue(ctx context.Context, now time.Time) (int, error) {
	pastDue, err := s.dues.ListPastDue(ctx, now)
	if err != nil {
		return 0, err
	}

	percent := s.penaltyPercent(ctx)
	marked := 0
	for _, due := range pastDue {
		penalty := due.Amount.Mul(percent).Div(decimal.NewFromInt(100)).Round(2)
		if err := s.dues.MarkOverdue(ctx, due, penalty); err != nil {
			if errors.Is(err, utils.ErrRowVersionConflict) || errors.Is(err, utils.ErrNotFound) {
				continue
			}
			return marked, fmt.Errorf("mark due %d overdue: %w", due.ID, err)
		}
		marked++
	}

	if marked > 0 {
		metrics.DuesMarkedOverdue.Add(float64(marked))
		invalidateFinance(ctx, s.cache)
	}
	return marked, nil
}

func (s *DueService) monthlyAmount(ctx context.Context) decimal.Decimal {
	return settingDecimal(ctx, s.settings, models.SettingMonthlyDuesAmount, s.billing.MonthlyDues)
}

func (s *DueService) penaltyPercent(ctx context.Context) decimal.Decimal {
	return settingDecimal(ctx, s.settings, models.SettingPenaltyPercent, s.billing.PenaltyPercent)
}

// settingDecimal reads a numeric setting, falling back when it is unset or invalid.
func settingDecimal(ctx context.Context, settings SettingStore, key string, fallback decimal.Decimal) decimal.Decimal {
	if settings == nil {
		return fallback
	}
	setting, err := settings.Get(ctx, key)
	if err != nil || setting == nil || setting.SettingValue == "" {
		return fallback
	}
	d, err := decimal.NewFromString(setting.SettingValue)
	if err != nil || d.IsNegative() {
		utils.Logger.WithField("key", key).Warn("ignoring invalid numeric setting")
		return fallback
	}
	return d
}
