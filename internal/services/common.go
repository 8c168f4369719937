package services

import (
	"context"
	"errors"
	"time"

	"hoa-backend/internal/cache"
	"hoa-backend/internal/metrics"
	"hoa-backend/internal/models"
	"hoa-backend/internal/notify"
	"hoa-backend/internal/timeutil"
	"hoa-backend/pkg/utils"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// clock is swapped in tests.
type clock func() time.Time

func defaultClock(c clock) clock {
	if c == nil {
		return timeutil.Now
	}
	return c
}

func publish(p notify.Publisher, event string, data any) {
	if p != nil {
		p.Publish(event, data)
	}
}

// audit records an admin action. Failures are logged and never block the
// action itself.
func audit(ctx context.Context, log AuditLogger, actor models.Actor, action, targetType string, targetID int, description string) {
	if log == nil {
		return
	}
	entry := &models.AdminActionLog{
		AdminUserID: actor.ID,
		ActionType:  action,
		TargetType:  targetType,
		Description: description,
	}
	if targetID != 0 {
		entry.TargetID = &targetID
	}
	if actor.IP != "" {
		ip := actor.IP
		entry.IPAddress = &ip
	}
	if err := log.CreateActionLog(ctx, entry); err != nil {
		utils.Logger.WithError(err).WithField("action", action).Warn("failed to write admin action log")
	}
}

// invalidateFinance drops the cached finance report after a money-moving write.
func invalidateFinance(ctx context.Context, c *cache.Cache) {
	c.Delete(ctx, cache.FinanceReportKey)
}

// countConflict increments the conflict metric when err is a version conflict.
func countConflict(entity string, err error) {
	if errors.Is(err, utils.ErrRowVersionConflict) {
		metrics.VersionConflicts.WithLabelValues(entity).Inc()
		utils.Logger.WithFields(logrus.Fields{"entity": entity}).Info("row version conflict")
	}
}

func requireAdmin(actor models.Actor) error {
	if !actor.IsAdmin() {
		return utils.ErrForbidden
	}
	return nil
}

func requireStaff(actor models.Actor) error {
	if !actor.IsStaff() {
		return utils.ErrForbidden
	}
	return nil
}

// parseAmount parses a positive decimal amount.
func parseAmount(field, value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, utils.NewValidationError(field, "must be a number")
	}
	if !d.IsPositive() {
		return decimal.Zero, utils.NewValidationError(field, "must be greater than zero")
	}
	return d.Round(2), nil
}

// parseOptionalAmount parses a non-negative decimal; empty means zero.
func parseOptionalAmount(field, value string) (decimal.Decimal, error) {
	if value == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, utils.NewValidationError(field, "must be a number")
	}
	if d.IsNegative() {
		return decimal.Zero, utils.NewValidationError(field, "must not be negative")
	}
	return d.Round(2), nil
}

func parseOptionalDate(field, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := timeutil.ParseLocal(timeutil.DateLayout, value)
	if err != nil {
		return nil, utils.NewValidationError(field, "must be a date (YYYY-MM-DD)")
	}
	return &t, nil
}
