package services

import (
	"context"
	"testing"
	"time"

	"hoa-backend/internal/models"
	"hoa-backend/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAdminCashPayment_SettlesDue(t *testing.T) {
	f := newPaymentFixture(overdueDue())
	ctx := context.Background()

	view, err := f.dueSvc.RecordAdminCashPayment(ctx, adminActor, models.CashSettlementRequest{
		DueID: 1, ExpectedVersion: 1, Notes: "Paid at the office",
	})
	require.NoError(t, err)

	assert.Equal(t, models.DueStatusPaid, view.Status)
	assert.Equal(t, models.LabelPaid, view.Display.Label)
	require.NotNil(t, view.Payment)
	assert.Equal(t, models.PaymentMethodCash, view.Payment.Method)
	assert.Equal(t, models.VerificationVerified, view.Payment.Status)
	assert.True(t, view.Payment.Amount.Equal(dec("2750")))
	assert.Equal(t, []string{models.ActionCashSettlement}, f.audit.actions())

	_, err = f.dueSvc.RecordAdminCashPayment(ctx, adminActor, models.CashSettlementRequest{
		DueID: 1, ExpectedVersion: view.RowVersion,
	})
	assert.ErrorIs(t, err, utils.ErrAlreadyPaid)
}

func TestRecordAdminCashPayment_BlockedByPendingSubmission(t *testing.T) {
	f := newPaymentFixture(overdueDue())
	ctx := context.Background()

	_, err := f.svc.RecordCashPaymentIntent(ctx, residentActor, models.CashIntentRequest{DueID: 1})
	require.NoError(t, err)

	_, err = f.dueSvc.RecordAdminCashPayment(ctx, adminActor, models.CashSettlementRequest{DueID: 1, ExpectedVersion: 1})
	assert.ErrorIs(t, err, utils.ErrActivePayment)
}

func TestRecordAdminCashPayment_StaleVersion(t *testing.T) {
	f := newPaymentFixture(overdueDue())

	_, err := f.dueSvc.RecordAdminCashPayment(context.Background(), adminActor, models.CashSettlementRequest{
		DueID: 1, ExpectedVersion: 7,
	})
	assert.ErrorIs(t, err, utils.ErrRowVersionConflict)
	assert.Empty(t, f.audit.actions())
}

func TestRecordAdminCashPayment_AdminOnly(t *testing.T) {
	f := newPaymentFixture(overdueDue())

	_, err := f.dueSvc.RecordAdminCashPayment(context.Background(), staffActor, models.CashSettlementRequest{
		DueID: 1, ExpectedVersion: 1,
	})
	assert.ErrorIs(t, err, utils.ErrForbidden)
}

func TestGetDue_HidesOtherResidentsDues(t *testing.T) {
	f := newPaymentFixture(overdueDue())

	_, err := f.dueSvc.GetDue(context.Background(), models.Actor{ID: 77, Role: models.RoleTenant}, 1)
	assert.ErrorIs(t, err, utils.ErrNotFound)

	view, err := f.dueSvc.GetDue(context.Background(), adminActor, 1)
	require.NoError(t, err)
	assert.Equal(t, "2750.00", view.TotalText)
	assert.Equal(t, models.LabelOverdue, view.Display.Label)
}

func TestGenerateMonthlyDues_OncePerHomeowner(t *testing.T) {
	users := newFakeUsers(
		&models.User{ID: 10, Role: models.RoleHomeowner, Status: models.UserStatusActive},
		&models.User{ID: 11, Role: models.RoleHomeowner, Status: models.UserStatusActive},
		&models.User{ID: 12, Role: models.RoleHomeowner, Status: models.UserStatusPending},
		&models.User{ID: 13, Role: models.RoleStaff, Status: models.UserStatusActive},
	)
	dues := newFakeDues()
	svc := NewDueService(dues, newFakePayments(dues), users, fakeSettings{models.SettingMonthlyDuesAmount: "3000"}, nil, nil, nil, BillingConfig{
		MonthlyDues: dec("2500"),
		DueDay:      15,
	})

	created, err := svc.GenerateMonthlyDues(context.Background(), "2026-04")
	require.NoError(t, err)
	assert.Equal(t, 2, created)

	created, err = svc.GenerateMonthlyDues(context.Background(), "2026-04")
	require.NoError(t, err)
	assert.Zero(t, created)

	list, err := dues.List(context.Background(), models.DueFilter{})
	require.NoError(t, err)
	for _, d := range list {
		assert.True(t, d.Amount.Equal(dec("3000")), "settings override the configured amount")
		assert.Equal(t, 15, d.DueDate.Day())
		assert.Equal(t, models.DueStatusUnpaid, d.Status)
	}
}

func TestGenerateMonthlyDues_RejectsBadPeriod(t *testing.T) {
	dues := newFakeDues()
	svc := NewDueService(dues, newFakePayments(dues), newFakeUsers(), nil, nil, nil, nil, BillingConfig{DueDay: 15})

	_, err := svc.GenerateMonthlyDues(context.Background(), "April 2026")
	var vErr *utils.ValidationError
	assert.ErrorAs(t, err, &vErr)
}

func TestGenerateDues_AdminOnly(t *testing.T) {
	dues := newFakeDues()
	svc := NewDueService(dues, newFakePayments(dues), newFakeUsers(), nil, nil, nil, nil, BillingConfig{DueDay: 15})

	_, err := svc.GenerateDues(context.Background(), residentActor, models.GenerateDuesRequest{Period: "2026-04"})
	assert.ErrorIs(t, err, utils.ErrForbidden)
}

func TestMarkOverdue_AppliesPenalty(t *testing.T) {
	due := &models.Due{
		ID: 1, OwnerID: 10, Period: "2026-02", Amount: dec("2500"), Penalty: dec("0"),
		DueDate: time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC), Status: models.DueStatusUnpaid,
	}
	future := &models.Due{
		ID: 2, OwnerID: 10, Period: "2026-04", Amount: dec("2500"), Penalty: dec("0"),
		DueDate: time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC), Status: models.DueStatusUnpaid,
	}
	dues := newFakeDues(due, future)
	svc := NewDueService(dues, newFakePayments(dues), newFakeUsers(), fakeSettings{}, nil, nil, nil, BillingConfig{
		PenaltyPercent: dec("10"),
	})

	marked, err := svc.MarkOverdue(context.Background(), testNow)
	require.NoError(t, err)
	assert.Equal(t, 1, marked)

	got, err := dues.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, models.DueStatusOverdue, got.Status)
	assert.Equal(t, "250.00", models.FormatMoney(got.Penalty))
	assert.Equal(t, "2750.00", models.FormatMoney(got.Total()))

	untouched, err := dues.Get(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, models.DueStatusUnpaid, untouched.Status)

	marked, err = svc.MarkOverdue(context.Background(), testNow)
	require.NoError(t, err)
	assert.Zero(t, marked)
}

func TestMarkOverdue_SkipsDuesWithActivePayment(t *testing.T) {
	dueDate := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	paidOnTime := &models.Due{
		ID: 1, OwnerID: residentActor.ID, Period: "2026-03", Amount: dec("2500"), Penalty: dec("0"),
		DueDate: dueDate, Status: models.DueStatusUnpaid,
	}
	neighbour := &models.Due{
		ID: 2, OwnerID: 11, Period: "2026-03", Amount: dec("2500"), Penalty: dec("0"),
		DueDate: dueDate, Status: models.DueStatusUnpaid,
	}
	f := newPaymentFixture(paidOnTime, neighbour)
	ctx := context.Background()

	submitted, err := f.svc.SubmitPayment(ctx, residentActor, models.SubmitPaymentRequest{
		DueID: 1, Method: models.PaymentMethodGCash,
	}, pngProof(t))
	require.NoError(t, err)

	marked, err := f.dueSvc.MarkOverdue(ctx, testNow)
	require.NoError(t, err)
	assert.Equal(t, 1, marked)

	pending, err := f.dues.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, models.DueStatusUnpaid, pending.Status)
	assert.True(t, pending.Penalty.IsZero())

	late, err := f.dues.Get(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, models.DueStatusOverdue, late.Status)

	_, err = f.svc.UpdatePaymentStatus(ctx, adminActor, submitted.ID, models.DecisionRequest{
		Status: models.VerificationVerified, ExpectedVersion: submitted.RowVersion,
	})
	require.NoError(t, err)

	settled, err := f.dues.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, models.DueStatusPaid, settled.Status)
	assert.Equal(t, "2500.00", models.FormatMoney(settled.Total()))
	assert.True(t, submitted.Amount.Equal(settled.Total()))
}

func TestGetAllDues_StaffAllowed(t *testing.T) {
	f := newPaymentFixture(overdueDue())
	ctx := context.Background()

	_, err := f.dueSvc.GetAllDues(ctx, residentActor, models.DueFilter{})
	assert.ErrorIs(t, err, utils.ErrForbidden)

	list, err := f.dueSvc.GetAllDues(ctx, staffActor, models.DueFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	list, err = f.dueSvc.GetAllDues(ctx, adminActor, models.DueFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
