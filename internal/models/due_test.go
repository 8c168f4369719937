package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestComputeTotal(t *testing.T) {
	total := ComputeTotal(dec("2500"), dec("250"))
	assert.True(t, total.Equal(dec("2750")), "got %s", total)
	assert.Equal(t, "2750.00", FormatMoney(total))

	due := &Due{Amount: dec("1200.50"), Penalty: dec("0.25")}
	assert.Equal(t, "1200.75", FormatMoney(due.Total()))
}

func TestDeriveDisplayStatus_PendingWinsOverDueStatus(t *testing.T) {
	for _, dueStatus := range []string{DueStatusUnpaid, DueStatusOverdue, DueStatusPaid} {
		t.Run(dueStatus, func(t *testing.T) {
			due := &Due{Status: dueStatus}

			got := DeriveDisplayStatus(due, &Payment{Method: PaymentMethodGCash, Verification: Verification{Status: VerificationPending}})
			assert.Equal(t, LabelPendingVerification, got.Label)
			assert.False(t, got.CanPay)

			got = DeriveDisplayStatus(due, &Payment{Method: PaymentMethodCash, Verification: Verification{Status: VerificationPending}})
			assert.Equal(t, LabelPendingCash, got.Label)
			assert.False(t, got.CanPay)
		})
	}
}

func TestDeriveDisplayStatus_RejectedAllowsResubmit(t *testing.T) {
	for _, dueStatus := range []string{DueStatusUnpaid, DueStatusOverdue} {
		t.Run(dueStatus, func(t *testing.T) {
			p := &Payment{Method: PaymentMethodBankTransfer, Verification: Verification{Status: VerificationRejected, Notes: "blurry receipt"}}
			got := DeriveDisplayStatus(&Due{Status: dueStatus}, p)
			assert.Equal(t, LabelPaymentRejected, got.Label)
			assert.Equal(t, "blurry receipt", got.Note)
			assert.True(t, got.CanPay)
		})
	}
}

func TestDeriveDisplayStatus_FallsBackToDue(t *testing.T) {
	tests := []struct {
		status string
		label  string
		canPay bool
	}{
		{DueStatusUnpaid, LabelUnpaid, true},
		{DueStatusOverdue, LabelOverdue, true},
		{DueStatusPaid, LabelPaid, false},
	}
	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			got := DeriveDisplayStatus(&Due{Status: tt.status}, nil)
			assert.Equal(t, tt.label, got.Label)
			assert.Equal(t, tt.canPay, got.CanPay)
		})
	}

	verified := &Payment{Verification: Verification{Status: VerificationVerified}}
	got := DeriveDisplayStatus(&Due{Status: DueStatusPaid}, verified)
	assert.Equal(t, LabelPaid, got.Label)
	assert.False(t, got.CanPay)
}

func TestDecide(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("reject needs note", func(t *testing.T) {
		p := &Payment{Verification: Verification{Status: VerificationPending}}
		err := Decide(p, VerificationRejected, "   ", 1, now)
		require.Error(t, err)
		assert.Equal(t, VerificationPending, p.Status)
	})

	t.Run("verify pending", func(t *testing.T) {
		p := &Payment{Verification: Verification{Status: VerificationPending}}
		require.NoError(t, Decide(p, VerificationVerified, "", 7, now))
		assert.Equal(t, VerificationVerified, p.Status)
		require.NotNil(t, p.VerifiedBy)
		assert.Equal(t, 7, *p.VerifiedBy)
		assert.Equal(t, now, *p.VerifiedAt)
	})

	t.Run("terminal states stay terminal", func(t *testing.T) {
		for _, s := range []string{VerificationVerified, VerificationRejected} {
			c := &Contribution{Verification: Verification{Status: s}}
			assert.Error(t, Decide(c, VerificationVerified, "", 1, now))
		}
	})

	t.Run("unknown status", func(t *testing.T) {
		assert.Error(t, ValidateDecision("approved", "ok"))
	})
}

func TestPercentSpent(t *testing.T) {
	assert.True(t, PercentSpent(dec("1000"), dec("5000")).Equal(dec("20")))
	assert.True(t, PercentSpent(dec("1"), dec("3")).Equal(dec("33.33")))
	assert.True(t, PercentSpent(dec("100"), decimal.Zero).IsZero())

	s := NewProjectSummary(&Project{Budget: dec("5000"), FundsSpent: dec("1000")})
	assert.Equal(t, "20", s.PercentSpent.String())
	assert.True(t, s.Remaining.Equal(dec("4000")))
}

func TestReservationRules(t *testing.T) {
	assert.True(t, CanTransitionReservation(ReservationPending, ReservationApproved))
	assert.True(t, CanTransitionReservation(ReservationPending, ReservationDenied))
	assert.True(t, CanTransitionReservation(ReservationApproved, ReservationCompleted))
	assert.False(t, CanTransitionReservation(ReservationDenied, ReservationApproved))
	assert.False(t, CanTransitionReservation(ReservationPending, ReservationCompleted))

	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	r := &Reservation{StartTime: base, EndTime: base.Add(2 * time.Hour)}
	assert.True(t, r.Overlaps(base.Add(time.Hour), base.Add(3*time.Hour)))
	assert.False(t, r.Overlaps(base.Add(2*time.Hour), base.Add(3*time.Hour)), "touching windows do not overlap")
}

func TestVisitorTransitions(t *testing.T) {
	assert.True(t, CanTransitionVisitor(VisitorExpected, VisitorEntered))
	assert.True(t, CanTransitionVisitor(VisitorEntered, VisitorExited))
	assert.False(t, CanTransitionVisitor(VisitorExited, VisitorEntered))
	assert.False(t, CanTransitionVisitor(VisitorExpected, VisitorExited))
}
