package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	DueStatusUnpaid  = "unpaid"
	DueStatusOverdue = "overdue"
	DueStatusPaid    = "paid"
)

// Display labels shown to residents and admins.
const (
	LabelPendingVerification = "Pending Verification"
	LabelPendingCash         = "Pending Cash Payment"
	LabelPaymentRejected     = "Payment Rejected"
	LabelPaid                = "Paid"
	LabelUnpaid              = "Unpaid"
	LabelOverdue             = "Overdue"
)

// Due is one billing-period obligation for one resident.
type Due struct {
	ID        int             `json:"id"`
	OwnerID   int             `json:"owner_id"`
	OwnerName string          `json:"owner_name,omitempty"`
	Unit      string          `json:"unit,omitempty"`
	Period    string          `json:"period"` // YYYY-MM
	Amount    decimal.Decimal `json:"amount"`
	Penalty   decimal.Decimal `json:"penalty"`
	DueDate   time.Time       `json:"due_date"`
	Status    string          `json:"status"`
	PaidAt    *time.Time      `json:"paid_at,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	Versioned
}

// Total is amount plus penalty.
func (d *Due) Total() decimal.Decimal {
	return ComputeTotal(d.Amount, d.Penalty)
}

func (d *Due) IsPaid() bool { return d.Status == DueStatusPaid }

// IsPastDue reports whether an unpaid due has passed its due date at now.
func (d *Due) IsPastDue(now time.Time) bool {
	return d.Status == DueStatusUnpaid && now.After(d.DueDate)
}

// ComputeTotal returns amount + penalty.
func ComputeTotal(amount, penalty decimal.Decimal) decimal.Decimal {
	return amount.Add(penalty)
}

// FormatMoney renders a currency amount at two decimals.
func FormatMoney(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// DisplayStatus is the label a Due shows, and whether "Pay Now" is offered.
type DisplayStatus struct {
	Label  string `json:"label"`
	CanPay bool   `json:"can_pay"`
	Note   string `json:"note,omitempty"`
}

// DeriveDisplayStatus decides what a due shows. A payment, when present,
// overrides the due's own status. A verified payment defers to the due.
func DeriveDisplayStatus(due *Due, payment *Payment) DisplayStatus {
	if payment != nil {
		switch payment.Status {
		case VerificationPending:
			if payment.Method == PaymentMethodCash {
				return DisplayStatus{Label: LabelPendingCash}
			}
			return DisplayStatus{Label: LabelPendingVerification}
		case VerificationRejected:
			return DisplayStatus{Label: LabelPaymentRejected, CanPay: true, Note: payment.Notes}
		}
	}

	switch due.Status {
	case DueStatusPaid:
		return DisplayStatus{Label: LabelPaid}
	case DueStatusOverdue:
		return DisplayStatus{Label: LabelOverdue, CanPay: true}
	default:
		return DisplayStatus{Label: LabelUnpaid, CanPay: true}
	}
}

// DueView is a due decorated with its latest payment and derived status.
type DueView struct {
	*Due
	TotalAmount decimal.Decimal `json:"total"`
	TotalText   string          `json:"total_display"`
	Payment     *Payment        `json:"payment,omitempty"`
	Display     DisplayStatus   `json:"display"`
}

// NewDueView decorates a due with its latest payment.
func NewDueView(due *Due, latest *Payment) *DueView {
	total := due.Total()
	return &DueView{
		Due:         due,
		TotalAmount: total,
		TotalText:   FormatMoney(total),
		Payment:     latest,
		Display:     DeriveDisplayStatus(due, latest),
	}
}

// DueFilter narrows due listings. Zero values match everything.
type DueFilter struct {
	Status  string
	Period  string
	OwnerID int
}

// GenerateDuesRequest asks for one due per active homeowner for period.
type GenerateDuesRequest struct {
	Period string `json:"period" validate:"required,datetime=2006-01"`
}

// CashSettlementRequest is the admin direct cash settlement body.
type CashSettlementRequest struct {
	DueID           int    `json:"due_id" validate:"required"`
	ExpectedVersion int64  `json:"expected_version" validate:"required"`
	Notes           string `json:"notes" validate:"max=500"`
}
