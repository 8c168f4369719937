package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	ChannelCash  = "cash"
	ChannelBank  = "bank"
	ChannelGCash = "gcash"
)

type Expense struct {
	ID          int             `json:"id"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	ExpenseDate time.Time       `json:"expense_date"`
	Channel     string          `json:"channel"`
	RecordedBy  int             `json:"recorded_by"`
	CreatedAt   time.Time       `json:"created_at"`
}

type CreateExpenseRequest struct {
	Category    string `json:"category" validate:"required,max=100"`
	Description string `json:"description" validate:"max=500"`
	Amount      string `json:"amount" validate:"required,numeric"`
	ExpenseDate string `json:"expense_date" validate:"required,datetime=2006-01-02"`
	Channel     string `json:"channel" validate:"required,oneof=cash bank gcash"`
}

// ChannelForMethod maps a payment method to the cash channel it lands in.
func ChannelForMethod(method string) string {
	switch method {
	case PaymentMethodCash:
		return ChannelCash
	case PaymentMethodGCash:
		return ChannelGCash
	default:
		return ChannelBank
	}
}
