package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	PaymentMethodGCash        = "gcash"
	PaymentMethodBankTransfer = "bank_transfer"
	PaymentMethodCard         = "card"
	PaymentMethodCash         = "cash"
)

// Payment is a claim of settlement against exactly one Due.
type Payment struct {
	ID            int             `json:"id"`
	DueID         int             `json:"due_id"`
	PayerID       int             `json:"payer_id"`
	PayerName     string          `json:"payer_name,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	Method        string          `json:"method"`
	ProofKey      string          `json:"-"`
	ProofThumbKey string          `json:"-"`
	ProofURL      string          `json:"proof_url,omitempty"`
	ProofThumbURL string          `json:"proof_thumb_url,omitempty"`
	Reference     string          `json:"reference,omitempty"`
	PaidAt        time.Time       `json:"paid_at"`
	CreatedAt     time.Time       `json:"created_at"`
	Verification
	Versioned
}

func IsValidPaymentMethod(method string) bool {
	switch method {
	case PaymentMethodGCash, PaymentMethodBankTransfer, PaymentMethodCard, PaymentMethodCash:
		return true
	}
	return false
}

// RequiresProof reports whether the method needs an uploaded proof image.
func RequiresProof(method string) bool {
	return method != PaymentMethodCash
}

// SubmitPaymentRequest carries the non-file fields of a payment submission.
type SubmitPaymentRequest struct {
	DueID  int    `json:"due_id" validate:"required"`
	Method string `json:"method" validate:"required,oneof=gcash bank_transfer card cash"`
	Notes  string `json:"notes" validate:"max=500"`
}

// CashIntentRequest records that a resident will pay cash at the office.
type CashIntentRequest struct {
	DueID  int    `json:"due_id" validate:"required"`
	Amount string `json:"amount" validate:"omitempty,numeric"`
	Notes  string `json:"notes" validate:"max=500"`
}

// PaymentFilter narrows payment listings.
type PaymentFilter struct {
	Status  string
	PayerID int
	DueID   int
}
