package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	OnlineTxStatusPending = "pending"
	OnlineTxStatusSuccess = "success"
	OnlineTxStatusFailed  = "failed"
)

// OnlineTransaction is one Razorpay checkout attempt for a due.
type OnlineTransaction struct {
	ID                int             `json:"id"`
	RazorpayOrderID   string          `json:"razorpay_order_id"`
	RazorpayPaymentID string          `json:"razorpay_payment_id,omitempty"`
	DueID             int             `json:"due_id"`
	UserID            int             `json:"user_id"`
	Amount            decimal.Decimal `json:"amount"`
	Currency          string          `json:"currency"`
	Status            string          `json:"status"`
	FailureReason     string          `json:"failure_reason,omitempty"`
	PaymentID         *int            `json:"payment_id,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	CompletedAt       *time.Time      `json:"completed_at,omitempty"`
}

type CreateOrderRequest struct {
	DueID int `json:"due_id" validate:"required"`
}

// CreateOrderResponse is returned to the frontend for Razorpay checkout.
type CreateOrderResponse struct {
	OrderID  string `json:"order_id"`
	Amount   int64  `json:"amount"` // minor units
	Currency string `json:"currency"`
	KeyID    string `json:"key_id"`
}

type VerifyCheckoutRequest struct {
	RazorpayOrderID   string `json:"razorpay_order_id" validate:"required"`
	RazorpayPaymentID string `json:"razorpay_payment_id" validate:"required"`
	RazorpaySignature string `json:"razorpay_signature" validate:"required"`
}

// CheckoutStatus tells the frontend whether online payment is available.
type CheckoutStatus struct {
	Enabled bool   `json:"enabled"`
	KeyID   string `json:"key_id,omitempty"`
}
