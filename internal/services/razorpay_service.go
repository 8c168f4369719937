package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"hoa-backend/internal/cache"
	"hoa-backend/internal/models"
	"hoa-backend/internal/notify"
	"hoa-backend/pkg/utils"

	razorpay "github.com/razorpay/razorpay-go"
	"github.com/sirupsen/logrus"
)

// OrderGateway creates checkout orders at the payment provider.
type OrderGateway interface {
	CreateOrder(amountMinor int64, currency, receipt string, notes map[string]any) (string, error)
}

type razorpayGateway struct {
	client *razorpay.Client
}

func (g *razorpayGateway) CreateOrder(amountMinor int64, currency, receipt string, notes map[string]any) (string, error) {
	order, err := g.client.Order.Create(map[string]interface{}{
		"amount":   amountMinor,
		"currency": currency,
		"receipt":  receipt,
		"notes":    notes,
	}, nil)
	if err != nil {
		return "", err
	}
	id, ok := order["id"].(string)
	if !ok || id == "" {
		return "", errors.New("razorpay order response has no id")
	}
	return id, nil
}

// CheckoutCredentials are the fallback keys from the environment.
type CheckoutCredentials struct {
	KeyID     string
	KeySecret string
	Currency  string
}

// CheckoutService runs online card / e-wallet payments for dues through
// Razorpay. A verified checkout settles the due without admin review.
type CheckoutService struct {
	dues         DueStore
	payments     PaymentStore
	transactions OnlineTransactionStore
	settings     SettingStore
	hub          notify.Publisher
	cache        *cache.Cache
	env          CheckoutCredentials
	newGateway   func(keyID, keySecret string) OrderGateway
	now          clock
}

func NewCheckoutService(
	dues DueStore,
	payments PaymentStore,
	transactions OnlineTransactionStore,
	settings SettingStore,
	hub notify.Publisher,
	c *cache.Cache,
	env CheckoutCredentials,
) *CheckoutService {
	if env.Currency == "" {
		env.Currency = "PHP"
	}
	return &CheckoutService{
		dues:         dues,
		payments:     payments,
		transactions: transactions,
		settings:     settings,
		hub:          hub,
		cache:        c,
		env:          env,
		newGateway: func(keyID, keySecret string) OrderGateway {
			return &razorpayGateway{client: razorpay.NewClient(keyID, keySecret)}
		},
		now: defaultClock(nil),
	}
}

// credentials prefers keys saved in settings over the environment.
func (s *CheckoutService) credentials(ctx context.Context) (keyID, keySecret string) {
	if st, err := s.settings.Get(ctx, models.SettingRazorpayKeyID); err == nil && st.SettingValue != "" {
		keyID = st.SettingValue
	}
	if st, err := s.settings.Get(ctx, models.SettingRazorpayKeySecret); err == nil && st.SettingValue != "" {
		keySecret = st.SettingValue
	}
	if keyID == "" {
		keyID = s.env.KeyID
	}
	if keySecret == "" {
		keySecret = s.env.KeySecret
	}
	return keyID, keySecret
}

// IsEnabled reports whether the online payment toggle is on.
func (s *CheckoutService) IsEnabled(ctx context.Context) bool {
	st, err := s.settings.Get(ctx, models.SettingOnlinePaymentEnabled)
	return err == nil && st.SettingValue == "true"
}

func (s *CheckoutService) Status(ctx context.Context) *models.CheckoutStatus {
	status := &models.CheckoutStatus{Enabled: s.IsEnabled(ctx)}
	if status.Enabled {
		status.KeyID, _ = s.credentials(ctx)
	}
	return status
}

// CreateOrder opens a provider order for the full total of a due.
func (s *CheckoutService) CreateOrder(ctx context.Context, actor models.Actor, req models.CreateOrderRequest) (*models.CreateOrderResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}
	if !s.IsEnabled(ctx) {
		return nil, utils.ErrFeatureDisabled
	}
	keyID, keySecret := s.credentials(ctx)
	if keyID == "" || keySecret == "" {
		return nil, utils.ErrFeatureDisabled
	}

	due, err := s.dues.Get(ctx, req.DueID)
	if err != nil {
		return nil, err
	}
	if due.OwnerID != actor.ID {
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

	total := due.Total()
	minor := total.Shift(2).IntPart()
	receipt := fmt.Sprintf("due_%d_%d", due.ID, s.now().Unix())

	orderID, err := s.newGateway(keyID, keySecret).CreateOrder(minor, s.env.Currency, receipt, map[string]any{
		"due_id":  due.ID,
		"user_id": actor.ID,
		"period":  due.Period,
	})
	if err != nil {
		utils.Logger.WithError(err).WithField("due_id", due.ID).Error("razorpay order failed")
		return nil, fmt.Errorf("%w: %v", utils.ErrExternalService, err)
	}

	tx := &models.OnlineTransaction{
		RazorpayOrderID: orderID,
		DueID:           due.ID,
		UserID:          actor.ID,
		Amount:          total,
		Currency:        s.env.Currency,
		Status:          models.OnlineTxStatusPending,
	}
	if err := s.transactions.Create(ctx, tx); err != nil {
		return nil, err
	}

	return &models.CreateOrderResponse{
		OrderID:  orderID,
		Amount:   minor,
		Currency: s.env.Currency,
		KeyID:    keyID,
	}, nil
}

// VerifyCheckout checks the provider signature and, when valid, records a
// verified card payment that marks the due paid. Replays of a completed
// order return the recorded payment.
func (s *CheckoutService) VerifyCheckout(ctx context.Context, actor models.Actor, req models.VerifyCheckoutRequest) (*models.Payment, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	tx, err := s.transactions.GetByOrderID(ctx, req.RazorpayOrderID)
	if err != nil {
		return nil, err
	}
	if tx.UserID != actor.ID {
		return nil, utils.ErrForbidden
	}
	if tx.Status == models.OnlineTxStatusSuccess && tx.PaymentID != nil {
		return s.payments.Get(ctx, *tx.PaymentID)
	}
	if tx.Status != models.OnlineTxStatusPending {
		return nil, utils.ErrInvalidTransition
	}

	_, keySecret := s.credentials(ctx)
	if !VerifySignature(keySecret, req.RazorpayOrderID, req.RazorpayPaymentID, req.RazorpaySignature) {
		if err := s.transactions.MarkFailed(ctx, req.RazorpayOrderID, "invalid signature"); err != nil {
			utils.Logger.WithError(err).Warn("failed to mark checkout failed")
		}
		return nil, utils.NewValidationError("razorpay_signature", "Payment signature is invalid")
	}

	// verified_by stays NULL: the system verified it, not an admin.
	now := s.now()
	payment := &models.Payment{
		DueID:     tx.DueID,
		PayerID:   tx.UserID,
		Amount:    tx.Amount,
		Method:    models.PaymentMethodCard,
		Reference: req.RazorpayPaymentID,
		PaidAt:    now,
		Verification: models.Verification{
			Status:     models.VerificationVerified,
			Notes:      "Paid online",
			VerifiedAt: &now,
		},
	}

	if err := s.payments.CreateSettled(ctx, payment); err != nil {
		return nil, err
	}
	if err := s.transactions.MarkSuccess(ctx, req.RazorpayOrderID, req.RazorpayPaymentID, payment.ID); err != nil {
		utils.Logger.WithError(err).WithField("order_id", req.RazorpayOrderID).Warn("failed to complete online transaction")
	}

	invalidateFinance(ctx, s.cache)
	utils.Logger.WithFields(logrus.Fields{
		"order_id":   req.RazorpayOrderID,
		"payment_id": payment.ID,
		"due_id":     payment.DueID,
		"amount":     payment.Amount.String(),
	}).Info("online payment settled")

	publish(s.hub, notify.EventPaymentUpdated, map[string]any{
		"payment_id": payment.ID,
		"due_id":     payment.DueID,
		"status":     payment.Status,
		"method":     payment.Method,
	})
	return payment, nil
}

// VerifySignature checks a checkout signature: hex HMAC-SHA256 of
// "order_id|payment_id" keyed with the API secret.
func VerifySignature(keySecret, orderID, paymentID, signature string) bool {
	if keySecret == "" {
		return false
	}
	h := hmac.New(sha256.New, []byte(keySecret))
	h.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(h.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
