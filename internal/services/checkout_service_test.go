package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"testing"

	"hoa-backend/internal/models"
	"hoa-backend/internal/notify"
	"hoa-backend/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKeySecret = "rzp_secret_test"

func sign(orderID, paymentID string) string {
	h := hmac.New(sha256.New, []byte(testKeySecret))
	h.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(h.Sum(nil))
}

type checkoutFixture struct {
	dues         *fakeDues
	payments     *fakePayments
	transactions *fakeTransactions
	gateway      *fakeGateway
	hub          *fakePublisher
	svc          *CheckoutService
}

func newCheckoutFixture(settings fakeSettings, dues ...*models.Due) *checkoutFixture {
	f := &checkoutFixture{
		dues:         newFakeDues(dues...),
		transactions: newFakeTransactions(),
		gateway:      &fakeGateway{orderID: "order_Q1"},
		hub:          &fakePublisher{},
	}
	f.payments = newFakePayments(f.dues)
	f.svc = NewCheckoutService(f.dues, f.payments, f.transactions, settings, f.hub, nil, CheckoutCredentials{
		KeyID:     "rzp_test_key",
		KeySecret: testKeySecret,
	})
	f.svc.newGateway = func(string, string) OrderGateway { return f.gateway }
	f.svc.now = fixedClock(testNow)
	return f
}

func enabledSettings() fakeSettings {
	return fakeSettings{models.SettingOnlinePaymentEnabled: "true"}
}

func TestVerifySignature(t *testing.T) {
	good := sign("order_1", "pay_1")

	assert.True(t, VerifySignature(testKeySecret, "order_1", "pay_1", good))
	assert.False(t, VerifySignature(testKeySecret, "order_1", "pay_2", good))
	assert.False(t, VerifySignature("other-secret", "order_1", "pay_1", good))
	assert.False(t, VerifySignature("", "order_1", "pay_1", good))
}

func TestCheckout_DisabledByDefault(t *testing.T) {
	f := newCheckoutFixture(fakeSettings{}, overdueDue())

	_, err := f.svc.CreateOrder(context.Background(), residentActor, models.CreateOrderRequest{DueID: 1})
	assert.ErrorIs(t, err, utils.ErrFeatureDisabled)
	assert.False(t, f.svc.Status(context.Background()).Enabled)
}

func TestCheckout_SettingsOverrideEnvironmentKeys(t *testing.T) {
	settings := enabledSettings()
	settings[models.SettingRazorpayKeyID] = "rzp_live_from_settings"
	f := newCheckoutFixture(settings, overdueDue())

	status := f.svc.Status(context.Background())
	assert.True(t, status.Enabled)
	assert.Equal(t, "rzp_live_from_settings", status.KeyID)
}

func TestCheckout_CreateOrderUsesMinorUnits(t *testing.T) {
	f := newCheckoutFixture(enabledSettings(), overdueDue())

	resp, err := f.svc.CreateOrder(context.Background(), residentActor, models.CreateOrderRequest{DueID: 1})
	require.NoError(t, err)
	assert.Equal(t, "order_Q1", resp.OrderID)
	assert.Equal(t, int64(275000), resp.Amount)
	assert.Equal(t, int64(275000), f.gateway.amount)
	assert.Equal(t, "PHP", resp.Currency)

	tx, err := f.transactions.GetByOrderID(context.Background(), "order_Q1")
	require.NoError(t, err)
	assert.Equal(t, models.OnlineTxStatusPending, tx.Status)
	assert.True(t, tx.Amount.Equal(dec("2750")))
}

func TestCheckout_CreateOrderGuards(t *testing.T) {
	f := newCheckoutFixture(enabledSettings(), overdueDue())
	ctx := context.Background()

	_, err := f.svc.CreateOrder(ctx, models.Actor{ID: 99, Role: models.RoleHomeowner}, models.CreateOrderRequest{DueID: 1})
	assert.ErrorIs(t, err, utils.ErrForbidden)

	f.gateway.err = errors.New("connection reset")
	_, err = f.svc.CreateOrder(ctx, residentActor, models.CreateOrderRequest{DueID: 1})
	assert.ErrorIs(t, err, utils.ErrExternalService)
	assert.Empty(t, f.transactions.rows)
}

func TestCheckout_VerifySettlesDueOnce(t *testing.T) {
	f := newCheckoutFixture(enabledSettings(), overdueDue())
	ctx := context.Background()

	_, err := f.svc.CreateOrder(ctx, residentActor, models.CreateOrderRequest{DueID: 1})
	require.NoError(t, err)

	req := models.VerifyCheckoutRequest{
		RazorpayOrderID:   "order_Q1",
		RazorpayPaymentID: "pay_Q1",
		RazorpaySignature: sign("order_Q1", "pay_Q1"),
	}
	p, err := f.svc.VerifyCheckout(ctx, residentActor, req)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentMethodCard, p.Method)
	assert.Equal(t, models.VerificationVerified, p.Status)
	assert.Nil(t, p.VerifiedBy)

	due, err := f.dues.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, models.DueStatusPaid, due.Status)
	assert.Equal(t, []string{notify.EventPaymentUpdated}, f.hub.types())

	// replaying the callback returns the recorded payment
	again, err := f.svc.VerifyCheckout(ctx, residentActor, req)
	require.NoError(t, err)
	assert.Equal(t, p.ID, again.ID)

	_, err = f.svc.CreateOrder(ctx, residentActor, models.CreateOrderRequest{DueID: 1})
	assert.ErrorIs(t, err, utils.ErrAlreadyPaid)
}

func TestCheckout_BadSignatureFailsTransaction(t *testing.T) {
	f := newCheckoutFixture(enabledSettings(), overdueDue())
	ctx := context.Background()

	_, err := f.svc.CreateOrder(ctx, residentActor, models.CreateOrderRequest{DueID: 1})
	require.NoError(t, err)

	_, err = f.svc.VerifyCheckout(ctx, residentActor, models.VerifyCheckoutRequest{
		RazorpayOrderID:   "order_Q1",
		RazorpayPaymentID: "pay_Q1",
		RazorpaySignature: "deadbeef",
	})
	var vErr *utils.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "razorpay_signature", vErr.Field)

	tx, err := f.transactions.GetByOrderID(ctx, "order_Q1")
	require.NoError(t, err)
	assert.Equal(t, models.OnlineTxStatusFailed, tx.Status)

	due, err := f.dues.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, models.DueStatusOverdue, due.Status)

	_, err = f.svc.VerifyCheckout(ctx, residentActor, models.VerifyCheckoutRequest{
		RazorpayOrderID:   "order_Q1",
		RazorpayPaymentID: "pay_Q1",
		RazorpaySignature: sign("order_Q1", "pay_Q1"),
	})
	assert.ErrorIs(t, err, utils.ErrInvalidTransition)
}
