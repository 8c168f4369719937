package repositories

import (
	"context"

	"hoa-backend/internal/models"
	"hoa-backend/pkg/utils"

	"github.com/jackc/pgx/v5/pgxpool"
)

type OnlineTransactionRepository struct {
	DB *pgxpool.Pool
}

func NewOnlineTransactionRepository(db *pgxpool.Pool) *OnlineTransactionRepository {
	return &OnlineTransactionRepository{DB: db}
}

func (r *OnlineTransactionRepository) Create(ctx context.Context, tx *models.OnlineTransaction) error {
	return r.DB.QueryRow(ctx,
		`INSERT INTO online_transactions (razorpay_order_id, due_id, user_id, amount, currency, status)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at`,
		tx.RazorpayOrderID, tx.DueID, tx.UserID, tx.Amount, tx.Currency, tx.Status,
	).Scan(&tx.ID, &tx.CreatedAt)
}

func (r *OnlineTransactionRepository) GetByOrderID(ctx context.Context, orderID string) (*models.OnlineTransaction, error) {
	var tx models.OnlineTransaction
	err := r.DB.QueryRow(ctx,
		`SELECT id, razorpay_order_id, COALESCE(razorpay_payment_id, ''), due_id, user_id, amount, currency,
		        status, failure_reason, payment_id, created_at, completed_at
		 FROM online_transactions WHERE razorpay_order_id = $1`, orderID,
	).Scan(&tx.ID, &tx.RazorpayOrderID, &tx.RazorpayPaymentID, &tx.DueID, &tx.UserID, &tx.Amount,
		&tx.Currency, &tx.Status, &tx.FailureReason, &tx.PaymentID, &tx.CreatedAt, &tx.CompletedAt)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return &tx, nil
}

// MarkSuccess completes a pending order and links the recorded payment.
// Completing an order twice returns utils.ErrInvalidTransition.
func (r *OnlineTransactionRepository) MarkSuccess(ctx context.Context, orderID, razorpayPaymentID string, paymentID int) error {
	tag, err := r.DB.Exec(ctx,
		`UPDATE online_transactions
		 SET status = 'success', razorpay_payment_id = $2, payment_id = $3, completed_at = NOW()
		 WHERE razorpay_order_id = $1 AND status = 'pending'`,
		orderID, razorpayPaymentID, paymentID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return utils.ErrInvalidTransition
	}
	return nil
}

func (r *OnlineTransactionRepository) MarkFailed(ctx context.Context, orderID, reason string) error {
	_, err := r.DB.Exec(ctx,
		`UPDATE online_transactions SET status = 'failed', failure_reason = $2, completed_at = NOW()
		 WHERE razorpay_order_id = $1 AND status = 'pending'`, orderID, reason)
	return err
}
