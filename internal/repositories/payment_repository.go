package repositories

import (
	"context"
	"fmt"
	"time"

	"hoa-backend/internal/models"
	"hoa-backend/pkg/utils"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	paymentsTable          = "payments"
	activePaymentIndexName = "uq_payments_active_due"
)

type PaymentRepository struct {
	DB *pgxpool.Pool
}

func NewPaymentRepository(db *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{DB: db}
}

const paymentSelect = `
	SELECT p.id, p.due_id, p.payer_id, u.name, p.amount, p.method, p.proof_key, p.proof_thumb_key,
	       p.reference, p.paid_at, p.created_at, p.status, p.notes, p.verified_by, p.verified_at,
	       p.row_version
	FROM payments p
	JOIN users u ON u.id = p.payer_id`

func scanPayment(row pgx.Row) (*models.Payment, error) {
	var p models.Payment
	err := row.Scan(&p.ID, &p.DueID, &p.PayerID, &p.PayerName, &p.Amount, &p.Method, &p.ProofKey,
		&p.ProofThumbKey, &p.Reference, &p.PaidAt, &p.CreatedAt, &p.Status, &p.Notes,
		&p.VerifiedBy, &p.VerifiedAt, &p.RowVersion)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return &p, nil
}

func insertPayment(ctx context.Context, q querier, p *models.Payment) error {
	err := q.QueryRow(ctx,
		`INSERT INTO payments (due_id, payer_id, amount, method, proof_key, proof_thumb_key,
		                       reference, status, notes, verified_by, verified_at, paid_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 RETURNING id, created_at, row_version`,
		p.DueID, p.PayerID, p.Amount, p.Method, p.ProofKey, p.ProofThumbKey,
		p.Reference, p.Status, p.Notes, p.VerifiedBy, p.VerifiedAt, p.PaidAt,
	).Scan(&p.ID, &p.CreatedAt, &p.RowVersion)
	if isUniqueViolation(err, activePaymentIndexName) {
		return utils.ErrActivePayment
	}
	return err
}

// Create inserts a payment. A second active payment for the same due fails
// with utils.ErrActivePayment.
func (r *PaymentRepository) Create(ctx context.Context, p *models.Payment) error {
	return insertPayment(ctx, r.DB, p)
}

// CreateSettled inserts an already verified payment and marks its due paid in
// one transaction.
func (r *PaymentRepository) CreateSettled(ctx context.Context, p *models.Payment) error {
	return inTx(ctx, r.DB, func(tx pgx.Tx) error {
		if err := insertPayment(ctx, tx, p); err != nil {
			return err
		}
		return settleDue(ctx, tx, p.DueID, *p.VerifiedAt)
	})
}

// CreateCashSettlement marks the due paid when its stored version matches
// dueVersion and inserts the verified cash payment, in one transaction.
func (r *PaymentRepository) CreateCashSettlement(ctx context.Context, p *models.Payment, dueVersion int64) error {
	return inTx(ctx, r.DB, func(tx pgx.Tx) error {
		var version int64
		err := tx.QueryRow(ctx,
			`UPDATE dues SET status = 'paid', paid_at = $3, row_version = row_version + 1, updated_at = NOW()
			 WHERE id = $1 AND row_version = $2 AND status <> 'paid'
			 RETURNING row_version`,
			p.DueID, dueVersion, *p.VerifiedAt,
		).Scan(&version)
		if err != nil {
			return checkVersioned(ctx, tx, duesTable, p.DueID, err)
		}
		return insertPayment(ctx, tx, p)
	})
}

func (r *PaymentRepository) Get(ctx context.Context, id int) (*models.Payment, error) {
	return scanPayment(r.DB.QueryRow(ctx, paymentSelect+` WHERE p.id = $1`, id))
}

// ActiveForDue returns the pending or verified payment of a due, if any.
func (r *PaymentRepository) ActiveForDue(ctx context.Context, dueID int) (*models.Payment, error) {
	return scanPayment(r.DB.QueryRow(ctx,
		paymentSelect+` WHERE p.due_id = $1 AND p.status IN ('pending', 'verified')`, dueID))
}

// LatestForDues returns the most recent payment of each due in dueIDs.
func (r *PaymentRepository) LatestForDues(ctx context.Context, dueIDs []int) (map[int]*models.Payment, error) {
	latest := make(map[int]*models.Payment, len(dueIDs))
	if len(dueIDs) == 0 {
		return latest, nil
	}

	rows, err := r.DB.Query(ctx, `
		SELECT DISTINCT ON (p.due_id)
		       p.id, p.due_id, p.payer_id, u.name, p.amount, p.method, p.proof_key, p.proof_thumb_key,
		       p.reference, p.paid_at, p.created_at, p.status, p.notes, p.verified_by, p.verified_at,
		       p.row_version
		FROM payments p
		JOIN users u ON u.id = p.payer_id
		WHERE p.due_id = ANY($1)
		ORDER BY p.due_id, p.created_at DESC, p.id DESC`, dueIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		latest[p.DueID] = p
	}
	return latest, rows.Err()
}

func (r *PaymentRepository) List(ctx context.Context, filter models.PaymentFilter) ([]*models.Payment, error) {
	query := paymentSelect + ` WHERE 1=1`
	var args []any
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND p.status = $%d", len(args))
	}
	if filter.PayerID != 0 {
		args = append(args, filter.PayerID)
		query += fmt.Sprintf(" AND p.payer_id = $%d", len(args))
	}
	if filter.DueID != 0 {
		args = append(args, filter.DueID)
		query += fmt.Sprintf(" AND p.due_id = $%d", len(args))
	}
	query += " ORDER BY p.created_at DESC"

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []*models.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// SaveDecision persists a verify/reject decision when the stored version
// matches expectedVersion. A verified payment marks its due paid in the same
// transaction.
func (r *PaymentRepository) SaveDecision(ctx context.Context, p *models.Payment, expectedVersion int64) error {
	return inTx(ctx, r.DB, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`UPDATE payments
			 SET status = $3, notes = $4, verified_by = $5, verified_at = $6, row_version = row_version + 1
			 WHERE id = $1 AND row_version = $2
			 RETURNING row_version`,
			p.ID, expectedVersion, p.Status, p.Notes, p.VerifiedBy, p.VerifiedAt,
		).Scan(&p.RowVersion)
		if err != nil {
			return checkVersioned(ctx, tx, paymentsTable, p.ID, err)
		}
		if p.Status == models.VerificationVerified {
			return settleDue(ctx, tx, p.DueID, *p.VerifiedAt)
		}
		return nil
	})
}

func settleDue(ctx context.Context, q querier, dueID int, at time.Time) error {
	_, err := q.Exec(ctx,
		`UPDATE dues SET status = 'paid', paid_at = $2, row_version = row_version + 1, updated_at = NOW()
		 WHERE id = $1 AND status <> 'paid'`, dueID, at)
	return err
}
