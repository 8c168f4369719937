package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hoa-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const duesTable = "dues"

type DueRepository struct {
	DB *pgxpool.Pool
}

func NewDueRepository(db *pgxpool.Pool) *DueRepository {
	return &DueRepository{DB: db}
}

const dueSelect = `
	SELECT d.id, d.owner_id, u.name, u.unit, d.period, d.amount, d.penalty, d.due_date,
	       d.status, d.paid_at, d.created_at, d.updated_at, d.row_version
	FROM dues d
	JOIN users u ON u.id = d.owner_id`

func scanDue(row pgx.Row) (*models.Due, error) {
	var d models.Due
	err := row.Scan(&d.ID, &d.OwnerID, &d.OwnerName, &d.Unit, &d.Period, &d.Amount, &d.Penalty,
		&d.DueDate, &d.Status, &d.PaidAt, &d.CreatedAt, &d.UpdatedAt, &d.RowVersion)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return &d, nil
}

// CreateIfAbsent inserts the due unless the owner already has one for the
// period. created is false when it already existed.
func (r *DueRepository) CreateIfAbsent(ctx context.Context, d *models.Due) (bool, error) {
	err := r.DB.QueryRow(ctx,
		`INSERT INTO dues (owner_id, period, amount, penalty, due_date, status)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (owner_id, period) DO NOTHING
		 RETURNING id, created_at, updated_at, row_version`,
		d.OwnerID, d.Period, d.Amount, d.Penalty, d.DueDate, d.Status,
	).Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt, &d.RowVersion)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *DueRepository) Get(ctx context.Context, id int) (*models.Due, error) {
	return scanDue(r.DB.QueryRow(ctx, dueSelect+` WHERE d.id = $1`, id))
}

// List returns dues matching filter, latest period first
func (r *DueRepository) List(ctx context.Context, filter models.DueFilter) ([]*models.Due, error) {
	query := dueSelect + ` WHERE 1=1`
	var args []any
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND d.status = $%d", len(args))
	}
	if filter.Period != "" {
		args = append(args, filter.Period)
		query += fmt.Sprintf(" AND d.period = $%d", len(args))
	}
	if filter.OwnerID != 0 {
		args = append(args, filter.OwnerID)
		query += fmt.Sprintf(" AND d.owner_id = $%d", len(args))
	}
	query += " ORDER BY d.period DESC, u.unit, d.id"
	return r.query(ctx, query, args...)
}

// ListOutstanding returns unpaid and overdue dues, oldest first.
func (r *DueRepository) ListOutstanding(ctx context.Context) ([]*models.Due, error) {
	return r.query(ctx, dueSelect+` WHERE d.status IN ('unpaid', 'overdue') ORDER BY d.due_date, d.id`)
}

// noActivePayment excludes dues whose payment is pending review or verified.
const noActivePayment = `NOT EXISTS (
	SELECT 1 FROM payments p WHERE p.due_id = d.id AND p.status IN ('pending', 'verified'))`

// ListPastDue returns unpaid dues whose due date is before now and that have
// no active payment.
func (r *DueRepository) ListPastDue(ctx context.Context, now time.Time) ([]*models.Due, error) {
	return r.query(ctx, dueSelect+` WHERE d.status = 'unpaid' AND d.due_date < $1 AND `+noActivePayment+` ORDER BY d.id`, now)
}

func (r *DueRepository) query(ctx context.Context, query string, args ...any) ([]*models.Due, error) {
	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var dues []*models.Due
	for rows.Next() {
		d, err := scanDue(rows)
		if err != nil {
			return nil, err
		}
		dues = append(dues, d)
	}
	return dues, rows.Err()
}

// MarkOverdue flips an unpaid due to overdue and sets its penalty.
func (r *DueRepository) MarkOverdue(ctx context.Context, d *models.Due, penalty decimal.Decimal) error {
	err := r.DB.QueryRow(ctx,
		`UPDATE dues d SET status = 'overdue', penalty = $3, row_version = row_version + 1, updated_at = NOW()
		 WHERE d.id = $1 AND d.row_version = $2 AND d.status = 'unpaid' AND `+noActivePayment+`
		 RETURNING d.row_version`,
		d.ID, d.RowVersion, penalty,
	).Scan(&d.RowVersion)
	if err != nil {
		return checkVersioned(ctx, r.DB, duesTable, d.ID, err)
	}
	d.Status = models.DueStatusOverdue
	d.Penalty = penalty
	return nil
}
