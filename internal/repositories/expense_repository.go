package repositories

import (
	"context"

	"hoa-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

type ExpenseRepository struct {
	DB *pgxpool.Pool
}

func NewExpenseRepository(db *pgxpool.Pool) *ExpenseRepository {
	return &ExpenseRepository{DB: db}
}

func (r *ExpenseRepository) Create(ctx context.Context, e *models.Expense) error {
	return r.DB.QueryRow(ctx,
		`INSERT INTO expenses (category, description, amount, expense_date, channel, recorded_by)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at`,
		e.Category, e.Description, e.Amount, e.ExpenseDate, e.Channel, e.RecordedBy,
	).Scan(&e.ID, &e.CreatedAt)
}

func (r *ExpenseRepository) List(ctx context.Context) ([]*models.Expense, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT id, category, description, amount, expense_date, channel, COALESCE(recorded_by, 0), created_at
		 FROM expenses ORDER BY expense_date DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []*models.Expense
	for rows.Next() {
		var e models.Expense
		if err := rows.Scan(&e.ID, &e.Category, &e.Description, &e.Amount, &e.ExpenseDate,
			&e.Channel, &e.RecordedBy, &e.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, &e)
	}
	return list, rows.Err()
}
