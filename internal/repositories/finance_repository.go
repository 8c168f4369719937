package repositories

import (
	"context"

	"hoa-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// FinanceRepository runs the aggregate queries behind the finance report.
type FinanceRepository struct {
	DB *pgxpool.Pool
}

func NewFinanceRepository(db *pgxpool.Pool) *FinanceRepository {
	return &FinanceRepository{DB: db}
}

// VerifiedPaymentsByMethod sums verified due payments per method.
func (r *FinanceRepository) VerifiedPaymentsByMethod(ctx context.Context) ([]models.MethodAmount, error) {
	return r.methodAmounts(ctx,
		`SELECT method, SUM(amount) FROM payments WHERE status = 'verified' GROUP BY method ORDER BY method`)
}

// VerifiedContributionsByMethod sums verified project contributions per method.
func (r *FinanceRepository) VerifiedContributionsByMethod(ctx context.Context) ([]models.MethodAmount, error) {
	return r.methodAmounts(ctx,
		`SELECT method, SUM(amount) FROM project_contributions WHERE status = 'verified' GROUP BY method ORDER BY method`)
}

// ExpensesByCategory sums expenses per category, largest first.
func (r *FinanceRepository) ExpensesByCategory(ctx context.Context) ([]models.CategoryAmount, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT category, SUM(amount) FROM expenses GROUP BY category ORDER BY SUM(amount) DESC, category`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.CategoryAmount
	for rows.Next() {
		var c models.CategoryAmount
		if err := rows.Scan(&c.Category, &c.Amount); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ExpensesByChannel sums expenses per cash channel.
func (r *FinanceRepository) ExpensesByChannel(ctx context.Context) ([]models.ChannelAmount, error) {
	rows, err := r.DB.Query(ctx, `SELECT channel, SUM(amount) FROM expenses GROUP BY channel`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ChannelAmount
	for rows.Next() {
		var c models.ChannelAmount
		if err := rows.Scan(&c.Channel, &c.Amount); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *FinanceRepository) methodAmounts(ctx context.Context, query string) ([]models.MethodAmount, error) {
	rows, err := r.DB.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.MethodAmount
	for rows.Next() {
		var m models.MethodAmount
		if err := rows.Scan(&m.Method, &m.Amount); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
