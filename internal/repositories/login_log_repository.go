package repositories

import (
	"context"

	"hoa-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

type LoginLogRepository struct {
	DB *pgxpool.Pool
}

func NewLoginLogRepository(db *pgxpool.Pool) *LoginLogRepository {
	return &LoginLogRepository{DB: db}
}

// CreateLoginLog records a login attempt, successful or not
func (r *LoginLogRepository) CreateLoginLog(ctx context.Context, l *models.LoginLog) error {
	return r.DB.QueryRow(ctx,
		`INSERT INTO login_logs (user_id, email, success, ip_address, user_agent)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		l.UserID, l.Email, l.Success, l.IPAddress, l.UserAgent,
	).Scan(&l.ID, &l.CreatedAt)
}

func (r *LoginLogRepository) ListLoginLogs(ctx context.Context, limit int) ([]*models.LoginLog, error) {
	if limit <= 0 || limit > 1000 {
		limit = 200
	}
	rows, err := r.DB.Query(ctx,
		`SELECT id, user_id, email, success, ip_address, user_agent, created_at
		 FROM login_logs ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []*models.LoginLog
	for rows.Next() {
		var l models.LoginLog
		if err := rows.Scan(&l.ID, &l.UserID, &l.Email, &l.Success, &l.IPAddress, &l.UserAgent, &l.CreatedAt); err != nil {
			return nil, err
		}
		logs = append(logs, &l)
	}
	return logs, rows.Err()
}
