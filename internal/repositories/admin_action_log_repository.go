package repositories

import (
	"context"

	"hoa-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

type AdminActionLogRepository struct {
	DB *pgxpool.Pool
}

func NewAdminActionLogRepository(db *pgxpool.Pool) *AdminActionLogRepository {
	return &AdminActionLogRepository{DB: db}
}

// CreateActionLog records an admin action
func (r *AdminActionLogRepository) CreateActionLog(ctx context.Context, log *models.AdminActionLog) error {
	return r.DB.QueryRow(ctx, `
		INSERT INTO admin_action_logs (
			admin_user_id, action_type, target_type, target_id,
			description, old_value, new_value, ip_address
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`,
		log.AdminUserID, log.ActionType, log.TargetType, log.TargetID,
		log.Description, log.OldValue, log.NewValue, log.IPAddress,
	).Scan(&log.ID, &log.CreatedAt)
}

// ListActionLogs returns the latest admin actions with the admin's name
func (r *AdminActionLogRepository) ListActionLogs(ctx context.Context, limit int) ([]*models.AdminActionLog, error) {
	if limit <= 0 || limit > 1000 {
		limit = 200
	}
	rows, err := r.DB.Query(ctx, `
		SELECT al.id, al.admin_user_id, u.name, al.action_type, al.target_type, al.target_id,
		       al.description, al.old_value, al.new_value, al.ip_address, al.created_at
		FROM admin_action_logs al
		JOIN users u ON al.admin_user_id = u.id
		ORDER BY al.created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []*models.AdminActionLog
	for rows.Next() {
		var l models.AdminActionLog
		if err := rows.Scan(&l.ID, &l.AdminUserID, &l.AdminName, &l.ActionType, &l.TargetType, &l.TargetID,
			&l.Description, &l.OldValue, &l.NewValue, &l.IPAddress, &l.CreatedAt); err != nil {
			return nil, err
		}
		logs = append(logs, &l)
	}
	return logs, rows.Err()
}
