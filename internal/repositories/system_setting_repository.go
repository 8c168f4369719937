package repositories

import (
	"context"

	"hoa-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SystemSettingRepository struct {
	DB *pgxpool.Pool
}

func NewSystemSettingRepository(db *pgxpool.Pool) *SystemSettingRepository {
	return &SystemSettingRepository{DB: db}
}

const settingColumns = `id, setting_key, setting_value, description, updated_at, COALESCE(updated_by_user_id, 0)`

func scanSetting(row pgx.Row) (*models.SystemSetting, error) {
	s := &models.SystemSetting{}
	err := row.Scan(&s.ID, &s.SettingKey, &s.SettingValue, &s.Description, &s.UpdatedAt, &s.UpdatedByUserID)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return s, nil
}

func (r *SystemSettingRepository) Get(ctx context.Context, key string) (*models.SystemSetting, error) {
	return scanSetting(r.DB.QueryRow(ctx,
		`SELECT `+settingColumns+` FROM system_settings WHERE setting_key = $1`, key))
}

func (r *SystemSettingRepository) List(ctx context.Context) ([]*models.SystemSetting, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+settingColumns+` FROM system_settings ORDER BY setting_key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var settings []*models.SystemSetting
	for rows.Next() {
		s, err := scanSetting(rows)
		if err != nil {
			return nil, err
		}
		settings = append(settings, s)
	}
	return settings, rows.Err()
}

// UpsertMany writes several settings in one transaction
func (r *SystemSettingRepository) UpsertMany(ctx context.Context, values map[string]string, userID int) error {
	return inTx(ctx, r.DB, func(tx pgx.Tx) error {
		for key, value := range values {
			_, err := tx.Exec(ctx, `
				INSERT INTO system_settings (setting_key, setting_value, updated_at, updated_by_user_id)
				VALUES ($1, $2, NOW(), $3)
				ON CONFLICT (setting_key)
				DO UPDATE SET setting_value = $2, updated_at = NOW(), updated_by_user_id = $3`,
				key, value, userID)
			if err != nil {
				return err
			}
		}
		return nil
	})
}
