package repositories

import (
	"context"

	"hoa-backend/internal/models"
	"hoa-backend/pkg/utils"

	"github.com/jackc/pgx/v5/pgxpool"
)

type CameraRepository struct {
	DB *pgxpool.Pool
}

func NewCameraRepository(db *pgxpool.Pool) *CameraRepository {
	return &CameraRepository{DB: db}
}

func (r *CameraRepository) Create(ctx context.Context, c *models.Camera) error {
	return r.DB.QueryRow(ctx,
		`INSERT INTO cameras (name, location, stream_url, status)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at, updated_at`,
		c.Name, c.Location, c.StreamURL, c.Status,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
}

func (r *CameraRepository) List(ctx context.Context) ([]*models.Camera, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT id, name, location, stream_url, status, created_at, updated_at FROM cameras ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []*models.Camera
	for rows.Next() {
		var c models.Camera
		if err := rows.Scan(&c.ID, &c.Name, &c.Location, &c.StreamURL, &c.Status, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, &c)
	}
	return list, rows.Err()
}

func (r *CameraRepository) Update(ctx context.Context, c *models.Camera) error {
	err := r.DB.QueryRow(ctx,
		`UPDATE cameras SET name = $2, location = $3, stream_url = $4, status = $5, updated_at = NOW()
		 WHERE id = $1
		 RETURNING created_at, updated_at`,
		c.ID, c.Name, c.Location, c.StreamURL, c.Status,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	return mapNoRows(err)
}

func (r *CameraRepository) Delete(ctx context.Context, id int) error {
	tag, err := r.DB.Exec(ctx, `DELETE FROM cameras WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return utils.ErrNotFound
	}
	return nil
}
