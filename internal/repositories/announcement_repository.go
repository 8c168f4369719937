package repositories

import (
	"context"

	"hoa-backend/internal/models"
	"hoa-backend/pkg/utils"

	"github.com/jackc/pgx/v5/pgxpool"
)

type AnnouncementRepository struct {
	DB *pgxpool.Pool
}

func NewAnnouncementRepository(db *pgxpool.Pool) *AnnouncementRepository {
	return &AnnouncementRepository{DB: db}
}

func (r *AnnouncementRepository) Create(ctx context.Context, a *models.Announcement) error {
	return r.DB.QueryRow(ctx,
		`INSERT INTO announcements (title, body, category, pinned, author_id)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		a.Title, a.Body, a.Category, a.Pinned, a.AuthorID,
	).Scan(&a.ID, &a.CreatedAt)
}

// List returns announcements, pinned first, then newest first
func (r *AnnouncementRepository) List(ctx context.Context) ([]*models.Announcement, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT a.id, a.title, a.body, a.category, a.pinned, COALESCE(a.author_id, 0), COALESCE(u.name, ''), a.created_at
		FROM announcements a
		LEFT JOIN users u ON u.id = a.author_id
		ORDER BY a.pinned DESC, a.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []*models.Announcement
	for rows.Next() {
		var a models.Announcement
		if err := rows.Scan(&a.ID, &a.Title, &a.Body, &a.Category, &a.Pinned, &a.AuthorID, &a.AuthorName, &a.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, &a)
	}
	return list, rows.Err()
}

func (r *AnnouncementRepository) Delete(ctx context.Context, id int) error {
	tag, err := r.DB.Exec(ctx, `DELETE FROM announcements WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return utils.ErrNotFound
	}
	return nil
}
