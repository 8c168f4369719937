package repositories

import (
	"context"

	"hoa-backend/internal/models"
	"hoa-backend/pkg/utils"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const projectsTable = "projects"

type ProjectRepository struct {
	DB *pgxpool.Pool
}

func NewProjectRepository(db *pgxpool.Pool) *ProjectRepository {
	return &ProjectRepository{DB: db}
}

const projectColumns = `id, name, description, budget, funds_allocated, funds_spent, status,
	start_date, end_date, COALESCE(created_by, 0), created_at, updated_at, row_version`

func scanProject(row pgx.Row) (*models.Project, error) {
	var p models.Project
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Budget, &p.FundsAllocated, &p.FundsSpent,
		&p.Status, &p.StartDate, &p.EndDate, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt, &p.RowVersion)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return &p, nil
}

func (r *ProjectRepository) Create(ctx context.Context, p *models.Project) error {
	return r.DB.QueryRow(ctx,
		`INSERT INTO projects (name, description, budget, funds_allocated, funds_spent, status,
		                       start_date, end_date, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, 0))
		 RETURNING id, created_at, updated_at, row_version`,
		p.Name, p.Description, p.Budget, p.FundsAllocated, p.FundsSpent, p.Status,
		p.StartDate, p.EndDate, p.CreatedBy,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt, &p.RowVersion)
}

func (r *ProjectRepository) Get(ctx context.Context, id int) (*models.Project, error) {
	return scanProject(r.DB.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1`, id))
}

func (r *ProjectRepository) List(ctx context.Context) ([]*models.Project, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []*models.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// Update writes all editable fields when the stored version matches.
func (r *ProjectRepository) Update(ctx context.Context, p *models.Project, expectedVersion int64) error {
	err := r.DB.QueryRow(ctx,
		`UPDATE projects
		 SET name = $3, description = $4, budget = $5, funds_allocated = $6, funds_spent = $7,
		     status = $8, start_date = $9, end_date = $10, row_version = row_version + 1, updated_at = NOW()
		 WHERE id = $1 AND row_version = $2
		 RETURNING row_version, updated_at`,
		p.ID, expectedVersion, p.Name, p.Description, p.Budget, p.FundsAllocated, p.FundsSpent,
		p.Status, p.StartDate, p.EndDate,
	).Scan(&p.RowVersion, &p.UpdatedAt)
	if err != nil {
		return checkVersioned(ctx, r.DB, projectsTable, p.ID, err)
	}
	return nil
}

func (r *ProjectRepository) Delete(ctx context.Context, id int) error {
	tag, err := r.DB.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return utils.ErrNotFound
	}
	return nil
}
