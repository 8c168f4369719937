package repositories

import (
	"context"

	"hoa-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const contributionsTable = "project_contributions"

type ContributionRepository struct {
	DB *pgxpool.Pool
}

func NewContributionRepository(db *pgxpool.Pool) *ContributionRepository {
	return &ContributionRepository{DB: db}
}

const contributionSelect = `
	SELECT c.id, c.project_id, p.name, c.contributor_id, u.name, c.amount, c.method, c.proof_key,
	       c.proof_thumb_key, c.created_at, c.status, c.notes, c.verified_by, c.verified_at, c.row_version
	FROM project_contributions c
	JOIN projects p ON p.id = c.project_id
	JOIN users u ON u.id = c.contributor_id`

func scanContribution(row pgx.Row) (*models.Contribution, error) {
	var c models.Contribution
	err := row.Scan(&c.ID, &c.ProjectID, &c.ProjectName, &c.ContributorID, &c.ContributorName,
		&c.Amount, &c.Method, &c.ProofKey, &c.ProofThumbKey, &c.CreatedAt, &c.Status, &c.Notes,
		&c.VerifiedBy, &c.VerifiedAt, &c.RowVersion)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return &c, nil
}

func insertContribution(ctx context.Context, q querier, c *models.Contribution) error {
	return q.QueryRow(ctx,
		`INSERT INTO project_contributions (project_id, contributor_id, amount, method, proof_key,
		                                    proof_thumb_key, status, notes, verified_by, verified_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id, created_at, row_version`,
		c.ProjectID, c.ContributorID, c.Amount, c.Method, c.ProofKey, c.ProofThumbKey,
		c.Status, c.Notes, c.VerifiedBy, c.VerifiedAt,
	).Scan(&c.ID, &c.CreatedAt, &c.RowVersion)
}

func (r *ContributionRepository) Create(ctx context.Context, c *models.Contribution) error {
	return insertContribution(ctx, r.DB, c)
}

// CreateVerified inserts an admin-recorded contribution and credits the
// project's allocated funds in one transaction.
func (r *ContributionRepository) CreateVerified(ctx context.Context, c *models.Contribution) error {
	return inTx(ctx, r.DB, func(tx pgx.Tx) error {
		if err := insertContribution(ctx, tx, c); err != nil {
			return err
		}
		return creditProject(ctx, tx, c.ProjectID, c.Amount)
	})
}

func (r *ContributionRepository) Get(ctx context.Context, id int) (*models.Contribution, error) {
	return scanContribution(r.DB.QueryRow(ctx, contributionSelect+` WHERE c.id = $1`, id))
}

// List returns contributions of one project, or of all projects when projectID is 0.
func (r *ContributionRepository) List(ctx context.Context, projectID int) ([]*models.Contribution, error) {
	query := contributionSelect + ` WHERE ($1 = 0 OR c.project_id = $1) ORDER BY c.created_at DESC`
	rows, err := r.DB.Query(ctx, query, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []*models.Contribution
	for rows.Next() {
		c, err := scanContribution(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

// SaveDecision persists a verify/reject decision. Verified amounts are added
// to the project's allocated funds in the same transaction.
func (r *ContributionRepository) SaveDecision(ctx context.Context, c *models.Contribution, expectedVersion int64) error {
	return inTx(ctx, r.DB, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`UPDATE project_contributions
			 SET status = $3, notes = $4, verified_by = $5, verified_at = $6, row_version = row_version + 1
			 WHERE id = $1 AND row_version = $2
			 RETURNING row_version`,
			c.ID, expectedVersion, c.Status, c.Notes, c.VerifiedBy, c.VerifiedAt,
		).Scan(&c.RowVersion)
		if err != nil {
			return checkVersioned(ctx, tx, contributionsTable, c.ID, err)
		}
		if c.Status == models.VerificationVerified {
			return creditProject(ctx, tx, c.ProjectID, c.Amount)
		}
		return nil
	})
}

func creditProject(ctx context.Context, q querier, projectID int, amount decimal.Decimal) error {
	_, err := q.Exec(ctx,
		`UPDATE projects SET funds_allocated = funds_allocated + $2, row_version = row_version + 1, updated_at = NOW()
		 WHERE id = $1`, projectID, amount)
	return err
}
