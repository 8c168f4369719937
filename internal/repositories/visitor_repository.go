package repositories

import (
	"context"
	"fmt"

	"hoa-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const visitorsTable = "visitors"

type VisitorRepository struct {
	DB *pgxpool.Pool
}

func NewVisitorRepository(db *pgxpool.Pool) *VisitorRepository {
	return &VisitorRepository{DB: db}
}

const visitorSelect = `
	SELECT v.id, v.host_id, u.name, u.unit, v.visitor_name, v.purpose, v.vehicle_plate, v.expected_date,
	       v.pass_code, v.status, v.entered_at, v.exited_at, v.created_at, v.row_version
	FROM visitors v
	JOIN users u ON u.id = v.host_id`

func scanVisitor(row pgx.Row) (*models.Visitor, error) {
	var v models.Visitor
	err := row.Scan(&v.ID, &v.HostID, &v.HostName, &v.Unit, &v.VisitorName, &v.Purpose, &v.VehiclePlate,
		&v.ExpectedDate, &v.PassCode, &v.Status, &v.EnteredAt, &v.ExitedAt, &v.CreatedAt, &v.RowVersion)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return &v, nil
}

// Create inserts a visitor pass. A pass-code collision returns created=false
// so the caller can retry with a fresh code.
func (r *VisitorRepository) Create(ctx context.Context, v *models.Visitor) (bool, error) {
	err := r.DB.QueryRow(ctx,
		`INSERT INTO visitors (host_id, visitor_name, purpose, vehicle_plate, expected_date, pass_code, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at, row_version`,
		v.HostID, v.VisitorName, v.Purpose, v.VehiclePlate, v.ExpectedDate, v.PassCode, v.Status,
	).Scan(&v.ID, &v.CreatedAt, &v.RowVersion)
	if isUniqueViolation(err, "") {
		return false, nil
	}
	return err == nil, err
}

func (r *VisitorRepository) Get(ctx context.Context, id int) (*models.Visitor, error) {
	return scanVisitor(r.DB.QueryRow(ctx, visitorSelect+` WHERE v.id = $1`, id))
}

func (r *VisitorRepository) GetByPassCode(ctx context.Context, code string) (*models.Visitor, error) {
	return scanVisitor(r.DB.QueryRow(ctx, visitorSelect+` WHERE v.pass_code = $1`, code))
}

func (r *VisitorRepository) List(ctx context.Context, filter models.VisitorFilter) ([]*models.Visitor, error) {
	query := visitorSelect + ` WHERE 1=1`
	var args []any
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND v.status = $%d", len(args))
	}
	if filter.Date != "" {
		args = append(args, filter.Date)
		query += fmt.Sprintf(" AND v.expected_date = $%d::date", len(args))
	}
	if filter.HostID != 0 {
		args = append(args, filter.HostID)
		query += fmt.Sprintf(" AND v.host_id = $%d", len(args))
	}
	query += " ORDER BY v.expected_date DESC, v.id DESC"

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []*models.Visitor
	for rows.Next() {
		v, err := scanVisitor(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, v)
	}
	return list, rows.Err()
}

// SaveStatus writes status and gate timestamps when the stored version matches.
func (r *VisitorRepository) SaveStatus(ctx context.Context, v *models.Visitor, expectedVersion int64) error {
	err := r.DB.QueryRow(ctx,
		`UPDATE visitors SET status = $3, entered_at = $4, exited_at = $5, row_version = row_version + 1
		 WHERE id = $1 AND row_version = $2
		 RETURNING row_version`,
		v.ID, expectedVersion, v.Status, v.EnteredAt, v.ExitedAt,
	).Scan(&v.RowVersion)
	if err != nil {
		return checkVersioned(ctx, r.DB, visitorsTable, v.ID, err)
	}
	return nil
}
