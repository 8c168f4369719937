package repositories

import (
	"context"
	"fmt"

	"hoa-backend/internal/models"
	"hoa-backend/pkg/utils"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const reservationsTable = "amenity_reservations"

type ReservationRepository struct {
	DB *pgxpool.Pool
}

func NewReservationRepository(db *pgxpool.Pool) *ReservationRepository {
	return &ReservationRepository{DB: db}
}

const reservationSelect = `
	SELECT r.id, r.amenity, r.user_id, u.name, r.start_time, r.end_time, r.purpose, r.guest_count,
	       r.status, r.admin_notes, r.decided_by, r.decided_at, r.created_at, r.row_version
	FROM amenity_reservations r
	JOIN users u ON u.id = r.user_id`

func scanReservation(row pgx.Row) (*models.Reservation, error) {
	var res models.Reservation
	err := row.Scan(&res.ID, &res.Amenity, &res.UserID, &res.UserName, &res.StartTime, &res.EndTime,
		&res.Purpose, &res.GuestCount, &res.Status, &res.AdminNotes, &res.DecidedBy, &res.DecidedAt,
		&res.CreatedAt, &res.RowVersion)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return &res, nil
}

func (r *ReservationRepository) Create(ctx context.Context, res *models.Reservation) error {
	return r.DB.QueryRow(ctx,
		`INSERT INTO amenity_reservations (amenity, user_id, start_time, end_time, purpose, guest_count, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at, row_version`,
		res.Amenity, res.UserID, res.StartTime, res.EndTime, res.Purpose, res.GuestCount, res.Status,
	).Scan(&res.ID, &res.CreatedAt, &res.RowVersion)
}

func (r *ReservationRepository) Get(ctx context.Context, id int) (*models.Reservation, error) {
	return scanReservation(r.DB.QueryRow(ctx, reservationSelect+` WHERE r.id = $1`, id))
}

func (r *ReservationRepository) List(ctx context.Context, filter models.ReservationFilter) ([]*models.Reservation, error) {
	query := reservationSelect + ` WHERE 1=1`
	var args []any
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND r.status = $%d", len(args))
	}
	if filter.Amenity != "" {
		args = append(args, filter.Amenity)
		query += fmt.Sprintf(" AND r.amenity = $%d", len(args))
	}
	if filter.UserID != 0 {
		args = append(args, filter.UserID)
		query += fmt.Sprintf(" AND r.user_id = $%d", len(args))
	}
	query += " ORDER BY r.start_time DESC"

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []*models.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, res)
	}
	return list, rows.Err()
}

// SaveStatus persists a status decision when the stored version matches.
// Approvals take a per-amenity advisory lock and fail with
// utils.ErrBookingConflict if another approved booking overlaps.
func (r *ReservationRepository) SaveStatus(ctx context.Context, res *models.Reservation, expectedVersion int64) error {
	return inTx(ctx, r.DB, func(tx pgx.Tx) error {
		if res.Status == models.ReservationApproved {
			if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, res.Amenity); err != nil {
				return err
			}
			var clash bool
			err := tx.QueryRow(ctx,
				`SELECT EXISTS(
				   SELECT 1 FROM amenity_reservations
				   WHERE amenity = $1 AND status = 'approved' AND id <> $2
				     AND start_time < $4 AND $3 < end_time)`,
				res.Amenity, res.ID, res.StartTime, res.EndTime,
			).Scan(&clash)
			if err != nil {
				return err
			}
			if clash {
				return utils.ErrBookingConflict
			}
		}

		err := tx.QueryRow(ctx,
			`UPDATE amenity_reservations
			 SET status = $3, admin_notes = $4, decided_by = $5, decided_at = $6, row_version = row_version + 1
			 WHERE id = $1 AND row_version = $2
			 RETURNING row_version`,
			res.ID, expectedVersion, res.Status, res.AdminNotes, res.DecidedBy, res.DecidedAt,
		).Scan(&res.RowVersion)
		if err != nil {
			return checkVersioned(ctx, tx, reservationsTable, res.ID, err)
		}
		return nil
	})
}
