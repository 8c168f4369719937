package repositories

import (
	"context"
	"fmt"
	"strings"

	"hoa-backend/internal/models"
	"hoa-backend/pkg/utils"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepository struct {
	DB *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{DB: db}
}

const userColumns = `id, name, email, phone, unit, password_hash, role, status,
	COALESCE(totp_secret, ''), totp_enabled, totp_verified_at, COALESCE(backup_codes, ''),
	created_at, updated_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.Unit, &u.PasswordHash,
		&u.Role, &u.Status, &u.TOTPSecret, &u.TOTPEnabled, &u.TOTPVerifiedAt, &u.BackupCodes,
		&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return &u, nil
}

func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	if u.Role == "" {
		u.Role = models.RoleHomeowner
	}
	if u.Status == "" {
		u.Status = models.UserStatusPending
	}
	err := r.DB.QueryRow(ctx,
		`INSERT INTO users(name, email, phone, unit, password_hash, role, status)
         VALUES($1, $2, $3, $4, $5, $6, $7)
         RETURNING id, created_at, updated_at`,
		u.Name, strings.ToLower(u.Email), u.Phone, u.Unit, u.PasswordHash, u.Role, u.Status,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if isUniqueViolation(err, "") {
		return utils.ErrEmailExists
	}
	return err
}

func (r *UserRepository) Get(ctx context.Context, id int) (*models.User, error) {
	return scanUser(r.DB.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return scanUser(r.DB.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email=$1`, strings.ToLower(email)))
}

// List returns users matching filter, newest first
func (r *UserRepository) List(ctx context.Context, filter models.UserFilter) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE 1=1`
	var args []any
	if filter.Role != "" {
		args = append(args, filter.Role)
		query += fmt.Sprintf(" AND role=$%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND status=$%d", len(args))
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// ListActiveHomeowners returns the accounts dues are generated for.
func (r *UserRepository) ListActiveHomeowners(ctx context.Context) ([]*models.User, error) {
	return r.List(ctx, models.UserFilter{Role: models.RoleHomeowner, Status: models.UserStatusActive})
}

// Update writes profile, role and status fields
func (r *UserRepository) Update(ctx context.Context, u *models.User) error {
	tag, err := r.DB.Exec(ctx,
		`UPDATE users SET name=$1, phone=$2, unit=$3, role=$4, status=$5, updated_at=NOW()
         WHERE id=$6`,
		u.Name, u.Phone, u.Unit, u.Role, u.Status, u.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return utils.ErrNotFound
	}
	return nil
}

// SetTOTPSecret stores the TOTP secret for a user (during setup, before verification)
func (r *UserRepository) SetTOTPSecret(ctx context.Context, userID int, secret string) error {
	_, err := r.DB.Exec(ctx,
		`UPDATE users SET totp_secret=$1, updated_at=NOW() WHERE id=$2`, secret, userID)
	return err
}

func (r *UserRepository) EnableTOTP(ctx context.Context, userID int) error {
	_, err := r.DB.Exec(ctx,
		`UPDATE users SET totp_enabled=TRUE, totp_verified_at=NOW(), updated_at=NOW() WHERE id=$1`, userID)
	return err
}

func (r *UserRepository) DisableTOTP(ctx context.Context, userID int) error {
	_, err := r.DB.Exec(ctx,
		`UPDATE users SET totp_enabled=FALSE, totp_secret=NULL, totp_verified_at=NULL, backup_codes=NULL, updated_at=NOW()
         WHERE id=$1`, userID)
	return err
}

// SetBackupCodes stores the JSON array of bcrypt-hashed backup codes
func (r *UserRepository) SetBackupCodes(ctx context.Context, userID int, codes string) error {
	_, err := r.DB.Exec(ctx,
		`UPDATE users SET backup_codes=$1, updated_at=NOW() WHERE id=$2`, codes, userID)
	return err
}
