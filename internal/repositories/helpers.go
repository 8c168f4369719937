package repositories

import (
	"context"
	"errors"

	"hoa-backend/pkg/utils"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const uniqueViolation = "23505"

// mapNoRows turns pgx.ErrNoRows into utils.ErrNotFound.
func mapNoRows(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return utils.ErrNotFound
	}
	return err
}

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}

// versionMiss explains a version-checked UPDATE that touched no rows: the row
// is either gone or was changed by someone else.
func versionMiss(ctx context.Context, q querier, table string, id int) error {
	var exists bool
	// table is always a package constant, never user input
	err := q.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM "+table+" WHERE id = $1)", id).Scan(&exists)
	if err != nil {
		return err
	}
	if !exists {
		return utils.ErrNotFound
	}
	return utils.ErrRowVersionConflict
}

// checkVersioned converts the result of a version-checked UPDATE ... RETURNING
// row_version into an error.
func checkVersioned(ctx context.Context, q querier, table string, id int, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return versionMiss(ctx, q, table, id)
	}
	return err
}

// inTx runs fn inside a transaction on pool-like db.
func inTx(ctx context.Context, db interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}, fn func(tx pgx.Tx) error) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
