package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound is returned when no row matches, or when the row is
	// soft-deleted and the lookup only considers active rows.
	ErrNotFound = errors.New("store: record not found")
	// ErrConflict is matched by every unique-constraint violation.
	ErrConflict = errors.New("store: unique constraint violated")
	// ErrInvalidSort rejects ordering by an unknown column.
	ErrInvalidSort = errors.New("store: invalid sort column")
)

// ConflictError carries the violated constraint so services can tell which
// natural key collided.
type ConflictError struct {
	Table      string
	Constraint string
	Err        error
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("store: unique constraint %q violated on %s", e.Constraint, e.Table)
}

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

func (e *ConflictError) Unwrap() error { return e.Err }

// ConstraintOf returns the violated constraint name, or "" when err is not a
// conflict.
func ConstraintOf(err error) string {
	var ce *ConflictError
	if errors.As(err, &ce) {
		return ce.Constraint
	}
	return ""
}

// DBTX is implemented by *pgxpool.Pool, pgx.Tx and the pgxmock pool, so the
// same store works inside and outside transactions.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Beginner starts transactions.
type Beginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Pool is a DBTX that can also start transactions.
type Pool interface {
	DBTX
	Beginner
}

// TxRunner runs a function inside a single transaction.
type TxRunner struct {
	db Beginner
}

func NewTxRunner(db Beginner) *TxRunner {
	return &TxRunner{db: db}
}

// RunInTx commits when fn succeeds and rolls back otherwise.
func (r *TxRunner) RunInTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", translate("", err))
	}
	return nil
}

func isUniqueViolation(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return pgErr, true
	}
	return nil, false
}

// translate maps driver errors onto store errors.
func translate(table string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if pgErr, ok := isUniqueViolation(err); ok {
		if table == "" {
			table = pgErr.TableName
		}
		return &ConflictError{Table: table, Constraint: pgErr.ConstraintName, Err: err}
	}
	return err
}
