package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/FACorreiaa/go-cemetery-registry/internal/store"
	"github.com/FACorreiaa/go-cemetery-registry/internal/types"
)

var _ UserRepo = (*PostgresUserRepo)(nil)

// Constraint names from the users migration.
const (
	constraintUsername = "users_username_key"
	constraintEmail    = "users_email_active_key"
	constraintPhone    = "users_phone_active_key"
)

// UserRepo defines the contract for user persistence. Lookups by id or
// username report types.ErrUserNotFound; unique violations are reported as
// the matching conflict error.
type UserRepo interface {
	FindByID(ctx context.Context, id int64) (*types.User, error)
	FindActiveByID(ctx context.Context, id int64) (*types.User, error)
	// FindByUsername returns the row holding username in any state.
	FindByUsername(ctx context.Context, username string) (*types.User, error)
	// LockByUsername is FindByUsername holding a row lock for the rest of
	// the transaction. Use it from WithinTx.
	LockByUsername(ctx context.Context, username string) (*types.User, error)
	FindActiveByUsername(ctx context.Context, username string) (*types.User, error)
	// ExistsUsername checks every row, deleted or not, other than excludeID.
	ExistsUsername(ctx context.Context, username string, excludeID int64) (bool, error)
	ExistsActiveEmail(ctx context.Context, email string, excludeID int64) (bool, error)
	ExistsActivePhone(ctx context.Context, phone string, excludeID int64) (bool, error)
	Save(ctx context.Context, u *types.User) (*types.User, error)
	// List pages active non-DEV users, optionally filtered by a username substring.
	List(ctx context.Context, req store.PageRequest, search string) (store.Page[*types.User], error)
	SoftDelete(ctx context.Context, id int64) (*types.User, error)
	SoftDeleteMany(ctx context.Context, ids []int64) []store.Result[*types.User]
	// WithinTx runs fn against a repository bound to one transaction.
	WithinTx(ctx context.Context, fn func(repo UserRepo) error) error
}

var userSchema = store.Schema[*types.User]{
	Table:   "users",
	Columns: []string{"username", "password_hash", "full_name", "email", "phone_number", "role"},
	New:     func() *types.User { return &types.User{} },
	Values: func(u *types.User) []any {
		return []any{u.Username, u.PasswordHash, u.FullName, u.Email, u.PhoneNumber, string(u.Role)}
	},
	Fields: func(u *types.User) []any {
		return []any{&u.Username, &u.PasswordHash, &u.FullName, &u.Email, &u.PhoneNumber, &u.Role}
	},
}

type PostgresUserRepo struct {
	logger *slog.Logger
	store  *store.Store[*types.User]
	tx     *store.TxRunner
}

func NewPostgresUserRepo(db store.Pool, logger *slog.Logger) *PostgresUserRepo {
	return &PostgresUserRepo{
		logger: logger,
		store:  store.New(db, userSchema),
		tx:     store.NewTxRunner(db),
	}
}

func (r *PostgresUserRepo) FindByID(ctx context.Context, id int64) (*types.User, error) {
	u, err := r.store.FindByID(ctx, id)
	return u, mapErr(err)
}

func (r *PostgresUserRepo) FindActiveByID(ctx context.Context, id int64) (*types.User, error) {
	u, err := r.store.FindActiveByID(ctx, id)
	return u, mapErr(err)
}

func (r *PostgresUserRepo) FindByUsername(ctx context.Context, username string) (*types.User, error) {
	u, err := r.store.FindOne(ctx, store.Eq("username", username))
	return u, mapErr(err)
}

func (r *PostgresUserRepo) LockByUsername(ctx context.Context, username string) (*types.User, error) {
	u, err := r.store.FindOneForUpdate(ctx, store.Eq("username", username))
	return u, mapErr(err)
}

func (r *PostgresUserRepo) FindActiveByUsername(ctx context.Context, username string) (*types.User, error) {
	u, err := r.store.FindOne(ctx, store.NotDeleted(), store.Eq("username", username))
	return u, mapErr(err)
}

func (r *PostgresUserRepo) ExistsUsername(ctx context.Context, username string, excludeID int64) (bool, error) {
	return r.store.Exists(ctx, store.Eq("username", username), store.NotEq("id", excludeID))
}

func (r *PostgresUserRepo) ExistsActiveEmail(ctx context.Context, email string, excludeID int64) (bool, error) {
	return r.store.Exists(ctx, store.NotDeleted(), store.Eq("email", email), store.NotEq("id", excludeID))
}

func (r *PostgresUserRepo) ExistsActivePhone(ctx context.Context, phone string, excludeID int64) (bool, error) {
	return r.store.Exists(ctx, store.NotDeleted(), store.Eq("phone_number", phone), store.NotEq("id", excludeID))
}

func (r *PostgresUserRepo) Save(ctx context.Context, u *types.User) (*types.User, error) {
	saved, err := r.store.Save(ctx, u)
	if err != nil {
		r.logger.WarnContext(ctx, "Failed to save user",
			slog.String("username", u.Username),
			slog.String("constraint", store.ConstraintOf(err)),
			slog.Any("error", err))
		return nil, mapErr(err)
	}
	return saved, nil
}

func (r *PostgresUserRepo) List(ctx context.Context, req store.PageRequest, search string) (store.Page[*types.User], error) {
	return r.store.ListActive(ctx, req,
		store.NotEq("role", string(types.RoleDev)),
		store.ContainsFold("username", search),
	)
}

func (r *PostgresUserRepo) SoftDelete(ctx context.Context, id int64) (*types.User, error) {
	u, err := r.store.SoftDelete(ctx, id)
	return u, mapErr(err)
}

func (r *PostgresUserRepo) SoftDeleteMany(ctx context.Context, ids []int64) []store.Result[*types.User] {
	return r.store.SoftDeleteMany(ctx, ids)
}

func (r *PostgresUserRepo) WithinTx(ctx context.Context, fn func(repo UserRepo) error) error {
	if r.tx == nil {
		return fn(r)
	}
	return r.tx.RunInTx(ctx, func(tx pgx.Tx) error {
		return fn(&PostgresUserRepo{logger: r.logger, store: r.store.WithDB(tx)})
	})
}

// mapErr turns store errors into user errors. A late unique violation is
// reported exactly like the corresponding pre-check.
func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return types.ErrUserNotFound.Wrap(err)
	case errors.Is(err, store.ErrConflict):
		switch c := store.ConstraintOf(err); c {
		case constraintUsername:
			return types.ErrUsernameExists.Wrap(err)
		case constraintEmail:
			return types.ErrEmailExists.Wrap(err)
		case constraintPhone:
			return types.ErrPhoneExists.Wrap(err)
		default:
			return fmt.Errorf("unexpected unique constraint %q: %w", c, err)
		}
	}
	return err
}
