package deceased

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/FACorreiaa/go-cemetery-registry/internal/store"
	"github.com/FACorreiaa/go-cemetery-registry/internal/types"
)

var _ Repository = (*PostgresDeceasedRepo)(nil)

const constraintPersonalID = "deceased_personal_id_active_key"

// Repository defines the contract for deceased persistence.
type Repository interface {
	FindActiveByID(ctx context.Context, id int64) (*types.Deceased, error)
	// ExistsActivePersonalID ignores deleted rows and the row excludeID.
	ExistsActivePersonalID(ctx context.Context, personalID string, excludeID int64) (bool, error)
	Save(ctx context.Context, d *types.Deceased) (*types.Deceased, error)
	List(ctx context.Context, req store.PageRequest, search string) (store.Page[*types.Deceased], error)
	SoftDelete(ctx context.Context, id int64) (*types.Deceased, error)
	SoftDeleteMany(ctx context.Context, ids []int64) []store.Result[*types.Deceased]
	WithinTx(ctx context.Context, fn func(repo Repository) error) error
}

var deceasedSchema = store.Schema[*types.Deceased]{
	Table:   "deceased",
	Columns: []string{"personal_id", "full_name", "birth_date", "death_date", "biography"},
	New:     func() *types.Deceased { return &types.Deceased{} },
	Values: func(d *types.Deceased) []any {
		return []any{d.PersonalID, d.FullName, d.BirthDate, d.DeathDate, d.Biography}
	},
	Fields: func(d *types.Deceased) []any {
		return []any{&d.PersonalID, &d.FullName, &d.BirthDate, &d.DeathDate, &d.Biography}
	},
}

type PostgresDeceasedRepo struct {
	logger *slog.Logger
	store  *store.Store[*types.Deceased]
	tx     *store.TxRunner
}

func NewPostgresDeceasedRepo(db store.Pool, logger *slog.Logger) *PostgresDeceasedRepo {
	return &PostgresDeceasedRepo{
		logger: logger,
		store:  store.New(db, deceasedSchema),
		tx:     store.NewTxRunner(db),
	}
}

func (r *PostgresDeceasedRepo) FindActiveByID(ctx context.Context, id int64) (*types.Deceased, error) {
	d, err := r.store.FindActiveByID(ctx, id)
	return d, mapErr(err)
}

func (r *PostgresDeceasedRepo) ExistsActivePersonalID(ctx context.Context, personalID string, excludeID int64) (bool, error) {
	return r.store.Exists(ctx, store.NotDeleted(), store.Eq("personal_id", personalID), store.NotEq("id", excludeID))
}

func (r *PostgresDeceasedRepo) Save(ctx context.Context, d *types.Deceased) (*types.Deceased, error) {
	saved, err := r.store.Save(ctx, d)
	if err != nil {
		r.logger.WarnContext(ctx, "Failed to save deceased",
			slog.Int64("deceasedID", d.ID),
			slog.String("constraint", store.ConstraintOf(err)),
			slog.Any("error", err))
		return nil, mapErr(err)
	}
	return saved, nil
}

func (r *PostgresDeceasedRepo) List(ctx context.Context, req store.PageRequest, search string) (store.Page[*types.Deceased], error) {
	return r.store.ListActive(ctx, req, store.ContainsFold("full_name", search))
}

func (r *PostgresDeceasedRepo) SoftDelete(ctx context.Context, id int64) (*types.Deceased, error) {
	d, err := r.store.SoftDelete(ctx, id)
	return d, mapErr(err)
}

func (r *PostgresDeceasedRepo) SoftDeleteMany(ctx context.Context, ids []int64) []store.Result[*types.Deceased] {
	return r.store.SoftDeleteMany(ctx, ids)
}

func (r *PostgresDeceasedRepo) WithinTx(ctx context.Context, fn func(repo Repository) error) error {
	return r.tx.RunInTx(ctx, func(tx pgx.Tx) error {
		return fn(&PostgresDeceasedRepo{logger: r.logger, store: r.store.WithDB(tx)})
	})
}

func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return types.ErrDeceasedNotFound.Wrap(err)
	case errors.Is(err, store.ErrConflict):
		if c := store.ConstraintOf(err); c == constraintPersonalID {
			return types.ErrPersonalIDExists.Wrap(err)
		}
		return fmt.Errorf("unexpected unique constraint %q: %w", store.ConstraintOf(err), err)
	}
	return err
}
