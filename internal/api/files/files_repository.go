package files

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/FACorreiaa/go-cemetery-registry/internal/store"
	"github.com/FACorreiaa/go-cemetery-registry/internal/types"
)

var _ Repository = (*PostgresFileRepo)(nil)

const constraintHashID = "file_assets_hash_id_key"

type Repository interface {
	// FindActiveByHashID reports types.ErrFileNotFound for deleted rows.
	FindActiveByHashID(ctx context.Context, hashID string) (*types.FileAsset, error)
	Save(ctx context.Context, f *types.FileAsset) (*types.FileAsset, error)
	SoftDelete(ctx context.Context, id int64) (*types.FileAsset, error)
}

var fileSchema = store.Schema[*types.FileAsset]{
	Table:   "file_assets",
	Columns: []string{"size", "path", "category", "content_type", "name", "hash_id"},
	New:     func() *types.FileAsset { return &types.FileAsset{} },
	Values: func(f *types.FileAsset) []any {
		return []any{f.Size, f.Path, string(f.Category), f.ContentType, f.Name, f.HashID}
	},
	Fields: func(f *types.FileAsset) []any {
		return []any{&f.Size, &f.Path, &f.Category, &f.ContentType, &f.Name, &f.HashID}
	},
}

// FileSchema exposes the file_assets mapping to packages that join on it.
func FileSchema() store.Schema[*types.FileAsset] { return fileSchema }

type PostgresFileRepo struct {
	logger *slog.Logger
	store  *store.Store[*types.FileAsset]
}

func NewPostgresFileRepo(db store.DBTX, logger *slog.Logger) *PostgresFileRepo {
	return &PostgresFileRepo{logger: logger, store: store.New(db, fileSchema)}
}

func (r *PostgresFileRepo) FindActiveByHashID(ctx context.Context, hashID string) (*types.FileAsset, error) {
	f, err := r.store.FindOne(ctx, store.NotDeleted(), store.Eq("hash_id", hashID))
	return f, mapErr(err)
}

func (r *PostgresFileRepo) Save(ctx context.Context, f *types.FileAsset) (*types.FileAsset, error) {
	saved, err := r.store.Save(ctx, f)
	if err != nil {
		r.logger.WarnContext(ctx, "Failed to save file asset",
			slog.String("hashID", f.HashID),
			slog.Any("error", err))
		return nil, mapErr(err)
	}
	return saved, nil
}

func (r *PostgresFileRepo) SoftDelete(ctx context.Context, id int64) (*types.FileAsset, error) {
	f, err := r.store.SoftDelete(ctx, id)
	return f, mapErr(err)
}

func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return types.ErrFileNotFound.Wrap(err)
	case errors.Is(err, store.ErrConflict):
		if store.ConstraintOf(err) == constraintHashID {
			return types.ErrFileConflict.Wrap(err)
		}
		return fmt.Errorf("unexpected unique constraint %q: %w", store.ConstraintOf(err), err)
	}
	return err
}
