package deceasedFile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/FACorreiaa/go-cemetery-registry/internal/store"
	"github.com/FACorreiaa/go-cemetery-registry/internal/types"
)

var _ Repository = (*PostgresLinkRepo)(nil)

type Repository interface {
	Save(ctx context.Context, link *types.DeceasedFile) (*types.DeceasedFile, error)
	// ListByDeceased returns active links whose file is active too, in id order.
	ListByDeceased(ctx context.Context, deceasedID int64) ([]*types.DeceasedFileView, error)
	SoftDelete(ctx context.Context, id int64) (*types.DeceasedFile, error)
}

var linkSchema = store.Schema[*types.DeceasedFile]{
	Table:   "deceased_files",
	Columns: []string{"deceased_id", "file_id", "category"},
	New:     func() *types.DeceasedFile { return &types.DeceasedFile{} },
	Values: func(l *types.DeceasedFile) []any {
		return []any{l.DeceasedID, l.FileID, string(l.Category)}
	},
	Fields: func(l *types.DeceasedFile) []any {
		return []any{&l.DeceasedID, &l.FileID, &l.Category}
	},
}

type PostgresLinkRepo struct {
	logger *slog.Logger
	store  *store.Store[*types.DeceasedFile]
}

func NewPostgresLinkRepo(db store.DBTX, logger *slog.Logger) *PostgresLinkRepo {
	return &PostgresLinkRepo{logger: logger, store: store.New(db, linkSchema)}
}

func (r *PostgresLinkRepo) Save(ctx context.Context, link *types.DeceasedFile) (*types.DeceasedFile, error) {
	saved, err := r.store.Save(ctx, link)
	if err != nil {
		r.logger.WarnContext(ctx, "Failed to save deceased file link",
			slog.Int64("deceasedID", link.DeceasedID),
			slog.Int64("fileID", link.FileID),
			slog.Any("error", err))
		return nil, mapErr(err)
	}
	return saved, nil
}

func (r *PostgresLinkRepo) ListByDeceased(ctx context.Context, deceasedID int64) ([]*types.DeceasedFileView, error) {
	query := fmt.Sprintf(`SELECT %s, f.hash_id, f.name, f.content_type
		FROM deceased_files df
		JOIN file_assets f ON f.id = df.file_id
		WHERE df.deceased_id = $1 AND df.deleted = false AND f.deleted = false
		ORDER BY df.id ASC`, r.store.SelectList("df"))

	rows, err := r.store.DB().Query(ctx, query, deceasedID)
	if err != nil {
		return nil, fmt.Errorf("list deceased files: %w", err)
	}
	defer rows.Close()

	views := []*types.DeceasedFileView{}
	for rows.Next() {
		v := &types.DeceasedFileView{}
		if err := rows.Scan(
			&v.ID, &v.CreatedAt, &v.UpdatedAt, &v.Deleted,
			&v.DeceasedID, &v.FileID, &v.Category,
			&v.HashID, &v.Name, &v.ContentType,
		); err != nil {
			return nil, fmt.Errorf("scan deceased file: %w", err)
		}
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate deceased files: %w", err)
	}
	return views, nil
}

func (r *PostgresLinkRepo) SoftDelete(ctx context.Context, id int64) (*types.DeceasedFile, error) {
	l, err := r.store.SoftDelete(ctx, id)
	return l, mapErr(err)
}

func mapErr(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return types.ErrDeceasedFileNotFound.Wrap(err)
	}
	return err
}
