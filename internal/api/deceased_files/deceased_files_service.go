package deceasedFile

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-cemetery-registry/internal/types"
)

var _ Service = (*ServiceImpl)(nil)

// DeceasedFinder resolves active deceased records.
type DeceasedFinder interface {
	FindActiveByID(ctx context.Context, id int64) (*types.Deceased, error)
}

// FileFinder resolves active file assets by public token.
type FileFinder interface {
	FindActiveByHashID(ctx context.Context, hashID string) (*types.FileAsset, error)
}

// Service links files to deceased records. Deleting either side never
// cascades into the links; listings simply skip links to deleted files.
type Service interface {
	Create(ctx context.Context, params types.DeceasedFileCreateRequest) (*types.DeceasedFileResponse, error)
	ListByDeceased(ctx context.Context, deceasedID int64) ([]types.DeceasedFileResponse, error)
	Delete(ctx context.Context, linkID int64) error
}

type ServiceImpl struct {
	logger   *slog.Logger
	links    Repository
	deceased DeceasedFinder
	files    FileFinder
}

func NewService(links Repository, deceased DeceasedFinder, files FileFinder, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{logger: logger, links: links, deceased: deceased, files: files}
}

func (s *ServiceImpl) Create(ctx context.Context, params types.DeceasedFileCreateRequest) (*types.DeceasedFileResponse, error) {
	ctx, span := otel.Tracer("DeceasedFileService").Start(ctx, "Create", trace.WithAttributes(
		attribute.Int64("deceased.id", params.DeceasedID),
		attribute.String("file.hash_id", params.HashID),
	))
	defer span.End()

	category, ok := types.ParseLinkCategory(params.Category)
	if !ok {
		return nil, types.ErrValidationFailed.WithDetail("unknown category %q", params.Category)
	}

	if _, err := s.deceased.FindActiveByID(ctx, params.DeceasedID); err != nil {
		span.SetStatus(codes.Error, "deceased not found")
		return nil, fmt.Errorf("error linking file: %w", err)
	}
	file, err := s.files.FindActiveByHashID(ctx, params.HashID)
	if err != nil {
		span.SetStatus(codes.Error, "file not found")
		return nil, fmt.Errorf("error linking file: %w", err)
	}

	link, err := s.links.Save(ctx, &types.DeceasedFile{
		DeceasedID: params.DeceasedID,
		FileID:     file.ID,
		Category:   category,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to save link")
		return nil, fmt.Errorf("error linking file: %w", err)
	}

	s.logger.InfoContext(ctx, "File linked to deceased",
		slog.Int64("linkID", link.ID),
		slog.Int64("deceasedID", params.DeceasedID),
		slog.String("hashID", file.HashID))

	resp := types.NewDeceasedFileResponse(&types.DeceasedFileView{
		DeceasedFile: *link,
		HashID:       file.HashID,
		Name:         file.Name,
		ContentType:  file.ContentType,
	})
	return &resp, nil
}

func (s *ServiceImpl) ListByDeceased(ctx context.Context, deceasedID int64) ([]types.DeceasedFileResponse, error) {
	if _, err := s.deceased.FindActiveByID(ctx, deceasedID); err != nil {
		return nil, fmt.Errorf("error listing deceased files: %w", err)
	}
	views, err := s.links.ListByDeceased(ctx, deceasedID)
	if err != nil {
		return nil, fmt.Errorf("error listing deceased files: %w", err)
	}
	out := make([]types.DeceasedFileResponse, 0, len(views))
	for _, v := range views {
		out = append(out, types.NewDeceasedFileResponse(v))
	}
	return out, nil
}

func (s *ServiceImpl) Delete(ctx context.Context, linkID int64) error {
	if _, err := s.links.SoftDelete(ctx, linkID); err != nil {
		return fmt.Errorf("error deleting deceased file: %w", err)
	}
	s.logger.InfoContext(ctx, "Deceased file link deleted", slog.Int64("linkID", linkID))
	return nil
}
