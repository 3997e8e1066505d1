package files

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/gabriel-vasile/mimetype"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-cemetery-registry/app/observability/metrics"
	"github.com/FACorreiaa/go-cemetery-registry/internal/hashid"
	"github.com/FACorreiaa/go-cemetery-registry/internal/types"
)

var _ Service = (*ServiceImpl)(nil)

// sniffLen matches the amount mimetype reads by default.
const sniffLen = 3072

// Download is an open stored file. The caller closes Content.
type Download struct {
	Content     io.ReadCloser
	ContentType string
	Name        string
	Size        int64
}

type Service interface {
	// Upload stores payload and returns its public token.
	Upload(ctx context.Context, payload io.Reader, originalFilename, contentType string) (*types.FileAssetResponse, error)
	Download(ctx context.Context, hashID string) (*Download, error)
	GetByToken(ctx context.Context, hashID string) (*types.FileAssetInfo, error)
	// Delete soft-deletes the asset; its token is never issued again.
	Delete(ctx context.Context, hashID string) error
}

type ServiceImpl struct {
	logger  *slog.Logger
	repo    Repository
	disk    *DiskStore
	encoder hashid.Encoder
	clock   *Clock
}

func NewService(repo Repository, disk *DiskStore, encoder hashid.Encoder, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger:  logger,
		repo:    repo,
		disk:    disk,
		encoder: encoder,
		clock:   ProcessClock(),
	}
}

// WithClock swaps the millisecond source.
func (s *ServiceImpl) WithClock(c *Clock) *ServiceImpl {
	s.clock = c
	return s
}

func (s *ServiceImpl) Upload(ctx context.Context, payload io.Reader, originalFilename, contentType string) (*types.FileAssetResponse, error) {
	ctx, span := otel.Tracer("FileService").Start(ctx, "Upload", trace.WithAttributes(
		attribute.String("file.name", originalFilename),
		attribute.String("file.content_type", contentType),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "Upload"), slog.String("fileName", originalFilename))

	// category follows the declared type only
	category := Classify(contentType)
	if contentType == "" {
		sniffed, rest, err := sniff(payload)
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("error reading upload: %w", err)
		}
		contentType, payload = sniffed, rest
	}

	// one ms value names both the stored file and the token
	ms := s.clock.Next()
	written, err := s.disk.Save(payload, ms, originalFilename)
	if err != nil {
		l.ErrorContext(ctx, "Failed to write upload", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "write failed")
		return nil, fmt.Errorf("error storing upload: %w", err)
	}

	asset := &types.FileAsset{
		Size:        written.Size,
		Path:        written.Path,
		Category:    category,
		ContentType: contentType,
		Name:        BaseName(originalFilename),
		HashID:      s.encoder.Encode(ms),
	}
	if _, err := s.repo.Save(ctx, asset); err != nil {
		// Don't leave bytes without a row
		if rmErr := s.disk.Remove(written.Path); rmErr != nil {
			l.ErrorContext(ctx, "Failed to remove orphaned upload", slog.String("path", written.Path), slog.Any("error", rmErr))
		}
		l.WarnContext(ctx, "Failed to persist file asset", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist failed")
		return nil, fmt.Errorf("error saving file asset: %w", err)
	}

	m := metrics.Get()
	attrs := metric.WithAttributes(attribute.String("category", string(category)))
	m.UploadsTotal.Add(ctx, 1, attrs)
	m.UploadBytesTotal.Add(ctx, written.Size, attrs)

	span.SetAttributes(attribute.String("file.hash_id", asset.HashID), attribute.Int64("file.size", asset.Size))
	l.InfoContext(ctx, "File uploaded", slog.String("hashID", asset.HashID), slog.Int64("size", asset.Size))
	return &types.FileAssetResponse{HashID: asset.HashID}, nil
}

// sniff detects the content type from the head of r and returns a reader
// that still yields the whole payload.
func sniff(r io.Reader) (string, io.Reader, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return "", nil, err
	}
	head = head[:n]
	return mimetype.Detect(head).String(), io.MultiReader(bytes.NewReader(head), r), nil
}

func (s *ServiceImpl) Download(ctx context.Context, hashID string) (*Download, error) {
	ctx, span := otel.Tracer("FileService").Start(ctx, "Download", trace.WithAttributes(
		attribute.String("file.hash_id", hashID),
	))
	defer span.End()

	asset, err := s.repo.FindActiveByHashID(ctx, hashID)
	if err != nil {
		return nil, fmt.Errorf("error resolving file: %w", err)
	}

	f, size, err := s.disk.Open(asset.Path)
	if err != nil {
		if errors.Is(err, ErrBlobNotFound) {
			s.logger.WarnContext(ctx, "File row without stored payload",
				slog.String("hashID", hashID), slog.String("path", asset.Path))
			return nil, types.ErrFileNotFound.Wrap(err)
		}
		span.RecordError(err)
		return nil, fmt.Errorf("error opening file: %w", err)
	}

	metrics.Get().DownloadsTotal.Add(ctx, 1)
	return &Download{
		Content:     f,
		ContentType: asset.ContentType,
		Name:        asset.Name,
		Size:        size,
	}, nil
}

func (s *ServiceImpl) GetByToken(ctx context.Context, hashID string) (*types.FileAssetInfo, error) {
	asset, err := s.repo.FindActiveByHashID(ctx, hashID)
	if err != nil {
		return nil, fmt.Errorf("error resolving file: %w", err)
	}
	info := types.NewFileAssetInfo(asset)
	return &info, nil
}

func (s *ServiceImpl) Delete(ctx context.Context, hashID string) error {
	asset, err := s.repo.FindActiveByHashID(ctx, hashID)
	if err != nil {
		return fmt.Errorf("error resolving file: %w", err)
	}
	if _, err := s.repo.SoftDelete(ctx, asset.ID); err != nil {
		return fmt.Errorf("error deleting file: %w", err)
	}
	s.logger.InfoContext(ctx, "File deleted", slog.String("hashID", hashID))
	return nil
}
