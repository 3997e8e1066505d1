package deceased

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-cemetery-registry/internal/store"
	"github.com/FACorreiaa/go-cemetery-registry/internal/types"
)

var _ Service = (*ServiceImpl)(nil)

var personalIDPattern = regexp.MustCompile(`^[0-9]{14}$`)

// ValidPersonalID reports whether id is exactly 14 digits.
func ValidPersonalID(id string) bool {
	return personalIDPattern.MatchString(id)
}

// Service defines the business logic contract for deceased records. A
// personal id collides only with active rows and is never reclaimed.
type Service interface {
	Create(ctx context.Context, params types.DeceasedCreateRequest) (*types.DeceasedResponse, error)
	GetOne(ctx context.Context, id int64) (*types.DeceasedResponse, error)
	List(ctx context.Context, req store.PageRequest, search string) (store.Page[types.DeceasedResponse], error)
	Update(ctx context.Context, id int64, params types.DeceasedUpdateRequest) (*types.DeceasedResponse, error)
	Delete(ctx context.Context, id int64) error
	DeleteMany(ctx context.Context, ids []int64) types.BatchDeleteResponse
}

type ServiceImpl struct {
	logger *slog.Logger
	repo   Repository
}

func NewService(repo Repository, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{logger: logger, repo: repo}
}

func (s *ServiceImpl) Create(ctx context.Context, params types.DeceasedCreateRequest) (*types.DeceasedResponse, error) {
	ctx, span := otel.Tracer("DeceasedService").Start(ctx, "Create")
	defer span.End()

	l := s.logger.With(slog.String("method", "Create"))

	if !ValidPersonalID(params.PersonalID) {
		span.SetStatus(codes.Error, "invalid personal id")
		return nil, types.ErrPersonalIDInvalid
	}
	if err := checkDates(params.BirthDate.Time, params.DeathDate.Time); err != nil {
		return nil, err
	}

	var saved *types.Deceased
	err := s.repo.WithinTx(ctx, func(repo Repository) error {
		taken, err := repo.ExistsActivePersonalID(ctx, params.PersonalID, 0)
		if err != nil {
			return err
		}
		if taken {
			return types.ErrPersonalIDExists
		}
		saved, err = repo.Save(ctx, &types.Deceased{
			PersonalID: params.PersonalID,
			FullName:   params.FullName,
			BirthDate:  params.BirthDate.Time,
			DeathDate:  params.DeathDate.Time,
			Biography:  params.Biography,
		})
		return err
	})
	if err != nil {
		l.WarnContext(ctx, "Failed to create deceased", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to create deceased")
		return nil, fmt.Errorf("error creating deceased: %w", err)
	}

	span.SetAttributes(attribute.Int64("deceased.id", saved.ID))
	l.InfoContext(ctx, "Deceased created", slog.Int64("deceasedID", saved.ID))
	resp := types.NewDeceasedResponse(saved)
	return &resp, nil
}

// checkDates requires both dates and birth on or before death.
func checkDates(birth, death time.Time) error {
	switch {
	case birth.IsZero():
		return types.ErrValidationFailed.WithDetail("birthDate is required")
	case death.IsZero():
		return types.ErrValidationFailed.WithDetail("deathDate is required")
	case birth.After(death):
		return types.ErrValidationFailed.WithDetail("birthDate must not be after deathDate")
	}
	return nil
}

func (s *ServiceImpl) GetOne(ctx context.Context, id int64) (*types.DeceasedResponse, error) {
	d, err := s.repo.FindActiveByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error fetching deceased: %w", err)
	}
	resp := types.NewDeceasedResponse(d)
	return &resp, nil
}

func (s *ServiceImpl) List(ctx context.Context, req store.PageRequest, search string) (store.Page[types.DeceasedResponse], error) {
	ctx, span := otel.Tracer("DeceasedService").Start(ctx, "List", trace.WithAttributes(
		attribute.String("search", search),
	))
	defer span.End()

	page, err := s.repo.List(ctx, req, search)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to list deceased")
		return store.Page[types.DeceasedResponse]{}, fmt.Errorf("error listing deceased: %w", err)
	}
	return store.MapPage(page, func(d *types.Deceased) types.DeceasedResponse { return types.NewDeceasedResponse(d) }), nil
}

// Update applies the non-nil fields of params. A new personal id is checked
// against other active rows.
func (s *ServiceImpl) Update(ctx context.Context, id int64, params types.DeceasedUpdateRequest) (*types.DeceasedResponse, error) {
	ctx, span := otel.Tracer("DeceasedService").Start(ctx, "Update", trace.WithAttributes(
		attribute.Int64("deceased.id", id),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "Update"), slog.Int64("deceasedID", id))

	var saved *types.Deceased
	err := s.repo.WithinTx(ctx, func(repo Repository) error {
		d, err := repo.FindActiveByID(ctx, id)
		if err != nil {
			return err
		}

		if params.PersonalID != nil && *params.PersonalID != d.PersonalID {
			if !ValidPersonalID(*params.PersonalID) {
				return types.ErrPersonalIDInvalid
			}
			taken, err := repo.ExistsActivePersonalID(ctx, *params.PersonalID, id)
			if err != nil {
				return err
			}
			if taken {
				return types.ErrPersonalIDExists
			}
			d.PersonalID = *params.PersonalID
		}
		if params.FullName != nil {
			d.FullName = *params.FullName
		}
		if params.BirthDate != nil {
			d.BirthDate = params.BirthDate.Time
		}
		if params.DeathDate != nil {
			d.DeathDate = params.DeathDate.Time
		}
		if params.Biography != nil {
			d.Biography = *params.Biography
		}
		// check the merged pair, either side may have changed
		if err := checkDates(d.BirthDate, d.DeathDate); err != nil {
			return err
		}

		saved, err = repo.Save(ctx, d)
		return err
	})
	if err != nil {
		l.WarnContext(ctx, "Failed to update deceased", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to update deceased")
		return nil, fmt.Errorf("error updating deceased: %w", err)
	}

	l.InfoContext(ctx, "Deceased updated")
	resp := types.NewDeceasedResponse(saved)
	return &resp, nil
}

func (s *ServiceImpl) Delete(ctx context.Context, id int64) error {
	if _, err := s.repo.SoftDelete(ctx, id); err != nil {
		s.logger.WarnContext(ctx, "Failed to delete deceased", slog.Int64("deceasedID", id), slog.Any("error", err))
		return fmt.Errorf("error deleting deceased: %w", err)
	}
	s.logger.InfoContext(ctx, "Deceased deleted", slog.Int64("deceasedID", id))
	return nil
}

func (s *ServiceImpl) DeleteMany(ctx context.Context, ids []int64) types.BatchDeleteResponse {
	return types.NewBatchDeleteResponse(s.repo.SoftDeleteMany(ctx, ids), types.ErrDeceasedNotFound)
}
