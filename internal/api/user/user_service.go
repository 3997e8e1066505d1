package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/bcrypt"

	"github.com/FACorreiaa/go-cemetery-registry/app/observability/metrics"
	"github.com/FACorreiaa/go-cemetery-registry/internal/store"
	"github.com/FACorreiaa/go-cemetery-registry/internal/types"
)

// Ensure implementation satisfies the interface
var _ UserService = (*UserServiceImpl)(nil)

var phonePattern = regexp.MustCompile(`^(?:\+998)?(90|91|93|94|95|97|98|99|88)\d{7}$`)

// ValidPhone reports whether phone is a recognised Uzbek mobile number.
func ValidPhone(phone string) bool {
	return phonePattern.MatchString(phone)
}

const (
	minPasswordLen = 8
	maxPasswordLen = 16
)

// UserService defines the business logic contract for user operations.
type UserService interface {
	// Create adds an account with the requested role, reclaiming a
	// soft-deleted row that holds the same username.
	Create(ctx context.Context, params types.UserCreateRequest) (*types.UserResponse, error)
	// Register is Create with the role forced to USER.
	Register(ctx context.Context, params types.UserCreateRequest) (*types.UserResponse, error)
	GetOne(ctx context.Context, id int64) (*types.UserResponse, error)
	List(ctx context.Context, req store.PageRequest, search string) (store.Page[types.UserResponse], error)
	Update(ctx context.Context, id int64, params types.UserUpdateRequest) (*types.UserResponse, error)
	Delete(ctx context.Context, id int64) error
	DeleteMany(ctx context.Context, ids []int64) types.BatchDeleteResponse
	// EnsureAdmin creates the bootstrap administrator unless some row, in any
	// state, already holds its username. It reports whether a row was created.
	EnsureAdmin(ctx context.Context, params types.UserCreateRequest) (bool, error)
}

// UserServiceImpl provides the implementation for UserService.
type UserServiceImpl struct {
	logger   *slog.Logger
	repo     UserRepo
	hashCost int
}

// NewUserService creates a new user service instance.
func NewUserService(repo UserRepo, logger *slog.Logger) *UserServiceImpl {
	return &UserServiceImpl{
		logger:   logger,
		repo:     repo,
		hashCost: bcrypt.DefaultCost,
	}
}

// WithHashCost overrides the bcrypt cost.
func (s *UserServiceImpl) WithHashCost(cost int) *UserServiceImpl {
	s.hashCost = cost
	return s
}

func (s *UserServiceImpl) Create(ctx context.Context, params types.UserCreateRequest) (*types.UserResponse, error) {
	if params.Role == "" {
		params.Role = types.RoleUser
	}
	return s.create(ctx, "Create", params)
}

func (s *UserServiceImpl) Register(ctx context.Context, params types.UserCreateRequest) (*types.UserResponse, error) {
	params.Role = types.RoleUser
	return s.create(ctx, "Register", params)
}

func (s *UserServiceImpl) create(ctx context.Context, method string, params types.UserCreateRequest) (*types.UserResponse, error) {
	ctx, span := otel.Tracer("UserService").Start(ctx, method, trace.WithAttributes(
		attribute.String("user.username", params.Username),
		attribute.String("user.role", string(params.Role)),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", method), slog.String("username", params.Username))
	l.DebugContext(ctx, "Creating user")

	if !params.Role.Valid() {
		return nil, types.ErrValidationFailed.WithDetail("unknown role %q", params.Role)
	}
	if !ValidPhone(params.PhoneNumber) {
		span.SetStatus(codes.Error, "invalid phone")
		return nil, types.ErrPhoneInvalid
	}
	hash, err := s.hashPassword(params.Password)
	if err != nil {
		span.SetStatus(codes.Error, "invalid password")
		return nil, err
	}

	var (
		saved     *types.User
		reclaimed bool
	)
	err = s.repo.WithinTx(ctx, func(repo UserRepo) error {
		// A concurrent create of the same username waits here and then sees
		// the row as active.
		existing, err := repo.LockByUsername(ctx, params.Username)
		switch {
		case err == nil && !existing.Deleted:
			return types.ErrUsernameExists
		case err != nil && !errors.Is(err, types.ErrNotFound):
			return err
		case err != nil:
			existing = nil
		}

		if err := checkContacts(ctx, repo, params.Email, params.PhoneNumber, 0); err != nil {
			return err
		}

		u := existing
		if u == nil {
			u = &types.User{Username: params.Username}
		} else {
			reclaimed = true
		}
		u.PasswordHash = hash
		u.FullName = params.FullName
		u.Email = params.Email
		u.PhoneNumber = params.PhoneNumber
		u.Role = params.Role
		u.Deleted = false

		saved, err = repo.Save(ctx, u)
		return err
	})
	if err != nil {
		l.WarnContext(ctx, "Failed to create user", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to create user")
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	if reclaimed {
		metrics.Get().ReclamationsTotal.Add(ctx, 1)
		l.InfoContext(ctx, "Reclaimed soft-deleted user", slog.Int64("userID", saved.ID))
	} else {
		l.InfoContext(ctx, "User created", slog.Int64("userID", saved.ID))
	}
	span.SetAttributes(attribute.Int64("user.id", saved.ID), attribute.Bool("user.reclaimed", reclaimed))
	span.SetStatus(codes.Ok, "User created")

	resp := types.NewUserResponse(saved)
	return &resp, nil
}

// checkContacts rejects an email or phone already held by another active row.
func checkContacts(ctx context.Context, repo UserRepo, email, phone string, excludeID int64) error {
	if email != "" {
		taken, err := repo.ExistsActiveEmail(ctx, email, excludeID)
		if err != nil {
			return err
		}
		if taken {
			return types.ErrEmailExists
		}
	}
	if phone != "" {
		taken, err := repo.ExistsActivePhone(ctx, phone, excludeID)
		if err != nil {
			return err
		}
		if taken {
			return types.ErrPhoneExists
		}
	}
	return nil
}

func (s *UserServiceImpl) hashPassword(password string) (string, error) {
	if n := utf8.RuneCountInString(password); n < minPasswordLen || n > maxPasswordLen {
		return "", types.ErrPasswordLengthInvalid
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// GetOne retrieves an active user by ID.
func (s *UserServiceImpl) GetOne(ctx context.Context, id int64) (*types.UserResponse, error) {
	l := s.logger.With(slog.String("method", "GetOne"), slog.Int64("userID", id))
	l.DebugContext(ctx, "Fetching user")

	u, err := s.repo.FindActiveByID(ctx, id)
	if err != nil {
		l.WarnContext(ctx, "Failed to fetch user", slog.Any("error", err))
		return nil, fmt.Errorf("error fetching user: %w", err)
	}
	resp := types.NewUserResponse(u)
	return &resp, nil
}

func (s *UserServiceImpl) List(ctx context.Context, req store.PageRequest, search string) (store.Page[types.UserResponse], error) {
	ctx, span := otel.Tracer("UserService").Start(ctx, "List")
	defer span.End()

	page, err := s.repo.List(ctx, req, search)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to list users")
		return store.Page[types.UserResponse]{}, fmt.Errorf("error listing users: %w", err)
	}
	return store.MapPage(page, func(u *types.User) types.UserResponse { return types.NewUserResponse(u) }), nil
}

// Update applies the non-nil fields of params. Uniqueness checks exclude the
// row itself; a username held by a deleted row still conflicts.
func (s *UserServiceImpl) Update(ctx context.Context, id int64, params types.UserUpdateRequest) (*types.UserResponse, error) {
	ctx, span := otel.Tracer("UserService").Start(ctx, "Update", trace.WithAttributes(
		attribute.Int64("user.id", id),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "Update"), slog.Int64("userID", id))
	l.DebugContext(ctx, "Updating user")

	var saved *types.User
	err := s.repo.WithinTx(ctx, func(repo UserRepo) error {
		u, err := repo.FindActiveByID(ctx, id)
		if err != nil {
			return err
		}

		// role is not editable here
		if params.Username != nil && *params.Username != u.Username {
			taken, err := repo.ExistsUsername(ctx, *params.Username, id)
			if err != nil {
				return err
			}
			if taken {
				return types.ErrUsernameExists
			}
			u.Username = *params.Username
		}
		if params.Password != nil {
			hash, err := s.hashPassword(*params.Password)
			if err != nil {
				return err
			}
			u.PasswordHash = hash
		}
		if params.FullName != nil {
			u.FullName = *params.FullName
		}
		if params.Email != nil && *params.Email != u.Email {
			if err := checkContacts(ctx, repo, *params.Email, "", id); err != nil {
				return err
			}
			u.Email = *params.Email
		}
		if params.PhoneNumber != nil && *params.PhoneNumber != u.PhoneNumber {
			if !ValidPhone(*params.PhoneNumber) {
				return types.ErrPhoneInvalid
			}
			if err := checkContacts(ctx, repo, "", *params.PhoneNumber, id); err != nil {
				return err
			}
			u.PhoneNumber = *params.PhoneNumber
		}

		saved, err = repo.Save(ctx, u)
		return err
	})
	if err != nil {
		l.WarnContext(ctx, "Failed to update user", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to update user")
		return nil, fmt.Errorf("error updating user: %w", err)
	}

	l.InfoContext(ctx, "User updated")
	resp := types.NewUserResponse(saved)
	return &resp, nil
}

func (s *UserServiceImpl) Delete(ctx context.Context, id int64) error {
	l := s.logger.With(slog.String("method", "Delete"), slog.Int64("userID", id))

	if _, err := s.repo.SoftDelete(ctx, id); err != nil {
		l.WarnContext(ctx, "Failed to delete user", slog.Any("error", err))
		return fmt.Errorf("error deleting user: %w", err)
	}
	l.InfoContext(ctx, "User deleted")
	return nil
}

func (s *UserServiceImpl) DeleteMany(ctx context.Context, ids []int64) types.BatchDeleteResponse {
	resp := types.NewBatchDeleteResponse(s.repo.SoftDeleteMany(ctx, ids), types.ErrUserNotFound)
	s.logger.InfoContext(ctx, "Batch user delete finished",
		slog.Int("deleted", len(resp.Deleted)),
		slog.Int("failed", len(resp.Failed)))
	return resp
}

func (s *UserServiceImpl) EnsureAdmin(ctx context.Context, params types.UserCreateRequest) (bool, error) {
	l := s.logger.With(slog.String("method", "EnsureAdmin"), slog.String("username", params.Username))

	_, err := s.repo.FindByUsername(ctx, params.Username)
	switch {
	case err == nil:
		l.DebugContext(ctx, "Bootstrap admin already present")
		return false, nil
	case !errors.Is(err, types.ErrNotFound):
		return false, fmt.Errorf("error checking bootstrap admin: %w", err)
	}

	params.Role = types.RoleAdmin
	if _, err := s.create(ctx, "EnsureAdmin", params); err != nil {
		return false, err
	}
	l.InfoContext(ctx, "Bootstrap admin created")
	return true, nil
}
