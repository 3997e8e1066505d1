package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/bcrypt"

	"github.com/FACorreiaa/go-cemetery-registry/app/observability/metrics"
	"github.com/FACorreiaa/go-cemetery-registry/internal/types"
)

var _ AuthService = (*AuthServiceImpl)(nil)

// CredentialStore looks up accounts allowed to sign in.
type CredentialStore interface {
	FindActiveByUsername(ctx context.Context, username string) (*types.User, error)
}

// Registrar creates self-registered accounts.
type Registrar interface {
	Register(ctx context.Context, params types.UserCreateRequest) (*types.UserResponse, error)
}

// TokenIssuer signs access tokens.
type TokenIssuer interface {
	Issue(userID int64, username string, role types.Role) (string, error)
	TTL() time.Duration
}

type AuthService interface {
	Login(ctx context.Context, req types.LoginRequest) (*types.TokenResponse, error)
	Register(ctx context.Context, params types.UserCreateRequest) (*types.UserResponse, error)
}

type AuthServiceImpl struct {
	logger    *slog.Logger
	users     CredentialStore
	registrar Registrar
	tokens    TokenIssuer
}

func NewAuthService(users CredentialStore, registrar Registrar, tokens TokenIssuer, logger *slog.Logger) *AuthServiceImpl {
	return &AuthServiceImpl{
		logger:    logger,
		users:     users,
		registrar: registrar,
		tokens:    tokens,
	}
}

// Login checks the password of an active account and issues an access
// token. Unknown users, deleted users and wrong passwords are
// indistinguishable to the caller.
func (s *AuthServiceImpl) Login(ctx context.Context, req types.LoginRequest) (*types.TokenResponse, error) {
	ctx, span := otel.Tracer("AuthService").Start(ctx, "Login", trace.WithAttributes(
		attribute.String("user.username", req.Username),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "Login"), slog.String("username", req.Username))

	u, err := s.users.FindActiveByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			s.recordAttempt(ctx, "unknown_user")
			l.InfoContext(ctx, "Login rejected")
			span.SetStatus(codes.Error, "bad credentials")
			return nil, types.ErrBadCredentials
		}
		span.RecordError(err)
		return nil, fmt.Errorf("error loading user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		s.recordAttempt(ctx, "bad_password")
		l.InfoContext(ctx, "Login rejected", slog.Int64("userID", u.ID))
		span.SetStatus(codes.Error, "bad credentials")
		return nil, types.ErrBadCredentials
	}

	token, err := s.tokens.Issue(u.ID, u.Username, u.Role)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("error issuing token: %w", err)
	}

	s.recordAttempt(ctx, "success")
	span.SetStatus(codes.Ok, "Login successful")
	l.InfoContext(ctx, "User logged in", slog.Int64("userID", u.ID))
	return &types.TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.tokens.TTL().Seconds()),
	}, nil
}

func (s *AuthServiceImpl) recordAttempt(ctx context.Context, outcome string) {
	metrics.Get().LoginAttemptsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// Register creates a USER account.
func (s *AuthServiceImpl) Register(ctx context.Context, params types.UserCreateRequest) (*types.UserResponse, error) {
	return s.registrar.Register(ctx, params)
}
