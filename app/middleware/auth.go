package appMiddleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/FACorreiaa/go-cemetery-registry/internal/api"
	"github.com/FACorreiaa/go-cemetery-registry/internal/types"
)

type contextKey string

const claimsKey contextKey = "claims"

// Claims are carried by every access token.
type Claims struct {
	UserID   int64      `json:"uid"`
	Username string     `json:"username"`
	Role     types.Role `json:"role"`
	jwt.RegisteredClaims
}

// JWT issues and verifies HS256 access tokens.
type JWT struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewJWT(secret, issuer string, ttl time.Duration) *JWT {
	if secret == "" {
		panic("JWT secret cannot be empty")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &JWT{secret: []byte(secret), issuer: issuer, ttl: ttl, now: time.Now}
}

func (j *JWT) TTL() time.Duration { return j.ttl }

// Issue signs a token for the given account.
func (j *JWT) Issue(userID int64, username string, role types.Role) (string, error) {
	now := j.now()
	claims := Claims{
		UserID:   userID,
		Username: username,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(userID, 10),
			Issuer:    j.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

// Parse verifies signature, expiry and issuer.
func (j *JWT) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(j.now),
	}
	if j.issuer != "" {
		opts = append(opts, jwt.WithIssuer(j.issuer))
	}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return j.secret, nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

// AccountFinder resolves a token subject to an active account.
type AccountFinder interface {
	FindActiveByID(ctx context.Context, id int64) (*types.User, error)
}

// Authenticate requires a valid Bearer token and stores its claims in the
// request context. When accounts is set the token's account must still be
// active.
func Authenticate(logger *slog.Logger, j *JWT, accounts AccountFinder) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			l := logger.With(slog.String("middleware", "Authenticate"))

			scheme, tokenString, ok := strings.Cut(r.Header.Get("Authorization"), " ")
			if !ok || !strings.EqualFold(scheme, "bearer") || tokenString == "" {
				l.DebugContext(ctx, "Missing or malformed Authorization header")
				api.WriteError(w, r, types.ErrAuthRequired)
				return
			}

			claims, err := j.Parse(tokenString)
			if err != nil {
				detail := "invalid token"
				if errors.Is(err, jwt.ErrTokenExpired) {
					detail = "token expired"
				}
				l.WarnContext(ctx, "Token validation failed", slog.Any("error", err))
				api.WriteError(w, r, types.ErrAuthRequired.WithDetail("%s", detail))
				return
			}

			if accounts != nil {
				if _, err := accounts.FindActiveByID(ctx, claims.UserID); err != nil {
					if errors.Is(err, types.ErrNotFound) {
						l.WarnContext(ctx, "Token of a deleted account", slog.Int64("user_id", claims.UserID))
						api.WriteError(w, r, types.ErrAuthRequired.WithDetail("account is no longer active"))
						return
					}
					l.ErrorContext(ctx, "Account lookup failed", slog.Any("error", err))
					api.WriteError(w, r, err)
					return
				}
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(ctx, claims)))
		})
	}
}

// RequireRole rejects authenticated callers whose role is not listed. It must
// run after Authenticate.
func RequireRole(roles ...types.Role) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				api.WriteError(w, r, types.ErrAuthRequired)
				return
			}
			if !slices.Contains(roles, claims.Role) {
				api.WriteError(w, r, types.ErrAccessDenied)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func WithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, claimsKey, c)
}

func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsKey).(*Claims)
	return c, ok
}
