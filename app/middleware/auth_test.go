package appMiddleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-cemetery-registry/internal/types"
)

func setupJWT() *JWT {
	return NewJWT("test-secret", "test-issuer", time.Hour)
}

func okHandler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		require.True(t, ok)
		w.Header().Set("X-User", claims.Username)
		w.WriteHeader(http.StatusOK)
	})
}

func TestJWTIssueAndParse(t *testing.T) {
	j := setupJWT()

	token, err := j.Issue(42, "Admin01", types.RoleAdmin)
	require.NoError(t, err)

	claims, err := j.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "Admin01", claims.Username)
	assert.Equal(t, types.RoleAdmin, claims.Role)
	assert.Equal(t, "42", claims.Subject)
	assert.NotEmpty(t, claims.ID)

	t.Run("other secret is rejected", func(t *testing.T) {
		_, err := NewJWT("other", "test-issuer", time.Hour).Parse(token)
		assert.Error(t, err)
	})

	t.Run("expired token is rejected", func(t *testing.T) {
		expired := setupJWT()
		expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
		old, err := expired.Issue(1, "u", types.RoleUser)
		require.NoError(t, err)
		_, err = j.Parse(old)
		assert.Error(t, err)
	})
}

func TestAuthenticate(t *testing.T) {
	j := setupJWT()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := Authenticate(logger, j, nil)(okHandler(t))

	t.Run("missing header", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)

		var body types.ErrorBody
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.Equal(t, "AUTHENTICATION_REQUIRED", body.Key)
	})

	t.Run("garbage token", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer not-a-jwt")
		h.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		token, err := j.Issue(7, "alice", types.RoleUser)
		require.NoError(t, err)

		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "bearer "+token)
		h.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "alice", rr.Header().Get("X-User"))
	})
}

type accountsStub map[int64]bool

func (a accountsStub) FindActiveByID(_ context.Context, id int64) (*types.User, error) {
	if !a[id] {
		return nil, types.ErrUserNotFound
	}
	return &types.User{}, nil
}

type brokenAccounts struct{}

func (brokenAccounts) FindActiveByID(context.Context, int64) (*types.User, error) {
	return nil, errors.New("connection refused")
}

func TestAuthenticateDeletedAccount(t *testing.T) {
	j := setupJWT()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := Authenticate(logger, j, accountsStub{7: true})(okHandler(t))

	serve := func(h http.Handler, uid int64) *httptest.ResponseRecorder {
		token, err := j.Issue(uid, "someone", types.RoleAdmin)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr
	}

	t.Run("active account passes", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, serve(h, 7).Code)
	})

	t.Run("deleted account is rejected", func(t *testing.T) {
		rr := serve(h, 8)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)

		var body types.ErrorBody
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.Equal(t, "AUTHENTICATION_REQUIRED", body.Key)
	})

	t.Run("lookup failure is a server error", func(t *testing.T) {
		broken := Authenticate(logger, j, brokenAccounts{})(okHandler(t))
		assert.Equal(t, http.StatusInternalServerError, serve(broken, 7).Code)
	})
}

func TestRequireRole(t *testing.T) {
	h := RequireRole(types.RoleAdmin, types.RoleDev)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		claims *Claims
		want   int
	}{
		{"no claims", nil, http.StatusUnauthorized},
		{"plain user", &Claims{Role: types.RoleUser}, http.StatusForbidden},
		{"admin", &Claims{Role: types.RoleAdmin}, http.StatusNoContent},
		{"dev", &Claims{Role: types.RoleDev}, http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodDelete, "/", nil)
			if tt.claims != nil {
				req = req.WithContext(WithClaims(req.Context(), tt.claims))
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			assert.Equal(t, tt.want, rr.Code)
		})
	}
}
