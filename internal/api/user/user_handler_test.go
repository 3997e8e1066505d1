package user

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	appMiddleware "github.com/FACorreiaa/go-cemetery-registry/app/middleware"
	"github.com/FACorreiaa/go-cemetery-registry/internal/store"
	"github.com/FACorreiaa/go-cemetery-registry/internal/types"
)

// MockUserService is a mock implementation of UserService.
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) response(args mock.Arguments) (*types.UserResponse, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.UserResponse), args.Error(1)
}

func (m *MockUserService) Create(ctx context.Context, params types.UserCreateRequest) (*types.UserResponse, error) {
	return m.response(m.Called(ctx, params))
}

func (m *MockUserService) Register(ctx context.Context, params types.UserCreateRequest) (*types.UserResponse, error) {
	return m.response(m.Called(ctx, params))
}

func (m *MockUserService) GetOne(ctx context.Context, id int64) (*types.UserResponse, error) {
	return m.response(m.Called(ctx, id))
}

func (m *MockUserService) List(ctx context.Context, req store.PageRequest, search string) (store.Page[types.UserResponse], error) {
	args := m.Called(ctx, req, search)
	return args.Get(0).(store.Page[types.UserResponse]), args.Error(1)
}

func (m *MockUserService) Update(ctx context.Context, id int64, params types.UserUpdateRequest) (*types.UserResponse, error) {
	return m.response(m.Called(ctx, id, params))
}

func (m *MockUserService) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockUserService) DeleteMany(ctx context.Context, ids []int64) types.BatchDeleteResponse {
	return m.Called(ctx, ids).Get(0).(types.BatchDeleteResponse)
}

func (m *MockUserService) EnsureAdmin(ctx context.Context, params types.UserCreateRequest) (bool, error) {
	args := m.Called(ctx, params)
	return args.Bool(0), args.Error(1)
}

func newUserRouter(h *HandlerImpl) http.Handler {
	r := chi.NewRouter()
	r.Post("/users", h.Create)
	r.Get("/users", h.List)
	r.Post("/users/batch-delete", h.DeleteMany)
	r.Get("/users/{id}", h.GetOne)
	r.Put("/users/{id}", h.Update)
	r.Delete("/users/{id}", h.Delete)
	return r
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) types.ErrorBody {
	t.Helper()
	var body types.ErrorBody
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body
}

func TestUserHandlerCreate(t *testing.T) {
	mockService := new(MockUserService)
	router := newUserRouter(NewHandlerImpl(mockService, slog.Default()))

	t.Run("Success", func(t *testing.T) {
		params := createParams()
		body, _ := json.Marshal(params)
		mockService.On("Create", mock.Anything, params).
			Return(&types.UserResponse{ID: 1, Username: "alice", Role: types.RoleAdmin}, nil).Once()

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/users", bytes.NewReader(body)))

		assert.Equal(t, http.StatusCreated, rr.Code)
		var resp types.UserResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, int64(1), resp.ID)
		mockService.AssertExpectations(t)
	})

	t.Run("ShortPassword", func(t *testing.T) {
		params := createParams()
		params.Password = "abc"
		body, _ := json.Marshal(params)

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/users", bytes.NewReader(body)))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, 103, decodeError(t, rr).Code)
	})

	t.Run("UnknownField", func(t *testing.T) {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/users", bytes.NewBufferString(`{"nickname":"x"}`)))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "VALIDATION_FAILED", decodeError(t, rr).Key)
	})

	t.Run("Conflict", func(t *testing.T) {
		params := createParams()
		params.Username = "bob"
		body, _ := json.Marshal(params)
		mockService.On("Create", mock.Anything, params).Return(nil, types.ErrUsernameExists).Once()

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/users", bytes.NewReader(body)))

		assert.Equal(t, http.StatusConflict, rr.Code)
		assert.Equal(t, "USERNAME_ALREADY_EXISTS", decodeError(t, rr).Key)
	})
}

func TestUserHandlerGetOne(t *testing.T) {
	mockService := new(MockUserService)
	router := newUserRouter(NewHandlerImpl(mockService, slog.Default()))

	t.Run("Found", func(t *testing.T) {
		mockService.On("GetOne", mock.Anything, int64(4)).
			Return(&types.UserResponse{ID: 4, Username: "dina"}, nil).Once()

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/users/4", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `"username":"dina"`)
	})

	t.Run("NotFoundInRussian", func(t *testing.T) {
		mockService.On("GetOne", mock.Anything, int64(5)).Return(nil, types.ErrUserNotFound).Once()

		req := httptest.NewRequest(http.MethodGet, "/users/5", nil)
		req.Header.Set("Accept-Language", "ru")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
		body := decodeError(t, rr)
		assert.Equal(t, 101, body.Code)
		assert.NotEqual(t, "User not found", body.Message)
	})

	t.Run("BadID", func(t *testing.T) {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/users/abc", nil))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("InternalError", func(t *testing.T) {
		mockService.On("GetOne", mock.Anything, int64(6)).Return(nil, errors.New("boom")).Once()

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/users/6", nil))
		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.Equal(t, "INTERNAL_ERROR", decodeError(t, rr).Key)
	})
}

func TestUserHandlerList(t *testing.T) {
	mockService := new(MockUserService)
	router := newUserRouter(NewHandlerImpl(mockService, slog.Default()))

	t.Run("SortAndSearch", func(t *testing.T) {
		want := store.PageRequest{Page: 1, Size: 5, Sort: []store.Order{{Column: "full_name", Desc: true}}}
		mockService.On("List", mock.Anything, want, "ali").Return(store.Page[types.UserResponse]{
			Content:       []types.UserResponse{{ID: 1, Username: "alice"}},
			Page:          1,
			Size:          5,
			TotalElements: 6,
			TotalPages:    2,
		}, nil).Once()

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/users?page=1&size=5&sort=fullName,desc&search=ali", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		var page store.Page[types.UserResponse]
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &page))
		assert.Equal(t, int64(6), page.TotalElements)
		assert.Len(t, page.Content, 1)
		mockService.AssertExpectations(t)
	})

	t.Run("UnknownSortField", func(t *testing.T) {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/users?sort=password_hash", nil))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func withCaller(req *http.Request, id int64, role types.Role) *http.Request {
	return req.WithContext(appMiddleware.WithClaims(req.Context(), &appMiddleware.Claims{UserID: id, Role: role}))
}

func TestUserHandlerUpdate(t *testing.T) {
	mockService := new(MockUserService)
	router := newUserRouter(NewHandlerImpl(mockService, slog.Default()))

	name := "Dina K"
	body := `{"fullName":"Dina K"}`

	t.Run("OwnAccount", func(t *testing.T) {
		mockService.On("Update", mock.Anything, int64(4), types.UserUpdateRequest{FullName: &name}).
			Return(&types.UserResponse{ID: 4, FullName: name}, nil).Once()

		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, "/users/4", bytes.NewBufferString(body))
		router.ServeHTTP(rr, withCaller(req, 4, types.RoleUser))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `"fullName":"Dina K"`)
	})

	t.Run("StaffEditsAnyAccount", func(t *testing.T) {
		mockService.On("Update", mock.Anything, int64(9), types.UserUpdateRequest{FullName: &name}).
			Return(&types.UserResponse{ID: 9, FullName: name}, nil).Once()

		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, "/users/9", bytes.NewBufferString(body))
		router.ServeHTTP(rr, withCaller(req, 1, types.RoleAdmin))
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("PlainUserEditsAnotherAccount", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, "/users/1", bytes.NewBufferString(body))
		router.ServeHTTP(rr, withCaller(req, 5, types.RoleUser))

		assert.Equal(t, http.StatusForbidden, rr.Code)
		assert.Equal(t, "ACCESS_DENIED", decodeError(t, rr).Key)
		mockService.AssertNotCalled(t, "Update", mock.Anything, int64(1), mock.Anything)
	})

	t.Run("NoClaims", func(t *testing.T) {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodPut, "/users/4", bytes.NewBufferString(body)))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	mockService.AssertExpectations(t)
}

func TestUserHandlerDelete(t *testing.T) {
	mockService := new(MockUserService)
	router := newUserRouter(NewHandlerImpl(mockService, slog.Default()))

	t.Run("NoContent", func(t *testing.T) {
		mockService.On("Delete", mock.Anything, int64(3)).Return(nil).Once()

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/users/3", nil))
		assert.Equal(t, http.StatusNoContent, rr.Code)
		assert.Empty(t, rr.Body.Bytes())
	})

	t.Run("Batch", func(t *testing.T) {
		mockService.On("DeleteMany", mock.Anything, []int64{1, 2}).Return(types.BatchDeleteResponse{
			Deleted: []int64{1},
			Failed:  []types.BatchFailure{{ID: 2, Code: 101, Key: "USER_NOT_FOUND"}},
		}).Once()

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/users/batch-delete", bytes.NewBufferString(`{"ids":[1,2]}`)))

		assert.Equal(t, http.StatusOK, rr.Code)
		var resp types.BatchDeleteResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, []int64{1}, resp.Deleted)
		require.Len(t, resp.Failed, 1)
		assert.Equal(t, "USER_NOT_FOUND", resp.Failed[0].Key)
	})

	t.Run("EmptyBatch", func(t *testing.T) {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/users/batch-delete", bytes.NewBufferString(`{"ids":[]}`)))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}
