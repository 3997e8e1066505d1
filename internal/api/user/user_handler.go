package user

import (
	"log/slog"
	"net/http"

	appMiddleware "github.com/FACorreiaa/go-cemetery-registry/app/middleware"
	"github.com/FACorreiaa/go-cemetery-registry/internal/api"
	"github.com/FACorreiaa/go-cemetery-registry/internal/types"
)

var _ Handler = (*HandlerImpl)(nil)

type Handler interface {
	Create(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	GetOne(w http.ResponseWriter, r *http.Request)
	Update(w http.ResponseWriter, r *http.Request)
	Delete(w http.ResponseWriter, r *http.Request)
	DeleteMany(w http.ResponseWriter, r *http.Request)
}

type HandlerImpl struct {
	userService UserService
	logger      *slog.Logger
}

var sortableFields = map[string]string{
	"id":        "id",
	"username":  "username",
	"fullName":  "full_name",
	"createdAt": "created_at",
}

// NewHandlerImpl creates a new user HandlerImpl instance.
func NewHandlerImpl(userService UserService, logger *slog.Logger) *HandlerImpl {
	if logger == nil {
		panic("user: nil logger")
	}
	return &HandlerImpl{
		userService: userService,
		logger:      logger,
	}
}

// Create godoc
// @Summary      Create User
// @Description  Creates an account. A soft-deleted account with the same username is reclaimed.
// @Tags         User
// @Accept       json
// @Produce      json
// @Param        user body types.UserCreateRequest true "User"
// @Success      201 {object} types.UserResponse
// @Failure      400 {object} types.ErrorBody
// @Failure      409 {object} types.ErrorBody
// @Security     BearerAuth
// @Router       /users [post]
func (h *HandlerImpl) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "Create"))

	var params types.UserCreateRequest
	if err := api.DecodeAndValidate(w, r, &params); err != nil {
		l.WarnContext(ctx, "Invalid create user request", slog.Any("error", err))
		api.WriteError(w, r, err)
		return
	}

	resp, err := h.userService.Create(ctx, params)
	if err != nil {
		api.WriteError(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusCreated, resp)
}

// List godoc
// @Summary      List Users
// @Description  Pages active users. DEV accounts are never listed.
// @Tags         User
// @Produce      json
// @Param        page   query int    false "Zero-based page"
// @Param        size   query int    false "Page size"
// @Param        search query string false "Username substring"
// @Param        sort   query string false "field,asc|desc"
// @Success      200 {object} store.Page[types.UserResponse]
// @Security     BearerAuth
// @Router       /users [get]
func (h *HandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	req, err := api.ParsePageRequest(r, sortableFields)
	if err != nil {
		api.WriteError(w, r, err)
		return
	}

	page, err := h.userService.List(r.Context(), req, r.URL.Query().Get("search"))
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to list users", slog.Any("error", err))
		api.WriteError(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, page)
}

// GetOne godoc
// @Summary      Get User
// @Tags         User
// @Produce      json
// @Param        id path int true "User ID"
// @Success      200 {object} types.UserResponse
// @Failure      404 {object} types.ErrorBody
// @Security     BearerAuth
// @Router       /users/{id} [get]
func (h *HandlerImpl) GetOne(w http.ResponseWriter, r *http.Request) {
	id, err := api.PathID(r, "id")
	if err != nil {
		api.WriteError(w, r, err)
		return
	}

	resp, err := h.userService.GetOne(r.Context(), id)
	if err != nil {
		api.WriteError(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, resp)
}

// Update godoc
// @Summary      Update User
// @Description  Partially updates an active user.
// @Tags         User
// @Accept       json
// @Produce      json
// @Param        id   path int                     true "User ID"
// @Param        user body types.UserUpdateRequest true "Fields to change"
// @Success      200 {object} types.UserResponse
// @Failure      400 {object} types.ErrorBody
// @Failure      403 {object} types.ErrorBody
// @Failure      404 {object} types.ErrorBody
// @Failure      409 {object} types.ErrorBody
// @Security     BearerAuth
// @Router       /users/{id} [put]
func (h *HandlerImpl) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := api.PathID(r, "id")
	if err != nil {
		api.WriteError(w, r, err)
		return
	}

	claims, ok := appMiddleware.ClaimsFromContext(ctx)
	if !ok {
		api.WriteError(w, r, types.ErrAuthRequired)
		return
	}
	// plain users may only edit themselves
	if !claims.Role.Staff() && claims.UserID != id {
		h.logger.WarnContext(ctx, "Rejected update of another account",
			slog.Int64("caller", claims.UserID), slog.Int64("target", id))
		api.WriteError(w, r, types.ErrAccessDenied)
		return
	}

	var params types.UserUpdateRequest
	if err := api.DecodeAndValidate(w, r, &params); err != nil {
		api.WriteError(w, r, err)
		return
	}

	resp, err := h.userService.Update(ctx, id, params)
	if err != nil {
		api.WriteError(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, resp)
}

// Delete godoc
// @Summary      Delete User
// @Description  Soft-deletes a user. Deleting an already deleted user succeeds.
// @Tags         User
// @Param        id path int true "User ID"
// @Success      204
// @Failure      404 {object} types.ErrorBody
// @Security     BearerAuth
// @Router       /users/{id} [delete]
func (h *HandlerImpl) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := api.PathID(r, "id")
	if err != nil {
		api.WriteError(w, r, err)
		return
	}
	if err := h.userService.Delete(r.Context(), id); err != nil {
		api.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteMany godoc
// @Summary      Delete Users
// @Description  Soft-deletes every id independently and reports failures per id.
// @Tags         User
// @Accept       json
// @Produce      json
// @Param        ids body types.BatchDeleteRequest true "IDs"
// @Success      200 {object} types.BatchDeleteResponse
// @Security     BearerAuth
// @Router       /users/batch-delete [post]
func (h *HandlerImpl) DeleteMany(w http.ResponseWriter, r *http.Request) {
	var req types.BatchDeleteRequest
	if err := api.DecodeAndValidate(w, r, &req); err != nil {
		api.WriteError(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, h.userService.DeleteMany(r.Context(), req.IDs))
}
