package auth

import (
	"log/slog"
	"net/http"

	"github.com/FACorreiaa/go-cemetery-registry/internal/api"
	"github.com/FACorreiaa/go-cemetery-registry/internal/types"
)

type AuthHandler struct {
	authService AuthService
	logger      *slog.Logger
}

func NewAuthHandler(authService AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		logger:      logger,
		authService: authService,
	}
}

// Login godoc
// @Summary      Login
// @Description  Exchanges username and password for a Bearer access token.
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        credentials body types.LoginRequest true "Credentials"
// @Success      200 {object} types.TokenResponse
// @Failure      401 {object} types.ErrorBody
// @Router       /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req types.LoginRequest
	if err := api.DecodeAndValidate(w, r, &req); err != nil {
		api.WriteError(w, r, err)
		return
	}

	resp, err := h.authService.Login(r.Context(), req)
	if err != nil {
		h.logger.WarnContext(r.Context(), "Login failed", slog.String("username", req.Username), slog.Any("error", err))
		api.WriteError(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, resp)
}

// Register godoc
// @Summary      Register
// @Description  Creates a USER account. A soft-deleted account with the same username is reclaimed.
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        user body types.UserCreateRequest true "Account"
// @Success      201 {object} types.UserResponse
// @Failure      400 {object} types.ErrorBody
// @Failure      409 {object} types.ErrorBody
// @Router       /auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var params types.UserCreateRequest
	if err := api.DecodeAndValidate(w, r, &params); err != nil {
		api.WriteError(w, r, err)
		return
	}

	resp, err := h.authService.Register(r.Context(), params)
	if err != nil {
		api.WriteError(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusCreated, resp)
}
