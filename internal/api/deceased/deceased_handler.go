package deceased

import (
	"log/slog"
	"net/http"

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
	service Service
	logger  *slog.Logger
}

var sortableFields = map[string]string{
	"id":        "id",
	"fullName":  "full_name",
	"birthDate": "birth_date",
	"deathDate": "death_date",
	"createdAt": "created_at",
}

func NewHandlerImpl(service Service, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{service: service, logger: logger}
}

// Create godoc
// @Summary      Create Deceased
// @Tags         Deceased
// @Accept       json
// @Produce      json
// @Param        deceased body types.DeceasedCreateRequest true "Deceased"
// @Success      201 {object} types.DeceasedResponse
// @Failure      400 {object} types.ErrorBody
// @Failure      409 {object} types.ErrorBody
// @Security     BearerAuth
// @Router       /deceased [post]
func (h *HandlerImpl) Create(w http.ResponseWriter, r *http.Request) {
	var params types.DeceasedCreateRequest
	if err := api.DecodeAndValidate(w, r, &params); err != nil {
		h.logger.WarnContext(r.Context(), "Invalid create deceased request", slog.Any("error", err))
		api.WriteError(w, r, err)
		return
	}

	resp, err := h.service.Create(r.Context(), params)
	if err != nil {
		api.WriteError(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusCreated, resp)
}

// List godoc
// @Summary      List Deceased
// @Tags         Deceased
// @Produce      json
// @Param        page   query int    false "Zero-based page"
// @Param        size   query int    false "Page size"
// @Param        search query string false "Full name substring"
// @Param        sort   query string false "field,asc|desc"
// @Success      200 {object} store.Page[types.DeceasedResponse]
// @Security     BearerAuth
// @Router       /deceased [get]
func (h *HandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	req, err := api.ParsePageRequest(r, sortableFields)
	if err != nil {
		api.WriteError(w, r, err)
		return
	}
	page, err := h.service.List(r.Context(), req, r.URL.Query().Get("search"))
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to list deceased", slog.Any("error", err))
		api.WriteError(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, page)
}

// GetOne godoc
// @Summary      Get Deceased
// @Tags         Deceased
// @Produce      json
// @Param        id path int true "Deceased ID"
// @Success      200 {object} types.DeceasedResponse
// @Failure      404 {object} types.ErrorBody
// @Security     BearerAuth
// @Router       /deceased/{id} [get]
func (h *HandlerImpl) GetOne(w http.ResponseWriter, r *http.Request) {
	id, err := api.PathID(r, "id")
	if err != nil {
		api.WriteError(w, r, err)
		return
	}
	resp, err := h.service.GetOne(r.Context(), id)
	if err != nil {
		api.WriteError(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, resp)
}

// Update godoc
// @Summary      Update Deceased
// @Tags         Deceased
// @Accept       json
// @Produce      json
// @Param        id       path int                         true "Deceased ID"
// @Param        deceased body types.DeceasedUpdateRequest true "Fields to change"
// @Success      200 {object} types.DeceasedResponse
// @Failure      400 {object} types.ErrorBody
// @Failure      404 {object} types.ErrorBody
// @Failure      409 {object} types.ErrorBody
// @Security     BearerAuth
// @Router       /deceased/{id} [put]
func (h *HandlerImpl) Update(w http.ResponseWriter, r *http.Request) {
	id, err := api.PathID(r, "id")
	if err != nil {
		api.WriteError(w, r, err)
		return
	}
	var params types.DeceasedUpdateRequest
	if err := api.DecodeAndValidate(w, r, &params); err != nil {
		api.WriteError(w, r, err)
		return
	}
	resp, err := h.service.Update(r.Context(), id, params)
	if err != nil {
		api.WriteError(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, resp)
}

// Delete godoc
// @Summary      Delete Deceased
// @Tags         Deceased
// @Param        id path int true "Deceased ID"
// @Success      204
// @Failure      404 {object} types.ErrorBody
// @Security     BearerAuth
// @Router       /deceased/{id} [delete]
func (h *HandlerImpl) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := api.PathID(r, "id")
	if err != nil {
		api.WriteError(w, r, err)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		api.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteMany godoc
// @Summary      Delete Deceased Records
// @Tags         Deceased
// @Accept       json
// @Produce      json
// @Param        ids body types.BatchDeleteRequest true "IDs"
// @Success      200 {object} types.BatchDeleteResponse
// @Security     BearerAuth
// @Router       /deceased/batch-delete [post]
func (h *HandlerImpl) DeleteMany(w http.ResponseWriter, r *http.Request) {
	var req types.BatchDeleteRequest
	if err := api.DecodeAndValidate(w, r, &req); err != nil {
		api.WriteError(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, h.service.DeleteMany(r.Context(), req.IDs))
}
