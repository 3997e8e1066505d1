package deceasedFile

import (
	"log/slog"
	"net/http"

	"github.com/FACorreiaa/go-cemetery-registry/internal/api"
	"github.com/FACorreiaa/go-cemetery-registry/internal/types"
)

var _ Handler = (*HandlerImpl)(nil)

type Handler interface {
	Create(w http.ResponseWriter, r *http.Request)
	ListByDeceased(w http.ResponseWriter, r *http.Request)
	Delete(w http.ResponseWriter, r *http.Request)
}

type HandlerImpl struct {
	service Service
	logger  *slog.Logger
}

func NewHandlerImpl(service Service, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{service: service, logger: logger}
}

// Create godoc
// @Summary      Link File To Deceased
// @Description  Category defaults to PHOTO.
// @Tags         DeceasedFiles
// @Accept       json
// @Produce      json
// @Param        link body types.DeceasedFileCreateRequest true "Link"
// @Success      201 {object} types.DeceasedFileResponse
// @Failure      404 {object} types.ErrorBody
// @Security     BearerAuth
// @Router       /deceased-files [post]
func (h *HandlerImpl) Create(w http.ResponseWriter, r *http.Request) {
	var params types.DeceasedFileCreateRequest
	if err := api.DecodeAndValidate(w, r, &params); err != nil {
		api.WriteError(w, r, err)
		return
	}
	resp, err := h.service.Create(r.Context(), params)
	if err != nil {
		h.logger.WarnContext(r.Context(), "Failed to link file", slog.Any("error", err))
		api.WriteError(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusCreated, resp)
}

// ListByDeceased godoc
// @Summary      Files Of Deceased
// @Tags         DeceasedFiles
// @Produce      json
// @Param        id path int true "Deceased ID"
// @Success      200 {array} types.DeceasedFileResponse
// @Failure      404 {object} types.ErrorBody
// @Security     BearerAuth
// @Router       /deceased/{id}/files [get]
func (h *HandlerImpl) ListByDeceased(w http.ResponseWriter, r *http.Request) {
	id, err := api.PathID(r, "id")
	if err != nil {
		api.WriteError(w, r, err)
		return
	}
	resp, err := h.service.ListByDeceased(r.Context(), id)
	if err != nil {
		api.WriteError(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, resp)
}

// Delete godoc
// @Summary      Unlink File
// @Tags         DeceasedFiles
// @Param        id path int true "Link ID"
// @Success      204
// @Failure      404 {object} types.ErrorBody
// @Security     BearerAuth
// @Router       /deceased-files/{id} [delete]
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
