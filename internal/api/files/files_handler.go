package files

import (
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/FACorreiaa/go-cemetery-registry/internal/api"
	"github.com/FACorreiaa/go-cemetery-registry/internal/types"
)

var _ Handler = (*HandlerImpl)(nil)

const formField = "file"

type Handler interface {
	Upload(w http.ResponseWriter, r *http.Request)
	Download(w http.ResponseWriter, r *http.Request)
	Info(w http.ResponseWriter, r *http.Request)
	Delete(w http.ResponseWriter, r *http.Request)
}

type HandlerImpl struct {
	service       Service
	maxUploadSize int64
	logger        *slog.Logger
}

func NewHandlerImpl(service Service, maxUploadSize int64, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{service: service, maxUploadSize: maxUploadSize, logger: logger}
}

// Upload godoc
// @Summary      Upload File
// @Description  Stores a multipart "file" part and returns its public token.
// @Tags         Files
// @Accept       multipart/form-data
// @Produce      json
// @Param        file formData file true "Payload"
// @Success      201 {object} types.FileAssetResponse
// @Failure      400 {object} types.ErrorBody
// @Security     BearerAuth
// @Router       /files/upload [post]
func (h *HandlerImpl) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "Upload"))

	if h.maxUploadSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	}
	file, header, err := r.FormFile(formField)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			api.WriteError(w, r, types.ErrValidationFailed.WithDetail("file must not be larger than %d bytes", maxErr.Limit))
			return
		}
		l.WarnContext(ctx, "Missing multipart file", slog.Any("error", err))
		api.WriteError(w, r, types.ErrValidationFailed.WithDetail("multipart field %q is required", formField))
		return
	}
	defer file.Close()

	resp, err := h.service.Upload(ctx, file, header.Filename, header.Header.Get("Content-Type"))
	if err != nil {
		api.WriteError(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusCreated, resp)
}

// Download godoc
// @Summary      Download File
// @Tags         Files
// @Produce      octet-stream
// @Param        hashId path string true "Public token"
// @Success      200 {file} file
// @Failure      404 {object} types.ErrorBody
// @Router       /files/download/{hashId} [get]
func (h *HandlerImpl) Download(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	hashID := chi.URLParam(r, "hashId")

	dl, err := h.service.Download(ctx, hashID)
	if err != nil {
		api.WriteError(w, r, err)
		return
	}
	defer dl.Content.Close()

	contentType := dl.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": dl.Name}))
	w.Header().Set("Content-Length", strconv.FormatInt(dl.Size, 10))
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, dl.Content); err != nil {
		h.logger.WarnContext(ctx, "Download interrupted", slog.String("hashID", hashID), slog.Any("error", err))
	}
}

// Info godoc
// @Summary      File Metadata
// @Tags         Files
// @Produce      json
// @Param        hashId path string true "Public token"
// @Success      200 {object} types.FileAssetInfo
// @Failure      404 {object} types.ErrorBody
// @Security     BearerAuth
// @Router       /files/{hashId} [get]
func (h *HandlerImpl) Info(w http.ResponseWriter, r *http.Request) {
	info, err := h.service.GetByToken(r.Context(), chi.URLParam(r, "hashId"))
	if err != nil {
		api.WriteError(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, info)
}

// Delete godoc
// @Summary      Delete File
// @Tags         Files
// @Param        hashId path string true "Public token"
// @Success      204
// @Failure      404 {object} types.ErrorBody
// @Security     BearerAuth
// @Router       /files/{hashId} [delete]
func (h *HandlerImpl) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "hashId")); err != nil {
		api.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
