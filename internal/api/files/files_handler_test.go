package files

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-cemetery-registry/internal/types"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Upload(ctx context.Context, payload io.Reader, originalFilename, contentType string) (*types.FileAssetResponse, error) {
	body, _ := io.ReadAll(payload)
	args := m.Called(ctx, string(body), originalFilename, contentType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.FileAssetResponse), args.Error(1)
}

func (m *MockService) Download(ctx context.Context, hashID string) (*Download, error) {
	args := m.Called(ctx, hashID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Download), args.Error(1)
}

func (m *MockService) GetByToken(ctx context.Context, hashID string) (*types.FileAssetInfo, error) {
	args := m.Called(ctx, hashID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.FileAssetInfo), args.Error(1)
}

func (m *MockService) Delete(ctx context.Context, hashID string) error {
	return m.Called(ctx, hashID).Error(0)
}

func newFileRouter(h *HandlerImpl) http.Handler {
	r := chi.NewRouter()
	r.Post("/files/upload", h.Upload)
	r.Get("/files/download/{hashId}", h.Download)
	r.Get("/files/{hashId}", h.Info)
	r.Delete("/files/{hashId}", h.Delete)
	return r
}

func multipartBody(t *testing.T, field, filename, contentType, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
	if contentType != "" {
		hdr.Set("Content-Type", contentType)
	}
	part, err := mw.CreatePart(hdr)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestFileHandlerUpload(t *testing.T) {
	svc := new(MockService)
	router := newFileRouter(NewHandlerImpl(svc, 1<<20, slog.Default()))

	t.Run("Created", func(t *testing.T) {
		svc.On("Upload", mock.Anything, "jpegdata", "grave.jpg", "image/jpeg").
			Return(&types.FileAssetResponse{HashID: "abc123"}, nil).Once()

		body, ct := multipartBody(t, "file", "grave.jpg", "image/jpeg", "jpegdata")
		req := httptest.NewRequest(http.MethodPost, "/files/upload", body)
		req.Header.Set("Content-Type", ct)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusCreated, rr.Code)
		assert.JSONEq(t, `{"hashId":"abc123"}`, rr.Body.String())
		svc.AssertExpectations(t)
	})

	t.Run("MissingPart", func(t *testing.T) {
		body, ct := multipartBody(t, "other", "x.txt", "text/plain", "x")
		req := httptest.NewRequest(http.MethodPost, "/files/upload", body)
		req.Header.Set("Content-Type", ct)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestFileHandlerDownload(t *testing.T) {
	svc := new(MockService)
	router := newFileRouter(NewHandlerImpl(svc, 0, slog.Default()))

	svc.On("Download", mock.Anything, "abc123").Return(&Download{
		Content:     io.NopCloser(bytes.NewBufferString("pdfbytes")),
		ContentType: "application/pdf",
		Name:        "cert.pdf",
		Size:        8,
	}, nil).Once()

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/files/download/abc123", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/pdf", rr.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename=cert.pdf", rr.Header().Get("Content-Disposition"))
	assert.Equal(t, "8", rr.Header().Get("Content-Length"))
	assert.Equal(t, "pdfbytes", rr.Body.String())

	svc.On("Download", mock.Anything, "missing").Return(nil, types.ErrFileNotFound).Once()
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/files/download/missing", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), `"code":108`)
}
