package handler_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"docparse/internal/domain"
	"docparse/internal/handler"
	"docparse/internal/service"
	"docparse/mocks"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupRouter(svc service.DocumentService) *gin.Engine {
	h := handler.NewDocumentHandler(svc)
	r := gin.New()
	r.POST("/api/v1/documents/parse", h.Parse)
	r.GET("/api/v1/documents", h.List)
	r.GET("/api/v1/documents/:id", h.GetByID)
	r.GET("/api/v1/documents/:id/export", h.Export)
	return r
}

func multipartUpload(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func decodeEnvelope(t *testing.T, body *bytes.Buffer) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(body.Bytes(), &out))
	return out
}

func sampleRecord() *domain.ParseRecord {
	return &domain.ParseRecord{
		ID:         uuid.New(),
		SourceFile: "invoice.pdf",
		Status:     domain.ParseStatusValid,
		Confidence: domain.ConfidenceHigh,
	}
}

func TestParse_Success(t *testing.T) {
	rec := sampleRecord()
	svc := new(mocks.MockDocumentService)
	svc.On("Parse", mock.Anything, "invoice.pdf", []byte("%PDF-1.7")).Return(rec, nil).Once()

	r := setupRouter(svc)
	body, contentType := multipartUpload(t, "file", "invoice.pdf", []byte("%PDF-1.7"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/parse", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	env := decodeEnvelope(t, w.Body)
	assert.Equal(t, true, env["success"])
	data := env["data"].(map[string]any)
	assert.Equal(t, rec.ID.String(), data["id"])
	svc.AssertExpectations(t)
}

func TestParse_MissingFile(t *testing.T) {
	r := setupRouter(new(mocks.MockDocumentService))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/parse", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	env := decodeEnvelope(t, w.Body)
	assert.Equal(t, "MISSING_FILE", env["error"].(map[string]any)["code"])
}

func TestParse_UnsupportedType(t *testing.T) {
	svc := new(mocks.MockDocumentService)
	svc.On("Parse", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, domain.ErrUnsupportedFileType).Once()

	r := setupRouter(svc)
	body, contentType := multipartUpload(t, "file", "malware.exe", []byte("MZ"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/parse", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	env := decodeEnvelope(t, w.Body)
	assert.Equal(t, "UNSUPPORTED_FILE_TYPE", env["error"].(map[string]any)["code"])
}

func TestParse_TooLarge(t *testing.T) {
	svc := new(mocks.MockDocumentService)
	svc.On("Parse", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, domain.ErrFileTooLarge).Once()

	r := setupRouter(svc)
	body, contentType := multipartUpload(t, "file", "big.pdf", []byte("%PDF-1.7"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/parse", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestGetByID(t *testing.T) {
	rec := sampleRecord()

	t.Run("found", func(t *testing.T) {
		svc := new(mocks.MockDocumentService)
		svc.On("GetByID", mock.Anything, rec.ID).Return(rec, nil).Once()

		r := setupRouter(svc)
		req := httptest.NewRequest(http.MethodGet, "/api/v1/documents/"+rec.ID.String(), nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("invalid_id", func(t *testing.T) {
		r := setupRouter(new(mocks.MockDocumentService))
		req := httptest.NewRequest(http.MethodGet, "/api/v1/documents/not-a-uuid", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		env := decodeEnvelope(t, w.Body)
		assert.Equal(t, "INVALID_ID", env["error"].(map[string]any)["code"])
	})

	t.Run("not_found", func(t *testing.T) {
		svc := new(mocks.MockDocumentService)
		svc.On("GetByID", mock.Anything, mock.Anything).
			Return(nil, domain.ErrDocumentNotFound).Once()

		r := setupRouter(svc)
		req := httptest.NewRequest(http.MethodGet, "/api/v1/documents/"+uuid.NewString(), nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestList(t *testing.T) {
	svc := new(mocks.MockDocumentService)
	svc.On("List", mock.Anything, 5, 10).
		Return([]domain.ParseRecord{*sampleRecord()}, 37, nil).Once()

	r := setupRouter(svc)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/documents?offset=5&limit=10", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	env := decodeEnvelope(t, w.Body)
	meta := env["meta"].(map[string]any)
	assert.EqualValues(t, 37, meta["total"])
	assert.EqualValues(t, 5, meta["offset"])
	assert.EqualValues(t, 10, meta["limit"])
	svc.AssertExpectations(t)
}

func TestExport(t *testing.T) {
	id := uuid.New()

	t.Run("csv_default", func(t *testing.T) {
		svc := new(mocks.MockDocumentService)
		svc.On("Export", mock.Anything, id, "csv").Return(&service.ExportOutput{
			Content:     []byte("a,b\n"),
			ContentType: "text/csv",
			Filename:    "invoice.csv",
		}, nil).Once()

		r := setupRouter(svc)
		req := httptest.NewRequest(http.MethodGet, "/api/v1/documents/"+id.String()+"/export", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
		assert.Contains(t, w.Header().Get("Content-Disposition"), `filename="invoice.csv"`)
		assert.Equal(t, "a,b\n", w.Body.String())
	})

	t.Run("unsupported_format", func(t *testing.T) {
		svc := new(mocks.MockDocumentService)
		svc.On("Export", mock.Anything, id, "pdf").
			Return(nil, domain.ErrUnsupportedExport).Once()

		r := setupRouter(svc)
		req := httptest.NewRequest(http.MethodGet, "/api/v1/documents/"+id.String()+"/export?format=pdf", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		env := decodeEnvelope(t, w.Body)
		assert.Equal(t, "UNSUPPORTED_EXPORT", env["error"].(map[string]any)["code"])
	})
}
