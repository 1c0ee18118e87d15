package handler

import (
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"docparse/internal/service"
)

// DocumentHandler handles document parse and retrieval endpoints.
type DocumentHandler struct {
	docSvc service.DocumentService
}

// NewDocumentHandler creates a new DocumentHandler.
func NewDocumentHandler(docSvc service.DocumentService) *DocumentHandler {
	return &DocumentHandler{docSvc: docSvc}
}

// Parse handles POST /api/v1/documents/parse
func (h *DocumentHandler) Parse(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "MISSING_FILE", "multipart field 'file' is required")
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		RespondError(c, http.StatusBadRequest, "UNREADABLE_FILE", "uploaded file could not be opened")
		return
	}
	defer func() { _ = f.Close() }()

	content, err := io.ReadAll(f)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "UNREADABLE_FILE", "uploaded file could not be read")
		return
	}

	rec, err := h.docSvc.Parse(c.Request.Context(), fileHeader.Filename, content)
	if err != nil {
		log.Printf("handler.DocumentHandler: parse %s: %v", fileHeader.Filename, err)
		RespondDomainError(c, err)
		return
	}
	RespondCreated(c, rec)
}

// GetByID handles GET /api/v1/documents/:id
func (h *DocumentHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "document id must be a UUID")
		return
	}

	rec, err := h.docSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, rec)
}

// List handles GET /api/v1/documents
func (h *DocumentHandler) List(c *gin.Context) {
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	recs, total, err := h.docSvc.List(c.Request.Context(), offset, limit)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondPaginated(c, recs, PagMeta{Total: total, Offset: offset, Limit: limit})
}

// Export handles GET /api/v1/documents/:id/export?format=csv|xlsx|ubl
func (h *DocumentHandler) Export(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "document id must be a UUID")
		return
	}

	out, err := h.docSvc.Export(c.Request.Context(), id, c.DefaultQuery("format", "csv"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+out.Filename+`"`)
	c.Data(http.StatusOK, out.ContentType, out.Content)
}
