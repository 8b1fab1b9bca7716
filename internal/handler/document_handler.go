package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ragline/ragline/internal/extract"
	"github.com/ragline/ragline/internal/pkg/errcode"
	"github.com/ragline/ragline/internal/pkg/response"
	"github.com/ragline/ragline/internal/service"
)

type DocumentHandler struct {
	ingest *service.IngestService
}

func NewDocumentHandler(ingest *service.IngestService) *DocumentHandler {
	return &DocumentHandler{ingest: ingest}
}

// Upload accepts one multipart file and records it for asynchronous
// ingestion. The response carries the document in pending state.
func (h *DocumentHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, errcode.ErrInvalidFile, "file is required")
		return
	}
	if fileHeader.Size > extract.MaxFileSize {
		response.Error(c, errcode.ErrUploadFailed, "file exceeds "+formatUploadLimit(extract.MaxFileSize))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, errcode.ErrUploadFailed, "cannot read upload")
		return
	}
	defer file.Close()
	doc, err := h.ingest.Upload(c.Request.Context(), c.Param("id"), fileHeader.Filename, file, fileHeader.Size)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, doc)
}

func (h *DocumentHandler) List(c *gin.Context) {
	docs, err := h.ingest.List(c.Request.Context(), c.Param("id"), queryUint(c, "limit"), queryUint(c, "offset"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, docs)
}

func (h *DocumentHandler) Get(c *gin.Context) {
	doc, err := h.ingest.Get(c.Request.Context(), c.Param("id"), c.Param("doc_id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, doc)
}

func (h *DocumentHandler) Delete(c *gin.Context) {
	if err := h.ingest.Delete(c.Request.Context(), c.Param("id"), c.Param("doc_id")); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": true})
}
