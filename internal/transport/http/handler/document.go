package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"docchat/internal/app"
	"docchat/internal/transport/http/response"
)

type DocumentHandler struct {
	documentService *app.DocumentService
	maxUpload       int64
}

// NewDocumentHandler limits request bodies to maxUpload bytes; zero or less
// disables the limit.
func NewDocumentHandler(documentService *app.DocumentService, maxUpload int64) *DocumentHandler {
	return &DocumentHandler{documentService: documentService, maxUpload: maxUpload}
}

func (h *DocumentHandler) Upload(c *gin.Context) {
	if h.maxUpload > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(c, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		response.Error(c, http.StatusBadRequest, "file is required")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, http.StatusBadRequest, "read upload failed")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "read upload failed")
		return
	}

	summary, err := h.documentService.Upload(c.Request.Context(), app.UploadInput{
		SessionID: c.Param("id"),
		Filename:  fileHeader.Filename,
		Data:      data,
	})
	if err != nil {
		writeError(c, err, "upload failed")
		return
	}
	response.OK(c, gin.H{
		"message":  "PDF uploaded successfully",
		"document": summary,
	})
}
