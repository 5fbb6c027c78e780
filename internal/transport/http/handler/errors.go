package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"docchat/internal/app"
	"docchat/internal/transport/http/response"
)

// statusOf maps service errors to the HTTP status and the detail shown to the
// client. fallback is used for errors the table does not know.
func statusOf(err error, fallback string) (int, string) {
	switch {
	case errors.Is(err, app.ErrSessionNotFound):
		return http.StatusNotFound, "Session not found"
	case errors.Is(err, app.ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, app.ErrUpstream), errors.Is(err, app.ErrExtraction):
		return http.StatusInternalServerError, err.Error()
	default:
		return http.StatusInternalServerError, fallback
	}
}

func writeError(c *gin.Context, err error, fallback string) {
	status, detail := statusOf(err, fallback)
	_ = c.Error(err)
	response.Error(c, status, detail)
}
