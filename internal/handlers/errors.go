package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/imrishuroy/orderdesk/internal/attachments"
	"github.com/imrishuroy/orderdesk/internal/intake"
	"github.com/imrishuroy/orderdesk/internal/orders"
)

// errorResponse maps a pipeline or store error onto the HTTP answer.
// Malformed order data is a 500, matching the service's historical contract.
func errorResponse(err error) (int, gin.H) {
	switch {
	case isTooLarge(err):
		return http.StatusRequestEntityTooLarge, gin.H{"message": "Upload too large"}
	case errors.Is(err, orders.ErrNotFound):
		return http.StatusNotFound, gin.H{"message": "Order not found"}
	case errors.Is(err, intake.ErrNoVideo):
		return http.StatusBadRequest, gin.H{"message": "No video received"}
	case errors.Is(err, intake.ErrMalformedInput):
		return http.StatusInternalServerError, gin.H{"message": "Invalid order data", "error": err.Error()}
	case errors.Is(err, attachments.ErrUploadFailed):
		return http.StatusInternalServerError, gin.H{"message": "Upload failed", "error": err.Error()}
	default:
		return http.StatusInternalServerError, gin.H{"message": "Internal error", "error": err.Error()}
	}
}

func writeError(c *gin.Context, err error) {
	code, body := errorResponse(err)
	c.JSON(code, body)
}

// isTooLarge reports a body cut off by BodyLimit.
func isTooLarge(err error) bool {
	var tooLarge *http.MaxBytesError
	return errors.As(err, &tooLarge)
}
