package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"

	"github.com/imrishuroy/orderdesk/internal/notify"
)

const (
	HeaderRequestID      = "X-Request-Id"
	HeaderIdempotencyKey = "Idempotency-Key"

	requestIDKey = "request_id"
)

// RequestID reuses the caller's X-Request-Id or mints one, echoes it on the
// response and threads it through the request context so queued
// notifications carry it as their correlation id.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(HeaderRequestID, id)
		c.Request = c.Request.WithContext(notify.WithCorrelationID(c.Request.Context(), id))
		c.Next()
	}
}

// AccessLog writes one line per request.
func AccessLog(logger log.Logger) gin.HandlerFunc {
	helper := log.NewHelper(log.With(logger, "component", "http"))
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		helper.Infow(
			"msg", "request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
			"request_id", c.GetString(requestIDKey),
		)
	}
}

// BodyLimit rejects requests whose body exceeds limit bytes. Declared sizes
// are refused up front; chunked bodies fail while being read.
func BodyLimit(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > limit {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"message": "Upload too large"})
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}
