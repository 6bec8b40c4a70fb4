package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/yukikurage/agency-management-api/internal/logger"
	"github.com/yukikurage/agency-management-api/internal/metrics"
)

const requestIDHeader = "X-Request-ID"

// RequestLogger logs every request and records its duration.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	log = log.With("component", "http")

	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(requestIDHeader, requestID)

		c.Next()

		duration := time.Since(start)
		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		metrics.RecordHTTPRequestDuration(c.Request.Method, path, strconv.Itoa(status), duration)

		kv := []interface{}{
			"request_id", requestID,
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"duration_ms", duration.Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		if userID, ok := GetUserID(c); ok {
			kv = append(kv, "user_id", userID)
		}
		if len(c.Errors) > 0 {
			kv = append(kv, "errors", c.Errors.String())
		}

		switch {
		case status >= 500:
			log.Error("request failed", kv...)
		case status >= 400:
			log.Warn("request rejected", kv...)
		default:
			log.Info("request", kv...)
		}
	}
}
