package middleware

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kena741/zuluskills-admin/pkg/logger"
)

const RequestIDHeader = "X-Request-ID"

// LoggingMiddleware writes one access line per request and one error line
// per error attached with c.Error. Each request gets an id echoed back in
// RequestIDHeader.
func LoggingMiddleware(log logger.Log) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(RequestIDHeader, requestID)

		c.Next()

		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path = fmt.Sprintf("%s?%s", path, raw)
		}
		status := c.Writer.Status()
		reqLog := log.With("request_id", requestID, "method", c.Request.Method, "path", path)

		reqLog.Info("request",
			"status", status,
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		)
		for _, ginErr := range c.Errors {
			reqLog.ErrorErr("HTTP request error", ginErr.Err, "status", status)
		}
	}
}
