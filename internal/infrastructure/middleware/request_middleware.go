package middleware

import (
	"time"

	"multiview/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const RequestIDHeader = "X-Request-ID"

// HTTPMetrics receives one observation per served request.
type HTTPMetrics interface {
	RecordHTTPRequest(method, route string, status int, duration time.Duration)
}

// RequestIDMiddleware reuses the caller's X-Request-ID or mints a new one,
// echoes it back and stores it in the request context for the loggers.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(RequestIDHeader, id)
		c.Request = c.Request.WithContext(logger.WithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

// RequestLoggingMiddleware logs every request and reports it to metrics,
// which may be nil.
func RequestLoggingMiddleware(log *logger.ContextLogger, metrics HTTPMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()

		log.LogRequest(c.Request.Context(), c.Request.Method, c.Request.URL.Path, status, duration.Milliseconds())
		if metrics != nil {
			metrics.RecordHTTPRequest(c.Request.Method, route, status, duration)
		}
	}
}
