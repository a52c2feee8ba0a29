package httpmiddleware

import (
	"net/http"
	"time"

	"dataroom/backend/go/internal/models"
	"dataroom/backend/go/pkg/logger"
	"dataroom/backend/go/pkg/ratelimiter"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TraceHeader carries the request's trace id in both directions.
const TraceHeader = "X-Request-ID"

// RateLimit rejects requests with 429 once the limiter runs dry.
func RateLimit(limiter ratelimiter.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"error":   "Too Many Requests",
			})
			return
		}
		c.Next()
	}
}

// RequestLogger logs every request once it completes. A trace id is taken
// from the X-Request-ID header or generated, and echoed back.
func RequestLogger(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		traceID := c.GetHeader(TraceHeader)
		if traceID == "" {
			traceID = uuid.New().String()
		}
		c.Header(TraceHeader, traceID)

		c.Next()

		status := c.Writer.Status()
		log := logger.New(serviceName, traceID, "").WithRequest(models.RequestInfo{
			Method:     c.Request.Method,
			Path:       c.Request.URL.Path,
			RemoteAddr: c.ClientIP(),
			UserAgent:  c.Request.UserAgent(),
			Status:     status,
			LatencyMs:  time.Since(start).Milliseconds(),
		})
		switch {
		case status >= http.StatusInternalServerError:
			log.Error("request failed")
		case status >= http.StatusBadRequest:
			log.Warn("request rejected")
		default:
			log.Info("request completed")
		}
	}
}
