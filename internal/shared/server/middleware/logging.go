package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"cv-builder/internal/shared/telemetry"
)

// Context keys handlers set so the request log can carry them.
const (
	CVIDKey    = "cvId"
	VariantKey = "cvVariant"
)

// Logging emits a structured log per request.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.EqualFold(c.Request.Method, "OPTIONS") {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)

		userID, _ := c.Get(userIDKey)
		isGuest, _ := c.Get(isGuestKey)
		cvID, _ := c.Get(CVIDKey)
		variant, _ := c.Get(VariantKey)

		telemetry.Info("request.complete", map[string]any{
			"request_id":  RequestIDFromContext(c),
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status":      c.Writer.Status(),
			"duration_ms": float64(latency.Microseconds()) / 1000.0,
			"user_id":     userID,
			"is_guest":    isGuest,
			"cv_id":       cvID,
			"variant":     variant,
			"client_ip":   c.ClientIP(),
			"user_agent":  c.Request.UserAgent(),
		})
	}
}
