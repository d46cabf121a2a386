package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"fraud-digest-backend/internal/shared/server/respond"
	"fraud-digest-backend/internal/shared/telemetry"
)

// Recovery recovers from panics and returns a standardized error response.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				fields := map[string]any{
					"request_id": RequestIDFromContext(c),
					"error":      rec,
					"stack":      string(debug.Stack()),
					"path":       c.Request.URL.Path,
					"method":     c.Request.Method,
				}
				if u := c.GetString(SubmittedURLKey); u != "" {
					fields["url"] = u
				}
				telemetry.Error("http.panic", fields)
				respond.Error(c, http.StatusInternalServerError, "internal_error", "Unexpected server error", nil)
				c.Abort()
			}
		}()
		c.Next()
	}
}
