// Package middleware provides HTTP middleware components.
package middleware

import (
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"milltrack/internal/core/apperror"
	"milltrack/pkg/logger"
)

// Recovery recovers from panics and answers with a plain 500. It writes
// the response itself: the panic has already unwound past ErrorHandler,
// so nothing downstream will. The stack goes to the log, never to the
// client.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error(c.Request.Context(), "panic recovered",
					"error", err,
					"stack", string(debug.Stack()),
				)

				c.AbortWithStatusJSON(500, gin.H{
					"code":    apperror.CodeInternal,
					"message": "Internal server error",
					"details": map[string]any{
						"request_id": c.GetString("request_id"),
					},
				})
			}
		}()
		c.Next()
	}
}
