package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Recovery turns a handler panic into a 500 and a log entry with the stack.
// gin's own recovery writes to stderr, which the dashboard owns.
func Recovery(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			log.Error("Status API handler panicked",
				zap.Any("panic", r),
				zap.String("route", c.FullPath()),
				zap.Stack("stack"))

			// a stream that already started cannot switch to JSON
			if c.Writer.Written() {
				c.Abort()
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		}()
		c.Next()
	}
}
