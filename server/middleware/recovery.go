package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/todoapi/errors"
	"github.com/kbukum/todoapi/logger"
)

// Recovery turns a handler panic into a logged 500.
func Recovery(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				log.WithContext(c.Request.Context()).Error("Panic recovered", map[string]interface{}{
					logger.FieldError:    fmt.Sprintf("%v", rec),
					"stack":              string(debug.Stack()),
					logger.FieldMethod:   c.Request.Method,
					logger.FieldPath:     c.Request.URL.Path,
					logger.FieldClientIP: c.ClientIP(),
				})
				abort(c, apperrors.Internal(fmt.Errorf("panic: %v", rec)))
			}
		}()
		c.Next()
	}
}
