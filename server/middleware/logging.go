package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/todoapi/logger"
)

var quietPaths = map[string]bool{
	"/health":    true,
	"/readiness": true,
	"/liveness":  true,
	"/metrics":   true,
}

// RequestLogger logs one line per request: errors for 5xx, warnings for
// 4xx, debug otherwise. Probe endpoints are not logged.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	log = log.WithComponent("http")
	return func(c *gin.Context) {
		if quietPaths[c.Request.URL.Path] {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := map[string]interface{}{
			logger.FieldMethod:   c.Request.Method,
			logger.FieldPath:     c.FullPath(),
			logger.FieldStatus:   status,
			logger.FieldDuration: time.Since(start).Milliseconds(),
			logger.FieldClientIP: c.ClientIP(),
		}
		if fields[logger.FieldPath] == "" {
			fields[logger.FieldPath] = c.Request.URL.Path
		}

		l := log.WithContext(c.Request.Context())
		switch {
		case status >= 500:
			l.Error("Request completed", fields)
		case status >= 400:
			l.Warn("Request completed", fields)
		default:
			l.Debug("Request completed", fields)
		}
	}
}
