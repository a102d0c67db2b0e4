// Package endpoint provides the operational HTTP handlers every service
// exposes next to its API: health, readiness, liveness, build info and
// runtime metrics.
package endpoint

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/todoapi/component"
)

// HealthChecker reports the health of the service's components.
type HealthChecker func(ctx context.Context) []component.Health

// Health reports overall and per-component health. Unhealthy answers 503.
func Health(serviceName string, checker HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		var reports []component.Health
		if checker != nil {
			reports = checker(c.Request.Context())
		}
		status := component.Overall(reports)

		httpStatus := http.StatusOK
		if status == component.StatusUnhealthy {
			httpStatus = http.StatusServiceUnavailable
		}
		c.JSON(httpStatus, gin.H{
			"status":     status,
			"service":    serviceName,
			"timestamp":  now(),
			"components": reports,
		})
	}
}

// Readiness answers 503 until every component is at least degraded.
func Readiness(serviceName string, checker HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		status, httpStatus := "ready", http.StatusOK
		if checker != nil && component.Overall(checker(c.Request.Context())) == component.StatusUnhealthy {
			status, httpStatus = "not_ready", http.StatusServiceUnavailable
		}
		c.JSON(httpStatus, gin.H{
			"status":    status,
			"service":   serviceName,
			"timestamp": now(),
		})
	}
}

// Liveness confirms the process can serve HTTP.
func Liveness(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "alive",
			"service":   serviceName,
			"timestamp": now(),
		})
	}
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}
