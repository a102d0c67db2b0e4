package endpoint

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/todoapi/version"
)

var startTime = time.Now()

// Info reports service identity, build and uptime.
func Info(serviceName, environment string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service":     serviceName,
			"environment": environment,
			"build":       version.GetVersionInfo(),
			"uptime":      time.Since(startTime).Round(time.Second).String(),
			"timestamp":   now(),
		})
	}
}

// Version reports build metadata.
func Version() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, version.GetVersionInfo())
	}
}

// Metrics reports goroutine and memory statistics.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)
		c.JSON(http.StatusOK, gin.H{
			"timestamp":  now(),
			"goroutines": runtime.NumGoroutine(),
			"memory": gin.H{
				"alloc_mb":       m.Alloc / 1024 / 1024,
				"total_alloc_mb": m.TotalAlloc / 1024 / 1024,
				"sys_mb":         m.Sys / 1024 / 1024,
				"gc_runs":        m.NumGC,
			},
		})
	}
}
