package logger

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

var (
	globalMu     sync.RWMutex
	globalLogger *Logger
)

// Init configures the global logger from cfg.
func Init(cfg Config, serviceName string) {
	cfg.ApplyDefaults()
	if level, err := zerolog.ParseLevel(cfg.Level); err == nil {
		zerolog.SetGlobalLevel(level)
	}
	SetGlobalLogger(New(&cfg, serviceName))
}

// SetGlobalLogger replaces the global logger.
func SetGlobalLogger(l *Logger) {
	globalMu.Lock()
	globalLogger = l
	globalMu.Unlock()
}

// GetGlobalLogger returns the global logger, creating a default one if needed.
func GetGlobalLogger() *Logger {
	globalMu.RLock()
	l := globalLogger
	globalMu.RUnlock()
	if l != nil {
		return l
	}

	globalMu.Lock()
	defer globalMu.Unlock()
	if globalLogger == nil {
		globalLogger = NewDefault("")
	}
	return globalLogger
}

func Debug(msg string, fields ...map[string]interface{}) { GetGlobalLogger().Debug(msg, fields...) }
func Info(msg string, fields ...map[string]interface{})  { GetGlobalLogger().Info(msg, fields...) }
func Warn(msg string, fields ...map[string]interface{})  { GetGlobalLogger().Warn(msg, fields...) }
func Error(msg string, fields ...map[string]interface{}) { GetGlobalLogger().Error(msg, fields...) }
func Fatal(msg string, fields ...map[string]interface{}) { GetGlobalLogger().Fatal(msg, fields...) }

// WithContext returns a context-enriched global logger.
func WithContext(ctx context.Context) *Logger {
	return GetGlobalLogger().WithContext(ctx)
}

// WithComponent returns a component-tagged global logger.
func WithComponent(name string) *Logger {
	return GetGlobalLogger().WithComponent(name)
}
