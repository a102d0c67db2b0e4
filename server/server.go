package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	apperrors "github.com/kbukum/todoapi/errors"
	"github.com/kbukum/todoapi/logger"
	"github.com/kbukum/todoapi/server/endpoint"
	"github.com/kbukum/todoapi/server/middleware"
)

// APIPrefix is the path prefix of JSON API routes. Unmatched requests under
// it always get a JSON 404, never a static file.
const APIPrefix = "/api"

// Server is the HTTP server: a Gin engine mounted on a ServeMux, served
// over HTTP/1.1 and h2c, or HTTPS when TLS is configured.
type Server struct {
	httpServer *http.Server
	h2s        *http2.Server
	engine     *gin.Engine
	mux        *http.ServeMux
	handler    http.Handler
	config     Config
	log        *logger.Logger

	mu        sync.RWMutex
	boundAddr string
}

// New creates a Server. No gin middleware is applied until ApplyMiddleware.
func New(cfg Config, log *logger.Logger) *Server {
	if zerolog.GlobalLevel() <= zerolog.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.ForwardedByClientIP = len(cfg.TrustedProxies) > 0
	if err := engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		log.Warn("Ignoring invalid trusted proxies", map[string]interface{}{
			logger.FieldError: err.Error(),
		})
		_ = engine.SetTrustedProxies(nil)
	}
	mux := http.NewServeMux()
	mux.Handle("/", engine)

	handler := middleware.Chain(
		middleware.CORS(cfg.CORS),
		middleware.BodySizeLimit(cfg.MaxBodySize),
	)(mux)

	h2s := &http2.Server{
		MaxConcurrentStreams: 250,
		IdleTimeout:          seconds(cfg.IdleTimeout),
	}

	s := &Server{
		httpServer: &http.Server{
			Addr:              cfg.Addr(),
			Handler:           h2c.NewHandler(handler, h2s),
			ReadTimeout:       seconds(cfg.ReadTimeout),
			ReadHeaderTimeout: seconds(cfg.ReadTimeout),
			WriteTimeout:      seconds(cfg.WriteTimeout),
			IdleTimeout:       seconds(cfg.IdleTimeout),
		},
		h2s:     h2s,
		engine:  engine,
		mux:     mux,
		handler: handler,
		config:  cfg,
		log:     log.WithComponent("server"),
	}
	engine.NoRoute(s.noRoute)
	return s
}

// GinEngine returns the Gin engine for route registration.
func (s *Server) GinEngine() *gin.Engine {
	return s.engine
}

// Handler returns the server's root handler without h2c, for in-process
// tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Handle mounts an http.Handler on the root ServeMux next to Gin.
func (s *Server) Handle(pattern string, handler http.Handler) {
	s.mux.Handle(pattern, handler)
	s.log.Debug("Handler mounted", map[string]interface{}{
		"pattern": pattern,
	})
}

// Start binds the port and serves in a goroutine. It returns once the
// listener is bound.
func (s *Server) Start(ctx context.Context) error {
	tlsConfig, err := s.config.TLS.Build()
	if err != nil {
		return fmt.Errorf("server tls: %w", err)
	}

	listener, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("server failed to bind %s: %w", s.httpServer.Addr, err)
	}

	scheme := "http"
	if tlsConfig != nil {
		s.httpServer.TLSConfig = tlsConfig
		if err := http2.ConfigureServer(s.httpServer, s.h2s); err != nil {
			_ = listener.Close()
			return fmt.Errorf("server http2: %w", err)
		}
		listener = tls.NewListener(listener, s.httpServer.TLSConfig)
		scheme = "https"
	}

	s.mu.Lock()
	s.boundAddr = listener.Addr().String()
	s.mu.Unlock()

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("Server error", map[string]interface{}{
				logger.FieldError: err.Error(),
			})
		}
	}()

	s.log.Info("HTTP server started", map[string]interface{}{
		"addr":   s.Addr(),
		"scheme": scheme,
	})
	return nil
}

// Stop gracefully shuts the server down within the configured timeout.
func (s *Server) Stop(ctx context.Context) error {
	s.log.Info("Shutting down HTTP server")

	timeout := seconds(s.config.ShutdownTimeout)
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.log.Error("Server shutdown error", map[string]interface{}{
			logger.FieldError: err.Error(),
		})
		return fmt.Errorf("server shutdown error: %w", err)
	}

	s.log.Info("HTTP server shut down successfully")
	return nil
}

// Addr returns the bound address once started, the configured one before.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.boundAddr != "" {
		return s.boundAddr
	}
	return s.httpServer.Addr
}

// ApplyMiddleware applies the gin middleware stack: recovery, request id
// and request logging. CORS and body limits are applied below Gin.
func (s *Server) ApplyMiddleware() {
	s.engine.Use(middleware.Recovery(s.log))
	s.engine.Use(middleware.RequestID())
	s.engine.Use(middleware.RequestLogger(s.log))
}

// RegisterDefaultEndpoints registers the probe and info endpoints.
func (s *Server) RegisterDefaultEndpoints(serviceName, environment string, checker endpoint.HealthChecker) {
	s.engine.GET("/health", endpoint.Health(serviceName, checker))
	s.engine.GET("/readiness", endpoint.Readiness(serviceName, checker))
	s.engine.GET("/liveness", endpoint.Liveness(serviceName))
	s.engine.GET("/info", endpoint.Info(serviceName, environment))
	s.engine.GET("/version", endpoint.Version())
	s.engine.GET("/metrics", endpoint.Metrics())
}

// ApplyDefaults applies the middleware stack and registers default endpoints.
func (s *Server) ApplyDefaults(serviceName, environment string, checker endpoint.HealthChecker) {
	s.ApplyMiddleware()
	s.RegisterDefaultEndpoints(serviceName, environment, checker)
}

func (s *Server) noRoute(c *gin.Context) {
	path := c.Request.URL.Path
	if s.config.StaticDir != "" && c.Request.Method == http.MethodGet && !isAPIPath(path) {
		if file, ok := s.staticFile(path); ok {
			c.File(file)
			return
		}
	}
	RespondWithError(c, apperrors.NotFound("route", path))
}

func isAPIPath(path string) bool {
	return path == APIPrefix || strings.HasPrefix(path, APIPrefix+"/")
}

// staticFile resolves path inside StaticDir, falling back to index.html for
// directories.
func (s *Server) staticFile(path string) (string, bool) {
	root := filepath.Clean(s.config.StaticDir)
	file := filepath.Join(root, filepath.FromSlash(filepath.Clean("/"+path)))
	if info, err := os.Stat(file); err == nil && info.IsDir() {
		file = filepath.Join(file, "index.html")
	}
	info, err := os.Stat(file)
	if err != nil || info.IsDir() {
		return "", false
	}
	return file, true
}
