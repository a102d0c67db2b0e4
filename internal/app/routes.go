package app

import (
	"fmt"

	"github.com/kbukum/todoapi/auth"
	"github.com/kbukum/todoapi/auth/jwt"
	"github.com/kbukum/todoapi/auth/password"
	"github.com/kbukum/todoapi/database"
	"github.com/kbukum/todoapi/internal/account"
	"github.com/kbukum/todoapi/internal/todos"
	"github.com/kbukum/todoapi/internal/users"
	"github.com/kbukum/todoapi/logger"
	"github.com/kbukum/todoapi/observability"
	"github.com/kbukum/todoapi/server"
	"github.com/kbukum/todoapi/server/endpoint"
	"github.com/kbukum/todoapi/server/middleware"
)

// Deps are the runtime dependencies of the HTTP layer.
type Deps struct {
	DB      *database.DB
	Health  endpoint.HealthChecker
	Metrics *observability.Metrics
	Logger  *logger.Logger
}

// NewServer builds the HTTP server with every route mounted:
//
//	/health, /readiness, /liveness, /info, /version, /metrics
//	POST /api/auth/register, POST /api/auth/login   public, rate limited
//	/api/todos...                                   behind the auth gate
func NewServer(cfg *Config, deps Deps) (*server.Server, error) {
	log := deps.Logger
	if log == nil {
		log = logger.GetGlobalLogger()
	}

	pool, err := password.NewPool(password.NewHasher(cfg.Auth.Password), cfg.Auth.Password,
		password.WithRejectHook(func(name string, err error) {
			log.Warn("Password pool rejected request", logger.Fields(
				"pool", name,
				logger.FieldError, err.Error(),
			))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("password pool: %w", err)
	}

	tokens, err := jwt.NewUserTokenService(cfg.Auth.JWT)
	if err != nil {
		return nil, fmt.Errorf("token service: %w", err)
	}

	var opts []account.Option
	if deps.Metrics != nil {
		opts = append(opts, account.WithMetrics(deps.Metrics))
	}
	accounts := account.NewService(users.NewRepository(deps.DB), pool, tokens, log, opts...)

	srv := server.New(cfg.Server, log)
	srv.ApplyDefaults(cfg.Name, cfg.Environment, deps.Health)

	api := srv.GinEngine().Group(server.APIPrefix, middleware.Auth(middleware.AuthConfig{
		Validator: auth.NewValidator(tokens.ValidatorFunc()),
		SkipPaths: []string{server.APIPrefix + "/auth/"},
		Logger:    log,
	}))

	authRoutes := api.Group("/auth")
	if cfg.Auth.RateLimitPerMinute > 0 {
		authRoutes.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerMinute: cfg.Auth.RateLimitPerMinute,
			KeyFunc:           middleware.IPBasedKey,
		}))
	}
	account.NewHandler(accounts).RegisterRoutes(authRoutes)
	todos.NewHandler(todos.NewRepository(deps.DB)).RegisterRoutes(api.Group("/todos"))

	log.Info("Routes configured", logger.Fields("auth", cfg.Auth.Describe()))
	return srv, nil
}
