// Package app assembles the todo API: configuration, components, routes
// and the migrate task.
package app

import (
	"context"
	"fmt"

	"github.com/kbukum/todoapi/bootstrap"
	"github.com/kbukum/todoapi/database"
	"github.com/kbukum/todoapi/database/migration"
	"github.com/kbukum/todoapi/internal/migrations"
	"github.com/kbukum/todoapi/logger"
	"github.com/kbukum/todoapi/observability"
	"github.com/kbukum/todoapi/server"
)

// App is the bootstrapped application.
type App = bootstrap.App[*Config]

// New creates the application. Infrastructure (telemetry, database) starts
// first; the HTTP server is wired in the configure phase once the database
// is open.
func New(cfg *Config, opts ...bootstrap.Option) (*App, error) {
	a, err := bootstrap.NewApp(cfg, opts...)
	if err != nil {
		return nil, err
	}

	obs := observability.NewComponent(cfg.Observability, cfg.Name, cfg.Version, cfg.Environment, a.Logger)
	db := database.NewComponent(cfg.Database, a.Logger)
	if cfg.Database.Migrate {
		db.OnStart(migration.Hook(migrations.FS, migrations.Path, a.Logger))
	}
	if err := a.RegisterComponent(obs); err != nil {
		return nil, err
	}
	if err := a.RegisterComponent(db); err != nil {
		return nil, err
	}

	a.OnConfigure(func(_ context.Context, a *App) error {
		metrics, err := observability.NewMetrics(observability.Meter(ServiceName))
		if err != nil {
			return err
		}
		srv, err := NewServer(a.Cfg, Deps{
			DB:      db.DB(),
			Health:  a.Components.HealthAll,
			Metrics: metrics,
			Logger:  a.Logger,
		})
		if err != nil {
			return err
		}
		return a.RegisterComponent(server.NewComponent(srv))
	})
	return a, nil
}

// Migration directions accepted by Migrate.
const (
	MigrateUp      = "up"
	MigrateDown    = "down"
	MigrateVersion = "version"
)

// Migrate opens the database, applies direction and exits.
func Migrate(ctx context.Context, cfg *Config, direction string, opts ...bootstrap.Option) error {
	switch direction {
	case MigrateUp, MigrateDown, MigrateVersion:
	default:
		return fmt.Errorf("unknown migration direction %q (use %s, %s or %s)",
			direction, MigrateUp, MigrateDown, MigrateVersion)
	}

	a, err := bootstrap.NewApp(cfg, opts...)
	if err != nil {
		return err
	}
	db := database.NewComponent(cfg.Database, a.Logger)
	if err := a.RegisterComponent(db); err != nil {
		return err
	}

	return a.RunTask(ctx, func(context.Context) error {
		switch direction {
		case MigrateUp:
			return migration.Up(db.DB(), migrations.FS, migrations.Path, a.Logger)
		case MigrateDown:
			return migration.Down(db.DB(), migrations.FS, migrations.Path)
		default:
			v, dirty, err := migration.Version(db.DB(), migrations.FS, migrations.Path)
			if err != nil {
				return err
			}
			a.Logger.Info("Schema version", logger.Fields("version", v, "dirty", dirty))
			return nil
		}
	})
}
