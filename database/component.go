package database

import (
	"context"
	"fmt"

	"github.com/kbukum/todoapi/component"
	"github.com/kbukum/todoapi/logger"
)

// StartHook runs after the connection is established, e.g. to migrate.
type StartHook func(ctx context.Context, db *DB) error

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// Component manages a DB through the component lifecycle.
type Component struct {
	db    *DB
	cfg   Config
	log   *logger.Logger
	hooks []StartHook
}

// NewComponent creates a database component.
func NewComponent(cfg Config, log *logger.Logger) *Component {
	cfg.ApplyDefaults()
	return &Component{cfg: cfg, log: log}
}

// OnStart registers a hook run, in order, after connecting.
func (c *Component) OnStart(hook StartHook) *Component {
	c.hooks = append(c.hooks, hook)
	return c
}

// DB returns the connection, or nil before Start.
func (c *Component) DB() *DB {
	return c.db
}

// Name returns the component name.
func (c *Component) Name() string { return "database" }

// Start connects and runs the start hooks.
func (c *Component) Start(ctx context.Context) error {
	db, err := Open(ctx, c.cfg, c.log)
	if err != nil {
		return fmt.Errorf("database start: %w", err)
	}
	for _, hook := range c.hooks {
		if err := hook(ctx, db); err != nil {
			_ = db.Close()
			return fmt.Errorf("database start hook: %w", err)
		}
	}
	c.db = db
	return nil
}

// Stop closes the connection.
func (c *Component) Stop(_ context.Context) error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Health pings the database.
func (c *Component) Health(ctx context.Context) component.Health {
	if c.db == nil {
		return component.Health{
			Name:    c.Name(),
			Status:  component.StatusUnhealthy,
			Message: "database not initialized",
		}
	}

	if status := c.db.CheckHealth(ctx); !status.Connected {
		return component.Health{
			Name:    c.Name(),
			Status:  component.StatusUnhealthy,
			Message: fmt.Sprintf("ping failed: %s", status.Error),
		}
	}
	return component.Health{Name: c.Name(), Status: component.StatusHealthy}
}

// Describe returns the startup summary line.
func (c *Component) Describe() component.Description {
	details := fmt.Sprintf("driver=%s pool=%d/%d", c.cfg.Driver, c.cfg.MaxOpenConns, c.cfg.MaxIdleConns)
	if c.cfg.Migrate {
		details += " migrate=on"
	}
	return component.Description{
		Name:    "Database",
		Type:    "database",
		Details: details,
	}
}
