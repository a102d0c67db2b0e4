// Package testutil provides an in-memory SQLite database for tests.
package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kbukum/todoapi/component"
	"github.com/kbukum/todoapi/database"
	"github.com/kbukum/todoapi/logger"
	"github.com/kbukum/todoapi/testutil"
)

var (
	_ component.Component    = (*Component)(nil)
	_ testutil.TestComponent = (*Component)(nil)
)

// Component is a private in-memory SQLite database. Each Component gets
// its own database, so tests using separate Components never share rows.
type Component struct {
	hooks   []database.StartHook
	db      *database.DB
	started bool
	mu      sync.RWMutex
}

// NewComponent creates a test database. Hooks run after connecting, e.g.
// migration.Hook to create the schema.
func NewComponent(hooks ...database.StartHook) *Component {
	return &Component{hooks: hooks}
}

// Config returns a single-connection in-memory SQLite configuration. The
// single connection keeps the database alive for the component's lifetime.
func Config() database.Config {
	cfg := database.Config{
		Driver:          database.DriverSQLite,
		DSN:             fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
		MaxOpenConns:    1,
		MaxIdleConns:    1,
		ConnMaxLifetime: "24h",
		ConnMaxIdleTime: "24h",
		MaxRetries:      1,
		LogLevel:        "silent",
	}
	cfg.ApplyDefaults()
	return cfg
}

// DB returns the database, or nil before Start.
func (c *Component) DB() *database.DB {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.db
}

// Name returns the component name.
func (c *Component) Name() string { return "database-test" }

// Start opens the database and runs the hooks.
func (c *Component) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.started {
		return fmt.Errorf("component already started")
	}

	db, err := database.Open(ctx, Config(), logger.Nop())
	if err != nil {
		return fmt.Errorf("failed to open test database: %w", err)
	}
	for _, hook := range c.hooks {
		if err := hook(ctx, db); err != nil {
			_ = db.Close()
			return fmt.Errorf("test database hook: %w", err)
		}
	}

	c.db = db
	c.started = true
	return nil
}

// Stop closes the database, discarding its contents.
func (c *Component) Stop(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.started {
		return nil
	}
	c.started = false
	return c.db.Close()
}

// Health reports whether the database answers a ping.
func (c *Component) Health(ctx context.Context) component.Health {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.started {
		return component.Health{
			Name:    c.Name(),
			Status:  component.StatusUnhealthy,
			Message: "database not started",
		}
	}
	if err := c.db.PingContext(ctx); err != nil {
		return component.Health{
			Name:    c.Name(),
			Status:  component.StatusUnhealthy,
			Message: fmt.Sprintf("ping failed: %v", err),
		}
	}
	return component.Health{Name: c.Name(), Status: component.StatusHealthy}
}

// Reset deletes every row while keeping the schema and migration state.
func (c *Component) Reset(ctx context.Context) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.started {
		return fmt.Errorf("component not started")
	}

	var tables []string
	if err := c.db.WithContext(ctx).
		Raw("SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' AND name <> 'schema_migrations'").
		Scan(&tables).Error; err != nil {
		return fmt.Errorf("failed to list tables: %w", err)
	}

	return c.db.WithTransaction(ctx, func(tx *gorm.DB) error {
		for _, table := range tables {
			if err := tx.Exec(fmt.Sprintf("DELETE FROM %q", table)).Error; err != nil {
				return fmt.Errorf("failed to clear table %s: %w", table, err)
			}
		}
		return nil
	})
}
