// Package migration applies versioned SQL migrations with golang-migrate.
//
// Files follow golang-migrate naming (VERSION_name.up.sql and
// VERSION_name.down.sql) and are read from any fs.FS, typically an
// embed.FS. The database driver is chosen from the connection's dialect:
// pgx/v5 for PostgreSQL, sqlite3 for SQLite.
package migration

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/kbukum/todoapi/database"
	"github.com/kbukum/todoapi/logger"
)

// Up applies all pending migrations. Having nothing to apply is not an
// error.
func Up(db *database.DB, fsys fs.FS, path string, log *logger.Logger) error {
	m, err := newMigrator(db, fsys, path)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}
	logVersion(m, log)
	return nil
}

// Down rolls back all migrations.
func Down(db *database.DB, fsys fs.FS, path string) error {
	m, err := newMigrator(db, fsys, path)
	if err != nil {
		return err
	}
	if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate down: %w", err)
	}
	return nil
}

// Version returns the current migration version and dirty flag. A fresh
// database reports version 0.
func Version(db *database.DB, fsys fs.FS, path string) (uint, bool, error) {
	m, err := newMigrator(db, fsys, path)
	if err != nil {
		return 0, false, err
	}
	v, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return v, dirty, err
}

// Hook returns a database.StartHook applying fsys on start.
func Hook(fsys fs.FS, path string, log *logger.Logger) database.StartHook {
	return func(_ context.Context, db *database.DB) error {
		return Up(db, fsys, path, log)
	}
}

func logVersion(m *migrate.Migrate, log *logger.Logger) {
	if log == nil {
		return
	}
	v, dirty, err := m.Version()
	if err != nil {
		return
	}
	log.Info("Schema migrated", map[string]interface{}{
		"version": v,
		"dirty":   dirty,
	})
}

// newMigrator builds a migrator over db's pool. The migrator must not be
// closed: that would close the shared pool.
func newMigrator(db *database.DB, fsys fs.FS, path string) (*migrate.Migrate, error) {
	sqlDB, err := db.GormDB.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}

	var driver migratedb.Driver
	switch db.Driver() {
	case database.DriverPostgres:
		driver, err = migratepgx.WithInstance(sqlDB, &migratepgx.Config{})
	case database.DriverSQLite:
		driver, err = migratesqlite.WithInstance(sqlDB, &migratesqlite.Config{})
	default:
		err = fmt.Errorf("no migration driver for %q", db.Driver())
	}
	if err != nil {
		return nil, fmt.Errorf("create migration driver: %w", err)
	}

	source, err := iofs.New(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("create iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, db.Driver(), driver)
	if err != nil {
		return nil, fmt.Errorf("create migrator: %w", err)
	}
	return m, nil
}
