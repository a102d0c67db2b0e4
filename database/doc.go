// Package database wraps GORM with connection retries, pooling, a zerolog
// query logger, transactions, error translation into AppErrors and a
// lifecycle component.
//
// Two drivers are supported:
//
//	postgres  gorm.io/driver/postgres (pgx)
//	sqlite    gorm.io/driver/sqlite, used by tests and local runs
//
// Schema changes are versioned SQL files applied by database/migration.
package database
