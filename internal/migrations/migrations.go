// Package migrations embeds the application's SQL schema migrations. The
// SQL is written to run unchanged on PostgreSQL and SQLite.
package migrations

import "embed"

// Path is the directory of the migration files within FS.
const Path = "sql"

// FS holds the migration files.
//
//go:embed sql/*.sql
var FS embed.FS
