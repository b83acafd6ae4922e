// Package migrations embeds the goose schema migrations for each supported
// database dialect.
package migrations

import "embed"

// Migrations holds postgres/*.sql and sqlite/*.sql; the directory name is
// passed to goose together with the matching dialect.
//
//go:embed postgres/*.sql sqlite/*.sql
var Migrations embed.FS

const (
	PostgresDir = "postgres"
	SQLiteDir   = "sqlite"
)
