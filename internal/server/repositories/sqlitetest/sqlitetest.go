// Package sqlitetest opens throwaway in-memory SQLite databases with the
// server schema applied. It is meant for repository and service tests.
package sqlitetest

import (
	"context"
	"database/sql"
	"io/fs"
	"testing"

	"github.com/dmitrijs2005/lotkeeper/internal/server/migrations"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

// Open returns a migrated in-memory database closed on test cleanup.
//
// The pool is capped at one connection because every ":memory:" connection
// is a separate database.
func Open(t testing.TB) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec("PRAGMA foreign_keys = ON")
	require.NoError(t, err)

	fsys, err := fs.Sub(migrations.Migrations, migrations.SQLiteDir)
	require.NoError(t, err)

	p, err := goose.NewProvider(goose.DialectSQLite3, db, fsys)
	require.NoError(t, err)
	_, err = p.Up(context.Background())
	require.NoError(t, err)

	return db
}

// SeedUser inserts a bare user row so foreign keys resolve.
func SeedUser(t testing.TB, db *sql.DB, id string) {
	t.Helper()
	_, err := db.Exec(`INSERT INTO users (id, username, created_at) VALUES (?, ?, CURRENT_TIMESTAMP)`, id, id)
	require.NoError(t, err)
}
