// Package repomanager wires repository constructors and goose migrations for
// each supported database backend.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/lotkeeper/internal/dbx"
	"github.com/dmitrijs2005/lotkeeper/internal/server/migrations"
	"github.com/dmitrijs2005/lotkeeper/internal/server/repositories/bids"
	"github.com/dmitrijs2005/lotkeeper/internal/server/repositories/bidtokens"
	"github.com/dmitrijs2005/lotkeeper/internal/server/repositories/lots"
	"github.com/dmitrijs2005/lotkeeper/internal/server/repositories/users"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresRepositoryManager vends PostgreSQL-backed repository implementations
// and exposes a schema migration hook.
type PostgresRepositoryManager struct{}

// Users returns a users.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

// Lots returns a lots.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Lots(db dbx.DBTX) lots.Repository {
	return lots.NewPostgresRepository(db)
}

// Bids returns a bids.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Bids(db dbx.DBTX) bids.Repository {
	return bids.NewPostgresRepository(db)
}

// BidTokens returns a bidtokens.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) BidTokens(db dbx.DBTX) bidtokens.Repository {
	return bidtokens.NewPostgresRepository(db)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations and runs them
// against the provided database connection.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	return runMigrations(ctx, db, "pgx", migrations.PostgresDir)
}

func runMigrations(ctx context.Context, db *sql.DB, dialect, dir string) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect(dialect); err != nil {
		return err
	}
	return gooseUpContext(ctx, db, dir)
}

// NewPostgresRepositoryManager constructs a PostgreSQL-backed RepositoryManager.
func NewPostgresRepositoryManager(db *sql.DB) (RepositoryManager, error) {
	return &PostgresRepositoryManager{}, nil
}
