package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/lotkeeper/internal/dbx"
	"github.com/dmitrijs2005/lotkeeper/internal/filex"
	"github.com/dmitrijs2005/lotkeeper/internal/server/repositories/bids"
	"github.com/dmitrijs2005/lotkeeper/internal/server/repositories/bidtokens"
	"github.com/dmitrijs2005/lotkeeper/internal/server/repositories/lots"
	"github.com/dmitrijs2005/lotkeeper/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a *sql.DB or a *sql.Tx so
// services can run several of them inside one dbx.WithTx.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Lots(db dbx.DBTX) lots.Repository
	Bids(db dbx.DBTX) bids.Repository
	BidTokens(db dbx.DBTX) bidtokens.Repository
}

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

var sqlitePragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA busy_timeout=5000",
	"PRAGMA foreign_keys=ON",
}

// sqlOpen is a seam for tests.
var sqlOpen = sql.Open

// Open connects to the configured database and returns the matching manager.
// The caller owns the returned pool.
func Open(ctx context.Context, driver, dsn string) (*sql.DB, RepositoryManager, error) {
	var (
		db  *sql.DB
		m   RepositoryManager
		err error
	)

	switch driver {
	case DriverPostgres:
		if db, err = sqlOpen("pgx", dsn); err != nil {
			return nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		m, _ = NewPostgresRepositoryManager(db)
	case DriverSQLite:
		if path, ok := filex.SQLitePath(dsn); ok {
			if _, err := filex.EnsureParentDir(path); err != nil {
				return nil, nil, err
			}
		}
		if db, err = sqlOpen("sqlite", dsn); err != nil {
			return nil, nil, fmt.Errorf("open sqlite: %w", err)
		}
		// Pragmas are per connection and an in-memory database lives in one.
		db.SetMaxOpenConns(1)
		for _, p := range sqlitePragmas {
			if _, err := db.ExecContext(ctx, p); err != nil {
				_ = db.Close()
				return nil, nil, fmt.Errorf("setting pragma %q: %w", p, err)
			}
		}
		m = NewSQLiteRepositoryManager()
	default:
		return nil, nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	return db, m, nil
}
