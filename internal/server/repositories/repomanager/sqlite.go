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
	_ "modernc.org/sqlite"
)

// SQLiteRepositoryManager serves single-node deployments and tests.
type SQLiteRepositoryManager struct{}

func NewSQLiteRepositoryManager() *SQLiteRepositoryManager {
	return &SQLiteRepositoryManager{}
}

func (m *SQLiteRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewSQLiteRepository(db)
}

func (m *SQLiteRepositoryManager) Lots(db dbx.DBTX) lots.Repository {
	return lots.NewSQLiteRepository(db)
}

func (m *SQLiteRepositoryManager) Bids(db dbx.DBTX) bids.Repository {
	return bids.NewSQLiteRepository(db)
}

func (m *SQLiteRepositoryManager) BidTokens(db dbx.DBTX) bidtokens.Repository {
	return bidtokens.NewSQLiteRepository(db)
}

func (m *SQLiteRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	return runMigrations(ctx, db, "sqlite3", migrations.SQLiteDir)
}
