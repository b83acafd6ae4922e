package bids

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/lotkeeper/internal/dbx"
	"github.com/dmitrijs2005/lotkeeper/internal/server/models"
)

// SQLiteRepository is the embedded-database twin of PostgresRepository.
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Create(ctx context.Context, bid *models.Bid) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO bids (id, lot_id, bidder_id, amount, created_at) VALUES (?, ?, ?, ?, ?)`,
		bid.ID, bid.LotID, bid.BidderID, bid.Amount, bid.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListByLot(ctx context.Context, lotID string) ([]*models.Bid, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, lot_id, bidder_id, amount, created_at FROM bids WHERE lot_id = ? ORDER BY created_at, amount`,
		lotID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return collectBids(rows)
}

func (r *SQLiteRepository) ListBidders(ctx context.Context, lotID string) ([]string, error) {
	query := `
		SELECT bidder_id FROM bids WHERE lot_id = ?
		GROUP BY bidder_id
		ORDER BY MIN(created_at), bidder_id
	`
	rows, err := r.db.QueryContext(ctx, query, lotID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return collectIDs(rows)
}
