package bids

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/lotkeeper/internal/dbx"
	"github.com/dmitrijs2005/lotkeeper/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, bid *models.Bid) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO bids (id, lot_id, bidder_id, amount, created_at) VALUES ($1, $2, $3, $4, $5)`,
		bid.ID, bid.LotID, bid.BidderID, bid.Amount, bid.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListByLot(ctx context.Context, lotID string) ([]*models.Bid, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, lot_id, bidder_id, amount, created_at FROM bids WHERE lot_id = $1 ORDER BY created_at, amount`,
		lotID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return collectBids(rows)
}

func (r *PostgresRepository) ListBidders(ctx context.Context, lotID string) ([]string, error) {
	query := `
		SELECT bidder_id FROM bids WHERE lot_id = $1
		GROUP BY bidder_id
		ORDER BY MIN(created_at), bidder_id
	`
	rows, err := r.db.QueryContext(ctx, query, lotID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return collectIDs(rows)
}
