// Package bids stores the append-only bid history of each lot.
package bids

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/lotkeeper/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, bid *models.Bid) error
	// ListByLot returns the bids of a lot, oldest first.
	ListByLot(ctx context.Context, lotID string) ([]*models.Bid, error)
	// ListBidders returns each bidder of a lot once, in order of their first bid.
	ListBidders(ctx context.Context, lotID string) ([]string, error)
}

func collectBids(rows *sql.Rows) ([]*models.Bid, error) {
	defer rows.Close()

	var result []*models.Bid
	for rows.Next() {
		var b models.Bid
		if err := rows.Scan(&b.ID, &b.LotID, &b.BidderID, &b.Amount, &b.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return result, nil
}

func collectIDs(rows *sql.Rows) ([]string, error) {
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return ids, nil
}
