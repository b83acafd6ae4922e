package lots

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/lotkeeper/internal/common"
	"github.com/dmitrijs2005/lotkeeper/internal/dbx"
	"github.com/dmitrijs2005/lotkeeper/internal/server/models"
)

// PostgresRepository implements lot storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, lot *models.Lot) error {
	photos, err := encodePhotos(lot.Photos)
	if err != nil {
		return fmt.Errorf("encode photos: %w", err)
	}
	started, start, end := timerArgs(lot.Timer)

	query := `
		INSERT INTO lots (id, owner_id, kind, photos, description, location, item_size, item_condition,
			start_price, current_price, leader_id, auction_started, start_time, end_time, status,
			channel_message_ref, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`
	_, err = r.db.ExecContext(ctx, query,
		lot.ID, lot.OwnerID, string(lot.Kind), photos, lot.Description, lot.Location, lot.Size, lot.Condition,
		lot.StartPrice, lot.CurrentPrice, lot.LeaderID, started, start, end, string(lot.Status),
		lot.ChannelMessageRef, lot.CreatedAt.UTC(), lot.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Lot, error) {
	return r.get(ctx, `SELECT `+lotColumns+` FROM lots WHERE id = $1`, id)
}

func (r *PostgresRepository) GetForUpdate(ctx context.Context, id string) (*models.Lot, error) {
	return r.get(ctx, `SELECT `+lotColumns+` FROM lots WHERE id = $1 FOR UPDATE`, id)
}

func (r *PostgresRepository) get(ctx context.Context, query, id string) (*models.Lot, error) {
	lot, err := scanLot(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return lot, nil
}

func (r *PostgresRepository) ListByStatus(ctx context.Context, statuses ...models.LotStatus) ([]*models.Lot, error) {
	query := `SELECT ` + lotColumns + ` FROM lots`
	var args []any
	if len(statuses) > 0 {
		var where string
		where, args = statusFilter(statuses, 1, true)
		query += ` WHERE ` + where
	}
	query += ` ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return collectLots(rows)
}

func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.Lot, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+lotColumns+` FROM lots WHERE owner_id = $1 ORDER BY created_at, id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return collectLots(rows)
}

func (r *PostgresRepository) Transition(ctx context.Context, id string, from, to models.LotStatus, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE lots SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`,
		string(to), at.UTC(), id, string(from))
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOne(res, common.ErrVersionConflict)
}

func (r *PostgresRepository) ApplyBid(ctx context.Context, id string, expectedPrice *int64, u BidUpdate) error {
	started, start, end := timerArgs(u.Timer)

	query := `
		UPDATE lots SET current_price = $1, leader_id = $2, status = $3,
			auction_started = $4, start_time = $5, end_time = $6, updated_at = $7
		WHERE id = $8 AND status = $9 AND current_price IS NOT DISTINCT FROM $10
	`
	res, err := r.db.ExecContext(ctx, query,
		u.Price, u.LeaderID, string(u.Status), started, start, end, u.At.UTC(),
		id, string(u.FromStatus), expectedPrice)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOne(res, common.ErrVersionConflict)
}

func (r *PostgresRepository) ApplyPurchase(ctx context.Context, id, buyerID string, price int64, at time.Time) error {
	query := `
		UPDATE lots SET current_price = $1, leader_id = $2, status = $3, updated_at = $4
		WHERE id = $5 AND kind = $6 AND status = $7
	`
	res, err := r.db.ExecContext(ctx, query,
		price, buyerID, string(models.StatusFinished), at.UTC(),
		id, string(models.KindFixedPrice), string(models.StatusApproved))
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOne(res, common.ErrVersionConflict)
}

func (r *PostgresRepository) SetChannelMessageRef(ctx context.Context, id, ref string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE lots SET channel_message_ref = $1 WHERE id = $2`, ref, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOne(res, common.ErrorNotFound)
}

// Delete removes the lot together with its bids and tokens.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM lots WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOne(res, common.ErrorNotFound)
}

func (r *PostgresRepository) Stats(ctx context.Context) (*models.Stats, error) {
	return stats(ctx, r.db, `SELECT COALESCE(SUM(current_price), 0) FROM lots WHERE status = $1`)
}
