// Package lots persists listings and guards every state change with a
// compare-and-set on the columns the caller last observed.
package lots

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/lotkeeper/internal/dbx"
	"github.com/dmitrijs2005/lotkeeper/internal/server/models"
)

// Repository is the lot store. Mutations that lose a compare-and-set return
// common.ErrVersionConflict; the caller re-reads and decides again.
type Repository interface {
	Create(ctx context.Context, lot *models.Lot) error
	GetByID(ctx context.Context, id string) (*models.Lot, error)
	// GetForUpdate reads the lot and, where the backend supports it, locks
	// the row until the surrounding transaction ends.
	GetForUpdate(ctx context.Context, id string) (*models.Lot, error)
	// ListByStatus returns lots in any of the given statuses, oldest first.
	// No statuses means every lot.
	ListByStatus(ctx context.Context, statuses ...models.LotStatus) ([]*models.Lot, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*models.Lot, error)
	Transition(ctx context.Context, id string, from, to models.LotStatus, at time.Time) error
	// ApplyBid writes the new price, leader, status and timer provided the
	// lot still has status u.FromStatus and price expectedPrice.
	ApplyBid(ctx context.Context, id string, expectedPrice *int64, u BidUpdate) error
	// ApplyPurchase sells an approved fixed-price lot to buyerID.
	ApplyPurchase(ctx context.Context, id, buyerID string, price int64, at time.Time) error
	SetChannelMessageRef(ctx context.Context, id, ref string) error
	Delete(ctx context.Context, id string) error
	Stats(ctx context.Context) (*models.Stats, error)
}

// BidUpdate is the post-bid state of a lot.
type BidUpdate struct {
	FromStatus models.LotStatus
	Status     models.LotStatus
	Price      int64
	LeaderID   string
	Timer      *models.AuctionTimer
	At         time.Time
}

const lotColumns = `id, owner_id, kind, photos, description, location, item_size, item_condition,
	start_price, current_price, leader_id, start_time, end_time, status, channel_message_ref,
	created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanLot(row scanner) (*models.Lot, error) {
	var (
		lot        models.Lot
		photos     string
		price      sql.NullInt64
		leader     sql.NullString
		start, end sql.NullTime
		ref        sql.NullString
	)
	err := row.Scan(&lot.ID, &lot.OwnerID, &lot.Kind, &photos, &lot.Description, &lot.Location,
		&lot.Size, &lot.Condition, &lot.StartPrice, &price, &leader, &start, &end, &lot.Status, &ref,
		&lot.CreatedAt, &lot.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(photos), &lot.Photos); err != nil {
		return nil, fmt.Errorf("decode photos of lot %s: %w", lot.ID, err)
	}
	if price.Valid {
		lot.CurrentPrice = &price.Int64
	}
	if leader.Valid {
		lot.LeaderID = &leader.String
	}
	if ref.Valid {
		lot.ChannelMessageRef = &ref.String
	}
	if start.Valid && end.Valid {
		lot.Timer = &models.AuctionTimer{StartTime: start.Time, EndTime: end.Time}
	}
	return &lot, nil
}

func collectLots(rows *sql.Rows) ([]*models.Lot, error) {
	defer rows.Close()

	var result []*models.Lot
	for rows.Next() {
		lot, err := scanLot(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, lot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return result, nil
}

func encodePhotos(photos []string) (string, error) {
	if photos == nil {
		photos = []string{}
	}
	b, err := json.Marshal(photos)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// timerArgs flattens an optional timer into (started, start, end) values.
func timerArgs(t *models.AuctionTimer) (bool, *time.Time, *time.Time) {
	if t == nil {
		return false, nil, nil
	}
	start, end := t.StartTime.UTC(), t.EndTime.UTC()
	return true, &start, &end
}

// statusFilter renders "status IN (...)" with placeholders starting at
// first. dollar selects $n placeholders over ?.
func statusFilter(statuses []models.LotStatus, first int, dollar bool) (string, []any) {
	marks := make([]string, len(statuses))
	args := make([]any, len(statuses))
	for i, s := range statuses {
		if dollar {
			marks[i] = "$" + strconv.Itoa(first+i)
		} else {
			marks[i] = "?"
		}
		args[i] = string(s)
	}
	return "status IN (" + strings.Join(marks, ", ") + ")", args
}

func expectOne(res sql.Result, zero error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return zero
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}

// stats runs driver-neutral aggregate queries.
func stats(ctx context.Context, db dbx.DBTX, finished string) (*models.Stats, error) {
	st := &models.Stats{LotsByStatus: map[models.LotStatus]int64{}}

	rows, err := db.QueryContext(ctx, `SELECT status, COUNT(*) FROM lots GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			status models.LotStatus
			n      int64
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		st.LotsByStatus[status] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bids`).Scan(&st.Bids); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	if err := db.QueryRowContext(ctx, finished, string(models.StatusFinished)).Scan(&st.SoldVolume); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return st, nil
}
