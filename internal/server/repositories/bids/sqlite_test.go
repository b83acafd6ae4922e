package bids

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/lotkeeper/internal/server/models"
	"github.com/dmitrijs2005/lotkeeper/internal/server/repositories/sqlitetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLite_HistoryAndBidders(t *testing.T) {
	db := sqlitetest.Open(t)
	for _, id := range []string{"owner", "a", "b", "c"} {
		sqlitetest.SeedUser(t, db, id)
	}
	_, err := db.Exec(`INSERT INTO lots (id, owner_id, kind, start_price, status, created_at, updated_at)
		VALUES ('l1', 'owner', 'auction', 1000, 'active', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`)
	require.NoError(t, err)

	r := NewSQLiteRepository(db)
	ctx := context.Background()
	t0 := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)

	seq := []struct {
		bidder string
		amount int64
	}{{"b", 1000}, {"a", 2000}, {"b", 3000}, {"c", 4000}}
	for i, s := range seq {
		require.NoError(t, r.Create(ctx, &models.Bid{
			ID: string(rune('1' + i)), LotID: "l1", BidderID: s.bidder, Amount: s.amount,
			CreatedAt: t0.Add(time.Duration(i) * time.Second),
		}))
	}

	history, err := r.ListByLot(ctx, "l1")
	require.NoError(t, err)
	require.Len(t, history, 4)
	for i := 1; i < len(history); i++ {
		assert.Greater(t, history[i].Amount, history[i-1].Amount)
	}

	bidders, err := r.ListBidders(ctx, "l1")
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a", "c"}, bidders)

	none, err := r.ListBidders(ctx, "other")
	require.NoError(t, err)
	assert.Empty(t, none)
}
