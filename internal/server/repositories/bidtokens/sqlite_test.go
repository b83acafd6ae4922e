package bidtokens

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/lotkeeper/internal/common"
	"github.com/dmitrijs2005/lotkeeper/internal/server/models"
	"github.com/dmitrijs2005/lotkeeper/internal/server/repositories/sqlitetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLite_TokenLifecycle(t *testing.T) {
	db := sqlitetest.Open(t)
	sqlitetest.SeedUser(t, db, "owner")
	sqlitetest.SeedUser(t, db, "u1")
	_, err := db.Exec(`INSERT INTO lots (id, owner_id, kind, start_price, status, created_at, updated_at)
		VALUES ('l1', 'owner', 'auction', 1000, 'approved', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`)
	require.NoError(t, err)

	r := NewSQLiteRepository(db)
	ctx := context.Background()
	t0 := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, r.Create(ctx, &models.BidToken{Token: "aaaa0001", LotID: "l1", UserID: "u1", CreatedAt: t0, ExpiresAt: t0.Add(15 * time.Minute)}))
	require.NoError(t, r.Create(ctx, &models.BidToken{Token: "aaaa0002", LotID: "l1", UserID: "u1", CreatedAt: t0, ExpiresAt: t0.Add(time.Minute)}))
	assert.Error(t, r.Create(ctx, &models.BidToken{Token: "aaaa0001", LotID: "l1", UserID: "u1", CreatedAt: t0, ExpiresAt: t0}), "token values are unique")

	got, err := r.Find(ctx, "aaaa0001")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)
	assert.True(t, got.ExpiresAt.Equal(t0.Add(15*time.Minute)))

	n, err := r.DeleteExpired(ctx, t0.Add(5*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	_, err = r.Find(ctx, "aaaa0002")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	removed, err := r.Delete(ctx, "aaaa0001")
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = r.Delete(ctx, "aaaa0001")
	require.NoError(t, err)
	assert.False(t, removed, "second redemption finds nothing")
}
