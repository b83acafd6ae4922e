// Package bidtokens stores short-lived bid capabilities.
package bidtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/lotkeeper/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, token *models.BidToken) error
	Find(ctx context.Context, token string) (*models.BidToken, error)
	// Delete reports whether this call removed the token. Exactly one of
	// several concurrent callers observes true.
	Delete(ctx context.Context, token string) (bool, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
