// Package sessions remembers which lot a user is currently bidding on.
// Entries expire on their own; nothing here is durable.
package sessions

import (
	"context"
	"time"
)

// Session is a pending bid: the user was handed Token for LotID.
type Session struct {
	LotID     string    `json:"lot_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Table maps user ids to their pending bid session.
type Table interface {
	Put(ctx context.Context, userID string, s Session) error
	// Get returns common.ErrorNotFound when the user has no live session.
	Get(ctx context.Context, userID string) (*Session, error)
	Delete(ctx context.Context, userID string) error
}
