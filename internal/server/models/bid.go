package models

import "time"

// Bid is an immutable, accepted offer on a lot.
type Bid struct {
	ID        string
	LotID     string
	BidderID  string
	Amount    int64
	CreatedAt time.Time
}

// BidToken binds a bidder to a lot for a short window.
type BidToken struct {
	Token     string
	LotID     string
	UserID    string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the token is no longer redeemable at now.
func (t *BidToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
