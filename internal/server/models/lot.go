// Package models defines server-side data models persisted in the database.
package models

import (
	"time"

	"github.com/dmitrijs2005/lotkeeper/internal/common"
)

// LotKind tags the lot variant. Only auction lots ever carry a timer.
type LotKind string

const (
	KindAuction    LotKind = "auction"
	KindFixedPrice LotKind = "fixed_price"
)

func (k LotKind) Valid() bool {
	return k == KindAuction || k == KindFixedPrice
}

type LotStatus string

const (
	StatusPending  LotStatus = "pending"
	StatusApproved LotStatus = "approved"
	StatusRejected LotStatus = "rejected"
	StatusActive   LotStatus = "active"
	StatusFinished LotStatus = "finished"
	StatusNoBids   LotStatus = "no_bids"
)

// Terminal reports whether no further transition is possible.
func (s LotStatus) Terminal() bool {
	return s == StatusRejected || s == StatusFinished || s == StatusNoBids
}

func (s LotStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusActive, StatusFinished, StatusNoBids:
		return true
	}
	return false
}

// AuctionTimer is the running clock of a started auction.
type AuctionTimer struct {
	StartTime time.Time
	EndTime   time.Time
}

// Remaining returns the time left at now, never negative.
func (t AuctionTimer) Remaining(now time.Time) time.Duration {
	if d := t.EndTime.Sub(now); d > 0 {
		return d
	}
	return 0
}

// Lot is a sellable item.
//
// CurrentPrice and LeaderID are either both nil (no bids) or both set.
// Timer is nil until the first accepted bid of an auction lot and is never
// set for fixed-price lots.
type Lot struct {
	ID                string
	OwnerID           string
	Kind              LotKind
	Photos            []string
	Description       string
	Location          string
	Size              string
	Condition         string
	StartPrice        int64
	CurrentPrice      *int64
	LeaderID          *string
	Status            LotStatus
	ChannelMessageRef *string
	Timer             *AuctionTimer
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// AuctionStarted reports whether the auction clock is running.
func (l *Lot) AuctionStarted() bool {
	return l.Timer != nil
}

// HasBids reports whether any bid was accepted.
func (l *Lot) HasBids() bool {
	return l.CurrentPrice != nil
}

// IsLeader reports whether userID holds the highest bid.
func (l *Lot) IsLeader(userID string) bool {
	return l.LeaderID != nil && *l.LeaderID == userID
}

// StartTimer starts the auction clock at now for duration d.
func (l *Lot) StartTimer(now time.Time, d time.Duration) error {
	if l.Kind != KindAuction {
		return common.ErrLotNotBiddable
	}
	if l.Timer != nil {
		return common.ErrInvalidTransition
	}
	l.Timer = &AuctionTimer{StartTime: now, EndTime: now.Add(d)}
	return nil
}

// DeadlinePassed reports whether a started auction is past its end time.
func (l *Lot) DeadlinePassed(now time.Time) bool {
	return l.Timer != nil && !now.Before(l.Timer.EndTime)
}
