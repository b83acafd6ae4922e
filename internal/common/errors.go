// Package common defines shared constants and sentinel errors used across
// client and server layers of lotkeeper. Callers should use errors.Is to
// match these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrVersionConflict = errors.New("version conflict")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Lot lifecycle errors.
	ErrInvalidTransition = errors.New("lot already processed")
	ErrLotNotBiddable    = errors.New("lot is not open for bidding")
	ErrAlreadySold       = errors.New("lot already sold")
	ErrInvalidLot        = errors.New("invalid lot")
	ErrBidTooLow         = errors.New("bid too low")
	ErrInvalidUser       = errors.New("invalid user")

	// Bid token errors.
	ErrInvalidToken  = errors.New("invalid token")
	ErrTokenExpired  = errors.New("token expired")
	ErrTokenMismatch = errors.New("token belongs to another user")
)

// BidTooLowError is returned when a bid does not reach the required minimum.
// Current is nil while the lot has no bids yet.
type BidTooLowError struct {
	Minimum   int64
	Attempted int64
	Current   *int64
}

func (e *BidTooLowError) Error() string {
	if e.Current == nil {
		return fmt.Sprintf("%s: minimum %d, got %d", ErrBidTooLow, e.Minimum, e.Attempted)
	}
	return fmt.Sprintf("%s: minimum %d, got %d, current price %d", ErrBidTooLow, e.Minimum, e.Attempted, *e.Current)
}

// Is makes errors.Is(err, ErrBidTooLow) hold for any BidTooLowError.
func (e *BidTooLowError) Is(target error) bool {
	return target == ErrBidTooLow
}
