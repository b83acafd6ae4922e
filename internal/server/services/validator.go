package services

import "github.com/dmitrijs2005/lotkeeper/internal/common"

// MinimumBid is the smallest acceptable bid: the start price while the lot
// has no bids, the current price plus increment afterwards. It is never
// below 1.
func MinimumBid(startPrice int64, currentPrice *int64, increment int64) int64 {
	minimum := startPrice
	if currentPrice != nil {
		minimum = *currentPrice + increment
	}
	if minimum < 1 {
		minimum = 1
	}
	return minimum
}

// ValidateBid returns a *common.BidTooLowError when amount is under the
// minimum. It has no side effects and may be called any number of times.
func ValidateBid(amount, startPrice int64, currentPrice *int64, increment int64) error {
	minimum := MinimumBid(startPrice, currentPrice, increment)
	if amount >= minimum {
		return nil
	}
	var current *int64
	if currentPrice != nil {
		v := *currentPrice
		current = &v
	}
	return &common.BidTooLowError{Minimum: minimum, Attempted: amount, Current: current}
}
