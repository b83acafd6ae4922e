package api

import (
	"errors"

	"github.com/dmitrijs2005/lotkeeper/internal/common"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// sentinels travel as the status message so both sides agree on them.
var sentinels = []error{
	common.ErrorNotFound,
	common.ErrorUnauthorized,
	common.ErrInvalidTransition,
	common.ErrLotNotBiddable,
	common.ErrAlreadySold,
	common.ErrInvalidLot,
	common.ErrInvalidUser,
	common.ErrBidTooLow,
	common.ErrInvalidToken,
	common.ErrTokenExpired,
	common.ErrTokenMismatch,
}

// Sentinel returns the sentinel err matches, or nil.
func Sentinel(err error) error {
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s
		}
	}
	return nil
}

// SentinelFromMessage is the reverse of Sentinel for a status message.
func SentinelFromMessage(msg string) error {
	for _, s := range sentinels {
		if s.Error() == msg {
			return s
		}
	}
	return nil
}

type bidTooLowDetail struct {
	Minimum   int64  `json:"minimum"`
	Attempted int64  `json:"attempted"`
	Current   *int64 `json:"current,omitempty"`
}

// BidTooLowDetail is the status detail that carries e to the client.
func BidTooLowDetail(e *common.BidTooLowError) (*structpb.Struct, error) {
	return Encode(bidTooLowDetail{Minimum: e.Minimum, Attempted: e.Attempted, Current: e.Current})
}

// BidTooLowFromStatus rebuilds the BidTooLowError attached to st.
func BidTooLowFromStatus(st *status.Status) (*common.BidTooLowError, bool) {
	for _, d := range st.Details() {
		s, ok := d.(*structpb.Struct)
		if !ok {
			continue
		}
		var det bidTooLowDetail
		if err := Decode(s, &det); err != nil {
			continue
		}
		return &common.BidTooLowError{Minimum: det.Minimum, Attempted: det.Attempted, Current: det.Current}, true
	}
	return nil, false
}
