package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/lotkeeper/internal/api"
	"github.com/dmitrijs2005/lotkeeper/internal/common"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/protoadapt"
)

// toStatus maps a service error onto a gRPC status. The message is the
// sentinel text so clients can map it back.
func (s *GRPCServer) toStatus(ctx context.Context, err error) error {
	if _, ok := status.FromError(err); ok {
		return err
	}

	var tooLow *common.BidTooLowError
	if errors.As(err, &tooLow) {
		st := status.New(codes.FailedPrecondition, common.ErrBidTooLow.Error())
		detail, derr := api.BidTooLowDetail(tooLow)
		if derr == nil {
			if withDetail, derr := st.WithDetails(protoadapt.MessageV1Of(detail)); derr == nil {
				st = withDetail
			}
		}
		return st.Err()
	}

	sentinel := api.Sentinel(err)
	var code codes.Code
	switch sentinel {
	case common.ErrorNotFound:
		code = codes.NotFound
	case common.ErrInvalidTransition, common.ErrLotNotBiddable, common.ErrAlreadySold,
		common.ErrBidTooLow, common.ErrTokenExpired:
		code = codes.FailedPrecondition
	case common.ErrInvalidLot, common.ErrInvalidUser:
		code = codes.InvalidArgument
	case common.ErrorUnauthorized, common.ErrTokenMismatch:
		code = codes.PermissionDenied
	case common.ErrInvalidToken:
		code = codes.Unauthenticated
	default:
		s.logger.Error(ctx, "request failed", "error", err)
		return status.Error(codes.Internal, "internal error")
	}
	return status.Error(code, sentinel.Error())
}
