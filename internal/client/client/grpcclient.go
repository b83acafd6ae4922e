package client

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/lotkeeper/internal/api"
	"github.com/dmitrijs2005/lotkeeper/internal/common"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	api         *api.Client

	mu          sync.RWMutex
	accessToken string
}

var _ Client = (*GRPCClient)(nil)

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Delete(common.AccessTokenHeaderName)
	md.Set(common.AccessTokenHeaderName, token)

	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

func (s *GRPCClient) setToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = token
}

// accessTokenInterceptor attaches the moderator token and forgets it once
// the server reports it expired.
func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {

	if token := s.token(); token != "" {
		ctx = withAccessToken(ctx, token)
	}

	err := invoker(ctx, method, req, reply, cc, opts...)

	if st, ok := status.FromError(err); ok && st.Code() == codes.Unauthenticated && st.Message() == common.ErrTokenExpired.Error() {
		s.setToken("")
	}

	return err
}

func NewGRPCClient(endpointURL string, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL}
	if err := c.InitGRPCClient(opts...); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *GRPCClient) InitGRPCClient(opts ...grpc.DialOption) error {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(s.accessTokenInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(s.endpointURL, opts...)
	if err != nil {
		return err
	}
	s.conn = conn
	s.api = api.NewClient(conn)
	return nil
}

func (s *GRPCClient) Close() error {
	return s.conn.Close()
}

func (s *GRPCClient) call(ctx context.Context, method string, req, resp any) error {
	return s.mapError(s.api.Call(ctx, method, req, resp))
}

// mapError restores the sentinel a status stands for. Transport failures
// become ErrUnavailable.
func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	if tooLow, ok := api.BidTooLowFromStatus(st); ok {
		return tooLow
	}
	if sentinel := api.SentinelFromMessage(st.Message()); sentinel != nil {
		return sentinel
	}
	switch st.Code() {
	case codes.Unauthenticated:
		return ErrNotModerator
	case codes.PermissionDenied:
		return ErrUnauthorized
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	case codes.Internal:
		return common.ErrorInternal
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}

func (s *GRPCClient) Ping(ctx context.Context) error {
	var resp api.PingResponse
	if err := s.call(ctx, api.MethodPing, nil, &resp); err != nil {
		return err
	}
	if resp.Status != "OK" {
		return ErrUnavailable
	}
	return nil
}

func (s *GRPCClient) Register(ctx context.Context, u api.User) (*api.User, error) {
	var out api.User
	if err := s.call(ctx, api.MethodRegisterUser, u, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *GRPCClient) AdminLogin(ctx context.Context, userID, password string) error {
	var resp api.AdminLoginResponse
	if err := s.call(ctx, api.MethodAdminLogin, api.AdminLoginRequest{UserID: userID, Password: password}, &resp); err != nil {
		return err
	}
	s.setToken(resp.AccessToken)
	return nil
}

func (s *GRPCClient) IsModerator() bool {
	return s.token() != ""
}

func (s *GRPCClient) Logout() {
	s.setToken("")
}

func (s *GRPCClient) CreateLot(ctx context.Context, req api.CreateLotRequest) (*api.Lot, error) {
	return callLot(ctx, s, api.MethodCreateLot, req)
}

func (s *GRPCClient) DeleteLot(ctx context.Context, userID, lotID string) error {
	return s.call(ctx, api.MethodDeleteLot, api.LotRequest{UserID: userID, LotID: lotID}, nil)
}

func (s *GRPCClient) GetLot(ctx context.Context, lotID string) (*api.Lot, error) {
	return callLot(ctx, s, api.MethodGetLot, api.LotRequest{LotID: lotID})
}

func (s *GRPCClient) ListLots(ctx context.Context, statuses ...string) ([]api.Lot, error) {
	var resp api.LotsResponse
	if err := s.call(ctx, api.MethodListLots, api.ListLotsRequest{Statuses: statuses}, &resp); err != nil {
		return nil, err
	}
	return resp.Lots, nil
}

func (s *GRPCClient) MyLots(ctx context.Context, userID string) ([]api.Lot, error) {
	var resp api.LotsResponse
	if err := s.call(ctx, api.MethodMyLots, api.UserRequest{UserID: userID}, &resp); err != nil {
		return nil, err
	}
	return resp.Lots, nil
}

func (s *GRPCClient) PhotoUploadURL(ctx context.Context, userID string) (*api.PhotoUploadResponse, error) {
	var resp api.PhotoUploadResponse
	if err := s.call(ctx, api.MethodPhotoUploadURL, api.UserRequest{UserID: userID}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *GRPCClient) Stats(ctx context.Context) (*api.Stats, error) {
	var resp api.Stats
	if err := s.call(ctx, api.MethodStats, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *GRPCClient) Approve(ctx context.Context, lotID string) (*api.Lot, error) {
	return callLot(ctx, s, api.MethodApprove, api.LotRequest{LotID: lotID})
}

func (s *GRPCClient) Reject(ctx context.Context, lotID, reason string) (*api.Lot, error) {
	return callLot(ctx, s, api.MethodReject, api.RejectRequest{LotID: lotID, Reason: reason})
}

func (s *GRPCClient) CloseLot(ctx context.Context, lotID string) (*api.Outcome, error) {
	var out api.Outcome
	if err := s.call(ctx, api.MethodCloseLot, api.LotRequest{LotID: lotID}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *GRPCClient) BeginBid(ctx context.Context, userID, lotID string) (*api.BidTicket, error) {
	var out api.BidTicket
	if err := s.call(ctx, api.MethodBeginBid, api.LotRequest{UserID: userID, LotID: lotID}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *GRPCClient) PreviewBid(ctx context.Context, userID, token string, amount int64) (*api.BidPreview, error) {
	var out api.BidPreview
	if err := s.call(ctx, api.MethodPreviewBid, api.BidRequest{UserID: userID, Token: token, Amount: amount}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *GRPCClient) ConfirmBid(ctx context.Context, userID, token string, amount int64) (*api.BidResult, error) {
	var out api.BidResult
	if err := s.call(ctx, api.MethodConfirmBid, api.BidRequest{UserID: userID, Token: token, Amount: amount}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *GRPCClient) CancelBid(ctx context.Context, userID, token string) error {
	return s.call(ctx, api.MethodCancelBid, api.BidRequest{UserID: userID, Token: token}, nil)
}

func (s *GRPCClient) PendingBid(ctx context.Context, userID string) (*api.PendingBid, error) {
	var out api.PendingBid
	if err := s.call(ctx, api.MethodPendingBid, api.UserRequest{UserID: userID}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *GRPCClient) Purchase(ctx context.Context, userID, lotID string) (*api.Lot, error) {
	return callLot(ctx, s, api.MethodPurchase, api.LotRequest{UserID: userID, LotID: lotID})
}

func (s *GRPCClient) MarkSold(ctx context.Context, userID, lotID string) (*api.Lot, error) {
	return callLot(ctx, s, api.MethodMarkSold, api.LotRequest{UserID: userID, LotID: lotID})
}

func callLot(ctx context.Context, s *GRPCClient, method string, req any) (*api.Lot, error) {
	var lot api.Lot
	if err := s.call(ctx, method, req, &lot); err != nil {
		return nil, err
	}
	return &lot, nil
}
