package grpc

import (
	"context"

	"github.com/dmitrijs2005/lotkeeper/internal/api"
	"github.com/dmitrijs2005/lotkeeper/internal/server/models"
	"github.com/dmitrijs2005/lotkeeper/internal/server/services"
	"github.com/dmitrijs2005/lotkeeper/internal/server/sessions"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

type userSvc interface {
	Register(ctx context.Context, user *models.User) (*models.User, error)
	AdminLogin(ctx context.Context, userID, password string) (string, error)
}

type auctionSvc interface {
	CreateLot(ctx context.Context, d services.LotDraft) (*models.Lot, error)
	DeleteLot(ctx context.Context, actorID, lotID string) error
	GetLot(ctx context.Context, lotID string) (*models.Lot, error)
	ListLots(ctx context.Context, statuses ...models.LotStatus) ([]*models.Lot, error)
	ListOwnerLots(ctx context.Context, ownerID string) ([]*models.Lot, error)
	Stats(ctx context.Context) (*models.Stats, error)
	Approve(ctx context.Context, moderatorID, lotID string) (*models.Lot, error)
	Reject(ctx context.Context, moderatorID, lotID, reason string) (*models.Lot, error)
	CloseLot(ctx context.Context, moderatorID, lotID string) (*services.Outcome, error)
	Purchase(ctx context.Context, buyerID, lotID string) (*models.Lot, error)
	MarkSold(ctx context.Context, actorID, lotID string) (*models.Lot, error)
}

type biddingSvc interface {
	BeginBid(ctx context.Context, userID, lotID string) (*services.BidTicket, error)
	PreviewBid(ctx context.Context, userID, token string, amount int64) (*services.BidPreview, error)
	ConfirmBid(ctx context.Context, userID, token string, amount int64) (*services.BidResult, error)
	CancelBid(ctx context.Context, userID, token string) error
	PendingBid(ctx context.Context, userID string) (*sessions.Session, error)
}

type photoSvc interface {
	GetPresignedPutURL(ctx context.Context, userID string) (string, string, error)
}

// unary adapts a typed handler to the Struct wire form.
func unary[Req, Resp any](s *GRPCServer, f func(ctx context.Context, req *Req) (*Resp, error)) api.Handler {
	return func(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
		req := new(Req)
		if err := api.Decode(in, req); err != nil {
			return nil, status.Error(codes.InvalidArgument, "malformed request")
		}
		resp, err := f(ctx, req)
		if err != nil {
			return nil, s.toStatus(ctx, err)
		}
		out, err := api.Encode(resp)
		if err != nil {
			s.logger.Error(ctx, "encode response", "error", err)
			return nil, status.Error(codes.Internal, "internal error")
		}
		return out, nil
	}
}

func (s *GRPCServer) routes() map[string]api.Handler {
	return map[string]api.Handler{
		api.MethodPing:           unary(s, s.Ping),
		api.MethodRegisterUser:   unary(s, s.RegisterUser),
		api.MethodAdminLogin:     unary(s, s.AdminLogin),
		api.MethodCreateLot:      unary(s, s.CreateLot),
		api.MethodDeleteLot:      unary(s, s.DeleteLot),
		api.MethodGetLot:         unary(s, s.GetLot),
		api.MethodListLots:       unary(s, s.ListLots),
		api.MethodMyLots:         unary(s, s.MyLots),
		api.MethodStats:          unary(s, s.Stats),
		api.MethodPhotoUploadURL: unary(s, s.PhotoUploadURL),
		api.MethodApprove:        unary(s, s.Approve),
		api.MethodReject:         unary(s, s.Reject),
		api.MethodCloseLot:       unary(s, s.CloseLot),
		api.MethodBeginBid:       unary(s, s.BeginBid),
		api.MethodPreviewBid:     unary(s, s.PreviewBid),
		api.MethodConfirmBid:     unary(s, s.ConfirmBid),
		api.MethodCancelBid:      unary(s, s.CancelBid),
		api.MethodPendingBid:     unary(s, s.PendingBid),
		api.MethodPurchase:       unary(s, s.Purchase),
		api.MethodMarkSold:       unary(s, s.MarkSold),
	}
}

func (s *GRPCServer) Ping(ctx context.Context, _ *api.Empty) (*api.PingResponse, error) {
	return &api.PingResponse{Status: "OK"}, nil
}

func (s *GRPCServer) RegisterUser(ctx context.Context, req *api.User) (*api.User, error) {
	u, err := s.users.Register(ctx, &models.User{
		ID:          req.ID,
		UserName:    req.UserName,
		DisplayName: req.DisplayName,
		Phone:       req.Phone,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "Registered", "user_id", u.ID)
	return &api.User{ID: u.ID, UserName: u.UserName, DisplayName: u.DisplayName, Phone: u.Phone, IsAdmin: u.IsAdmin}, nil
}

func (s *GRPCServer) AdminLogin(ctx context.Context, req *api.AdminLoginRequest) (*api.AdminLoginResponse, error) {
	token, err := s.users.AdminLogin(ctx, req.UserID, req.Password)
	if err != nil {
		return nil, err
	}
	return &api.AdminLoginResponse{AccessToken: token}, nil
}

func (s *GRPCServer) CreateLot(ctx context.Context, req *api.CreateLotRequest) (*api.Lot, error) {
	lot, err := s.auctions.CreateLot(ctx, services.LotDraft{
		OwnerID:     req.UserID,
		Kind:        models.LotKind(req.Kind),
		Photos:      req.Photos,
		Description: req.Description,
		Location:    req.Location,
		Size:        req.Size,
		Condition:   req.Condition,
		StartPrice:  req.StartPrice,
	})
	if err != nil {
		return nil, err
	}
	return s.lot(lot), nil
}

func (s *GRPCServer) DeleteLot(ctx context.Context, req *api.LotRequest) (*api.Empty, error) {
	if err := s.auctions.DeleteLot(ctx, req.UserID, req.LotID); err != nil {
		return nil, err
	}
	return &api.Empty{}, nil
}

func (s *GRPCServer) GetLot(ctx context.Context, req *api.LotRequest) (*api.Lot, error) {
	lot, err := s.auctions.GetLot(ctx, req.LotID)
	if err != nil {
		return nil, err
	}
	return s.lot(lot), nil
}

func (s *GRPCServer) ListLots(ctx context.Context, req *api.ListLotsRequest) (*api.LotsResponse, error) {
	statuses := make([]models.LotStatus, 0, len(req.Statuses))
	for _, st := range req.Statuses {
		ls := models.LotStatus(st)
		if !ls.Valid() {
			return nil, status.Errorf(codes.InvalidArgument, "unknown status %q", st)
		}
		statuses = append(statuses, ls)
	}
	lots, err := s.auctions.ListLots(ctx, statuses...)
	if err != nil {
		return nil, err
	}
	return s.lots(lots), nil
}

func (s *GRPCServer) MyLots(ctx context.Context, req *api.UserRequest) (*api.LotsResponse, error) {
	lots, err := s.auctions.ListOwnerLots(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	return s.lots(lots), nil
}

func (s *GRPCServer) Stats(ctx context.Context, _ *api.Empty) (*api.Stats, error) {
	st, err := s.auctions.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return services.StatsToAPI(st), nil
}

func (s *GRPCServer) PhotoUploadURL(ctx context.Context, req *api.UserRequest) (*api.PhotoUploadResponse, error) {
	key, url, err := s.photos.GetPresignedPutURL(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	return &api.PhotoUploadResponse{Key: key, URL: url}, nil
}

func (s *GRPCServer) Approve(ctx context.Context, req *api.LotRequest) (*api.Lot, error) {
	moderator, err := moderatorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	lot, err := s.auctions.Approve(ctx, moderator, req.LotID)
	if err != nil {
		return nil, err
	}
	return s.lot(lot), nil
}

func (s *GRPCServer) Reject(ctx context.Context, req *api.RejectRequest) (*api.Lot, error) {
	moderator, err := moderatorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	lot, err := s.auctions.Reject(ctx, moderator, req.LotID, req.Reason)
	if err != nil {
		return nil, err
	}
	return s.lot(lot), nil
}

func (s *GRPCServer) CloseLot(ctx context.Context, req *api.LotRequest) (*api.Outcome, error) {
	moderator, err := moderatorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	out, err := s.auctions.CloseLot(ctx, moderator, req.LotID)
	if err != nil {
		return nil, err
	}
	return services.OutcomeToAPI(out), nil
}

func (s *GRPCServer) BeginBid(ctx context.Context, req *api.LotRequest) (*api.BidTicket, error) {
	t, err := s.bidding.BeginBid(ctx, req.UserID, req.LotID)
	if err != nil {
		return nil, err
	}
	return &api.BidTicket{Token: t.Token, Lot: *s.lot(t.Lot), Minimum: t.Minimum, ExpiresAt: t.ExpiresAt}, nil
}

func (s *GRPCServer) PreviewBid(ctx context.Context, req *api.BidRequest) (*api.BidPreview, error) {
	p, err := s.bidding.PreviewBid(ctx, req.UserID, req.Token, req.Amount)
	if err != nil {
		return nil, err
	}
	return &api.BidPreview{Lot: *s.lot(p.Lot), Amount: p.Amount, Minimum: p.Minimum}, nil
}

func (s *GRPCServer) ConfirmBid(ctx context.Context, req *api.BidRequest) (*api.BidResult, error) {
	r, err := s.bidding.ConfirmBid(ctx, req.UserID, req.Token, req.Amount)
	if err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "Bid accepted", "lot_id", r.Lot.ID, "user_id", req.UserID, "amount", r.Bid.Amount)
	return &api.BidResult{Lot: *s.lot(r.Lot), Amount: r.Bid.Amount, PreviousLeader: r.PreviousLeader, Started: r.Started}, nil
}

func (s *GRPCServer) CancelBid(ctx context.Context, req *api.BidRequest) (*api.Empty, error) {
	if err := s.bidding.CancelBid(ctx, req.UserID, req.Token); err != nil {
		return nil, err
	}
	return &api.Empty{}, nil
}

func (s *GRPCServer) PendingBid(ctx context.Context, req *api.UserRequest) (*api.PendingBid, error) {
	p, err := s.bidding.PendingBid(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	return &api.PendingBid{LotID: p.LotID, Token: p.Token, ExpiresAt: p.ExpiresAt}, nil
}

func (s *GRPCServer) Purchase(ctx context.Context, req *api.LotRequest) (*api.Lot, error) {
	lot, err := s.auctions.Purchase(ctx, req.UserID, req.LotID)
	if err != nil {
		return nil, err
	}
	return s.lot(lot), nil
}

func (s *GRPCServer) MarkSold(ctx context.Context, req *api.LotRequest) (*api.Lot, error) {
	lot, err := s.auctions.MarkSold(ctx, req.UserID, req.LotID)
	if err != nil {
		return nil, err
	}
	return s.lot(lot), nil
}
