package client

import (
	"context"

	"github.com/dmitrijs2005/lotkeeper/internal/api"
)

// Client is what the CLI needs from the server.
type Client interface {
	Close() error
	Ping(ctx context.Context) error

	Register(ctx context.Context, u api.User) (*api.User, error)
	AdminLogin(ctx context.Context, userID, password string) error
	IsModerator() bool
	Logout()

	CreateLot(ctx context.Context, req api.CreateLotRequest) (*api.Lot, error)
	DeleteLot(ctx context.Context, userID, lotID string) error
	GetLot(ctx context.Context, lotID string) (*api.Lot, error)
	ListLots(ctx context.Context, statuses ...string) ([]api.Lot, error)
	MyLots(ctx context.Context, userID string) ([]api.Lot, error)
	PhotoUploadURL(ctx context.Context, userID string) (*api.PhotoUploadResponse, error)

	Stats(ctx context.Context) (*api.Stats, error)
	Approve(ctx context.Context, lotID string) (*api.Lot, error)
	Reject(ctx context.Context, lotID, reason string) (*api.Lot, error)
	CloseLot(ctx context.Context, lotID string) (*api.Outcome, error)

	BeginBid(ctx context.Context, userID, lotID string) (*api.BidTicket, error)
	PreviewBid(ctx context.Context, userID, token string, amount int64) (*api.BidPreview, error)
	ConfirmBid(ctx context.Context, userID, token string, amount int64) (*api.BidResult, error)
	CancelBid(ctx context.Context, userID, token string) error
	PendingBid(ctx context.Context, userID string) (*api.PendingBid, error)

	Purchase(ctx context.Context, userID, lotID string) (*api.Lot, error)
	MarkSold(ctx context.Context, userID, lotID string) (*api.Lot, error)
}
