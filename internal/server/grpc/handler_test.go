package grpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/dmitrijs2005/lotkeeper/internal/api"
	"github.com/dmitrijs2005/lotkeeper/internal/common"
	"github.com/dmitrijs2005/lotkeeper/internal/server/auth"
	"github.com/dmitrijs2005/lotkeeper/internal/server/models"
	"github.com/dmitrijs2005/lotkeeper/internal/server/services"
	"github.com/dmitrijs2005/lotkeeper/internal/server/sessions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

// ---- fakes ----

type fakeUsers struct {
	userSvc
	registered *models.User
	regErr     error
	token      string
	loginErr   error
}

func (f *fakeUsers) Register(_ context.Context, u *models.User) (*models.User, error) {
	f.registered = u
	return u, f.regErr
}

func (f *fakeUsers) AdminLogin(context.Context, string, string) (string, error) {
	return f.token, f.loginErr
}

type fakeAuctions struct {
	auctionSvc
	lot       *models.Lot
	err       error
	draft     services.LotDraft
	statuses  []models.LotStatus
	moderator string
	reason    string
	outcome   *services.Outcome
}

func (f *fakeAuctions) CreateLot(_ context.Context, d services.LotDraft) (*models.Lot, error) {
	f.draft = d
	return f.lot, f.err
}

func (f *fakeAuctions) GetLot(context.Context, string) (*models.Lot, error) { return f.lot, f.err }

func (f *fakeAuctions) ListLots(_ context.Context, statuses ...models.LotStatus) ([]*models.Lot, error) {
	f.statuses = statuses
	return []*models.Lot{f.lot}, f.err
}

func (f *fakeAuctions) Reject(_ context.Context, moderatorID, _ string, reason string) (*models.Lot, error) {
	f.moderator, f.reason = moderatorID, reason
	return f.lot, f.err
}

func (f *fakeAuctions) CloseLot(_ context.Context, moderatorID, _ string) (*services.Outcome, error) {
	f.moderator = moderatorID
	return f.outcome, f.err
}

func (f *fakeAuctions) Stats(context.Context) (*models.Stats, error) {
	return &models.Stats{LotsByStatus: map[models.LotStatus]int64{models.StatusActive: 2}, Bids: 7, SoldVolume: 5000}, f.err
}

type fakeBidding struct {
	biddingSvc
	result  *services.BidResult
	err     error
	pending *sessions.Session
}

func (f *fakeBidding) ConfirmBid(context.Context, string, string, int64) (*services.BidResult, error) {
	return f.result, f.err
}

func (f *fakeBidding) PendingBid(context.Context, string) (*sessions.Session, error) {
	return f.pending, f.err
}

type fakePhotos struct {
	photoSvc
}

func (fakePhotos) GetPresignedPutURL(context.Context, string) (string, string, error) {
	return "lots/k", "https://s3/put", nil
}

func sampleLot() *models.Lot {
	return &models.Lot{
		ID:           "lot-1",
		OwnerID:      "owner",
		Kind:         models.KindAuction,
		Description:  "Bike",
		StartPrice:   1000,
		CurrentPrice: common.Int64Ptr(1500),
		LeaderID:     common.StringPtr("a"),
		Status:       models.StatusActive,
		Timer: &models.AuctionTimer{
			StartTime: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
			EndTime:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		},
	}
}

// ---- in-process transport ----

type harness struct {
	users    *fakeUsers
	auctions *fakeAuctions
	bidding  *fakeBidding
	client   *api.Client
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{users: &fakeUsers{}, auctions: &fakeAuctions{}, bidding: &fakeBidding{}}
	s := NewGRPCServer("", nopLogger{}, Services{
		Users: h.users, Auctions: h.auctions, Bidding: h.bidding, Photos: fakePhotos{},
	}, "secret", 1000)

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor, s.accessTokenInterceptor))
	api.RegisterServer(srv, s)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	h.client = api.NewClient(conn)
	return h
}

func moderatorCtx(t *testing.T) context.Context {
	t.Helper()
	token, err := auth.GenerateToken("mod", []byte("secret"), time.Minute)
	require.NoError(t, err)
	return metadata.AppendToOutgoingContext(context.Background(), common.AccessTokenHeaderName, token)
}

// ---- tests ----

func TestHandler_Ping(t *testing.T) {
	h := newHarness(t)
	var resp api.PingResponse
	require.NoError(t, h.client.Call(context.Background(), api.MethodPing, nil, &resp))
	assert.Equal(t, "OK", resp.Status)
}

func TestHandler_RegisterAndLogin(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	var u api.User
	require.NoError(t, h.client.Call(ctx, api.MethodRegisterUser, api.User{ID: "42", UserName: "bob"}, &u))
	assert.Equal(t, "42", u.ID)
	assert.Equal(t, "bob", h.users.registered.UserName)

	h.users.regErr = common.ErrInvalidUser
	err := h.client.Call(ctx, api.MethodRegisterUser, api.User{}, nil)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	h.users.token = "jwt"
	var login api.AdminLoginResponse
	require.NoError(t, h.client.Call(ctx, api.MethodAdminLogin, api.AdminLoginRequest{UserID: "mod", Password: "pw"}, &login))
	assert.Equal(t, "jwt", login.AccessToken)

	h.users.loginErr = common.ErrorUnauthorized
	err = h.client.Call(ctx, api.MethodAdminLogin, api.AdminLoginRequest{UserID: "mod", Password: "bad"}, nil)
	st, _ := status.FromError(err)
	assert.Equal(t, codes.PermissionDenied, st.Code())
	assert.Equal(t, common.ErrorUnauthorized.Error(), st.Message())
}

func TestHandler_CreateAndGetLot(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.auctions.lot = sampleLot()

	var lot api.Lot
	req := api.CreateLotRequest{UserID: "owner", Kind: "auction", Description: "Bike", StartPrice: 1000, Photos: []string{"k1"}}
	require.NoError(t, h.client.Call(ctx, api.MethodCreateLot, req, &lot))
	assert.Equal(t, models.KindAuction, h.auctions.draft.Kind)
	assert.Equal(t, []string{"k1"}, h.auctions.draft.Photos)

	require.NoError(t, h.client.Call(ctx, api.MethodGetLot, api.LotRequest{LotID: "lot-1"}, &lot))
	assert.Equal(t, "lot-1", lot.ID)
	require.NotNil(t, lot.CurrentPrice)
	assert.Equal(t, int64(1500), *lot.CurrentPrice)
	assert.Equal(t, int64(2500), lot.MinimumBid)
	assert.Equal(t, "a", lot.LeaderID)
	require.NotNil(t, lot.EndTime)
	assert.True(t, lot.EndTime.Equal(h.auctions.lot.Timer.EndTime))

	h.auctions.err = common.ErrorNotFound
	err := h.client.Call(ctx, api.MethodGetLot, api.LotRequest{LotID: "x"}, &lot)
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestHandler_ListLotsValidatesStatus(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.auctions.lot = sampleLot()

	var resp api.LotsResponse
	require.NoError(t, h.client.Call(ctx, api.MethodListLots, api.ListLotsRequest{Statuses: []string{"active", "approved"}}, &resp))
	assert.Equal(t, []models.LotStatus{models.StatusActive, models.StatusApproved}, h.auctions.statuses)
	assert.Len(t, resp.Lots, 1)

	err := h.client.Call(ctx, api.MethodListLots, api.ListLotsRequest{Statuses: []string{"bogus"}}, &resp)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestHandler_ModeratorCalls(t *testing.T) {
	h := newHarness(t)
	h.auctions.lot = sampleLot()

	err := h.client.Call(context.Background(), api.MethodReject, api.RejectRequest{LotID: "lot-1", Reason: "blurry"}, nil)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	ctx := moderatorCtx(t)
	require.NoError(t, h.client.Call(ctx, api.MethodReject, api.RejectRequest{LotID: "lot-1", Reason: "blurry"}, nil))
	assert.Equal(t, "mod", h.auctions.moderator)
	assert.Equal(t, "blurry", h.auctions.reason)

	h.auctions.outcome = &services.Outcome{LotID: "lot-1", Status: models.StatusFinished, WinnerID: "a", FinalPrice: 1500, GainPercent: 50}
	var out api.Outcome
	require.NoError(t, h.client.Call(ctx, api.MethodCloseLot, api.LotRequest{LotID: "lot-1"}, &out))
	assert.Equal(t, "finished", out.Status)
	assert.Equal(t, int64(50), out.GainPercent)

	var st api.Stats
	require.NoError(t, h.client.Call(ctx, api.MethodStats, nil, &st))
	assert.Equal(t, int64(2), st.LotsByStatus["active"])
	assert.Equal(t, int64(5000), st.SoldVolume)
}

func TestHandler_BidTooLowCarriesDetail(t *testing.T) {
	h := newHarness(t)
	h.bidding.err = fmt.Errorf("place bid: %w", &common.BidTooLowError{Minimum: 2500, Attempted: 2000, Current: common.Int64Ptr(1500)})

	err := h.client.Call(context.Background(), api.MethodConfirmBid, api.BidRequest{UserID: "b", Token: "t", Amount: 2000}, nil)
	st, ok := status.FromError(err)
	require.True(t, ok)
	assert.Equal(t, codes.FailedPrecondition, st.Code())
	assert.Equal(t, common.ErrBidTooLow.Error(), st.Message())

	tooLow, ok := api.BidTooLowFromStatus(st)
	require.True(t, ok)
	assert.Equal(t, int64(2500), tooLow.Minimum)
	assert.Equal(t, int64(2000), tooLow.Attempted)
	require.NotNil(t, tooLow.Current)
	assert.Equal(t, int64(1500), *tooLow.Current)
}

func TestHandler_ConfirmAndPending(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.bidding.result = &services.BidResult{
		Lot:            sampleLot(),
		Bid:            &models.Bid{Amount: 1500},
		PreviousLeader: "c",
	}
	var res api.BidResult
	require.NoError(t, h.client.Call(ctx, api.MethodConfirmBid, api.BidRequest{UserID: "a", Token: "t", Amount: 1500}, &res))
	assert.Equal(t, int64(1500), res.Amount)
	assert.Equal(t, "c", res.PreviousLeader)

	exp := time.Date(2026, 3, 1, 10, 15, 0, 0, time.UTC)
	h.bidding.pending = &sessions.Session{LotID: "lot-1", Token: "t", ExpiresAt: exp}
	var p api.PendingBid
	require.NoError(t, h.client.Call(ctx, api.MethodPendingBid, api.UserRequest{UserID: "a"}, &p))
	assert.Equal(t, "lot-1", p.LotID)
	assert.True(t, p.ExpiresAt.Equal(exp))
}

func TestHandler_PhotoUploadURL(t *testing.T) {
	h := newHarness(t)
	var resp api.PhotoUploadResponse
	require.NoError(t, h.client.Call(context.Background(), api.MethodPhotoUploadURL, api.UserRequest{UserID: "a"}, &resp))
	assert.Equal(t, "lots/k", resp.Key)
	assert.Equal(t, "https://s3/put", resp.URL)
}

func TestToStatus(t *testing.T) {
	s := newTestServer("secret")
	ctx := context.Background()

	tests := []struct {
		err  error
		code codes.Code
	}{
		{common.ErrorNotFound, codes.NotFound},
		{common.ErrInvalidTransition, codes.FailedPrecondition},
		{common.ErrLotNotBiddable, codes.FailedPrecondition},
		{common.ErrAlreadySold, codes.FailedPrecondition},
		{common.ErrTokenExpired, codes.FailedPrecondition},
		{common.ErrInvalidLot, codes.InvalidArgument},
		{common.ErrorUnauthorized, codes.PermissionDenied},
		{common.ErrTokenMismatch, codes.PermissionDenied},
		{common.ErrInvalidToken, codes.Unauthenticated},
		{errors.New("db is down"), codes.Internal},
		{status.Error(codes.Aborted, "kept"), codes.Aborted},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			st, _ := status.FromError(s.toStatus(ctx, tt.err))
			assert.Equal(t, tt.code, st.Code())
			if tt.code == codes.Internal {
				assert.Equal(t, "internal error", st.Message(), "internal details stay on the server")
			}
		})
	}
}
