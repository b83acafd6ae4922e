package cli

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/lotkeeper/internal/api"
	"github.com/dmitrijs2005/lotkeeper/internal/client/client"
	"github.com/dmitrijs2005/lotkeeper/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClient implements client.Client; methods not overridden panic.
type fakeClient struct {
	client.Client

	moderator bool

	adminPassword string
	registered    api.User
	created       api.CreateLotRequest
	lots          []api.Lot
	listStatuses  []string
	lot           *api.Lot
	outcome       *api.Outcome
	stats         *api.Stats
	upload        *api.PhotoUploadResponse

	ticket     *api.BidTicket
	pending    *api.PendingBid
	minimum    int64
	previews   []int64
	confirmed  []int64
	cancelled  []string
	confirmErr error

	purchased string
	err       error
}

func (f *fakeClient) IsModerator() bool { return f.moderator }

func (f *fakeClient) Register(ctx context.Context, u api.User) (*api.User, error) {
	f.registered = u
	return &u, f.err
}

func (f *fakeClient) AdminLogin(ctx context.Context, userID, password string) error {
	f.adminPassword = password
	return f.err
}

func (f *fakeClient) CreateLot(ctx context.Context, req api.CreateLotRequest) (*api.Lot, error) {
	f.created = req
	return &api.Lot{ID: "lot-1", Status: "pending"}, f.err
}

func (f *fakeClient) ListLots(ctx context.Context, statuses ...string) ([]api.Lot, error) {
	f.listStatuses = statuses
	return f.lots, f.err
}

func (f *fakeClient) GetLot(ctx context.Context, lotID string) (*api.Lot, error) {
	if f.lot == nil {
		return nil, common.ErrorNotFound
	}
	return f.lot, nil
}

func (f *fakeClient) PhotoUploadURL(ctx context.Context, userID string) (*api.PhotoUploadResponse, error) {
	return f.upload, f.err
}

func (f *fakeClient) CloseLot(ctx context.Context, lotID string) (*api.Outcome, error) {
	return f.outcome, f.err
}

func (f *fakeClient) Stats(ctx context.Context) (*api.Stats, error) { return f.stats, f.err }

func (f *fakeClient) BeginBid(ctx context.Context, userID, lotID string) (*api.BidTicket, error) {
	if f.ticket == nil {
		return nil, common.ErrLotNotBiddable
	}
	return f.ticket, nil
}

func (f *fakeClient) PendingBid(ctx context.Context, userID string) (*api.PendingBid, error) {
	if f.pending == nil {
		return nil, common.ErrorNotFound
	}
	return f.pending, nil
}

func (f *fakeClient) PreviewBid(ctx context.Context, userID, token string, amount int64) (*api.BidPreview, error) {
	f.previews = append(f.previews, amount)
	if amount < f.minimum {
		return nil, &common.BidTooLowError{Minimum: f.minimum, Attempted: amount}
	}
	return &api.BidPreview{Lot: *f.lot, Amount: amount, Minimum: f.minimum}, nil
}

func (f *fakeClient) ConfirmBid(ctx context.Context, userID, token string, amount int64) (*api.BidResult, error) {
	f.confirmed = append(f.confirmed, amount)
	if f.confirmErr != nil {
		return nil, f.confirmErr
	}
	end := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	return &api.BidResult{Lot: api.Lot{ID: f.lot.ID, EndTime: &end}, Amount: amount, Started: true}, nil
}

func (f *fakeClient) CancelBid(ctx context.Context, userID, token string) error {
	f.cancelled = append(f.cancelled, token)
	return nil
}

func (f *fakeClient) Purchase(ctx context.Context, userID, lotID string) (*api.Lot, error) {
	f.purchased = lotID
	return &api.Lot{ID: lotID, Status: "finished"}, f.err
}

func newTestApp(fc *fakeClient, input string) (*App, *bytes.Buffer) {
	var out bytes.Buffer
	return &App{
		client: fc,
		userID: "42",
		reader: bufio.NewReader(strings.NewReader(input)),
		out:    &out,
	}, &out
}

func TestRegister(t *testing.T) {
	fc := &fakeClient{}
	app, out := newTestApp(fc, "alice\nAlice A\n+371 2000000\n")

	require.NoError(t, app.Register(context.Background()))
	assert.Equal(t, api.User{ID: "42", UserName: "alice", DisplayName: "Alice A", Phone: "+371 2000000"}, fc.registered)
	assert.Contains(t, out.String(), "Registered as 42")
}

func TestAdmin(t *testing.T) {
	orig := getPassword
	getPassword = func(io.Writer) ([]byte, error) { return []byte("secret"), nil }
	t.Cleanup(func() { getPassword = orig })

	fc := &fakeClient{}
	app, out := newTestApp(fc, "")
	require.NoError(t, app.Admin(context.Background()))
	assert.Equal(t, "secret", fc.adminPassword)
	assert.Contains(t, out.String(), "Moderator mode enabled")

	fc.err = client.ErrNotModerator
	assert.ErrorIs(t, app.Admin(context.Background()), client.ErrNotModerator)
}

func TestLots_DefaultsToOpenLots(t *testing.T) {
	price := int64(2500)
	fc := &fakeClient{lots: []api.Lot{
		{ID: "0123456789", Kind: "auction", Status: "active", StartPrice: 1000, CurrentPrice: &price, Description: "Bike\nred"},
	}}
	app, out := newTestApp(fc, "")

	require.NoError(t, app.Lots(context.Background(), nil))
	assert.Equal(t, []string{"approved", "active"}, fc.listStatuses)
	assert.Contains(t, out.String(), "01234567")
	assert.Contains(t, out.String(), "2500")
	assert.Contains(t, out.String(), "Bike")
	assert.NotContains(t, out.String(), "red")

	fc.lots = nil
	out.Reset()
	require.NoError(t, app.Pending(context.Background()))
	assert.Equal(t, []string{"pending"}, fc.listStatuses)
	assert.Equal(t, "No lots\n", out.String())
}

func TestCreate_AttachesStagedPhotos(t *testing.T) {
	fc := &fakeClient{}
	app, out := newTestApp(fc, "\nRoad bike\n56cm frame\n\nRiga\nL\ngood\n1 000\n")
	app.stagedPhotos = []string{"photos/42/a.jpg"}

	require.NoError(t, app.Create(context.Background()))
	assert.Equal(t, api.CreateLotRequest{
		UserID:      "42",
		Kind:        "auction",
		Photos:      []string{"photos/42/a.jpg"},
		Description: "Road bike\n56cm frame",
		Location:    "Riga",
		Size:        "L",
		Condition:   "good",
		StartPrice:  1000,
	}, fc.created)
	assert.Empty(t, app.stagedPhotos)
	assert.Contains(t, out.String(), "Lot lot-1 submitted for moderation")
}

func TestCreate_RejectsUnknownKind(t *testing.T) {
	fc := &fakeClient{}
	app, _ := newTestApp(fc, "barter\n")
	assert.Error(t, app.Create(context.Background()))
	assert.Empty(t, fc.created.UserID)
}

func TestPhoto(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n0000000000")
	origRead, origUpload := readFile, uploadPhoto
	t.Cleanup(func() { readFile, uploadPhoto = origRead, origUpload })

	readFile = func(string) ([]byte, error) { return png, nil }
	var gotURL, gotType string
	uploadPhoto = func(ctx context.Context, url, contentType string, body []byte) error {
		gotURL, gotType = url, contentType
		return nil
	}

	fc := &fakeClient{upload: &api.PhotoUploadResponse{Key: "photos/42/x", URL: "http://s3/put"}}
	app, _ := newTestApp(fc, "")

	require.NoError(t, app.Photo(context.Background(), "bike.png"))
	assert.Equal(t, "http://s3/put", gotURL)
	assert.Equal(t, "image/png", gotType)
	assert.Equal(t, []string{"photos/42/x"}, app.stagedPhotos)

	readFile = func(string) ([]byte, error) { return []byte("just text"), nil }
	assert.Error(t, app.Photo(context.Background(), "notes.txt"))
	assert.Len(t, app.stagedPhotos, 1)
}

func TestBid_RepromptsUntilPreviewPasses(t *testing.T) {
	lot := &api.Lot{ID: "lot-1", Kind: "auction", Status: "approved", StartPrice: 1000, MinimumBid: 1000}
	fc := &fakeClient{
		lot:     lot,
		minimum: 1000,
		ticket:  &api.BidTicket{Token: "tok", Lot: *lot, Minimum: 1000, ExpiresAt: time.Now().Add(15 * time.Minute)},
	}
	app, out := newTestApp(fc, "abc\n900\n1500\ny\n")

	require.NoError(t, app.Bid(context.Background(), "lot-1"))
	assert.Equal(t, []int64{900, 1500}, fc.previews)
	assert.Equal(t, []int64{1500}, fc.confirmed)
	assert.Contains(t, out.String(), "not a number")
	assert.Contains(t, out.String(), "The minimum bid is 1000")
	assert.Contains(t, out.String(), "you are leading at 1500")
	assert.Contains(t, out.String(), "The auction has started")
}

func TestBid_DeclineCancelsToken(t *testing.T) {
	lot := &api.Lot{ID: "lot-1", MinimumBid: 1000}
	fc := &fakeClient{
		lot:     lot,
		minimum: 1000,
		ticket:  &api.BidTicket{Token: "tok", Lot: *lot, Minimum: 1000},
	}
	app, out := newTestApp(fc, "\nn\n")

	require.NoError(t, app.Bid(context.Background(), "lot-1"))
	assert.Equal(t, []int64{1000}, fc.previews)
	assert.Empty(t, fc.confirmed)
	assert.Equal(t, []string{"tok"}, fc.cancelled)
	assert.Contains(t, out.String(), "Bid cancelled")
}

func TestBid_OutbidAtConfirm(t *testing.T) {
	lot := &api.Lot{ID: "lot-1", MinimumBid: 1000}
	fc := &fakeClient{
		lot:        lot,
		minimum:    1000,
		ticket:     &api.BidTicket{Token: "tok", Lot: *lot, Minimum: 1000},
		confirmErr: &common.BidTooLowError{Minimum: 3000, Attempted: 1000},
	}
	app, out := newTestApp(fc, "\ny\n")

	require.NoError(t, app.Bid(context.Background(), "lot-1"))
	assert.Contains(t, out.String(), "The minimum is now 3000")
}

func TestBid_ResumesPendingBid(t *testing.T) {
	lot := &api.Lot{ID: "lot-1", MinimumBid: 2000}
	fc := &fakeClient{lot: lot, minimum: 2000, pending: &api.PendingBid{LotID: "lot-1", Token: "tok"}}
	app, _ := newTestApp(fc, "\ny\n")

	require.NoError(t, app.Bid(context.Background(), ""))
	assert.Equal(t, []int64{2000}, fc.confirmed)
}

func TestBid_NothingToResume(t *testing.T) {
	lines := capturePrints(t)
	fc := &fakeClient{}
	app, _ := newTestApp(fc, "")

	require.NoError(t, app.Bid(context.Background(), ""))
	assert.Contains(t, *lines, "Usage: bid <id> (no bid in progress)")
	assert.Empty(t, fc.previews)
}

func TestBid_BeginFails(t *testing.T) {
	app, _ := newTestApp(&fakeClient{}, "")
	assert.ErrorIs(t, app.Bid(context.Background(), "lot-1"), common.ErrLotNotBiddable)
}

func TestBuy(t *testing.T) {
	fc := &fakeClient{lot: &api.Lot{ID: "lot-2", Kind: "fixed_price", Status: "approved", StartPrice: 500}}

	app, _ := newTestApp(fc, "no\n")
	require.NoError(t, app.Buy(context.Background(), "lot-2"))
	assert.Empty(t, fc.purchased)

	app, out := newTestApp(fc, "y\n")
	require.NoError(t, app.Buy(context.Background(), "lot-2"))
	assert.Equal(t, "lot-2", fc.purchased)
	assert.Contains(t, out.String(), "Purchased!")
}

func TestClose(t *testing.T) {
	tests := []struct {
		name    string
		outcome api.Outcome
		want    string
	}{
		{"sold", api.Outcome{Status: "finished", WinnerID: "7", FinalPrice: 3000, GainPercent: 200}, "Sold to 7 for 3000 (+200%)"},
		{"no bids", api.Outcome{Status: "no_bids"}, "Closed without bids"},
		{"no-op", api.Outcome{Status: "finished", NoOp: true}, "Lot was already closed (finished)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, out := newTestApp(&fakeClient{outcome: &tt.outcome}, "")
			require.NoError(t, app.Close(context.Background(), "lot-1"))
			assert.Contains(t, out.String(), tt.want)
		})
	}
}

func TestStats(t *testing.T) {
	fc := &fakeClient{stats: &api.Stats{LotsByStatus: map[string]int64{"pending": 2, "active": 1}, Bids: 9, SoldVolume: 12000}}
	app, out := newTestApp(fc, "")

	require.NoError(t, app.Stats(context.Background()))
	assert.Equal(t, "active    1\npending   2\nbids      9\nsold      12000\n", out.String())
}

func TestCommands_PropagateErrors(t *testing.T) {
	boom := errors.New("boom")
	app, _ := newTestApp(&fakeClient{err: boom}, "")
	assert.ErrorIs(t, app.Stats(context.Background()), boom)
	assert.ErrorIs(t, app.Lots(context.Background(), []string{"active"}), boom)
}

type approveClient struct {
	fakeClient
	ref string
}

func (c *approveClient) Approve(ctx context.Context, lotID string) (*api.Lot, error) {
	return &api.Lot{ID: lotID, Status: "approved", ChannelMessageRef: c.ref}, nil
}

func TestApprove(t *testing.T) {
	app, out := newTestApp(nil, "")
	app.client = &approveClient{ref: "auction:7"}
	require.NoError(t, app.Approve(context.Background(), "lot-1"))
	assert.Contains(t, out.String(), "published (auction:7)")

	app, out = newTestApp(nil, "")
	app.client = &approveClient{}
	require.NoError(t, app.Approve(context.Background(), "lot-1"))
	assert.Contains(t, out.String(), "publishing to the channel failed")
}
