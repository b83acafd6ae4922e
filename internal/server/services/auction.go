package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/lotkeeper/internal/common"
	"github.com/dmitrijs2005/lotkeeper/internal/dbx"
	"github.com/dmitrijs2005/lotkeeper/internal/logging"
	"github.com/dmitrijs2005/lotkeeper/internal/server/models"
	"github.com/dmitrijs2005/lotkeeper/internal/server/notify"
	"github.com/dmitrijs2005/lotkeeper/internal/server/repositories/lots"
	"github.com/dmitrijs2005/lotkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/lotkeeper/internal/timex"
	"github.com/google/uuid"
)

// LotScheduler registers and drops the timed jobs of a lot.
type LotScheduler interface {
	ScheduleLot(ctx context.Context, lot *models.Lot)
	CancelLot(lotID string)
}

// PhotoLinker turns a stored photo key into a link the channel can show.
type PhotoLinker interface {
	GetPresignedGetURL(ctx context.Context, key string) (string, error)
}

type AuctionSettings struct {
	Duration  time.Duration
	Increment int64
	Channel   string
	// MaxBidAttempts bounds how often a bid or a completion is retried after
	// losing a compare-and-set to a concurrent writer.
	MaxBidAttempts int
}

// LotDraft is what a seller submits.
type LotDraft struct {
	OwnerID     string
	Kind        models.LotKind
	Photos      []string
	Description string
	Location    string
	Size        string
	Condition   string
	StartPrice  int64
}

// BidResult describes an accepted bid. PreviousLeader is empty when the
// bidder was already leading or the lot had no bids.
type BidResult struct {
	Lot            *models.Lot
	Bid            *models.Bid
	PreviousLeader string
	Started        bool
}

// Outcome is the result of completing an auction. NoOp is set when the lot
// had already been finalised by an earlier call.
type Outcome struct {
	LotID        string
	Status       models.LotStatus
	OwnerID      string
	WinnerID     string
	FinalPrice   int64
	StartPrice   int64
	GainPercent  int64
	Participants []string
	NoOp         bool
}

// AuctionService is the only writer of lot status, price and leader.
type AuctionService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	scheduler   LotScheduler
	notifier    *notify.Dispatcher
	photos      PhotoLinker
	clock       timex.Clock
	logger      logging.Logger
	settings    AuctionSettings
}

// NewAuctionService wires the state machine. photos may be nil, in which
// case listings carry the raw storage keys.
func NewAuctionService(db *sql.DB, m repomanager.RepositoryManager, scheduler LotScheduler, notifier *notify.Dispatcher,
	photos PhotoLinker, clock timex.Clock, logger logging.Logger, settings AuctionSettings) *AuctionService {
	if logger == nil {
		logger = logging.Nop()
	}
	if settings.MaxBidAttempts <= 0 {
		settings.MaxBidAttempts = 3
	}
	return &AuctionService{
		db:          db,
		repomanager: m,
		scheduler:   scheduler,
		notifier:    notifier,
		photos:      photos,
		clock:       clock,
		logger:      logger,
		settings:    settings,
	}
}

func (s *AuctionService) CreateLot(ctx context.Context, d LotDraft) (*models.Lot, error) {
	if !d.Kind.Valid() {
		return nil, fmt.Errorf("%w: unknown kind %q", common.ErrInvalidLot, d.Kind)
	}
	if strings.TrimSpace(d.Description) == "" {
		return nil, fmt.Errorf("%w: description is required", common.ErrInvalidLot)
	}
	if d.StartPrice < 0 {
		return nil, fmt.Errorf("%w: negative start price", common.ErrInvalidLot)
	}
	if _, err := s.requireUser(ctx, s.db, d.OwnerID); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	lot := &models.Lot{
		ID:          uuid.NewString(),
		OwnerID:     d.OwnerID,
		Kind:        d.Kind,
		Photos:      d.Photos,
		Description: d.Description,
		Location:    d.Location,
		Size:        d.Size,
		Condition:   d.Condition,
		StartPrice:  d.StartPrice,
		Status:      models.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repomanager.Lots(s.db).Create(ctx, lot); err != nil {
		return nil, fmt.Errorf("error creating lot: %w", err)
	}

	s.logger.Info(ctx, "lot submitted", "lot_id", lot.ID, "owner_id", lot.OwnerID, "kind", lot.Kind)
	s.notifyAdmins(ctx, msgLotSubmitted(lot))
	return lot, nil
}

// DeleteLot removes a lot that never went public.
func (s *AuctionService) DeleteLot(ctx context.Context, actorID, lotID string) error {
	lot, err := s.repomanager.Lots(s.db).GetByID(ctx, lotID)
	if err != nil {
		return err
	}
	if lot.OwnerID != actorID {
		return common.ErrorUnauthorized
	}
	if lot.Status != models.StatusPending && lot.Status != models.StatusRejected {
		return common.ErrInvalidTransition
	}
	if err := s.repomanager.Lots(s.db).Delete(ctx, lotID); err != nil {
		return err
	}
	s.logger.Info(ctx, "lot deleted", "lot_id", lotID)
	return nil
}

func (s *AuctionService) GetLot(ctx context.Context, lotID string) (*models.Lot, error) {
	return s.repomanager.Lots(s.db).GetByID(ctx, lotID)
}

// ListLots returns lots in the given statuses, or all lots when none are given.
func (s *AuctionService) ListLots(ctx context.Context, statuses ...models.LotStatus) ([]*models.Lot, error) {
	return s.repomanager.Lots(s.db).ListByStatus(ctx, statuses...)
}

func (s *AuctionService) ListOwnerLots(ctx context.Context, ownerID string) ([]*models.Lot, error) {
	return s.repomanager.Lots(s.db).ListByOwner(ctx, ownerID)
}

func (s *AuctionService) Stats(ctx context.Context) (*models.Stats, error) {
	return s.repomanager.Lots(s.db).Stats(ctx)
}

// ActiveLots lists the running auctions; the scheduler recovers from it.
func (s *AuctionService) ActiveLots(ctx context.Context) ([]*models.Lot, error) {
	return s.repomanager.Lots(s.db).ListByStatus(ctx, models.StatusActive)
}

// Approve publishes a pending lot. A failed publish leaves the lot approved
// without a channel reference.
func (s *AuctionService) Approve(ctx context.Context, moderatorID, lotID string) (*models.Lot, error) {
	if err := s.requireAdmin(ctx, moderatorID); err != nil {
		return nil, err
	}
	lot, err := s.transitionPending(ctx, lotID, models.StatusApproved)
	if err != nil {
		return nil, err
	}

	ref, err := s.notifier.Publish(ctx, s.settings.Channel, s.listing(ctx, lot))
	if err != nil {
		s.logger.Warn(ctx, "listing publish failed", "lot_id", lot.ID, "error", err)
	} else if err := s.repomanager.Lots(s.db).SetChannelMessageRef(ctx, lot.ID, ref); err != nil {
		s.logger.Error(ctx, "failed to store channel reference", "lot_id", lot.ID, "ref", ref, "error", err)
	} else {
		lot.ChannelMessageRef = &ref
	}

	s.logger.Info(ctx, "lot approved", "lot_id", lot.ID, "moderator_id", moderatorID)
	s.notifier.Notify(ctx, lot.OwnerID, msgApproved(lot))
	return lot, nil
}

func (s *AuctionService) Reject(ctx context.Context, moderatorID, lotID, reason string) (*models.Lot, error) {
	if err := s.requireAdmin(ctx, moderatorID); err != nil {
		return nil, err
	}
	lot, err := s.transitionPending(ctx, lotID, models.StatusRejected)
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "lot rejected", "lot_id", lot.ID, "moderator_id", moderatorID)
	s.notifier.Notify(ctx, lot.OwnerID, msgRejected(lot, reason))
	return lot, nil
}

func (s *AuctionService) transitionPending(ctx context.Context, lotID string, to models.LotStatus) (*models.Lot, error) {
	repo := s.repomanager.Lots(s.db)
	lot, err := repo.GetByID(ctx, lotID)
	if err != nil {
		return nil, err
	}
	if lot.Status != models.StatusPending {
		return nil, common.ErrInvalidTransition
	}

	now := s.clock.Now()
	if err := repo.Transition(ctx, lot.ID, models.StatusPending, to, now); err != nil {
		if errors.Is(err, common.ErrVersionConflict) {
			return nil, common.ErrInvalidTransition
		}
		return nil, err
	}
	lot.Status = to
	lot.UpdatedAt = now
	return lot, nil
}

// PlaceBid accepts amount from bidderID if it still clears the minimum
// against the stored lot. A bid that loses a race with another writer is
// re-validated from scratch.
func (s *AuctionService) PlaceBid(ctx context.Context, lotID, bidderID string, amount int64) (*BidResult, error) {
	var (
		res *BidResult
		err error
	)
	for attempt := 1; attempt <= s.settings.MaxBidAttempts; attempt++ {
		res, err = dbx.WithTxValue(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) (*BidResult, error) {
			return s.placeBidTx(ctx, tx, lotID, bidderID, amount)
		})
		if !errors.Is(err, common.ErrVersionConflict) {
			break
		}
		s.logger.Debug(ctx, "bid lost a race, retrying", "lot_id", lotID, "attempt", attempt)
	}
	if err != nil {
		return nil, err
	}

	lot := res.Lot
	s.logger.Info(ctx, "bid accepted", "lot_id", lot.ID, "bidder_id", bidderID, "amount", amount, "started", res.Started)

	if res.Started {
		s.scheduler.ScheduleLot(ctx, lot)
	}
	if res.PreviousLeader != "" {
		minimum := MinimumBid(lot.StartPrice, lot.CurrentPrice, s.settings.Increment)
		s.notifier.Notify(ctx, res.PreviousLeader, msgOutbid(lot, amount, minimum))
	}
	s.refreshListing(ctx, lot)
	return res, nil
}

func (s *AuctionService) placeBidTx(ctx context.Context, tx dbx.DBTX, lotID, bidderID string, amount int64) (*BidResult, error) {
	if _, err := s.requireUser(ctx, tx, bidderID); err != nil {
		return nil, err
	}

	repo := s.repomanager.Lots(tx)
	lot, err := repo.GetForUpdate(ctx, lotID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if err := checkBiddable(lot, bidderID, now); err != nil {
		return nil, err
	}
	if err := ValidateBid(amount, lot.StartPrice, lot.CurrentPrice, s.settings.Increment); err != nil {
		return nil, err
	}

	bid := &models.Bid{ID: uuid.NewString(), LotID: lot.ID, BidderID: bidderID, Amount: amount, CreatedAt: now}
	if err := s.repomanager.Bids(tx).Create(ctx, bid); err != nil {
		return nil, err
	}

	res := &BidResult{Bid: bid}
	if lot.LeaderID != nil && *lot.LeaderID != bidderID {
		res.PreviousLeader = *lot.LeaderID
	}

	expected := lot.CurrentPrice
	from := lot.Status
	if lot.Timer == nil {
		if err := lot.StartTimer(now, s.settings.Duration); err != nil {
			return nil, err
		}
		res.Started = true
	}

	err = repo.ApplyBid(ctx, lot.ID, expected, lots.BidUpdate{
		FromStatus: from,
		Status:     models.StatusActive,
		Price:      amount,
		LeaderID:   bidderID,
		Timer:      lot.Timer,
		At:         now,
	})
	if err != nil {
		return nil, err
	}

	lot.Status = models.StatusActive
	lot.CurrentPrice = &amount
	lot.LeaderID = &bidderID
	lot.UpdatedAt = now
	res.Lot = lot
	return res, nil
}

// checkBiddable tells whether userID may bid on lot at now.
func checkBiddable(lot *models.Lot, userID string, now time.Time) error {
	if lot.Kind != models.KindAuction {
		return common.ErrLotNotBiddable
	}
	if lot.Status != models.StatusApproved && lot.Status != models.StatusActive {
		return common.ErrLotNotBiddable
	}
	if lot.OwnerID == userID {
		return common.ErrLotNotBiddable
	}
	if lot.DeadlinePassed(now) {
		return common.ErrLotNotBiddable
	}
	return nil
}

type settlement struct {
	lot     *models.Lot
	outcome *Outcome
}

// CompleteAuction finalises an auction. Calling it again for a finished lot
// returns a NoOp outcome and sends nothing.
func (s *AuctionService) CompleteAuction(ctx context.Context, lotID string) (*Outcome, error) {
	var (
		st  settlement
		err error
	)
	for attempt := 1; attempt <= s.settings.MaxBidAttempts; attempt++ {
		st, err = dbx.WithTxValue(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) (settlement, error) {
			return s.completeTx(ctx, tx, lotID)
		})
		if !errors.Is(err, common.ErrVersionConflict) {
			break
		}
		s.logger.Debug(ctx, "completion lost a race, retrying", "lot_id", lotID, "attempt", attempt)
	}
	if err != nil {
		return nil, err
	}

	s.scheduler.CancelLot(lotID)
	out := st.outcome
	if out.NoOp {
		s.logger.Debug(ctx, "lot already settled", "lot_id", lotID, "status", out.Status)
		return out, nil
	}

	s.logger.Info(ctx, "auction completed", "lot_id", lotID, "status", out.Status,
		"winner_id", out.WinnerID, "final_price", out.FinalPrice)
	s.announce(ctx, st.lot, out)
	return out, nil
}

func (s *AuctionService) completeTx(ctx context.Context, tx dbx.DBTX, lotID string) (settlement, error) {
	repo := s.repomanager.Lots(tx)
	lot, err := repo.GetForUpdate(ctx, lotID)
	if err != nil {
		return settlement{}, err
	}

	out := &Outcome{LotID: lot.ID, Status: lot.Status, OwnerID: lot.OwnerID, StartPrice: lot.StartPrice}
	if lot.Status.Terminal() {
		out.NoOp = true
		if lot.Status == models.StatusFinished && lot.HasBids() {
			out.WinnerID = *lot.LeaderID
			out.FinalPrice = *lot.CurrentPrice
			out.GainPercent = GainPercent(lot.StartPrice, out.FinalPrice)
		}
		return settlement{lot: lot, outcome: out}, nil
	}
	if lot.Kind != models.KindAuction || (lot.Status != models.StatusActive && lot.Status != models.StatusApproved) {
		return settlement{}, common.ErrInvalidTransition
	}

	bidders, err := s.repomanager.Bids(tx).ListBidders(ctx, lot.ID)
	if err != nil {
		return settlement{}, err
	}

	now := s.clock.Now()
	if len(bidders) == 0 || !lot.HasBids() {
		if lot.Status == models.StatusActive {
			s.logger.Error(ctx, "active lot reached its deadline without bids", "lot_id", lot.ID)
		}
		if err := repo.Transition(ctx, lot.ID, lot.Status, models.StatusNoBids, now); err != nil {
			return settlement{}, err
		}
		out.Status = models.StatusNoBids
	} else {
		if err := repo.Transition(ctx, lot.ID, lot.Status, models.StatusFinished, now); err != nil {
			return settlement{}, err
		}
		out.Status = models.StatusFinished
		out.WinnerID = *lot.LeaderID
		out.FinalPrice = *lot.CurrentPrice
		out.GainPercent = GainPercent(lot.StartPrice, out.FinalPrice)
		out.Participants = bidders
	}

	lot.Status = out.Status
	lot.UpdatedAt = now
	return settlement{lot: lot, outcome: out}, nil
}

func (s *AuctionService) announce(ctx context.Context, lot *models.Lot, out *Outcome) {
	switch out.Status {
	case models.StatusFinished:
		s.notifier.Notify(ctx, out.WinnerID, msgWinner(lot, out))
		s.notifier.Notify(ctx, out.OwnerID, msgOwnerSold(lot, out))
		s.notifyAdmins(ctx, msgAdminsFinished(lot, out))
		loser := msgLoser(lot, out)
		for _, p := range out.Participants {
			if p != out.WinnerID {
				s.notifier.Notify(ctx, p, loser)
			}
		}
	case models.StatusNoBids:
		s.notifier.Notify(ctx, out.OwnerID, msgOwnerNoBids(lot))
		s.notifyAdmins(ctx, msgAdminsNoBids(lot))
	}
	s.refreshListing(ctx, lot)
}

// CloseLot lets a moderator end an auction before its deadline.
func (s *AuctionService) CloseLot(ctx context.Context, moderatorID, lotID string) (*Outcome, error) {
	if err := s.requireAdmin(ctx, moderatorID); err != nil {
		return nil, err
	}
	return s.CompleteAuction(ctx, lotID)
}

// MarkSold closes a fixed-price lot that the owner sold elsewhere.
func (s *AuctionService) MarkSold(ctx context.Context, actorID, lotID string) (*models.Lot, error) {
	repo := s.repomanager.Lots(s.db)
	lot, err := repo.GetByID(ctx, lotID)
	if err != nil {
		return nil, err
	}
	if lot.Kind != models.KindFixedPrice {
		return nil, common.ErrInvalidTransition
	}
	if lot.OwnerID != actorID {
		return nil, common.ErrorUnauthorized
	}
	if lot.Status == models.StatusFinished {
		return nil, common.ErrAlreadySold
	}
	if lot.Status != models.StatusApproved {
		return nil, common.ErrInvalidTransition
	}

	now := s.clock.Now()
	if err := repo.Transition(ctx, lot.ID, models.StatusApproved, models.StatusFinished, now); err != nil {
		if errors.Is(err, common.ErrVersionConflict) {
			return nil, common.ErrAlreadySold
		}
		return nil, err
	}
	lot.Status = models.StatusFinished
	lot.UpdatedAt = now

	s.logger.Info(ctx, "lot marked sold", "lot_id", lot.ID)
	s.notifyAdmins(ctx, msgAdminsSold(lot, ""))
	s.refreshListing(ctx, lot)
	return lot, nil
}

// Purchase sells a fixed-price lot to buyerID at its listed price.
func (s *AuctionService) Purchase(ctx context.Context, buyerID, lotID string) (*models.Lot, error) {
	if _, err := s.requireUser(ctx, s.db, buyerID); err != nil {
		return nil, err
	}

	repo := s.repomanager.Lots(s.db)
	lot, err := repo.GetByID(ctx, lotID)
	if err != nil {
		return nil, err
	}
	if lot.Kind != models.KindFixedPrice {
		return nil, common.ErrLotNotBiddable
	}
	if lot.Status == models.StatusFinished {
		return nil, common.ErrAlreadySold
	}
	if lot.Status != models.StatusApproved || lot.OwnerID == buyerID {
		return nil, common.ErrLotNotBiddable
	}

	now := s.clock.Now()
	if err := repo.ApplyPurchase(ctx, lot.ID, buyerID, lot.StartPrice, now); err != nil {
		if errors.Is(err, common.ErrVersionConflict) {
			return nil, common.ErrAlreadySold
		}
		return nil, err
	}
	price := lot.StartPrice
	lot.Status = models.StatusFinished
	lot.CurrentPrice = &price
	lot.LeaderID = &buyerID
	lot.UpdatedAt = now

	s.logger.Info(ctx, "lot purchased", "lot_id", lot.ID, "buyer_id", buyerID, "price", price)
	s.notifier.Notify(ctx, buyerID, msgPurchased(lot))
	s.notifier.Notify(ctx, lot.OwnerID, msgOwnerPurchased(lot, buyerID))
	s.notifyAdmins(ctx, msgAdminsSold(lot, buyerID))
	s.refreshListing(ctx, lot)
	return lot, nil
}

// RunCompletion is the completion job.
func (s *AuctionService) RunCompletion(ctx context.Context, lotID string) error {
	_, err := s.CompleteAuction(ctx, lotID)
	return err
}

// RunUpdate re-renders the public listing of a running auction.
func (s *AuctionService) RunUpdate(ctx context.Context, lotID string, offset time.Duration) error {
	lot, err := s.repomanager.Lots(s.db).GetByID(ctx, lotID)
	if err != nil {
		return err
	}
	if lot.Status != models.StatusActive || lot.ChannelMessageRef == nil {
		return nil
	}
	s.logger.Debug(ctx, "listing update", "lot_id", lotID, "offset", offset)
	s.refreshListing(ctx, lot)
	return nil
}

// RunReminder messages every participant of a running auction.
func (s *AuctionService) RunReminder(ctx context.Context, lotID string, offset time.Duration) error {
	lot, err := s.repomanager.Lots(s.db).GetByID(ctx, lotID)
	if err != nil {
		return err
	}
	if lot.Status != models.StatusActive || lot.Timer == nil {
		return nil
	}
	bidders, err := s.repomanager.Bids(s.db).ListBidders(ctx, lotID)
	if err != nil {
		return err
	}

	remaining := lot.Timer.Remaining(s.clock.Now())
	for _, b := range bidders {
		s.notifier.Notify(ctx, b, msgReminder(lot, lot.IsLeader(b), remaining, s.settings.Increment))
	}
	s.logger.Debug(ctx, "reminder sent", "lot_id", lotID, "offset", offset, "participants", len(bidders))
	return nil
}

func (s *AuctionService) refreshListing(ctx context.Context, lot *models.Lot) {
	if lot.ChannelMessageRef == nil {
		return
	}
	s.notifier.UpdatePublished(ctx, *lot.ChannelMessageRef, s.listing(ctx, lot))
}

func (s *AuctionService) listing(ctx context.Context, lot *models.Lot) notify.Listing {
	l := renderListing(lot, s.clock.Now(), s.settings.Increment, s.settings.Duration)
	if s.photos == nil || len(l.Photos) == 0 {
		return l
	}
	links := make([]string, 0, len(l.Photos))
	for _, key := range l.Photos {
		url, err := s.photos.GetPresignedGetURL(ctx, key)
		if err != nil {
			s.logger.Warn(ctx, "photo link failed", "lot_id", lot.ID, "key", key, "error", err)
			url = key
		}
		links = append(links, url)
	}
	l.Photos = links
	return l
}

func (s *AuctionService) notifyAdmins(ctx context.Context, message string) {
	admins, err := s.repomanager.Users(s.db).ListAdminIDs(ctx)
	if err != nil {
		s.logger.Warn(ctx, "cannot list moderators", "error", err)
		return
	}
	s.notifier.NotifyAll(ctx, admins, message)
}

func (s *AuctionService) requireUser(ctx context.Context, db dbx.DBTX, userID string) (*models.User, error) {
	u, err := s.repomanager.Users(db).GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("unknown user %q: %w", userID, common.ErrorUnauthorized)
		}
		return nil, err
	}
	return u, nil
}

func (s *AuctionService) requireAdmin(ctx context.Context, userID string) error {
	u, err := s.requireUser(ctx, s.db, userID)
	if err != nil {
		return err
	}
	if !u.IsAdmin {
		return common.ErrorUnauthorized
	}
	return nil
}
