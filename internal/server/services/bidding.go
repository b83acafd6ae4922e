package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/lotkeeper/internal/common"
	"github.com/dmitrijs2005/lotkeeper/internal/logging"
	"github.com/dmitrijs2005/lotkeeper/internal/server/models"
	"github.com/dmitrijs2005/lotkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/lotkeeper/internal/server/sessions"
	"github.com/dmitrijs2005/lotkeeper/internal/timex"
)

// BidTicket is handed to a user who wants to bid. The token must be
// presented, once, to confirm the bid.
type BidTicket struct {
	Token     string
	Lot       *models.Lot
	Minimum   int64
	ExpiresAt time.Time
}

type BidPreview struct {
	Lot     *models.Lot
	Amount  int64
	Minimum int64
}

// BiddingService runs the two-step bid: preview against the current price,
// then confirm with a single-use token.
type BiddingService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	auctions    *AuctionService
	sessions    sessions.Table
	clock       timex.Clock
	logger      logging.Logger
	ttl         time.Duration
}

func NewBiddingService(db *sql.DB, m repomanager.RepositoryManager, auctions *AuctionService, table sessions.Table,
	clock timex.Clock, logger logging.Logger, ttl time.Duration) *BiddingService {
	if logger == nil {
		logger = logging.Nop()
	}
	return &BiddingService{
		db:          db,
		repomanager: m,
		auctions:    auctions,
		sessions:    table,
		clock:       clock,
		logger:      logger,
		ttl:         ttl,
	}
}

// BeginBid issues a token for userID on lotID. A token issued earlier to the
// same user is discarded.
func (s *BiddingService) BeginBid(ctx context.Context, userID, lotID string) (*BidTicket, error) {
	now := s.clock.Now()
	tokens := s.repomanager.BidTokens(s.db)

	if n, err := tokens.DeleteExpired(ctx, now); err != nil {
		s.logger.Warn(ctx, "expired token cleanup failed", "error", err)
	} else if n > 0 {
		s.logger.Debug(ctx, "expired tokens removed", "count", n)
	}

	if _, err := s.auctions.requireUser(ctx, s.db, userID); err != nil {
		return nil, err
	}
	lot, err := s.repomanager.Lots(s.db).GetByID(ctx, lotID)
	if err != nil {
		return nil, err
	}
	if err := checkBiddable(lot, userID, now); err != nil {
		return nil, err
	}

	if prev, err := s.sessions.Get(ctx, userID); err == nil {
		if _, err := tokens.Delete(ctx, prev.Token); err != nil {
			s.logger.Warn(ctx, "failed to drop previous token", "user_id", userID, "error", err)
		}
	}

	value, err := common.MakeRandHexString(common.BidTokenBytes)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	tok := &models.BidToken{
		Token:     value,
		LotID:     lot.ID,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := tokens.Create(ctx, tok); err != nil {
		return nil, err
	}
	if err := s.sessions.Put(ctx, userID, sessions.Session{LotID: lot.ID, Token: value, ExpiresAt: tok.ExpiresAt}); err != nil {
		s.logger.Warn(ctx, "failed to store bid session", "user_id", userID, "error", err)
	}

	return &BidTicket{
		Token:     value,
		Lot:       lot,
		Minimum:   MinimumBid(lot.StartPrice, lot.CurrentPrice, s.auctions.settings.Increment),
		ExpiresAt: tok.ExpiresAt,
	}, nil
}

// PreviewBid checks amount against the lot as it is now. The token stays valid.
func (s *BiddingService) PreviewBid(ctx context.Context, userID, token string, amount int64) (*BidPreview, error) {
	tok, err := s.redeemable(ctx, userID, token)
	if err != nil {
		return nil, err
	}
	lot, err := s.repomanager.Lots(s.db).GetByID(ctx, tok.LotID)
	if err != nil {
		return nil, err
	}
	if err := checkBiddable(lot, userID, s.clock.Now()); err != nil {
		return nil, err
	}
	minimum := MinimumBid(lot.StartPrice, lot.CurrentPrice, s.auctions.settings.Increment)
	if err := ValidateBid(amount, lot.StartPrice, lot.CurrentPrice, s.auctions.settings.Increment); err != nil {
		return nil, err
	}
	return &BidPreview{Lot: lot, Amount: amount, Minimum: minimum}, nil
}

// ConfirmBid consumes the token and places the bid. The lot is validated
// again at commit time; a preview that passed earlier guarantees nothing.
func (s *BiddingService) ConfirmBid(ctx context.Context, userID, token string, amount int64) (*BidResult, error) {
	tok, err := s.redeemable(ctx, userID, token)
	if err != nil {
		return nil, err
	}

	removed, err := s.repomanager.BidTokens(s.db).Delete(ctx, token)
	if err != nil {
		return nil, err
	}
	if !removed {
		return nil, common.ErrorNotFound
	}
	defer s.clearSession(ctx, userID, token)

	return s.auctions.PlaceBid(ctx, tok.LotID, userID, amount)
}

func (s *BiddingService) CancelBid(ctx context.Context, userID, token string) error {
	tokens := s.repomanager.BidTokens(s.db)
	tok, err := tokens.Find(ctx, token)
	if err != nil {
		return err
	}
	if tok.UserID != userID {
		return common.ErrTokenMismatch
	}
	if _, err := tokens.Delete(ctx, token); err != nil {
		return err
	}
	s.clearSession(ctx, userID, token)
	return nil
}

// PendingBid returns the bid userID has started but not yet confirmed.
func (s *BiddingService) PendingBid(ctx context.Context, userID string) (*sessions.Session, error) {
	return s.sessions.Get(ctx, userID)
}

// redeemable loads token and checks it belongs to userID and is still live.
// An expired token is deleted on the way out.
func (s *BiddingService) redeemable(ctx context.Context, userID, token string) (*models.BidToken, error) {
	tokens := s.repomanager.BidTokens(s.db)
	tok, err := tokens.Find(ctx, token)
	if err != nil {
		return nil, err
	}
	if tok.UserID != userID {
		return nil, common.ErrTokenMismatch
	}
	if tok.Expired(s.clock.Now()) {
		if _, err := tokens.Delete(ctx, token); err != nil {
			s.logger.Warn(ctx, "failed to delete expired token", "error", err)
		}
		s.clearSession(ctx, userID, token)
		return nil, common.ErrTokenExpired
	}
	return tok, nil
}

func (s *BiddingService) clearSession(ctx context.Context, userID, token string) {
	cur, err := s.sessions.Get(ctx, userID)
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			s.logger.Warn(ctx, "bid session lookup failed", "user_id", userID, "error", err)
		}
		return
	}
	if cur.Token != token {
		return
	}
	if err := s.sessions.Delete(ctx, userID); err != nil {
		s.logger.Warn(ctx, "failed to clear bid session", "user_id", userID, "error", err)
	}
}
