package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/lotkeeper/internal/common"
)

// Bid runs the token flow for lotID: begin, ask for an amount until the
// server accepts it in preview, confirm. Without lotID it resumes the bid
// the user already has in progress.
func (a *App) Bid(ctx context.Context, lotID string) error {
	token, minimum, err := a.startBid(ctx, lotID)
	if err != nil || token == "" {
		return err
	}

	for {
		amount, err := GetInt64(a.reader, "Your bid", minimum, a.out)
		if errors.Is(err, ErrNotANumber) {
			fmt.Fprintln(a.out, err)
			continue
		}
		if err != nil {
			return err
		}

		rctx, cancel := a.rpcContext(ctx)
		preview, err := a.client.PreviewBid(rctx, a.userID, token, amount)
		cancel()
		var tooLow *common.BidTooLowError
		if errors.As(err, &tooLow) {
			fmt.Fprintf(a.out, "The minimum bid is %d\n", tooLow.Minimum)
			minimum = tooLow.Minimum
			continue
		}
		if err != nil {
			return err
		}

		ok, err := Confirm(a.reader, fmt.Sprintf("Place a bid of %d on %s?", preview.Amount, shortID(preview.Lot.ID)), a.out)
		if err != nil {
			return err
		}
		if !ok {
			rctx, cancel := a.rpcContext(ctx)
			defer cancel()
			if err := a.client.CancelBid(rctx, a.userID, token); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Bid cancelled")
			return nil
		}

		rctx, cancel = a.rpcContext(ctx)
		defer cancel()
		res, err := a.client.ConfirmBid(rctx, a.userID, token, amount)
		if err != nil {
			if errors.As(err, &tooLow) {
				fmt.Fprintf(a.out, "Someone outbid you meanwhile. The minimum is now %d, run 'bid %s' again.\n", tooLow.Minimum, preview.Lot.ID)
				return nil
			}
			return err
		}

		fmt.Fprintf(a.out, "Bid accepted, you are leading at %d\n", res.Amount)
		if res.Started && res.Lot.EndTime != nil {
			fmt.Fprintf(a.out, "The auction has started and ends at %s\n", res.Lot.EndTime.Local().Format(time.DateTime))
		}
		return nil
	}
}

// startBid returns the token to bid with and the current minimum. An empty
// token with a nil error means there was nothing to do.
func (a *App) startBid(ctx context.Context, lotID string) (string, int64, error) {
	rctx, cancel := a.rpcContext(ctx)
	defer cancel()

	if lotID == "" {
		p, err := a.client.PendingBid(rctx, a.userID)
		if errors.Is(err, common.ErrorNotFound) {
			printlnFn("Usage: bid <id> (no bid in progress)")
			return "", 0, nil
		}
		if err != nil {
			return "", 0, err
		}
		lot, err := a.client.GetLot(rctx, p.LotID)
		if err != nil {
			return "", 0, err
		}
		printLot(a.out, lot)
		return p.Token, lot.MinimumBid, nil
	}

	t, err := a.client.BeginBid(rctx, a.userID, lotID)
	if err != nil {
		return "", 0, err
	}
	printLot(a.out, &t.Lot)
	fmt.Fprintf(a.out, "Bid before %s\n", t.ExpiresAt.Local().Format(time.TimeOnly))
	return t.Token, t.Minimum, nil
}
