package cli

import (
	"context"
	"fmt"
	"sort"
)

func (a *App) Pending(ctx context.Context) error {
	return a.Lots(ctx, []string{"pending"})
}

func (a *App) Approve(ctx context.Context, lotID string) error {
	ctx, cancel := a.rpcContext(ctx)
	defer cancel()
	lot, err := a.client.Approve(ctx, lotID)
	if err != nil {
		return err
	}
	if lot.ChannelMessageRef == "" {
		fmt.Fprintln(a.out, "Lot approved, but publishing to the channel failed")
		return nil
	}
	fmt.Fprintf(a.out, "Lot approved and published (%s)\n", lot.ChannelMessageRef)
	return nil
}

func (a *App) Reject(ctx context.Context, lotID, reason string) error {
	if reason == "" {
		var err error
		if reason, err = getSimpleText(a.reader, "Reason", a.out); err != nil {
			return err
		}
	}
	ctx, cancel := a.rpcContext(ctx)
	defer cancel()
	if _, err := a.client.Reject(ctx, lotID, reason); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Lot rejected")
	return nil
}

// Close ends an auction now.
func (a *App) Close(ctx context.Context, lotID string) error {
	ctx, cancel := a.rpcContext(ctx)
	defer cancel()
	out, err := a.client.CloseLot(ctx, lotID)
	if err != nil {
		return err
	}
	switch {
	case out.NoOp:
		fmt.Fprintf(a.out, "Lot was already closed (%s)\n", out.Status)
	case out.Status == "finished":
		fmt.Fprintf(a.out, "Sold to %s for %d (%+d%%)\n", out.WinnerID, out.FinalPrice, out.GainPercent)
	default:
		fmt.Fprintln(a.out, "Closed without bids")
	}
	return nil
}

func (a *App) Stats(ctx context.Context) error {
	ctx, cancel := a.rpcContext(ctx)
	defer cancel()
	st, err := a.client.Stats(ctx)
	if err != nil {
		return err
	}

	statuses := make([]string, 0, len(st.LotsByStatus))
	for s := range st.LotsByStatus {
		statuses = append(statuses, s)
	}
	sort.Strings(statuses)
	for _, s := range statuses {
		fmt.Fprintf(a.out, "%-9s %d\n", s, st.LotsByStatus[s])
	}
	fmt.Fprintf(a.out, "bids      %d\nsold      %d\n", st.Bids, st.SoldVolume)
	return nil
}
