package notify

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/lotkeeper/internal/logging"
)

// Dispatcher fans messages out to a Notifier without letting a slow or
// failing recipient hold up the caller.
type Dispatcher struct {
	notifier Notifier
	timeout  time.Duration
	logger   logging.Logger
	wg       sync.WaitGroup
}

func NewDispatcher(n Notifier, timeout time.Duration, logger logging.Logger) *Dispatcher {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Dispatcher{notifier: n, timeout: timeout, logger: logger}
}

// Notify delivers message to recipientID in the background.
func (d *Dispatcher) Notify(ctx context.Context, recipientID, message string) {
	if recipientID == "" {
		return
	}
	d.goBounded(ctx, func(ctx context.Context) {
		if err := d.notifier.Notify(ctx, recipientID, message); err != nil {
			d.logger.Warn(ctx, "notification failed", "recipient", recipientID, "error", err)
		}
	})
}

// NotifyAll delivers message to every recipient, one goroutine each.
func (d *Dispatcher) NotifyAll(ctx context.Context, recipients []string, message string) {
	for _, r := range recipients {
		d.Notify(ctx, r, message)
	}
}

// Publish posts synchronously but gives up after the dispatcher timeout.
func (d *Dispatcher) Publish(ctx context.Context, channel string, l Listing) (string, error) {
	ctx, cancel := d.bound(ctx)
	defer cancel()
	return d.notifier.Publish(ctx, channel, l)
}

// UpdatePublished edits a channel post in the background.
func (d *Dispatcher) UpdatePublished(ctx context.Context, ref string, l Listing) {
	if ref == "" {
		return
	}
	d.goBounded(ctx, func(ctx context.Context) {
		if err := d.notifier.UpdatePublished(ctx, ref, l); err != nil {
			d.logger.Warn(ctx, "listing update failed", "ref", ref, "lot_id", l.LotID, "error", err)
		}
	})
}

// Wait blocks until every background delivery has returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// goBounded detaches from the caller's cancellation so a finished request
// does not abort its notifications.
func (d *Dispatcher) goBounded(ctx context.Context, f func(context.Context)) {
	ctx = context.WithoutCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := d.bound(ctx)
		defer cancel()
		f(ctx)
	}()
}

func (d *Dispatcher) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if d.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d.timeout)
}
