package notify

import (
	"context"
	"sync/atomic"

	"github.com/dmitrijs2005/lotkeeper/internal/logging"
)

// LogNotifier writes every message to the log. It stands in for the
// gateway in development.
type LogNotifier struct {
	logger logging.Logger
	seq    atomic.Uint64
}

func NewLogNotifier(logger logging.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(ctx context.Context, recipientID, message string) error {
	n.logger.Info(ctx, "notify", "recipient", recipientID, "message", message)
	return nil
}

func (n *LogNotifier) Publish(ctx context.Context, channel string, listing Listing) (string, error) {
	ref := MessageRef(channel, n.seq.Add(1))
	n.logger.Info(ctx, "publish", "ref", ref, "lot_id", listing.LotID, "text", listing.Text, "photos", len(listing.Photos))
	return ref, nil
}

func (n *LogNotifier) UpdatePublished(ctx context.Context, ref string, listing Listing) error {
	n.logger.Info(ctx, "update published", "ref", ref, "lot_id", listing.LotID, "text", listing.Text)
	return nil
}
