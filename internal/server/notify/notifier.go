// Package notify reaches users and the public auction channel.
//
// Delivery is best effort: Dispatcher runs every user notification on its
// own goroutine with a deadline and only logs failures.
package notify

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Listing is the public rendering of a lot.
type Listing struct {
	LotID  string   `json:"lot_id"`
	Text   string   `json:"text"`
	Photos []string `json:"photos,omitempty"`
}

// MultiPhoto reports whether the listing was posted as an album. Album
// captions cannot always be edited in place.
func (l Listing) MultiPhoto() bool {
	return len(l.Photos) > 1
}

// Notifier is the messaging gateway.
type Notifier interface {
	Notify(ctx context.Context, recipientID, message string) error
	// Publish posts the listing to channel and returns a reference that
	// UpdatePublished accepts.
	Publish(ctx context.Context, channel string, listing Listing) (string, error)
	UpdatePublished(ctx context.Context, ref string, listing Listing) error
}

// MessageRef formats a channel message reference.
func MessageRef(channel string, seq uint64) string {
	return channel + ":" + strconv.FormatUint(seq, 10)
}

// ParseMessageRef splits a reference produced by MessageRef.
func ParseMessageRef(ref string) (string, uint64, error) {
	i := strings.LastIndexByte(ref, ':')
	if i <= 0 {
		return "", 0, fmt.Errorf("malformed message ref %q", ref)
	}
	seq, err := strconv.ParseUint(ref[i+1:], 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("malformed message ref %q: %w", ref, err)
	}
	return ref[:i], seq, nil
}
