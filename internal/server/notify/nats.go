package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

const (
	// ChannelStream keeps channel posts so a bridge can replay them.
	ChannelStream = "AUCTION_CHANNEL"

	subjectPrefix = "lotkeeper"
)

// UserSubject is where direct messages for userID are published.
func UserSubject(userID string) string {
	return subjectPrefix + ".notify." + userID
}

func channelSubject(channel, action string) string {
	return subjectPrefix + ".channel." + channel + "." + action
}

// corePublisher is the part of *nats.Conn used for direct messages.
type corePublisher interface {
	Publish(subj string, data []byte) error
}

type userMessage struct {
	RecipientID string    `json:"recipient_id"`
	Text        string    `json:"text"`
	SentAt      time.Time `json:"sent_at"`
}

type channelPost struct {
	Ref        string   `json:"ref,omitempty"`
	LotID      string   `json:"lot_id"`
	Text       string   `json:"text"`
	Photos     []string `json:"photos,omitempty"`
	MultiPhoto bool     `json:"multi_photo"`
}

// NATSNotifier hands messages to the platform bridge over NATS. Direct
// messages use core NATS; channel posts go through JetStream so the stream
// sequence can serve as the message reference.
type NATSNotifier struct {
	conn *nats.Conn
	core corePublisher
	js   jetstream.JetStream
	now  func() time.Time
}

// NewNATSNotifier connects to url and makes sure the channel stream exists.
func NewNATSNotifier(ctx context.Context, url string) (*NATSNotifier, error) {
	conn, err := nats.Connect(url, nats.Name("lotkeeper"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:        ChannelStream,
		Description: "auction channel posts and edits",
		Subjects:    []string{subjectPrefix + ".channel.>"},
		Storage:     jetstream.FileStorage,
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      30 * 24 * time.Hour,
		Duplicates:  time.Hour,
	})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create stream %s: %w", ChannelStream, err)
	}

	n := newNATSNotifier(conn, js)
	n.conn = conn
	return n, nil
}

func newNATSNotifier(core corePublisher, js jetstream.JetStream) *NATSNotifier {
	return &NATSNotifier{core: core, js: js, now: time.Now}
}

func (n *NATSNotifier) Notify(ctx context.Context, recipientID, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(userMessage{RecipientID: recipientID, Text: message, SentAt: n.now().UTC()})
	if err != nil {
		return err
	}
	if err := n.core.Publish(UserSubject(recipientID), data); err != nil {
		return fmt.Errorf("publish to %s: %w", recipientID, err)
	}
	return nil
}

// Publish posts the listing once per lot; a repeated call within the stream's
// duplicate window is acknowledged with the original sequence.
func (n *NATSNotifier) Publish(ctx context.Context, channel string, l Listing) (string, error) {
	data, err := json.Marshal(channelPost{LotID: l.LotID, Text: l.Text, Photos: l.Photos, MultiPhoto: l.MultiPhoto()})
	if err != nil {
		return "", err
	}
	ack, err := n.js.Publish(ctx, channelSubject(channel, "publish"), data, jetstream.WithMsgID("publish-"+l.LotID))
	if err != nil {
		return "", fmt.Errorf("publish lot %s: %w", l.LotID, err)
	}
	return MessageRef(channel, ack.Sequence), nil
}

func (n *NATSNotifier) UpdatePublished(ctx context.Context, ref string, l Listing) error {
	channel, _, err := ParseMessageRef(ref)
	if err != nil {
		return err
	}
	data, err := json.Marshal(channelPost{Ref: ref, LotID: l.LotID, Text: l.Text, Photos: l.Photos, MultiPhoto: l.MultiPhoto()})
	if err != nil {
		return err
	}
	if _, err := n.js.Publish(ctx, channelSubject(channel, "edit"), data); err != nil {
		return fmt.Errorf("edit %s: %w", ref, err)
	}
	return nil
}

// Close flushes pending messages and closes the connection.
func (n *NATSNotifier) Close() error {
	if n.conn == nil {
		return nil
	}
	return n.conn.Drain()
}
