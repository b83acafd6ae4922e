package notify

import (
	"context"
	"sync"
)

// Recorder is an in-memory Notifier used by tests across the server. Failing recipients get an
// error back and are not recorded.
type Recorder struct {
	mu        sync.Mutex
	messages  map[string][]string
	published []Listing
	edits     map[string][]Listing
	fail      map[string]error
	PublishFn func(channel string, l Listing) (string, error)
}

func NewRecorder() *Recorder {
	return &Recorder{messages: map[string][]string{}, edits: map[string][]Listing{}, fail: map[string]error{}}
}

// FailFor makes deliveries to recipientID return err.
func (r *Recorder) FailFor(recipientID string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fail[recipientID] = err
}

func (r *Recorder) Notify(_ context.Context, recipientID, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail[recipientID]; err != nil {
		return err
	}
	r.messages[recipientID] = append(r.messages[recipientID], message)
	return nil
}

func (r *Recorder) Publish(_ context.Context, channel string, l Listing) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.PublishFn != nil {
		return r.PublishFn(channel, l)
	}
	r.published = append(r.published, l)
	return MessageRef(channel, uint64(len(r.published))), nil
}

func (r *Recorder) UpdatePublished(_ context.Context, ref string, l Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.edits[ref] = append(r.edits[ref], l)
	return nil
}

// Messages returns what recipientID received, in delivery order.
func (r *Recorder) Messages(recipientID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.messages[recipientID]...)
}

// Recipients returns how many distinct users received anything.
func (r *Recorder) Recipients() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.messages)
}

func (r *Recorder) Published() []Listing {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Listing(nil), r.published...)
}

func (r *Recorder) Edits(ref string) []Listing {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Listing(nil), r.edits[ref]...)
}
