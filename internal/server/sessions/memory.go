package sessions

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/lotkeeper/internal/common"
	"github.com/dmitrijs2005/lotkeeper/internal/timex"
)

// MemoryTable is a Table for single-process deployments. Expired entries
// are dropped when read and whenever a new entry is stored.
type MemoryTable struct {
	mu    sync.Mutex
	clock timex.Clock
	rows  map[string]Session
}

func NewMemoryTable(clock timex.Clock) *MemoryTable {
	return &MemoryTable{clock: clock, rows: map[string]Session{}}
}

func (t *MemoryTable) Put(_ context.Context, userID string, s Session) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.clock.Now()
	for id, row := range t.rows {
		if !now.Before(row.ExpiresAt) {
			delete(t.rows, id)
		}
	}
	t.rows[userID] = s
	return nil
}

func (t *MemoryTable) Get(_ context.Context, userID string) (*Session, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	row, ok := t.rows[userID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	if !t.clock.Now().Before(row.ExpiresAt) {
		delete(t.rows, userID)
		return nil, common.ErrorNotFound
	}
	return &row, nil
}

func (t *MemoryTable) Delete(_ context.Context, userID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.rows, userID)
	return nil
}

// Len reports how many entries are held, expired or not.
func (t *MemoryTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.rows)
}
