package draft

import (
	"context"
	"sync"
)

// Persister stores the encoded draft snapshot as text.
// LoadSnapshot returns "" when nothing has been saved.
type Persister interface {
	LoadSnapshot(ctx context.Context) (string, error)
	SaveSnapshot(ctx context.Context, body string) error
	ClearSnapshot(ctx context.Context) error
}

// MemoryPersister keeps the snapshot in memory.
type MemoryPersister struct {
	mu    sync.RWMutex
	body  string
	saves int
}

// NewMemoryPersister returns a persister holding body.
func NewMemoryPersister(body string) *MemoryPersister {
	return &MemoryPersister{body: body}
}

func (m *MemoryPersister) LoadSnapshot(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.body, nil
}

func (m *MemoryPersister) SaveSnapshot(ctx context.Context, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.body = body
	m.saves++
	return nil
}

func (m *MemoryPersister) ClearSnapshot(ctx context.Context) error {
	return m.SaveSnapshot(ctx, "")
}

// Body returns the last saved snapshot.
func (m *MemoryPersister) Body() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.body
}

// Saves counts SaveSnapshot and ClearSnapshot calls.
func (m *MemoryPersister) Saves() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saves
}
