package blobstore

import (
	"bytes"
	"context"
	"sync"
	"time"

	"wizdraft/internal/models"
)

// Memory is a map-backed Store. Records do not survive the process.
type Memory struct {
	opts options
	gate initGate

	mu      sync.RWMutex
	records map[string]models.BlobRecord
}

// NewMemory returns an empty in-memory store.
func NewMemory(opts ...Option) *Memory {
	return &Memory{opts: buildOptions(opts), records: map[string]models.BlobRecord{}}
}

// Init marks the store ready.
func (m *Memory) Init(ctx context.Context) error {
	return m.gate.do(ctx, func() error { return nil })
}

// Put stores a copy of data under id, generating one when id is empty.
func (m *Memory) Put(ctx context.Context, data []byte, meta models.BlobMetadata, id string) (string, error) {
	if err := m.Init(ctx); err != nil {
		return "", err
	}
	now := m.opts.clock.Now()
	id, err := resolveID(id, now)
	if err != nil {
		return "", &OpError{Op: OpWrite, ID: id, Err: err}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[id]; ok {
		return "", &OpError{Op: OpWrite, ID: id, Err: ErrExists}
	}
	m.records[id] = models.BlobRecord{
		BlobInfo: newInfo(id, data, meta, now),
		Payload:  bytes.Clone(data),
	}
	return id, nil
}

// Get returns a copy of the payload stored under id.
func (m *Memory) Get(ctx context.Context, id string) ([]byte, error) {
	if err := m.Init(ctx); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[id]
	if !ok {
		return nil, notFound(id)
	}
	return bytes.Clone(rec.Payload), nil
}

// Remove deletes the record for id.
func (m *Memory) Remove(ctx context.Context, id string) error {
	if err := m.Init(ctx); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, id)
	return nil
}

// List returns metadata for every record, oldest first.
func (m *Memory) List(ctx context.Context) ([]models.BlobInfo, error) {
	if err := m.Init(ctx); err != nil {
		return nil, err
	}
	m.mu.RLock()
	infos := make([]models.BlobInfo, 0, len(m.records))
	for _, rec := range m.records {
		infos = append(infos, rec.BlobInfo)
	}
	m.mu.RUnlock()
	sortInfos(infos)
	return infos, nil
}

// SweepOlderThan removes records stored more than maxAge ago.
func (m *Memory) SweepOlderThan(ctx context.Context, maxAge time.Duration) (int, error) {
	return sweep(ctx, m, m.opts.clock.Now(), maxAge)
}

// Close drops every record.
func (m *Memory) Close() error {
	m.gate.close()
	m.mu.Lock()
	m.records = map[string]models.BlobRecord{}
	m.mu.Unlock()
	return nil
}
