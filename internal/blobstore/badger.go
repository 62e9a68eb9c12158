package blobstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v3"

	"wizdraft/internal/models"
)

const (
	badgerMetaPrefix = "meta:"
	badgerDataPrefix = "data:"
)

// Badger stores blobs in an embedded badger key-value database.
type Badger struct {
	dir  string
	opts options
	gate initGate

	mu sync.RWMutex
	db *badger.DB
}

// NewBadger returns a Badger store rooted at dir. The database is opened on first use.
func NewBadger(dir string, opts ...Option) *Badger {
	return &Badger{dir: strings.TrimSpace(dir), opts: buildOptions(opts)}
}

// Init opens the database once.
func (b *Badger) Init(ctx context.Context) error {
	return b.gate.do(ctx, func() error {
		if b.dir == "" {
			return fmt.Errorf("badger directory is required")
		}
		bopts := badger.DefaultOptions(b.dir).
			WithSyncWrites(true).
			WithLogger(badgerLogger{logger: b.opts.logger})
		db, err := badger.Open(bopts)
		if err != nil {
			return err
		}
		b.mu.Lock()
		b.db = db
		b.mu.Unlock()
		b.opts.logger.Debug("blob store opened", "backend", BackendBadger, "dir", b.dir)
		return nil
	})
}

func (b *Badger) handle(ctx context.Context) (*badger.DB, error) {
	if err := b.Init(ctx); err != nil {
		return nil, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.db == nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, ErrClosed)
	}
	return b.db, nil
}

// Put stores data under id, generating one when id is empty.
func (b *Badger) Put(ctx context.Context, data []byte, meta models.BlobMetadata, id string) (string, error) {
	db, err := b.handle(ctx)
	if err != nil {
		return "", err
	}
	now := b.opts.clock.Now()
	id, err = resolveID(id, now)
	if err != nil {
		return "", &OpError{Op: OpWrite, ID: id, Err: err}
	}
	info := newInfo(id, data, meta, now)
	encoded, err := encodeInfo(info)
	if err != nil {
		return "", &OpError{Op: OpWrite, ID: id, Err: err}
	}

	err = db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(metaKey(id)); err == nil {
			return ErrExists
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if err := txn.Set(dataKey(id), data); err != nil {
			return err
		}
		return txn.Set(metaKey(id), encoded)
	})
	if err != nil {
		return "", &OpError{Op: OpWrite, ID: id, Err: err}
	}
	return id, nil
}

// Get returns the payload stored under id.
func (b *Badger) Get(ctx context.Context, id string) ([]byte, error) {
	db, err := b.handle(ctx)
	if err != nil {
		return nil, err
	}

	var info models.BlobInfo
	var payload []byte
	err = db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(metaKey(id))
		if err != nil {
			return err
		}
		if err := item.Value(func(val []byte) error {
			decoded, err := decodeInfo(val)
			info = decoded
			return err
		}); err != nil {
			return err
		}
		item, err = txn.Get(dataKey(id))
		if err != nil {
			return err
		}
		payload, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, &OpError{Op: OpRead, ID: id, Err: err}
	}
	if err := verify(info, payload); err != nil {
		return nil, &OpError{Op: OpRead, ID: id, Err: err}
	}
	return payload, nil
}

// Remove deletes the record for id. Missing records are ignored.
func (b *Badger) Remove(ctx context.Context, id string) error {
	db, err := b.handle(ctx)
	if err != nil {
		return err
	}
	err = db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete(metaKey(id)); err != nil {
			return err
		}
		return txn.Delete(dataKey(id))
	})
	if err != nil {
		return &OpError{Op: OpRemove, ID: id, Err: err}
	}
	return nil
}

// List returns metadata for every stored record, oldest first.
func (b *Badger) List(ctx context.Context) ([]models.BlobInfo, error) {
	db, err := b.handle(ctx)
	if err != nil {
		return nil, err
	}

	var infos []models.BlobInfo
	prefix := []byte(badgerMetaPrefix)
	err = db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				info, err := decodeInfo(val)
				if err != nil {
					return err
				}
				infos = append(infos, info)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, &OpError{Op: OpRead, Err: err}
	}
	sortInfos(infos)
	return infos, nil
}

// SweepOlderThan removes records stored more than maxAge ago.
func (b *Badger) SweepOlderThan(ctx context.Context, maxAge time.Duration) (int, error) {
	return sweep(ctx, b, b.opts.clock.Now(), maxAge)
}

// Close closes the database. The store cannot be reopened.
func (b *Badger) Close() error {
	if !b.gate.close() {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.db == nil {
		return nil
	}
	err := b.db.Close()
	b.db = nil
	return err
}

func metaKey(id string) []byte {
	return []byte(badgerMetaPrefix + id)
}

func dataKey(id string) []byte {
	return []byte(badgerDataPrefix + id)
}

func sortInfos(infos []models.BlobInfo) {
	sort.Slice(infos, func(i, j int) bool {
		if !infos[i].StoredAt.Equal(infos[j].StoredAt) {
			return infos[i].StoredAt.Before(infos[j].StoredAt)
		}
		return infos[i].ID < infos[j].ID
	})
}

// sweep removes every record of s stored before now-maxAge.
func sweep(ctx context.Context, s Store, now time.Time, maxAge time.Duration) (int, error) {
	if maxAge < 0 {
		return 0, fmt.Errorf("max age must not be negative")
	}
	infos, err := s.List(ctx)
	if err != nil {
		return 0, err
	}
	cutoff := now.Add(-maxAge)
	removed := 0
	for _, info := range infos {
		if !info.StoredAt.Before(cutoff) {
			continue
		}
		if err := s.Remove(ctx, info.ID); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

// badgerLogger routes badger's internal logging through slog.
type badgerLogger struct {
	logger *slog.Logger
}

func (l badgerLogger) Errorf(format string, args ...any) {
	l.logger.Error(strings.TrimSpace(fmt.Sprintf(format, args...)), "component", "badger")
}

func (l badgerLogger) Warningf(format string, args ...any) {
	l.logger.Warn(strings.TrimSpace(fmt.Sprintf(format, args...)), "component", "badger")
}

func (l badgerLogger) Infof(format string, args ...any) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)), "component", "badger")
}

func (l badgerLogger) Debugf(format string, args ...any) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)), "component", "badger")
}
