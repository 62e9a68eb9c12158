package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/facebookgo/clock"

	"wizdraft/internal/attach"
	"wizdraft/internal/blobstore"
	"wizdraft/internal/config"
	"wizdraft/internal/draft"
	"wizdraft/internal/store"
)

// App holds the long-lived components built at process start.
type App struct {
	Config     *config.Config
	Snapshots  *store.Store
	Blobs      blobstore.Store
	Drafts     *draft.Store
	Manager    *attach.Manager
	Rehydrator *attach.Rehydrator
	Clock      clock.Clock

	logger *slog.Logger
}

// Option adjusts how Open builds the App.
type Option func(*options)

type options struct {
	clock      clock.Clock
	blobs      blobstore.Store
	background bool
}

// WithClock injects the clock shared by every component.
func WithClock(c clock.Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}

// WithBlobStore replaces the configured blob backend.
func WithBlobStore(s blobstore.Store) Option {
	return func(o *options) {
		o.blobs = s
	}
}

// WithBackgroundRehydration returns from Open before rehydration finishes.
// Callers use Rehydrator.Wait or Rehydrator.Ready.
func WithBackgroundRehydration() Option {
	return func(o *options) {
		o.background = true
	}
}

// Open wires the snapshot persister, the blob store, the draft store and the
// attachment manager, loads the draft and rehydrates stored attachments.
// A blob store that fails to open disables attachments without failing Open.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...Option) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	o := options{clock: clock.New()}
	for _, opt := range opts {
		opt(&o)
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	snapshots, err := store.Open(cfg.SnapshotDBPath())
	if err != nil {
		return nil, err
	}

	blobs := o.blobs
	if blobs == nil {
		blobs, err = blobstore.Open(cfg.Blobs.Backend, cfg.DataDir,
			blobstore.WithClock(o.clock),
			blobstore.WithLogger(logger),
		)
		if err != nil {
			_ = snapshots.Close()
			return nil, err
		}
	}

	drafts := draft.New(snapshots,
		draft.WithMaxSnapshotBytes(cfg.Drafts.MaxSnapshotBytes),
		draft.WithClock(o.clock),
		draft.WithLogger(logger),
	)
	if err := drafts.Load(ctx); err != nil {
		if !errors.Is(err, draft.ErrCorruptSnapshot) {
			_ = blobs.Close()
			_ = snapshots.Close()
			return nil, err
		}
		logger.Warn("draft snapshot unreadable, starting empty", "error", err)
	}

	policy := attach.Policy{
		MaxBytes:          cfg.Attachments.MaxBytes,
		AllowedMediaTypes: cfg.Attachments.AllowedMediaTypes,
	}
	manager := attach.NewManager(blobs, drafts, policy,
		attach.WithManagerLogger(logger),
		attach.WithManagerClock(o.clock),
	)

	a := &App{
		Config:     cfg,
		Snapshots:  snapshots,
		Blobs:      blobs,
		Drafts:     drafts,
		Manager:    manager,
		Rehydrator: attach.NewRehydrator(drafts, manager.Resolver(), logger),
		Clock:      o.clock,
		logger:     logger.With("component", "app"),
	}

	if err := manager.Init(ctx); err != nil {
		a.Rehydrator.Skip(err)
		return a, nil
	}

	if o.background {
		go a.rehydrate(context.WithoutCancel(ctx))
		return a, nil
	}
	a.rehydrate(ctx)
	return a, nil
}

func (a *App) rehydrate(ctx context.Context) {
	report, err := a.Rehydrator.Run(ctx)
	if err != nil {
		a.logger.Warn("rehydration could not persist", "error", err)
		return
	}
	if len(report.Restored) > 0 || len(report.Missing) > 0 || len(report.Failed) > 0 {
		a.logger.Info("attachments rehydrated",
			"restored", len(report.Restored),
			"missing", len(report.Missing),
			"failed", len(report.Failed),
		)
	}
}

// Close waits for a pending rehydration and closes both stores.
func (a *App) Close() error {
	_ = a.Rehydrator.Wait(context.Background())
	return errors.Join(a.Blobs.Close(), a.Snapshots.Close())
}
