package attach

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"wizdraft/internal/draft"
	"wizdraft/internal/models"
)

// FieldFailure is a field whose blob could not be read for a reason other
// than being missing.
type FieldFailure struct {
	Selector models.Selector `json:"selector" yaml:"selector"`
	BlobID   string          `json:"blob_id" yaml:"blob_id"`
	Error    string          `json:"error" yaml:"error"`
}

// Report summarizes one rehydration pass.
type Report struct {
	Restored  []models.Selector `json:"restored,omitempty" yaml:"restored,omitempty"`
	Missing   []models.Selector `json:"missing,omitempty" yaml:"missing,omitempty"`
	Failed    []FieldFailure    `json:"failed,omitempty" yaml:"failed,omitempty"`
	Persisted bool              `json:"persisted" yaml:"persisted"`
	Skipped   bool              `json:"skipped,omitempty" yaml:"skipped,omitempty"`
}

// Rehydrator restores in-memory handles for stored references once per process.
type Rehydrator struct {
	drafts   *draft.Store
	resolver *Resolver
	logger   *slog.Logger

	once   sync.Once
	done   chan struct{}
	report Report
	err    error
}

// NewRehydrator returns a Rehydrator for drafts.
func NewRehydrator(drafts *draft.Store, resolver *Resolver, logger *slog.Logger) *Rehydrator {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Rehydrator{
		drafts:   drafts,
		resolver: resolver,
		logger:   logger.With("component", "rehydrate"),
		done:     make(chan struct{}),
	}
}

// Run resolves every stored, unrestored reference and merges the handle back
// as a restored alias. Fields whose blob is gone are kept and reported as
// missing. The snapshot is persisted only when a field changed. Only the first
// call does any work; later calls return its result.
func (r *Rehydrator) Run(ctx context.Context) (Report, error) {
	r.once.Do(func() {
		r.report, r.err = r.run(ctx)
		close(r.done)
	})
	<-r.done
	return r.report, r.err
}

// Skip marks rehydration finished without resolving anything.
func (r *Rehydrator) Skip(reason error) {
	r.once.Do(func() {
		r.report = Report{Skipped: true}
		if reason != nil {
			r.logger.Warn("rehydration skipped", "error", reason)
		}
		close(r.done)
	})
}

func (r *Rehydrator) run(ctx context.Context) (Report, error) {
	var report Report
	for _, field := range r.drafts.Snapshot().References() {
		stored, ok := field.Reference.Stored()
		if !ok || stored.Restored {
			continue
		}
		h, _, err := r.resolver.Resolve(ctx, models.Stored(stored))
		switch {
		case errors.Is(err, ErrUnresolvable):
			r.logger.Warn("attachment missing after reload", "field", field.Selector.String(), "blob_id", stored.BlobID)
			report.Missing = append(report.Missing, field.Selector)
		case err != nil:
			r.logger.Warn("attachment read failed", "field", field.Selector.String(), "blob_id", stored.BlobID, "error", err)
			report.Failed = append(report.Failed, FieldFailure{Selector: field.Selector, BlobID: stored.BlobID, Error: err.Error()})
		default:
			if r.drafts.RestoreReference(field.Selector, stored.BlobID, h) {
				report.Restored = append(report.Restored, field.Selector)
			}
		}
	}

	if len(report.Restored) == 0 {
		return report, nil
	}
	if err := r.drafts.Save(ctx); err != nil {
		return report, err
	}
	report.Persisted = true
	r.logger.Debug("rehydration complete", "restored", len(report.Restored), "missing", len(report.Missing), "failed", len(report.Failed))
	return report, nil
}

// Done reports whether rehydration has finished or was skipped.
func (r *Rehydrator) Done() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

// ReadFailed reports whether finished rehydration could not read blobID for
// sel for a reason other than the blob being gone. Such a field may resolve
// on a later attempt.
func (r *Rehydrator) ReadFailed(sel models.Selector, blobID string) bool {
	if !r.Done() {
		return false
	}
	for _, f := range r.report.Failed {
		if f.Selector == sel && f.BlobID == blobID {
			return true
		}
	}
	return false
}

// Wait blocks until rehydration has finished or ctx is done.
func (r *Rehydrator) Wait(ctx context.Context) error {
	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Ready reports whether the field at sel can be shown. Only a field holding a
// stored, unrestored reference waits for rehydration.
func (r *Rehydrator) Ready(sel models.Selector) bool {
	if r.Done() {
		return true
	}
	ref, ok := r.drafts.Reference(sel)
	if !ok {
		return true
	}
	stored, ok := ref.Stored()
	return !ok || stored.Restored
}
