package attach

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"

	"github.com/facebookgo/clock"

	"wizdraft/internal/blobstore"
	"wizdraft/internal/draft"
	"wizdraft/internal/models"
)

const defaultMaterializeConcurrency = 4

// Manager owns the attachment lifecycle: it keeps the blob store and the
// draft's references consistent through add, remove and reset.
type Manager struct {
	store    blobstore.Store
	drafts   *draft.Store
	resolver *Resolver
	policy   compiledPolicy
	clock    clock.Clock
	logger   *slog.Logger

	materializeConcurrency int

	locks keyedMutex

	mu          sync.Mutex
	disabledErr error
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithManagerLogger sets the manager logger.
func WithManagerLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithManagerClock sets the clock used by Sweep.
func WithManagerClock(c clock.Clock) ManagerOption {
	return func(m *Manager) {
		if c != nil {
			m.clock = c
		}
	}
}

// WithMaterializeConcurrency bounds parallel blob reads in Materialize.
func WithMaterializeConcurrency(n int) ManagerOption {
	return func(m *Manager) {
		if n > 0 {
			m.materializeConcurrency = n
		}
	}
}

// NewManager builds a Manager over store and drafts.
func NewManager(store blobstore.Store, drafts *draft.Store, policy Policy, opts ...ManagerOption) *Manager {
	m := &Manager{
		store:                  store,
		drafts:                 drafts,
		resolver:               NewResolver(store),
		policy:                 compilePolicy(policy),
		clock:                  clock.New(),
		logger:                 slog.New(slog.NewTextHandler(io.Discard, nil)),
		materializeConcurrency: defaultMaterializeConcurrency,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With("component", "attachments")
	return m
}

// Resolver returns the resolver backing the manager.
func (m *Manager) Resolver() *Resolver {
	return m.resolver
}

// Policy returns the effective size limit and allow-list.
func (m *Manager) Policy() Policy {
	out := Policy{MaxBytes: m.policy.maxBytes}
	for mediaType := range m.policy.allowed {
		out.AllowedMediaTypes = append(out.AllowedMediaTypes, mediaType)
	}
	sort.Strings(out.AllowedMediaTypes)
	return out
}

// Init opens the blob store. A failure disables attachments for the rest of
// the session and is logged once.
func (m *Manager) Init(ctx context.Context) error {
	return m.available(ctx)
}

// Enabled reports whether attachment operations are available.
func (m *Manager) Enabled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.disabledErr == nil
}

// DisabledReason returns the error that disabled attachments, if any.
func (m *Manager) DisabledReason() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.disabledErr
}

func (m *Manager) available(ctx context.Context) error {
	m.mu.Lock()
	disabled := m.disabledErr
	m.mu.Unlock()
	if disabled != nil {
		return disabled
	}

	err := m.store.Init(ctx)
	if err == nil {
		return nil
	}
	if !errors.Is(err, blobstore.ErrUnavailable) {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.disabledErr == nil {
		m.disabledErr = fmt.Errorf("%w: %v", ErrAttachmentsDisabled, err)
		m.logger.Error("blob store unavailable, attachments disabled", "error", err)
	}
	return m.disabledErr
}

// AddAttachment validates c, stores it and points sel at the new blob. When
// sel already held a blob, the old blob is removed only after the new one is
// stored and the snapshot persisted.
func (m *Manager) AddAttachment(ctx context.Context, sel models.Selector, c Candidate) (models.StoredRef, error) {
	var zero models.StoredRef
	if err := sel.Validate(); err != nil {
		return zero, fmt.Errorf("%w: %v", ErrInvalidSelector, err)
	}
	mediaType, err := m.policy.validate(c)
	if err != nil {
		return zero, err
	}
	if err := m.available(ctx); err != nil {
		return zero, err
	}

	unlock := m.locks.Lock(sel.String())
	defer unlock()

	gen := m.drafts.Generation()
	old, _ := m.drafts.Reference(sel)

	meta := models.BlobMetadata{OriginalName: c.Name, Size: uint64(len(c.Data)), MimeType: mediaType}
	id, err := m.store.Put(ctx, c.Data, meta, "")
	if err != nil {
		return zero, fmt.Errorf("store %s: %w", sel, err)
	}

	stored := models.StoredRef{BlobID: id, OriginalName: c.Name, Size: meta.Size, MimeType: mediaType}
	handle := models.Handle{Name: c.Name, MimeType: mediaType, Data: c.Data}
	if err := m.drafts.SetReferenceIf(gen, sel, models.Stored(stored).WithAlias(handle)); err != nil {
		m.discard(ctx, id, "draft reset during add")
		if errors.Is(err, draft.ErrStaleGeneration) {
			return zero, ErrDraftReset
		}
		return zero, err
	}

	if err := m.drafts.Save(ctx); err != nil {
		m.rollbackAdd(ctx, gen, sel, old, id)
		return zero, fmt.Errorf("persist draft: %w", err)
	}

	if oldID := old.BlobID(); oldID != "" && oldID != id {
		m.discard(ctx, oldID, "replaced")
	}
	m.logger.Debug("attachment added", "field", sel.String(), "blob_id", id, "size", meta.Size)
	return stored, nil
}

// rollbackAdd puts old back at sel after the snapshot save for a new blob
// failed. A save on another field may already have written the new
// reference to disk, so the new blob is removed only once the restored state
// is persisted; otherwise it is left for the sweep.
func (m *Manager) rollbackAdd(ctx context.Context, gen uint64, sel models.Selector, old models.Reference, id string) {
	if err := m.drafts.SetReferenceIf(gen, sel, old); err != nil && !errors.Is(err, draft.ErrStaleGeneration) {
		m.logger.Warn("rollback failed", "field", sel.String(), "error", err)
		return
	}
	if err := m.drafts.Save(ctx); err != nil {
		m.logger.Warn("snapshot still failing, leaving blob for sweep", "field", sel.String(), "blob_id", id, "error", err)
		return
	}
	m.discard(ctx, id, "snapshot persist failed")
}

// RemoveAttachment clears the field at sel and then deletes its blob.
// Removing an empty field is a no-op. The blob is deleted only after the
// cleared field is persisted; a failed delete is logged and left for the
// sweep.
func (m *Manager) RemoveAttachment(ctx context.Context, sel models.Selector) error {
	if err := sel.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSelector, err)
	}

	unlock := m.locks.Lock(sel.String())
	defer unlock()

	gen := m.drafts.Generation()
	ref, ok := m.drafts.Reference(sel)
	if !ok {
		return nil
	}
	id := ref.BlobID()
	if id != "" {
		if err := m.available(ctx); err != nil {
			return err
		}
	}

	if err := m.drafts.ClearReferenceIf(gen, sel); err != nil {
		if errors.Is(err, draft.ErrStaleGeneration) {
			return nil
		}
		return err
	}
	if err := m.drafts.Save(ctx); err != nil {
		if rollbackErr := m.drafts.SetReferenceIf(gen, sel, ref); rollbackErr != nil && !errors.Is(rollbackErr, draft.ErrStaleGeneration) {
			m.logger.Warn("rollback failed", "field", sel.String(), "error", rollbackErr)
		}
		return fmt.Errorf("persist draft: %w", err)
	}

	if id != "" {
		m.discard(ctx, id, "removed")
	}
	m.logger.Debug("attachment removed", "field", sel.String(), "blob_id", id)
	return nil
}

// ResetResult reports what a reset cleaned up.
type ResetResult struct {
	Referenced int      `json:"referenced" yaml:"referenced"`
	Removed    int      `json:"removed" yaml:"removed"`
	Failed     []string `json:"failed,omitempty" yaml:"failed,omitempty"`
}

// ResetDraft clears the draft, persists the empty draft and then removes
// every blob the old draft referenced. Blob removal is best effort: failures
// are retried once, then logged and left for the age sweep. When the empty
// draft cannot be persisted no blob is removed, since the snapshot on disk
// still points at them.
func (m *Manager) ResetDraft(ctx context.Context) (ResetResult, error) {
	prev, _ := m.drafts.BeginReset()

	ids := make([]string, 0)
	for id := range prev.BlobIDs() {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	result := ResetResult{Referenced: len(ids)}

	if err := m.drafts.Save(ctx); err != nil {
		result.Failed = ids
		return result, fmt.Errorf("persist draft: %w", err)
	}

	if len(ids) > 0 {
		if err := m.available(ctx); err != nil {
			result.Failed = ids
			m.logger.Warn("reset left blobs behind", "count", len(ids), "error", err)
		} else {
			result.Removed, result.Failed = m.removeAll(ctx, ids)
		}
	}
	m.logger.Info("draft reset", "removed", result.Removed, "failed", len(result.Failed))
	return result, nil
}

func (m *Manager) removeAll(ctx context.Context, ids []string) (int, []string) {
	removed := 0
	var retry []string
	for _, id := range ids {
		if err := m.store.Remove(ctx, id); err != nil {
			retry = append(retry, id)
			continue
		}
		removed++
	}
	var failed []string
	for _, id := range retry {
		if err := m.store.Remove(ctx, id); err != nil {
			m.logger.Warn("blob removal failed, leaving for sweep", "blob_id", id, "error", err)
			failed = append(failed, id)
			continue
		}
		removed++
	}
	return removed, failed
}

// discard removes a blob that is no longer referenced. Failures are logged;
// the age sweep collects what is left.
func (m *Manager) discard(ctx context.Context, id, reason string) {
	if err := m.store.Remove(ctx, id); err != nil {
		m.logger.Warn("blob removal failed, leaving for sweep", "blob_id", id, "reason", reason, "error", err)
	}
}

// Open resolves the attachment at sel and caches a fetched handle as a
// restored alias.
func (m *Manager) Open(ctx context.Context, sel models.Selector) (models.Handle, error) {
	if err := sel.Validate(); err != nil {
		return models.Handle{}, fmt.Errorf("%w: %v", ErrInvalidSelector, err)
	}
	ref, ok := m.drafts.Reference(sel)
	if !ok {
		return models.Handle{}, fmt.Errorf("%w: %s is empty", ErrUnresolvable, sel)
	}
	if _, inMemory := ref.Handle(); !inMemory {
		if err := m.available(ctx); err != nil {
			return models.Handle{}, err
		}
	}
	h, fetched, err := m.resolver.Resolve(ctx, ref)
	if err != nil {
		return models.Handle{}, err
	}
	if fetched {
		m.drafts.RestoreReference(sel, ref.BlobID(), h)
	}
	return h, nil
}
