package draft

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/facebookgo/clock"

	"wizdraft/internal/models"
)

// DefaultMaxSnapshotBytes bounds the encoded snapshot.
const DefaultMaxSnapshotBytes = 256 << 10

// Store holds the single in-progress draft. Reads and setters are synchronous
// and in memory; Load and Save move the snapshot through the Persister.
type Store struct {
	persister        Persister
	maxSnapshotBytes int
	clock            clock.Clock
	logger           *slog.Logger

	mu         sync.RWMutex
	record     models.DraftRecord
	generation uint64

	saveMu sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithMaxSnapshotBytes overrides DefaultMaxSnapshotBytes. Non-positive values are ignored.
func WithMaxSnapshotBytes(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxSnapshotBytes = n
		}
	}
}

// WithClock sets the clock used for UpdatedAt stamps.
func WithClock(c clock.Clock) Option {
	return func(s *Store) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithLogger sets the store logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New returns a Store holding the empty draft.
func New(p Persister, opts ...Option) *Store {
	s := &Store{
		persister:        p,
		maxSnapshotBytes: DefaultMaxSnapshotBytes,
		clock:            clock.New(),
		logger:           slog.New(slog.NewTextHandler(io.Discard, nil)),
		record:           models.NewDraftRecord(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "draft")
	return s
}

// Load replaces the in-memory draft with the persisted snapshot. On a corrupt
// snapshot the draft is left empty and ErrCorruptSnapshot is returned.
func (s *Store) Load(ctx context.Context) error {
	body, err := s.persister.LoadSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("load draft snapshot: %w", err)
	}
	rec, decodeErr := Decode(body)

	s.mu.Lock()
	s.record = rec
	s.mu.Unlock()

	if decodeErr != nil {
		return decodeErr
	}
	s.logger.Debug("draft loaded", "bytes", len(body), "attachments", len(rec.References()))
	return nil
}

// Save persists the current draft. Concurrent saves are serialized and each
// writes the state current at the time it runs.
func (s *Store) Save(ctx context.Context) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	body, err := Encode(s.Snapshot())
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}
	if len(body) > s.maxSnapshotBytes {
		return fmt.Errorf("%w: %d bytes exceeds %d", ErrSnapshotTooLarge, len(body), s.maxSnapshotBytes)
	}
	if err := s.persister.SaveSnapshot(ctx, body); err != nil {
		return fmt.Errorf("save draft snapshot: %w", err)
	}
	return nil
}

// Snapshot returns a deep copy of the current draft.
func (s *Store) Snapshot() models.DraftRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.record.Clone()
}

// Generation returns the current reset generation.
func (s *Store) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// SetStep records the wizard step.
func (s *Store) SetStep(step int) error {
	return s.Apply(Patch{Step: &step})
}

// SetStudent replaces the student fields.
func (s *Store) SetStudent(student models.StudentFields) error {
	return s.Apply(Patch{Student: &student})
}

// SetTutors replaces the tutor list.
func (s *Store) SetTutors(tutors []models.Tutor) error {
	return s.Apply(Patch{Tutors: &tutors})
}

// AddTutor appends one tutor.
func (s *Store) AddTutor(tutor models.Tutor) error {
	s.mu.RLock()
	tutors := append(append([]models.Tutor(nil), s.record.Tutors...), tutor)
	s.mu.RUnlock()
	return s.SetTutors(tutors)
}

// SetPricing replaces the pricing selection.
func (s *Store) SetPricing(pricing models.PricingSelection) error {
	return s.Apply(Patch{Pricing: &pricing})
}

// SetPayments replaces the payment allocations.
func (s *Store) SetPayments(payments []models.PaymentAllocation) error {
	return s.Apply(Patch{Payments: &payments})
}

// Reference returns the binary field addressed by sel.
func (s *Store) Reference(sel models.Selector) (models.Reference, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.record.Reference(sel)
}

// SetReference writes ref at sel regardless of generation.
func (s *Store) SetReference(sel models.Selector, ref models.Reference) error {
	if err := sel.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setReferenceLocked(sel, ref)
	return nil
}

// ClearReference empties the field at sel.
func (s *Store) ClearReference(sel models.Selector) error {
	return s.SetReference(sel, models.Reference{})
}

// SetReferenceIf writes ref at sel only if no reset happened since gen was read.
func (s *Store) SetReferenceIf(gen uint64, sel models.Selector, ref models.Reference) error {
	if err := sel.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen {
		return ErrStaleGeneration
	}
	s.setReferenceLocked(sel, ref)
	return nil
}

// ClearReferenceIf empties the field at sel only if no reset happened since gen was read.
func (s *Store) ClearReferenceIf(gen uint64, sel models.Selector) error {
	return s.SetReferenceIf(gen, sel, models.Reference{})
}

// RestoreReference merges h into the field at sel as a restored alias, provided
// the field still holds an unrestored stored reference to blobID.
func (s *Store) RestoreReference(sel models.Selector, blobID string, h models.Handle) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	ref, ok := s.record.Reference(sel)
	if !ok {
		return false
	}
	stored, ok := ref.Stored()
	if !ok || stored.BlobID != blobID || stored.Restored {
		return false
	}
	s.record.SetReference(sel, ref.Restore(h))
	return true
}

// BeginReset clears the draft and bumps the generation in one step, so that
// conditional writes issued earlier are refused and writes issued afterwards
// land in the new, empty draft. It returns the draft as it was.
func (s *Store) BeginReset() (models.DraftRecord, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.record
	s.record = models.NewDraftRecord()
	s.generation++
	return prev, s.generation
}

func (s *Store) setReferenceLocked(sel models.Selector, ref models.Reference) {
	s.record.SetReference(sel, ref)
	s.record.UpdatedAt = s.clock.Now().UTC()
}
