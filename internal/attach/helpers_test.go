package attach

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/facebookgo/clock"

	"wizdraft/internal/blobstore"
	"wizdraft/internal/draft"
	"wizdraft/internal/models"
)

var errInjected = errors.New("injected failure")

// faultStore wraps the memory store with switchable failures.
type faultStore struct {
	*blobstore.Memory

	mu             sync.Mutex
	initErr        error
	putErr         error
	getErr         error
	getCalls       int
	removeFailures map[string]int
	putStarted     chan struct{}
	putRelease     chan struct{}
	removeStarted  chan struct{}
	removeRelease  chan struct{}
}

func newFaultStore(c clock.Clock) *faultStore {
	return &faultStore{
		Memory:         blobstore.NewMemory(blobstore.WithClock(c)),
		removeFailures: map[string]int{},
	}
}

func (f *faultStore) Init(ctx context.Context) error {
	f.mu.Lock()
	initErr := f.initErr
	f.mu.Unlock()
	if initErr != nil {
		return fmt.Errorf("%w: %w", blobstore.ErrUnavailable, initErr)
	}
	return f.Memory.Init(ctx)
}

func (f *faultStore) Put(ctx context.Context, data []byte, meta models.BlobMetadata, id string) (string, error) {
	f.mu.Lock()
	putErr := f.putErr
	started, release := f.putStarted, f.putRelease
	f.mu.Unlock()
	if putErr != nil {
		return "", &blobstore.OpError{Op: blobstore.OpWrite, Err: putErr}
	}
	if release != nil {
		close(started)
		<-release
	}
	return f.Memory.Put(ctx, data, meta, id)
}

func (f *faultStore) Get(ctx context.Context, id string) ([]byte, error) {
	f.mu.Lock()
	f.getCalls++
	getErr := f.getErr
	f.mu.Unlock()
	if getErr != nil {
		return nil, &blobstore.OpError{Op: blobstore.OpRead, ID: id, Err: getErr}
	}
	return f.Memory.Get(ctx, id)
}

func (f *faultStore) Remove(ctx context.Context, id string) error {
	f.mu.Lock()
	remaining := f.removeFailures[id]
	if remaining > 0 {
		f.removeFailures[id] = remaining - 1
	}
	started, release := f.removeStarted, f.removeRelease
	f.removeStarted, f.removeRelease = nil, nil
	f.mu.Unlock()
	if release != nil {
		close(started)
		<-release
	}
	if remaining > 0 {
		return &blobstore.OpError{Op: blobstore.OpRemove, ID: id, Err: errInjected}
	}
	return f.Memory.Remove(ctx, id)
}

func (f *faultStore) failRemove(id string, times int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removeFailures[id] = times
}

func (f *faultStore) setPutErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.putErr = err
}

func (f *faultStore) blockPuts() (started, release chan struct{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.putStarted = make(chan struct{})
	f.putRelease = make(chan struct{})
	return f.putStarted, f.putRelease
}

// blockNextRemove makes the next Remove wait for release.
func (f *faultStore) blockNextRemove() (started, release chan struct{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removeStarted = make(chan struct{})
	f.removeRelease = make(chan struct{})
	return f.removeStarted, f.removeRelease
}

func (f *faultStore) setGetErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getErr = err
}

func (f *faultStore) gets() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.getCalls
}

// failingPersister fails saves while failSaves is set, or for the next
// failNext saves. With landFailed a failing save still writes its body, as
// when a concurrent save of another field got the same state to disk.
type failingPersister struct {
	*draft.MemoryPersister

	mu         sync.Mutex
	failSaves  bool
	failNext   int
	landFailed bool
}

func (p *failingPersister) SaveSnapshot(ctx context.Context, body string) error {
	p.mu.Lock()
	fail := p.failSaves || p.failNext > 0
	if p.failNext > 0 {
		p.failNext--
	}
	land := p.landFailed
	p.mu.Unlock()
	if !fail {
		return p.MemoryPersister.SaveSnapshot(ctx, body)
	}
	if land {
		if err := p.MemoryPersister.SaveSnapshot(ctx, body); err != nil {
			return err
		}
	}
	return errInjected
}

func (p *failingPersister) failNextSaves(n int, land bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failNext = n
	p.landFailed = land
}

func (p *failingPersister) setFail(fail bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failSaves = fail
}

type harness struct {
	clock     *clock.Mock
	store     *faultStore
	persister *failingPersister
	drafts    *draft.Store
	manager   *Manager
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	c := clock.NewMock()
	c.Add(72 * time.Hour)
	h := &harness{
		clock:     c,
		store:     newFaultStore(c),
		persister: &failingPersister{MemoryPersister: draft.NewMemoryPersister("")},
	}
	h.drafts = draft.New(h.persister, draft.WithClock(c))
	h.manager = NewManager(h.store, h.drafts, DefaultPolicy(), WithManagerClock(c))
	t.Cleanup(func() { _ = h.store.Close() })
	return h
}

// reload simulates a process restart over the same persisted snapshot and store.
func (h *harness) reload(t *testing.T) *harness {
	t.Helper()
	next := &harness{clock: h.clock, store: h.store, persister: h.persister}
	next.drafts = draft.New(h.persister, draft.WithClock(h.clock))
	if err := next.drafts.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	next.manager = NewManager(h.store, next.drafts, DefaultPolicy(), WithManagerClock(h.clock))
	return next
}

func (h *harness) blobIDs(t *testing.T) map[string]struct{} {
	t.Helper()
	infos, err := h.store.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	out := map[string]struct{}{}
	for _, info := range infos {
		out[info.ID] = struct{}{}
	}
	return out
}

func png(n int) Candidate {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i)
	}
	return Candidate{Name: "photo.png", MimeType: "image/png", Data: data}
}

func pdf(name string) Candidate {
	return Candidate{Name: name, MimeType: "application/pdf", Data: []byte("%PDF-1.7 " + name)}
}
