package attach

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wizdraft/internal/models"
)

func TestRehydrationRestoresStoredReference(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	sel := models.DocumentSelector("id-card")
	ref, err := h.manager.AddAttachment(ctx, sel, pdf("id.pdf"))
	require.NoError(t, err)

	next := h.reload(t)
	field, _ := next.drafts.Reference(sel)
	_, hasHandle := field.Handle()
	require.False(t, hasHandle)

	rehydrator := NewRehydrator(next.drafts, next.manager.Resolver(), nil)
	assert.False(t, rehydrator.Ready(sel))
	assert.True(t, rehydrator.Ready(models.PhotoSelector()))

	saves := next.persister.Saves()
	report, err := rehydrator.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.Selector{sel}, report.Restored)
	assert.Empty(t, report.Missing)
	assert.True(t, report.Persisted)
	assert.Equal(t, saves+1, next.persister.Saves())
	assert.True(t, rehydrator.Ready(sel))

	field, ok := next.drafts.Reference(sel)
	require.True(t, ok)
	stored, _ := field.Stored()
	assert.True(t, stored.Restored)
	assert.Equal(t, ref.BlobID, stored.BlobID)
	handle, ok := field.Handle()
	require.True(t, ok)
	assert.Equal(t, pdf("id.pdf").Data, handle.Data)
}

func TestRehydrationKeepsMissingReference(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	ref, err := h.manager.AddAttachment(ctx, models.PhotoSelector(), png(6))
	require.NoError(t, err)
	require.NoError(t, h.store.Memory.Remove(ctx, ref.BlobID))

	next := h.reload(t)
	saves := next.persister.Saves()
	rehydrator := NewRehydrator(next.drafts, next.manager.Resolver(), nil)
	report, err := rehydrator.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.Selector{models.PhotoSelector()}, report.Missing)
	assert.False(t, report.Persisted)
	assert.Equal(t, saves, next.persister.Saves())

	field, ok := next.drafts.Reference(models.PhotoSelector())
	require.True(t, ok)
	stored, _ := field.Stored()
	assert.False(t, stored.Restored)
	assert.Equal(t, ref.BlobID, stored.BlobID)

	_, _, err = next.manager.Resolver().Resolve(ctx, field)
	assert.ErrorIs(t, err, ErrUnresolvable)
}

func TestRehydrationSeparatesReadFailuresFromMissing(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	sel := models.PhotoSelector()
	ref, err := h.manager.AddAttachment(ctx, sel, png(6))
	require.NoError(t, err)

	next := h.reload(t)
	next.store.setGetErr(errInjected)
	rehydrator := NewRehydrator(next.drafts, next.manager.Resolver(), nil)
	assert.False(t, rehydrator.ReadFailed(sel, ref.BlobID))

	report, err := rehydrator.Run(ctx)
	require.NoError(t, err)
	assert.Empty(t, report.Missing)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, ref.BlobID, report.Failed[0].BlobID)
	assert.True(t, rehydrator.ReadFailed(sel, ref.BlobID))
	assert.False(t, rehydrator.ReadFailed(sel, "1-other"))

	// The bytes are still there once reads work again.
	next.store.setGetErr(nil)
	handle, err := next.manager.Open(ctx, sel)
	require.NoError(t, err)
	assert.Equal(t, png(6).Data, handle.Data)
}

func TestRehydrationRunsOnce(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, err := h.manager.AddAttachment(ctx, models.PhotoSelector(), png(6))
	require.NoError(t, err)

	next := h.reload(t)
	rehydrator := NewRehydrator(next.drafts, next.manager.Resolver(), nil)
	first, err := rehydrator.Run(ctx)
	require.NoError(t, err)
	gets := next.store.gets()

	second, err := rehydrator.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, gets, next.store.gets())
	require.NoError(t, rehydrator.Wait(ctx))
}

func TestRehydrationSkip(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, err := h.manager.AddAttachment(ctx, models.PhotoSelector(), png(6))
	require.NoError(t, err)

	next := h.reload(t)
	rehydrator := NewRehydrator(next.drafts, next.manager.Resolver(), nil)
	rehydrator.Skip(errors.New("store down"))
	assert.True(t, rehydrator.Done())
	assert.True(t, rehydrator.Ready(models.PhotoSelector()))

	report, err := rehydrator.Run(ctx)
	require.NoError(t, err)
	assert.True(t, report.Skipped)
	assert.Equal(t, 0, next.store.gets())
}

func TestRehydrationWaitHonorsContext(t *testing.T) {
	h := newHarness(t)
	rehydrator := NewRehydrator(h.drafts, h.manager.Resolver(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, rehydrator.Wait(ctx), context.Canceled)
}
