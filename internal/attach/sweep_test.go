package attach

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wizdraft/internal/models"
)

func TestSweepSkipsReferencedBlobs(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	ref, err := h.manager.AddAttachment(ctx, models.PhotoSelector(), png(10))
	require.NoError(t, err)
	leftover, err := h.store.Put(ctx, []byte("stale"), models.BlobMetadata{OriginalName: "old.pdf"}, "")
	require.NoError(t, err)
	h.clock.Add(2 * time.Hour)
	fresh, err := h.store.Put(ctx, []byte("fresh"), models.BlobMetadata{}, "")
	require.NoError(t, err)

	result, err := h.manager.Sweep(ctx, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Scanned)
	assert.Equal(t, 1, result.Removed)
	assert.Equal(t, 1, result.Kept)
	assert.Equal(t, uint64(len("stale")), result.ReclaimedBytes)

	ids := h.blobIDs(t)
	assert.Contains(t, ids, ref.BlobID)
	assert.Contains(t, ids, fresh)
	assert.NotContains(t, ids, leftover)

	_, err = h.manager.Sweep(ctx, -time.Second)
	assert.Error(t, err)
}

func TestOrphansReportsBothDirections(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	photo, err := h.manager.AddAttachment(ctx, models.PhotoSelector(), png(10))
	require.NoError(t, err)
	_, err = h.manager.AddAttachment(ctx, models.DocumentSelector("id-card"), pdf("id.pdf"))
	require.NoError(t, err)
	stray, err := h.store.Put(ctx, []byte("stray"), models.BlobMetadata{}, "")
	require.NoError(t, err)
	require.NoError(t, h.store.Memory.Remove(ctx, photo.BlobID))

	report, err := h.manager.Orphans(ctx)
	require.NoError(t, err)
	assert.False(t, report.Consistent())
	require.Len(t, report.Unreferenced, 1)
	assert.Equal(t, stray, report.Unreferenced[0].ID)
	require.Len(t, report.Dangling, 1)
	assert.Equal(t, models.PhotoSelector(), report.Dangling[0].Selector)
	assert.Equal(t, photo.BlobID, report.Dangling[0].BlobID)
}

func TestForceSweepIgnoresReferences(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.manager.AddAttachment(ctx, models.PhotoSelector(), png(10))
	require.NoError(t, err)
	h.clock.Add(2 * time.Hour)

	removed, err := h.manager.ForceSweep(ctx, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.Empty(t, h.blobIDs(t))

	report, err := h.manager.Orphans(ctx)
	require.NoError(t, err)
	require.Len(t, report.Dangling, 1)
	assert.Equal(t, models.PhotoSelector(), report.Dangling[0].Selector)
}
