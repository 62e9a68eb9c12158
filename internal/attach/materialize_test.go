package attach

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wizdraft/internal/models"
)

func TestMaterializeResolvesEveryAttachment(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, err := h.manager.AddAttachment(ctx, models.PhotoSelector(), png(10))
	require.NoError(t, err)
	_, err = h.manager.AddAttachment(ctx, models.DocumentSelector("id-card"), pdf("id.pdf"))
	require.NoError(t, err)

	next := h.reload(t)
	out, err := next.manager.Materialize(ctx)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, models.PhotoSelector(), out[0].Selector)
	assert.Equal(t, png(10).Data, out[0].Handle.Data)
	assert.Equal(t, models.DocumentSelector("id-card"), out[1].Selector)
	assert.Equal(t, "id.pdf", out[1].Handle.Name)
}

func TestMaterializeReportsMissing(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, err := h.manager.AddAttachment(ctx, models.PhotoSelector(), png(10))
	require.NoError(t, err)
	doc, err := h.manager.AddAttachment(ctx, models.DocumentSelector("id-card"), pdf("id.pdf"))
	require.NoError(t, err)
	require.NoError(t, h.store.Memory.Remove(ctx, doc.BlobID))

	next := h.reload(t)
	_, err = next.manager.Materialize(ctx)
	var missing *MissingError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []models.Selector{models.DocumentSelector("id-card")}, missing.Selectors)
	assert.ErrorIs(t, err, ErrUnresolvable)
	assert.Equal(t, "missing attachments: documents/id-card", err.Error())
}

func TestMaterializeEmptyDraft(t *testing.T) {
	h := newHarness(t)
	out, err := h.manager.Materialize(context.Background())
	require.NoError(t, err)
	assert.Empty(t, out)
}
