package attach

import (
	"context"
	"errors"
	"fmt"

	"wizdraft/internal/blobstore"
	"wizdraft/internal/models"
)

// Resolver turns References into usable handles.
type Resolver struct {
	store blobstore.Store
}

// NewResolver returns a Resolver reading from store.
func NewResolver(store blobstore.Store) *Resolver {
	return &Resolver{store: store}
}

// Resolve returns the handle behind ref. An in-memory half is returned without
// I/O. A stored half is fetched; the bool reports that the handle came from the
// store and may be cached as an alias. Missing blobs yield ErrUnresolvable.
func (r *Resolver) Resolve(ctx context.Context, ref models.Reference) (models.Handle, bool, error) {
	if h, ok := ref.Handle(); ok {
		return h, false, nil
	}
	stored, ok := ref.Stored()
	if !ok {
		return models.Handle{}, false, ErrUnresolvable
	}
	data, err := r.store.Get(ctx, stored.BlobID)
	if errors.Is(err, blobstore.ErrNotFound) {
		return models.Handle{}, false, fmt.Errorf("%w: blob %s", ErrUnresolvable, stored.BlobID)
	}
	if err != nil {
		return models.Handle{}, false, err
	}
	return models.Handle{Name: stored.OriginalName, MimeType: stored.MimeType, Data: data}, true, nil
}

// Size reports the payload size of ref without any I/O.
func Size(ref models.Reference) uint64 {
	return ref.Size()
}
