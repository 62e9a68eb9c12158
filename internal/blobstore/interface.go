package blobstore

import (
	"context"
	"time"

	"wizdraft/internal/models"
)

// Store is the durable byte storage behind draft attachments.
// Every operation lazily calls Init, so callers never need to open the store explicitly.
type Store interface {
	Init(ctx context.Context) error
	Put(ctx context.Context, data []byte, meta models.BlobMetadata, id string) (string, error)
	Get(ctx context.Context, id string) ([]byte, error)
	Remove(ctx context.Context, id string) error
	List(ctx context.Context) ([]models.BlobInfo, error)
	SweepOlderThan(ctx context.Context, maxAge time.Duration) (int, error)
	Close() error
}
