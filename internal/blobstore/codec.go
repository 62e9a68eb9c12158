package blobstore

import (
	"encoding/hex"
	"time"

	"github.com/fxamacker/cbor/v2"
	"golang.org/x/crypto/blake2b"

	"wizdraft/internal/models"
)

// metaEnvelope is the on-disk encoding of BlobInfo.
type metaEnvelope struct {
	ID           string `cbor:"1,keyasint"`
	OriginalName string `cbor:"2,keyasint"`
	Size         uint64 `cbor:"3,keyasint"`
	MimeType     string `cbor:"4,keyasint"`
	StoredAt     int64  `cbor:"5,keyasint"`
	Checksum     string `cbor:"6,keyasint"`
}

func encodeInfo(info models.BlobInfo) ([]byte, error) {
	return cbor.Marshal(metaEnvelope{
		ID:           info.ID,
		OriginalName: info.Metadata.OriginalName,
		Size:         info.Metadata.Size,
		MimeType:     info.Metadata.MimeType,
		StoredAt:     info.StoredAt.UnixNano(),
		Checksum:     info.Checksum,
	})
}

func decodeInfo(raw []byte) (models.BlobInfo, error) {
	var env metaEnvelope
	if err := cbor.Unmarshal(raw, &env); err != nil {
		return models.BlobInfo{}, err
	}
	return models.BlobInfo{
		ID: env.ID,
		Metadata: models.BlobMetadata{
			OriginalName: env.OriginalName,
			Size:         env.Size,
			MimeType:     env.MimeType,
		},
		StoredAt: time.Unix(0, env.StoredAt).UTC(),
		Checksum: env.Checksum,
	}, nil
}

func checksum(data []byte) string {
	sum := blake2b.Sum256(data)
	return "blake2b-256:" + hex.EncodeToString(sum[:])
}

func verify(info models.BlobInfo, data []byte) error {
	if info.Checksum == "" {
		return nil
	}
	if uint64(len(data)) != info.Metadata.Size || checksum(data) != info.Checksum {
		return ErrCorrupt
	}
	return nil
}

// newInfo stamps metadata for a payload about to be stored.
func newInfo(id string, data []byte, meta models.BlobMetadata, now time.Time) models.BlobInfo {
	meta.Size = uint64(len(data))
	return models.BlobInfo{
		ID:       id,
		Metadata: meta,
		StoredAt: now.UTC(),
		Checksum: checksum(data),
	}
}

func resolveID(id string, now time.Time) (string, error) {
	if id == "" {
		return NewID(now)
	}
	if err := ValidateID(id); err != nil {
		return "", err
	}
	return id, nil
}
