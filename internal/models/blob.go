package models

import "time"

// BlobMetadata describes the file a blob was created from.
type BlobMetadata struct {
	OriginalName string `json:"original_name" yaml:"original_name"`
	Size         uint64 `json:"size" yaml:"size"`
	MimeType     string `json:"mime_type" yaml:"mime_type"`
}

// BlobInfo is the metadata half of a stored blob record.
type BlobInfo struct {
	ID       string       `json:"id" yaml:"id"`
	Metadata BlobMetadata `json:"metadata" yaml:"metadata"`
	StoredAt time.Time    `json:"stored_at" yaml:"stored_at"`
	Checksum string       `json:"checksum,omitempty" yaml:"checksum,omitempty"`
}

// BlobRecord is an immutable stored binary object. Updates are modeled as a
// remove followed by a put under a new id.
type BlobRecord struct {
	BlobInfo
	Payload []byte `json:"-" yaml:"-"`
}
