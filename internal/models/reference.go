package models

import (
	"encoding/json"
	"fmt"
)

// Handle is a binary payload held by the current process. Data is treated as
// immutable once a Handle is constructed.
type Handle struct {
	Name     string
	MimeType string
	Data     []byte
}

// Size returns the payload length in bytes.
func (h Handle) Size() uint64 {
	return uint64(len(h.Data))
}

// StoredRef is the durable half of a Reference: it names a blob in the Blob
// Store plus enough metadata to describe it without fetching the payload.
type StoredRef struct {
	BlobID       string `json:"blob_id" yaml:"blob_id"`
	OriginalName string `json:"original_name" yaml:"original_name"`
	Size         uint64 `json:"size" yaml:"size"`
	MimeType     string `json:"mime_type" yaml:"mime_type"`
	Restored     bool   `json:"restored" yaml:"restored"`
}

// ReferenceKind reports which variant a Reference carries.
type ReferenceKind int

const (
	ReferenceAbsent ReferenceKind = iota
	ReferenceInMemory
	ReferenceStored
)

func (k ReferenceKind) String() string {
	switch k {
	case ReferenceInMemory:
		return "in_memory"
	case ReferenceStored:
		return "stored"
	default:
		return "absent"
	}
}

// Reference is the value of a binary draft field. The zero value means the
// field has no attachment. Otherwise it carries an in-memory handle, a stored
// reference, or a stored reference with an in-memory alias after resolution.
//
// Only the stored half is ever encoded.
type Reference struct {
	handle *Handle
	stored *StoredRef
}

// InMemory returns a Reference holding a live handle only.
func InMemory(h Handle) Reference {
	return Reference{handle: &h}
}

// Stored returns a Reference holding a durable blob reference only.
func Stored(ref StoredRef) Reference {
	return Reference{stored: &ref}
}

// WithAlias returns a copy of r whose stored half is kept and whose in-memory
// slot holds h. Absent references stay absent.
func (r Reference) WithAlias(h Handle) Reference {
	if r.IsZero() {
		return r
	}
	out := r.copy()
	out.handle = &h
	return out
}

// Restore merges h as an alias and marks the stored half restored.
func (r Reference) Restore(h Handle) Reference {
	if r.stored == nil {
		return r
	}
	out := r.WithAlias(h)
	out.stored.Restored = true
	return out
}

// WithoutAlias drops the in-memory half and resets Restored. A reference that
// only had an in-memory half becomes absent.
func (r Reference) WithoutAlias() Reference {
	if r.stored == nil {
		return Reference{}
	}
	stored := *r.stored
	stored.Restored = false
	return Stored(stored)
}

// Kind reports the variant. A stored reference with an alias is ReferenceStored.
func (r Reference) Kind() ReferenceKind {
	switch {
	case r.stored != nil:
		return ReferenceStored
	case r.handle != nil:
		return ReferenceInMemory
	default:
		return ReferenceAbsent
	}
}

// IsZero reports whether the field is absent.
func (r Reference) IsZero() bool {
	return r.stored == nil && r.handle == nil
}

// Handle returns the in-memory half if present.
func (r Reference) Handle() (Handle, bool) {
	if r.handle == nil {
		return Handle{}, false
	}
	return *r.handle, true
}

// Stored returns the stored half if present.
func (r Reference) Stored() (StoredRef, bool) {
	if r.stored == nil {
		return StoredRef{}, false
	}
	return *r.stored, true
}

// BlobID returns the referenced blob id, or "" when there is no stored half.
func (r Reference) BlobID() string {
	if r.stored == nil {
		return ""
	}
	return r.stored.BlobID
}

// Name returns the original file name from whichever half is present.
func (r Reference) Name() string {
	if r.stored != nil {
		return r.stored.OriginalName
	}
	if r.handle != nil {
		return r.handle.Name
	}
	return ""
}

// Size returns the payload size without any I/O.
func (r Reference) Size() uint64 {
	if r.stored != nil {
		return r.stored.Size
	}
	if r.handle != nil {
		return r.handle.Size()
	}
	return 0
}

func (r Reference) copy() Reference {
	var out Reference
	if r.handle != nil {
		h := *r.handle
		out.handle = &h
	}
	if r.stored != nil {
		s := *r.stored
		out.stored = &s
	}
	return out
}

// MarshalJSON writes the stored half, or null.
func (r Reference) MarshalJSON() ([]byte, error) {
	if r.stored == nil {
		return []byte("null"), nil
	}
	return json.Marshal(r.stored)
}

// UnmarshalJSON reads a stored half. Decoded references never carry an alias.
func (r *Reference) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*r = Reference{}
		return nil
	}
	var stored StoredRef
	if err := json.Unmarshal(data, &stored); err != nil {
		return err
	}
	if stored.BlobID == "" {
		return fmt.Errorf("stored reference without blob_id")
	}
	*r = Stored(stored)
	return nil
}

type referenceView struct {
	Kind         string `yaml:"kind"`
	BlobID       string `yaml:"blob_id,omitempty"`
	OriginalName string `yaml:"original_name,omitempty"`
	Size         uint64 `yaml:"size"`
	MimeType     string `yaml:"mime_type,omitempty"`
	Restored     bool   `yaml:"restored"`
	InMemory     bool   `yaml:"in_memory"`
}

// MarshalYAML renders a diagnostic view of both halves.
func (r Reference) MarshalYAML() (any, error) {
	if r.IsZero() {
		return nil, nil
	}
	view := referenceView{Kind: r.Kind().String(), Size: r.Size(), InMemory: r.handle != nil}
	if r.stored != nil {
		view.BlobID = r.stored.BlobID
		view.OriginalName = r.stored.OriginalName
		view.MimeType = r.stored.MimeType
		view.Restored = r.stored.Restored
	} else if r.handle != nil {
		view.OriginalName = r.handle.Name
		view.MimeType = r.handle.MimeType
	}
	return view, nil
}
