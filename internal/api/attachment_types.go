package api

// Attachment states reported in AttachmentStatus.State.
const (
	AttachmentInMemory = "in_memory"
	AttachmentStored   = "stored"
	AttachmentRestored = "restored"
	AttachmentPending  = "pending"
	AttachmentMissing  = "missing"
	// AttachmentFailed is a stored field whose blob could not be read at
	// start-up for a reason other than being gone; a retry may succeed.
	AttachmentFailed = "failed"
)

// AttachmentStatus describes one attachment field of the draft.
type AttachmentStatus struct {
	Selector string `json:"selector" yaml:"selector"`
	State    string `json:"state" yaml:"state"`
	BlobID   string `json:"blob_id,omitempty" yaml:"blob_id,omitempty"`
	Name     string `json:"name,omitempty" yaml:"name,omitempty"`
	MimeType string `json:"mime_type,omitempty" yaml:"mime_type,omitempty"`
	Size     uint64 `json:"size" yaml:"size"`
}

// AttachmentResponse is returned after a file was stored for a field.
type AttachmentResponse struct {
	Selector string `json:"selector" yaml:"selector"`
	BlobID   string `json:"blob_id" yaml:"blob_id"`
	Name     string `json:"name" yaml:"name"`
	MimeType string `json:"mime_type" yaml:"mime_type"`
	Size     uint64 `json:"size" yaml:"size"`
	// MediaTypeSource is "sniffed" when the type was detected from content.
	MediaTypeSource string `json:"media_type_source,omitempty" yaml:"media_type_source,omitempty"`
}

// SubmissionFile is one resolved attachment, payload base64 encoded by JSON.
type SubmissionFile struct {
	Selector string `json:"selector"`
	Name     string `json:"name"`
	MimeType string `json:"mime_type"`
	Data     []byte `json:"data"`
}

// SubmissionResponse is the fully materialized draft ready to hand off.
type SubmissionResponse struct {
	Draft DraftResponse    `json:"draft"`
	Files []SubmissionFile `json:"files"`
}
