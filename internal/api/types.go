package api

import (
	"time"

	"wizdraft/internal/models"
)

// ErrorResponse is a generic JSON error wrapper.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	ErrorCode int    `json:"error_code,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// InfoResponse describes the running engine.
type InfoResponse struct {
	DataDir            string     `json:"data_dir" yaml:"data_dir"`
	BlobBackend        string     `json:"blob_backend" yaml:"blob_backend"`
	AttachmentsEnabled bool       `json:"attachments_enabled" yaml:"attachments_enabled"`
	DisabledReason     string     `json:"disabled_reason,omitempty" yaml:"disabled_reason,omitempty"`
	Rehydrated         bool       `json:"rehydrated" yaml:"rehydrated"`
	MaxAttachmentBytes int64      `json:"max_attachment_bytes" yaml:"max_attachment_bytes"`
	AllowedMediaTypes  []string   `json:"allowed_media_types" yaml:"allowed_media_types"`
	SchemaVersion      int        `json:"schema_version" yaml:"schema_version"`
	SnapshotBytes      int64      `json:"snapshot_bytes" yaml:"snapshot_bytes"`
	SnapshotUpdatedAt  *time.Time `json:"snapshot_updated_at,omitempty" yaml:"snapshot_updated_at,omitempty"`
}

// DraftResponse is the draft as shown to the wizard: plain fields plus the
// status of every attachment field.
type DraftResponse struct {
	Step        int                        `json:"step" yaml:"step"`
	Student     models.StudentFields       `json:"student" yaml:"student"`
	Tutors      []models.Tutor             `json:"tutors" yaml:"tutors"`
	Pricing     models.PricingSelection    `json:"pricing" yaml:"pricing"`
	Payments    []models.PaymentAllocation `json:"payments" yaml:"payments"`
	Attachments []AttachmentStatus         `json:"attachments" yaml:"attachments"`
	UpdatedAt   *time.Time                 `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

// DraftPatchRequest sets non-binary draft fields. Nil fields are left as is.
type DraftPatchRequest struct {
	Step     *int                        `json:"step,omitempty" yaml:"step,omitempty"`
	Student  *models.StudentFields       `json:"student,omitempty" yaml:"student,omitempty"`
	Tutors   *[]models.Tutor             `json:"tutors,omitempty" yaml:"tutors,omitempty"`
	Pricing  *models.PricingSelection    `json:"pricing,omitempty" yaml:"pricing,omitempty"`
	Payments *[]models.PaymentAllocation `json:"payments,omitempty" yaml:"payments,omitempty"`
}

// ResetResponse reports the cleanup done by a draft reset.
type ResetResponse struct {
	Referenced int      `json:"referenced" yaml:"referenced"`
	Removed    int      `json:"removed" yaml:"removed"`
	Failed     []string `json:"failed,omitempty" yaml:"failed,omitempty"`
}

// SweepResponse reports an age-based blob sweep.
type SweepResponse struct {
	MaxAge         string `json:"max_age" yaml:"max_age"`
	Forced         bool   `json:"forced,omitempty" yaml:"forced,omitempty"`
	Scanned        int    `json:"scanned" yaml:"scanned"`
	Removed        int    `json:"removed" yaml:"removed"`
	Kept           int    `json:"kept" yaml:"kept"`
	Failed         int    `json:"failed" yaml:"failed"`
	ReclaimedBytes uint64 `json:"reclaimed_bytes" yaml:"reclaimed_bytes"`
}

// DanglingRef is a draft field whose blob is gone.
type DanglingRef struct {
	Selector string `json:"selector" yaml:"selector"`
	BlobID   string `json:"blob_id" yaml:"blob_id"`
}

// OrphansResponse compares the draft with the blob store.
type OrphansResponse struct {
	Consistent   bool              `json:"consistent" yaml:"consistent"`
	Unreferenced []models.BlobInfo `json:"unreferenced" yaml:"unreferenced"`
	Dangling     []DanglingRef     `json:"dangling" yaml:"dangling"`
}
