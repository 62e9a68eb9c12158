package attach

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"wizdraft/internal/blobstore"
	"wizdraft/internal/models"
)

var (
	// ErrUnresolvable reports a reference whose bytes are gone. It is expected
	// after a blob was evicted and is never fatal.
	ErrUnresolvable = errors.New("attachment unavailable")
	// ErrAttachmentsDisabled is returned by every attachment operation once the
	// blob store failed to initialize. It matches blobstore.ErrUnavailable.
	ErrAttachmentsDisabled = fmt.Errorf("attachments disabled: %w", blobstore.ErrUnavailable)
	// ErrDraftReset reports an add that finished after the draft was reset.
	ErrDraftReset = errors.New("draft was reset while the attachment was being stored")
	// ErrInvalidSelector reports a malformed field selector.
	ErrInvalidSelector = errors.New("invalid field selector")
)

// Reason names the constraint a candidate file violated.
type Reason string

const (
	ReasonEmptyFile       Reason = "empty_file"
	ReasonTooLarge        Reason = "too_large"
	ReasonUnsupportedType Reason = "unsupported_type"
)

// ValidationError is returned before any store call when a candidate is rejected.
type ValidationError struct {
	Reason    Reason
	Size      int64
	MaxBytes  int64
	MediaType string
}

func (e *ValidationError) Error() string {
	switch e.Reason {
	case ReasonEmptyFile:
		return "file is empty"
	case ReasonTooLarge:
		return fmt.Sprintf("file is %d bytes, the limit is %d", e.Size, e.MaxBytes)
	case ReasonUnsupportedType:
		if e.MediaType == "" {
			return "file type is unknown"
		}
		return fmt.Sprintf("file type %s is not allowed", e.MediaType)
	default:
		return string(e.Reason)
	}
}

// IsValidation reports whether err is a ValidationError with the given reason.
// An empty reason matches any ValidationError.
func IsValidation(err error, reason Reason) bool {
	var verr *ValidationError
	if !errors.As(err, &verr) {
		return false
	}
	return reason == "" || verr.Reason == reason
}

// MissingError lists fields whose bytes could not be resolved.
type MissingError struct {
	Selectors []models.Selector
}

func (e *MissingError) Error() string {
	names := make([]string, 0, len(e.Selectors))
	for _, sel := range e.Selectors {
		names = append(names, sel.String())
	}
	sort.Strings(names)
	return fmt.Sprintf("missing attachments: %s", strings.Join(names, ", "))
}

func (e *MissingError) Unwrap() error {
	return ErrUnresolvable
}
