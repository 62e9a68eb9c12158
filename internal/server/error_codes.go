package server

import "net/http"

const (
	// Validation (1xxx)
	ErrCodeInvalidArgument      = 1000
	ErrCodeInvalidJSON          = 1001
	ErrCodeRequestTooLarge      = 1002
	ErrCodeInvalidQuery         = 1003
	ErrCodeInvalidSelector      = 1004
	ErrCodeMissingRequired      = 1009
	ErrCodeInvalidDraftField    = 1010
	ErrCodeSnapshotTooLarge     = 1011
	ErrCodeEmptyFile            = 1020
	ErrCodeFileTooLarge         = 1021
	ErrCodeUnsupportedMediaType = 1022

	// Domain state (2xxx)
	ErrCodeAttachmentNotFound = 2003
	ErrCodeMissingAttachments = 2004
	ErrCodeConflict           = 2102
	ErrCodeDraftReset         = 2103

	// Limits (3xxx)
	ErrCodeResourceExhausted = 3003

	// Internal/system (4xxx)
	ErrCodeInternal              = 4001
	ErrCodeStoreFailure          = 4002
	ErrCodeBlobStoreUnavailable  = 4006
	ErrCodeRehydrationInProgress = 4007
)

var statusNames = map[int]string{
	http.StatusBadRequest:          "invalid_argument",
	http.StatusNotFound:            "not_found",
	http.StatusConflict:            "conflict",
	http.StatusTooManyRequests:     "resource_exhausted",
	http.StatusInternalServerError: "internal",
	http.StatusServiceUnavailable:  "unavailable",
}
