package draft

import "errors"

var (
	// ErrStaleGeneration reports a conditional write issued before a reset.
	ErrStaleGeneration = errors.New("draft was reset")
	// ErrSnapshotTooLarge reports a snapshot over the configured byte limit.
	ErrSnapshotTooLarge = errors.New("draft snapshot too large")
	// ErrCorruptSnapshot reports a persisted snapshot that could not be decoded.
	ErrCorruptSnapshot = errors.New("draft snapshot is corrupt")
)
