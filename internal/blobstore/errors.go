package blobstore

import (
	"errors"
	"fmt"
)

var (
	// ErrUnavailable reports that the underlying store could not be opened.
	ErrUnavailable = errors.New("blob store unavailable")
	// ErrNotFound reports that no record exists for an id.
	ErrNotFound = errors.New("blob not found")
	// ErrExists reports a Put with an id that is already stored.
	ErrExists = errors.New("blob already exists")
	// ErrCorrupt reports a payload whose checksum does not match its metadata.
	ErrCorrupt = errors.New("blob checksum mismatch")
	// ErrClosed reports use of a store after Close.
	ErrClosed = errors.New("blob store closed")
)

// Op names the store operation that failed.
type Op string

const (
	OpWrite  Op = "write"
	OpRead   Op = "read"
	OpRemove Op = "remove"
)

// OpError is a transport failure from the underlying store.
type OpError struct {
	Op  Op
	ID  string
	Err error
}

func (e *OpError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("blob %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("blob %s %s: %v", e.Op, e.ID, e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}

// IsOp reports whether err is an OpError for op.
func IsOp(err error, op Op) bool {
	var opErr *OpError
	if !errors.As(err, &opErr) {
		return false
	}
	return opErr.Op == op
}

func notFound(id string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, id)
}
