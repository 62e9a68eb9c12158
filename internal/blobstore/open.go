package blobstore

import (
	"fmt"
	"path/filepath"
	"strings"
)

const (
	BackendBadger = "badger"
	BackendFile   = "file"
	BackendMemory = "memory"
)

// Backends lists the supported backend names.
func Backends() []string {
	return []string{BackendBadger, BackendFile, BackendMemory}
}

// Open constructs the Store for backend under dataDir. The store is not opened
// until its first operation.
func Open(backend, dataDir string, opts ...Option) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendBadger:
		return NewBadger(filepath.Join(dataDir, "blobs"), opts...), nil
	case BackendFile:
		return NewFileStore(filepath.Join(dataDir, "files"), opts...), nil
	case BackendMemory:
		return NewMemory(opts...), nil
	default:
		return nil, fmt.Errorf("unknown blob backend %q (valid: %s)", backend, strings.Join(Backends(), ", "))
	}
}
