package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"wizdraft/internal/models"
)

const (
	fileMetaSuffix = ".meta"
	fileTmpDir     = "tmp"
)

// FileStore stores each blob as a payload file plus a CBOR metadata sidecar.
// The sidecar is written last, so a record exists only once it is complete.
type FileStore struct {
	root string
	opts options
	gate initGate
}

// NewFileStore returns a FileStore rooted at root. Directories are created on first use.
func NewFileStore(root string, opts ...Option) *FileStore {
	return &FileStore{root: strings.TrimSpace(root), opts: buildOptions(opts)}
}

// Init creates the directory tree once.
func (f *FileStore) Init(ctx context.Context) error {
	return f.gate.do(ctx, func() error {
		if f.root == "" {
			return fmt.Errorf("file store root is required")
		}
		abs, err := filepath.Abs(f.root)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Join(abs, fileTmpDir), 0o755); err != nil {
			return err
		}
		f.root = abs
		f.opts.logger.Debug("blob store opened", "backend", BackendFile, "dir", abs)
		return nil
	})
}

// Put stores data under id, generating one when id is empty.
func (f *FileStore) Put(ctx context.Context, data []byte, meta models.BlobMetadata, id string) (string, error) {
	if err := f.Init(ctx); err != nil {
		return "", err
	}
	now := f.opts.clock.Now()
	id, err := resolveID(id, now)
	if err != nil {
		return "", &OpError{Op: OpWrite, ID: id, Err: err}
	}
	info := newInfo(id, data, meta, now)
	encoded, err := encodeInfo(info)
	if err != nil {
		return "", &OpError{Op: OpWrite, ID: id, Err: err}
	}

	dataPath, metaPath := f.paths(id)
	if _, err := os.Stat(metaPath); err == nil {
		return "", &OpError{Op: OpWrite, ID: id, Err: ErrExists}
	}
	if err := os.MkdirAll(filepath.Dir(dataPath), 0o755); err != nil {
		return "", &OpError{Op: OpWrite, ID: id, Err: err}
	}
	if err := f.writeAtomic(dataPath, data); err != nil {
		return "", &OpError{Op: OpWrite, ID: id, Err: err}
	}
	if err := f.writeAtomic(metaPath, encoded); err != nil {
		_ = os.Remove(dataPath)
		return "", &OpError{Op: OpWrite, ID: id, Err: err}
	}
	return id, nil
}

// Get returns the payload stored under id.
func (f *FileStore) Get(ctx context.Context, id string) ([]byte, error) {
	if err := f.Init(ctx); err != nil {
		return nil, err
	}
	if err := ValidateID(id); err != nil {
		return nil, notFound(id)
	}
	dataPath, metaPath := f.paths(id)
	rawMeta, err := os.ReadFile(metaPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, &OpError{Op: OpRead, ID: id, Err: err}
	}
	info, err := decodeInfo(rawMeta)
	if err != nil {
		return nil, &OpError{Op: OpRead, ID: id, Err: err}
	}
	payload, err := os.ReadFile(dataPath)
	if err != nil {
		return nil, &OpError{Op: OpRead, ID: id, Err: err}
	}
	if err := verify(info, payload); err != nil {
		return nil, &OpError{Op: OpRead, ID: id, Err: err}
	}
	return payload, nil
}

// Remove deletes the record for id. Missing files are ignored.
func (f *FileStore) Remove(ctx context.Context, id string) error {
	if err := f.Init(ctx); err != nil {
		return err
	}
	if err := ValidateID(id); err != nil {
		return nil
	}
	dataPath, metaPath := f.paths(id)
	for _, path := range []string{metaPath, dataPath} {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return &OpError{Op: OpRemove, ID: id, Err: err}
		}
	}
	return nil
}

// List returns metadata for every complete record, oldest first.
func (f *FileStore) List(ctx context.Context) ([]models.BlobInfo, error) {
	if err := f.Init(ctx); err != nil {
		return nil, err
	}
	var infos []models.BlobInfo
	err := filepath.WalkDir(f.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == fileTmpDir && path != f.root {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(d.Name(), fileMetaSuffix) {
			return nil
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		info, err := decodeInfo(raw)
		if err != nil {
			return fmt.Errorf("decode %s: %w", d.Name(), err)
		}
		infos = append(infos, info)
		return nil
	})
	if err != nil {
		return nil, &OpError{Op: OpRead, Err: err}
	}
	sortInfos(infos)
	return infos, nil
}

// SweepOlderThan removes records stored more than maxAge ago.
func (f *FileStore) SweepOlderThan(ctx context.Context, maxAge time.Duration) (int, error) {
	return sweep(ctx, f, f.opts.clock.Now(), maxAge)
}

// Close releases the store.
func (f *FileStore) Close() error {
	f.gate.close()
	return nil
}

func (f *FileStore) paths(id string) (string, string) {
	dataPath := filepath.Join(f.root, id[len(id)-2:], id)
	return dataPath, dataPath + fileMetaSuffix
}

func (f *FileStore) writeAtomic(dst string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Join(f.root, fileTmpDir), "put-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}
	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmpPath, dst); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}
