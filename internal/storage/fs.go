package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"

	"video-platform/internal/apperr"
	"video-platform/internal/filesystem"
	"video-platform/internal/logging"
)

var log = logging.For("storage")

// FSStore keeps media on a local (or network-mounted) directory. Writes go
// through a temporary file and rename; stat and remove retry on stale NFS handles.
type FSStore struct {
	root  string
	retry filesystem.RetryConfig
}

// NewFSStore returns a store rooted at dir, creating it if needed.
func NewFSStore(dir string) (*FSStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperr.IO("create storage root", err)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, apperr.IO("resolve storage root", err)
	}
	return &FSStore{root: abs, retry: filesystem.DefaultRetryConfig()}, nil
}

// Root returns the absolute directory backing the store.
func (s *FSStore) Root() string {
	return s.root
}

// Path resolves a key to its absolute location on disk. The transcoder works
// on paths, so the lifecycle needs this for video files.
func (s *FSStore) Path(key string) (string, error) {
	cleaned, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.root, filepath.FromSlash(cleaned)), nil
}

// Save writes r to key, replacing any previous content.
func (s *FSStore) Save(ctx context.Context, key string, r io.Reader) (int64, error) {
	p, err := s.Path(key)
	if err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	n, err := filesystem.WriteFileWithRetry(p, r, s.retry)
	if err != nil {
		return 0, apperr.IO("save "+key, err)
	}
	log.Debug("Saved %s (%d bytes)", key, n)
	return n, nil
}

// Delete removes key. Missing files are ignored.
func (s *FSStore) Delete(_ context.Context, key string) error {
	p, err := s.Path(key)
	if err != nil {
		return err
	}
	if err := filesystem.RemoveWithRetry(p, s.retry); err != nil {
		return apperr.IO("delete "+key, err)
	}
	return nil
}

// Exists reports whether key is present.
func (s *FSStore) Exists(_ context.Context, key string) (bool, error) {
	p, err := s.Path(key)
	if err != nil {
		return false, err
	}
	_, err = filesystem.StatWithRetry(p, s.retry)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, apperr.IO("stat "+key, err)
}
