package vectorcache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const artifactFileName = "vectors.json"

var _ Store = (*FileStore)(nil)

// FileStore persists the artifact as a single JSON file in a directory,
// written atomically via a temp file and rename.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileStore returns a FileStore rooted at dir, creating it if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("vectorcache: cache directory must not be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("vectorcache: create cache directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Load implements Store.
func (s *FileStore) Load(_ context.Context, key Key) (*Artifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, artifactFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("vectorcache: read %q: %w", path, err)
	}

	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		// A corrupt file is a mismatch, not a fatal error: recompute.
		return nil, fmt.Errorf("%w: corrupt artifact: %v", ErrMismatch, err)
	}
	if err := a.Validate(key); err != nil {
		return nil, err
	}
	return &a, nil
}

// Save implements Store.
func (s *FileStore) Save(_ context.Context, artifact *Artifact) error {
	if err := artifact.Validate(Key{ModelID: artifact.ModelID, InventoryHash: artifact.InventoryHash}); err != nil {
		return fmt.Errorf("vectorcache: refusing to save invalid artifact: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(artifact)
	if err != nil {
		return fmt.Errorf("vectorcache: marshal artifact: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, artifactFileName+".tmp-*")
	if err != nil {
		return fmt.Errorf("vectorcache: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("vectorcache: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("vectorcache: close temp file: %w", err)
	}
	if err := os.Rename(tmpName, filepath.Join(s.dir, artifactFileName)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("vectorcache: replace artifact: %w", err)
	}
	return nil
}
