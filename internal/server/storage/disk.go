// Package storage keeps the files received by the sink on the local disk.
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/filepicker/internal/common"
	"github.com/dmitrijs2005/filepicker/internal/cryptox"
	"github.com/dmitrijs2005/filepicker/internal/filex"
)

// ErrInvalidKey is returned for keys that would escape the storage root.
var ErrInvalidKey = errors.New("invalid object key")

// Store is the backend the HTTP and gRPC receivers write to.
type Store interface {
	Save(key string, data io.Reader) (Saved, error)
	GetPath(key string) (string, error)
	Delete(key string) error
}

// Saved describes a stored object.
type Saved struct {
	Size int64
	// Fingerprint is the hex BLAKE2b-256 digest of the stored bytes.
	Fingerprint string
}

// DiskStore stores objects as files under a root directory. Keys may
// contain slashes; they map to subdirectories.
type DiskStore struct {
	basePath string
}

// NewDiskStore creates root if needed and returns a store over it.
func NewDiskStore(root string) (*DiskStore, error) {
	dir, err := filex.EnsureDir(root, "")
	if err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &DiskStore{basePath: dir}, nil
}

// Root is the absolute storage directory.
func (s *DiskStore) Root() string { return s.basePath }

// Save writes data under key, replacing any previous object. The file is
// written to a temporary name first, so a failed Save leaves the previous
// object untouched.
func (s *DiskStore) Save(key string, data io.Reader) (Saved, error) {
	path, err := s.filePath(key)
	if err != nil {
		return Saved{}, err
	}

	h := cryptox.NewHash()
	n, err := filex.WriteAtomic(path, data, h)
	if err != nil {
		return Saved{}, fmt.Errorf("failed to store object %s: %w", key, err)
	}

	return Saved{Size: n, Fingerprint: cryptox.Sum(h)}, nil
}

// GetPath returns the absolute path of a stored object.
func (s *DiskStore) GetPath(key string) (string, error) {
	path, err := s.filePath(key)
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("object %s: %w", key, common.ErrorNotFound)
		}
		return "", fmt.Errorf("failed to stat file: %w", err)
	}

	return path, nil
}

// Delete removes a stored object. Deleting a missing object is not an error.
func (s *DiskStore) Delete(key string) error {
	path, err := s.filePath(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file %s: %w", path, err)
	}
	return nil
}

func (s *DiskStore) filePath(key string) (string, error) {
	if key == "" || !filepath.IsLocal(filepath.FromSlash(key)) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return filepath.Join(s.basePath, filepath.FromSlash(key)), nil
}
