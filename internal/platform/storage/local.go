// Package storage provides blob storage for uploaded product images.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// blobNamespace is the directory all product blobs live under. Only the
// generated filename is persisted on the owning row.
const blobNamespace = "products"

// LocalStore stores blobs on the local filesystem under <baseDir>/products/.
type LocalStore struct {
	dir string
}

// NewLocalStore creates the products namespace under baseDir and returns a
// store rooted there.
func NewLocalStore(baseDir string) (*LocalStore, error) {
	dir := filepath.Join(baseDir, blobNamespace)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create blob directory: %w", err)
	}
	return &LocalStore{dir: dir}, nil
}

// Save writes a blob. The name must be a bare filename.
func (s *LocalStore) Save(_ context.Context, name string, data []byte) error {
	if name == "" || name != filepath.Base(name) {
		return fmt.Errorf("invalid blob name %q", name)
	}
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return fmt.Errorf("failed to write blob: %w", err)
	}
	return nil
}

// Delete removes a blob. Deleting a missing blob is not an error.
func (s *LocalStore) Delete(_ context.Context, name string) error {
	if name == "" || name != filepath.Base(name) {
		return fmt.Errorf("invalid blob name %q", name)
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete blob: %w", err)
	}
	return nil
}
