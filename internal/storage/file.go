package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/remixer1943/Ai/internal/store"
)

// FileMedium stores the vector store as a single binary file.
type FileMedium struct {
	path        string
	compression store.Compression
}

// NewFileMedium returns a medium for path. Nothing is touched until Save or Load.
func NewFileMedium(path string, c store.Compression) *FileMedium {
	return &FileMedium{path: path, compression: c}
}

// Save writes vs to a temp file next to the target and renames it into place,
// so readers never observe a partial store.
func (m *FileMedium) Save(ctx context.Context, vs *store.VectorStore) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := filepath.Dir(m.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(m.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := store.Encode(tmp, vs, m.compression); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close store: %w", err)
	}
	if err := os.Rename(tmpName, m.path); err != nil {
		return fmt.Errorf("failed to move store into place: %w", err)
	}
	return nil
}

// Load reads and validates the store file.
func (m *FileMedium) Load(ctx context.Context) (*store.VectorStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(m.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	defer f.Close()
	return store.Decode(f)
}

func (m *FileMedium) Location() string { return m.path }

func (m *FileMedium) Path() string { return m.path }

func (m *FileMedium) Close() error { return nil }
