package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStorage implements Storage interface with file-based persistence.
// Writes go to disk and are mirrored in memory for listing.
type FileStorage struct {
	mu       sync.Mutex
	basePath string
	memory   *MemoryStorage
}

// NewFileStorage creates a new file-based storage rooted at basePath
func NewFileStorage(basePath string) (*FileStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", basePath, err)
	}

	return &FileStorage{
		basePath: basePath,
		memory:   NewMemoryStorage(),
	}, nil
}

// BasePath returns the storage root
func (f *FileStorage) BasePath() string {
	return f.basePath
}

// Write writes data to basePath/name, creating parent directories
func (f *FileStorage) Write(name string, data []byte) error {
	name, err := CleanName(name)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	target := f.path(name)
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", name, err)
	}
	if err := os.WriteFile(target, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}

	return f.memory.Write(name, data)
}

// Read reads basePath/name from disk
func (f *FileStorage) Read(name string) ([]byte, error) {
	name, err := CleanName(name)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(f.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
		}
		return nil, err
	}
	return data, nil
}

// List returns the names written through this storage
func (f *FileStorage) List() []string {
	return f.memory.List()
}

// Close closes the storage
func (f *FileStorage) Close() error {
	return nil
}

func (f *FileStorage) path(name string) string {
	return filepath.Join(f.basePath, filepath.FromSlash(name))
}
