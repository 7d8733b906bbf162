package storage

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

// ErrNotFound is returned when an artifact does not exist
var ErrNotFound = errors.New("artifact not found")

// Storage defines where generated artifacts are written. Names are
// slash-separated paths relative to the storage root.
type Storage interface {
	// Write stores data under name, replacing any previous content
	Write(name string, data []byte) error
	// Read returns the content stored under name
	Read(name string) ([]byte, error)
	// List returns the stored names in write order
	List() []string

	// Utility
	Close() error
}

// CleanName validates name and returns its canonical form
func CleanName(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("empty artifact name")
	}
	if strings.HasPrefix(name, "/") || strings.Contains(name, `\`) {
		return "", fmt.Errorf("artifact name %q must be a relative slash-separated path", name)
	}

	cleaned := path.Clean(name)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("artifact name %q escapes the storage root", name)
	}
	return cleaned, nil
}
