package images

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

var refPattern = regexp.MustCompile(`^[0-9a-f-]{36}\.[a-z0-9]+$`)

// FileStore keeps images as files in one directory. References are bare
// file names.
type FileStore struct {
	dir string
}

// NewFileStore creates dir if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		dir = filepath.Join(home, ".config", "calorilog", "images")
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create image directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Put implements Store.
func (s *FileStore) Put(_ context.Context, data []byte, mimeType string) (string, error) {
	name, err := newName(mimeType)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0600); err != nil {
		return "", fmt.Errorf("failed to write image: %w", err)
	}
	return name, nil
}

// Get implements Store.
func (s *FileStore) Get(_ context.Context, ref string) ([]byte, string, error) {
	if !refPattern.MatchString(ref) {
		return nil, "", ErrInvalidRef
	}
	data, err := os.ReadFile(filepath.Join(s.dir, ref))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", ErrNotFound
		}
		return nil, "", fmt.Errorf("failed to read image: %w", err)
	}
	return data, ContentType(ref), nil
}

// Delete implements Store.
func (s *FileStore) Delete(_ context.Context, ref string) error {
	if !refPattern.MatchString(ref) {
		return ErrInvalidRef
	}
	if err := os.Remove(filepath.Join(s.dir, ref)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	return nil
}

var _ Store = (*FileStore)(nil)
