package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
)

// LocalUploadsDir is where new local uploads land, relative to the storage root
const LocalUploadsDir = "uploads"

// LocalStorage keeps image bytes in a directory tree on disk
type LocalStorage struct {
	root string
}

// NewLocalStorage creates a local backend rooted at root
func NewLocalStorage(root string) *LocalStorage {
	return &LocalStorage{root: root}
}

func (l *LocalStorage) Name() string {
	return BackendLocal
}

// Root returns the directory all references resolve under
func (l *LocalStorage) Root() string {
	return l.root
}

// Put writes content under uploads/<key> and returns that relative path
func (l *LocalStorage) Put(_ context.Context, key string, content []byte, _ string) (ref string, err error) {
	ref = NormalizeReference(path.Join(LocalUploadsDir, key))
	fullPath, err := l.Resolve(ref)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	dst, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to create destination file: %w", err)
	}
	defer func() {
		if closeErr := dst.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close destination file: %w", closeErr)
		}
	}()

	if _, err := dst.Write(content); err != nil {
		return "", fmt.Errorf("failed to save file: %w", err)
	}

	return ref, nil
}

// Delete removes the file behind ref. A file that is already gone is not an error.
func (l *LocalStorage) Delete(_ context.Context, ref string) error {
	fullPath, err := l.Resolve(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// Resolve maps a relative reference in any historical convention to a path under the root
func (l *LocalStorage) Resolve(ref string) (string, error) {
	if IsAbsoluteURL(ref) {
		return "", fmt.Errorf("reference %q is not a local path", ref)
	}
	rel := NormalizeReference(ref)
	if rel == "" {
		return "", fmt.Errorf("invalid image reference %q", ref)
	}
	return filepath.Join(l.root, filepath.FromSlash(rel)), nil
}
