package services

import (
	"context"
	"fmt"

	"github.com/kendall-kelly/tailor-orders-api/config"
)

const (
	BackendLocal = "local"
	BackendS3    = "s3"
)

// StorageBackend persists image bytes and removes them again.
// Put returns the reference stored on the order_images row.
type StorageBackend interface {
	Name() string
	Put(ctx context.Context, key string, content []byte, contentType string) (string, error)
	Delete(ctx context.Context, reference string) error
}

// NewStorageBackend picks the backend for this deployment. S3 is used whenever
// its credentials are configured, otherwise the local tree under STORAGE_ROOT.
func NewStorageBackend(ctx context.Context, cfg *config.Config, local *LocalStorage) (StorageBackend, error) {
	if !cfg.UsesRemoteStorage() {
		return local, nil
	}

	remote, err := NewS3Storage(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize S3 storage: %w", err)
	}
	return remote, nil
}
