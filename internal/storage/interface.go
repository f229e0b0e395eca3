// Package storage persists finished mashups either on the local
// filesystem or in a Google Cloud Storage bucket.
package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/jrauso/mashup-maker/config"
)

// Storage defines the interface for persisting finished mashup files.
type Storage interface {
	// Store copies the file at localPath to destPath and returns the
	// final location: an absolute path for local storage, an object
	// URL for bucket storage.
	Store(ctx context.Context, localPath, destPath string) (string, error)

	// GetReader returns a reader for a previously stored file
	GetReader(ctx context.Context, path string) (io.ReadCloser, error)

	// FileExists checks if a stored file exists
	FileExists(ctx context.Context, path string) bool
}

// NewStorage builds the storage backend named by the configuration.
func NewStorage(ctx context.Context, cfg *config.Config) (Storage, error) {
	switch cfg.Storage.Type {
	case "local":
		return NewLocalStorage(cfg.Storage.OutputDir)
	case "gcs":
		return NewGCSStorage(ctx, cfg.Storage.Bucket, cfg.Storage.Prefix, cfg.Storage.CredentialsFile)
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Storage.Type)
	}
}
