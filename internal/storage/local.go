package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// LocalStorage implements the Storage interface for the local filesystem
type LocalStorage struct {
	outputDir string
}

// NewLocalStorage creates a local storage instance rooted at outputDir.
func NewLocalStorage(outputDir string) (*LocalStorage, error) {
	if err := os.MkdirAll(outputDir, os.ModePerm); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %w", outputDir, err)
	}
	return &LocalStorage{outputDir: outputDir}, nil
}

// resolve maps relative destinations under the configured output
// directory.
func (s *LocalStorage) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(s.outputDir, path)
}

// Store copies localPath to destPath and returns the absolute path of
// the stored file.
func (s *LocalStorage) Store(ctx context.Context, localPath, destPath string) (string, error) {
	destPath = s.resolve(destPath)

	if err := os.MkdirAll(filepath.Dir(destPath), os.ModePerm); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	src, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", localPath, err)
	}
	defer src.Close()

	dst, err := os.Create(destPath)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", destPath, err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return "", fmt.Errorf("failed to copy to %s: %w", destPath, err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("failed to close %s: %w", destPath, err)
	}

	abs, err := filepath.Abs(destPath)
	if err != nil {
		return destPath, nil
	}
	return abs, nil
}

// GetReader returns a reader for the specified file
func (s *LocalStorage) GetReader(ctx context.Context, path string) (io.ReadCloser, error) {
	return os.Open(s.resolve(path))
}

// FileExists checks if a file exists
func (s *LocalStorage) FileExists(ctx context.Context, path string) bool {
	_, err := os.Stat(s.resolve(path))
	return err == nil
}
