package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSStorage implements the Storage interface for Google Cloud Storage
type GCSStorage struct {
	client       *storage.Client
	bucket       string
	objectPrefix string
}

// NewGCSStorage creates a new GCSStorage instance
func NewGCSStorage(ctx context.Context, bucketName, objectPrefix, credentialsFile string) (*GCSStorage, error) {
	var client *storage.Client
	var err error

	if credentialsFile != "" {
		client, err = storage.NewClient(ctx, option.WithCredentialsFile(credentialsFile))
	} else {
		// Use application default credentials
		client, err = storage.NewClient(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}

	return &GCSStorage{
		client:       client,
		bucket:       bucketName,
		objectPrefix: objectPrefix,
	}, nil
}

// objectName resolves a destination path to the full object name,
// tolerating gs:// URLs returned by earlier Store calls.
func (s *GCSStorage) objectName(path string) string {
	name := strings.TrimPrefix(path, "gs://"+s.bucket+"/")
	name = strings.TrimPrefix(name, "/")
	if s.objectPrefix != "" && !strings.HasPrefix(name, s.objectPrefix+"/") {
		name = s.objectPrefix + "/" + name
	}
	return name
}

// Store uploads a local file to the bucket and returns its gs:// URL.
func (s *GCSStorage) Store(ctx context.Context, localPath, destPath string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to open file %s: %w", localPath, err)
	}
	defer f.Close()

	objectName := s.objectName(destPath)

	ctx, cancel := context.WithTimeout(ctx, time.Minute*5)
	defer cancel()

	wc := s.client.Bucket(s.bucket).Object(objectName).NewWriter(ctx)
	if _, err := io.Copy(wc, f); err != nil {
		return "", fmt.Errorf("failed to copy file to GCS: %w", err)
	}
	if err := wc.Close(); err != nil {
		return "", fmt.Errorf("failed to close GCS writer: %w", err)
	}

	return fmt.Sprintf("gs://%s/%s", s.bucket, objectName), nil
}

// GetReader returns a reader for a stored object
func (s *GCSStorage) GetReader(ctx context.Context, path string) (io.ReadCloser, error) {
	return s.client.Bucket(s.bucket).Object(s.objectName(path)).NewReader(ctx)
}

// FileExists checks if an object exists in the bucket
func (s *GCSStorage) FileExists(ctx context.Context, path string) bool {
	_, err := s.client.Bucket(s.bucket).Object(s.objectName(path)).Attrs(ctx)
	return err == nil
}

// Close closes the GCS client
func (s *GCSStorage) Close() error {
	return s.client.Close()
}
