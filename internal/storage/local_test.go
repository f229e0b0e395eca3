package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jrauso/mashup-maker/config"
)

func TestLocalStorageStore(t *testing.T) {
	outputDir := t.TempDir()
	s, err := NewLocalStorage(outputDir)
	require.NoError(t, err)

	src := filepath.Join(t.TempDir(), "mashup.mp3")
	require.NoError(t, os.WriteFile(src, []byte("audio"), 0644))

	stored, err := s.Store(context.Background(), src, "artist-mashup.mp3")
	require.NoError(t, err)

	assert.True(t, filepath.IsAbs(stored))
	data, err := os.ReadFile(stored)
	require.NoError(t, err)
	assert.Equal(t, []byte("audio"), data)
	assert.True(t, s.FileExists(context.Background(), "artist-mashup.mp3"))
}

func TestLocalStorageStoreAbsoluteDestination(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	src := filepath.Join(t.TempDir(), "mashup.mp3")
	require.NoError(t, os.WriteFile(src, []byte("audio"), 0644))

	dest := filepath.Join(t.TempDir(), "nested", "final.mp3")
	stored, err := s.Store(context.Background(), src, dest)
	require.NoError(t, err)

	assert.Equal(t, dest, stored)
	assert.FileExists(t, dest)
}

func TestLocalStorageStoreMissingSource(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	_, err = s.Store(context.Background(), filepath.Join(t.TempDir(), "missing.mp3"), "out.mp3")
	assert.Error(t, err)
}

func TestLocalStorageGetReader(t *testing.T) {
	outputDir := t.TempDir()
	s, err := NewLocalStorage(outputDir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(outputDir, "a.mp3"), []byte("x"), 0644))

	r, err := s.GetReader(context.Background(), "a.mp3")
	require.NoError(t, err)
	defer r.Close()

	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), data)
}

func TestLocalStorageFileExists(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	assert.False(t, s.FileExists(context.Background(), "nope.mp3"))
}

func TestNewStorage(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.OutputDir = t.TempDir()

	s, err := NewStorage(context.Background(), cfg)
	require.NoError(t, err)
	assert.IsType(t, &LocalStorage{}, s)
}

func TestNewStorageUnknownType(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Type = "s3"

	_, err := NewStorage(context.Background(), cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown storage type")
}
