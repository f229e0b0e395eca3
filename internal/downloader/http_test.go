package downloader

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jrauso/mashup-maker/internal/domain"
)

// mp3Payload is a minimal body that passes audio validation.
var mp3Payload = append([]byte("ID3"), bytes.Repeat([]byte{0x00}, 64)...)

func TestHTTPFetcherDownloadsAudio(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Disposition", `attachment; filename="clip.mp3"`)
		w.Write(mp3Payload)
	}))
	defer server.Close()

	f := NewHTTPFetcher()
	src := domain.Source{ID: "abc123", URL: server.URL}

	path, err := f.FetchAudio(context.Background(), src, t.TempDir(), nil)

	require.NoError(t, err)
	assert.Equal(t, "clip.mp3", filepath.Base(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, mp3Payload, data)
}

func TestHTTPFetcherNamesFileFromURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(mp3Payload)
	}))
	defer server.Close()

	f := NewHTTPFetcher()
	src := domain.Source{ID: "abc123", URL: server.URL + "/tracks/nightdrive.mp3"}

	path, err := f.FetchAudio(context.Background(), src, t.TempDir(), nil)

	require.NoError(t, err)
	assert.Equal(t, "nightdrive.mp3", filepath.Base(path))
}

func TestHTTPFetcherRejectsHTML(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body>consent required</body></html>"))
	}))
	defer server.Close()

	f := NewHTTPFetcher()
	src := domain.Source{ID: "abc123", URL: server.URL}

	_, err := f.FetchAudio(context.Background(), src, t.TempDir(), nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTML")

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.False(t, fetchErr.Retryable())
}

func TestHTTPFetcherClassifiesServerErrors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		retryable bool
	}{
		{"service unavailable", http.StatusServiceUnavailable, true},
		{"too many requests", http.StatusTooManyRequests, true},
		{"not found", http.StatusNotFound, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			f := NewHTTPFetcher()
			_, err := f.FetchAudio(context.Background(), domain.Source{ID: "a", URL: server.URL}, t.TempDir(), nil)

			require.Error(t, err)
			var fetchErr *FetchError
			require.ErrorAs(t, err, &fetchErr)
			assert.Equal(t, tt.retryable, fetchErr.Retryable())
		})
	}
}

func TestHTTPFetcherReportsProgress(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", strconv.Itoa(len(mp3Payload)))
		w.Write(mp3Payload)
	}))
	defer server.Close()

	var percents []int
	f := NewHTTPFetcher()
	_, err := f.FetchAudio(context.Background(), domain.Source{ID: "a", URL: server.URL}, t.TempDir(), func(percent int, message string) {
		percents = append(percents, percent)
	})

	require.NoError(t, err)
	require.NotEmpty(t, percents)
	assert.Equal(t, 100, percents[len(percents)-1])
}

func TestHTTPFetcherSupportsSource(t *testing.T) {
	f := NewHTTPFetcher()

	assert.True(t, f.SupportsSource(domain.Source{URL: "https://example.com/a.mp3"}))
	assert.True(t, f.SupportsSource(domain.Source{URL: "http://example.com/a.mp3"}))
	assert.False(t, f.SupportsSource(domain.Source{URL: "ftp://example.com/a.mp3"}))
	assert.False(t, f.SupportsSource(domain.Source{URL: ""}))
}

func TestValidateAudioPayload(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
		wantErr bool
	}{
		{"id3 tagged mp3", mp3Payload, false},
		{"raw mp3 frame", []byte{0xFF, 0xFB, 0x90, 0x00, 0x00}, false},
		{"wav", []byte("RIFF....WAVE"), false},
		{"flac", []byte("fLaC...."), false},
		{"html page", []byte("<!DOCTYPE html><html></html>"), true},
		{"too small", []byte{0x01}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "payload")
			require.NoError(t, os.WriteFile(path, tt.content, 0644))

			err := validateAudioPayload(path)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
