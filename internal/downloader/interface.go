// Package downloader provides functionality for fetching source audio
// onto local disk. It includes a yt-dlp backed fetcher for video
// platform pages and a plain HTTP fetcher for direct audio links.
package downloader

import (
	"context"

	"github.com/jrauso/mashup-maker/internal/domain"
)

// ProgressFunc is a function type for progress updates during a fetch.
// percent is in the range 0-100.
type ProgressFunc func(percent int, message string)

// Fetcher represents a generic audio fetcher interface
type Fetcher interface {
	// FetchAudio downloads the audio of the given source into destDir
	// and returns the path to the downloaded file.
	// progress can be nil if progress updates are not needed.
	FetchAudio(ctx context.Context, source domain.Source, destDir string, progress ProgressFunc) (string, error)

	// SupportsSource checks if this fetcher can handle the given source
	SupportsSource(source domain.Source) bool
}
