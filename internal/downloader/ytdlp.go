package downloader

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lrstanley/go-ytdlp"

	"github.com/jrauso/mashup-maker/internal/domain"
)

const (
	// Mobile clients are throttled far less aggressively than the web player.
	mobileUserAgent = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_5 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.5 Mobile/15E148 Safari/604.1"

	// Environment variables holding optional platform auth material.
	// Values are forwarded to the extractor verbatim.
	envPoToken     = "YOUTUBE_PO_TOKEN"
	envVisitorData = "YOUTUBE_VISITOR_DATA"
)

// YtdlpFetcher downloads source audio through yt-dlp.
type YtdlpFetcher struct {
	audioFormat string
	poToken     string
	visitorData string
}

// NewYtdlpFetcher creates a yt-dlp backed fetcher producing audioFormat
// files. Optional auth tokens are read from the environment.
func NewYtdlpFetcher(audioFormat string) *YtdlpFetcher {
	f := &YtdlpFetcher{
		audioFormat: audioFormat,
		poToken:     os.Getenv(envPoToken),
		visitorData: os.Getenv(envVisitorData),
	}
	if f.poToken == "" {
		slog.Debug("no PO token configured, downloads may be throttled", "env", envPoToken)
	}
	return f
}

// SupportsSource checks if the source URL points at a platform page
// yt-dlp can extract
func (f *YtdlpFetcher) SupportsSource(source domain.Source) bool {
	return strings.Contains(source.URL, "youtube.com") || strings.Contains(source.URL, "youtu.be")
}

// FetchAudio downloads the audio stream of source into destDir and
// returns the path of the resulting file.
func (f *YtdlpFetcher) FetchAudio(ctx context.Context, source domain.Source, destDir string, progress ProgressFunc) (string, error) {
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create download directory: %w", err)
	}

	dl := ytdlp.New().
		NoPlaylist().
		ExtractAudio().
		AudioFormat(f.audioFormat).
		AudioQuality("192K").
		ForceOverwrites().
		RestrictFilenames().
		UserAgent(mobileUserAgent).
		Output(filepath.Join(destDir, "%(id)s.%(ext)s"))

	if args := f.extractorArgs(); args != "" {
		dl.ExtractorArgs(args)
	}

	if progress != nil {
		dl.ProgressFunc(500*time.Millisecond, func(update ytdlp.ProgressUpdate) {
			if update.TotalBytes > 0 {
				percent := int(float64(update.DownloadedBytes) / float64(update.TotalBytes) * 100)
				progress(percent, fmt.Sprintf("downloading %s", source.DisplayTitle()))
			}
		})
	}

	if _, err := dl.Run(ctx, source.URL); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", Classify(source, fmt.Errorf("yt-dlp failed: %w", err))
	}

	path, err := f.locateAudioFile(destDir, source.ID)
	if err != nil {
		return "", Classify(source, err)
	}

	slog.Debug("downloaded source audio", "source", source.ID, "path", path)
	return path, nil
}

// extractorArgs builds the platform extractor argument string from the
// configured auth tokens.
func (f *YtdlpFetcher) extractorArgs() string {
	var parts []string
	if f.poToken != "" {
		parts = append(parts, "po_token="+f.poToken)
	}
	if f.visitorData != "" {
		parts = append(parts, "visitor_data="+f.visitorData)
	}
	if len(parts) == 0 {
		return ""
	}
	return "youtube:" + strings.Join(parts, ";")
}

// locateAudioFile finds the downloaded file for a source ID. yt-dlp
// names files <id>.<ext>, but the final extension can differ from the
// requested format when no re-encode was needed.
func (f *YtdlpFetcher) locateAudioFile(destDir, sourceID string) (string, error) {
	want := filepath.Join(destDir, sourceID+"."+f.audioFormat)
	if _, err := os.Stat(want); err == nil {
		return want, nil
	}

	matches, err := filepath.Glob(filepath.Join(destDir, sourceID+".*"))
	if err != nil {
		return "", fmt.Errorf("error scanning download directory: %w", err)
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("no audio file found for source %s in %s", sourceID, destDir)
	}
	return matches[0], nil
}
