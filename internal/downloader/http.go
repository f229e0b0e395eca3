package downloader

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jrauso/mashup-maker/internal/domain"
)

// Default timeout for a single download. Long because source files can
// run to hours of audio.
const defaultFetchTimeout = 30 * time.Minute

// HTTPFetcher handles downloading from direct HTTP audio links
type HTTPFetcher struct {
	client *http.Client
}

// NewHTTPFetcher creates a new HTTP fetcher
func NewHTTPFetcher() *HTTPFetcher {
	return &HTTPFetcher{
		client: &http.Client{
			Timeout: defaultFetchTimeout,
		},
	}
}

// SupportsSource checks if the source URL is a generic HTTP/HTTPS link
func (f *HTTPFetcher) SupportsSource(source domain.Source) bool {
	return strings.HasPrefix(source.URL, "http://") || strings.HasPrefix(source.URL, "https://")
}

// FetchAudio downloads the source URL into destDir and validates that
// the payload looks like audio.
func (f *HTTPFetcher) FetchAudio(ctx context.Context, source domain.Source, destDir string, progress ProgressFunc) (string, error) {
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create download directory: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source.URL, nil)
	if err != nil {
		return "", &FetchError{Source: source, Kind: KindFatal, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("User-Agent", mobileUserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", Classify(source, fmt.Errorf("failed to download: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", Classify(source, fmt.Errorf("download failed with status: %d", resp.StatusCode))
	}

	outputPath := filepath.Join(destDir, f.fileName(source, resp))
	outFile, err := os.Create(outputPath)
	if err != nil {
		return "", fmt.Errorf("failed to create output file: %w", err)
	}
	defer outFile.Close()

	var body io.Reader = resp.Body
	if progress != nil && resp.ContentLength > 0 {
		body = io.TeeReader(resp.Body, &progressWriter{
			total:    resp.ContentLength,
			source:   source,
			progress: progress,
		})
	}

	written, err := io.Copy(outFile, body)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", Classify(source, fmt.Errorf("failed to save file: %w", err))
	}
	if written == 0 {
		return "", &FetchError{Source: source, Kind: KindFatal, Err: fmt.Errorf("downloaded file is empty")}
	}

	if err := validateAudioPayload(outputPath); err != nil {
		return "", &FetchError{Source: source, Kind: KindFatal, Err: err}
	}

	slog.Debug("downloaded source audio", "source", source.ID, "path", outputPath, "size", written)
	return outputPath, nil
}

// fileName derives the output file name from the Content-Disposition
// header or the URL path, defaulting to the source ID.
func (f *HTTPFetcher) fileName(source domain.Source, resp *http.Response) string {
	filename := source.ID
	if contentDisp := resp.Header.Get("Content-Disposition"); contentDisp != "" {
		if idx := strings.Index(contentDisp, "filename="); idx != -1 {
			filename = filepath.Base(strings.Trim(contentDisp[idx+9:], "\""))
		}
	} else if u, err := url.Parse(source.URL); err == nil && u.Path != "" {
		if name := filepath.Base(u.Path); name != "" && name != "." && name != "/" {
			filename = name
		}
	}
	if !strings.Contains(filename, ".") {
		filename += ".mp3"
	}
	return filename
}

// progressWriter reports copy progress as a percentage of the expected
// content length.
type progressWriter struct {
	total    int64
	written  int64
	lastPct  int
	source   domain.Source
	progress ProgressFunc
}

func (w *progressWriter) Write(p []byte) (int, error) {
	w.written += int64(len(p))
	pct := int(float64(w.written) / float64(w.total) * 100)
	if pct > 100 {
		pct = 100
	}
	if pct != w.lastPct {
		w.lastPct = pct
		w.progress(pct, fmt.Sprintf("downloading %s", w.source.DisplayTitle()))
	}
	return len(p), nil
}

// validateAudioPayload performs basic validation to ensure the
// downloaded file is likely an audio file
func validateAudioPayload(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open file for validation: %w", err)
	}
	defer file.Close()

	// Read first 512 bytes to check file signature
	buffer := make([]byte, 512)
	n, err := file.Read(buffer)
	if err != nil && err != io.EOF {
		return fmt.Errorf("failed to read file header: %w", err)
	}

	if n < 4 {
		return fmt.Errorf("file too small to be a valid audio file")
	}

	header := buffer[:n]

	// MP3 signatures
	if header[0] == 0xFF && (header[1]&0xE0) == 0xE0 {
		return nil // MP3 frame header
	}
	if string(header[:3]) == "ID3" {
		return nil // MP3 with ID3 tag
	}

	// Other audio formats
	if string(header[:4]) == "RIFF" {
		return nil // WAV
	}
	if string(header[:4]) == "fLaC" {
		return nil // FLAC
	}
	if string(header[:4]) == "OggS" {
		return nil // OGG
	}
	if len(header) >= 8 && string(header[4:8]) == "ftyp" {
		return nil // M4A/MP4
	}

	// Check if it looks like HTML/text (common when download fails)
	checkLen := len(header)
	if checkLen > 100 {
		checkLen = 100
	}
	headerStr := strings.ToLower(string(header[:checkLen]))
	if strings.Contains(headerStr, "<html") || strings.Contains(headerStr, "<!doctype") {
		return fmt.Errorf("downloaded file appears to be HTML, not an audio file")
	}

	// Log warning but don't fail - let ffmpeg try to handle it
	headerLen := len(header)
	if headerLen > 16 {
		headerLen = 16
	}
	slog.Warn("Could not verify audio file format, proceeding anyway", "path", path, "header", fmt.Sprintf("%x", header[:headerLen]))
	return nil
}
