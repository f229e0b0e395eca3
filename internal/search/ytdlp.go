package search

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/lrstanley/go-ytdlp"

	"github.com/jrauso/mashup-maker/internal/domain"
)

const watchURLTemplate = "https://www.youtube.com/watch?v=%s"

// YtdlpResolver finds sources through yt-dlp's flat search extraction.
type YtdlpResolver struct{}

func NewYtdlpResolver() *YtdlpResolver {
	return &YtdlpResolver{}
}

func (r *YtdlpResolver) Name() string {
	return "ytdlp"
}

// Resolve runs a platform search for the artist and returns up to
// count sources.
func (r *YtdlpResolver) Resolve(ctx context.Context, artist string, count int) ([]domain.Source, error) {
	query := fmt.Sprintf("ytsearch%d:%s", count, artist)

	dl := ytdlp.New().
		FlatPlaylist().
		SkipDownload().
		DumpSingleJSON()

	result, err := dl.Run(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	sources, err := parseFlatSearch([]byte(result.Stdout), count)
	if err != nil {
		return nil, err
	}

	slog.Debug("resolved sources", "resolver", r.Name(), "artist", artist, "count", len(sources))
	return sources, nil
}

// flatSearchEntry is the subset of a yt-dlp flat playlist entry we use
type flatSearchEntry struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	URL      string  `json:"url"`
	Uploader string  `json:"uploader"`
	Duration float64 `json:"duration"`
}

// parseFlatSearch extracts sources from a yt-dlp single-JSON flat
// search dump. Entries without an ID are dropped.
func parseFlatSearch(data []byte, count int) ([]domain.Source, error) {
	var dump struct {
		Entries []flatSearchEntry `json:"entries"`
	}
	if err := json.Unmarshal(data, &dump); err != nil {
		return nil, fmt.Errorf("failed to parse search output: %w", err)
	}

	sources := make([]domain.Source, 0, len(dump.Entries))
	for _, entry := range dump.Entries {
		if entry.ID == "" {
			continue
		}
		url := entry.URL
		if url == "" {
			url = fmt.Sprintf(watchURLTemplate, entry.ID)
		}
		sources = append(sources, domain.Source{
			ID:       entry.ID,
			Title:    entry.Title,
			URL:      url,
			Uploader: entry.Uploader,
			Duration: entry.Duration,
		})
		if len(sources) == count {
			break
		}
	}
	return sources, nil
}
