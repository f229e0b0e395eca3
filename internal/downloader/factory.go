package downloader

import (
	"context"
	"fmt"

	"github.com/jrauso/mashup-maker/config"
	"github.com/jrauso/mashup-maker/internal/domain"
)

// routingFetcher picks the first registered fetcher that supports the
// source
type routingFetcher struct {
	fetchers []Fetcher
}

func (r *routingFetcher) SupportsSource(source domain.Source) bool {
	for _, f := range r.fetchers {
		if f.SupportsSource(source) {
			return true
		}
	}
	return false
}

func (r *routingFetcher) FetchAudio(ctx context.Context, source domain.Source, destDir string, progress ProgressFunc) (string, error) {
	for _, f := range r.fetchers {
		if f.SupportsSource(source) {
			return f.FetchAudio(ctx, source, destDir, progress)
		}
	}
	return "", &FetchError{Source: source, Kind: KindFatal, Err: fmt.Errorf("no fetcher available for URL: %s", source.URL)}
}

// NewFetcher builds the default fetcher chain: platform pages go
// through yt-dlp, anything else falls back to a plain HTTP download,
// and the whole chain is wrapped with retries.
func NewFetcher(cfg *config.Config) Fetcher {
	router := &routingFetcher{
		fetchers: []Fetcher{
			NewYtdlpFetcher(cfg.OutputFormat),
			NewHTTPFetcher(),
		},
	}
	return NewRetryingFetcher(router, cfg.MaxRetries)
}
