// Package search resolves an artist query into a ranked list of
// platform sources to download.
package search

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jrauso/mashup-maker/internal/domain"
)

// Resolver finds sources matching an artist query.
type Resolver interface {
	Resolve(ctx context.Context, artist string, count int) ([]domain.Source, error)
	Name() string
}

// CompositeResolver tries multiple resolvers in sequence until one
// returns results
type CompositeResolver struct {
	resolvers []Resolver
}

func (c *CompositeResolver) Name() string {
	return "composite"
}

func NewCompositeResolver(resolvers ...Resolver) *CompositeResolver {
	return &CompositeResolver{resolvers: resolvers}
}

func (c *CompositeResolver) Resolve(ctx context.Context, artist string, count int) ([]domain.Source, error) {
	var errors []error
	for _, resolver := range c.resolvers {
		sources, err := resolver.Resolve(ctx, artist, count)
		if err == nil && len(sources) > 0 {
			return sources, nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			slog.Warn("resolver failed, trying next", "resolver", resolver.Name(), "error", err)
			errors = append(errors, fmt.Errorf("%s: %v", resolver.Name(), err))
			continue
		}
		slog.Warn("resolver returned no results, trying next", "resolver", resolver.Name())
	}
	if len(errors) > 0 {
		return nil, fmt.Errorf("all resolvers failed: %v", errors)
	}
	return nil, nil
}

// NewResolver builds the default resolver chain: yt-dlp search first,
// with results page scraping as a fallback.
func NewResolver() Resolver {
	return NewCompositeResolver(
		NewYtdlpResolver(),
		NewScrapeResolver(),
	)
}
