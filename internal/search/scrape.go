package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly"

	"github.com/jrauso/mashup-maker/internal/domain"
)

const resultsURLTemplate = "https://www.youtube.com/results?search_query=%s"

// videoRendererPattern captures the video ID and title of each result
// embedded in the initial data script of a results page.
var videoRendererPattern = regexp.MustCompile(`"videoRenderer":\{"videoId":"([^"]+)"(?s:.*?)"title":\{"runs":\[\{"text":"((?:[^"\\]|\\.)*)"`)

// ScrapeResolver extracts search results straight from the platform's
// results page. It exists as a fallback for when yt-dlp is missing or
// blocked.
type ScrapeResolver struct {
	maxRetries int
	baseDelay  time.Duration
	userAgents []string
}

func NewScrapeResolver() *ScrapeResolver {
	return &ScrapeResolver{
		maxRetries: 2,
		baseDelay:  2 * time.Second,
		userAgents: []string{
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		},
	}
}

func (r *ScrapeResolver) Name() string {
	return "scrape"
}

// Resolve fetches the results page for the artist query and parses the
// embedded result entries.
func (r *ScrapeResolver) Resolve(ctx context.Context, artist string, count int) ([]domain.Source, error) {
	c := colly.NewCollector(
		colly.AllowURLRevisit(),
		colly.MaxDepth(1),
		colly.UserAgent(r.userAgents[rand.Intn(len(r.userAgents))]),
	)
	c.SetRequestTimeout(30 * time.Second)

	c.OnRequest(func(req *colly.Request) {
		req.Headers.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		req.Headers.Set("Accept-Language", "en-US,en;q=0.5")
	})

	var body []byte
	c.OnResponse(func(resp *colly.Response) {
		body = resp.Body
	})

	searchURL := fmt.Sprintf(resultsURLTemplate, url.QueryEscape(artist))
	if err := r.visitWithRetries(ctx, c, searchURL); err != nil {
		return nil, err
	}

	sources, err := parseSearchPage(body, count)
	if err != nil {
		return nil, err
	}

	slog.Debug("resolved sources", "resolver", r.Name(), "artist", artist, "count", len(sources))
	return sources, nil
}

func (r *ScrapeResolver) visitWithRetries(ctx context.Context, c *colly.Collector, searchURL string) error {
	var lastErr error
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if attempt > 0 {
			delay := r.baseDelay * time.Duration(1<<uint(attempt-1))
			slog.Debug("retrying search page", "attempt", attempt+1, "delay", delay.String())
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		lastErr = c.Visit(searchURL)
		if lastErr == nil {
			return nil
		}
		slog.Warn("search page request failed", "attempt", attempt+1, "error", lastErr)
	}
	return fmt.Errorf("failed after %d attempts: %w", r.maxRetries+1, lastErr)
}

// parseSearchPage extracts video results from the initial data blob
// embedded in a results page. Duplicate IDs are dropped.
func parseSearchPage(body []byte, count int) ([]domain.Source, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse search page: %w", err)
	}

	var initialData string
	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := s.Text()
		if strings.Contains(text, "ytInitialData") {
			initialData = text
			return false
		}
		return true
	})
	if initialData == "" {
		return nil, fmt.Errorf("no initial data script found in search page")
	}

	matches := videoRendererPattern.FindAllStringSubmatch(initialData, -1)
	seen := make(map[string]bool)
	var sources []domain.Source
	for _, m := range matches {
		id := m[1]
		if seen[id] {
			continue
		}
		seen[id] = true

		// Titles are JSON string bodies, unmarshal to unescape them
		var title string
		if err := json.Unmarshal([]byte(`"`+m[2]+`"`), &title); err != nil {
			title = m[2]
		}

		sources = append(sources, domain.Source{
			ID:    id,
			Title: title,
			URL:   fmt.Sprintf(watchURLTemplate, id),
		})
		if len(sources) == count {
			break
		}
	}

	if len(sources) == 0 {
		return nil, fmt.Errorf("no results found in search page")
	}
	return sources, nil
}
