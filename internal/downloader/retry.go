package downloader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"github.com/jrauso/mashup-maker/internal/domain"
)

// DefaultMaxRetries is the number of additional attempts made after a
// retryable failure.
const DefaultMaxRetries = 3

// RetryingFetcher wraps another fetcher with exponential backoff on
// retryable failures. Fatal failures are returned immediately.
type RetryingFetcher struct {
	next       Fetcher
	maxRetries int

	// sleep waits between attempts, swappable in tests
	sleep func(ctx context.Context, d time.Duration) error
}

// NewRetryingFetcher wraps next with up to maxRetries retry attempts.
func NewRetryingFetcher(next Fetcher, maxRetries int) *RetryingFetcher {
	if maxRetries < 0 {
		maxRetries = DefaultMaxRetries
	}
	return &RetryingFetcher{
		next:       next,
		maxRetries: maxRetries,
		sleep:      sleepContext,
	}
}

// SupportsSource defers to the wrapped fetcher
func (f *RetryingFetcher) SupportsSource(source domain.Source) bool {
	return f.next.SupportsSource(source)
}

// FetchAudio attempts the download, retrying retryable failures with
// exponential backoff plus jitter.
func (f *RetryingFetcher) FetchAudio(ctx context.Context, source domain.Source, destDir string, progress ProgressFunc) (string, error) {
	var lastErr error

	for attempt := 0; attempt <= f.maxRetries; attempt++ {
		if attempt > 0 {
			delay := backoffDelay(attempt - 1)
			slog.Debug("retrying download", "source", source.ID, "attempt", attempt, "delay", delay)
			if err := f.sleep(ctx, delay); err != nil {
				return "", err
			}
		}

		path, err := f.next.FetchAudio(ctx, source, destDir, progress)
		if err == nil {
			return path, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return "", err
		}

		var fetchErr *FetchError
		if errors.As(err, &fetchErr) && !fetchErr.Retryable() {
			return "", err
		}
	}

	return "", fmt.Errorf("giving up after %d retries: %w", f.maxRetries, lastErr)
}

// backoffDelay returns the wait before the retry following the given
// failed attempt: 2^attempt seconds plus up to a second of jitter.
func backoffDelay(attempt int) time.Duration {
	seconds := math.Pow(2, float64(attempt)) + rand.Float64()
	return time.Duration(seconds * float64(time.Second))
}

// sleepContext waits for d or until ctx is cancelled
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
