package downloader

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jrauso/mashup-maker/internal/domain"
)

// scriptedFetcher returns the queued errors in order, then succeeds.
type scriptedFetcher struct {
	errs     []error
	attempts int
	path     string
}

func (s *scriptedFetcher) FetchAudio(ctx context.Context, source domain.Source, destDir string, progress ProgressFunc) (string, error) {
	s.attempts++
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		return "", err
	}
	return s.path, nil
}

func (s *scriptedFetcher) SupportsSource(source domain.Source) bool {
	return true
}

func noSleep(ctx context.Context, d time.Duration) error {
	return ctx.Err()
}

func retryable(msg string) error {
	return &FetchError{Kind: KindRetryable, Err: fmt.Errorf("%s", msg)}
}

func TestRetrySucceedsAfterTransientFailures(t *testing.T) {
	next := &scriptedFetcher{
		errs: []error{retryable("throttled"), retryable("throttled again")},
		path: "/tmp/audio.mp3",
	}
	f := NewRetryingFetcher(next, 3)
	f.sleep = noSleep

	path, err := f.FetchAudio(context.Background(), domain.Source{ID: "a"}, t.TempDir(), nil)

	require.NoError(t, err)
	assert.Equal(t, "/tmp/audio.mp3", path)
	assert.Equal(t, 3, next.attempts)
}

func TestRetryStopsOnFatalError(t *testing.T) {
	next := &scriptedFetcher{
		errs: []error{&FetchError{Kind: KindFatal, Err: fmt.Errorf("video unavailable")}},
	}
	f := NewRetryingFetcher(next, 3)
	f.sleep = noSleep

	_, err := f.FetchAudio(context.Background(), domain.Source{ID: "a"}, t.TempDir(), nil)

	assert.Error(t, err)
	assert.Equal(t, 1, next.attempts)
}

func TestRetryGivesUpAfterMaxRetries(t *testing.T) {
	next := &scriptedFetcher{
		errs: []error{
			retryable("one"), retryable("two"), retryable("three"), retryable("four"), retryable("five"),
		},
	}
	f := NewRetryingFetcher(next, 3)
	f.sleep = noSleep

	_, err := f.FetchAudio(context.Background(), domain.Source{ID: "a"}, t.TempDir(), nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "giving up after 3 retries")
	assert.Equal(t, 4, next.attempts) // initial attempt plus three retries
}

func TestRetryStopsWhenContextCancelled(t *testing.T) {
	next := &scriptedFetcher{
		errs: []error{retryable("throttled"), retryable("throttled")},
	}
	f := NewRetryingFetcher(next, 3)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.FetchAudio(ctx, domain.Source{ID: "a"}, t.TempDir(), nil)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, next.attempts)
}

func TestNegativeRetriesFallsBackToDefault(t *testing.T) {
	f := NewRetryingFetcher(&scriptedFetcher{}, -1)
	assert.Equal(t, DefaultMaxRetries, f.maxRetries)
}

func TestRetryingFetcherSupportsSource(t *testing.T) {
	f := NewRetryingFetcher(&scriptedFetcher{}, 0)
	assert.True(t, f.SupportsSource(domain.Source{URL: "https://example.com/a.mp3"}))
}

func TestBackoffDelayBounds(t *testing.T) {
	for attempt := 0; attempt < 4; attempt++ {
		base := time.Duration(1<<attempt) * time.Second
		for i := 0; i < 20; i++ {
			d := backoffDelay(attempt)
			assert.GreaterOrEqual(t, d, base, "attempt %d", attempt)
			assert.Less(t, d, base+time.Second, "attempt %d", attempt)
		}
	}
}

func TestSleepContextHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := sleepContext(ctx, time.Minute)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}
