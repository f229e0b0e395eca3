package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/jrauso/mashup-maker/internal/domain"
	"github.com/jrauso/mashup-maker/internal/downloader"
)

// DefaultDownloadWorkers is the dispatcher concurrency used when the
// configuration does not say otherwise.
const DefaultDownloadWorkers = 15

// ErrNoDownloads is returned when every download in a batch failed.
var ErrNoDownloads = errors.New("no sources could be downloaded")

// Dispatcher downloads a batch of sources concurrently and pushes each
// completed file onto the completion queue.
type Dispatcher struct {
	fetcher downloader.Fetcher
	queue   *CompletionQueue
	workers int

	// Quiet suppresses the terminal progress bar
	Quiet bool

	// OnComplete, when set, is invoked after each source settles,
	// successfully or not.
	OnComplete func(source domain.Source, err error)

	downloaded atomic.Int32
	failed     atomic.Int32
}

// NewDispatcher creates a dispatcher feeding queue with up to workers
// concurrent downloads.
func NewDispatcher(fetcher downloader.Fetcher, queue *CompletionQueue, workers int) *Dispatcher {
	if workers < 1 {
		workers = DefaultDownloadWorkers
	}
	return &Dispatcher{fetcher: fetcher, queue: queue, workers: workers}
}

// Run downloads all sources into per-source directories under destDir
// and returns the number of successful downloads. The queue is closed
// once every download has settled. A failed source is logged and
// skipped; Run itself fails only when the whole batch failed or
// dispatch was interrupted.
func (d *Dispatcher) Run(ctx context.Context, sources []domain.Source, destDir string) (int, error) {
	defer d.queue.Close()

	bar := newProgressBar(len(sources), "[cyan][1/2][reset] Downloading sources...", d.Quiet)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(d.workers)

	for _, source := range sources {
		g.Go(func() error {
			// Each source downloads into its own directory so concurrent
			// fetches can never pick up one another's files.
			sourceDir := filepath.Join(destDir, source.ID)

			path, err := d.fetcher.FetchAudio(ctx, source, sourceDir, nil)
			if err != nil {
				if ctx.Err() != nil {
					return err
				}
				d.failed.Add(1)
				bar.Add(1)
				slog.Warn("skipping source", "source", source.ID, "title", source.DisplayTitle(), "error", err)
				d.notify(source, err)
				return nil
			}

			if pushErr := d.queue.Push(ctx, path); pushErr != nil {
				return fmt.Errorf("failed to enqueue %s: %w", source.ID, pushErr)
			}

			d.downloaded.Add(1)
			bar.Add(1)
			d.notify(source, nil)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return int(d.downloaded.Load()), err
	}

	if d.downloaded.Load() == 0 {
		return 0, ErrNoDownloads
	}
	return int(d.downloaded.Load()), nil
}

func (d *Dispatcher) notify(source domain.Source, err error) {
	if d.OnComplete != nil {
		d.OnComplete(source, err)
	}
}

// Downloaded returns the number of successful downloads so far.
func (d *Dispatcher) Downloaded() int {
	return int(d.downloaded.Load())
}

// Failed returns the number of failed downloads so far.
func (d *Dispatcher) Failed() int {
	return int(d.failed.Load())
}
