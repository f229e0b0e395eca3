package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/jrauso/mashup-maker/internal/audio"
)

// DefaultProcessWorkers is the processing pool size used when the
// configuration does not say otherwise.
const DefaultProcessWorkers = 8

// ErrNoClips is returned when processing produced no usable clips.
var ErrNoClips = errors.New("no clips could be produced")

// warningThreshold is how long a single clip may take before the
// monitor logs a warning. Variable so tests can lower it.
var warningThreshold = 30 * time.Second

// Pool trims downloaded files into clips as they arrive on the
// completion queue.
type Pool struct {
	codec       audio.Codec
	queue       *CompletionQueue
	workers     int
	clipSeconds float64

	// Quiet suppresses the terminal progress bar
	Quiet bool

	// OnProcessed, when set, is invoked after each file settles.
	OnProcessed func(path string, err error)

	mu    sync.Mutex
	clips []*audio.Clip

	skipped atomic.Int32
	wg      sync.WaitGroup
	bar     *progressbar.ProgressBar
}

// NewPool creates a processing pool of the given size producing clips
// of clipSeconds each.
func NewPool(codec audio.Codec, queue *CompletionQueue, workers int, clipSeconds float64) *Pool {
	if workers < 1 {
		workers = DefaultProcessWorkers
	}
	return &Pool{
		codec:       codec,
		queue:       queue,
		workers:     workers,
		clipSeconds: clipSeconds,
	}
}

// Start launches the workers. expected sizes the progress bar; the
// pool processes however many paths actually arrive before the queue
// closes.
func (p *Pool) Start(ctx context.Context, expected int) {
	p.bar = newProgressBar(expected, "[cyan][2/2][reset] Processing clips...", p.Quiet)

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx)
	}
}

// worker drains the queue until it is closed. After cancellation the
// remaining paths are consumed without processing so the dispatcher
// can never block on a full queue.
func (p *Pool) worker(ctx context.Context) {
	defer p.wg.Done()

	for path := range p.queue.C() {
		if ctx.Err() != nil {
			p.skipped.Add(1)
			p.bar.Add(1)
			continue
		}

		clip, err := p.processOne(ctx, path)
		if err != nil {
			p.skipped.Add(1)
			slog.Warn("skipping clip", "path", path, "error", err)
		} else {
			p.mu.Lock()
			p.clips = append(p.clips, clip)
			p.mu.Unlock()
		}
		p.bar.Add(1)
		if p.OnProcessed != nil {
			p.OnProcessed(path, err)
		}
	}
}

// processOne loads a downloaded file and trims it down to the clip
// length. Files already short enough are used whole.
func (p *Pool) processOne(ctx context.Context, path string) (*audio.Clip, error) {
	done := make(chan struct{})
	defer close(done)
	go p.monitorProcessing(done, time.Now(), path)

	loaded, err := p.codec.Load(ctx, path)
	if err != nil {
		return nil, err
	}

	if loaded.Duration() <= p.clipSeconds {
		return loaded, nil
	}

	trimmed, err := p.codec.Trim(ctx, loaded, p.clipSeconds)
	if err != nil {
		if relErr := p.codec.Release(loaded); relErr != nil {
			slog.Debug("failed to release source clip", "path", path, "error", relErr)
		}
		return nil, err
	}

	if err := p.codec.Release(loaded); err != nil {
		slog.Debug("failed to release source clip", "path", path, "error", err)
	}
	return trimmed, nil
}

// monitorProcessing warns when a single clip takes suspiciously long.
func (p *Pool) monitorProcessing(done <-chan struct{}, started time.Time, path string) {
	ticker := time.NewTicker(warningThreshold)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			slog.Warn("clip processing is taking longer than expected",
				"path", path,
				"elapsed", time.Since(started).Round(time.Second))
		}
	}
}

// Wait blocks until the queue is closed and all workers have drained it.
func (p *Pool) Wait() {
	p.wg.Wait()
}

// Result returns the produced clips. Call after Wait.
func (p *Pool) Result() ([]*audio.Clip, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.clips) == 0 {
		return nil, ErrNoClips
	}
	return p.clips, nil
}

// Processed returns the number of clips produced so far.
func (p *Pool) Processed() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.clips)
}

// Skipped returns the number of files dropped by processing failures
// or cancellation.
func (p *Pool) Skipped() int {
	return int(p.skipped.Load())
}
