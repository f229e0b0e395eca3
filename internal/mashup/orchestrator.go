// Package mashup orchestrates a full run: resolve sources for an artist,
// download and trim them concurrently, then merge the surviving clips into
// a single output file.
package mashup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jrauso/mashup-maker/config"
	"github.com/jrauso/mashup-maker/internal/audio"
	"github.com/jrauso/mashup-maker/internal/domain"
	"github.com/jrauso/mashup-maker/internal/downloader"
	"github.com/jrauso/mashup-maker/internal/pipeline"
	"github.com/jrauso/mashup-maker/internal/progress"
	"github.com/jrauso/mashup-maker/internal/search"
	"github.com/jrauso/mashup-maker/internal/storage"
)

// ErrNoSources is returned when the resolver finds nothing for the artist.
var ErrNoSources = errors.New("no sources found")

// Request carries the parameters for one mashup run.
type Request struct {
	Artist      string
	VideoCount  int
	ClipSeconds int
	OutputPath  string
}

// ValidateRequest checks the request bounds before any work starts.
func ValidateRequest(req Request) error {
	if strings.TrimSpace(req.Artist) == "" {
		return errors.New("artist must not be empty")
	}
	if req.VideoCount <= 10 {
		return errors.New("video count must be greater than 10")
	}
	if req.ClipSeconds < 20 {
		return errors.New("clip seconds must be at least 20")
	}
	if strings.TrimSpace(req.OutputPath) == "" {
		return errors.New("output path must not be empty")
	}
	return nil
}

// OrchestrationError wraps a failure with the stage that raised it.
type OrchestrationError struct {
	Stage Stage
	Err   error
}

func (e *OrchestrationError) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

func (e *OrchestrationError) Unwrap() error { return e.Err }

// Orchestrator wires the resolver, download dispatcher, processing pool,
// audio codec and storage backend into one run.
type Orchestrator struct {
	cfg      *config.Config
	resolver search.Resolver
	fetcher  downloader.Fetcher
	codec    audio.Codec
	store    storage.Storage
	tracker  *progress.Tracker

	// Quiet suppresses the pipeline progress bars.
	Quiet bool

	// WorkspaceRoot overrides where run workspaces are created. Defaults
	// to the system temp dir.
	WorkspaceRoot string
}

// New creates an orchestrator from its collaborators.
func New(cfg *config.Config, resolver search.Resolver, fetcher downloader.Fetcher, codec audio.Codec, store storage.Storage) *Orchestrator {
	return &Orchestrator{
		cfg:      cfg,
		resolver: resolver,
		fetcher:  fetcher,
		codec:    codec,
		store:    store,
		tracker:  progress.NewTracker(),
	}
}

// Tracker exposes the progress tracker so callers can subscribe listeners.
func (o *Orchestrator) Tracker() *progress.Tracker {
	return o.tracker
}

// run holds the mutable state of a single orchestration so cleanup can
// always see what has been created so far.
type run struct {
	req     Request
	workDir string
	stage   Stage

	clips  []*audio.Clip
	merged *audio.Clip

	cleanupOnce sync.Once
}

func (r *run) setStage(to Stage) {
	if !isValidTransition(r.stage, to) {
		slog.Warn("unexpected stage transition", "from", r.stage, "to", to)
	}
	r.stage = to
}

// Run executes the full pipeline and returns a summary of what was
// produced. Cleanup always runs, whichever path exits the run, and a
// panic inside any stage is converted into a failed result.
func (o *Orchestrator) Run(ctx context.Context, req Request) (result *domain.MashupResult, err error) {
	if verr := ValidateRequest(req); verr != nil {
		return nil, verr
	}

	started := time.Now()
	r := &run{req: req, stage: StageResolving}

	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("recovered from panic during run", "stage", r.stage, "panic", rec)
			err = &OrchestrationError{Stage: r.stage, Err: fmt.Errorf("panic: %v", rec)}
			result = nil
		}
		o.cleanup(r)
		if err != nil {
			r.setStage(StageFailed)
			o.tracker.SetError(err)
		} else {
			r.setStage(StageDone)
		}
	}()

	workDir, werr := o.createWorkspace()
	if werr != nil {
		return nil, &OrchestrationError{Stage: r.stage, Err: werr}
	}
	r.workDir = workDir

	o.tracker.UpdateProgress(progress.StageResolving, 0, fmt.Sprintf("Searching for %s", req.Artist))
	sources, rerr := o.resolver.Resolve(ctx, req.Artist, req.VideoCount)
	if rerr != nil {
		return nil, &OrchestrationError{Stage: r.stage, Err: rerr}
	}
	if len(sources) == 0 {
		return nil, &OrchestrationError{Stage: r.stage, Err: ErrNoSources}
	}
	if len(sources) > req.VideoCount {
		sources = sources[:req.VideoCount]
	}
	slog.Info("Resolved sources", "artist", req.Artist, "requested", req.VideoCount, "found", len(sources))

	r.setStage(StagePipelining)
	o.tracker.UpdateProgress(progress.StageDownloading, 10, fmt.Sprintf("Downloading %d sources", len(sources)))

	queue := pipeline.NewCompletionQueue(len(sources))
	pool := pipeline.NewPool(o.codec, queue, o.cfg.ProcessWorkers, float64(req.ClipSeconds))
	pool.Quiet = o.Quiet
	dispatcher := pipeline.NewDispatcher(o.fetcher, queue, o.cfg.DownloadWorkers)
	dispatcher.Quiet = o.Quiet

	total := len(sources)
	dispatcher.OnComplete = func(source domain.Source, _ error) {
		o.tracker.UpdateClipProgress(dispatcher.Downloaded(), pool.Processed(), dispatcher.Failed()+pool.Skipped(), total, source.DisplayTitle())
	}
	pool.OnProcessed = func(string, error) {
		o.tracker.UpdateClipProgress(dispatcher.Downloaded(), pool.Processed(), dispatcher.Failed()+pool.Skipped(), total, "")
	}

	// The pool must be consuming before the first download lands so no
	// completed file ever waits without a consumer.
	pool.Start(ctx, total)
	downloaded, dispatchErr := dispatcher.Run(ctx, sources, filepath.Join(r.workDir, "downloads"))

	o.tracker.UpdateProgress(progress.StageProcessing, 60, "Processing remaining clips")

	// The queue is closed; let the pool drain it before inspecting
	// anything, even when dispatch itself failed.
	pool.Wait()

	clips, clipsErr := pool.Result()
	r.clips = clips

	if dispatchErr != nil {
		return nil, &OrchestrationError{Stage: r.stage, Err: dispatchErr}
	}
	if clipsErr != nil {
		return nil, &OrchestrationError{Stage: r.stage, Err: clipsErr}
	}
	slog.Info("Pipeline finished", "downloaded", downloaded, "processed", len(clips), "skipped", dispatcher.Failed()+pool.Skipped())

	r.setStage(StageMerging)
	o.tracker.UpdateProgress(progress.StageMerging, 90, fmt.Sprintf("Merging %d clips", len(clips)))

	extension := outputExtension(req.OutputPath, o.cfg.OutputFormat)
	merged, merr := o.codec.Concat(ctx, clips, extension)
	if merr != nil {
		return nil, &OrchestrationError{Stage: r.stage, Err: merr}
	}
	r.merged = merged

	staging := filepath.Join(r.workDir, "mashup."+extension)
	if xerr := o.codec.Export(ctx, merged, staging); xerr != nil {
		return nil, &OrchestrationError{Stage: r.stage, Err: xerr}
	}

	if o.cfg.ModifyTags && extension == "mp3" {
		if terr := audio.TagMashup(staging, req.Artist, len(clips)); terr != nil {
			slog.Warn("failed to tag mashup", "error", terr)
		}
	}

	storedPath, serr := o.store.Store(ctx, staging, req.OutputPath)
	if serr != nil {
		return nil, &OrchestrationError{Stage: r.stage, Err: serr}
	}

	o.tracker.UpdateProgress(progress.StageComplete, 100, "Mashup complete")
	slog.Info("Wrote mashup", "output", storedPath, "clips", len(clips), "elapsed", time.Since(started).Round(time.Second))

	return &domain.MashupResult{
		Artist:          req.Artist,
		OutputPath:      storedPath,
		ResolvedCount:   len(sources),
		DownloadedCount: downloaded,
		ProcessedCount:  len(clips),
		ClipSeconds:     req.ClipSeconds,
		Elapsed:         time.Since(started),
	}, nil
}

// createWorkspace makes a unique directory for this run.
func (o *Orchestrator) createWorkspace() (string, error) {
	root := o.WorkspaceRoot
	if root == "" {
		root = os.TempDir()
	}
	workDir := filepath.Join(root, "mashup-maker", uuid.NewString())
	if err := os.MkdirAll(workDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create workspace: %w", err)
	}
	slog.Debug("Created workspace", "workDir", workDir)
	return workDir, nil
}

// cleanup releases every clip handle still held and removes the run
// workspace. Safe to call more than once; failures are logged, never
// returned.
func (o *Orchestrator) cleanup(r *run) {
	r.cleanupOnce.Do(func() {
		r.setStage(StageCleaningUp)

		for _, clip := range r.clips {
			if err := o.codec.Release(clip); err != nil {
				slog.Warn("failed to release clip", "path", clip.Path(), "error", err)
			}
		}
		if r.merged != nil {
			if err := o.codec.Release(r.merged); err != nil {
				slog.Warn("failed to release merged clip", "path", r.merged.Path(), "error", err)
			}
		}

		if r.workDir == "" {
			return
		}
		if err := os.RemoveAll(r.workDir); err != nil {
			slog.Warn("failed to remove workspace", "workDir", r.workDir, "error", err)
			return
		}
		slog.Debug("Removed workspace", "workDir", r.workDir)
	})
}

// outputExtension picks the container for the merged file from the
// requested output path, falling back to the configured format.
func outputExtension(outputPath, fallback string) string {
	ext := strings.TrimPrefix(filepath.Ext(outputPath), ".")
	if ext == "" {
		return fallback
	}
	return strings.ToLower(ext)
}
