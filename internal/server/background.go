package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/jrauso/mashup-maker/internal/job"
	"github.com/jrauso/mashup-maker/internal/mashup"
	"github.com/jrauso/mashup-maker/internal/progress"
)

// maxJobDuration bounds a single background run so stuck downloads cannot
// hold a job open forever.
const maxJobDuration = 45 * time.Minute

// runMashupInBackground drives one mashup run and mirrors its progress
// into the job manager.
func (s *Server) runMashupInBackground(ctx context.Context, jobID string, req mashup.Request) {
	slog.Info("Starting background job", "jobId", jobID, "artist", req.Artist)

	ctx, cancel := context.WithTimeout(ctx, maxJobDuration)
	defer cancel()

	if err := s.jobs.SetProcessing(jobID); err != nil {
		slog.Error("Failed to mark job as processing", "jobId", jobID, "error", err)
		return
	}

	runner := s.newRunner()
	runner.Tracker().AddListener(func(event progress.Event) {
		if err := s.jobs.AppendEvent(jobID, event); err != nil {
			return
		}
		if err := s.jobs.UpdateProgress(jobID, jobProgress(event), event.Message); err != nil {
			slog.Debug("failed to update job progress", "jobId", jobID, "error", err)
		}
	})

	result, err := runner.Run(ctx, req)
	if err != nil {
		if ctx.Err() == context.Canceled {
			// CancelJob already moved the job to its terminal state.
			slog.Warn("Job cancelled", "jobId", jobID)
			return
		}
		if failErr := s.jobs.Fail(jobID, err); failErr != nil {
			slog.Error("Failed to mark job as failed", "jobId", jobID, "error", failErr)
		}
		slog.Error("Job failed", "jobId", jobID, "error", err)
		return
	}

	if err := s.jobs.Complete(jobID, result); err != nil {
		slog.Error("Failed to mark job as completed", "jobId", jobID, "error", err)
		return
	}

	slog.Info("Job completed successfully", "jobId", jobID, "output", result.OutputPath)
}

// jobProgress maps a pipeline event onto the job progress scale. The
// download and processing stages spread their clip counters across the
// ranges the job package reserves for them.
func jobProgress(event progress.Event) float64 {
	switch event.Stage {
	case progress.StageResolving:
		return job.ProgressResolvingStart
	case progress.StageDownloading:
		if d := event.ClipDetails; d != nil && d.Total > 0 {
			settled := float64(d.Downloaded + d.Skipped)
			span := float64(job.ProgressDownloadEnd - job.ProgressDownloadStart)
			return job.ProgressDownloadStart + span*settled/float64(d.Total)
		}
		return job.ProgressDownloadStart
	case progress.StageProcessing:
		if d := event.ClipDetails; d != nil && d.Total > 0 {
			span := float64(job.ProgressProcessingEnd - job.ProgressProcessingStart)
			return job.ProgressProcessingStart + span*float64(d.Processed)/float64(d.Total)
		}
		return job.ProgressProcessingStart
	case progress.StageMerging:
		return job.ProgressMergingStart
	case progress.StageComplete:
		return job.ProgressComplete
	default:
		return event.Progress
	}
}
