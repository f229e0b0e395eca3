package server

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jrauso/mashup-maker/internal/job"
	"github.com/jrauso/mashup-maker/internal/mashup"
)

// createMashup godoc
// @Summary Start a mashup
// @Description Submits a job that searches for the artist, downloads the top videos and merges their opening clips into one file.
// @Tags Jobs
// @Accept json
// @Produce json
// @Param request body job.Request true "Mashup parameters"
// @Success 202 {object} MessageResponse
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/mashups [post]
func (s *Server) createMashup(c *gin.Context) {
	var req job.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": fmt.Sprintf("invalid request: %v", err)})
		return
	}

	mashupReq := mashup.Request{
		Artist:      req.Artist,
		VideoCount:  req.VideoCount,
		ClipSeconds: req.ClipSeconds,
		OutputPath:  s.outputNameFor(req),
	}

	if err := mashup.ValidateRequest(mashupReq); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	jobStatus, ctx := s.jobs.CreateJob(req.Artist)
	go s.runMashupInBackground(ctx, jobStatus.ID, mashupReq)

	c.JSON(202, gin.H{
		"message": "Processing started",
		"jobId":   jobStatus.ID,
	})
}

// getJobStatus godoc
// @Summary Get job status
// @Tags Jobs
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} job.Status
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/jobs/{id} [get]
func (s *Server) getJobStatus(c *gin.Context) {
	jobID := c.Param("id")

	jobStatus, err := s.jobs.GetJob(jobID)
	if err != nil {
		c.JSON(404, gin.H{"error": err.Error()})
		return
	}

	c.JSON(200, jobStatus)
}

// cancelJob godoc
// @Summary Cancel a job
// @Tags Jobs
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/jobs/{id} [delete]
func (s *Server) cancelJob(c *gin.Context) {
	jobID := c.Param("id")

	if err := s.jobs.CancelJob(jobID); err != nil {
		if errors.Is(err, job.ErrNotFound) {
			c.JSON(404, gin.H{"error": err.Error()})
		} else if errors.Is(err, job.ErrInvalidState) {
			c.JSON(400, gin.H{"error": err.Error()})
		} else {
			c.JSON(500, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(200, gin.H{"message": "Job cancelled"})
}

// listJobs godoc
// @Summary List jobs
// @Tags Jobs
// @Produce json
// @Param page query int false "Page number"
// @Param pageSize query int false "Page size"
// @Success 200 {object} job.Response
// @Router /api/v1/jobs [get]
func (s *Server) listJobs(c *gin.Context) {
	page := 1
	pageSize := job.DefaultPageSize

	if p := c.Query("page"); p != "" {
		if parsed, err := strconv.Atoi(p); err == nil && parsed > 0 {
			page = parsed
		}
	}

	if ps := c.Query("pageSize"); ps != "" {
		if parsed, err := strconv.Atoi(ps); err == nil && parsed > 0 && parsed <= job.MaxPageSize {
			pageSize = parsed
		}
	}

	response := s.jobs.ListJobs(page, pageSize)
	c.JSON(200, response)
}

// downloadMashup godoc
// @Summary Download the finished mashup
// @Tags Jobs
// @Produce octet-stream
// @Param id path string true "Job ID"
// @Success 200 {file} binary
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/jobs/{id}/download [get]
func (s *Server) downloadMashup(c *gin.Context) {
	jobID := c.Param("id")

	jobStatus, err := s.jobs.GetJob(jobID)
	if err != nil {
		c.JSON(404, gin.H{"error": err.Error()})
		return
	}

	if jobStatus.Status != job.StatusCompleted || jobStatus.Result == nil {
		c.JSON(400, gin.H{"error": "Job is not completed yet"})
		return
	}

	reader, err := s.store.GetReader(c.Request.Context(), jobStatus.Result.OutputPath)
	if err != nil {
		c.JSON(404, gin.H{"error": fmt.Sprintf("mashup file not found: %v", err)})
		return
	}
	defer reader.Close()

	fileName := filepath.Base(jobStatus.Result.OutputPath)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", fileName))
	c.Header("Content-Type", contentTypeFor(fileName))

	if _, err := io.Copy(c.Writer, reader); err != nil {
		slog.Error("Failed to stream mashup file", "jobId", jobID, "error", err)
	}
}

// health godoc
// @Summary Health check
// @Tags Utility
// @Produce json
// @Success 200 {object} MessageResponse
// @Router /health [get]
func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
