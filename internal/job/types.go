package job

import (
	"context"
	"time"

	"github.com/jrauso/mashup-maker/internal/domain"
	"github.com/jrauso/mashup-maker/internal/progress"
)

// Status represents the current state of a mashup job
type Status struct {
	ID         string               `json:"id"`
	Status     string               `json:"status"`
	Progress   float64              `json:"progress"`
	Message    string               `json:"message"`
	Error      string               `json:"error,omitempty"`
	Artist     string               `json:"artist"`
	Result     *domain.MashupResult `json:"result,omitempty"`
	Events     []progress.Event     `json:"events"`
	StartTime  time.Time            `json:"startTime"`
	EndTime    *time.Time           `json:"endTime,omitempty"`
	cancelFunc context.CancelFunc
}

// Request represents the request body for creating a mashup
type Request struct {
	Artist      string `json:"artist" binding:"required"`
	VideoCount  int    `json:"videoCount" binding:"required"`
	ClipSeconds int    `json:"clipSeconds" binding:"required"`
	OutputName  string `json:"outputName"`
}

// Response represents the response for job listings
type Response struct {
	Jobs       []*Status `json:"jobs"`
	Page       int       `json:"page"`
	PageSize   int       `json:"pageSize"`
	TotalJobs  int       `json:"totalJobs"`
	TotalPages int       `json:"totalPages"`
}

// Constants for job status
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
	StatusCancelled  = "cancelled"
)

// Constants for progress percentages
const (
	ProgressResolvingStart  = 0
	ProgressDownloadStart   = 10
	ProgressDownloadEnd     = 60
	ProgressProcessingStart = 60
	ProgressProcessingEnd   = 90
	ProgressMergingStart    = 90
	ProgressMergingEnd      = 99
	ProgressComplete        = 100
)

// Constants for pagination
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)
