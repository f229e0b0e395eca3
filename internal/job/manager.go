package job

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jrauso/mashup-maker/internal/domain"
	"github.com/jrauso/mashup-maker/internal/progress"
)

// validTransitions lists the allowed status changes for a job.
var validTransitions = map[string][]string{
	StatusPending:    {StatusProcessing, StatusFailed, StatusCancelled},
	StatusProcessing: {StatusCompleted, StatusFailed, StatusCancelled},
}

func isValidTransition(from, to string) bool {
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Manager tracks mashup jobs for the server. All job mutations go
// through the manager so readers always see a consistent status.
type Manager struct {
	mu   sync.RWMutex
	jobs map[string]*Status
}

// NewManager creates a new job manager
func NewManager() *Manager {
	return &Manager{
		jobs: make(map[string]*Status),
	}
}

// CreateJob registers a new pending job and returns its status together
// with the context the runner should use; cancelling the job cancels
// the context.
func (m *Manager) CreateJob(artist string) (*Status, context.Context) {
	jobID := uuid.NewString()
	ctx, cancel := context.WithCancel(context.Background())

	job := &Status{
		ID:         jobID,
		Status:     StatusPending,
		Progress:   0,
		Message:    "Job created",
		StartTime:  time.Now(),
		Artist:     artist,
		cancelFunc: cancel,
	}

	m.mu.Lock()
	m.jobs[jobID] = job
	m.mu.Unlock()

	return job.snapshot(), ctx
}

// GetJob returns a snapshot of the job
func (m *Manager) GetJob(jobID string) (*Status, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	job, exists := m.jobs[jobID]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, jobID)
	}
	return job.snapshot(), nil
}

// CancelJob cancels a pending or running job
func (m *Manager) CancelJob(jobID string) error {
	return m.update(jobID, func(job *Status) error {
		if !isValidTransition(job.Status, StatusCancelled) {
			return fmt.Errorf("%w: %s", ErrInvalidState, job.Status)
		}

		job.cancelFunc()
		job.Status = StatusCancelled
		job.Message = "Job cancelled by user"
		now := time.Now()
		job.EndTime = &now
		return nil
	})
}

// SetProcessing marks a pending job as running
func (m *Manager) SetProcessing(jobID string) error {
	return m.update(jobID, func(job *Status) error {
		if !isValidTransition(job.Status, StatusProcessing) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidState, job.Status, StatusProcessing)
		}
		job.Status = StatusProcessing
		job.Message = "Processing mashup"
		return nil
	})
}

// Complete marks a job as finished and records its result
func (m *Manager) Complete(jobID string, result *domain.MashupResult) error {
	return m.update(jobID, func(job *Status) error {
		if !isValidTransition(job.Status, StatusCompleted) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidState, job.Status, StatusCompleted)
		}
		job.Status = StatusCompleted
		job.Progress = ProgressComplete
		job.Message = "Mashup complete"
		job.Result = result
		now := time.Now()
		job.EndTime = &now
		return nil
	})
}

// Fail marks a job as failed with the given error
func (m *Manager) Fail(jobID string, jobErr error) error {
	return m.update(jobID, func(job *Status) error {
		if !isValidTransition(job.Status, StatusFailed) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidState, job.Status, StatusFailed)
		}
		job.Status = StatusFailed
		job.Message = "Mashup failed"
		job.Error = jobErr.Error()
		now := time.Now()
		job.EndTime = &now
		return nil
	})
}

// UpdateProgress records the current progress percentage and message
func (m *Manager) UpdateProgress(jobID string, percent float64, message string) error {
	return m.update(jobID, func(job *Status) error {
		// Updates arriving after a job settled must not clobber its
		// terminal message.
		if job.Status != StatusPending && job.Status != StatusProcessing {
			return nil
		}
		job.Progress = percent
		job.Message = message
		return nil
	})
}

// AppendEvent adds a progress event to the job's history
func (m *Manager) AppendEvent(jobID string, event progress.Event) error {
	return m.update(jobID, func(job *Status) error {
		job.Events = append(job.Events, event)
		return nil
	})
}

// ListJobs lists jobs with pagination, newest first
func (m *Manager) ListJobs(page, pageSize int) *Response {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > MaxPageSize {
		pageSize = DefaultPageSize
	}

	m.mu.RLock()
	jobs := make([]*Status, 0, len(m.jobs))
	for _, job := range m.jobs {
		jobs = append(jobs, job.snapshot())
	}
	m.mu.RUnlock()

	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].StartTime.After(jobs[j].StartTime)
	})

	totalPages := (len(jobs) + pageSize - 1) / pageSize
	start := (page - 1) * pageSize

	if start >= len(jobs) {
		return &Response{
			Jobs:       []*Status{},
			Page:       page,
			PageSize:   pageSize,
			TotalJobs:  len(jobs),
			TotalPages: totalPages,
		}
	}

	end := start + pageSize
	if end > len(jobs) {
		end = len(jobs)
	}

	return &Response{
		Jobs:       jobs[start:end],
		Page:       page,
		PageSize:   pageSize,
		TotalJobs:  len(jobs),
		TotalPages: totalPages,
	}
}

// update applies fn to the stored job under the write lock.
func (m *Manager) update(jobID string, fn func(*Status) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, exists := m.jobs[jobID]
	if !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, jobID)
	}
	return fn(job)
}

// snapshot copies the job so callers can read it without holding the
// manager lock.
func (s *Status) snapshot() *Status {
	copied := *s
	copied.Events = append([]progress.Event(nil), s.Events...)
	return &copied
}
