// Package jobs is the registry of render jobs.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wintersoldje/econ-shorts/backend/internal/models"
)

var (
	ErrNotFound          = errors.New("job not found")
	ErrExists            = errors.New("job already exists")
	ErrTerminal          = errors.New("job already finished")
	ErrInvalidTransition = errors.New("invalid job transition")
)

// Update describes a status change. Empty string fields leave the stored
// value untouched.
type Update struct {
	Status    models.JobStatus
	Message   string
	VideoPath string
	Script    string
}

// Store creates, reads and transitions jobs. Implementations are safe for
// concurrent use; a job in a terminal state is never modified again.
type Store interface {
	Create(ctx context.Context, job models.Job) error
	Get(ctx context.Context, id string) (models.Job, error)
	UpdateStatus(ctx context.Context, id string, u Update) (models.Job, error)
}

// NewJob returns a queued job for kind.
func NewJob(id string, kind models.ScriptKind, now time.Time) models.Job {
	return models.Job{
		ID:        id,
		Kind:      kind,
		Status:    models.StatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func prepare(job models.Job, now time.Time) models.Job {
	if job.Status == "" {
		job.Status = models.StatusQueued
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = now
	}
	if job.UpdatedAt.IsZero() {
		job.UpdatedAt = job.CreatedAt
	}
	return job
}

// apply validates the transition and returns the updated job.
func apply(job models.Job, u Update, now time.Time) (models.Job, error) {
	if job.Status.Terminal() {
		return job, fmt.Errorf("%w: %s is %s", ErrTerminal, job.ID, job.Status)
	}
	switch u.Status {
	case models.StatusRunning:
		if job.Status != models.StatusQueued {
			return job, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, job.Status, u.Status)
		}
	case models.StatusDone:
		if job.Status != models.StatusRunning {
			return job, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, job.Status, u.Status)
		}
	case models.StatusFailed:
	default:
		return job, fmt.Errorf("%w: %s -> %q", ErrInvalidTransition, job.Status, u.Status)
	}

	job.Status = u.Status
	if u.Message != "" {
		job.Message = u.Message
	}
	if u.VideoPath != "" {
		job.VideoPath = u.VideoPath
	}
	if u.Script != "" {
		job.Script = u.Script
	}
	job.UpdatedAt = now
	return job, nil
}
