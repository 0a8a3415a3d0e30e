package render

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wintersoldje/econ-shorts/backend/internal/artifacts"
	"github.com/wintersoldje/econ-shorts/backend/internal/jobs"
	"github.com/wintersoldje/econ-shorts/backend/internal/models"
)

var (
	ErrQueueFull = errors.New("render queue is full")
	ErrClosed    = errors.New("render dispatcher is closed")
)

// Dispatcher hands a created job to whatever executes renders.
type Dispatcher interface {
	Dispatch(ctx context.Context, jobID string, kind models.ScriptKind) error
}

// Canceler is implemented by dispatchers that can stop a job in flight.
type Canceler interface {
	Cancel(jobID string) bool
}

// Enqueue registers a queued job and dispatches it. A job the dispatcher
// refuses is marked failed so pollers do not wait on it forever.
func Enqueue(ctx context.Context, store jobs.Store, d Dispatcher, kind models.ScriptKind) (string, error) {
	id := artifacts.NewID()
	if err := store.Create(ctx, jobs.NewJob(id, kind, time.Now())); err != nil {
		return "", fmt.Errorf("create job: %w", err)
	}
	if err := d.Dispatch(ctx, id, kind); err != nil {
		_, uerr := store.UpdateStatus(context.WithoutCancel(ctx), id, jobs.Update{
			Status:  models.StatusFailed,
			Message: err.Error(),
		})
		return "", errors.Join(err, uerr)
	}
	return id, nil
}
