package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wintersoldje/econ-shorts/backend/internal/models"
)

// MemoryStore keeps jobs in a map for the life of the process.
type MemoryStore struct {
	mu   sync.Mutex
	jobs map[string]models.Job
	now  func() time.Time
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		jobs: make(map[string]models.Job),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryStore) Create(_ context.Context, job models.Job) error {
	job = prepare(job, s.now())

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[job.ID]; ok {
		return fmt.Errorf("%w: %s", ErrExists, job.ID)
	}
	s.jobs[job.ID] = job
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return models.Job{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return job, nil
}

func (s *MemoryStore) UpdateStatus(_ context.Context, id string, u Update) (models.Job, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return models.Job{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	next, err := apply(job, u, now)
	if err != nil {
		return job, err
	}
	s.jobs[id] = next
	return next, nil
}
