package render

import (
	"context"
	"log/slog"
	"sync"

	"github.com/wintersoldje/econ-shorts/backend/internal/logger"
	"github.com/wintersoldje/econ-shorts/backend/internal/models"
)

// JobRunner executes one job to completion.
type JobRunner interface {
	Run(ctx context.Context, jobID string, kind models.ScriptKind) error
}

type task struct {
	jobID string
	kind  models.ScriptKind
	ctx   context.Context
}

// Pool runs jobs on a fixed number of workers fed by a bounded queue.
// Dispatch never blocks: when the queue is full it returns ErrQueueFull.
type Pool struct {
	runner JobRunner
	log    *slog.Logger
	queue  chan task

	base     context.Context
	stopBase context.CancelFunc
	wg       sync.WaitGroup

	mu      sync.Mutex
	closed  bool
	cancels map[string]context.CancelFunc
}

// NewPool starts workers goroutines. A queue size of 0 only accepts a job
// when a worker is idle.
func NewPool(runner JobRunner, workers, queue int, log *slog.Logger) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if queue < 0 {
		queue = 0
	}
	base, stop := context.WithCancel(context.Background())
	p := &Pool{
		runner:   runner,
		log:      logger.OrDiscard(log),
		queue:    make(chan task, queue),
		base:     base,
		stopBase: stop,
		cancels:  make(map[string]context.CancelFunc),
	}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.work(i)
	}
	return p
}

func (p *Pool) Dispatch(_ context.Context, jobID string, kind models.ScriptKind) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}

	ctx, cancel := context.WithCancel(p.base)
	select {
	case p.queue <- task{jobID: jobID, kind: kind, ctx: ctx}:
		p.cancels[jobID] = cancel
		return nil
	default:
		cancel()
		return ErrQueueFull
	}
}

// Cancel stops a queued or running job. It reports whether the job was known.
func (p *Pool) Cancel(jobID string) bool {
	p.mu.Lock()
	cancel, ok := p.cancels[jobID]
	p.mu.Unlock()
	if ok {
		cancel()
	}
	return ok
}

// Close stops accepting jobs and waits for queued ones to finish. When ctx
// expires first, remaining jobs are canceled and Close still waits for the
// workers to return.
func (p *Pool) Close(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.stopBase()
		return nil
	case <-ctx.Done():
		p.stopBase()
		<-done
		return ctx.Err()
	}
}

func (p *Pool) work(n int) {
	defer p.wg.Done()
	for t := range p.queue {
		if err := p.runner.Run(t.ctx, t.jobID, t.kind); err != nil {
			p.log.Debug("job ended with error", slog.Int("worker", n), slog.String("job_id", t.jobID), slog.Any("err", err))
		}
		p.mu.Lock()
		if cancel, ok := p.cancels[t.jobID]; ok {
			cancel()
			delete(p.cancels, t.jobID)
		}
		p.mu.Unlock()
	}
}
