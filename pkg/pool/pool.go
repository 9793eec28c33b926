package pool

import (
	"context"
	"errors"
	"sync"

	"github.com/audioforge/audioforge/pkg/logging"
)

// Job is a unit of blocking work executed on a pool worker.
type Job func() error

// ErrStopped is returned by Submit after the pool has been shut down.
var ErrStopped = errors.New("pool: stopped")

// Task is the handle returned by Submit. Callers block on Wait until the job
// has run to completion on a worker.
type Task struct {
	job  Job
	done chan struct{}
	err  error
}

// Wait blocks until the job finishes or the context is canceled. A canceled
// context abandons the wait only; the job itself keeps running on its worker.
func (t *Task) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pool is a fixed-size set of worker goroutines for blocking work, sized once
// at startup and never resized. Submissions beyond the queue capacity block
// the caller until a slot frees up.
type Pool struct {
	jobs    chan *Task
	mu      sync.Mutex
	wg      sync.WaitGroup
	stopped bool
	workers int
	logger  *logging.Logger
}

// New starts a pool with the given number of workers.
func New(workers int, logger *logging.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	p := &Pool{
		jobs:    make(chan *Task, workers*2),
		workers: workers,
		logger:  logger,
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	logger.Debug("worker pool started", "workers", workers)
	return p
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()
	for task := range p.jobs {
		task.err = task.job()
		if task.err != nil {
			p.logger.Debug("job finished with error", "worker", id, "error", task.err)
		}
		close(task.done)
	}
}

// Submit queues a job and returns its handle. It blocks when the queue is
// full and fails only after Stop.
func (p *Pool) Submit(job Job) (*Task, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return nil, ErrStopped
	}

	task := &Task{job: job, done: make(chan struct{})}
	p.jobs <- task
	return task, nil
}

// Workers reports the pool size.
func (p *Pool) Workers() int {
	return p.workers
}

// Stop drains queued jobs and waits for in-flight work to finish.
func (p *Pool) Stop() {
	p.mu.Lock()
	if !p.stopped {
		p.stopped = true
		close(p.jobs)
	}
	p.mu.Unlock()

	p.wg.Wait()
	p.logger.Debug("worker pool stopped")
}
