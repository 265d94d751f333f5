package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

var ErrStopped = errors.New("worker pool stopped")

// Job is a unit of background work. The context is the pool's, cancelled on
// Stop.
type Job func(ctx context.Context)

type WorkerPool struct {
	numWorkers int
	jobs       chan Job
	quit       chan struct{}
	stopOnce   sync.Once
	wg         sync.WaitGroup
	logger     *slog.Logger
}

func NewWorkerPool(numWorkers int, bufferSize int, logger *slog.Logger) *WorkerPool {
	if numWorkers < 1 {
		numWorkers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkerPool{
		numWorkers: numWorkers,
		jobs:       make(chan Job, bufferSize),
		quit:       make(chan struct{}),
		logger:     logger,
	}
}

func (wp *WorkerPool) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	go func() {
		defer cancel()
		select {
		case <-wp.quit:
		case <-ctx.Done():
		}
	}()

	for i := 1; i <= wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	defer wp.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case job := <-wp.jobs:
			wp.run(ctx, id, job)
		}
	}
}

func (wp *WorkerPool) run(ctx context.Context, id int, job Job) {
	defer func() {
		if r := recover(); r != nil {
			wp.logger.Error("job panicked", "worker", id, "panic", r)
		}
	}()
	job(ctx)
}

// Submit queues job, blocking while the queue is full until ctx is done or
// the pool stops.
func (wp *WorkerPool) Submit(ctx context.Context, job Job) error {
	select {
	case <-wp.quit:
		return ErrStopped
	default:
	}

	select {
	case wp.jobs <- job:
		return nil
	case <-wp.quit:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pending is the number of queued jobs not yet picked up by a worker.
func (wp *WorkerPool) Pending() int {
	return len(wp.jobs)
}

// Stop cancels running jobs, waits for workers to exit and drops anything
// still queued. It is safe to call more than once.
func (wp *WorkerPool) Stop() {
	wp.stopOnce.Do(func() {
		close(wp.quit)
	})
	wp.wg.Wait()
}
