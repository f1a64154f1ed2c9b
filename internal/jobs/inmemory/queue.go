package inmemory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vkopylov/finplan/internal/jobs"
)

// Queue is an in-memory publisher/consumer backed by a Go channel. It
// is safe for concurrent use and suitable for single-instance
// deployments and tests; multi-instance deployments should migrate to
// Cloud Tasks or Pub/Sub.
type Queue struct {
	jobChan   chan *jobs.EngineJob
	closeChan chan struct{}
	wg        sync.WaitGroup
	mu        sync.RWMutex
	store     jobs.JobStore
	closed    bool
}

// NewQueue creates a new in-memory job queue. bufferSize determines how
// many jobs can be queued before Publish blocks.
func NewQueue(bufferSize int, store jobs.JobStore) *Queue {
	return &Queue{
		jobChan:   make(chan *jobs.EngineJob, bufferSize),
		closeChan: make(chan struct{}),
		store:     store,
	}
}

// Publish enqueues a job for asynchronous processing.
func (q *Queue) Publish(ctx context.Context, job *jobs.EngineJob) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return fmt.Errorf("queue is closed")
	}

	if job.JobID == "" {
		job.JobID = uuid.New().String()
	}
	if job.Status == "" {
		job.Status = jobs.JobStatusPending
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}
	if job.MaxRetries == 0 {
		job.MaxRetries = 3
	}

	if q.store != nil {
		if err := q.store.SaveJob(ctx, job); err != nil {
			return fmt.Errorf("failed to save job: %w", err)
		}
	}

	select {
	case q.jobChan <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-q.closeChan:
		return fmt.Errorf("queue is closed")
	}
}

// Start begins consuming jobs with a small pool of workers.
func (q *Queue) Start(ctx context.Context, handler jobs.JobHandler) error {
	q.mu.RLock()
	if q.closed {
		q.mu.RUnlock()
		return fmt.Errorf("queue is closed")
	}
	q.mu.RUnlock()

	workerCount := 5
	for i := 0; i < workerCount; i++ {
		q.wg.Add(1)
		go q.worker(ctx, handler)
	}
	return nil
}

func (q *Queue) worker(ctx context.Context, handler jobs.JobHandler) {
	defer q.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-q.closeChan:
			return
		case job := <-q.jobChan:
			if job == nil {
				return
			}
			q.processJob(ctx, job, handler)
		}
	}
}

// processJob runs the handler and persists status transitions. Failed
// jobs are re-enqueued until MaxRetries is exhausted; both job types
// are idempotent so a retried job can never double-apply.
func (q *Queue) processJob(ctx context.Context, job *jobs.EngineJob, handler jobs.JobHandler) {
	now := time.Now()
	job.Status = jobs.JobStatusRunning
	job.StartedAt = &now
	q.saveJob(ctx, job)

	err := handler(ctx, job)
	done := time.Now()
	if err == nil {
		job.Status = jobs.JobStatusCompleted
		job.CompletedAt = &done
		job.Error = ""
		q.saveJob(ctx, job)
		return
	}

	job.Error = err.Error()
	if job.RetryCount < job.MaxRetries {
		job.RetryCount++
		job.Status = jobs.JobStatusRetrying
		q.saveJob(ctx, job)

		select {
		case q.jobChan <- job:
		case <-ctx.Done():
		case <-q.closeChan:
		}
		return
	}

	job.Status = jobs.JobStatusFailed
	job.CompletedAt = &done
	q.saveJob(ctx, job)
}

func (q *Queue) saveJob(ctx context.Context, job *jobs.EngineJob) {
	if q.store == nil {
		return
	}
	// Status bookkeeping is best-effort; the job itself still runs.
	_ = q.store.SaveJob(ctx, job)
}

// Stop closes the queue and waits for in-flight jobs to complete.
func (q *Queue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.closeChan)
	q.mu.Unlock()

	doneChan := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(doneChan)
	}()

	select {
	case <-doneChan:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close implements the Publisher interface.
func (q *Queue) Close() error {
	return q.Stop(context.Background())
}
