package jobs

import (
	"context"
	"time"
)

// JobType represents the kind of engine job to be executed.
type JobType string

const (
	// JobTypeMaterializeMonth materializes the current month's
	// recurring occurrences for one user.
	JobTypeMaterializeMonth JobType = "materialize_month"
	// JobTypeMigrateUser backfills derived scheduling metadata for one
	// user's recurring definitions.
	JobTypeMigrateUser JobType = "migrate_user"
)

// JobStatus represents the current status of a job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusRetrying  JobStatus = "retrying"
)

// EngineJob is one unit of asynchronous engine work. Both job types are
// idempotent (materialization dedups against persisted state, migration
// re-runs are no-ops), so retries are always safe.
type EngineJob struct {
	JobID  string  `json:"job_id"`
	Type   JobType `json:"type"`
	UserID string  `json:"user_id"`

	// Month is the "YYYY-MM" target for materialization jobs.
	Month string `json:"month,omitempty"`

	Status      JobStatus  `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Error       string     `json:"error,omitempty"`
	RetryCount  int        `json:"retry_count"`
	MaxRetries  int        `json:"max_retries"`
}

// Publisher defines the interface for publishing jobs to a queue.
// This abstraction allows for different queue implementations
// (in-memory, Cloud Tasks, Pub/Sub).
type Publisher interface {
	Publish(ctx context.Context, job *EngineJob) error
	Close() error
}

// Consumer defines the interface for consuming jobs from a queue.
type Consumer interface {
	// Start begins consuming jobs; the handler is called per job.
	Start(ctx context.Context, handler JobHandler) error
	// Stop stops consuming and waits for in-flight jobs to finish.
	Stop(ctx context.Context) error
}

// JobHandler processes one job. A returned error marks the job failed
// and eligible for retry.
type JobHandler func(ctx context.Context, job *EngineJob) error

// JobFilter narrows ListJobs results.
type JobFilter struct {
	UserID string
	Type   JobType
	Status JobStatus
}

// JobStore tracks job state across the queue lifecycle.
type JobStore interface {
	SaveJob(ctx context.Context, job *EngineJob) error
	GetJob(ctx context.Context, jobID string) (*EngineJob, error)
	ListJobs(ctx context.Context, filter JobFilter) ([]*EngineJob, error)
}
