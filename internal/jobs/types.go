// Package jobs defines the background job abstractions: archiving a
// committed upload to GCS and re-exporting the forecast to Notion both
// run off the request path.
package jobs

import (
	"context"
	"time"
)

// JobType represents the type of job to be executed.
type JobType string

const (
	// JobTypeArchiveUpload archives a committed CSV upload to GCS.
	JobTypeArchiveUpload JobType = "archive_upload"
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

// ArchiveUploadJob archives the raw bytes of a committed import.
type ArchiveUploadJob struct {
	JobID string `json:"job_id"`

	// ImportID ties the archive back to the committed batch.
	ImportID string `json:"import_id"`
	Filename string `json:"filename"`
	Data     []byte `json:"data"`

	// ArchiveURI is filled in by the handler on success.
	ArchiveURI string `json:"archive_uri,omitempty"`

	Status      JobStatus  `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Error       string     `json:"error,omitempty"`

	RetryCount int `json:"retry_count"`
	MaxRetries int `json:"max_retries"`
}

// Job is a generic interface for all job types.
type Job interface {
	GetID() string
	GetType() JobType
	GetStatus() JobStatus
}

func (j *ArchiveUploadJob) GetID() string        { return j.JobID }
func (j *ArchiveUploadJob) GetType() JobType     { return JobTypeArchiveUpload }
func (j *ArchiveUploadJob) GetStatus() JobStatus { return j.Status }

// Publisher enqueues jobs. The abstraction allows swapping the
// in-memory queue for Cloud Tasks or Pub/Sub without touching callers.
type Publisher interface {
	PublishArchiveUpload(ctx context.Context, job *ArchiveUploadJob) error
	Close() error
}

// Consumer drains jobs from a queue.
type Consumer interface {
	// Start begins consuming; the handler runs once per job received.
	Start(ctx context.Context, handler JobHandler) error
	// Stop stops consuming and waits for in-flight jobs.
	Stop(ctx context.Context) error
}

// JobHandler processes one job. A returned error triggers retry until
// MaxRetries is exhausted.
type JobHandler func(ctx context.Context, job Job) error

// JobStore tracks job state for status queries across the job's life.
type JobStore interface {
	SaveJob(ctx context.Context, job *ArchiveUploadJob) error
	GetJob(ctx context.Context, jobID string) (*ArchiveUploadJob, error)
	ListJobs(ctx context.Context, filter JobFilter) ([]*ArchiveUploadJob, error)
}

// JobFilter narrows a ListJobs call.
type JobFilter struct {
	ImportID string
	Status   JobStatus
	Limit    int
	Offset   int
}
