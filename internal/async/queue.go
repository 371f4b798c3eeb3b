package async

import (
	"context"
	"errors"
	"time"

	"github.com/joseph-ayodele/rfp-agent/constants"
)

// ErrQueueClosed is returned by Enqueue after Shutdown.
var ErrQueueClosed = errors.New("queue is shutting down")

// Job asks for one full proposal run over an already ingested RFP document.
type Job struct {
	ID          string
	Path        string
	RFPID       string
	Title       string
	SubmittedAt time.Time
}

// JobInfo is the externally visible state of a job.
type JobInfo struct {
	ID          string              `json:"job_id"`
	RFPID       string              `json:"rfp_id"`
	Title       string              `json:"title"`
	Status      constants.JobStatus `json:"status"`
	Outputs     map[string]string   `json:"outputs,omitempty"`
	Error       string              `json:"error,omitempty"`
	SubmittedAt time.Time           `json:"submitted_at"`
	StartedAt   *time.Time          `json:"started_at,omitempty"`
	FinishedAt  *time.Time          `json:"finished_at,omitempty"`
}

// Runner is the work a queued job performs.
type Runner interface {
	ProcessRFP(ctx context.Context, path, rfpID, title string) (map[string]string, error)
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) (string, error)
	Status(id string) (JobInfo, bool)
	Shutdown(ctx context.Context)
}
