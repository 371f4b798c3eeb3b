package async

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/rfp-agent/constants"
)

type ProcessorQueue struct {
	runner  Runner
	logger  *slog.Logger
	workers int
	timeout time.Duration
	now     func() time.Time

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.Mutex
	closed bool

	jobsMu sync.RWMutex
	jobs   map[string]*JobInfo
}

type Option func(*ProcessorQueue)

func WithWorkers(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}
func WithQueueSize(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}
func WithProcessTimeout(d time.Duration) Option {
	return func(q *ProcessorQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

func NewProcessorQueue(runner Runner, logger *slog.Logger, opts ...Option) *ProcessorQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &ProcessorQueue{
		runner:  runner,
		logger:  logger,
		workers: 2,
		timeout: 10 * time.Minute,
		now:     time.Now,
		ch:      make(chan Job, 64),
		jobs:    make(map[string]*JobInfo),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *ProcessorQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Info("worker started", "worker_id", workerID)

				for job := range q.ch {
					q.process(workerID, job)
				}

				q.logger.Info("worker stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (q *ProcessorQueue) process(workerID int, job Job) {
	started := q.now()
	q.update(job.ID, func(info *JobInfo) {
		info.Status = constants.JobStatusRunning
		info.StartedAt = &started
	})

	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	outputs, err := q.runner.ProcessRFP(ctx, job.Path, job.RFPID, job.Title)
	cancel()

	finished := q.now()
	q.update(job.ID, func(info *JobInfo) {
		info.FinishedAt = &finished
		if err != nil {
			info.Status = constants.JobStatusFailed
			info.Error = err.Error()
			return
		}
		info.Status = constants.JobStatusCompleted
		info.Outputs = outputs
	})

	if err != nil {
		q.logger.Error("proposal job failed", "worker_id", workerID, "job_id", job.ID, "rfp_id", job.RFPID, "error", err)
	} else {
		q.logger.Info("proposal job completed", "worker_id", workerID, "job_id", job.ID, "rfp_id", job.RFPID,
			"duration_ms", finished.Sub(started).Milliseconds())
	}
}

func (q *ProcessorQueue) update(id string, fn func(*JobInfo)) {
	q.jobsMu.Lock()
	defer q.jobsMu.Unlock()
	if info, ok := q.jobs[id]; ok {
		fn(info)
	}
}

// Enqueue registers job as queued and hands it to the workers, blocking while
// the buffer is full. It returns the job id, generated when job.ID is empty.
func (q *ProcessorQueue) Enqueue(ctx context.Context, job Job) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		q.logger.Warn("cannot enqueue: queue is shutting down", "rfp_id", job.RFPID)
		return "", ErrQueueClosed
	}
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = q.now()
	}

	q.jobsMu.Lock()
	q.jobs[job.ID] = &JobInfo{
		ID:          job.ID,
		RFPID:       job.RFPID,
		Title:       job.Title,
		Status:      constants.JobStatusQueued,
		SubmittedAt: job.SubmittedAt,
	}
	q.jobsMu.Unlock()

	select {
	case q.ch <- job:
		q.logger.Info("queued proposal job", "job_id", job.ID, "rfp_id", job.RFPID)
		return job.ID, nil
	default:
	}

	q.logger.Warn("queue full, applying backpressure", "job_id", job.ID)
	select {
	case q.ch <- job:
		return job.ID, nil
	case <-ctx.Done():
		q.jobsMu.Lock()
		delete(q.jobs, job.ID)
		q.jobsMu.Unlock()
		return "", ctx.Err()
	}
}

// Status returns a snapshot of the job's state.
func (q *ProcessorQueue) Status(id string) (JobInfo, bool) {
	q.jobsMu.RLock()
	defer q.jobsMu.RUnlock()
	info, ok := q.jobs[id]
	if !ok {
		return JobInfo{}, false
	}
	out := *info
	if info.Outputs != nil {
		out.Outputs = make(map[string]string, len(info.Outputs))
		for k, v := range info.Outputs {
			out.Outputs[k] = v
		}
	}
	return out, true
}

func (q *ProcessorQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("shutdown interrupted by context")
	case <-done:
		q.logger.Info("queue drained, shutdown complete")
	}
}
