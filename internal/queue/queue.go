package queue

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kennethwltu/smspanel/pkg/logger"

	"go.uber.org/zap"
)

// Kind identifies the job type a worker dispatches on
type Kind string

const (
	// KindSingle is a send to exactly one recipient
	KindSingle Kind = "single"
	// KindBulk fans out one message to many recipients
	KindBulk Kind = "bulk"
)

// ErrQueueFull is returned by Enqueue when the queue is at capacity.
// Callers surface this as a "system busy" condition; enqueue never blocks.
var ErrQueueFull = errors.New("task queue is full")

// ErrQueueStopped is returned by Enqueue after Stop has been called
var ErrQueueStopped = errors.New("task queue is stopped")

// Job is one unit of enqueued send work. The queue owns it until a worker
// claims it; it is gone once the handler returns.
type Job struct {
	ID         int64
	Kind       Kind
	MessageID  int64
	Recipients []string
	Content    string
	EnqueuedAt time.Time
}

// HandlerFunc processes one claimed job. A returned error marks the job
// failed in the stats but never kills the worker.
type HandlerFunc func(job Job) error

// Stats is a snapshot of queue activity counters
type Stats struct {
	Pending    int   `json:"pending"`
	Processing int   `json:"processing"`
	Completed  int64 `json:"completed"`
	Failed     int64 `json:"failed"`
	Total      int64 `json:"total"`
}

// TaskQueue is a bounded in-memory work queue with a fixed pool of worker
// goroutines. Jobs are claimed by whichever worker is free first; FIFO order
// is best-effort only.
type TaskQueue struct {
	jobs    chan Job
	workers int

	mu       sync.Mutex
	handlers map[Kind]HandlerFunc

	nextID     atomic.Int64
	processing atomic.Int64
	completed  atomic.Int64
	failed     atomic.Int64

	started atomic.Bool
	stopped atomic.Bool
	quit    chan struct{}
	wg      sync.WaitGroup
}

// New creates a task queue with the given worker count and capacity
func New(workers, maxSize int) *TaskQueue {
	if workers <= 0 {
		workers = 4
	}
	if maxSize <= 0 {
		maxSize = 1000
	}

	return &TaskQueue{
		jobs:     make(chan Job, maxSize),
		workers:  workers,
		handlers: make(map[Kind]HandlerFunc),
		quit:     make(chan struct{}),
	}
}

// Register binds a handler to a job kind. Must be called before Start.
func (q *TaskQueue) Register(kind Kind, handler HandlerFunc) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers[kind] = handler
}

// Enqueue adds a job without blocking. It fails with ErrQueueFull when the
// queue is at capacity, leaving the queue depth unchanged.
func (q *TaskQueue) Enqueue(kind Kind, messageID int64, recipients []string, content string) (int64, error) {
	if q.stopped.Load() {
		return 0, ErrQueueStopped
	}
	if len(recipients) == 0 {
		return 0, errors.New("job requires at least one recipient")
	}

	job := Job{
		ID:         q.nextID.Add(1),
		Kind:       kind,
		MessageID:  messageID,
		Recipients: recipients,
		Content:    content,
		EnqueuedAt: time.Now().UTC(),
	}

	select {
	case q.jobs <- job:
		logger.Debug("Job enqueued",
			zap.Int64("job_id", job.ID),
			zap.String("kind", string(job.Kind)),
			zap.Int64("message_id", job.MessageID),
		)
		return job.ID, nil
	default:
		logger.Warn("Task queue is full, rejecting job",
			zap.String("kind", string(kind)),
			zap.Int64("message_id", messageID),
		)
		return 0, ErrQueueFull
	}
}

// Start launches the worker pool. Calling Start twice is a no-op.
func (q *TaskQueue) Start() {
	if !q.started.CompareAndSwap(false, true) {
		logger.Warn("Task queue is already running")
		return
	}

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.workerLoop(i)
	}
	logger.Info("Started background workers", zap.Int("workers", q.workers))
}

// Stop signals all workers and waits for in-flight jobs to finish. Jobs
// still queued are left unprocessed; the in-memory queue is not durable.
func (q *TaskQueue) Stop() {
	if !q.stopped.CompareAndSwap(false, true) {
		return
	}

	close(q.quit)
	q.wg.Wait()

	if remaining := len(q.jobs); remaining > 0 {
		logger.Warn("Stopped with unprocessed jobs in queue", zap.Int("remaining", remaining))
	}
	logger.Info("Stopped background workers")
}

// Depth returns the current number of unclaimed jobs
func (q *TaskQueue) Depth() int {
	return len(q.jobs)
}

// Stats returns a snapshot of the queue counters
func (q *TaskQueue) Stats() Stats {
	return Stats{
		Pending:    len(q.jobs),
		Processing: int(q.processing.Load()),
		Completed:  q.completed.Load(),
		Failed:     q.failed.Load(),
		Total:      q.nextID.Load(),
	}
}

func (q *TaskQueue) workerLoop(workerID int) {
	defer q.wg.Done()

	logger.Info("Worker started", zap.Int("worker_id", workerID))
	for {
		select {
		case <-q.quit:
			logger.Info("Worker stopped", zap.Int("worker_id", workerID))
			return
		case job := <-q.jobs:
			q.processing.Add(1)
			q.runJob(workerID, job)
			q.processing.Add(-1)
		}
	}
}

// runJob dispatches one job to its handler. Panics and errors are contained
// here so a single bad job never terminates the worker.
func (q *TaskQueue) runJob(workerID int, job Job) {
	defer func() {
		if r := recover(); r != nil {
			q.failed.Add(1)
			logger.Error("Job handler panicked",
				zap.Int("worker_id", workerID),
				zap.Int64("job_id", job.ID),
				zap.String("kind", string(job.Kind)),
				zap.Any("panic", r),
			)
		}
	}()

	q.mu.Lock()
	handler, ok := q.handlers[job.Kind]
	q.mu.Unlock()

	if !ok {
		q.failed.Add(1)
		logger.Error("No handler registered for job kind",
			zap.Int64("job_id", job.ID),
			zap.String("kind", string(job.Kind)),
		)
		return
	}

	if err := handler(job); err != nil {
		q.failed.Add(1)
		logger.Error("Job execution error",
			zap.Int("worker_id", workerID),
			zap.Int64("job_id", job.ID),
			zap.String("kind", string(job.Kind)),
			zap.Int64("message_id", job.MessageID),
			zap.Error(err),
		)
		return
	}

	q.completed.Add(1)
	logger.Debug("Job completed",
		zap.Int("worker_id", workerID),
		zap.Int64("job_id", job.ID),
		zap.Duration("queued_for", time.Since(job.EnqueuedAt)),
	)
}

// String implements fmt.Stringer for log friendliness
func (j Job) String() string {
	return fmt.Sprintf("job %d (%s) message=%d recipients=%d", j.ID, j.Kind, j.MessageID, len(j.Recipients))
}
