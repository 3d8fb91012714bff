package async

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/joseph-ayodele/document-analyzer/constants"
	"github.com/joseph-ayodele/document-analyzer/internal/common"
	"github.com/joseph-ayodele/document-analyzer/internal/telemetry"
)

type ProcessorQueue struct {
	proc    Analyzer
	status  StatusUpdater
	logger  *slog.Logger
	metrics *telemetry.Metrics
	workers int
	timeout time.Duration

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	// quit is closed before Shutdown takes mu, so senders blocked on a full
	// ch give up their read lock.
	quit     chan struct{}
	quitOnce sync.Once

	mu     sync.RWMutex
	closed bool
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

func WithMetrics(m *telemetry.Metrics) Option {
	return func(q *ProcessorQueue) { q.metrics = m }
}

func NewProcessorQueue(proc Analyzer, status StatusUpdater, logger *slog.Logger, opts ...Option) *ProcessorQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &ProcessorQueue{
		proc:    proc,
		status:  status,
		logger:  logger,
		workers: 2,
		timeout: 3 * time.Minute,
		ch:      make(chan Job, 100),
		quit:    make(chan struct{}),
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
					q.metrics.SetQueueDepth(len(q.ch))
					q.run(workerID, job)
				}
				q.logger.Info("worker stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (q *ProcessorQueue) run(workerID int, job Job) {
	q.metrics.AddActiveWorkers(1)
	defer q.metrics.AddActiveWorkers(-1)

	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	defer cancel()

	q.setStatus(ctx, job, constants.DocumentStatusRunning, nil)
	stored, _, err := q.proc.AnalyzeAndStore(ctx, job.DocumentID.String(), job.OwnerID, job.Options, job.Category)
	if errors.Is(err, common.ErrAlreadyAnalyzed) {
		q.setStatus(ctx, job, constants.DocumentStatusAnalyzed, nil)
		q.logger.Info("document already analysed, job dropped", "worker_id", workerID,
			"document_id", job.DocumentID, "request_id", job.RequestID)
		return
	}
	if err != nil {
		msg := err.Error()
		q.setStatus(ctx, job, constants.DocumentStatusFailed, &msg)
		q.logger.Error("analysis failed", "worker_id", workerID, "document_id", job.DocumentID,
			"request_id", job.RequestID, "error", err)
		return
	}
	q.setStatus(ctx, job, constants.DocumentStatusAnalyzed, nil)
	q.logger.Info("analysis stored", "worker_id", workerID, "document_id", job.DocumentID,
		"record_id", stored.ID, "waited", time.Since(job.SubmittedAt))
}

func (q *ProcessorQueue) setStatus(ctx context.Context, job Job, st constants.DocumentStatus, msg *string) {
	if q.status == nil {
		return
	}
	if err := q.status.SetStatus(ctx, job.DocumentID, st, msg); err != nil {
		q.logger.Warn("failed to update document status", "document_id", job.DocumentID, "status", st, "error", err)
	}
}

// Enqueue blocks while the queue is full, until ctx is done.
func (q *ProcessorQueue) Enqueue(ctx context.Context, job Job) error {
	if err := job.validate(); err != nil {
		return err
	}
	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = time.Now()
	}

	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		q.logger.Warn("cannot enqueue: queue is shutting down", "document_id", job.DocumentID)
		q.metrics.RecordDropped()
		return ErrQueueClosed
	}

	q.setStatus(ctx, job, constants.DocumentStatusQueued, nil)
	select {
	case q.ch <- job:
	default:
		q.logger.Warn("queue full, applying backpressure", "document_id", job.DocumentID)
		select {
		case q.ch <- job:
		case <-q.quit:
			q.metrics.RecordDropped()
			q.setStatus(context.WithoutCancel(ctx), job, constants.DocumentStatusUploaded, nil)
			return ErrQueueClosed
		case <-ctx.Done():
			q.metrics.RecordDropped()
			q.setStatus(context.WithoutCancel(ctx), job, constants.DocumentStatusUploaded, nil)
			return ctx.Err()
		}
	}
	q.metrics.SetQueueDepth(len(q.ch))
	q.logger.Info("queued document for analysis", "document_id", job.DocumentID, "category", job.Category.String())
	return nil
}

// Shutdown stops accepting jobs and waits for queued ones to finish or for
// ctx to end.
func (q *ProcessorQueue) Shutdown(ctx context.Context) {
	q.quitOnce.Do(func() { close(q.quit) })
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
