package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/instantverify/verify-api/internal/logging"
	"github.com/instantverify/verify-api/internal/observability"
	"go.uber.org/zap"
)

// OrchestrationJob is one queued pipeline run
type OrchestrationJob struct {
	RequestID  string    `json:"request_id"`
	UserID     string    `json:"user_id"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// Processor runs the pipeline for one request
type Processor interface {
	Run(ctx context.Context, requestID string) error
}

// VerificationQueue feeds accepted verification requests to a fixed worker
// pool. Submission handlers enqueue and return immediately; workers run the
// orchestrator in the background.
type VerificationQueue struct {
	queue           chan OrchestrationJob
	processor       Processor
	workers         int
	wg              sync.WaitGroup
	ctx             context.Context
	cancel          context.CancelFunc
	processingStats *ProcessingStats
	mu              sync.RWMutex
	closed          bool
}

// ProcessingStats tracks queue performance metrics
type ProcessingStats struct {
	JobsEnqueued   int64         `json:"jobs_enqueued"`
	JobsProcessed  int64         `json:"jobs_processed"`
	JobsFailed     int64         `json:"jobs_failed"`
	AverageRunTime time.Duration `json:"average_run_time"`
	QueueSize      int           `json:"queue_size"`
	ActiveWorkers  int           `json:"active_workers"`
}

// NewVerificationQueue creates a queue and starts its workers
func NewVerificationQueue(processor Processor, workers int, queueSize int) *VerificationQueue {
	ctx, cancel := context.WithCancel(context.Background())

	queue := &VerificationQueue{
		queue:           make(chan OrchestrationJob, queueSize),
		processor:       processor,
		workers:         workers,
		ctx:             ctx,
		cancel:          cancel,
		processingStats: &ProcessingStats{},
	}

	queue.startWorkers()
	return queue
}

// startWorkers starts the worker goroutines
func (vq *VerificationQueue) startWorkers() {
	for i := 0; i < vq.workers; i++ {
		vq.wg.Add(1)
		go vq.worker(i)
	}
}

// worker drains jobs from the queue until it is stopped
func (vq *VerificationQueue) worker(id int) {
	defer vq.wg.Done()

	for {
		select {
		case job, ok := <-vq.queue:
			if !ok {
				return
			}
			vq.processJob(job, id)
		case <-vq.ctx.Done():
			return
		}
	}
}

// processJob runs one pipeline and updates the stats
func (vq *VerificationQueue) processJob(job OrchestrationJob, workerID int) {
	startTime := time.Now()
	observability.QueueDepth.Set(float64(len(vq.queue)))

	err := vq.processor.Run(vq.ctx, job.RequestID)

	runTime := time.Since(startTime)

	vq.mu.Lock()
	vq.processingStats.JobsProcessed++
	if err != nil {
		vq.processingStats.JobsFailed++
	}
	if vq.processingStats.AverageRunTime == 0 {
		vq.processingStats.AverageRunTime = runTime
	} else {
		// Simple moving average
		vq.processingStats.AverageRunTime = (vq.processingStats.AverageRunTime + runTime) / 2
	}
	vq.mu.Unlock()

	logger := logging.Logger.With(
		zap.Int("worker_id", workerID),
		zap.String("request_id", job.RequestID),
		zap.Duration("run_time", runTime),
		zap.Duration("queue_wait", startTime.Sub(job.EnqueuedAt)),
	)
	if err != nil {
		logger.Error("verification job failed", zap.Error(err))
		return
	}
	logger.Debug("verification job finished")
}

// Enqueue adds a job to the queue. It never blocks; a full queue is an error
// so the submission handler can refund and reject.
func (vq *VerificationQueue) Enqueue(job OrchestrationJob) error {
	if job.EnqueuedAt.IsZero() {
		job.EnqueuedAt = time.Now()
	}

	// The send must happen under the same lock Stop closes the channel
	// under, or a submission racing shutdown panics.
	vq.mu.Lock()
	defer vq.mu.Unlock()

	if vq.closed {
		return fmt.Errorf("verification queue is stopped")
	}

	select {
	case vq.queue <- job:
		vq.processingStats.JobsEnqueued++
		observability.QueueDepth.Set(float64(len(vq.queue)))
		return nil
	default:
		return fmt.Errorf("verification queue is full")
	}
}

// GetStats returns the current processing statistics
func (vq *VerificationQueue) GetStats() ProcessingStats {
	vq.mu.RLock()
	defer vq.mu.RUnlock()

	stats := *vq.processingStats
	stats.QueueSize = len(vq.queue)
	stats.ActiveWorkers = vq.workers

	return stats
}

// Stop drains the queue and waits for in-flight jobs to finish. Further
// Enqueue calls are rejected; calling Stop again is a no-op.
func (vq *VerificationQueue) Stop() {
	vq.mu.Lock()
	if vq.closed {
		vq.mu.Unlock()
		return
	}
	vq.closed = true
	close(vq.queue)
	vq.mu.Unlock()

	vq.wg.Wait()
	vq.cancel()
}

// IsHealthy checks if the queue is keeping up
func (vq *VerificationQueue) IsHealthy() bool {
	stats := vq.GetStats()

	if stats.QueueSize >= cap(vq.queue) {
		return false
	}
	return true
}
