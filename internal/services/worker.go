package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"alfredoptarigan/interview-analyzer/internal/logger"
	"alfredoptarigan/interview-analyzer/internal/metrics"
	"alfredoptarigan/interview-analyzer/internal/models"
	"alfredoptarigan/interview-analyzer/internal/repositories"
)

type Worker interface {
	Start(ctx context.Context)
	Stop()
	EnqueueJob(jobID uuid.UUID)
}

type WorkerOptions struct {
	Concurrency  int
	QueueSize    int
	JobTimeout   time.Duration
	PollInterval time.Duration
	Retry        RetryPolicy
}

type worker struct {
	jobRepo  repositories.AnalysisJobRepository
	pipeline Pipeline
	opts     WorkerOptions
	log      *zap.Logger

	jobQueue chan uuid.UUID
	wg       sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
}

func NewWorker(
	jobRepo repositories.AnalysisJobRepository,
	pipeline Pipeline,
	opts WorkerOptions,
	log *zap.Logger,
) Worker {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 100
	}
	if opts.JobTimeout <= 0 {
		opts.JobTimeout = 5 * time.Minute
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 10 * time.Second
	}

	return &worker{
		jobRepo:  jobRepo,
		pipeline: pipeline,
		opts:     opts,
		log:      logger.WithComponent(log, "worker"),
		jobQueue: make(chan uuid.UUID, opts.QueueSize),
		stopChan: make(chan struct{}),
	}
}

// Start implements Worker.
func (w *worker) Start(ctx context.Context) {
	for i := 0; i < w.opts.Concurrency; i++ {
		w.wg.Add(1)
		go w.processJobs(ctx, i+1)
	}

	w.wg.Add(1)
	go w.pollPendingJobs(ctx)

	w.log.Info("worker started", zap.Int("concurrency", w.opts.Concurrency))
}

// Stop implements Worker. In-flight jobs finish before Stop returns.
func (w *worker) Stop() {
	w.stopOnce.Do(func() {
		w.log.Info("stopping worker")
		close(w.stopChan)
		w.wg.Wait()
		w.log.Info("worker stopped")
	})
}

// EnqueueJob implements Worker. When the queue is full the job stays queued
// in the database and the poller picks it up later.
func (w *worker) EnqueueJob(jobID uuid.UUID) {
	select {
	case <-w.stopChan:
		w.log.Warn("worker stopped, cannot enqueue job", zap.Stringer(logger.FieldJobID, jobID))
	case w.jobQueue <- jobID:
		w.log.Debug("job enqueued", zap.Stringer(logger.FieldJobID, jobID))
	default:
		w.log.Warn("job queue full, deferring to poller", zap.Stringer(logger.FieldJobID, jobID))
	}
}

func (w *worker) processJobs(ctx context.Context, workerID int) {
	defer w.wg.Done()
	log := w.log.With(zap.Int("worker", workerID))

	for {
		select {
		case <-w.stopChan:
			return
		case <-ctx.Done():
			return
		case jobID := <-w.jobQueue:
			if err := w.processJob(ctx, jobID); err != nil {
				log.Error("job failed", zap.Stringer(logger.FieldJobID, jobID), zap.Error(err))
			}
		}
	}
}

// processJob runs one job end to end. A job another worker already claimed
// is skipped.
func (w *worker) processJob(ctx context.Context, jobID uuid.UUID) error {
	log := logger.WithFields(w.log, zap.Stringer(logger.FieldJobID, jobID))

	claimed, err := w.jobRepo.ClaimJob(ctx, jobID)
	if err != nil {
		return fmt.Errorf("failed to claim job: %w", err)
	}
	if !claimed {
		log.Debug("job already claimed")
		return nil
	}

	// From here on the job is ours, so every exit must leave it in a final state.
	job, err := w.jobRepo.FindByID(ctx, jobID)
	if err != nil {
		return w.fail(ctx, jobID, fmt.Errorf("failed to load job: %w", err))
	}

	var req models.AnalysisRequest
	if err := json.Unmarshal([]byte(job.Payload), &req); err != nil {
		return w.fail(ctx, jobID, fmt.Errorf("invalid job payload: %w", err))
	}

	log.Info("processing job", zap.Int("attempts", job.Attempts))

	jobCtx, cancel := context.WithTimeout(ctx, w.opts.JobTimeout)
	defer cancel()

	var report *models.InterviewReport
	err = w.opts.Retry.Do(jobCtx, func(ctx context.Context) error {
		r, err := w.pipeline.AnalyzeInterview(ctx, &req)
		if err != nil {
			log.Warn("analysis attempt failed", zap.Error(err))
			return err
		}
		report = r
		return nil
	})
	if err != nil {
		return w.fail(ctx, jobID, err)
	}

	result, err := json.Marshal(report)
	if err != nil {
		return w.fail(ctx, jobID, fmt.Errorf("failed to encode result: %w", err))
	}
	if err := w.jobRepo.UpdateResult(ctx, jobID, string(result)); err != nil {
		return w.fail(ctx, jobID, fmt.Errorf("failed to save result: %w", err))
	}

	metrics.AnalysisJobs.WithLabelValues(string(models.JobStatusSuccess)).Inc()
	log.Info("job completed", zap.Int("feedback", len(report.Feedback)))
	return nil
}

func (w *worker) fail(ctx context.Context, jobID uuid.UUID, cause error) error {
	metrics.AnalysisJobs.WithLabelValues(string(models.JobStatusFailure)).Inc()
	if err := w.jobRepo.UpdateError(ctx, jobID, cause.Error()); err != nil {
		return fmt.Errorf("failed to record job error %q: %w", cause.Error(), err)
	}
	return cause
}

func (w *worker) pollPendingJobs(ctx context.Context) {
	defer w.wg.Done()
	ticker := time.NewTicker(w.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopChan:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			pendingJobs, err := w.jobRepo.FindPendingJobs(ctx, 10, w.opts.PollInterval)
			if err != nil {
				w.log.Warn("failed to fetch pending jobs", zap.Error(err))
				continue
			}

			if len(pendingJobs) > 0 {
				w.log.Info("re-enqueueing pending jobs", zap.Int("count", len(pendingJobs)))
			}
			for _, job := range pendingJobs {
				w.EnqueueJob(job.ID)
			}
		}
	}
}
