package job

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// JobRunnerConfig holds configuration for the job runner
type JobRunnerConfig struct {
	// WorkerCount determines how many concurrent workers process jobs
	WorkerCount int

	// QueueSize determines the buffer size for the in-memory job queue
	QueueSize int

	// StuckJobAge defines how long a job can be in processing state
	// before it's considered stuck and reset
	StuckJobAge time.Duration

	// StuckJobCheckInterval defines how often to check for stuck jobs
	// If zero, defaults to 5 minutes
	StuckJobCheckInterval time.Duration
}

// DefaultJobRunnerConfig returns a JobRunnerConfig with reasonable defaults
func DefaultJobRunnerConfig() JobRunnerConfig {
	return JobRunnerConfig{
		WorkerCount:           2,
		QueueSize:             100,
		StuckJobAge:           30 * time.Minute,
		StuckJobCheckInterval: 5 * time.Minute,
	}
}

// JobRunner manages background job processing
type JobRunner struct {
	store      JobStore
	jobChan    chan Job
	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	config     JobRunnerConfig
	logger     *slog.Logger
	errHandler func(job Job, err error)
	rehydrate  func(stored Job) (Job, error)
}

// NewJobRunner creates a new JobRunner
func NewJobRunner(store JobStore, config JobRunnerConfig, logger *slog.Logger) *JobRunner {
	if config.StuckJobCheckInterval == 0 {
		config.StuckJobCheckInterval = 5 * time.Minute
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &JobRunner{
		store:      store,
		jobChan:    make(chan Job, config.QueueSize),
		ctx:        ctx,
		cancelFunc: cancel,
		wg:         sync.WaitGroup{},
		config:     config,
		logger:     logger,
		errHandler: func(job Job, err error) {
			// Default error handler just logs the error
			logger.Error("job execution failed",
				"job_id", job.ID(),
				"job_type", job.Type(),
				"error", err)
		},
	}
}

// SetErrorHandler allows setting a custom error handler function
func (r *JobRunner) SetErrorHandler(handler func(job Job, err error)) {
	r.errHandler = handler
}

// SetRehydrator installs the function that rebuilds executable jobs from
// their stored form during recovery. Jobs loaded from the database carry
// only their serialized payload and cannot run as-is; the rehydrator must
// be set before Start or recovered jobs are marked failed.
func (r *JobRunner) SetRehydrator(fn func(stored Job) (Job, error)) {
	r.rehydrate = fn
}

// Submit adds a new job to the queue
func (r *JobRunner) Submit(ctx context.Context, job Job) error {
	// Save job to database first
	if err := r.store.SaveJob(ctx, job); err != nil {
		return fmt.Errorf("failed to save job: %w", err)
	}

	// Then add to in-memory queue
	select {
	case r.jobChan <- job:
		return nil
	default:
		return fmt.Errorf("job queue is full, try again later")
	}
}

// Start initializes the worker pool and begins processing jobs
func (r *JobRunner) Start() error {
	// Recover unfinished jobs from previous runs
	if err := r.Recover(); err != nil {
		return fmt.Errorf("failed to recover jobs: %w", err)
	}

	for i := 0; i < r.config.WorkerCount; i++ {
		r.wg.Add(1)
		go r.worker(i)
	}

	// Start goroutine to check for stuck jobs periodically
	r.wg.Add(1)
	go r.stuckJobMonitor()

	return nil
}

// Stop gracefully shuts down the job runner
func (r *JobRunner) Stop() {
	r.cancelFunc()
	r.wg.Wait()
	close(r.jobChan)
}

// Recover loads any unfinished jobs from the database
func (r *JobRunner) Recover() error {
	ctx := context.Background()

	// Jobs that never started
	pendingJobs, err := r.store.GetPendingJobs(ctx)
	if err != nil {
		return fmt.Errorf("failed to get pending jobs: %w", err)
	}

	// Jobs that were in flight when the previous process died
	processingJobs, err := r.store.GetProcessingJobs(ctx, 0)
	if err != nil {
		return fmt.Errorf("failed to get processing jobs: %w", err)
	}

	r.logger.Info("recovering unfinished jobs",
		"pending_count", len(pendingJobs),
		"processing_count", len(processingJobs))

	for _, j := range pendingJobs {
		restored, ok := r.restoreJob(ctx, j)
		if !ok {
			continue
		}

		select {
		case r.jobChan <- restored:
		default:
			r.logger.Error("failed to requeue pending job, queue is full",
				"job_id", j.ID(),
				"job_type", j.Type())
		}
	}

	// Reset processing jobs back to pending state and requeue them
	for _, j := range processingJobs {
		restored, ok := r.restoreJob(ctx, j)
		if !ok {
			continue
		}

		if err := r.store.UpdateJobStatus(ctx, j.ID(), JobStatusPending, "Reset after recovery"); err != nil {
			r.logger.Error("failed to reset processing job status",
				"job_id", j.ID(),
				"job_type", j.Type(),
				"error", err)
			continue
		}

		select {
		case r.jobChan <- restored:
		default:
			r.logger.Error("failed to requeue processing job, queue is full",
				"job_id", j.ID(),
				"job_type", j.Type())
		}
	}

	return nil
}

// restoreJob rebuilds a stored job into an executable one via the
// configured rehydrator. A job that cannot be rebuilt is marked failed so
// it is not picked up again on the next restart.
func (r *JobRunner) restoreJob(ctx context.Context, stored Job) (Job, bool) {
	if r.rehydrate == nil {
		return stored, true
	}

	restored, err := r.rehydrate(stored)
	if err != nil {
		r.logger.Error("failed to rehydrate recovered job",
			"job_id", stored.ID(),
			"job_type", stored.Type(),
			"error", err)
		if updateErr := r.store.UpdateJobStatus(ctx, stored.ID(), JobStatusFailed, err.Error()); updateErr != nil {
			r.logger.Error("failed to mark unrecoverable job as failed",
				"job_id", stored.ID(),
				"error", updateErr)
		}
		return nil, false
	}

	return restored, true
}

// worker processes jobs from the queue
func (r *JobRunner) worker(id int) {
	defer r.wg.Done()

	r.logger.Debug("starting worker", "worker_id", id)

	for {
		select {
		case <-r.ctx.Done():
			r.logger.Debug("stopping worker", "worker_id", id)
			return

		case j, ok := <-r.jobChan:
			if !ok {
				r.logger.Debug("job channel closed, stopping worker", "worker_id", id)
				return
			}

			r.processJob(j, id)
		}
	}
}

// processJob handles execution of a single job
func (r *JobRunner) processJob(j Job, workerID int) {
	ctx := context.Background()
	logger := r.logger.With(
		"job_id", j.ID(),
		"job_type", j.Type(),
		"worker_id", workerID,
	)

	if err := r.store.UpdateJobStatus(ctx, j.ID(), JobStatusProcessing, ""); err != nil {
		logger.Error("failed to update job status to processing", "error", err)
		return
	}

	logger.Info("processing job")

	err := j.Execute(ctx)

	if err != nil {
		logger.Error("job execution failed", "error", err)
		if updateErr := r.store.UpdateJobStatus(ctx, j.ID(), JobStatusFailed, err.Error()); updateErr != nil {
			logger.Error("failed to update job status to failed", "error", updateErr)
		}

		r.errHandler(j, err)
	} else {
		logger.Info("job completed successfully")
		if updateErr := r.store.UpdateJobStatus(ctx, j.ID(), JobStatusCompleted, ""); updateErr != nil {
			logger.Error("failed to update job status to completed", "error", updateErr)
		}
	}
}

// stuckJobMonitor periodically checks for jobs that have been in "processing"
// state for too long and resets them
func (r *JobRunner) stuckJobMonitor() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.config.StuckJobCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return

		case <-ticker.C:
			ctx := context.Background()

			stuckJobs, err := r.store.GetProcessingJobs(ctx, r.config.StuckJobAge)
			if err != nil {
				r.logger.Error("failed to check for stuck jobs", "error", err)
				continue
			}

			if len(stuckJobs) == 0 {
				continue
			}

			r.logger.Info("found stuck jobs", "count", len(stuckJobs))

			for _, j := range stuckJobs {
				if err := r.store.UpdateJobStatus(ctx, j.ID(), JobStatusPending,
					"Reset after being stuck in processing state"); err != nil {
					r.logger.Error("failed to reset stuck job status",
						"job_id", j.ID(),
						"job_type", j.Type(),
						"error", err)
					continue
				}

				select {
				case r.jobChan <- j:
					r.logger.Info("requeued stuck job",
						"job_id", j.ID(),
						"job_type", j.Type())
				default:
					r.logger.Error("failed to requeue stuck job, queue is full",
						"job_id", j.ID(),
						"job_type", j.Type())
				}
			}
		}
	}
}
