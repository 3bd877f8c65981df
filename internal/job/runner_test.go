package job

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhub/taskhub-api/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

func extractJobIDs(jobs []Job) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(jobs))
	for _, j := range jobs {
		ids = append(ids, j.ID())
	}
	return ids
}

func TestJobRunner_Submit(t *testing.T) {
	t.Parallel()

	store := NewMockJobStore()
	logger := discardLogger()

	config := DefaultJobRunnerConfig()
	config.QueueSize = 2

	runner := NewJobRunner(store, config, logger)

	t.Run("successful submission", func(t *testing.T) {
		j := CreateMockJobWithPayload("test job")
		err := runner.Submit(context.Background(), j)

		assert.NoError(t, err)

		// Verify job was saved to store
		pendingJobs, _ := store.GetPendingJobs(context.Background())
		assert.Contains(t, extractJobIDs(pendingJobs), j.ID())
	})

	t.Run("queue full", func(t *testing.T) {
		smallStore := NewMockJobStore()
		smallConfig := DefaultJobRunnerConfig()
		smallConfig.QueueSize = 1

		smallRunner := NewJobRunner(smallStore, smallConfig, logger)

		// Fill the queue
		job1 := CreateMockJobWithPayload("job 1")
		err := smallRunner.Submit(context.Background(), job1)
		require.NoError(t, err)

		job2 := CreateMockJobWithPayload("job 2")
		err = smallRunner.Submit(context.Background(), job2)

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "queue is full")
	})

	t.Run("store error", func(t *testing.T) {
		errorStore := NewMockJobStore()
		errorStore.SaveFn = func(ctx context.Context, j Job) error {
			return errors.New("mock store error")
		}

		errorRunner := NewJobRunner(errorStore, config, logger)

		j := CreateMockJobWithPayload("error job")
		err := errorRunner.Submit(context.Background(), j)

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to save job")
	})
}

func TestJobRunner_Start_and_Processing(t *testing.T) {
	t.Parallel()

	store := NewMockJobStore()
	logger := discardLogger()

	config := DefaultJobRunnerConfig()
	config.WorkerCount = 2
	config.QueueSize = 10

	runner := NewJobRunner(store, config, logger)

	completedChan := make(chan uuid.UUID, 5)

	var mu sync.Mutex
	jobIDs := make([]uuid.UUID, 0, 3)

	for i := 0; i < 3; i++ {
		j := CreateMockJobWithPayload("test job")

		mu.Lock()
		jobIDs = append(jobIDs, j.ID())
		mu.Unlock()

		id := j.ID()
		j.ExecuteFn = func(ctx context.Context) error {
			completedChan <- id
			return nil
		}

		err := runner.Submit(context.Background(), j)
		require.NoError(t, err)
	}

	err := runner.Start()
	require.NoError(t, err)
	defer runner.Stop()

	// Wait for all jobs to execute
	executed := make(map[uuid.UUID]bool)
	timeout := time.After(5 * time.Second)
	for len(executed) < 3 {
		select {
		case id := <-completedChan:
			executed[id] = true
		case <-timeout:
			t.Fatalf("timed out waiting for jobs, executed %d of 3", len(executed))
		}
	}

	mu.Lock()
	for _, id := range jobIDs {
		assert.True(t, executed[id], "job %s should have executed", id)
	}
	mu.Unlock()
}

func TestJobRunner_FailedJob(t *testing.T) {
	t.Parallel()

	store := NewMockJobStore()
	logger := discardLogger()

	config := DefaultJobRunnerConfig()
	config.WorkerCount = 1
	config.QueueSize = 5

	runner := NewJobRunner(store, config, logger)

	// Capture errors routed to the handler
	handlerCalled := make(chan error, 1)
	runner.SetErrorHandler(func(j Job, err error) {
		handlerCalled <- err
	})

	execErr := errors.New("execution failed")
	j := CreateMockJobWithPayload("failing job")
	j.ExecuteFn = func(ctx context.Context) error {
		return execErr
	}

	require.NoError(t, runner.Submit(context.Background(), j))
	require.NoError(t, runner.Start())
	defer runner.Stop()

	select {
	case err := <-handlerCalled:
		assert.Equal(t, execErr, err)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for error handler")
	}
}

func TestJobRunner_Recover(t *testing.T) {
	t.Parallel()

	store := NewMockJobStore()
	logger := discardLogger()

	// Seed the store with a pending and a processing job, simulating a
	// previous process that died mid-run
	pendingJob := CreateMockJobWithPayload("pending job")
	require.NoError(t, store.SaveJob(context.Background(), pendingJob))

	processingJob := CreateMockJobWithPayload("processing job")
	processingJob.JobStatus = JobStatusProcessing
	require.NoError(t, store.SaveJob(context.Background(), processingJob))

	config := DefaultJobRunnerConfig()
	config.QueueSize = 10

	runner := NewJobRunner(store, config, logger)

	err := runner.Recover()
	require.NoError(t, err)

	// Both jobs should have been requeued
	assert.Len(t, runner.jobChan, 2)

	// The processing job should have been reset to pending
	pendingJobs, _ := store.GetPendingJobs(context.Background())
	assert.Contains(t, extractJobIDs(pendingJobs), processingJob.ID())
}

func TestJobRunner_RecoveredJobDeliversExactlyOnce(t *testing.T) {
	t.Parallel()

	store := NewMockJobStore()
	logger := discardLogger()
	notifier := newMockNotifier()

	recipientID := uuid.New()
	payload, err := json.Marshal(NotificationDeliveryPayload{
		RecipientIDs: []uuid.UUID{recipientID},
		Kind:         domain.NotificationMention,
		Title:        "You were mentioned",
	})
	require.NoError(t, err)

	// A job as it comes back from the database: type, payload, and status,
	// but no execution logic attached
	stored := NewMockJob(uuid.New(), JobTypeNotificationDelivery, payload)
	stored.ExecuteFn = func(ctx context.Context) error {
		return errors.New("stored job executed without rehydration")
	}
	require.NoError(t, store.SaveJob(context.Background(), stored))

	config := DefaultJobRunnerConfig()
	config.WorkerCount = 1
	config.QueueSize = 10

	factory := NewNotificationDeliveryJobFactory(notifier, logger)
	runner := NewJobRunner(store, config, logger)
	runner.SetRehydrator(factory.RehydrateJob)

	require.NoError(t, runner.Start())
	defer runner.Stop()

	countCreated := func() int {
		notifier.mu.Lock()
		defer notifier.mu.Unlock()
		return len(notifier.created)
	}

	deadline := time.After(5 * time.Second)
	for countCreated() == 0 {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for recovered job to deliver")
		case <-time.After(10 * time.Millisecond):
		}
	}

	// Recovery runs once inside Start; no second pass should requeue the job
	time.Sleep(100 * time.Millisecond)
	require.Equal(t, 1, countCreated())

	notifier.mu.Lock()
	assert.Equal(t, recipientID, notifier.created[0])
	notifier.mu.Unlock()
}

func TestJobRunner_UnrecoverableJobMarkedFailed(t *testing.T) {
	t.Parallel()

	store := NewMockJobStore()
	logger := discardLogger()

	stored := NewMockJob(uuid.New(), "unknown_type", []byte("{}"))
	require.NoError(t, store.SaveJob(context.Background(), stored))

	config := DefaultJobRunnerConfig()
	config.QueueSize = 10

	factory := NewNotificationDeliveryJobFactory(newMockNotifier(), logger)
	runner := NewJobRunner(store, config, logger)
	runner.SetRehydrator(factory.RehydrateJob)

	require.NoError(t, runner.Recover())

	// The job was not requeued and will not be retried on the next restart
	assert.Empty(t, runner.jobChan)
	assert.Equal(t, JobStatusFailed, stored.Status())
}
