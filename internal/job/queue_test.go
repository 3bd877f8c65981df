package job

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

// mockJob implements the Job interface for testing
type mockJob struct {
	id      uuid.UUID
	jobType string
	payload []byte
	status  JobStatus
	execFn  func(ctx context.Context) error
}

func (m *mockJob) ID() uuid.UUID {
	return m.id
}

func (m *mockJob) Type() string {
	return m.jobType
}

func (m *mockJob) Payload() []byte {
	return m.payload
}

func (m *mockJob) Status() JobStatus {
	return m.status
}

func (m *mockJob) Execute(ctx context.Context) error {
	if m.execFn != nil {
		return m.execFn(ctx)
	}
	return nil
}

func newMockJobForQueue() *mockJob {
	return &mockJob{
		id:      uuid.New(),
		jobType: "mock",
		payload: []byte("test payload"),
		status:  JobStatusPending,
	}
}

func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

func TestNewJobQueue(t *testing.T) {
	logger := setupTestLogger()
	queueSize := 10
	queue := NewJobQueue(queueSize, logger)

	assert.NotNil(t, queue)
	assert.Equal(t, queueSize, cap(queue.jobs))
	assert.False(t, queue.closed)
}

func TestEnqueue(t *testing.T) {
	logger := setupTestLogger()
	queue := NewJobQueue(2, logger)

	// Test successful enqueue
	job1 := newMockJobForQueue()
	err := queue.Enqueue(job1)
	assert.NoError(t, err)

	job2 := newMockJobForQueue()
	err = queue.Enqueue(job2)
	assert.NoError(t, err)

	// Queue is now full
	job3 := newMockJobForQueue()
	err = queue.Enqueue(job3)
	assert.Error(t, err)
	assert.ErrorIs(t, err, ErrQueueFull)
}

func TestEnqueueClosed(t *testing.T) {
	logger := setupTestLogger()
	queue := NewJobQueue(2, logger)

	queue.Close()

	err := queue.Enqueue(newMockJobForQueue())
	assert.ErrorIs(t, err, ErrQueueClosed)

	// Close is idempotent
	queue.Close()
}

func TestGetChannel(t *testing.T) {
	logger := setupTestLogger()
	queue := NewJobQueue(2, logger)

	j := newMockJobForQueue()
	err := queue.Enqueue(j)
	assert.NoError(t, err)

	received := <-queue.GetChannel()
	assert.Equal(t, j.ID(), received.ID())
}
