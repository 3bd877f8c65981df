package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhub/taskhub-api/internal/domain"
	"github.com/taskhub/taskhub-api/internal/mocks"
	"github.com/taskhub/taskhub-api/internal/service"
	"github.com/taskhub/taskhub-api/internal/store"
)

type taskServiceFixture struct {
	svc       service.TaskService
	taskStore *mocks.MockTaskStore
	wsStore   *mocks.MockWorkspaceStore
	emitter   *mocks.MockEventEmitter
}

func newTaskServiceFixture(t *testing.T) *taskServiceFixture {
	t.Helper()

	taskStore := mocks.NewMockTaskStore()
	wsStore := mocks.NewMockWorkspaceStore()
	emitter := mocks.NewMockEventEmitter()
	audit := service.NewAuditService(mocks.NewMockAuditStore(), testLogger())
	workspaces := service.NewWorkspaceService(wsStore, audit, nil, testLogger())

	return &taskServiceFixture{
		svc:       service.NewTaskService(taskStore, workspaces, audit, emitter, nil, testLogger()),
		taskStore: taskStore,
		wsStore:   wsStore,
		emitter:   emitter,
	}
}

func TestTaskService_CreateTask_Permissions(t *testing.T) {
	ctx := context.Background()
	creatorID := uuid.New()
	outsiderID := uuid.New()

	f := newTaskServiceFixture(t)
	workspace := seedWorkspace(t, f.wsStore, creatorID)

	t.Run("non-member cannot create", func(t *testing.T) {
		task, err := domain.NewTask(workspace.ID, outsiderID, "Write docs", "", domain.PriorityLow)
		require.NoError(t, err)

		_, err = f.svc.CreateTask(ctx, outsiderID, task)
		assert.ErrorIs(t, err, service.ErrNotMember)
	})

	t.Run("assignee must be a member", func(t *testing.T) {
		task, err := domain.NewTask(workspace.ID, creatorID, "Write docs", "", domain.PriorityLow)
		require.NoError(t, err)
		nonMember := uuid.New()
		task.AssigneeID = &nonMember

		_, err = f.svc.CreateTask(ctx, creatorID, task)
		assert.ErrorIs(t, err, domain.ErrAssigneeNotMember)
	})
}

func TestTaskService_GetTask(t *testing.T) {
	ctx := context.Background()
	creatorID := uuid.New()

	f := newTaskServiceFixture(t)
	workspace := seedWorkspace(t, f.wsStore, creatorID)
	task := seedTask(t, f.taskStore, workspace.ID, creatorID)

	got, err := f.svc.GetTask(ctx, creatorID, task.ID)
	require.NoError(t, err)
	assert.Equal(t, task.ID, got.ID)

	_, err = f.svc.GetTask(ctx, uuid.New(), task.ID)
	assert.ErrorIs(t, err, service.ErrNotMember)

	_, err = f.svc.GetTask(ctx, creatorID, uuid.New())
	assert.ErrorIs(t, err, store.ErrTaskNotFound)
}

func TestTaskService_ListTasks(t *testing.T) {
	ctx := context.Background()
	creatorID := uuid.New()

	f := newTaskServiceFixture(t)
	workspace := seedWorkspace(t, f.wsStore, creatorID)
	seedTask(t, f.taskStore, workspace.ID, creatorID)
	done := seedTask(t, f.taskStore, workspace.ID, creatorID)
	require.NoError(t, done.SetStatus(domain.TaskStatusDone))

	all, err := f.svc.ListTasks(ctx, creatorID, workspace.ID, store.TaskFilter{}, 50, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	status := domain.TaskStatusDone
	filtered, err := f.svc.ListTasks(ctx, creatorID, workspace.ID, store.TaskFilter{Status: &status}, 50, 0)
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, done.ID, filtered[0].ID)

	_, err = f.svc.ListTasks(ctx, uuid.New(), workspace.ID, store.TaskFilter{}, 50, 0)
	assert.ErrorIs(t, err, service.ErrNotMember)
}

func TestTaskService_UpdateTask_Validation(t *testing.T) {
	ctx := context.Background()
	creatorID := uuid.New()

	f := newTaskServiceFixture(t)
	workspace := seedWorkspace(t, f.wsStore, creatorID)
	task := seedTask(t, f.taskStore, workspace.ID, creatorID)

	t.Run("empty update is a no-op", func(t *testing.T) {
		got, err := f.svc.UpdateTask(ctx, creatorID, task.ID, service.TaskUpdate{})
		require.NoError(t, err)
		assert.Equal(t, task.ID, got.ID)
		assert.Zero(t, f.emitter.EmittedCount())
	})

	t.Run("invalid status is rejected", func(t *testing.T) {
		bad := domain.TaskStatus("archived")
		_, err := f.svc.UpdateTask(ctx, creatorID, task.ID, service.TaskUpdate{Status: &bad})
		assert.Error(t, err)
	})

	t.Run("assigning a non-member is rejected", func(t *testing.T) {
		outsider := uuid.New()
		_, err := f.svc.UpdateTask(ctx, creatorID, task.ID, service.TaskUpdate{AssigneeID: &outsider})
		assert.ErrorIs(t, err, domain.ErrAssigneeNotMember)
	})
}

func TestTaskService_DeleteTask_Permissions(t *testing.T) {
	ctx := context.Background()
	creatorID := uuid.New()
	memberID := uuid.New()

	f := newTaskServiceFixture(t)
	workspace := seedWorkspace(t, f.wsStore, creatorID)
	seedMember(t, f.wsStore, workspace.ID, memberID, domain.RoleMember)
	task := seedTask(t, f.taskStore, workspace.ID, creatorID)

	// A plain member who is not the creator cannot delete
	err := f.svc.DeleteTask(ctx, memberID, task.ID)
	assert.ErrorIs(t, err, service.ErrNotOwned)

	// Outsiders are rejected before ownership is considered
	err = f.svc.DeleteTask(ctx, uuid.New(), task.ID)
	assert.ErrorIs(t, err, service.ErrNotMember)
}
