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
)

type commentServiceFixture struct {
	svc          service.CommentService
	commentStore *mocks.MockCommentStore
	taskStore    *mocks.MockTaskStore
	wsStore      *mocks.MockWorkspaceStore
	emitter      *mocks.MockEventEmitter
}

func newCommentServiceFixture(t *testing.T) *commentServiceFixture {
	t.Helper()

	commentStore := mocks.NewMockCommentStore()
	taskStore := mocks.NewMockTaskStore()
	wsStore := mocks.NewMockWorkspaceStore()
	emitter := mocks.NewMockEventEmitter()
	audit := service.NewAuditService(mocks.NewMockAuditStore(), testLogger())
	workspaces := service.NewWorkspaceService(wsStore, audit, nil, testLogger())

	return &commentServiceFixture{
		svc:          service.NewCommentService(commentStore, taskStore, workspaces, audit, emitter, nil, testLogger()),
		commentStore: commentStore,
		taskStore:    taskStore,
		wsStore:      wsStore,
		emitter:      emitter,
	}
}

func TestCommentService_CreateComment_Permissions(t *testing.T) {
	ctx := context.Background()
	authorID := uuid.New()

	f := newCommentServiceFixture(t)
	workspace := seedWorkspace(t, f.wsStore, authorID)
	task := seedTask(t, f.taskStore, workspace.ID, authorID)

	t.Run("non-member cannot comment", func(t *testing.T) {
		_, err := f.svc.CreateComment(ctx, uuid.New(), task.ID, nil, "hello")
		assert.ErrorIs(t, err, service.ErrNotMember)
	})

	t.Run("reply must target the same task", func(t *testing.T) {
		otherTask := seedTask(t, f.taskStore, workspace.ID, authorID)
		parent, err := domain.NewComment(otherTask.ID, authorID, nil, "parent")
		require.NoError(t, err)
		f.commentStore.Comments[parent.ID] = parent

		_, err = f.svc.CreateComment(ctx, authorID, task.ID, &parent.ID, "reply")
		assert.ErrorIs(t, err, domain.ErrValidation)
	})
}

func TestCommentService_ListComments(t *testing.T) {
	ctx := context.Background()
	authorID := uuid.New()

	f := newCommentServiceFixture(t)
	workspace := seedWorkspace(t, f.wsStore, authorID)
	task := seedTask(t, f.taskStore, workspace.ID, authorID)

	first, err := domain.NewComment(task.ID, authorID, nil, "first")
	require.NoError(t, err)
	f.commentStore.Comments[first.ID] = first

	comments, err := f.svc.ListComments(ctx, authorID, task.ID, 50, 0)
	require.NoError(t, err)
	assert.Len(t, comments, 1)

	_, err = f.svc.ListComments(ctx, uuid.New(), task.ID, 50, 0)
	assert.ErrorIs(t, err, service.ErrNotMember)
}

func TestCommentService_DeleteComment_Permissions(t *testing.T) {
	ctx := context.Background()
	authorID := uuid.New()
	memberID := uuid.New()

	f := newCommentServiceFixture(t)
	workspace := seedWorkspace(t, f.wsStore, authorID)
	seedMember(t, f.wsStore, workspace.ID, memberID, domain.RoleMember)
	task := seedTask(t, f.taskStore, workspace.ID, authorID)

	comment, err := domain.NewComment(task.ID, authorID, nil, "mine")
	require.NoError(t, err)
	f.commentStore.Comments[comment.ID] = comment

	// A plain member who is not the author cannot delete
	err = f.svc.DeleteComment(ctx, memberID, comment.ID)
	assert.ErrorIs(t, err, service.ErrNotOwned)

	err = f.svc.DeleteComment(ctx, uuid.New(), comment.ID)
	assert.ErrorIs(t, err, service.ErrNotMember)
}
