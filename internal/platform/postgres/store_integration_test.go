package postgres_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/taskhub/taskhub-api/internal/domain"
	"github.com/taskhub/taskhub-api/internal/platform/postgres"
	"github.com/taskhub/taskhub-api/internal/store"
	"github.com/taskhub/taskhub-api/internal/testutils"
)

// These tests need a real database; each runs inside a rolled-back
// transaction so they are safe to run in parallel.

func TestUserStoreIntegration(t *testing.T) {
	t.Parallel()
	db := testutils.GetTestDB(t)
	ctx := context.Background()

	testutils.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		userStore := postgres.NewPostgresUserStore(tx, testutils.SilentLogger(), bcrypt.MinCost)

		user, err := domain.NewUser("integration@example.com", "Integration", "correct horse battery")
		require.NoError(t, err)
		require.NoError(t, userStore.Create(ctx, user))

		// The plaintext is hashed and cleared on the way in
		assert.Empty(t, user.Password)
		assert.NotEmpty(t, user.HashedPassword)

		got, err := userStore.GetByEmail(ctx, "integration@example.com")
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
		assert.NoError(t, bcrypt.CompareHashAndPassword(
			[]byte(got.HashedPassword), []byte("correct horse battery")))

		// Same email again hits the unique index
		dup, err := domain.NewUser("integration@example.com", "Other", "correct horse battery")
		require.NoError(t, err)
		err = userStore.Create(ctx, dup)
		assert.ErrorIs(t, err, store.ErrEmailExists)

		require.NoError(t, userStore.Delete(ctx, user.ID))
		_, err = userStore.GetByID(ctx, user.ID)
		assert.ErrorIs(t, err, store.ErrUserNotFound)
	})
}

func TestWorkspaceStoreIntegration(t *testing.T) {
	t.Parallel()
	db := testutils.GetTestDB(t)
	ctx := context.Background()

	testutils.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		wsStore := postgres.NewPostgresWorkspaceStore(tx, testutils.SilentLogger())

		admin := testutils.MustInsertUser(ctx, t, tx, "admin@example.com")
		member := testutils.MustInsertUser(ctx, t, tx, "member@example.com")
		workspace := testutils.MustInsertWorkspace(ctx, t, tx, admin.ID, "Engineering")

		m, err := domain.NewWorkspaceMember(workspace.ID, member.ID, domain.RoleMember)
		require.NoError(t, err)
		require.NoError(t, wsStore.AddMember(ctx, m))

		// Re-adding the same member violates the composite key
		err = wsStore.AddMember(ctx, m)
		assert.ErrorIs(t, err, store.ErrMemberExists)

		members, err := wsStore.ListMembers(ctx, workspace.ID)
		require.NoError(t, err)
		require.Len(t, members, 2)
		for _, got := range members {
			// Display names come from the users join
			assert.NotEmpty(t, got.Name)
		}

		require.NoError(t, wsStore.UpdateMemberRole(ctx, workspace.ID, member.ID, domain.RoleGuest))
		got, err := wsStore.GetMember(ctx, workspace.ID, member.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.RoleGuest, got.Role)

		require.NoError(t, wsStore.RemoveMember(ctx, workspace.ID, member.ID))
		_, err = wsStore.GetMember(ctx, workspace.ID, member.ID)
		assert.ErrorIs(t, err, store.ErrMemberNotFound)

		// Deleting the workspace cascades the remaining membership
		require.NoError(t, wsStore.Delete(ctx, workspace.ID))
		_, err = wsStore.GetMember(ctx, workspace.ID, admin.ID)
		assert.ErrorIs(t, err, store.ErrMemberNotFound)
	})
}

func TestTaskStoreIntegration(t *testing.T) {
	t.Parallel()
	db := testutils.GetTestDB(t)
	ctx := context.Background()

	testutils.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		taskStore := postgres.NewPostgresTaskStore(tx, testutils.SilentLogger())

		creator := testutils.MustInsertUser(ctx, t, tx, "creator@example.com")
		workspace := testutils.MustInsertWorkspace(ctx, t, tx, creator.ID, "Tasks")

		first := testutils.MustInsertTask(ctx, t, tx, workspace.ID, creator.ID, "First")
		second := testutils.MustInsertTask(ctx, t, tx, workspace.ID, creator.ID, "Second")

		require.NoError(t, second.SetStatus(domain.TaskStatusInProgress))
		second.AssigneeID = &creator.ID
		require.NoError(t, taskStore.Update(ctx, second))

		all, err := taskStore.ListByWorkspace(ctx, workspace.ID, store.TaskFilter{}, 50, 0)
		require.NoError(t, err)
		assert.Len(t, all, 2)

		// Repeating the query over unchanged data keeps the ordering
		again, err := taskStore.ListByWorkspace(ctx, workspace.ID, store.TaskFilter{}, 50, 0)
		require.NoError(t, err)
		assert.Equal(t, all, again)

		status := domain.TaskStatusInProgress
		filtered, err := taskStore.ListByWorkspace(ctx, workspace.ID, store.TaskFilter{Status: &status}, 50, 0)
		require.NoError(t, err)
		require.Len(t, filtered, 1)
		assert.Equal(t, second.ID, filtered[0].ID)

		assignee := creator.ID
		filtered, err = taskStore.ListByWorkspace(ctx, workspace.ID, store.TaskFilter{AssigneeID: &assignee}, 50, 0)
		require.NoError(t, err)
		require.Len(t, filtered, 1)
		assert.Equal(t, second.ID, filtered[0].ID)

		// A task referencing a missing workspace fails the foreign key
		orphan, err := domain.NewTask(uuid.New(), creator.ID, "Orphan", "", domain.PriorityLow)
		require.NoError(t, err)
		err = taskStore.Create(ctx, orphan)
		assert.ErrorIs(t, err, store.ErrForeignKey)

		require.NoError(t, taskStore.Delete(ctx, first.ID))
		_, err = taskStore.GetByID(ctx, first.ID)
		assert.ErrorIs(t, err, store.ErrTaskNotFound)
	})
}

func TestUserDeletionTaskSemantics(t *testing.T) {
	t.Parallel()
	db := testutils.GetTestDB(t)
	ctx := context.Background()

	testutils.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		userStore := postgres.NewPostgresUserStore(tx, testutils.SilentLogger(), bcrypt.MinCost)
		taskStore := postgres.NewPostgresTaskStore(tx, testutils.SilentLogger())
		workspaceStore := postgres.NewPostgresWorkspaceStore(tx, testutils.SilentLogger())

		owner := testutils.MustInsertUser(ctx, t, tx, "owner@example.com")
		leaver := testutils.MustInsertUser(ctx, t, tx, "leaver@example.com")
		workspace := testutils.MustInsertWorkspace(ctx, t, tx, owner.ID, "Churn")

		member, err := domain.NewWorkspaceMember(workspace.ID, leaver.ID, domain.RoleMember)
		require.NoError(t, err)
		require.NoError(t, workspaceStore.AddMember(ctx, member))

		// One task created by the leaving user, one merely assigned to them.
		created := testutils.MustInsertTask(ctx, t, tx, workspace.ID, leaver.ID, "Created by leaver")
		assigned := testutils.MustInsertTask(ctx, t, tx, workspace.ID, owner.ID, "Assigned to leaver")
		assigned.AssigneeID = &leaver.ID
		require.NoError(t, taskStore.Update(ctx, assigned))

		require.NoError(t, userStore.Delete(ctx, leaver.ID))

		// Created tasks go with their creator
		_, err = taskStore.GetByID(ctx, created.ID)
		assert.ErrorIs(t, err, store.ErrTaskNotFound)

		// Assigned tasks survive, unassigned
		kept, err := taskStore.GetByID(ctx, assigned.ID)
		require.NoError(t, err)
		assert.Nil(t, kept.AssigneeID)

		// Membership rows are gone too
		_, err = workspaceStore.GetMember(ctx, workspace.ID, leaver.ID)
		assert.ErrorIs(t, err, store.ErrMemberNotFound)
	})
}

func TestCommentStoreIntegration(t *testing.T) {
	t.Parallel()
	db := testutils.GetTestDB(t)
	ctx := context.Background()

	testutils.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		commentStore := postgres.NewPostgresCommentStore(tx, testutils.SilentLogger())
		taskStore := postgres.NewPostgresTaskStore(tx, testutils.SilentLogger())

		author := testutils.MustInsertUser(ctx, t, tx, "author@example.com")
		workspace := testutils.MustInsertWorkspace(ctx, t, tx, author.ID, "Comments")
		task := testutils.MustInsertTask(ctx, t, tx, workspace.ID, author.ID, "Discuss")

		parent, err := domain.NewComment(task.ID, author.ID, nil, "parent")
		require.NoError(t, err)
		require.NoError(t, commentStore.Create(ctx, parent))

		reply, err := domain.NewComment(task.ID, author.ID, &parent.ID, "reply")
		require.NoError(t, err)
		require.NoError(t, commentStore.Create(ctx, reply))

		comments, err := commentStore.ListByTask(ctx, task.ID, 50, 0)
		require.NoError(t, err)
		require.Len(t, comments, 2)
		// Oldest first
		assert.Equal(t, parent.ID, comments[0].ID)

		// Deleting the task cascades its comments
		require.NoError(t, taskStore.Delete(ctx, task.ID))
		comments, err = commentStore.ListByTask(ctx, task.ID, 50, 0)
		require.NoError(t, err)
		assert.Empty(t, comments)
	})
}

func TestAuditStoreIntegration(t *testing.T) {
	t.Parallel()
	db := testutils.GetTestDB(t)
	ctx := context.Background()

	testutils.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		auditStore := postgres.NewPostgresAuditStore(tx, testutils.SilentLogger())

		actor := testutils.MustInsertUser(ctx, t, tx, "actor@example.com")
		entityID := uuid.New()

		entry, err := domain.NewAuditEntry("task", entityID, &actor.ID, domain.AuditCreate, nil, nil)
		require.NoError(t, err)
		require.NoError(t, auditStore.Create(ctx, entry))

		entries, err := auditStore.ListByEntity(ctx, "task", entityID, 50, 0)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, domain.AuditCreate, entries[0].Action)

		entries, err = auditStore.ListByActor(ctx, actor.ID, 50, 0)
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})
}
