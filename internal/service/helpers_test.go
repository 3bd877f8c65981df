package service_test

import (
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/taskhub/taskhub-api/internal/domain"
	"github.com/taskhub/taskhub-api/internal/mocks"
	"github.com/taskhub/taskhub-api/internal/service"
)

// testLogger discards output so failures surface only through assertions.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestWorkspaceService builds a WorkspaceService over mock stores. The
// nil *sql.DB is safe for the permission and read paths under test, which
// never open a transaction.
func newTestWorkspaceService(ws *mocks.MockWorkspaceStore, audit *mocks.MockAuditStore) service.WorkspaceService {
	return service.NewWorkspaceService(ws, service.NewAuditService(audit, testLogger()), nil, testLogger())
}

// seedWorkspace creates a workspace with one admin member and returns both.
func seedWorkspace(t *testing.T, ws *mocks.MockWorkspaceStore, adminID uuid.UUID) *domain.Workspace {
	t.Helper()

	workspace, err := domain.NewWorkspace("Test Workspace", "")
	require.NoError(t, err)
	ws.Workspaces[workspace.ID] = workspace

	member, err := domain.NewWorkspaceMember(workspace.ID, adminID, domain.RoleAdmin)
	require.NoError(t, err)
	ws.AddMemberDirect(member)

	return workspace
}

// seedMember adds a user to the workspace with the given role.
func seedMember(t *testing.T, ws *mocks.MockWorkspaceStore, workspaceID, userID uuid.UUID, role domain.MemberRole) {
	t.Helper()

	member, err := domain.NewWorkspaceMember(workspaceID, userID, role)
	require.NoError(t, err)
	ws.AddMemberDirect(member)
}

// seedTask creates a task in the workspace.
func seedTask(t *testing.T, tasks *mocks.MockTaskStore, workspaceID, creatorID uuid.UUID) *domain.Task {
	t.Helper()

	task, err := domain.NewTask(workspaceID, creatorID, "Test task", "", domain.PriorityMedium)
	require.NoError(t, err)
	tasks.Tasks[task.ID] = task
	return task
}
