package testutils

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/taskhub/taskhub-api/internal/domain"
	"github.com/taskhub/taskhub-api/internal/platform/postgres"
)

// SilentLogger returns a logger that discards all output.
func SilentLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// MustInsertUser inserts a user inside the given transaction and returns it.
func MustInsertUser(ctx context.Context, t *testing.T, tx *sql.Tx, email string) *domain.User {
	t.Helper()

	user, err := domain.NewUser(email, "Test User", "correct horse battery")
	require.NoError(t, err)

	userStore := postgres.NewPostgresUserStore(tx, SilentLogger(), bcrypt.MinCost)
	require.NoError(t, userStore.Create(ctx, user))
	return user
}

// MustInsertWorkspace inserts a workspace and makes ownerID its admin.
func MustInsertWorkspace(
	ctx context.Context,
	t *testing.T,
	tx *sql.Tx,
	ownerID uuid.UUID,
	name string,
) *domain.Workspace {
	t.Helper()

	workspace, err := domain.NewWorkspace(name, "")
	require.NoError(t, err)

	wsStore := postgres.NewPostgresWorkspaceStore(tx, SilentLogger())
	require.NoError(t, wsStore.Create(ctx, workspace))

	member, err := domain.NewWorkspaceMember(workspace.ID, ownerID, domain.RoleAdmin)
	require.NoError(t, err)
	require.NoError(t, wsStore.AddMember(ctx, member))

	return workspace
}

// MustInsertTask inserts a task inside the given transaction and returns it.
func MustInsertTask(
	ctx context.Context,
	t *testing.T,
	tx *sql.Tx,
	workspaceID, creatorID uuid.UUID,
	title string,
) *domain.Task {
	t.Helper()

	task, err := domain.NewTask(workspaceID, creatorID, title, "", domain.PriorityMedium)
	require.NoError(t, err)

	taskStore := postgres.NewPostgresTaskStore(tx, SilentLogger())
	require.NoError(t, taskStore.Create(ctx, task))
	return task
}
