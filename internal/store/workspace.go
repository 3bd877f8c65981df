package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/taskhub/taskhub-api/internal/domain"
)

// WorkspaceStore defines the interface for workspace and membership persistence.
type WorkspaceStore interface {
	// Create saves a new workspace to the store.
	// Returns validation errors from the domain Workspace if data is invalid.
	Create(ctx context.Context, workspace *domain.Workspace) error

	// GetByID retrieves a workspace by its unique ID.
	// Returns ErrWorkspaceNotFound if the workspace does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Workspace, error)

	// ListForUser retrieves the workspaces the given user is a member of,
	// ordered by creation time, newest first.
	// Returns an empty slice if the user has no memberships.
	ListForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Workspace, error)

	// Update modifies an existing workspace's name and description.
	// Returns ErrWorkspaceNotFound if the workspace does not exist.
	Update(ctx context.Context, workspace *domain.Workspace) error

	// Delete removes a workspace. Its tasks and memberships cascade.
	// Returns ErrWorkspaceNotFound if the workspace does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// AddMember adds a user to a workspace with the given role.
	// Returns ErrMemberExists if the user is already a member.
	// Returns ErrForeignKey if the workspace or user does not exist.
	AddMember(ctx context.Context, member *domain.WorkspaceMember) error

	// GetMember retrieves a single membership record.
	// Returns ErrMemberNotFound if the user is not a member of the workspace.
	GetMember(ctx context.Context, workspaceID, userID uuid.UUID) (*domain.WorkspaceMember, error)

	// ListMembers retrieves the members of a workspace with their display
	// names, ordered by join time.
	// Returns an empty slice if the workspace has no members.
	ListMembers(ctx context.Context, workspaceID uuid.UUID) ([]*domain.WorkspaceMember, error)

	// UpdateMemberRole changes an existing member's role.
	// Returns ErrMemberNotFound if the user is not a member of the workspace.
	UpdateMemberRole(ctx context.Context, workspaceID, userID uuid.UUID, role domain.MemberRole) error

	// RemoveMember removes a user from a workspace.
	// Returns ErrMemberNotFound if the user is not a member of the workspace.
	RemoveMember(ctx context.Context, workspaceID, userID uuid.UUID) error

	// WithTx returns a new WorkspaceStore instance that uses the provided transaction.
	// This allows for multiple operations to be executed within a single transaction.
	// The transaction should be created and managed by the caller (typically a service).
	WithTx(tx *sql.Tx) WorkspaceStore
}
