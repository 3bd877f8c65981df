package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/taskhub/taskhub-api/internal/domain"
	"github.com/taskhub/taskhub-api/internal/store"
)

// WorkspaceService provides workspace and membership operations. All
// operations that read or mutate a workspace require the acting user to be a
// member; mutations additionally require the admin role.
type WorkspaceService interface {
	// CreateWorkspace creates a workspace and adds the creator as its first
	// admin member in the same transaction.
	CreateWorkspace(ctx context.Context, actorID uuid.UUID, name, description string) (*domain.Workspace, error)

	// GetWorkspace retrieves a workspace the actor is a member of.
	GetWorkspace(ctx context.Context, actorID, workspaceID uuid.UUID) (*domain.Workspace, error)

	// ListWorkspaces retrieves the workspaces the actor belongs to.
	ListWorkspaces(ctx context.Context, actorID uuid.UUID, limit, offset int) ([]*domain.Workspace, error)

	// UpdateWorkspace modifies a workspace's name and description.
	// Requires the admin role.
	UpdateWorkspace(ctx context.Context, actorID, workspaceID uuid.UUID, name, description string) (*domain.Workspace, error)

	// DeleteWorkspace removes a workspace and cascades its tasks and
	// memberships. Requires the admin role.
	DeleteWorkspace(ctx context.Context, actorID, workspaceID uuid.UUID) error

	// AddMember adds a user to the workspace. Requires the admin role.
	AddMember(ctx context.Context, actorID, workspaceID, userID uuid.UUID, role domain.MemberRole) (*domain.WorkspaceMember, error)

	// ListMembers retrieves the workspace's members with display names.
	ListMembers(ctx context.Context, actorID, workspaceID uuid.UUID) ([]*domain.WorkspaceMember, error)

	// UpdateMemberRole changes a member's role. Requires the admin role.
	// Demoting the last admin returns ErrLastAdmin.
	UpdateMemberRole(ctx context.Context, actorID, workspaceID, userID uuid.UUID, role domain.MemberRole) error

	// RemoveMember removes a user from the workspace. Admins can remove
	// anyone; other members can only remove themselves. Removing the last
	// admin returns ErrLastAdmin.
	RemoveMember(ctx context.Context, actorID, workspaceID, userID uuid.UUID) error

	// RequireMember returns the actor's membership, or ErrNotMember.
	RequireMember(ctx context.Context, workspaceID, userID uuid.UUID) (*domain.WorkspaceMember, error)
}

// WorkspaceServiceImpl implements the WorkspaceService interface
type WorkspaceServiceImpl struct {
	workspaceStore store.WorkspaceStore
	audit          *AuditService
	db             *sql.DB
	logger         *slog.Logger
}

// NewWorkspaceService creates a new WorkspaceService
func NewWorkspaceService(
	workspaceStore store.WorkspaceStore,
	audit *AuditService,
	db *sql.DB,
	logger *slog.Logger,
) WorkspaceService {
	return &WorkspaceServiceImpl{
		workspaceStore: workspaceStore,
		audit:          audit,
		db:             db,
		logger:         logger.With("component", "workspace_service"),
	}
}

// RequireMember returns the actor's membership, or ErrNotMember.
func (s *WorkspaceServiceImpl) RequireMember(
	ctx context.Context,
	workspaceID, userID uuid.UUID,
) (*domain.WorkspaceMember, error) {
	member, err := s.workspaceStore.GetMember(ctx, workspaceID, userID)
	if err != nil {
		if errors.Is(err, store.ErrMemberNotFound) {
			return nil, ErrNotMember
		}
		return nil, fmt.Errorf("failed to check workspace membership: %w", err)
	}
	return member, nil
}

// requireAdmin returns ErrNotMember or ErrInsufficientRole unless the actor
// is an admin of the workspace.
func (s *WorkspaceServiceImpl) requireAdmin(ctx context.Context, workspaceID, userID uuid.UUID) error {
	member, err := s.RequireMember(ctx, workspaceID, userID)
	if err != nil {
		return err
	}
	if member.Role != domain.RoleAdmin {
		return ErrInsufficientRole
	}
	return nil
}

// CreateWorkspace creates a workspace and adds the creator as its first
// admin member in the same transaction.
func (s *WorkspaceServiceImpl) CreateWorkspace(
	ctx context.Context,
	actorID uuid.UUID,
	name, description string,
) (*domain.Workspace, error) {
	workspace, err := domain.NewWorkspace(name, description)
	if err != nil {
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}

	member, err := domain.NewWorkspaceMember(workspace.ID, actorID, domain.RoleAdmin)
	if err != nil {
		return nil, fmt.Errorf("failed to create workspace membership: %w", err)
	}

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txStore := s.workspaceStore.WithTx(tx)
		if err := txStore.Create(ctx, workspace); err != nil {
			return err
		}
		if err := txStore.AddMember(ctx, member); err != nil {
			return err
		}
		return s.audit.RecordTx(ctx, tx, "workspace", workspace.ID, &actorID, domain.AuditCreate, nil, nil)
	})
	if err != nil {
		s.logger.Error("failed to create workspace",
			"error", err,
			"actor_id", actorID)
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}

	s.logger.Info("workspace created",
		"workspace_id", workspace.ID,
		"actor_id", actorID)

	return workspace, nil
}

// GetWorkspace retrieves a workspace the actor is a member of.
func (s *WorkspaceServiceImpl) GetWorkspace(
	ctx context.Context,
	actorID, workspaceID uuid.UUID,
) (*domain.Workspace, error) {
	if _, err := s.RequireMember(ctx, workspaceID, actorID); err != nil {
		return nil, err
	}

	workspace, err := s.workspaceStore.GetByID(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve workspace: %w", err)
	}
	return workspace, nil
}

// ListWorkspaces retrieves the workspaces the actor belongs to.
func (s *WorkspaceServiceImpl) ListWorkspaces(
	ctx context.Context,
	actorID uuid.UUID,
	limit, offset int,
) ([]*domain.Workspace, error) {
	workspaces, err := s.workspaceStore.ListForUser(ctx, actorID, limit, offset)
	if err != nil {
		s.logger.Error("failed to list workspaces",
			"error", err,
			"actor_id", actorID)
		return nil, fmt.Errorf("failed to list workspaces: %w", err)
	}
	return workspaces, nil
}

// UpdateWorkspace modifies a workspace's name and description.
func (s *WorkspaceServiceImpl) UpdateWorkspace(
	ctx context.Context,
	actorID, workspaceID uuid.UUID,
	name, description string,
) (*domain.Workspace, error) {
	if err := s.requireAdmin(ctx, workspaceID, actorID); err != nil {
		return nil, err
	}

	workspace, err := s.workspaceStore.GetByID(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve workspace for update: %w", err)
	}

	workspace.Name = name
	workspace.Description = description
	if err := workspace.Validate(); err != nil {
		return nil, fmt.Errorf("invalid workspace data: %w", err)
	}

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txStore := s.workspaceStore.WithTx(tx)
		if err := txStore.Update(ctx, workspace); err != nil {
			return err
		}
		changes, err := auditChanges(map[string]interface{}{
			"name":        name,
			"description": description,
		})
		if err != nil {
			return err
		}
		return s.audit.RecordTx(ctx, tx, "workspace", workspaceID, &actorID, domain.AuditUpdate, changes, nil)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update workspace: %w", err)
	}

	return workspace, nil
}

// DeleteWorkspace removes a workspace and cascades its tasks and memberships.
func (s *WorkspaceServiceImpl) DeleteWorkspace(ctx context.Context, actorID, workspaceID uuid.UUID) error {
	if err := s.requireAdmin(ctx, workspaceID, actorID); err != nil {
		return err
	}

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txStore := s.workspaceStore.WithTx(tx)
		if err := txStore.Delete(ctx, workspaceID); err != nil {
			return err
		}
		return s.audit.RecordTx(ctx, tx, "workspace", workspaceID, &actorID, domain.AuditDelete, nil, nil)
	})
	if err != nil {
		return fmt.Errorf("failed to delete workspace: %w", err)
	}

	s.logger.Info("workspace deleted",
		"workspace_id", workspaceID,
		"actor_id", actorID)

	return nil
}

// AddMember adds a user to the workspace with the given role.
func (s *WorkspaceServiceImpl) AddMember(
	ctx context.Context,
	actorID, workspaceID, userID uuid.UUID,
	role domain.MemberRole,
) (*domain.WorkspaceMember, error) {
	if err := s.requireAdmin(ctx, workspaceID, actorID); err != nil {
		return nil, err
	}

	member, err := domain.NewWorkspaceMember(workspaceID, userID, role)
	if err != nil {
		return nil, fmt.Errorf("failed to create workspace membership: %w", err)
	}

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txStore := s.workspaceStore.WithTx(tx)
		if err := txStore.AddMember(ctx, member); err != nil {
			return err
		}
		changes, err := auditChanges(map[string]interface{}{
			"user_id": userID,
			"role":    role,
		})
		if err != nil {
			return err
		}
		return s.audit.RecordTx(ctx, tx, "workspace", workspaceID, &actorID, domain.AuditUpdate, changes, nil)
	})
	if err != nil {
		if errors.Is(err, store.ErrMemberExists) {
			s.logger.Debug("attempted to add existing member",
				"workspace_id", workspaceID,
				"user_id", userID)
		}
		return nil, fmt.Errorf("failed to add workspace member: %w", err)
	}

	return member, nil
}

// ListMembers retrieves the workspace's members with display names.
func (s *WorkspaceServiceImpl) ListMembers(
	ctx context.Context,
	actorID, workspaceID uuid.UUID,
) ([]*domain.WorkspaceMember, error) {
	if _, err := s.RequireMember(ctx, workspaceID, actorID); err != nil {
		return nil, err
	}

	members, err := s.workspaceStore.ListMembers(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list workspace members: %w", err)
	}
	return members, nil
}

// UpdateMemberRole changes a member's role.
func (s *WorkspaceServiceImpl) UpdateMemberRole(
	ctx context.Context,
	actorID, workspaceID, userID uuid.UUID,
	role domain.MemberRole,
) error {
	if err := s.requireAdmin(ctx, workspaceID, actorID); err != nil {
		return err
	}
	if !role.IsValid() {
		return domain.ErrInvalidRole
	}

	current, err := s.workspaceStore.GetMember(ctx, workspaceID, userID)
	if err != nil {
		return fmt.Errorf("failed to retrieve member for role change: %w", err)
	}

	// Demoting the only admin would orphan the workspace
	if current.Role == domain.RoleAdmin && role != domain.RoleAdmin {
		if err := s.ensureAnotherAdmin(ctx, workspaceID, userID); err != nil {
			return err
		}
	}

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txStore := s.workspaceStore.WithTx(tx)
		if err := txStore.UpdateMemberRole(ctx, workspaceID, userID, role); err != nil {
			return err
		}
		changes, err := auditChanges(map[string]interface{}{
			"user_id": userID,
			"role":    role,
		})
		if err != nil {
			return err
		}
		return s.audit.RecordTx(ctx, tx, "workspace", workspaceID, &actorID, domain.AuditUpdate, changes, nil)
	})
	if err != nil {
		return fmt.Errorf("failed to update member role: %w", err)
	}

	return nil
}

// RemoveMember removes a user from the workspace.
func (s *WorkspaceServiceImpl) RemoveMember(ctx context.Context, actorID, workspaceID, userID uuid.UUID) error {
	// Members may leave on their own; removing others needs admin
	if actorID != userID {
		if err := s.requireAdmin(ctx, workspaceID, actorID); err != nil {
			return err
		}
	}

	current, err := s.workspaceStore.GetMember(ctx, workspaceID, userID)
	if err != nil {
		if errors.Is(err, store.ErrMemberNotFound) {
			return fmt.Errorf("failed to remove member: %w", err)
		}
		return fmt.Errorf("failed to retrieve member for removal: %w", err)
	}

	if current.Role == domain.RoleAdmin {
		if err := s.ensureAnotherAdmin(ctx, workspaceID, userID); err != nil {
			return err
		}
	}

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txStore := s.workspaceStore.WithTx(tx)
		if err := txStore.RemoveMember(ctx, workspaceID, userID); err != nil {
			return err
		}
		changes, err := auditChanges(map[string]interface{}{"user_id": userID})
		if err != nil {
			return err
		}
		return s.audit.RecordTx(ctx, tx, "workspace", workspaceID, &actorID, domain.AuditUpdate, changes, nil)
	})
	if err != nil {
		return fmt.Errorf("failed to remove workspace member: %w", err)
	}

	return nil
}

// ensureAnotherAdmin returns ErrLastAdmin unless the workspace has an admin
// other than excludeUserID.
func (s *WorkspaceServiceImpl) ensureAnotherAdmin(ctx context.Context, workspaceID, excludeUserID uuid.UUID) error {
	members, err := s.workspaceStore.ListMembers(ctx, workspaceID)
	if err != nil {
		return fmt.Errorf("failed to list members for admin check: %w", err)
	}

	for _, m := range members {
		if m.UserID != excludeUserID && m.Role == domain.RoleAdmin {
			return nil
		}
	}
	return ErrLastAdmin
}
