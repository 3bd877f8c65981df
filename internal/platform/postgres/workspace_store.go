package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/taskhub/taskhub-api/internal/domain"
	"github.com/taskhub/taskhub-api/internal/platform/logger"
	"github.com/taskhub/taskhub-api/internal/store"
)

// PostgresWorkspaceStore implements the store.WorkspaceStore interface
// using a PostgreSQL database as the storage backend.
type PostgresWorkspaceStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresWorkspaceStore creates a new PostgreSQL implementation of the WorkspaceStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresWorkspaceStore(db store.DBTX, logger *slog.Logger) *PostgresWorkspaceStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresWorkspaceStore{
		db:     db,
		logger: logger.With(slog.String("component", "workspace_store")),
	}
}

// Ensure PostgresWorkspaceStore implements store.WorkspaceStore interface
var _ store.WorkspaceStore = (*PostgresWorkspaceStore)(nil)

// Create implements store.WorkspaceStore.Create
func (s *PostgresWorkspaceStore) Create(ctx context.Context, workspace *domain.Workspace) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := workspace.Validate(); err != nil {
		log.Warn("workspace validation failed during create",
			slog.String("error", err.Error()),
			slog.String("workspace_id", workspace.ID.String()))
		return err
	}

	query := `
		INSERT INTO workspaces (id, name, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		workspace.ID,
		workspace.Name,
		workspace.Description,
		workspace.CreatedAt,
		workspace.UpdatedAt,
	)

	if err != nil {
		log.Error("failed to create workspace",
			slog.String("error", err.Error()),
			slog.String("workspace_id", workspace.ID.String()))
		return err
	}

	log.Info("workspace created successfully",
		slog.String("workspace_id", workspace.ID.String()))
	return nil
}

// GetByID implements store.WorkspaceStore.GetByID
// Returns store.ErrWorkspaceNotFound if the workspace does not exist.
func (s *PostgresWorkspaceStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Workspace, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	log.Debug("retrieving workspace by ID", slog.String("workspace_id", id.String()))

	query := `
		SELECT id, name, description, created_at, updated_at
		FROM workspaces
		WHERE id = $1
	`

	var workspace domain.Workspace
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&workspace.ID,
		&workspace.Name,
		&workspace.Description,
		&workspace.CreatedAt,
		&workspace.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("workspace not found", slog.String("workspace_id", id.String()))
			return nil, store.ErrWorkspaceNotFound
		}
		log.Error("failed to get workspace by ID",
			slog.String("error", err.Error()),
			slog.String("workspace_id", id.String()))
		return nil, err
	}

	return &workspace, nil
}

// ListForUser implements store.WorkspaceStore.ListForUser
// It retrieves the workspaces the given user is a member of.
func (s *PostgresWorkspaceStore) ListForUser(
	ctx context.Context,
	userID uuid.UUID,
	limit, offset int,
) ([]*domain.Workspace, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if limit <= 0 {
		limit = 10 // Default limit
	}
	if offset < 0 {
		offset = 0
	}

	query := `
		SELECT w.id, w.name, w.description, w.created_at, w.updated_at
		FROM workspaces w
		JOIN workspace_members m ON m.workspace_id = w.id
		WHERE m.user_id = $1
		ORDER BY w.created_at DESC, w.id DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := s.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		log.Error("failed to query workspaces for user",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	var workspaces []*domain.Workspace
	for rows.Next() {
		var workspace domain.Workspace
		err := rows.Scan(
			&workspace.ID,
			&workspace.Name,
			&workspace.Description,
			&workspace.CreatedAt,
			&workspace.UpdatedAt,
		)
		if err != nil {
			log.Error("failed to scan workspace row",
				slog.String("error", err.Error()))
			return nil, err
		}
		workspaces = append(workspaces, &workspace)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows",
			slog.String("error", err.Error()))
		return nil, err
	}

	// Return empty slice instead of nil
	if workspaces == nil {
		workspaces = []*domain.Workspace{}
	}

	log.Debug("listed workspaces for user",
		slog.String("user_id", userID.String()),
		slog.Int("count", len(workspaces)))
	return workspaces, nil
}

// Update implements store.WorkspaceStore.Update
// Returns store.ErrWorkspaceNotFound if the workspace does not exist.
func (s *PostgresWorkspaceStore) Update(ctx context.Context, workspace *domain.Workspace) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := workspace.Validate(); err != nil {
		log.Warn("workspace validation failed during update",
			slog.String("error", err.Error()),
			slog.String("workspace_id", workspace.ID.String()))
		return err
	}

	workspace.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE workspaces
		SET name = $1, description = $2, updated_at = $3
		WHERE id = $4
	`

	result, err := s.db.ExecContext(
		ctx,
		query,
		workspace.Name,
		workspace.Description,
		workspace.UpdatedAt,
		workspace.ID,
	)

	if err != nil {
		log.Error("failed to update workspace",
			slog.String("error", err.Error()),
			slog.String("workspace_id", workspace.ID.String()))
		return err
	}

	if err := checkAffected(result, store.ErrWorkspaceNotFound); err != nil {
		log.Debug("workspace not found for update",
			slog.String("workspace_id", workspace.ID.String()))
		return err
	}

	log.Info("workspace updated successfully",
		slog.String("workspace_id", workspace.ID.String()))
	return nil
}

// Delete implements store.WorkspaceStore.Delete
// Tasks and memberships in the workspace cascade.
// Returns store.ErrWorkspaceNotFound if the workspace does not exist.
func (s *PostgresWorkspaceStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		DELETE FROM workspaces
		WHERE id = $1
	`

	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		log.Error("failed to delete workspace",
			slog.String("error", err.Error()),
			slog.String("workspace_id", id.String()))
		return err
	}

	if err := checkAffected(result, store.ErrWorkspaceNotFound); err != nil {
		log.Debug("workspace not found for delete",
			slog.String("workspace_id", id.String()))
		return err
	}

	log.Info("workspace deleted successfully",
		slog.String("workspace_id", id.String()))
	return nil
}

// AddMember implements store.WorkspaceStore.AddMember
// Returns store.ErrMemberExists if the user is already a member.
// Returns store.ErrForeignKey if the workspace or user does not exist.
func (s *PostgresWorkspaceStore) AddMember(ctx context.Context, member *domain.WorkspaceMember) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := member.Validate(); err != nil {
		log.Warn("membership validation failed",
			slog.String("error", err.Error()),
			slog.String("workspace_id", member.WorkspaceID.String()),
			slog.String("user_id", member.UserID.String()))
		return err
	}

	query := `
		INSERT INTO workspace_members (workspace_id, user_id, role, created_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		member.WorkspaceID,
		member.UserID,
		member.Role,
		member.CreatedAt,
	)

	if err != nil {
		if IsUniqueViolation(err) {
			log.Warn("user is already a member of workspace",
				slog.String("workspace_id", member.WorkspaceID.String()),
				slog.String("user_id", member.UserID.String()))
			return fmt.Errorf("%w: %v", store.ErrMemberExists, err)
		}
		if IsForeignKeyViolation(err) {
			log.Warn("foreign key violation during member creation",
				slog.String("workspace_id", member.WorkspaceID.String()),
				slog.String("user_id", member.UserID.String()))
			return fmt.Errorf("%w: %v", store.ErrForeignKey, err)
		}

		log.Error("failed to add workspace member",
			slog.String("error", err.Error()),
			slog.String("workspace_id", member.WorkspaceID.String()),
			slog.String("user_id", member.UserID.String()))
		return err
	}

	log.Info("workspace member added",
		slog.String("workspace_id", member.WorkspaceID.String()),
		slog.String("user_id", member.UserID.String()),
		slog.String("role", string(member.Role)))
	return nil
}

// GetMember implements store.WorkspaceStore.GetMember
// Returns store.ErrMemberNotFound if the user is not a member.
func (s *PostgresWorkspaceStore) GetMember(
	ctx context.Context,
	workspaceID, userID uuid.UUID,
) (*domain.WorkspaceMember, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT m.workspace_id, m.user_id, m.role, m.created_at, u.name
		FROM workspace_members m
		JOIN users u ON u.id = m.user_id
		WHERE m.workspace_id = $1 AND m.user_id = $2
	`

	var member domain.WorkspaceMember
	var role string
	err := s.db.QueryRowContext(ctx, query, workspaceID, userID).Scan(
		&member.WorkspaceID,
		&member.UserID,
		&role,
		&member.CreatedAt,
		&member.Name,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("workspace member not found",
				slog.String("workspace_id", workspaceID.String()),
				slog.String("user_id", userID.String()))
			return nil, store.ErrMemberNotFound
		}
		log.Error("failed to get workspace member",
			slog.String("error", err.Error()),
			slog.String("workspace_id", workspaceID.String()),
			slog.String("user_id", userID.String()))
		return nil, err
	}

	member.Role = domain.MemberRole(role)
	return &member, nil
}

// ListMembers implements store.WorkspaceStore.ListMembers
// Members come back with their display names, ordered by join time.
func (s *PostgresWorkspaceStore) ListMembers(
	ctx context.Context,
	workspaceID uuid.UUID,
) ([]*domain.WorkspaceMember, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT m.workspace_id, m.user_id, m.role, m.created_at, u.name
		FROM workspace_members m
		JOIN users u ON u.id = m.user_id
		WHERE m.workspace_id = $1
		ORDER BY m.created_at ASC, m.user_id ASC
	`

	rows, err := s.db.QueryContext(ctx, query, workspaceID)
	if err != nil {
		log.Error("failed to query workspace members",
			slog.String("error", err.Error()),
			slog.String("workspace_id", workspaceID.String()))
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	var members []*domain.WorkspaceMember
	for rows.Next() {
		var member domain.WorkspaceMember
		var role string
		err := rows.Scan(
			&member.WorkspaceID,
			&member.UserID,
			&role,
			&member.CreatedAt,
			&member.Name,
		)
		if err != nil {
			log.Error("failed to scan member row",
				slog.String("error", err.Error()))
			return nil, err
		}
		member.Role = domain.MemberRole(role)
		members = append(members, &member)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows",
			slog.String("error", err.Error()))
		return nil, err
	}

	// Return empty slice instead of nil
	if members == nil {
		members = []*domain.WorkspaceMember{}
	}

	log.Debug("listed workspace members",
		slog.String("workspace_id", workspaceID.String()),
		slog.Int("count", len(members)))
	return members, nil
}

// UpdateMemberRole implements store.WorkspaceStore.UpdateMemberRole
// Returns store.ErrMemberNotFound if the user is not a member.
func (s *PostgresWorkspaceStore) UpdateMemberRole(
	ctx context.Context,
	workspaceID, userID uuid.UUID,
	role domain.MemberRole,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if !role.IsValid() {
		return domain.ErrInvalidRole
	}

	query := `
		UPDATE workspace_members
		SET role = $1
		WHERE workspace_id = $2 AND user_id = $3
	`

	result, err := s.db.ExecContext(ctx, query, role, workspaceID, userID)
	if err != nil {
		log.Error("failed to update member role",
			slog.String("error", err.Error()),
			slog.String("workspace_id", workspaceID.String()),
			slog.String("user_id", userID.String()))
		return err
	}

	if err := checkAffected(result, store.ErrMemberNotFound); err != nil {
		log.Debug("workspace member not found for role update",
			slog.String("workspace_id", workspaceID.String()),
			slog.String("user_id", userID.String()))
		return err
	}

	log.Info("workspace member role updated",
		slog.String("workspace_id", workspaceID.String()),
		slog.String("user_id", userID.String()),
		slog.String("role", string(role)))
	return nil
}

// RemoveMember implements store.WorkspaceStore.RemoveMember
// Returns store.ErrMemberNotFound if the user is not a member.
func (s *PostgresWorkspaceStore) RemoveMember(ctx context.Context, workspaceID, userID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		DELETE FROM workspace_members
		WHERE workspace_id = $1 AND user_id = $2
	`

	result, err := s.db.ExecContext(ctx, query, workspaceID, userID)
	if err != nil {
		log.Error("failed to remove workspace member",
			slog.String("error", err.Error()),
			slog.String("workspace_id", workspaceID.String()),
			slog.String("user_id", userID.String()))
		return err
	}

	if err := checkAffected(result, store.ErrMemberNotFound); err != nil {
		log.Debug("workspace member not found for removal",
			slog.String("workspace_id", workspaceID.String()),
			slog.String("user_id", userID.String()))
		return err
	}

	log.Info("workspace member removed",
		slog.String("workspace_id", workspaceID.String()),
		slog.String("user_id", userID.String()))
	return nil
}

// WithTx implements store.WorkspaceStore.WithTx
func (s *PostgresWorkspaceStore) WithTx(tx *sql.Tx) store.WorkspaceStore {
	return &PostgresWorkspaceStore{
		db:     tx,
		logger: s.logger,
	}
}

// checkAffected returns notFoundErr when the result affected no rows.
func checkAffected(result sql.Result, notFoundErr error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return notFoundErr
	}
	return nil
}
