package mocks

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/taskhub/taskhub-api/internal/domain"
	"github.com/taskhub/taskhub-api/internal/store"
)

type memberKey struct {
	workspaceID uuid.UUID
	userID      uuid.UUID
}

// MockWorkspaceStore implements store.WorkspaceStore for testing
type MockWorkspaceStore struct {
	// Function fields for customizable behavior
	CreateFn           func(ctx context.Context, workspace *domain.Workspace) error
	GetByIDFn          func(ctx context.Context, id uuid.UUID) (*domain.Workspace, error)
	ListForUserFn      func(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Workspace, error)
	UpdateFn           func(ctx context.Context, workspace *domain.Workspace) error
	DeleteFn           func(ctx context.Context, id uuid.UUID) error
	AddMemberFn        func(ctx context.Context, member *domain.WorkspaceMember) error
	GetMemberFn        func(ctx context.Context, workspaceID, userID uuid.UUID) (*domain.WorkspaceMember, error)
	ListMembersFn      func(ctx context.Context, workspaceID uuid.UUID) ([]*domain.WorkspaceMember, error)
	UpdateMemberRoleFn func(ctx context.Context, workspaceID, userID uuid.UUID, role domain.MemberRole) error
	RemoveMemberFn     func(ctx context.Context, workspaceID, userID uuid.UUID) error

	// Data for default implementation
	Workspaces map[uuid.UUID]*domain.Workspace
	Members    map[memberKey]*domain.WorkspaceMember
}

// NewMockWorkspaceStore creates a new mock store with initialized defaults
func NewMockWorkspaceStore() *MockWorkspaceStore {
	return &MockWorkspaceStore{
		Workspaces: make(map[uuid.UUID]*domain.Workspace),
		Members:    make(map[memberKey]*domain.WorkspaceMember),
	}
}

var _ store.WorkspaceStore = (*MockWorkspaceStore)(nil)

// AddMemberDirect seeds a membership without going through AddMember,
// bypassing any AddMemberFn override.
func (m *MockWorkspaceStore) AddMemberDirect(member *domain.WorkspaceMember) {
	m.Members[memberKey{member.WorkspaceID, member.UserID}] = member
}

// Create implements the WorkspaceStore interface
func (m *MockWorkspaceStore) Create(ctx context.Context, workspace *domain.Workspace) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, workspace)
	}
	m.Workspaces[workspace.ID] = workspace
	return nil
}

// GetByID implements the WorkspaceStore interface
func (m *MockWorkspaceStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Workspace, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}

	workspace, ok := m.Workspaces[id]
	if !ok {
		return nil, store.ErrWorkspaceNotFound
	}
	return workspace, nil
}

// ListForUser implements the WorkspaceStore interface
func (m *MockWorkspaceStore) ListForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Workspace, error) {
	if m.ListForUserFn != nil {
		return m.ListForUserFn(ctx, userID, limit, offset)
	}

	workspaces := make([]*domain.Workspace, 0)
	for key, member := range m.Members {
		if member.UserID == userID {
			if ws, ok := m.Workspaces[key.workspaceID]; ok {
				workspaces = append(workspaces, ws)
			}
		}
	}
	return workspaces, nil
}

// Update implements the WorkspaceStore interface
func (m *MockWorkspaceStore) Update(ctx context.Context, workspace *domain.Workspace) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, workspace)
	}

	if _, ok := m.Workspaces[workspace.ID]; !ok {
		return store.ErrWorkspaceNotFound
	}
	m.Workspaces[workspace.ID] = workspace
	return nil
}

// Delete implements the WorkspaceStore interface
func (m *MockWorkspaceStore) Delete(ctx context.Context, id uuid.UUID) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}

	if _, ok := m.Workspaces[id]; !ok {
		return store.ErrWorkspaceNotFound
	}
	delete(m.Workspaces, id)
	for key := range m.Members {
		if key.workspaceID == id {
			delete(m.Members, key)
		}
	}
	return nil
}

// AddMember implements the WorkspaceStore interface
func (m *MockWorkspaceStore) AddMember(ctx context.Context, member *domain.WorkspaceMember) error {
	if m.AddMemberFn != nil {
		return m.AddMemberFn(ctx, member)
	}

	key := memberKey{member.WorkspaceID, member.UserID}
	if _, ok := m.Members[key]; ok {
		return store.ErrMemberExists
	}
	m.Members[key] = member
	return nil
}

// GetMember implements the WorkspaceStore interface
func (m *MockWorkspaceStore) GetMember(ctx context.Context, workspaceID, userID uuid.UUID) (*domain.WorkspaceMember, error) {
	if m.GetMemberFn != nil {
		return m.GetMemberFn(ctx, workspaceID, userID)
	}

	member, ok := m.Members[memberKey{workspaceID, userID}]
	if !ok {
		return nil, store.ErrMemberNotFound
	}
	return member, nil
}

// ListMembers implements the WorkspaceStore interface
func (m *MockWorkspaceStore) ListMembers(ctx context.Context, workspaceID uuid.UUID) ([]*domain.WorkspaceMember, error) {
	if m.ListMembersFn != nil {
		return m.ListMembersFn(ctx, workspaceID)
	}

	members := make([]*domain.WorkspaceMember, 0)
	for key, member := range m.Members {
		if key.workspaceID == workspaceID {
			members = append(members, member)
		}
	}
	return members, nil
}

// UpdateMemberRole implements the WorkspaceStore interface
func (m *MockWorkspaceStore) UpdateMemberRole(ctx context.Context, workspaceID, userID uuid.UUID, role domain.MemberRole) error {
	if m.UpdateMemberRoleFn != nil {
		return m.UpdateMemberRoleFn(ctx, workspaceID, userID, role)
	}

	member, ok := m.Members[memberKey{workspaceID, userID}]
	if !ok {
		return store.ErrMemberNotFound
	}
	member.Role = role
	return nil
}

// RemoveMember implements the WorkspaceStore interface
func (m *MockWorkspaceStore) RemoveMember(ctx context.Context, workspaceID, userID uuid.UUID) error {
	if m.RemoveMemberFn != nil {
		return m.RemoveMemberFn(ctx, workspaceID, userID)
	}

	key := memberKey{workspaceID, userID}
	if _, ok := m.Members[key]; !ok {
		return store.ErrMemberNotFound
	}
	delete(m.Members, key)
	return nil
}

// WithTx implements the WorkspaceStore interface. The mock has no
// transaction state, so it returns itself.
func (m *MockWorkspaceStore) WithTx(tx *sql.Tx) store.WorkspaceStore {
	return m
}
