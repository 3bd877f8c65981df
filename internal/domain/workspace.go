package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrEmptyWorkspaceID   = errors.New("workspace ID cannot be empty")
	ErrEmptyWorkspaceName = errors.New("workspace name cannot be empty")
	ErrWorkspaceNameLong  = errors.New("workspace name must be at most 100 characters")
)

// MemberRole describes a user's role within a workspace.
type MemberRole string

const (
	RoleAdmin  MemberRole = "admin"
	RoleMember MemberRole = "member"
	RoleGuest  MemberRole = "guest"
)

// IsValid reports whether the role is one of the known values.
func (r MemberRole) IsValid() bool {
	switch r {
	case RoleAdmin, RoleMember, RoleGuest:
		return true
	}
	return false
}

// Workspace is the top-level grouping for tasks and members.
type Workspace struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewWorkspace creates a Workspace with a fresh ID and timestamps.
// Returns an error if validation fails.
func NewWorkspace(name, description string) (*Workspace, error) {
	ws := &Workspace{
		ID:          uuid.New(),
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(description),
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}

	if err := ws.Validate(); err != nil {
		return nil, err
	}

	return ws, nil
}

// Validate checks if the Workspace has valid data.
func (w *Workspace) Validate() error {
	if w.ID == uuid.Nil {
		return ErrEmptyWorkspaceID
	}
	if w.Name == "" {
		return ErrEmptyWorkspaceName
	}
	if len(w.Name) > 100 {
		return ErrWorkspaceNameLong
	}
	return nil
}

// WorkspaceMember links a user to a workspace with a role.
type WorkspaceMember struct {
	WorkspaceID uuid.UUID  `json:"workspace_id"`
	UserID      uuid.UUID  `json:"user_id"`
	Role        MemberRole `json:"role"`
	CreatedAt   time.Time  `json:"created_at"`

	// Name is the member's display name, populated on reads that join the
	// users table. It is not persisted on the membership row itself.
	Name string `json:"name,omitempty"`
}

// NewWorkspaceMember creates a membership record with the current timestamp.
func NewWorkspaceMember(workspaceID, userID uuid.UUID, role MemberRole) (*WorkspaceMember, error) {
	m := &WorkspaceMember{
		WorkspaceID: workspaceID,
		UserID:      userID,
		Role:        role,
		CreatedAt:   time.Now().UTC(),
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}

	return m, nil
}

// Validate checks if the membership has valid data.
func (m *WorkspaceMember) Validate() error {
	if m.WorkspaceID == uuid.Nil {
		return ErrEmptyWorkspaceID
	}
	if m.UserID == uuid.Nil {
		return ErrEmptyUserID
	}
	if !m.Role.IsValid() {
		return ErrInvalidRole
	}
	return nil
}
