package domain

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestNewWorkspace(t *testing.T) {
	t.Parallel()
	ws, err := NewWorkspace("  Engineering  ", "Core product team")

	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if ws.ID == uuid.Nil {
		t.Error("Expected non-nil UUID, got nil UUID")
	}

	if ws.Name != "Engineering" {
		t.Errorf("Expected trimmed name, got %q", ws.Name)
	}

	if ws.CreatedAt.IsZero() {
		t.Error("Expected non-zero CreatedAt time")
	}

	// Test empty name
	_, err = NewWorkspace("", "desc")
	if err != ErrEmptyWorkspaceName {
		t.Errorf("Expected error %v, got %v", ErrEmptyWorkspaceName, err)
	}

	// Test oversized name
	_, err = NewWorkspace(strings.Repeat("n", 101), "")
	if err != ErrWorkspaceNameLong {
		t.Errorf("Expected error %v, got %v", ErrWorkspaceNameLong, err)
	}
}

func TestMemberRoleIsValid(t *testing.T) {
	t.Parallel()
	for _, r := range []MemberRole{RoleAdmin, RoleMember, RoleGuest} {
		if !r.IsValid() {
			t.Errorf("Expected role %s to be valid", r)
		}
	}

	if MemberRole("owner").IsValid() {
		t.Error("Expected unknown role to be invalid")
	}
}

func TestNewWorkspaceMember(t *testing.T) {
	t.Parallel()
	workspaceID := uuid.New()
	userID := uuid.New()

	m, err := NewWorkspaceMember(workspaceID, userID, RoleMember)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if m.WorkspaceID != workspaceID {
		t.Errorf("Expected workspace ID %s, got %s", workspaceID, m.WorkspaceID)
	}

	if m.Role != RoleMember {
		t.Errorf("Expected role %s, got %s", RoleMember, m.Role)
	}

	// Test invalid role
	_, err = NewWorkspaceMember(workspaceID, userID, "superuser")
	if err != ErrInvalidRole {
		t.Errorf("Expected error %v, got %v", ErrInvalidRole, err)
	}

	// Test missing user
	_, err = NewWorkspaceMember(workspaceID, uuid.Nil, RoleGuest)
	if err != ErrEmptyUserID {
		t.Errorf("Expected error %v, got %v", ErrEmptyUserID, err)
	}
}
