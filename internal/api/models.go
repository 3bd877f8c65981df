package api

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/taskhub/taskhub-api/internal/domain"
)

// Common request/response structures

// RegisterRequest defines the payload for the user registration endpoint.
type RegisterRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Name     string `json:"name"     validate:"required,min=1,max=100"`
	Password string `json:"password" validate:"required,min=12,max=72"`
}

// LoginRequest defines the payload for the user login endpoint.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=1"`
}

// AuthResponse defines the successful response for authentication endpoints.
type AuthResponse struct {
	UserID       uuid.UUID `json:"user_id"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    string    `json:"expires_at,omitempty"`
}

// RefreshTokenRequest defines the payload for the token refresh endpoint.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// UserResponse represents the response data for a user.
type UserResponse struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	Name        string     `json:"name"`
	IsActive    bool       `json:"is_active"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func userToResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:          user.ID.String(),
		Email:       user.Email,
		Name:        user.Name,
		IsActive:    user.IsActive,
		LastLoginAt: user.LastLoginAt,
		CreatedAt:   user.CreatedAt,
		UpdatedAt:   user.UpdatedAt,
	}
}

// UpdateUserRequest defines the payload for updating the current user.
type UpdateUserRequest struct {
	Name *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
}

// ChangePasswordRequest defines the payload for changing the current user's
// password.
type ChangePasswordRequest struct {
	Password string `json:"password" validate:"required,min=12,max=72"`
}

// WorkspaceResponse represents the response data for a workspace.
type WorkspaceResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func workspaceToResponse(workspace *domain.Workspace) WorkspaceResponse {
	return WorkspaceResponse{
		ID:          workspace.ID.String(),
		Name:        workspace.Name,
		Description: workspace.Description,
		CreatedAt:   workspace.CreatedAt,
		UpdatedAt:   workspace.UpdatedAt,
	}
}

// CreateWorkspaceRequest defines the payload for creating a workspace.
type CreateWorkspaceRequest struct {
	Name        string `json:"name"        validate:"required,min=1,max=100"`
	Description string `json:"description" validate:"max=500"`
}

// UpdateWorkspaceRequest defines the payload for updating a workspace.
type UpdateWorkspaceRequest struct {
	Name        *string `json:"name,omitempty"        validate:"omitempty,min=1,max=100"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=500"`
}

// MemberResponse represents the response data for a workspace member.
type MemberResponse struct {
	WorkspaceID string    `json:"workspace_id"`
	UserID      string    `json:"user_id"`
	Name        string    `json:"name,omitempty"`
	Role        string    `json:"role"`
	JoinedAt    time.Time `json:"joined_at"`
}

func memberToResponse(member *domain.WorkspaceMember) MemberResponse {
	return MemberResponse{
		WorkspaceID: member.WorkspaceID.String(),
		UserID:      member.UserID.String(),
		Name:        member.Name,
		Role:        string(member.Role),
		JoinedAt:    member.CreatedAt,
	}
}

// AddMemberRequest defines the payload for adding a workspace member.
type AddMemberRequest struct {
	UserID string `json:"user_id" validate:"required,uuid"`
	Role   string `json:"role"    validate:"required,oneof=admin member guest"`
}

// UpdateMemberRoleRequest defines the payload for changing a member's role.
type UpdateMemberRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=admin member guest"`
}

// TaskResponse represents the response data for a task.
type TaskResponse struct {
	ID          string     `json:"id"`
	WorkspaceID string     `json:"workspace_id"`
	CreatorID   string     `json:"creator_id"`
	AssigneeID  *string    `json:"assignee_id,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func taskToResponse(task *domain.Task) TaskResponse {
	resp := TaskResponse{
		ID:          task.ID.String(),
		WorkspaceID: task.WorkspaceID.String(),
		CreatorID:   task.CreatorID.String(),
		Title:       task.Title,
		Description: task.Description,
		Status:      string(task.Status),
		Priority:    string(task.Priority),
		DueDate:     task.DueDate,
		CompletedAt: task.CompletedAt,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
	if task.AssigneeID != nil {
		id := task.AssigneeID.String()
		resp.AssigneeID = &id
	}
	return resp
}

// CreateTaskRequest defines the payload for creating a task.
type CreateTaskRequest struct {
	Title       string     `json:"title"       validate:"required,min=1,max=200"`
	Description string     `json:"description" validate:"max=10000"`
	Priority    string     `json:"priority"    validate:"omitempty,oneof=low medium high urgent"`
	AssigneeID  *string    `json:"assignee_id,omitempty" validate:"omitempty,uuid"`
	DueDate     *time.Time `json:"due_date,omitempty"`
}

// UpdateTaskRequest defines the payload for updating a task. Absent fields
// are left unchanged; explicit nulls on assignee_id and due_date clear them.
type UpdateTaskRequest struct {
	Title       *string    `json:"title,omitempty"       validate:"omitempty,min=1,max=200"`
	Description *string    `json:"description,omitempty" validate:"omitempty,max=10000"`
	Status      *string    `json:"status,omitempty"      validate:"omitempty,oneof=backlog todo in_progress review done"`
	Priority    *string    `json:"priority,omitempty"    validate:"omitempty,oneof=low medium high urgent"`
	AssigneeID  *string    `json:"assignee_id"           validate:"omitempty,uuid"`
	DueDate     *time.Time `json:"due_date"`

	// rawFields records which keys were present in the request body, so a
	// null assignee_id can be told apart from an absent one.
	rawFields map[string]json.RawMessage
}

// UnmarshalJSON captures the raw key set alongside the typed fields.
func (r *UpdateTaskRequest) UnmarshalJSON(data []byte) error {
	type alias UpdateTaskRequest
	var decoded alias
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	*r = UpdateTaskRequest(decoded)

	return json.Unmarshal(data, &r.rawFields)
}

// FieldPresent reports whether the given key appeared in the request body.
func (r *UpdateTaskRequest) FieldPresent(name string) bool {
	_, ok := r.rawFields[name]
	return ok
}

// CommentResponse represents the response data for a comment.
type CommentResponse struct {
	ID        string    `json:"id"`
	TaskID    string    `json:"task_id"`
	AuthorID  string    `json:"author_id"`
	ParentID  *string   `json:"parent_id,omitempty"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func commentToResponse(comment *domain.Comment) CommentResponse {
	resp := CommentResponse{
		ID:        comment.ID.String(),
		TaskID:    comment.TaskID.String(),
		AuthorID:  comment.AuthorID.String(),
		Body:      comment.Body,
		CreatedAt: comment.CreatedAt,
		UpdatedAt: comment.UpdatedAt,
	}
	if comment.ParentID != nil {
		id := comment.ParentID.String()
		resp.ParentID = &id
	}
	return resp
}

// CreateCommentRequest defines the payload for creating a comment.
type CreateCommentRequest struct {
	Body     string  `json:"body"                validate:"required,min=1,max=10000"`
	ParentID *string `json:"parent_id,omitempty" validate:"omitempty,uuid"`
}

// NotificationResponse represents the response data for a notification.
type NotificationResponse struct {
	ID        string          `json:"id"`
	Kind      string          `json:"kind"`
	Title     string          `json:"title"`
	Body      string          `json:"body,omitempty"`
	Context   json.RawMessage `json:"context,omitempty"`
	IsRead    bool            `json:"is_read"`
	CreatedAt time.Time       `json:"created_at"`
}

func notificationToResponse(notification *domain.Notification) NotificationResponse {
	return NotificationResponse{
		ID:        notification.ID.String(),
		Kind:      string(notification.Kind),
		Title:     notification.Title,
		Body:      notification.Body,
		Context:   notification.Context,
		IsRead:    notification.IsRead,
		CreatedAt: notification.CreatedAt,
	}
}

// UnreadCountResponse reports the number of unread notifications.
type UnreadCountResponse struct {
	Count int `json:"count"`
}

// MarkAllReadResponse reports how many notifications were marked read.
type MarkAllReadResponse struct {
	Updated int `json:"updated"`
}

// AuditEntryResponse represents the response data for an audit log entry.
type AuditEntryResponse struct {
	ID         string          `json:"id"`
	EntityType string          `json:"entity_type"`
	EntityID   string          `json:"entity_id"`
	ActorID    *string         `json:"actor_id,omitempty"`
	Action     string          `json:"action"`
	Changes    json.RawMessage `json:"changes,omitempty"`
	Metadata   json.RawMessage `json:"metadata,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

func auditEntryToResponse(entry *domain.AuditEntry) AuditEntryResponse {
	resp := AuditEntryResponse{
		ID:         entry.ID.String(),
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID.String(),
		Action:     string(entry.Action),
		Changes:    entry.Changes,
		Metadata:   entry.Metadata,
		CreatedAt:  entry.CreatedAt,
	}
	if entry.ActorID != nil {
		id := entry.ActorID.String()
		resp.ActorID = &id
	}
	return resp
}
