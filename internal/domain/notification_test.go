package domain

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
)

func TestNewNotification(t *testing.T) {
	t.Parallel()
	userID := uuid.New()
	ctx := json.RawMessage(`{"task_id":"abc"}`)

	n, err := NewNotification(userID, NotificationMention, "You were mentioned", "in a comment", ctx)

	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if n.ID == uuid.Nil {
		t.Error("Expected non-nil UUID, got nil UUID")
	}

	if n.IsRead {
		t.Error("Expected new notification to be unread")
	}

	if n.ReadAt != nil {
		t.Error("Expected nil ReadAt on new notification")
	}

	// Test invalid kind
	_, err = NewNotification(userID, NotificationKind("push"), "Title", "", nil)
	if err != ErrInvalidNotificationKind {
		t.Errorf("Expected error %v, got %v", ErrInvalidNotificationKind, err)
	}

	// Test empty title
	_, err = NewNotification(userID, NotificationSystem, "", "", nil)
	if err != ErrEmptyNotificationTitle {
		t.Errorf("Expected error %v, got %v", ErrEmptyNotificationTitle, err)
	}

	// Test missing recipient
	_, err = NewNotification(uuid.Nil, NotificationSystem, "Title", "", nil)
	if err != ErrEmptyUserID {
		t.Errorf("Expected error %v, got %v", ErrEmptyUserID, err)
	}
}

func TestNotificationMarkRead(t *testing.T) {
	t.Parallel()
	n, err := NewNotification(uuid.New(), NotificationTaskAssigned, "Assigned", "", nil)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	n.MarkRead()
	if !n.IsRead {
		t.Error("Expected notification to be read")
	}
	if n.ReadAt == nil {
		t.Fatal("Expected ReadAt to be set")
	}
	first := *n.ReadAt

	// MarkRead is idempotent
	n.MarkRead()
	if !n.ReadAt.Equal(first) {
		t.Error("Expected ReadAt to be preserved on repeated MarkRead")
	}
}

func TestNewAuditEntry(t *testing.T) {
	t.Parallel()
	entityID := uuid.New()
	actorID := uuid.New()
	changes := json.RawMessage(`{"status":{"old":"todo","new":"done"}}`)

	e, err := NewAuditEntry("task", entityID, &actorID, AuditUpdate, changes, nil)

	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if e.ID == uuid.Nil {
		t.Error("Expected non-nil UUID, got nil UUID")
	}

	if e.EntityType != "task" {
		t.Errorf("Expected entity type task, got %s", e.EntityType)
	}

	if e.ActorID == nil || *e.ActorID != actorID {
		t.Error("Expected actor ID to be carried")
	}

	// System actions have no actor
	e, err = NewAuditEntry("user", entityID, nil, AuditCreate, nil, nil)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if e.ActorID != nil {
		t.Error("Expected nil actor for system action")
	}

	// Test invalid action
	_, err = NewAuditEntry("task", entityID, &actorID, AuditAction("archive"), nil, nil)
	if err != ErrInvalidAuditAction {
		t.Errorf("Expected error %v, got %v", ErrInvalidAuditAction, err)
	}

	// Test missing entity type
	_, err = NewAuditEntry("", entityID, &actorID, AuditDelete, nil, nil)
	if err != ErrEmptyAuditEntityType {
		t.Errorf("Expected error %v, got %v", ErrEmptyAuditEntityType, err)
	}
}
