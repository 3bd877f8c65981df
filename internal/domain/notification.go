package domain

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrEmptyNotificationID    = errors.New("notification ID cannot be empty")
	ErrEmptyNotificationTitle = errors.New("notification title cannot be empty")
	ErrInvalidNotificationKind = errors.New("invalid notification kind")
)

// NotificationKind classifies what triggered a notification.
type NotificationKind string

const (
	NotificationTaskAssigned NotificationKind = "task_assigned"
	NotificationMention      NotificationKind = "mention"
	NotificationStatusChange NotificationKind = "status_change"
	NotificationSystem       NotificationKind = "system"
)

// IsValid reports whether the kind is one of the known values.
func (k NotificationKind) IsValid() bool {
	switch k {
	case NotificationTaskAssigned, NotificationMention, NotificationStatusChange, NotificationSystem:
		return true
	}
	return false
}

// Notification is a message delivered to a single user. After creation the
// read state (IsRead, ReadAt) is the only mutable part.
type Notification struct {
	ID        uuid.UUID        `json:"id"`
	UserID    uuid.UUID        `json:"user_id"`
	Kind      NotificationKind `json:"kind"`
	Title     string           `json:"title"`
	Body      string           `json:"body,omitempty"`
	Context   json.RawMessage  `json:"context,omitempty"` // related entity IDs
	IsRead    bool             `json:"is_read"`
	ReadAt    *time.Time       `json:"read_at,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

// NewNotification creates an unread Notification for the given recipient.
// Returns an error if validation fails.
func NewNotification(userID uuid.UUID, kind NotificationKind, title, body string, context json.RawMessage) (*Notification, error) {
	n := &Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Kind:      kind,
		Title:     title,
		Body:      body,
		Context:   context,
		CreatedAt: time.Now().UTC(),
	}

	if err := n.Validate(); err != nil {
		return nil, err
	}

	return n, nil
}

// Validate checks if the Notification has valid data.
func (n *Notification) Validate() error {
	if n.ID == uuid.Nil {
		return ErrEmptyNotificationID
	}
	if n.UserID == uuid.Nil {
		return ErrEmptyUserID
	}
	if !n.Kind.IsValid() {
		return ErrInvalidNotificationKind
	}
	if n.Title == "" {
		return ErrEmptyNotificationTitle
	}
	return nil
}

// MarkRead sets the read flag and timestamp. Idempotent.
func (n *Notification) MarkRead() {
	if n.IsRead {
		return
	}
	now := time.Now().UTC()
	n.IsRead = true
	n.ReadAt = &now
}
