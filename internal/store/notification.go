package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/taskhub/taskhub-api/internal/domain"
)

// NotificationStore defines the interface for notification persistence.
type NotificationStore interface {
	// Create saves a new notification to the store.
	// Returns ErrForeignKey if the recipient does not exist.
	// Returns validation errors from the domain Notification if data is invalid.
	Create(ctx context.Context, notification *domain.Notification) error

	// GetByID retrieves a notification by its unique ID.
	// Returns ErrNotificationNotFound if the notification does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Notification, error)

	// ListForUser retrieves a user's notifications ordered by creation time,
	// newest first. When unreadOnly is true, read notifications are excluded.
	// Returns an empty slice if no notifications match.
	ListForUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit, offset int) ([]*domain.Notification, error)

	// CountUnread returns the number of unread notifications for a user.
	CountUnread(ctx context.Context, userID uuid.UUID) (int, error)

	// MarkRead marks a single notification as read.
	// Already-read notifications are left untouched.
	// Returns ErrNotificationNotFound if the notification does not exist or
	// belongs to a different user.
	MarkRead(ctx context.Context, id, userID uuid.UUID) error

	// MarkAllRead marks all of a user's unread notifications as read and
	// returns how many were updated.
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int, error)

	// WithTx returns a new NotificationStore instance that uses the provided transaction.
	// This allows for multiple operations to be executed within a single transaction.
	// The transaction should be created and managed by the caller (typically a service).
	WithTx(tx *sql.Tx) NotificationStore
}
