package mocks

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/taskhub/taskhub-api/internal/domain"
	"github.com/taskhub/taskhub-api/internal/store"
)

// MockNotificationStore implements store.NotificationStore for testing
type MockNotificationStore struct {
	// Function fields for customizable behavior
	CreateFn      func(ctx context.Context, notification *domain.Notification) error
	GetByIDFn     func(ctx context.Context, id uuid.UUID) (*domain.Notification, error)
	ListForUserFn func(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit, offset int) ([]*domain.Notification, error)
	CountUnreadFn func(ctx context.Context, userID uuid.UUID) (int, error)
	MarkReadFn    func(ctx context.Context, id, userID uuid.UUID) error
	MarkAllReadFn func(ctx context.Context, userID uuid.UUID) (int, error)

	// Data for default implementation
	Notifications map[uuid.UUID]*domain.Notification
}

// NewMockNotificationStore creates a new mock store with initialized defaults
func NewMockNotificationStore() *MockNotificationStore {
	return &MockNotificationStore{
		Notifications: make(map[uuid.UUID]*domain.Notification),
	}
}

var _ store.NotificationStore = (*MockNotificationStore)(nil)

// Create implements the NotificationStore interface
func (m *MockNotificationStore) Create(ctx context.Context, notification *domain.Notification) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, notification)
	}
	m.Notifications[notification.ID] = notification
	return nil
}

// GetByID implements the NotificationStore interface
func (m *MockNotificationStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Notification, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}

	notification, ok := m.Notifications[id]
	if !ok {
		return nil, store.ErrNotificationNotFound
	}
	return notification, nil
}

// ListForUser implements the NotificationStore interface
func (m *MockNotificationStore) ListForUser(
	ctx context.Context,
	userID uuid.UUID,
	unreadOnly bool,
	limit, offset int,
) ([]*domain.Notification, error) {
	if m.ListForUserFn != nil {
		return m.ListForUserFn(ctx, userID, unreadOnly, limit, offset)
	}

	notifications := make([]*domain.Notification, 0)
	for _, n := range m.Notifications {
		if n.UserID != userID {
			continue
		}
		if unreadOnly && n.IsRead {
			continue
		}
		notifications = append(notifications, n)
	}
	return notifications, nil
}

// CountUnread implements the NotificationStore interface
func (m *MockNotificationStore) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	if m.CountUnreadFn != nil {
		return m.CountUnreadFn(ctx, userID)
	}

	count := 0
	for _, n := range m.Notifications {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

// MarkRead implements the NotificationStore interface
func (m *MockNotificationStore) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	if m.MarkReadFn != nil {
		return m.MarkReadFn(ctx, id, userID)
	}

	notification, ok := m.Notifications[id]
	if !ok || notification.UserID != userID {
		return store.ErrNotificationNotFound
	}
	notification.MarkRead()
	return nil
}

// MarkAllRead implements the NotificationStore interface
func (m *MockNotificationStore) MarkAllRead(ctx context.Context, userID uuid.UUID) (int, error) {
	if m.MarkAllReadFn != nil {
		return m.MarkAllReadFn(ctx, userID)
	}

	count := 0
	for _, n := range m.Notifications {
		if n.UserID == userID && !n.IsRead {
			n.MarkRead()
			count++
		}
	}
	return count, nil
}

// WithTx implements the NotificationStore interface. The mock has no
// transaction state, so it returns itself.
func (m *MockNotificationStore) WithTx(tx *sql.Tx) store.NotificationStore {
	return m
}
