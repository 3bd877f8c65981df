package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/taskhub/taskhub-api/internal/domain"
	"github.com/taskhub/taskhub-api/internal/job"
	"github.com/taskhub/taskhub-api/internal/platform/redis"
	"github.com/taskhub/taskhub-api/internal/store"
)

// unreadCountTTL bounds staleness of the cached unread counter. Writes
// invalidate the cache, so the TTL only matters for out-of-band changes.
const unreadCountTTL = 5 * time.Minute

// NotificationService persists and queries user notifications. It also
// implements job.Notifier so the background job runner can deliver
// notifications through the same path.
type NotificationService struct {
	notificationStore store.NotificationStore
	cache             *redis.Cache
	logger            *slog.Logger
}

// Ensure NotificationService can serve the job runner's delivery jobs
var _ job.Notifier = (*NotificationService)(nil)

// NewNotificationService creates a new NotificationService. The cache is
// optional; a nil cache disables unread-count caching.
func NewNotificationService(
	notificationStore store.NotificationStore,
	cache *redis.Cache,
	logger *slog.Logger,
) *NotificationService {
	return &NotificationService{
		notificationStore: notificationStore,
		cache:             cache,
		logger:            logger.With("component", "notification_service"),
	}
}

func unreadCountKey(userID uuid.UUID) string {
	return "unread_count:" + userID.String()
}

// CreateNotification persists a notification for a single recipient.
// Implements job.Notifier.
func (s *NotificationService) CreateNotification(
	ctx context.Context,
	userID uuid.UUID,
	kind domain.NotificationKind,
	title, body string,
	contextData json.RawMessage,
) error {
	notification, err := domain.NewNotification(userID, kind, title, body, contextData)
	if err != nil {
		return fmt.Errorf("failed to build notification: %w", err)
	}

	if err := s.notificationStore.Create(ctx, notification); err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	s.invalidateUnreadCount(ctx, userID)

	s.logger.Debug("notification created",
		"notification_id", notification.ID,
		"user_id", userID,
		"kind", kind)

	return nil
}

// ListNotifications retrieves the user's notifications, newest first.
func (s *NotificationService) ListNotifications(
	ctx context.Context,
	userID uuid.UUID,
	unreadOnly bool,
	limit, offset int,
) ([]*domain.Notification, error) {
	notifications, err := s.notificationStore.ListForUser(ctx, userID, unreadOnly, limit, offset)
	if err != nil {
		s.logger.Error("failed to list notifications",
			"error", err,
			"user_id", userID)
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}

// CountUnread returns the user's unread notification count, serving from
// the cache when possible.
func (s *NotificationService) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	if s.cache != nil {
		var cached int
		err := s.cache.Get(ctx, unreadCountKey(userID), &cached)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, redis.ErrCacheMiss) {
			s.logger.Warn("unread count cache read failed",
				"error", err,
				"user_id", userID)
		}
	}

	count, err := s.notificationStore.CountUnread(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, unreadCountKey(userID), count, unreadCountTTL); err != nil {
			s.logger.Warn("unread count cache write failed",
				"error", err,
				"user_id", userID)
		}
	}

	return count, nil
}

// MarkRead marks a single notification as read. Marking an already-read
// notification is a no-op.
func (s *NotificationService) MarkRead(ctx context.Context, notificationID, userID uuid.UUID) error {
	if err := s.notificationStore.MarkRead(ctx, notificationID, userID); err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}

	s.invalidateUnreadCount(ctx, userID)
	return nil
}

// MarkAllRead marks all of the user's unread notifications as read and
// returns how many were updated.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) (int, error) {
	count, err := s.notificationStore.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}

	s.invalidateUnreadCount(ctx, userID)

	s.logger.Debug("notifications marked read",
		"user_id", userID,
		"count", count)

	return count, nil
}

// invalidateUnreadCount drops the cached counter. Cache failures are logged
// and otherwise ignored; the TTL bounds how long a stale count can live.
func (s *NotificationService) invalidateUnreadCount(ctx context.Context, userID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, unreadCountKey(userID)); err != nil {
		s.logger.Warn("unread count cache invalidation failed",
			"error", err,
			"user_id", userID)
	}
}
