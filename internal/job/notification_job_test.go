package job

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhub/taskhub-api/internal/domain"
)

// mockNotifier implements the Notifier interface for testing
type mockNotifier struct {
	mu       sync.Mutex
	created  []uuid.UUID
	failFor  map[uuid.UUID]error
}

func newMockNotifier() *mockNotifier {
	return &mockNotifier{
		failFor: make(map[uuid.UUID]error),
	}
}

func (m *mockNotifier) CreateNotification(
	ctx context.Context,
	userID uuid.UUID,
	kind domain.NotificationKind,
	title, body string,
	contextData json.RawMessage,
) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err, ok := m.failFor[userID]; ok {
		return err
	}
	m.created = append(m.created, userID)
	return nil
}

func TestNewNotificationDeliveryJob(t *testing.T) {
	t.Parallel()

	notifier := newMockNotifier()
	logger := discardLogger()

	payload := NotificationDeliveryPayload{
		RecipientIDs: []uuid.UUID{uuid.New()},
		Kind:         domain.NotificationMention,
		Title:        "You were mentioned",
	}

	j, err := NewNotificationDeliveryJob(payload, notifier, logger)
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, j.ID())
	assert.Equal(t, JobTypeNotificationDelivery, j.Type())
	assert.Equal(t, JobStatusPending, j.Status())

	// Payload round-trips
	var decoded NotificationDeliveryPayload
	require.NoError(t, json.Unmarshal(j.Payload(), &decoded))
	assert.Equal(t, payload.RecipientIDs, decoded.RecipientIDs)
	assert.Equal(t, payload.Kind, decoded.Kind)

	// Nil notifier
	_, err = NewNotificationDeliveryJob(payload, nil, logger)
	assert.Equal(t, ErrNilNotifier, err)

	// Nil logger
	_, err = NewNotificationDeliveryJob(payload, notifier, nil)
	assert.Equal(t, ErrNilLogger, err)

	// No recipients
	empty := payload
	empty.RecipientIDs = nil
	_, err = NewNotificationDeliveryJob(empty, notifier, logger)
	assert.Equal(t, ErrNoRecipients, err)

	// Invalid kind
	badKind := payload
	badKind.Kind = "push"
	_, err = NewNotificationDeliveryJob(badKind, notifier, logger)
	assert.Equal(t, domain.ErrInvalidNotificationKind, err)
}

func TestNotificationDeliveryJob_Execute(t *testing.T) {
	t.Parallel()

	t.Run("delivers to all recipients", func(t *testing.T) {
		t.Parallel()

		notifier := newMockNotifier()
		recipients := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}

		j, err := NewNotificationDeliveryJob(NotificationDeliveryPayload{
			RecipientIDs: recipients,
			Kind:         domain.NotificationTaskAssigned,
			Title:        "Task assigned",
			Body:         "A task was assigned to you",
		}, notifier, discardLogger())
		require.NoError(t, err)

		err = j.Execute(context.Background())
		require.NoError(t, err)

		assert.Equal(t, JobStatusCompleted, j.Status())
		assert.ElementsMatch(t, recipients, notifier.created)
	})

	t.Run("partial failure still delivers to others", func(t *testing.T) {
		t.Parallel()

		notifier := newMockNotifier()
		ok1 := uuid.New()
		failing := uuid.New()
		ok2 := uuid.New()
		notifier.failFor[failing] = errors.New("recipient gone")

		j, err := NewNotificationDeliveryJob(NotificationDeliveryPayload{
			RecipientIDs: []uuid.UUID{ok1, failing, ok2},
			Kind:         domain.NotificationStatusChange,
			Title:        "Status changed",
		}, notifier, discardLogger())
		require.NoError(t, err)

		err = j.Execute(context.Background())
		assert.Error(t, err)
		assert.Equal(t, JobStatusFailed, j.Status())

		// The other recipients were still notified
		assert.ElementsMatch(t, []uuid.UUID{ok1, ok2}, notifier.created)
	})

	t.Run("cancelled context", func(t *testing.T) {
		t.Parallel()

		notifier := newMockNotifier()
		j, err := NewNotificationDeliveryJob(NotificationDeliveryPayload{
			RecipientIDs: []uuid.UUID{uuid.New()},
			Kind:         domain.NotificationSystem,
			Title:        "System notice",
		}, notifier, discardLogger())
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err = j.Execute(ctx)
		assert.Error(t, err)
		assert.Equal(t, JobStatusFailed, j.Status())
		assert.Empty(t, notifier.created)
	})
}

func TestNotificationDeliveryJobFactory_RehydrateJob(t *testing.T) {
	t.Parallel()

	notifier := newMockNotifier()
	factory := NewNotificationDeliveryJobFactory(notifier, discardLogger())

	t.Run("rebuilds an executable job with the stored ID", func(t *testing.T) {
		t.Parallel()

		recipientID := uuid.New()
		payload, err := json.Marshal(NotificationDeliveryPayload{
			RecipientIDs: []uuid.UUID{recipientID},
			Kind:         domain.NotificationMention,
			Title:        "You were mentioned",
		})
		require.NoError(t, err)

		storedID := uuid.New()
		stored := NewMockJob(storedID, JobTypeNotificationDelivery, payload)

		restored, err := factory.RehydrateJob(stored)
		require.NoError(t, err)

		assert.Equal(t, storedID, restored.ID())
		assert.Equal(t, JobTypeNotificationDelivery, restored.Type())

		require.NoError(t, restored.Execute(context.Background()))
		assert.Contains(t, notifier.created, recipientID)
	})

	t.Run("rejects unknown job types", func(t *testing.T) {
		t.Parallel()

		stored := NewMockJob(uuid.New(), "mystery", []byte("{}"))
		_, err := factory.RehydrateJob(stored)
		assert.Error(t, err)
	})

	t.Run("rejects an empty payload", func(t *testing.T) {
		t.Parallel()

		stored := NewMockJob(uuid.New(), JobTypeNotificationDelivery, nil)
		_, err := factory.RehydrateJob(stored)
		assert.ErrorIs(t, err, ErrEmptyJobPayload)
	})

	t.Run("rejects a corrupt payload", func(t *testing.T) {
		t.Parallel()

		stored := NewMockJob(uuid.New(), JobTypeNotificationDelivery, []byte("not json"))
		_, err := factory.RehydrateJob(stored)
		assert.Error(t, err)
	})
}
