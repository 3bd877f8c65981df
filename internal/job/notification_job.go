package job

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/taskhub/taskhub-api/internal/domain"
)

// Common errors
var (
	ErrNilNotifier     = errors.New("notifier cannot be nil")
	ErrNilLogger       = errors.New("logger cannot be nil")
	ErrNoRecipients    = errors.New("notification must have at least one recipient")
	ErrEmptyJobPayload = errors.New("job payload cannot be empty")
)

// Notifier defines the interface for creating notifications.
// This keeps the job package decoupled from the service layer.
type Notifier interface {
	// CreateNotification persists a notification for a single recipient.
	CreateNotification(ctx context.Context, userID uuid.UUID, kind domain.NotificationKind, title, body string, contextData json.RawMessage) error
}

// NotificationDeliveryPayload represents the serialized data stored in the job
type NotificationDeliveryPayload struct {
	RecipientIDs []uuid.UUID             `json:"recipient_ids"`
	Kind         domain.NotificationKind `json:"kind"`
	Title        string                  `json:"title"`
	Body         string                  `json:"body,omitempty"`
	Context      json.RawMessage         `json:"context,omitempty"`
}

// NotificationDeliveryJob implements the Job interface for fanning a single
// notification out to one or more recipients
type NotificationDeliveryJob struct {
	id       uuid.UUID
	payload  NotificationDeliveryPayload
	notifier Notifier
	logger   *slog.Logger
	status   JobStatus
}

// NewNotificationDeliveryJob creates a new notification delivery job
func NewNotificationDeliveryJob(
	payload NotificationDeliveryPayload,
	notifier Notifier,
	logger *slog.Logger,
) (*NotificationDeliveryJob, error) {
	if notifier == nil {
		return nil, ErrNilNotifier
	}
	if logger == nil {
		return nil, ErrNilLogger
	}
	if len(payload.RecipientIDs) == 0 {
		return nil, ErrNoRecipients
	}
	if !payload.Kind.IsValid() {
		return nil, domain.ErrInvalidNotificationKind
	}

	return &NotificationDeliveryJob{
		id:       uuid.New(),
		payload:  payload,
		notifier: notifier,
		logger:   logger.With("job_type", JobTypeNotificationDelivery, "kind", payload.Kind),
		status:   JobStatusPending,
	}, nil
}

// ID returns the job's unique identifier
func (j *NotificationDeliveryJob) ID() uuid.UUID {
	return j.id
}

// Type returns the job type identifier
func (j *NotificationDeliveryJob) Type() string {
	return JobTypeNotificationDelivery
}

// Payload returns the job data as a byte slice
func (j *NotificationDeliveryJob) Payload() []byte {
	data, err := json.Marshal(j.payload)
	if err != nil {
		// If marshal fails, return an empty payload with error logged
		j.logger.Error("failed to marshal job payload", "error", err)
		return []byte{}
	}

	return data
}

// Status returns the current job status
func (j *NotificationDeliveryJob) Status() JobStatus {
	return j.status
}

// Execute creates the notification for each recipient. A failure for one
// recipient does not stop delivery to the others; the job fails if any
// recipient could not be notified.
func (j *NotificationDeliveryJob) Execute(ctx context.Context) error {
	j.status = JobStatusProcessing
	j.logger.Info("starting notification delivery",
		"recipient_count", len(j.payload.RecipientIDs))

	if err := ctx.Err(); err != nil {
		j.status = JobStatusFailed
		j.logger.Error("job cancelled by context", "error", err)
		return fmt.Errorf("job cancelled by context: %w", err)
	}

	var delivered int
	var firstErr error
	for _, recipientID := range j.payload.RecipientIDs {
		err := j.notifier.CreateNotification(
			ctx,
			recipientID,
			j.payload.Kind,
			j.payload.Title,
			j.payload.Body,
			j.payload.Context,
		)
		if err != nil {
			j.logger.Error("failed to deliver notification",
				"recipient_id", recipientID,
				"error", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		delivered++
	}

	if firstErr != nil {
		j.status = JobStatusFailed
		return fmt.Errorf("delivered %d of %d notifications: %w",
			delivered, len(j.payload.RecipientIDs), firstErr)
	}

	j.status = JobStatusCompleted
	j.logger.Info("notification delivery completed", "delivered", delivered)
	return nil
}
