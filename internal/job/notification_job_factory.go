package job

import (
	"encoding/json"
	"fmt"
	"log/slog"
)

// NotificationDeliveryJobFactory creates NotificationDeliveryJob instances
type NotificationDeliveryJobFactory struct {
	notifier Notifier
	logger   *slog.Logger
}

// NewNotificationDeliveryJobFactory creates a new factory for NotificationDeliveryJobs
func NewNotificationDeliveryJobFactory(
	notifier Notifier,
	logger *slog.Logger,
) *NotificationDeliveryJobFactory {
	return &NotificationDeliveryJobFactory{
		notifier: notifier,
		logger:   logger.With("component", "notification_delivery_job_factory"),
	}
}

// CreateJob creates a new NotificationDeliveryJob for the given payload
func (f *NotificationDeliveryJobFactory) CreateJob(payload NotificationDeliveryPayload) (Job, error) {
	j, err := NewNotificationDeliveryJob(payload, f.notifier, f.logger)
	if err != nil {
		return nil, err
	}
	return j, nil
}

// RehydrateJob rebuilds an executable NotificationDeliveryJob from its
// stored form, keeping the stored job ID so status updates land on the
// right row. Used by the runner's crash recovery.
func (f *NotificationDeliveryJobFactory) RehydrateJob(stored Job) (Job, error) {
	if stored.Type() != JobTypeNotificationDelivery {
		return nil, fmt.Errorf("cannot rehydrate job of unknown type %q", stored.Type())
	}

	raw := stored.Payload()
	if len(raw) == 0 {
		return nil, ErrEmptyJobPayload
	}

	var payload NotificationDeliveryPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode stored job payload: %w", err)
	}

	j, err := NewNotificationDeliveryJob(payload, f.notifier, f.logger)
	if err != nil {
		return nil, err
	}
	j.id = stored.ID()

	return j, nil
}
