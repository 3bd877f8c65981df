package job

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/taskhub/taskhub-api/internal/events"
)

// JobFactory creates jobs from notification delivery payloads.
type JobFactory interface {
	CreateJob(payload NotificationDeliveryPayload) (Job, error)
}

// JobSubmitter accepts jobs for background execution.
type JobSubmitter interface {
	Submit(ctx context.Context, job Job) error
}

// JobFactoryEventHandler implements the events.EventHandler interface
// to handle job request events and delegate them to the appropriate job factory.
type JobFactoryEventHandler struct {
	factory JobFactory
	runner  JobSubmitter
	logger  *slog.Logger
}

// NewJobFactoryEventHandler creates a new event handler that uses the given job factory
// to create jobs, and submits them to the provided job runner.
func NewJobFactoryEventHandler(
	factory JobFactory,
	runner JobSubmitter,
	logger *slog.Logger,
) *JobFactoryEventHandler {
	return &JobFactoryEventHandler{
		factory: factory,
		runner:  runner,
		logger:  logger.With("component", "job_factory_event_handler"),
	}
}

// HandleEvent processes events by creating and submitting jobs.
// It extracts the payload from the event, creates the appropriate job,
// and submits it to the runner for execution.
func (h *JobFactoryEventHandler) HandleEvent(
	ctx context.Context,
	event *events.JobRequestEvent,
) error {
	// Only handle notification delivery events for now
	if event.Type != JobTypeNotificationDelivery {
		h.logger.Debug("ignoring event with unsupported type",
			"event_type", event.Type,
			"event_id", event.ID)
		return nil
	}

	var payload NotificationDeliveryPayload
	if err := event.UnmarshalPayload(&payload); err != nil {
		h.logger.Error("failed to unmarshal payload", "error", err, "event_id", event.ID)
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	h.logger.Debug("creating job for event", "event_id", event.ID)
	j, err := h.factory.CreateJob(payload)
	if err != nil {
		h.logger.Error("failed to create job",
			"error", err,
			"event_id", event.ID)
		return fmt.Errorf("failed to create job: %w", err)
	}

	h.logger.Debug("submitting job to runner",
		"job_id", j.ID(),
		"event_id", event.ID)
	if err := h.runner.Submit(ctx, j); err != nil {
		h.logger.Error("failed to submit job",
			"error", err,
			"job_id", j.ID(),
			"event_id", event.ID)
		return fmt.Errorf("failed to submit job: %w", err)
	}

	h.logger.Info("job created and submitted successfully",
		"job_id", j.ID(),
		"event_id", event.ID)
	return nil
}

// Ensure JobFactoryEventHandler implements events.EventHandler
var _ events.EventHandler = (*JobFactoryEventHandler)(nil)
