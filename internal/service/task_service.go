package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/taskhub/taskhub-api/internal/domain"
	"github.com/taskhub/taskhub-api/internal/events"
	"github.com/taskhub/taskhub-api/internal/job"
	"github.com/taskhub/taskhub-api/internal/store"
)

// TaskUpdate carries the mutable task fields for UpdateTask. Nil pointers
// leave the corresponding field unchanged.
type TaskUpdate struct {
	Title       *string
	Description *string
	Status      *domain.TaskStatus
	Priority    *domain.TaskPriority
	AssigneeID  *uuid.UUID
	DueDate     *time.Time

	// ClearAssignee and ClearDueDate distinguish "unset the field" from
	// "leave it alone", which nil pointers alone cannot express.
	ClearAssignee bool
	ClearDueDate  bool
}

// TaskService provides task operations scoped to workspace membership.
type TaskService interface {
	// CreateTask creates a task in a workspace the actor belongs to.
	// Assigning the task to a non-member returns domain.ErrAssigneeNotMember.
	CreateTask(ctx context.Context, actorID uuid.UUID, task *domain.Task) (*domain.Task, error)

	// GetTask retrieves a task in a workspace the actor belongs to.
	GetTask(ctx context.Context, actorID, taskID uuid.UUID) (*domain.Task, error)

	// ListTasks retrieves tasks in a workspace matching the filter.
	ListTasks(ctx context.Context, actorID, workspaceID uuid.UUID, filter store.TaskFilter, limit, offset int) ([]*domain.Task, error)

	// UpdateTask applies the non-nil fields of update to the task. Status
	// changes maintain the completion timestamp; assignment and status
	// changes fan out notifications to interested users.
	UpdateTask(ctx context.Context, actorID, taskID uuid.UUID, update TaskUpdate) (*domain.Task, error)

	// DeleteTask removes a task and cascades its comments. Only the task's
	// creator or a workspace admin may delete it.
	DeleteTask(ctx context.Context, actorID, taskID uuid.UUID) error
}

// TaskServiceImpl implements the TaskService interface
type TaskServiceImpl struct {
	taskStore  store.TaskStore
	workspaces WorkspaceService
	audit      *AuditService
	emitter    events.EventEmitter
	db         *sql.DB
	logger     *slog.Logger
}

// NewTaskService creates a new TaskService
func NewTaskService(
	taskStore store.TaskStore,
	workspaces WorkspaceService,
	audit *AuditService,
	emitter events.EventEmitter,
	db *sql.DB,
	logger *slog.Logger,
) TaskService {
	return &TaskServiceImpl{
		taskStore:  taskStore,
		workspaces: workspaces,
		audit:      audit,
		emitter:    emitter,
		db:         db,
		logger:     logger.With("component", "task_service"),
	}
}

// CreateTask creates a task in a workspace the actor belongs to.
func (s *TaskServiceImpl) CreateTask(ctx context.Context, actorID uuid.UUID, task *domain.Task) (*domain.Task, error) {
	if _, err := s.workspaces.RequireMember(ctx, task.WorkspaceID, actorID); err != nil {
		return nil, err
	}

	if task.AssigneeID != nil {
		if err := s.requireAssigneeMembership(ctx, task.WorkspaceID, *task.AssigneeID); err != nil {
			return nil, err
		}
	}

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txStore := s.taskStore.WithTx(tx)
		if err := txStore.Create(ctx, task); err != nil {
			return err
		}
		return s.audit.RecordTx(ctx, tx, "task", task.ID, &actorID, domain.AuditCreate, nil, nil)
	})
	if err != nil {
		s.logger.Error("failed to create task",
			"error", err,
			"workspace_id", task.WorkspaceID,
			"actor_id", actorID)
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	s.logger.Info("task created",
		"task_id", task.ID,
		"workspace_id", task.WorkspaceID,
		"actor_id", actorID)

	// Notify the assignee unless they assigned it to themselves
	if task.AssigneeID != nil && *task.AssigneeID != actorID {
		s.emitAssignedNotification(ctx, task, actorID)
	}

	return task, nil
}

// GetTask retrieves a task in a workspace the actor belongs to.
func (s *TaskServiceImpl) GetTask(ctx context.Context, actorID, taskID uuid.UUID) (*domain.Task, error) {
	task, err := s.taskStore.GetByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve task: %w", err)
	}

	if _, err := s.workspaces.RequireMember(ctx, task.WorkspaceID, actorID); err != nil {
		return nil, err
	}
	return task, nil
}

// ListTasks retrieves tasks in a workspace matching the filter.
func (s *TaskServiceImpl) ListTasks(
	ctx context.Context,
	actorID, workspaceID uuid.UUID,
	filter store.TaskFilter,
	limit, offset int,
) ([]*domain.Task, error) {
	if _, err := s.workspaces.RequireMember(ctx, workspaceID, actorID); err != nil {
		return nil, err
	}

	tasks, err := s.taskStore.ListByWorkspace(ctx, workspaceID, filter, limit, offset)
	if err != nil {
		s.logger.Error("failed to list tasks",
			"error", err,
			"workspace_id", workspaceID)
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// UpdateTask applies the non-nil fields of update to the task.
func (s *TaskServiceImpl) UpdateTask(
	ctx context.Context,
	actorID, taskID uuid.UUID,
	update TaskUpdate,
) (*domain.Task, error) {
	task, err := s.taskStore.GetByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve task for update: %w", err)
	}

	if _, err := s.workspaces.RequireMember(ctx, task.WorkspaceID, actorID); err != nil {
		return nil, err
	}

	prevStatus := task.Status
	prevAssignee := task.AssigneeID
	changes := map[string]interface{}{}

	if update.Title != nil {
		task.Title = *update.Title
		changes["title"] = *update.Title
	}
	if update.Description != nil {
		task.Description = *update.Description
		changes["description"] = *update.Description
	}
	if update.Priority != nil {
		task.Priority = *update.Priority
		changes["priority"] = *update.Priority
	}
	if update.ClearDueDate {
		task.DueDate = nil
		changes["due_date"] = nil
	} else if update.DueDate != nil {
		task.DueDate = update.DueDate
		changes["due_date"] = *update.DueDate
	}
	if update.ClearAssignee {
		task.AssigneeID = nil
		changes["assignee_id"] = nil
	} else if update.AssigneeID != nil {
		if err := s.requireAssigneeMembership(ctx, task.WorkspaceID, *update.AssigneeID); err != nil {
			return nil, err
		}
		task.AssigneeID = update.AssigneeID
		changes["assignee_id"] = *update.AssigneeID
	}
	if update.Status != nil && *update.Status != prevStatus {
		if err := task.SetStatus(*update.Status); err != nil {
			return nil, fmt.Errorf("invalid status change: %w", err)
		}
		changes["status"] = *update.Status
	}

	if err := task.Validate(); err != nil {
		return nil, fmt.Errorf("invalid task data: %w", err)
	}

	if len(changes) == 0 {
		return task, nil
	}

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txStore := s.taskStore.WithTx(tx)
		if err := txStore.Update(ctx, task); err != nil {
			return err
		}
		changeDoc, err := auditChanges(changes)
		if err != nil {
			return err
		}
		return s.audit.RecordTx(ctx, tx, "task", task.ID, &actorID, domain.AuditUpdate, changeDoc, nil)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	if assigneeChanged(prevAssignee, task.AssigneeID) && task.AssigneeID != nil && *task.AssigneeID != actorID {
		s.emitAssignedNotification(ctx, task, actorID)
	}
	if task.Status != prevStatus {
		s.emitStatusNotification(ctx, task, actorID, prevStatus)
	}

	return task, nil
}

// DeleteTask removes a task and cascades its comments.
func (s *TaskServiceImpl) DeleteTask(ctx context.Context, actorID, taskID uuid.UUID) error {
	task, err := s.taskStore.GetByID(ctx, taskID)
	if err != nil {
		return fmt.Errorf("failed to retrieve task for deletion: %w", err)
	}

	member, err := s.workspaces.RequireMember(ctx, task.WorkspaceID, actorID)
	if err != nil {
		return err
	}
	if task.CreatorID != actorID && member.Role != domain.RoleAdmin {
		return ErrNotOwned
	}

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txStore := s.taskStore.WithTx(tx)
		if err := txStore.Delete(ctx, taskID); err != nil {
			return err
		}
		return s.audit.RecordTx(ctx, tx, "task", taskID, &actorID, domain.AuditDelete, nil, nil)
	})
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	s.logger.Info("task deleted",
		"task_id", taskID,
		"actor_id", actorID)

	return nil
}

// requireAssigneeMembership maps a missing membership to ErrAssigneeNotMember.
func (s *TaskServiceImpl) requireAssigneeMembership(ctx context.Context, workspaceID, assigneeID uuid.UUID) error {
	if _, err := s.workspaces.RequireMember(ctx, workspaceID, assigneeID); err != nil {
		if errors.Is(err, ErrNotMember) {
			return domain.ErrAssigneeNotMember
		}
		return err
	}
	return nil
}

func (s *TaskServiceImpl) emitAssignedNotification(ctx context.Context, task *domain.Task, actorID uuid.UUID) {
	taskCtx, err := json.Marshal(map[string]interface{}{
		"task_id":      task.ID,
		"workspace_id": task.WorkspaceID,
		"actor_id":     actorID,
	})
	if err != nil {
		s.logger.Error("failed to encode notification context",
			"error", err,
			"task_id", task.ID)
		return
	}

	s.emitNotification(ctx, job.NotificationDeliveryPayload{
		RecipientIDs: []uuid.UUID{*task.AssigneeID},
		Kind:         domain.NotificationTaskAssigned,
		Title:        fmt.Sprintf("You were assigned to %q", task.Title),
		Context:      taskCtx,
	})
}

func (s *TaskServiceImpl) emitStatusNotification(ctx context.Context, task *domain.Task, actorID uuid.UUID, prevStatus domain.TaskStatus) {
	// Status changes notify the creator and assignee, minus the actor
	recipients := make([]uuid.UUID, 0, 2)
	if task.CreatorID != actorID {
		recipients = append(recipients, task.CreatorID)
	}
	if task.AssigneeID != nil && *task.AssigneeID != actorID && *task.AssigneeID != task.CreatorID {
		recipients = append(recipients, *task.AssigneeID)
	}
	if len(recipients) == 0 {
		return
	}

	taskCtx, err := json.Marshal(map[string]interface{}{
		"task_id":      task.ID,
		"workspace_id": task.WorkspaceID,
		"actor_id":     actorID,
		"from_status":  prevStatus,
		"to_status":    task.Status,
	})
	if err != nil {
		s.logger.Error("failed to encode notification context",
			"error", err,
			"task_id", task.ID)
		return
	}

	s.emitNotification(ctx, job.NotificationDeliveryPayload{
		RecipientIDs: recipients,
		Kind:         domain.NotificationStatusChange,
		Title:        fmt.Sprintf("%q moved to %s", task.Title, task.Status),
		Context:      taskCtx,
	})
}

// emitNotification hands a delivery payload to the event emitter. Failures
// are logged, not returned: notification fan-out must never fail the
// mutation that triggered it.
func (s *TaskServiceImpl) emitNotification(ctx context.Context, payload job.NotificationDeliveryPayload) {
	event, err := events.NewJobRequestEvent(job.JobTypeNotificationDelivery, payload)
	if err != nil {
		s.logger.Error("failed to build notification event",
			"error", err)
		return
	}

	if err := s.emitter.EmitEvent(ctx, event); err != nil {
		s.logger.Error("failed to emit notification event",
			"error", err,
			"event_id", event.ID)
	}
}

func assigneeChanged(prev, next *uuid.UUID) bool {
	switch {
	case prev == nil && next == nil:
		return false
	case prev == nil || next == nil:
		return true
	default:
		return *prev != *next
	}
}
