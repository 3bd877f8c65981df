package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/taskhub/taskhub-api/internal/domain"
	"github.com/taskhub/taskhub-api/internal/events"
	"github.com/taskhub/taskhub-api/internal/job"
	"github.com/taskhub/taskhub-api/internal/store"
)

// CommentService provides task comment operations. Comments inherit their
// access scope from the task's workspace.
type CommentService interface {
	// CreateComment adds a comment to a task the actor can see. @mentions in
	// the body are resolved against workspace member names and the matched
	// users are notified.
	CreateComment(ctx context.Context, actorID, taskID uuid.UUID, parentID *uuid.UUID, body string) (*domain.Comment, error)

	// ListComments retrieves a task's comments oldest first, so threads
	// read top-down.
	ListComments(ctx context.Context, actorID, taskID uuid.UUID, limit, offset int) ([]*domain.Comment, error)

	// DeleteComment removes a comment. Only the comment's author or a
	// workspace admin may delete it.
	DeleteComment(ctx context.Context, actorID, commentID uuid.UUID) error
}

// CommentServiceImpl implements the CommentService interface
type CommentServiceImpl struct {
	commentStore store.CommentStore
	taskStore    store.TaskStore
	workspaces   WorkspaceService
	audit        *AuditService
	emitter      events.EventEmitter
	db           *sql.DB
	logger       *slog.Logger
}

// NewCommentService creates a new CommentService
func NewCommentService(
	commentStore store.CommentStore,
	taskStore store.TaskStore,
	workspaces WorkspaceService,
	audit *AuditService,
	emitter events.EventEmitter,
	db *sql.DB,
	logger *slog.Logger,
) CommentService {
	return &CommentServiceImpl{
		commentStore: commentStore,
		taskStore:    taskStore,
		workspaces:   workspaces,
		audit:        audit,
		emitter:      emitter,
		db:           db,
		logger:       logger.With("component", "comment_service"),
	}
}

// CreateComment adds a comment to a task the actor can see.
func (s *CommentServiceImpl) CreateComment(
	ctx context.Context,
	actorID, taskID uuid.UUID,
	parentID *uuid.UUID,
	body string,
) (*domain.Comment, error) {
	task, err := s.taskStore.GetByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve task for comment: %w", err)
	}

	if _, err := s.workspaces.RequireMember(ctx, task.WorkspaceID, actorID); err != nil {
		return nil, err
	}

	// Replies must stay within the same task's thread
	if parentID != nil {
		parent, err := s.commentStore.GetByID(ctx, *parentID)
		if err != nil {
			return nil, fmt.Errorf("failed to retrieve parent comment: %w", err)
		}
		if parent.TaskID != taskID {
			return nil, fmt.Errorf("%w: parent comment belongs to a different task", domain.ErrValidation)
		}
	}

	comment, err := domain.NewComment(taskID, actorID, parentID, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	mentioned, err := s.resolveMentions(ctx, task.WorkspaceID, actorID, body)
	if err != nil {
		return nil, err
	}
	comment.MentionIDs = mentioned

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txStore := s.commentStore.WithTx(tx)
		if err := txStore.Create(ctx, comment); err != nil {
			return err
		}
		return s.audit.RecordTx(ctx, tx, "comment", comment.ID, &actorID, domain.AuditCreate, nil, nil)
	})
	if err != nil {
		s.logger.Error("failed to create comment",
			"error", err,
			"task_id", taskID,
			"actor_id", actorID)
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	if len(mentioned) > 0 {
		s.emitMentionNotification(ctx, task, comment, actorID, mentioned)
	}

	return comment, nil
}

// ListComments retrieves a task's comments oldest first.
func (s *CommentServiceImpl) ListComments(
	ctx context.Context,
	actorID, taskID uuid.UUID,
	limit, offset int,
) ([]*domain.Comment, error) {
	task, err := s.taskStore.GetByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve task for comments: %w", err)
	}

	if _, err := s.workspaces.RequireMember(ctx, task.WorkspaceID, actorID); err != nil {
		return nil, err
	}

	comments, err := s.commentStore.ListByTask(ctx, taskID, limit, offset)
	if err != nil {
		s.logger.Error("failed to list comments",
			"error", err,
			"task_id", taskID)
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	return comments, nil
}

// DeleteComment removes a comment.
func (s *CommentServiceImpl) DeleteComment(ctx context.Context, actorID, commentID uuid.UUID) error {
	comment, err := s.commentStore.GetByID(ctx, commentID)
	if err != nil {
		return fmt.Errorf("failed to retrieve comment for deletion: %w", err)
	}

	task, err := s.taskStore.GetByID(ctx, comment.TaskID)
	if err != nil {
		return fmt.Errorf("failed to retrieve task for comment deletion: %w", err)
	}

	member, err := s.workspaces.RequireMember(ctx, task.WorkspaceID, actorID)
	if err != nil {
		return err
	}
	if comment.AuthorID != actorID && member.Role != domain.RoleAdmin {
		return ErrNotOwned
	}

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txStore := s.commentStore.WithTx(tx)
		if err := txStore.Delete(ctx, commentID); err != nil {
			return err
		}
		return s.audit.RecordTx(ctx, tx, "comment", commentID, &actorID, domain.AuditDelete, nil, nil)
	})
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}

	return nil
}

// resolveMentions matches @mention handles against workspace member display
// names, case-insensitively. Handles that match no member are ignored, and
// the author never mentions themselves.
func (s *CommentServiceImpl) resolveMentions(
	ctx context.Context,
	workspaceID, authorID uuid.UUID,
	body string,
) ([]uuid.UUID, error) {
	handles := domain.ExtractMentions(body)
	if len(handles) == 0 {
		return nil, nil
	}

	members, err := s.workspaces.ListMembers(ctx, authorID, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve mentions: %w", err)
	}

	seen := make(map[uuid.UUID]struct{})
	resolved := make([]uuid.UUID, 0, len(handles))
	for _, handle := range handles {
		for _, m := range members {
			if m.UserID == authorID {
				continue
			}
			if strings.EqualFold(m.Name, handle) {
				if _, dup := seen[m.UserID]; !dup {
					seen[m.UserID] = struct{}{}
					resolved = append(resolved, m.UserID)
				}
			}
		}
	}
	return resolved, nil
}

func (s *CommentServiceImpl) emitMentionNotification(
	ctx context.Context,
	task *domain.Task,
	comment *domain.Comment,
	actorID uuid.UUID,
	recipients []uuid.UUID,
) {
	mentionCtx, err := json.Marshal(map[string]interface{}{
		"task_id":      task.ID,
		"workspace_id": task.WorkspaceID,
		"comment_id":   comment.ID,
		"actor_id":     actorID,
	})
	if err != nil {
		s.logger.Error("failed to encode mention context",
			"error", err,
			"comment_id", comment.ID)
		return
	}

	event, err := events.NewJobRequestEvent(job.JobTypeNotificationDelivery, job.NotificationDeliveryPayload{
		RecipientIDs: recipients,
		Kind:         domain.NotificationMention,
		Title:        fmt.Sprintf("You were mentioned on %q", task.Title),
		Body:         comment.Body,
		Context:      mentionCtx,
	})
	if err != nil {
		s.logger.Error("failed to build mention event",
			"error", err,
			"comment_id", comment.ID)
		return
	}

	if err := s.emitter.EmitEvent(ctx, event); err != nil {
		s.logger.Error("failed to emit mention event",
			"error", err,
			"event_id", event.ID)
	}
}
