package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/taskhub/taskhub-api/internal/domain"
	"github.com/taskhub/taskhub-api/internal/platform/logger"
	"github.com/taskhub/taskhub-api/internal/store"
)

// PostgresCommentStore implements the store.CommentStore interface
// using a PostgreSQL database as the storage backend.
// Mention IDs are persisted as a JSONB array on the comment row.
type PostgresCommentStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresCommentStore creates a new PostgreSQL implementation of the CommentStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresCommentStore(db store.DBTX, logger *slog.Logger) *PostgresCommentStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresCommentStore{
		db:     db,
		logger: logger.With(slog.String("component", "comment_store")),
	}
}

// Ensure PostgresCommentStore implements store.CommentStore interface
var _ store.CommentStore = (*PostgresCommentStore)(nil)

// Create implements store.CommentStore.Create
// Returns store.ErrForeignKey if the task, author, or parent comment does not exist.
func (s *PostgresCommentStore) Create(ctx context.Context, comment *domain.Comment) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := comment.Validate(); err != nil {
		log.Warn("comment validation failed during create",
			slog.String("error", err.Error()),
			slog.String("comment_id", comment.ID.String()))
		return err
	}

	mentionIDs, err := json.Marshal(comment.MentionIDs)
	if err != nil {
		return fmt.Errorf("failed to marshal mention IDs: %w", err)
	}

	query := `
		INSERT INTO comments (id, task_id, author_id, parent_id, body, mention_ids, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = s.db.ExecContext(
		ctx,
		query,
		comment.ID,
		comment.TaskID,
		comment.AuthorID,
		comment.ParentID,
		comment.Body,
		mentionIDs,
		comment.CreatedAt,
		comment.UpdatedAt,
	)

	if err != nil {
		if IsForeignKeyViolation(err) {
			log.Warn("foreign key violation during comment creation",
				slog.String("comment_id", comment.ID.String()),
				slog.String("task_id", comment.TaskID.String()))
			return fmt.Errorf("%w: %v", store.ErrForeignKey, err)
		}

		log.Error("failed to create comment",
			slog.String("error", err.Error()),
			slog.String("comment_id", comment.ID.String()))
		return err
	}

	log.Info("comment created successfully",
		slog.String("comment_id", comment.ID.String()),
		slog.String("task_id", comment.TaskID.String()))
	return nil
}

// GetByID implements store.CommentStore.GetByID
// Returns store.ErrCommentNotFound if the comment does not exist.
func (s *PostgresCommentStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Comment, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	log.Debug("retrieving comment by ID", slog.String("comment_id", id.String()))

	query := `
		SELECT id, task_id, author_id, parent_id, body, mention_ids, created_at, updated_at
		FROM comments
		WHERE id = $1
	`

	comment, err := scanCommentRow(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("comment not found", slog.String("comment_id", id.String()))
			return nil, store.ErrCommentNotFound
		}
		log.Error("failed to get comment by ID",
			slog.String("error", err.Error()),
			slog.String("comment_id", id.String()))
		return nil, err
	}

	return comment, nil
}

// ListByTask implements store.CommentStore.ListByTask
// Comments come back oldest first so threads read top to bottom.
func (s *PostgresCommentStore) ListByTask(
	ctx context.Context,
	taskID uuid.UUID,
	limit, offset int,
) ([]*domain.Comment, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if limit <= 0 {
		limit = 10 // Default limit
	}
	if offset < 0 {
		offset = 0
	}

	query := `
		SELECT id, task_id, author_id, parent_id, body, mention_ids, created_at, updated_at
		FROM comments
		WHERE task_id = $1
		ORDER BY created_at ASC, id ASC
		LIMIT $2 OFFSET $3
	`

	rows, err := s.db.QueryContext(ctx, query, taskID, limit, offset)
	if err != nil {
		log.Error("failed to query comments",
			slog.String("error", err.Error()),
			slog.String("task_id", taskID.String()))
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	var comments []*domain.Comment
	for rows.Next() {
		comment, err := scanCommentRow(rows)
		if err != nil {
			log.Error("failed to scan comment row",
				slog.String("error", err.Error()))
			return nil, err
		}
		comments = append(comments, comment)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows",
			slog.String("error", err.Error()))
		return nil, err
	}

	// Return empty slice instead of nil
	if comments == nil {
		comments = []*domain.Comment{}
	}

	log.Debug("listed comments",
		slog.String("task_id", taskID.String()),
		slog.Int("count", len(comments)))
	return comments, nil
}

// Delete implements store.CommentStore.Delete
// Replies to the comment cascade.
// Returns store.ErrCommentNotFound if the comment does not exist.
func (s *PostgresCommentStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		DELETE FROM comments
		WHERE id = $1
	`

	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		log.Error("failed to delete comment",
			slog.String("error", err.Error()),
			slog.String("comment_id", id.String()))
		return err
	}

	if err := checkAffected(result, store.ErrCommentNotFound); err != nil {
		log.Debug("comment not found for delete",
			slog.String("comment_id", id.String()))
		return err
	}

	log.Info("comment deleted successfully",
		slog.String("comment_id", id.String()))
	return nil
}

// WithTx implements store.CommentStore.WithTx
func (s *PostgresCommentStore) WithTx(tx *sql.Tx) store.CommentStore {
	return &PostgresCommentStore{
		db:     tx,
		logger: s.logger,
	}
}

// scanCommentRow maps a comment row into a domain Comment.
func scanCommentRow(row rowScanner) (*domain.Comment, error) {
	var comment domain.Comment
	var parentID uuid.NullUUID
	var mentionIDs []byte

	err := row.Scan(
		&comment.ID,
		&comment.TaskID,
		&comment.AuthorID,
		&parentID,
		&comment.Body,
		&mentionIDs,
		&comment.CreatedAt,
		&comment.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if parentID.Valid {
		comment.ParentID = &parentID.UUID
	}
	if len(mentionIDs) > 0 {
		if err := json.Unmarshal(mentionIDs, &comment.MentionIDs); err != nil {
			return nil, fmt.Errorf("failed to unmarshal mention IDs: %w", err)
		}
	}

	return &comment, nil
}
