package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/taskhub/taskhub-api/internal/domain"
)

// CommentStore defines the interface for comment data persistence.
type CommentStore interface {
	// Create saves a new comment to the store, including its resolved
	// mention IDs.
	// Returns ErrForeignKey if the task, author, or parent comment does not exist.
	// Returns validation errors from the domain Comment if data is invalid.
	Create(ctx context.Context, comment *domain.Comment) error

	// GetByID retrieves a comment by its unique ID.
	// Returns ErrCommentNotFound if the comment does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Comment, error)

	// ListByTask retrieves the comments on a task ordered by creation time,
	// oldest first, so threads read top to bottom.
	// Returns an empty slice if the task has no comments.
	ListByTask(ctx context.Context, taskID uuid.UUID, limit, offset int) ([]*domain.Comment, error)

	// Delete removes a comment. Replies to it cascade.
	// Returns ErrCommentNotFound if the comment does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns a new CommentStore instance that uses the provided transaction.
	// This allows for multiple operations to be executed within a single transaction.
	// The transaction should be created and managed by the caller (typically a service).
	WithTx(tx *sql.Tx) CommentStore
}
