package mocks

import (
	"context"
	"database/sql"
	"sort"

	"github.com/google/uuid"

	"github.com/taskhub/taskhub-api/internal/domain"
	"github.com/taskhub/taskhub-api/internal/store"
)

// MockCommentStore implements store.CommentStore for testing
type MockCommentStore struct {
	// Function fields for customizable behavior
	CreateFn     func(ctx context.Context, comment *domain.Comment) error
	GetByIDFn    func(ctx context.Context, id uuid.UUID) (*domain.Comment, error)
	ListByTaskFn func(ctx context.Context, taskID uuid.UUID, limit, offset int) ([]*domain.Comment, error)
	DeleteFn     func(ctx context.Context, id uuid.UUID) error

	// Data for default implementation
	Comments map[uuid.UUID]*domain.Comment
}

// NewMockCommentStore creates a new mock store with initialized defaults
func NewMockCommentStore() *MockCommentStore {
	return &MockCommentStore{
		Comments: make(map[uuid.UUID]*domain.Comment),
	}
}

var _ store.CommentStore = (*MockCommentStore)(nil)

// Create implements the CommentStore interface
func (m *MockCommentStore) Create(ctx context.Context, comment *domain.Comment) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, comment)
	}
	m.Comments[comment.ID] = comment
	return nil
}

// GetByID implements the CommentStore interface
func (m *MockCommentStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Comment, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}

	comment, ok := m.Comments[id]
	if !ok {
		return nil, store.ErrCommentNotFound
	}
	return comment, nil
}

// ListByTask implements the CommentStore interface. The default returns the
// task's comments oldest first, ignoring pagination.
func (m *MockCommentStore) ListByTask(ctx context.Context, taskID uuid.UUID, limit, offset int) ([]*domain.Comment, error) {
	if m.ListByTaskFn != nil {
		return m.ListByTaskFn(ctx, taskID, limit, offset)
	}

	comments := make([]*domain.Comment, 0)
	for _, comment := range m.Comments {
		if comment.TaskID == taskID {
			comments = append(comments, comment)
		}
	}
	sort.Slice(comments, func(i, j int) bool {
		return comments[i].CreatedAt.Before(comments[j].CreatedAt)
	})
	return comments, nil
}

// Delete implements the CommentStore interface
func (m *MockCommentStore) Delete(ctx context.Context, id uuid.UUID) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}

	if _, ok := m.Comments[id]; !ok {
		return store.ErrCommentNotFound
	}
	delete(m.Comments, id)
	return nil
}

// WithTx implements the CommentStore interface. The mock has no transaction
// state, so it returns itself.
func (m *MockCommentStore) WithTx(tx *sql.Tx) store.CommentStore {
	return m
}
