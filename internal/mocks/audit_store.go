package mocks

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/taskhub/taskhub-api/internal/domain"
	"github.com/taskhub/taskhub-api/internal/store"
)

// MockAuditStore implements store.AuditStore for testing. Created entries
// accumulate in Entries so tests can assert on the recorded trail.
type MockAuditStore struct {
	// Function fields for customizable behavior
	CreateFn       func(ctx context.Context, entry *domain.AuditEntry) error
	ListByEntityFn func(ctx context.Context, entityType string, entityID uuid.UUID, limit, offset int) ([]*domain.AuditEntry, error)
	ListByActorFn  func(ctx context.Context, actorID uuid.UUID, limit, offset int) ([]*domain.AuditEntry, error)

	// Data for default implementation
	Entries []*domain.AuditEntry
}

// NewMockAuditStore creates a new mock store with initialized defaults
func NewMockAuditStore() *MockAuditStore {
	return &MockAuditStore{}
}

var _ store.AuditStore = (*MockAuditStore)(nil)

// Create implements the AuditStore interface
func (m *MockAuditStore) Create(ctx context.Context, entry *domain.AuditEntry) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, entry)
	}
	m.Entries = append(m.Entries, entry)
	return nil
}

// ListByEntity implements the AuditStore interface
func (m *MockAuditStore) ListByEntity(
	ctx context.Context,
	entityType string,
	entityID uuid.UUID,
	limit, offset int,
) ([]*domain.AuditEntry, error) {
	if m.ListByEntityFn != nil {
		return m.ListByEntityFn(ctx, entityType, entityID, limit, offset)
	}

	entries := make([]*domain.AuditEntry, 0)
	for _, e := range m.Entries {
		if e.EntityType == entityType && e.EntityID == entityID {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

// ListByActor implements the AuditStore interface
func (m *MockAuditStore) ListByActor(
	ctx context.Context,
	actorID uuid.UUID,
	limit, offset int,
) ([]*domain.AuditEntry, error) {
	if m.ListByActorFn != nil {
		return m.ListByActorFn(ctx, actorID, limit, offset)
	}

	entries := make([]*domain.AuditEntry, 0)
	for _, e := range m.Entries {
		if e.ActorID != nil && *e.ActorID == actorID {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

// WithTx implements the AuditStore interface. The mock has no transaction
// state, so it returns itself.
func (m *MockAuditStore) WithTx(tx *sql.Tx) store.AuditStore {
	return m
}
