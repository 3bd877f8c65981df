package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/taskhub/taskhub-api/internal/domain"
)

// AuditStore defines the interface for the append-only audit log.
// Entries are written inside the same transaction as the mutation they
// record and are never updated or deleted.
type AuditStore interface {
	// Create appends a new audit entry.
	// Returns validation errors from the domain AuditEntry if data is invalid.
	Create(ctx context.Context, entry *domain.AuditEntry) error

	// ListByEntity retrieves the audit trail for a single entity, ordered by
	// creation time, newest first.
	// Returns an empty slice if the entity has no entries.
	ListByEntity(ctx context.Context, entityType string, entityID uuid.UUID, limit, offset int) ([]*domain.AuditEntry, error)

	// ListByActor retrieves the actions performed by a single actor, ordered
	// by creation time, newest first.
	// Returns an empty slice if the actor has no entries.
	ListByActor(ctx context.Context, actorID uuid.UUID, limit, offset int) ([]*domain.AuditEntry, error)

	// WithTx returns a new AuditStore instance that uses the provided transaction.
	// This allows audit entries to be written atomically with the mutation
	// they describe.
	WithTx(tx *sql.Tx) AuditStore
}
