package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/taskhub/taskhub-api/internal/domain"
	"github.com/taskhub/taskhub-api/internal/store"
)

// AuditService records and queries the append-only audit log. Mutating
// services call RecordTx inside their own transactions so the audit entry
// commits atomically with the change it describes.
type AuditService struct {
	auditStore store.AuditStore
	logger     *slog.Logger
}

// NewAuditService creates a new AuditService
func NewAuditService(auditStore store.AuditStore, logger *slog.Logger) *AuditService {
	return &AuditService{
		auditStore: auditStore,
		logger:     logger.With("component", "audit_service"),
	}
}

// RecordTx appends an audit entry within the given transaction.
// A nil actorID marks a system-initiated change.
func (s *AuditService) RecordTx(
	ctx context.Context,
	tx *sql.Tx,
	entityType string,
	entityID uuid.UUID,
	actorID *uuid.UUID,
	action domain.AuditAction,
	changes json.RawMessage,
	metadata json.RawMessage,
) error {
	entry, err := domain.NewAuditEntry(entityType, entityID, actorID, action, changes, metadata)
	if err != nil {
		return fmt.Errorf("failed to build audit entry: %w", err)
	}

	if err := s.auditStore.WithTx(tx).Create(ctx, entry); err != nil {
		return fmt.Errorf("failed to record audit entry: %w", err)
	}
	return nil
}

// Record appends an audit entry outside any caller transaction.
func (s *AuditService) Record(
	ctx context.Context,
	entityType string,
	entityID uuid.UUID,
	actorID *uuid.UUID,
	action domain.AuditAction,
	changes json.RawMessage,
	metadata json.RawMessage,
) error {
	entry, err := domain.NewAuditEntry(entityType, entityID, actorID, action, changes, metadata)
	if err != nil {
		return fmt.Errorf("failed to build audit entry: %w", err)
	}

	if err := s.auditStore.Create(ctx, entry); err != nil {
		return fmt.Errorf("failed to record audit entry: %w", err)
	}
	return nil
}

// ListByEntity retrieves the audit trail for a single entity, newest first.
func (s *AuditService) ListByEntity(
	ctx context.Context,
	entityType string,
	entityID uuid.UUID,
	limit, offset int,
) ([]*domain.AuditEntry, error) {
	entries, err := s.auditStore.ListByEntity(ctx, entityType, entityID, limit, offset)
	if err != nil {
		s.logger.Error("failed to list audit entries for entity",
			"error", err,
			"entity_type", entityType,
			"entity_id", entityID)
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	return entries, nil
}

// ListByActor retrieves the actions performed by a single actor, newest first.
func (s *AuditService) ListByActor(
	ctx context.Context,
	actorID uuid.UUID,
	limit, offset int,
) ([]*domain.AuditEntry, error) {
	entries, err := s.auditStore.ListByActor(ctx, actorID, limit, offset)
	if err != nil {
		s.logger.Error("failed to list audit entries for actor",
			"error", err,
			"actor_id", actorID)
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	return entries, nil
}

// auditChanges marshals a field-change map for the audit log.
func auditChanges(fields map[string]interface{}) (json.RawMessage, error) {
	data, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to encode audit changes: %w", err)
	}
	return data, nil
}

func nowUTC() time.Time {
	return time.Now().UTC()
}
