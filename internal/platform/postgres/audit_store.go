package postgres

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/google/uuid"
	"github.com/taskhub/taskhub-api/internal/domain"
	"github.com/taskhub/taskhub-api/internal/platform/logger"
	"github.com/taskhub/taskhub-api/internal/store"
)

// PostgresAuditStore implements the store.AuditStore interface
// using a PostgreSQL database as the storage backend.
// The audit_entries table is append-only: rows are never updated or deleted,
// and actor references are kept even after the actor's account is removed.
type PostgresAuditStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresAuditStore creates a new PostgreSQL implementation of the AuditStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresAuditStore(db store.DBTX, logger *slog.Logger) *PostgresAuditStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresAuditStore{
		db:     db,
		logger: logger.With(slog.String("component", "audit_store")),
	}
}

// Ensure PostgresAuditStore implements store.AuditStore interface
var _ store.AuditStore = (*PostgresAuditStore)(nil)

// Create implements store.AuditStore.Create
// It appends a new audit entry.
func (s *PostgresAuditStore) Create(ctx context.Context, entry *domain.AuditEntry) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := entry.Validate(); err != nil {
		log.Warn("audit entry validation failed",
			slog.String("error", err.Error()),
			slog.String("entry_id", entry.ID.String()))
		return err
	}

	query := `
		INSERT INTO audit_entries (id, entity_type, entity_id, actor_id, action, changes, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		entry.ID,
		entry.EntityType,
		entry.EntityID,
		entry.ActorID,
		entry.Action,
		[]byte(entry.Changes),
		[]byte(entry.Metadata),
		entry.CreatedAt,
	)

	if err != nil {
		log.Error("failed to create audit entry",
			slog.String("error", err.Error()),
			slog.String("entry_id", entry.ID.String()),
			slog.String("entity_type", entry.EntityType))
		return err
	}

	log.Debug("audit entry created",
		slog.String("entry_id", entry.ID.String()),
		slog.String("entity_type", entry.EntityType),
		slog.String("action", string(entry.Action)))
	return nil
}

// ListByEntity implements store.AuditStore.ListByEntity
// It retrieves the audit trail for a single entity, newest first.
func (s *PostgresAuditStore) ListByEntity(
	ctx context.Context,
	entityType string,
	entityID uuid.UUID,
	limit, offset int,
) ([]*domain.AuditEntry, error) {
	query := `
		SELECT id, entity_type, entity_id, actor_id, action, changes, metadata, created_at
		FROM audit_entries
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at DESC, id DESC
		LIMIT $3 OFFSET $4
	`
	return s.listEntries(ctx, query, entityType, entityID, normalizeLimit(limit), normalizeOffset(offset))
}

// ListByActor implements store.AuditStore.ListByActor
// It retrieves the actions performed by a single actor, newest first.
func (s *PostgresAuditStore) ListByActor(
	ctx context.Context,
	actorID uuid.UUID,
	limit, offset int,
) ([]*domain.AuditEntry, error) {
	query := `
		SELECT id, entity_type, entity_id, actor_id, action, changes, metadata, created_at
		FROM audit_entries
		WHERE actor_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`
	return s.listEntries(ctx, query, actorID, normalizeLimit(limit), normalizeOffset(offset))
}

// listEntries runs an audit query and scans the result set.
func (s *PostgresAuditStore) listEntries(ctx context.Context, query string, args ...any) ([]*domain.AuditEntry, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query audit entries",
			slog.String("error", err.Error()))
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	var entries []*domain.AuditEntry
	for rows.Next() {
		var entry domain.AuditEntry
		var actorID uuid.NullUUID
		var action string
		var changes, metadata []byte

		err := rows.Scan(
			&entry.ID,
			&entry.EntityType,
			&entry.EntityID,
			&actorID,
			&action,
			&changes,
			&metadata,
			&entry.CreatedAt,
		)
		if err != nil {
			log.Error("failed to scan audit entry row",
				slog.String("error", err.Error()))
			return nil, err
		}

		if actorID.Valid {
			entry.ActorID = &actorID.UUID
		}
		entry.Action = domain.AuditAction(action)
		entry.Changes = changes
		entry.Metadata = metadata
		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows",
			slog.String("error", err.Error()))
		return nil, err
	}

	// Return empty slice instead of nil
	if entries == nil {
		entries = []*domain.AuditEntry{}
	}

	log.Debug("listed audit entries", slog.Int("count", len(entries)))
	return entries, nil
}

// WithTx implements store.AuditStore.WithTx
func (s *PostgresAuditStore) WithTx(tx *sql.Tx) store.AuditStore {
	return &PostgresAuditStore{
		db:     tx,
		logger: s.logger,
	}
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return 10
	}
	return limit
}

func normalizeOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}
