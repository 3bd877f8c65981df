package domain

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrEmptyAuditID         = errors.New("audit entry ID cannot be empty")
	ErrEmptyAuditEntityType = errors.New("audit entity type cannot be empty")
	ErrEmptyAuditEntityID   = errors.New("audit entity ID cannot be empty")
	ErrInvalidAuditAction   = errors.New("invalid audit action")
)

// AuditAction describes the kind of change an audit entry records.
type AuditAction string

const (
	AuditCreate AuditAction = "create"
	AuditUpdate AuditAction = "update"
	AuditDelete AuditAction = "delete"
)

// IsValid reports whether the action is one of the known values.
func (a AuditAction) IsValid() bool {
	switch a {
	case AuditCreate, AuditUpdate, AuditDelete:
		return true
	}
	return false
}

// AuditEntry is an append-only record of a mutation to some entity.
// Entries are never updated or deleted once written.
type AuditEntry struct {
	ID         uuid.UUID       `json:"id"`
	EntityType string          `json:"entity_type"`
	EntityID   uuid.UUID       `json:"entity_id"`
	ActorID    *uuid.UUID      `json:"actor_id,omitempty"` // nil for system actions
	Action     AuditAction     `json:"action"`
	Changes    json.RawMessage `json:"changes,omitempty"`  // field -> {old, new}
	Metadata   json.RawMessage `json:"metadata,omitempty"` // request context
	CreatedAt  time.Time       `json:"created_at"`
}

// NewAuditEntry creates an AuditEntry for a mutation performed by actorID.
// Pass a nil actorID for system-initiated changes. Returns an error if
// validation fails.
func NewAuditEntry(entityType string, entityID uuid.UUID, actorID *uuid.UUID, action AuditAction, changes, metadata json.RawMessage) (*AuditEntry, error) {
	e := &AuditEntry{
		ID:         uuid.New(),
		EntityType: entityType,
		EntityID:   entityID,
		ActorID:    actorID,
		Action:     action,
		Changes:    changes,
		Metadata:   metadata,
		CreatedAt:  time.Now().UTC(),
	}

	if err := e.Validate(); err != nil {
		return nil, err
	}

	return e, nil
}

// Validate checks if the AuditEntry has valid data.
func (e *AuditEntry) Validate() error {
	if e.ID == uuid.Nil {
		return ErrEmptyAuditID
	}
	if e.EntityType == "" {
		return ErrEmptyAuditEntityType
	}
	if e.EntityID == uuid.Nil {
		return ErrEmptyAuditEntityID
	}
	if !e.Action.IsValid() {
		return ErrInvalidAuditAction
	}
	return nil
}
