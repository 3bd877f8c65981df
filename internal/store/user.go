package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/taskhub/taskhub-api/internal/domain"
)

// UserStore defines the interface for user data persistence.
type UserStore interface {
	// Create saves a new user. Domain validation and password hashing
	// happen inside the store; the plaintext Password field is cleared
	// once hashed. Returns ErrEmailExists if the email is taken.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by ID, or ErrUserNotFound.
	// The plaintext password is never populated on reads.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// GetByEmail retrieves a user by email address, or ErrUserNotFound.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// List retrieves users ordered by creation time, newest first.
	// Returns an empty slice if no users exist in the requested window.
	List(ctx context.Context, limit, offset int) ([]*domain.User, error)

	// Update replaces an existing user's row. The caller must pass a
	// complete user including HashedPassword; a non-empty plaintext
	// Password is hashed and replaces the stored hash. Returns
	// ErrUserNotFound or ErrEmailExists as appropriate.
	Update(ctx context.Context, user *domain.User) error

	// Delete removes a user from the store by their ID.
	// Owned tasks, comments, notifications, and memberships cascade;
	// task assignments pointing at the user are cleared.
	// Returns ErrUserNotFound if the user does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns a UserStore bound to the given transaction, for use
	// inside RunInTransaction blocks managed by a service.
	WithTx(tx *sql.Tx) UserStore
}
