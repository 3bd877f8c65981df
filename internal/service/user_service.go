package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/taskhub/taskhub-api/internal/domain"
	"github.com/taskhub/taskhub-api/internal/store"
)

// UserService provides user-related operations including updates
type UserService interface {
	// GetUser retrieves a user by their ID
	GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error)

	// GetUserByEmail retrieves a user by their email address
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)

	// ListUsers retrieves users ordered by creation time, newest first
	ListUsers(ctx context.Context, limit, offset int) ([]*domain.User, error)

	// CreateUser creates a new user with the specified email, name, and password
	CreateUser(ctx context.Context, email, name, password string) (*domain.User, error)

	// UpdateUserName updates a user's display name
	UpdateUserName(ctx context.Context, userID uuid.UUID, newName string) error

	// UpdateUserPassword updates a user's password
	UpdateUserPassword(ctx context.Context, userID uuid.UUID, newPassword string) error

	// RecordLogin stamps the user's last login time
	RecordLogin(ctx context.Context, userID uuid.UUID) error

	// DeleteUser deletes a user by their ID. Owned tasks, comments,
	// notifications, and memberships cascade; audit entries are retained
	// with a null actor.
	DeleteUser(ctx context.Context, userID uuid.UUID) error
}

// UserServiceImpl implements the UserService interface
type UserServiceImpl struct {
	userStore store.UserStore
	audit     *AuditService
	db        *sql.DB
	logger    *slog.Logger
}

// NewUserService creates a new UserService
func NewUserService(userStore store.UserStore, audit *AuditService, db *sql.DB, logger *slog.Logger) UserService {
	return &UserServiceImpl{
		userStore: userStore,
		audit:     audit,
		db:        db,
		logger:    logger.With("component", "user_service"),
	}
}

// GetUser retrieves a user by their ID
func (s *UserServiceImpl) GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.userStore.GetByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, store.ErrUserNotFound) {
			s.logger.Error("failed to retrieve user",
				"error", err,
				"user_id", userID)
		}
		return nil, fmt.Errorf("failed to retrieve user: %w", err)
	}
	return user, nil
}

// GetUserByEmail retrieves a user by their email address
func (s *UserServiceImpl) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, err := s.userStore.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			s.logger.Debug("user not found by email")
		} else {
			s.logger.Error("failed to retrieve user by email",
				"error", err)
		}
		return nil, fmt.Errorf("failed to retrieve user by email: %w", err)
	}
	return user, nil
}

// ListUsers retrieves users ordered by creation time, newest first
func (s *UserServiceImpl) ListUsers(ctx context.Context, limit, offset int) ([]*domain.User, error) {
	users, err := s.userStore.List(ctx, limit, offset)
	if err != nil {
		s.logger.Error("failed to list users",
			"error", err)
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// CreateUser creates a new user with the specified email, name, and password.
// Uses a transaction so the user row and its audit entry commit together.
func (s *UserServiceImpl) CreateUser(ctx context.Context, email, name, password string) (*domain.User, error) {
	user, err := domain.NewUser(email, name, password)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txStore := s.userStore.WithTx(tx)
		if err := txStore.Create(ctx, user); err != nil {
			return err
		}
		return s.audit.RecordTx(ctx, tx, "user", user.ID, nil, domain.AuditCreate, nil, nil)
	})

	if err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			s.logger.Debug("attempted to create user with existing email")
		} else {
			s.logger.Error("failed to save user",
				"error", err)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("user created",
		"user_id", user.ID)

	return user, nil
}

// UpdateUserName updates a user's display name
func (s *UserServiceImpl) UpdateUserName(ctx context.Context, userID uuid.UUID, newName string) error {
	user, err := s.userStore.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to retrieve user for update: %w", err)
	}

	user.Name = newName
	if err := user.Validate(); err != nil {
		return fmt.Errorf("invalid user data: %w", err)
	}

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txStore := s.userStore.WithTx(tx)
		if err := txStore.Update(ctx, user); err != nil {
			return err
		}
		changes, err := auditChanges(map[string]interface{}{"name": newName})
		if err != nil {
			return err
		}
		return s.audit.RecordTx(ctx, tx, "user", user.ID, &userID, domain.AuditUpdate, changes, nil)
	})
	if err != nil {
		return fmt.Errorf("failed to update user name: %w", err)
	}

	return nil
}

// UpdateUserPassword updates a user's password. The store hashes the
// plaintext before persisting it.
func (s *UserServiceImpl) UpdateUserPassword(ctx context.Context, userID uuid.UUID, newPassword string) error {
	user, err := s.userStore.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to retrieve user for update: %w", err)
	}

	user.Password = newPassword
	if err := user.Validate(); err != nil {
		return fmt.Errorf("invalid password: %w", err)
	}

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txStore := s.userStore.WithTx(tx)
		if err := txStore.Update(ctx, user); err != nil {
			return err
		}
		// Never include password material in the audit changes
		return s.audit.RecordTx(ctx, tx, "user", user.ID, &userID, domain.AuditUpdate, nil, nil)
	})
	if err != nil {
		return fmt.Errorf("failed to update user password: %w", err)
	}

	s.logger.Info("user password updated",
		"user_id", userID)

	return nil
}

// RecordLogin stamps the user's last login time
func (s *UserServiceImpl) RecordLogin(ctx context.Context, userID uuid.UUID) error {
	user, err := s.userStore.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to retrieve user for login stamp: %w", err)
	}

	now := nowUTC()
	user.LastLoginAt = &now
	if err := s.userStore.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to record login: %w", err)
	}
	return nil
}

// DeleteUser deletes a user by their ID
func (s *UserServiceImpl) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txStore := s.userStore.WithTx(tx)
		if err := txStore.Delete(ctx, userID); err != nil {
			return err
		}
		return s.audit.RecordTx(ctx, tx, "user", userID, nil, domain.AuditDelete, nil, nil)
	})
	if err != nil {
		if !errors.Is(err, store.ErrUserNotFound) {
			s.logger.Error("failed to delete user",
				"error", err,
				"user_id", userID)
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}

	s.logger.Info("user deleted",
		"user_id", userID)

	return nil
}
