package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/taskhub/taskhub-api/internal/config"
	"github.com/taskhub/taskhub-api/internal/domain"
	"github.com/taskhub/taskhub-api/internal/store"
)

// seedSuperuser creates the initial admin account from configuration if it
// does not already exist. Skipped entirely when no superuser email is
// configured.
func seedSuperuser(
	ctx context.Context,
	cfg *config.Config,
	userStore store.UserStore,
	logger *slog.Logger,
) error {
	if cfg.Auth.SuperuserEmail == "" {
		return nil
	}

	existing, err := userStore.GetByEmail(ctx, cfg.Auth.SuperuserEmail)
	if err != nil && !errors.Is(err, store.ErrUserNotFound) {
		return fmt.Errorf("failed to look up superuser: %w", err)
	}
	if existing != nil {
		if !existing.IsAdmin {
			logger.Warn("Configured superuser exists without the admin flag",
				"user_id", existing.ID)
		}
		return nil
	}

	name := cfg.Auth.SuperuserName
	if name == "" {
		name = "Administrator"
	}

	user, err := domain.NewUser(cfg.Auth.SuperuserEmail, name, cfg.Auth.SuperuserPassword)
	if err != nil {
		return fmt.Errorf("invalid superuser configuration: %w", err)
	}
	user.IsAdmin = true

	if err := userStore.Create(ctx, user); err != nil {
		// A concurrent replica may have seeded it first.
		if errors.Is(err, store.ErrEmailExists) {
			return nil
		}
		return fmt.Errorf("failed to create superuser: %w", err)
	}

	logger.Info("Superuser account seeded", "user_id", user.ID)
	return nil
}
