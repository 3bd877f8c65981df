package main

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhub/taskhub-api/internal/config"
	"github.com/taskhub/taskhub-api/internal/domain"
	"github.com/taskhub/taskhub-api/internal/mocks"
)

func seedConfig(email string) *config.Config {
	return &config.Config{
		Auth: config.AuthConfig{
			SuperuserEmail:    email,
			SuperuserPassword: "a-long-secure-password",
			SuperuserName:     "Site Admin",
		},
	}
}

func TestSeedSuperuser(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("creates admin account when missing", func(t *testing.T) {
		t.Parallel()

		users := mocks.NewMockUserStore()
		err := seedSuperuser(context.Background(), seedConfig("admin@example.com"), users, logger)
		require.NoError(t, err)

		require.Len(t, users.Users, 1)
		for _, u := range users.Users {
			assert.Equal(t, "admin@example.com", u.Email)
			assert.Equal(t, "Site Admin", u.Name)
			assert.True(t, u.IsAdmin)
		}
	})

	t.Run("no-op when already seeded", func(t *testing.T) {
		t.Parallel()

		users := mocks.NewMockUserStore()
		existing, err := domain.NewUser("admin@example.com", "Site Admin", "a-long-secure-password")
		require.NoError(t, err)
		existing.IsAdmin = true
		users.Users[existing.ID] = existing

		err = seedSuperuser(context.Background(), seedConfig("admin@example.com"), users, logger)
		require.NoError(t, err)
		assert.Len(t, users.Users, 1)
	})

	t.Run("skipped when unconfigured", func(t *testing.T) {
		t.Parallel()

		users := mocks.NewMockUserStore()
		err := seedSuperuser(context.Background(), seedConfig(""), users, logger)
		require.NoError(t, err)
		assert.Empty(t, users.Users)
	})

	t.Run("rejects invalid credentials", func(t *testing.T) {
		t.Parallel()

		cfg := seedConfig("admin@example.com")
		cfg.Auth.SuperuserPassword = "short"

		users := mocks.NewMockUserStore()
		err := seedSuperuser(context.Background(), cfg, users, logger)
		require.Error(t, err)
		assert.Empty(t, users.Users)
	})
}

func TestRunMigrationsRejectsUnknownCommand(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	err := runMigrations(nil, "sideways", logger)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown migration command")
}
