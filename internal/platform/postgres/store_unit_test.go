package postgres

import (
	"database/sql"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"
)

func TestNewPostgresUserStore(t *testing.T) {
	tests := []struct {
		name         string
		bcryptCost   int
		expectedCost int
	}{
		{
			name:         "zero_cost_uses_default",
			bcryptCost:   0,
			expectedCost: bcrypt.DefaultCost,
		},
		{
			name:         "cost_below_min_uses_default",
			bcryptCost:   bcrypt.MinCost - 1,
			expectedCost: bcrypt.DefaultCost,
		},
		{
			name:         "cost_above_max_uses_default",
			bcryptCost:   bcrypt.MaxCost + 1,
			expectedCost: bcrypt.DefaultCost,
		},
		{
			name:         "valid_cost_is_kept",
			bcryptCost:   12,
			expectedCost: 12,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := NewPostgresUserStore(&sql.DB{}, nil, tc.bcryptCost)
			assert.NotNil(t, s)
			assert.Equal(t, tc.expectedCost, s.bcryptCost)
			assert.NotNil(t, s.logger, "nil logger should fall back to a default")
		})
	}
}

func TestNewStoresPanicOnNilDB(t *testing.T) {
	logger := slog.Default()

	assert.Panics(t, func() { NewPostgresUserStore(nil, logger, bcrypt.DefaultCost) })
	assert.Panics(t, func() { NewPostgresWorkspaceStore(nil, logger) })
	assert.Panics(t, func() { NewPostgresTaskStore(nil, logger) })
	assert.Panics(t, func() { NewPostgresCommentStore(nil, logger) })
	assert.Panics(t, func() { NewPostgresNotificationStore(nil, logger) })
	assert.Panics(t, func() { NewPostgresAuditStore(nil, logger) })
}

func TestNewStoresNilLoggerDefaults(t *testing.T) {
	db := &sql.DB{}

	assert.NotNil(t, NewPostgresWorkspaceStore(db, nil))
	assert.NotNil(t, NewPostgresTaskStore(db, nil))
	assert.NotNil(t, NewPostgresCommentStore(db, nil))
	assert.NotNil(t, NewPostgresNotificationStore(db, nil))
	assert.NotNil(t, NewPostgresAuditStore(db, nil))
}
