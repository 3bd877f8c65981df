package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhub/taskhub-api/internal/store"
)

// mockResult implements sql.Result for testing
type mockResult struct {
	lastInsertId int64
	rowsAffected int64
	err          error
}

func (m mockResult) LastInsertId() (int64, error) {
	return m.lastInsertId, nil
}

func (m mockResult) RowsAffected() (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	return m.rowsAffected, nil
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		expectedError error
	}{
		{
			name:          "nil_error",
			err:           nil,
			expectedError: nil,
		},
		{
			name:          "sql_no_rows",
			err:           sql.ErrNoRows,
			expectedError: store.ErrNotFound,
		},
		{
			name:          "unique_violation",
			err:           &pgconn.PgError{Code: uniqueViolationCode},
			expectedError: store.ErrDuplicate,
		},
		{
			name:          "foreign_key_violation",
			err:           &pgconn.PgError{Code: foreignKeyViolationCode, ConstraintName: "tasks_workspace_id_fkey"},
			expectedError: store.ErrForeignKey,
		},
		{
			name:          "check_violation",
			err:           &pgconn.PgError{Code: checkViolationCode, ConstraintName: "tasks_status_check"},
			expectedError: store.ErrInvalidEntity,
		},
		{
			name:          "not_null_violation",
			err:           &pgconn.PgError{Code: notNullViolationCode, ColumnName: "email"},
			expectedError: store.ErrInvalidEntity,
		},
		{
			name:          "unmapped_error_passes_through",
			err:           errors.New("connection reset"),
			expectedError: nil, // compared directly below
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := MapError(tc.err)

			if tc.err == nil {
				assert.Nil(t, result)
				return
			}

			if tc.expectedError == nil {
				// Unmapped errors come back unchanged
				assert.Equal(t, tc.err, result)
				return
			}

			assert.ErrorIs(t, result, tc.expectedError)
		})
	}
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(&pgconn.PgError{Code: uniqueViolationCode}))
	assert.True(t, IsUniqueViolation(fmt.Errorf("wrapped: %w", &pgconn.PgError{Code: uniqueViolationCode})))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: foreignKeyViolationCode}))
	assert.False(t, IsUniqueViolation(errors.New("some error")))
	assert.False(t, IsUniqueViolation(nil))
}

func TestIsForeignKeyViolation(t *testing.T) {
	assert.True(t, IsForeignKeyViolation(&pgconn.PgError{Code: foreignKeyViolationCode}))
	assert.False(t, IsForeignKeyViolation(&pgconn.PgError{Code: uniqueViolationCode}))
	assert.False(t, IsForeignKeyViolation(nil))
}

func TestIsNotFoundError(t *testing.T) {
	assert.True(t, IsNotFoundError(sql.ErrNoRows))
	assert.True(t, IsNotFoundError(store.ErrNotFound))
	assert.True(t, IsNotFoundError(store.ErrTaskNotFound))
	assert.False(t, IsNotFoundError(store.ErrDuplicate))
	assert.False(t, IsNotFoundError(nil))
}

func TestCheckRowsAffected(t *testing.T) {
	t.Run("rows_affected", func(t *testing.T) {
		err := CheckRowsAffected(mockResult{rowsAffected: 1}, "task")
		assert.NoError(t, err)
	})

	t.Run("no_rows_affected", func(t *testing.T) {
		err := CheckRowsAffected(mockResult{rowsAffected: 0}, "task")
		require.Error(t, err)
		assert.ErrorIs(t, err, store.ErrNotFound)
		assert.Contains(t, err.Error(), "task not found")
	})

	t.Run("no_rows_affected_without_entity_name", func(t *testing.T) {
		err := CheckRowsAffected(mockResult{rowsAffected: 0}, "")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("rows_affected_error", func(t *testing.T) {
		err := CheckRowsAffected(mockResult{err: errors.New("driver error")}, "task")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to get rows affected")
	})

	t.Run("nil_result", func(t *testing.T) {
		err := CheckRowsAffected(nil, "task")
		assert.Error(t, err)
	})
}

func TestMapUniqueViolation(t *testing.T) {
	pgErr := &pgconn.PgError{Code: uniqueViolationCode}

	err := MapUniqueViolation(pgErr, store.ErrEmailExists)
	assert.ErrorIs(t, err, store.ErrEmailExists)

	// Non-unique violations pass through unchanged
	other := errors.New("not a violation")
	assert.Equal(t, other, MapUniqueViolation(other, store.ErrEmailExists))
}
