// Package testutils provides shared helpers for integration tests. The
// primary pattern is transaction isolation: each test runs inside a
// transaction that is rolled back on cleanup, so tests can run in parallel
// against the same database without interfering with each other.
package testutils

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/require"
)

// migrationsOnce ensures migrations run at most once per test binary.
var migrationsOnce sync.Once

// IsIntegrationTestEnvironment reports whether a test database is
// configured. Integration tests should skip when this is false.
func IsIntegrationTestEnvironment() bool {
	return os.Getenv("DATABASE_URL") != ""
}

// GetTestDB opens a connection to the test database named by DATABASE_URL,
// applies migrations, and registers cleanup. Skips the test when no test
// database is configured.
func GetTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("Skipping integration test - requires DATABASE_URL environment variable")
	}

	db, err := sql.Open("pgx", dbURL)
	require.NoError(t, err, "failed to open test database")
	require.NoError(t, db.Ping(), "failed to ping test database")

	var migrateErr error
	migrationsOnce.Do(func() {
		migrateErr = applyMigrations(db)
	})
	require.NoError(t, migrateErr, "failed to apply migrations")

	t.Cleanup(func() {
		_ = db.Close()
	})
	return db
}

// WithTx runs fn inside a transaction that is always rolled back, so the
// test leaves no trace in the database.
func WithTx(t *testing.T, db *sql.DB, fn func(t *testing.T, tx *sql.Tx)) {
	t.Helper()

	tx, err := db.Begin()
	require.NoError(t, err, "failed to begin transaction")
	defer func() {
		_ = tx.Rollback()
	}()

	fn(t, tx)
}

func applyMigrations(db *sql.DB) error {
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	root, err := findProjectRoot()
	if err != nil {
		return err
	}
	return goose.Up(db, filepath.Join(root, "migrations"))
}

// findProjectRoot walks up from this file looking for go.mod.
func findProjectRoot() (string, error) {
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		return "", fmt.Errorf("failed to determine caller location")
	}

	dir := filepath.Dir(file)
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("go.mod not found above %s", filepath.Dir(file))
		}
		dir = parent
	}
}
