package database

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// NewTestDB creates an in-memory SQLite database for testing.
// The database is automatically closed when the test completes.
func NewTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(":memory:", nil)
	require.NoError(t, err, "failed to create test database")

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// CreateTestSession creates a session for tests that need one
func CreateTestSession(t *testing.T, db *DB) *Session {
	t.Helper()

	session, err := db.CreateSession()
	require.NoError(t, err, "failed to create test session")
	return session
}
