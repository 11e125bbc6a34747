// internal/store/sqlite/store_test.go
package sqlite

import (
	"log"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shrimpsizemoose/cgpacalc/internal/store/storetest"
)

// setupTestDB creates an in-memory SQLite database with the real migrations applied
func setupTestDB(t *testing.T) (*SQLiteStore, func()) {
	s, err := NewSQLiteStore(":memory:", "../../../migrations")
	require.NoError(t, err, "Failed to create store")

	cleanup := func() {
		err := s.Close()
		require.NoError(t, err, "Failed to close database")
	}

	return s, cleanup
}

func TestMain(m *testing.M) {
	log.Println("Starting SQLite store tests...")
	code := m.Run()
	log.Println("Finished SQLite store tests")
	os.Exit(code)
}

func TestUsers(t *testing.T) {
	s, cleanup := setupTestDB(t)
	defer cleanup()

	storetest.RunUsers(t, s)
}

func TestSessions(t *testing.T) {
	s, cleanup := setupTestDB(t)
	defer cleanup()

	storetest.RunSessions(t, s)
}

func TestMigrationsAreIdempotent(t *testing.T) {
	s, cleanup := setupTestDB(t)
	defer cleanup()

	require.NoError(t, s.ApplyMigrations("../../../migrations"))
}

func TestTranslateToSQLite(t *testing.T) {
	in := "CREATE TABLE x (id BIGSERIAL, ts BIGINT NOT NULL DEFAULT 0, ok BOOLEAN DEFAULT TRUE)"
	out := translateToSQLite(in)

	assert.Equal(t, "CREATE TABLE x (id INTEGER PRIMARY KEY AUTOINCREMENT, ts INTEGER NOT NULL DEFAULT 0, ok BOOLEAN DEFAULT 1)", out)
}
