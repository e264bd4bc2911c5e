package testutil

import (
	"testing"

	"taggivm/internal/catalog"
	"taggivm/internal/database"
	"taggivm/internal/database/seed"
)

// NewTestDatabase creates an in-memory catalog with schema and static data applied.
// The database is automatically closed when the test completes.
func NewTestDatabase(t *testing.T, clock catalog.Clock) catalog.Database {
	t.Helper()

	data, err := seed.Default()
	if err != nil {
		t.Fatalf("loading static data: %v", err)
	}

	db, err := database.Initialize(database.MemoryPath, data, clock)
	if err != nil {
		t.Fatalf("failed to initialize database: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}
