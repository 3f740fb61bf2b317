// Package testutil provides test utilities and helpers.
package testutil

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"exitviz/internal/models"
	"exitviz/internal/storage"
)

// ExitInserter is satisfied by both record source backends.
type ExitInserter interface {
	InsertExit(ctx context.Context, e *models.ExitRow) error
}

// TestSQLite opens a migrated SQLite record source in a temp directory.
// It is closed when the test finishes.
func TestSQLite(t *testing.T) *storage.SQLiteRepository {
	t.Helper()

	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "exitviz_test.db"))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	return repo
}

// Date returns midnight UTC on the given day.
func Date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// CreateTestExit inserts an exit and returns it with its assigned id.
func CreateTestExit(t *testing.T, database ExitInserter, date time.Time, destination string) models.ExitRow {
	t.Helper()

	e := models.ExitRow{DateOfExit: date, ExitDestination: destination}
	if err := database.InsertExit(context.Background(), &e); err != nil {
		t.Fatalf("failed to create test exit: %v", err)
	}

	return e
}
