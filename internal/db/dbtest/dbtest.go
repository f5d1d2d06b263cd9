// Package dbtest opens migrated SQLite databases for package tests.
package dbtest

import (
	"context"
	"database/sql"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/Simplici0/printops/internal/db"
	"github.com/Simplici0/printops/internal/migrations"
)

// MigrationsDir returns the repository's migrations directory.
func MigrationsDir() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "..", "migrations")
}

// Open returns a fresh database in a temp dir with every migration applied.
// The database is closed when the test ends.
func Open(t *testing.T) *sql.DB {
	t.Helper()

	database, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open sqlite database: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })

	if _, err := migrations.Up(context.Background(), database, MigrationsDir()); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	return database
}

// Exec runs a statement and fails the test on error.
func Exec(t *testing.T, database *sql.DB, query string, args ...any) sql.Result {
	t.Helper()

	result, err := database.Exec(query, args...)
	if err != nil {
		t.Fatalf("exec %q: %v", query, err)
	}
	return result
}
