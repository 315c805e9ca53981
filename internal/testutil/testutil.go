// Package testutil provides shared test helpers for setting up stores,
// services and markdown directories.
package testutil

import (
	"log/slog"
	"os"
	"testing"

	"github.com/starford/lumina/internal/index"
	"github.com/starford/lumina/internal/noteservice"
	"github.com/starford/lumina/internal/storage"
)

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "lumina-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestService returns a note service over a fresh TestDB.
func TestService(t *testing.T, opts ...noteservice.Option) *noteservice.Service {
	t.Helper()
	return noteservice.NewService(TestDB(t), opts...)
}

// TestDir creates a temporary markdown directory with a storage.Provider.
func TestDir(t *testing.T) (string, storage.Provider) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}

// QuietLogger returns a logger that only prints errors.
func QuietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}
