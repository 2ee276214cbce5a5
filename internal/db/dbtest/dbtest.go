// Package dbtest provides throwaway SQLite databases for package tests.
package dbtest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jmehdipour/sms-panel/internal/db"
	"github.com/jmoiron/sqlx"
)

// Open returns a migrated SQLite database living in t's temp dir.
func Open(t testing.TB) *sqlx.DB {
	t.Helper()

	sqlDB, err := db.NewSQLiteConnection(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.Migrate(context.Background(), sqlDB, "sqlite"); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return sqlDB
}
