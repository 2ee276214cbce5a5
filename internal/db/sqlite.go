package db

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

func init() {
	// modernc registers as "sqlite"; sqlx only knows "sqlite3" out of the box.
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// NewSQLiteConnection opens an embedded database file, creating its parent
// directory when needed. SQLite allows a single writer, so the pool is
// pinned to one connection.
func NewSQLiteConnection(path string) (*sqlx.DB, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("empty SQLite path")
	}
	cleanPath := filepath.Clean(path)
	if dir := filepath.Dir(cleanPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}

	dsn := cleanPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}
