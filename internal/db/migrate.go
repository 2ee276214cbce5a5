package db

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

//go:embed migrations
var migrationsFS embed.FS

const migrationTable = "schema_migrations"

// Migrate applies the embedded migrations for driver ("mysql" | "sqlite"),
// each file at most once.
func Migrate(ctx context.Context, db *sqlx.DB, driver string) error {
	if db == nil {
		return fmt.Errorf("sql db is required")
	}
	if driver == "" {
		driver = "mysql"
	}

	root := path.Join("migrations", driver)
	entries, err := fs.ReadDir(migrationsFS, root)
	if err != nil {
		return fmt.Errorf("read migrations dir %s: %w", root, err)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	createSQL := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (name VARCHAR(255) PRIMARY KEY, applied_at BIGINT NOT NULL)`, migrationTable)
	if _, err := db.ExecContext(ctx, createSQL); err != nil {
		return fmt.Errorf("ensure migration table: %w", err)
	}

	for _, file := range files {
		var n int
		if err := db.GetContext(ctx, &n, `SELECT COUNT(*) FROM `+migrationTable+` WHERE name = ?`, file); err != nil {
			return fmt.Errorf("check migration %s: %w", file, err)
		}
		if n > 0 {
			continue
		}

		content, err := fs.ReadFile(migrationsFS, path.Join(root, file))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", file, err)
		}

		// MySQL commits DDL implicitly, so statements run one by one and the
		// file is only recorded once all of them succeeded.
		for _, stmt := range splitStatements(string(content)) {
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("exec migration %s: %w", file, err)
			}
		}

		if _, err := db.ExecContext(ctx,
			`INSERT INTO `+migrationTable+` (name, applied_at) VALUES (?, ?)`,
			file, time.Now().UTC().UnixMilli(),
		); err != nil {
			return fmt.Errorf("record migration %s: %w", file, err)
		}
	}

	return nil
}

func splitStatements(sql string) []string {
	parts := strings.Split(sql, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
