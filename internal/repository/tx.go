package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmehdipour/sms-panel/internal/errs"
	"github.com/jmoiron/sqlx"
)

// withTx runs fn inside a transaction, rolling back unless fn and the
// commit both succeed.
func withTx(ctx context.Context, db *sqlx.DB, fn func(*sqlx.Tx) error) error {
	t, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return errs.Store("begin tx", err)
	}
	defer func() { _ = t.Rollback() }()

	if err := fn(t); err != nil {
		return err
	}

	return errs.Store("commit tx", t.Commit())
}

// Timestamps are persisted as unix milliseconds so MySQL and SQLite compare
// them the same way.
func toMillis(t time.Time) int64 { return t.UTC().UnixMilli() }

func fromMillis(ms int64) time.Time { return time.UnixMilli(ms).UTC() }

func isUniqueViolation(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1062
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
