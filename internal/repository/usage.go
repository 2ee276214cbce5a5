package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmehdipour/sms-panel/internal/errs"
	"github.com/jmehdipour/sms-panel/internal/model"
	"github.com/jmoiron/sqlx"
)

// UsageRepository is the append-only log of delivered messages. A nil
// accountID means every account.
type UsageRepository interface {
	Append(ctx context.Context, entry *model.UsageLogEntry) error
	Count(ctx context.Context, accountID *int64, from, to time.Time) (int64, error)
	CountBuckets(ctx context.Context, accountID *int64, bounds []time.Time) ([]int64, error)
}

type UsageRepositoryImpl struct {
	db *sqlx.DB
}

func NewUsageRepository(db *sqlx.DB) *UsageRepositoryImpl {
	return &UsageRepositoryImpl{db: db}
}

var _ UsageRepository = (*UsageRepositoryImpl)(nil)

// Append writes an entry that is not tied to a campaign contact, as quick
// sends are.
func (r *UsageRepositoryImpl) Append(ctx context.Context, entry *model.UsageLogEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	return insertUsage(ctx, r.db, entry)
}

func insertUsage(ctx context.Context, ex sqlx.ExecerContext, e *model.UsageLogEntry) error {
	res, err := ex.ExecContext(ctx, `
		INSERT INTO usage_logs
		    (account_id, campaign_id, contact_id, phone, message, status, created_at)
		VALUES
		    (?,          ?,           ?,          ?,     ?,       ?,      ?)
	`, e.AccountID, e.CampaignID, e.ContactID, e.Phone, e.Message, e.Status.String(), toMillis(e.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return errs.ErrDuplicate
		}
		return errs.Store("insert usage log", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return errs.Store("insert usage log", err)
	}
	e.ID = id
	return nil
}

// Count returns the number of entries with from <= created_at < to.
func (r *UsageRepositoryImpl) Count(ctx context.Context, accountID *int64, from, to time.Time) (int64, error) {
	q := `SELECT COUNT(*) FROM usage_logs WHERE created_at >= ? AND created_at < ?`
	args := []any{toMillis(from), toMillis(to)}
	if accountID != nil {
		q += ` AND account_id = ?`
		args = append(args, *accountID)
	}
	var n int64
	if err := r.db.GetContext(ctx, &n, q, args...); err != nil {
		return 0, errs.Store("count usage", err)
	}
	return n, nil
}

// CountBuckets counts entries per half-open interval [bounds[i], bounds[i+1])
// in one pass over the window. bounds must be ascending. The caller picks the
// bounds, so calendar days can follow any time zone, DST included.
func (r *UsageRepositoryImpl) CountBuckets(ctx context.Context, accountID *int64, bounds []time.Time) ([]int64, error) {
	if len(bounds) < 2 {
		return nil, nil
	}
	n := len(bounds) - 1

	var sb strings.Builder
	args := make([]any, 0, 2*n+3)
	sb.WriteString(`SELECT `)
	for i := 0; i < n; i++ {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "COALESCE(SUM(CASE WHEN created_at >= ? AND created_at < ? THEN 1 ELSE 0 END), 0) AS b%d", i)
		args = append(args, toMillis(bounds[i]), toMillis(bounds[i+1]))
	}
	sb.WriteString(` FROM usage_logs WHERE created_at >= ? AND created_at < ?`)
	args = append(args, toMillis(bounds[0]), toMillis(bounds[n]))
	if accountID != nil {
		sb.WriteString(` AND account_id = ?`)
		args = append(args, *accountID)
	}

	counts := make([]int64, n)
	dest := make([]any, n)
	for i := range counts {
		dest[i] = &counts[i]
	}
	if err := r.db.QueryRowxContext(ctx, sb.String(), args...).Scan(dest...); err != nil {
		return nil, errs.Store("count usage buckets", err)
	}
	return counts, nil
}
