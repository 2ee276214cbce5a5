package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
)

// UsageDay is one row of the analytics usage report.
type UsageDay struct {
	Day       time.Time `db:"day" json:"day"`
	AccountID int64     `db:"account_id" json:"account_id"`
	Sent      uint64    `db:"sent" json:"sent"`
}

// CHUsageRepository reads the usage log replica kept in ClickHouse.
type CHUsageRepository interface {
	DailyUsage(ctx context.Context, accountID *int64, from, to time.Time, limit, offset int) ([]UsageDay, error)
}

type chUsageRepository struct {
	ch *sqlx.DB // ClickHouse connection
}

func NewCHUsageRepository(ch *sqlx.DB) CHUsageRepository {
	return &chUsageRepository{ch: ch}
}

func (r *chUsageRepository) DailyUsage(ctx context.Context, accountID *int64, from, to time.Time, limit, offset int) ([]UsageDay, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	q := `
		SELECT toDate(fromUnixTimestamp64Milli(created_at)) AS day,
		       account_id,
		       count() AS sent
		FROM smspanel.usage_logs
		WHERE created_at >= ? AND created_at < ?
	`
	args := []any{toMillis(from), toMillis(to)}

	if accountID != nil {
		q += " AND account_id = ?"
		args = append(args, *accountID)
	}

	q += " GROUP BY day, account_id ORDER BY day DESC, account_id LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	var rows []UsageDay
	if err := r.ch.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, err
	}
	return rows, nil
}
