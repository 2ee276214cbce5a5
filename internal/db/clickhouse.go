package db

import (
	"time"

	_ "github.com/ClickHouse/clickhouse-go/v2"
	"github.com/jmoiron/sqlx"
)

// NewClickHouseConnection opens the analytics read model holding the
// replicated usage log, e.g.
// clickhouse://default:@localhost:9000/smspanel?dial_timeout=5s&compress=true.
// An empty DSN means analytics are disabled and yields (nil, nil).
func NewClickHouseConnection(dsn string, opts PoolOpts) (*sqlx.DB, error) {
	if dsn == "" {
		return nil, nil
	}
	return openPool("clickhouse", dsn, opts, 3*time.Second)
}
