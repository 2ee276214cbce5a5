package db

import (
	"fmt"

	"github.com/jmehdipour/sms-panel/internal/config"
	"github.com/jmoiron/sqlx"
)

// Open connects to the primary store selected by cfg.Store.Driver.
func Open(cfg config.Config) (*sqlx.DB, error) {
	switch cfg.Store.Driver {
	case "", "mysql":
		return NewMySQLConnection(cfg.MySQL.DSN, PoolOptsFrom(cfg.MySQL))
	case "sqlite":
		return NewSQLiteConnection(cfg.SQLite.Path)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
