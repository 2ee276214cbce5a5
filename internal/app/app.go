// Package app wires the store, the delivery channel and the services from
// config. The server, the workers and the maintenance commands share it.
package app

import (
	"fmt"

	"github.com/jmehdipour/sms-panel/internal/config"
	"github.com/jmehdipour/sms-panel/internal/db"
	"github.com/jmehdipour/sms-panel/internal/dispatcher"
	"github.com/jmehdipour/sms-panel/internal/ingest"
	"github.com/jmehdipour/sms-panel/internal/repository"
	"github.com/jmehdipour/sms-panel/internal/service/accounts"
	"github.com/jmehdipour/sms-panel/internal/service/campaign"
	"github.com/jmehdipour/sms-panel/internal/service/stats"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

type App struct {
	DB        *sqlx.DB
	Campaigns *repository.CampaignsRepositoryImpl
	Accounts  *accounts.Service
	Engine    *campaign.Engine
	Stats     *stats.Service
}

// Open connects to the primary store and builds the services on top of it.
func Open(cfg config.Config, log *zap.Logger) (*App, error) {
	sqlDB, err := db.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("store connect: %w", err)
	}
	a, err := Build(cfg, sqlDB, log)
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return a, nil
}

// Build wires the services over an already opened store.
func Build(cfg config.Config, sqlDB *sqlx.DB, log *zap.Logger) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}
	channel, err := dispatcher.New(&cfg, log)
	if err != nil {
		return nil, fmt.Errorf("delivery channel: %w", err)
	}

	accountsRepo := repository.NewAccountsRepository(sqlDB)
	campaignsRepo := repository.NewCampaignsRepository(sqlDB)
	usageRepo := repository.NewUsageRepository(sqlDB)
	ledger := repository.NewLedgerRepository(sqlDB)

	engine := campaign.New(campaign.Deps{
		Campaigns: campaignsRepo,
		Contacts:  repository.NewContactsRepository(sqlDB),
		Usage:     usageRepo,
		Ledger:    ledger,
		Channel:   channel,
		Log:       log.Named("engine"),
	}, campaign.Options{
		SendTimeout: cfg.Dispatcher.SendTimeout,
		Ingest: ingest.Options{
			PhoneColumn: cfg.Ingest.PhoneColumn,
			Dedupe:      cfg.Ingest.Dedupe,
			Normalize:   cfg.Ingest.NormalizePhone,
		},
	})

	return &App{
		DB:        sqlDB,
		Campaigns: campaignsRepo,
		Accounts:  accounts.New(accountsRepo, ledger, log.Named("accounts")),
		Engine:    engine,
		Stats:     stats.New(accountsRepo, usageRepo, ledger, cfg.Stats.Location(), cfg.Stats.SeriesDays),
	}, nil
}

func (a *App) Close() error { return a.DB.Close() }
