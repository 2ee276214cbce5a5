package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmehdipour/sms-panel/internal/app"
	"github.com/jmehdipour/sms-panel/internal/config"
	"github.com/jmehdipour/sms-panel/internal/db"
	httpSrv "github.com/jmehdipour/sms-panel/internal/http"
	"github.com/jmehdipour/sms-panel/internal/kafka"
	"github.com/jmehdipour/sms-panel/internal/logger"
	"github.com/jmehdipour/sms-panel/internal/metrics"
	"github.com/jmehdipour/sms-panel/internal/repository"
	"github.com/jmehdipour/sms-panel/internal/service/queue"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		log := logger.Init(cfg.Log)
		defer func() { _ = log.Sync() }()

		metrics.MustRegister(prometheus.DefaultRegisterer)

		a, err := app.Open(cfg, log)
		if err != nil {
			return err
		}
		defer a.Close()

		redisClient, err := db.NewRedisClient(db.RedisOpts{
			Addr:        cfg.Redis.Addr,
			Password:    cfg.Redis.Password,
			DB:          cfg.Redis.DB,
			DialTimeout: cfg.Redis.DialTimeout,
		})
		if err != nil {
			log.Warn("redis unavailable, rate limiting off", zap.Error(err))
		}
		if redisClient != nil {
			defer func() { _ = redisClient.Close() }()
		}

		chDB, err := db.NewClickHouseConnection(cfg.ClickHouse.DSN, db.PoolOptsFrom(cfg.ClickHouse))
		if err != nil {
			log.Warn("clickhouse unavailable, usage reports off", zap.Error(err))
		}
		var chUsage repository.CHUsageRepository
		if chDB != nil {
			defer func() { _ = chDB.Close() }()
			chUsage = repository.NewCHUsageRepository(chDB)
		}

		var queueSvc *queue.Service
		if len(cfg.Kafka.Brokers) > 0 && cfg.Kafka.DispatchTopic != "" {
			producer := kafka.NewDispatchProducer(cfg.Kafka)
			defer func() { _ = producer.Close() }()
			queueSvc = queue.New(producer)
		}

		server := httpSrv.NewServer(httpSrv.Deps{
			Config:   cfg,
			Accounts: a.Accounts,
			Engine:   a.Engine,
			Stats:    a.Stats,
			Queue:    queueSvc,
			CHUsage:  chUsage,
			Redis:    redisClient,
			Log:      log.Named("http"),
			Gatherer: prometheus.DefaultGatherer,
		})

		errCh := make(chan error, 1)
		go func() {
			errCh <- server.Start(cfg.HTTP.Addr)
		}()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-sigCh:
			log.Info("signal received, shutting down", zap.String("signal", sig.String()))
		case err := <-errCh:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("http server exited", zap.Error(err))
			}
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)

		return nil
	},
}
