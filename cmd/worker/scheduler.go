package worker

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmehdipour/sms-panel/internal/app"
	"github.com/jmehdipour/sms-panel/internal/kafka"
	"github.com/jmehdipour/sms-panel/internal/service/queue"
	"github.com/jmehdipour/sms-panel/internal/worker"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Enqueue scheduled campaigns once they are due",
	RunE:  runScheduler,
}

func runScheduler(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	a, err := app.Open(cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	producer := kafka.NewDispatchProducer(cfg.Kafka)
	defer func() { _ = producer.Close() }()

	s := &worker.Scheduler{
		Campaigns:  a.Campaigns,
		Resetter:   a.Engine,
		Queue:      queue.New(producer),
		Interval:   cfg.Scheduler.Interval,
		BatchSize:  cfg.Scheduler.BatchSize,
		StuckAfter: cfg.Scheduler.StuckAfter,
		Log:        log.Named("scheduler"),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("scheduler started",
		zap.Duration("interval", cfg.Scheduler.Interval),
		zap.Int("batch_size", cfg.Scheduler.BatchSize),
		zap.Duration("stuck_after", cfg.Scheduler.StuckAfter),
	)
	return s.Run(ctx)
}
