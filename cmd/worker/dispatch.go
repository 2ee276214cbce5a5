package worker

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmehdipour/sms-panel/internal/app"
	"github.com/jmehdipour/sms-panel/internal/kafka"
	"github.com/jmehdipour/sms-panel/internal/metrics"
	"github.com/jmehdipour/sms-panel/internal/worker"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var dispatchCmd = &cobra.Command{
	Use:   "dispatch",
	Short: "Consume dispatch requests and run campaigns",
	RunE:  runDispatch,
}

func runDispatch(cmd *cobra.Command, args []string) error {
	// 1) config + logger
	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	metrics.MustRegister(prometheus.DefaultRegisterer)

	// 2) store + engine
	a, err := app.Open(cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	// 3) kafka consumer
	consumer := kafka.NewDispatchConsumer(cfg.Kafka)
	defer consumer.Close()

	w := worker.NewDispatchKafka(consumer, a.Engine, cfg.Dispatcher.WorkerCount, log.Named("dispatch"))

	// 4) graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("dispatch worker started",
		zap.String("topic", cfg.Kafka.DispatchTopic),
		zap.String("group", consumer.Group()),
		zap.Int("workers", w.Workers),
	)

	return w.Run(ctx)
}
