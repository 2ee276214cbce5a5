package worker

import (
	"fmt"

	"github.com/jmehdipour/sms-panel/internal/config"
	"github.com/jmehdipour/sms-panel/internal/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewWorkerCmd returns the parent "worker" command.
func NewWorkerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Run background workers",
	}
	// attach subcommands
	cmd.AddCommand(dispatchCmd)
	cmd.AddCommand(schedulerCmd)

	return cmd
}

func loadConfig(cmd *cobra.Command) (config.Config, *zap.Logger, error) {
	cfgPath, _ := cmd.Root().PersistentFlags().GetString("config")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}
	if len(cfg.Kafka.Brokers) == 0 || cfg.Kafka.DispatchTopic == "" {
		return config.Config{}, nil, fmt.Errorf("kafka brokers and dispatch topic are required")
	}
	return cfg, logger.Init(cfg.Log), nil
}
