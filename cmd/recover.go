package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/jmehdipour/sms-panel/internal/app"
	"github.com/jmehdipour/sms-panel/internal/config"
	"github.com/jmehdipour/sms-panel/internal/logger"
	"github.com/spf13/cobra"
)

var recoverOlderThan time.Duration

var recoverCmd = &cobra.Command{
	Use:   "recover",
	Short: "Reset campaigns stuck in sending back to scheduled",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if recoverOlderThan <= 0 {
			recoverOlderThan = cfg.Scheduler.StuckAfter
		}

		a, err := app.Open(cfg, logger.Init(cfg.Log))
		if err != nil {
			return err
		}
		defer a.Close()

		reset, err := a.Engine.ResetStuck(context.Background(), recoverOlderThan)
		for _, c := range reset {
			fmt.Printf(">> reset %s (creator=%d, last update %s)\n", c.ID, c.CreatorID, c.UpdatedAt.Format(time.RFC3339))
		}
		if err != nil {
			return fmt.Errorf("reset stuck campaigns: %w", err)
		}
		fmt.Printf(">> %d campaign(s) reset\n", len(reset))
		return nil
	},
}

func init() {
	recoverCmd.Flags().DurationVar(&recoverOlderThan, "older-than", 0, "only reset campaigns not updated for this long (default scheduler.stuck_after)")
}
