package cmd

import (
	"context"
	"fmt"

	"github.com/jmehdipour/sms-panel/internal/config"
	"github.com/jmehdipour/sms-panel/internal/db"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		sqlDB, err := db.Open(cfg)
		if err != nil {
			return fmt.Errorf("open db: %w", err)
		}
		defer sqlDB.Close()

		driver := cfg.Store.Driver
		if driver == "" {
			driver = "mysql"
		}
		if err := db.Migrate(context.Background(), sqlDB, driver); err != nil {
			return err
		}

		fmt.Println(">> Migration complete")
		return nil
	},
}
