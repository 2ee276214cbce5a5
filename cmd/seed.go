package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmehdipour/sms-panel/internal/app"
	"github.com/jmehdipour/sms-panel/internal/config"
	"github.com/jmehdipour/sms-panel/internal/errs"
	"github.com/jmehdipour/sms-panel/internal/logger"
	"github.com/jmehdipour/sms-panel/internal/model"
	"github.com/jmehdipour/sms-panel/internal/service/accounts"
	"github.com/spf13/cobra"
)

var seedPassword string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with demo accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		// 1) load config
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		// 2) connect + wire
		a, err := app.Open(cfg, logger.Init(cfg.Log))
		if err != nil {
			return err
		}
		defer a.Close()

		// 3) accounts
		demo := []accounts.RegisterCmd{
			{Name: "admin", Email: "admin@example.com", Password: seedPassword, Role: model.RoleAdmin},
			{Name: "demo", Email: "demo@example.com", Password: seedPassword, Role: model.RoleUser, Credits: 1000},
		}
		ctx := context.Background()
		for _, d := range demo {
			acc, err := a.Accounts.Register(ctx, d)
			if errors.Is(err, errs.ErrDuplicate) {
				fmt.Printf(">> %s already exists, skipped\n", d.Name)
				continue
			}
			if err != nil {
				return fmt.Errorf("seed %s: %w", d.Name, err)
			}
			fmt.Printf(">> %s (id=%d role=%s) api_key=%s\n", acc.Name, acc.ID, acc.Role, acc.APIKey)
		}

		fmt.Println(">> Seeding complete")
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedPassword, "password", "changeme", "password for the seeded accounts")
}
