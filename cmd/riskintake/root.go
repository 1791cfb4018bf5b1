package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/goliatone/go-riskintake/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:          "riskintake",
	Short:        "Heart risk intake front end",
	Long:         "Collects clinician or patient answers, posts them to the risk prediction service and shows the result with recommendations, in a browser or a terminal.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}
