package main

import (
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/goliatone/go-riskintake/internal/app"
	"github.com/goliatone/go-riskintake/pkg/intake"
	"github.com/goliatone/go-riskintake/pkg/recommend"
	"github.com/goliatone/go-riskintake/pkg/renderers/tui"
)

var intakeCmd = &cobra.Command{
	Use:   "intake",
	Short: "Run the intake flow interactively in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("intake"); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		logger := zap.L()
		env, err := app.New(ctx, cfg, logger)
		if err != nil {
			return err
		}
		catalog, err := recommend.Default()
		if err != nil {
			return fmt.Errorf("load recommendations: %w", err)
		}

		session, err := tui.NewSession(intake.NewShell(env.Factory, logger),
			tui.WithPromptDriver(tui.NewSurveyDriver(cmd.OutOrStdout())),
			tui.WithCatalog(catalog),
			tui.WithLogger(logger),
		)
		if err != nil {
			return err
		}

		if err := session.Run(ctx); err != nil {
			if errors.Is(err, tui.ErrAborted) {
				return nil
			}
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(intakeCmd)
}
