package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/goliatone/go-riskintake/internal/app"
	"github.com/goliatone/go-riskintake/internal/config"
	"github.com/goliatone/go-riskintake/internal/server"
	"github.com/goliatone/go-riskintake/pkg/recommend"
	"github.com/goliatone/go-riskintake/pkg/render"
	"github.com/goliatone/go-riskintake/pkg/renderers/tui"
	"github.com/goliatone/go-riskintake/pkg/renderers/web"
)

const shutdownTimeout = 10 * time.Second

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the intake forms and JSON API over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		if servePort != 0 {
			cfg.Server.Port = servePort
		}
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		handler, err := buildHandler(ctx, cfg)
		if err != nil {
			return err
		}

		srv := &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:      handler,
			ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSecs) * time.Second,
			WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSecs) * time.Second,
		}
		return server.Run(ctx, srv, shutdownTimeout)
	},
}

func buildHandler(ctx context.Context, cfg *config.Config) (http.Handler, error) {
	logger := zap.L()

	env, err := app.New(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	catalog, err := recommend.Default()
	if err != nil {
		return nil, fmt.Errorf("load recommendations: %w", err)
	}

	webOpts := []web.Option{web.WithVariant(cfg.UI.ThemeVariant)}
	if cfg.UI.TemplatesDir != "" {
		webOpts = append(webOpts, web.WithTemplatesDir(cfg.UI.TemplatesDir))
	}
	htmlRenderer, err := web.New(webOpts...)
	if err != nil {
		return nil, fmt.Errorf("configure html renderer: %w", err)
	}

	registry := render.NewRegistry()
	registry.MustRegister(htmlRenderer)
	registry.MustRegister(tui.TextRenderer{})

	srv, err := server.New(server.Options{
		Factory:        env.Factory,
		Catalog:        catalog,
		Renderers:      registry,
		Assets:         web.AssetsFS(),
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Logger:         logger,
	})
	if err != nil {
		return nil, err
	}
	return srv.Handler(), nil
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
