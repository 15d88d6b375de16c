package main

import (
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/febluxury/storefront/internal/app"
)

// storefront serve
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := boot()
		if err != nil {
			return err
		}
		log.Info("starting storefront service",
			slog.String("environment", cfg.Environment),
			slog.Int("http_port", cfg.HTTPPort),
			slog.String("store_driver", cfg.StoreDriver),
		)

		// Cancelled on SIGINT or SIGTERM.
		ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		application, err := app.NewApp(ctx, cfg, log)
		if err != nil {
			log.Error("failed to initialize application", slog.String("error", err.Error()))
			return err
		}

		// Blocks until shutdown.
		if err := application.Run(ctx); err != nil {
			log.Error("application error", slog.String("error", err.Error()))
			return err
		}

		log.Info("storefront service stopped")
		return nil
	},
}
