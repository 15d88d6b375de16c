package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/febluxury/storefront/internal/app"
	"github.com/febluxury/storefront/internal/config"
	"github.com/febluxury/storefront/pkg/logger"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "storefront",
	Short:         "FEB Luxury catalog and review service",
	Long:          "storefront serves the product catalog, customer reviews and order receipt email API.",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          serveCmd.RunE,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(recomputeRatingsCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(issueTokenCmd)
}

// boot loads configuration and builds the process logger.
func boot() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	log := logger.NewWithFormat(app.ServiceName, cfg.LogLevel, logger.Format(cfg.LogFormat), os.Stdout)
	return cfg, log, nil
}
