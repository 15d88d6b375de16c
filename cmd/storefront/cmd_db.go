package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/febluxury/storefront/internal/app"
	"github.com/febluxury/storefront/internal/config"
	"github.com/febluxury/storefront/internal/event"
	"github.com/febluxury/storefront/internal/repository"
	"github.com/febluxury/storefront/internal/service"
	pkgkafka "github.com/febluxury/storefront/pkg/kafka"
)

// openStore loads configuration and connects the configured store.
func openStore(ctx context.Context) (*config.Config, repository.Store, *slog.Logger, func(), error) {
	cfg, log, err := boot()
	if err != nil {
		return nil, nil, nil, nil, err
	}
	store, err := app.OpenStore(ctx, cfg, log)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	closeFn := func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			log.Error("store close error", slog.String("error", err.Error()))
		}
	}
	return cfg, store, log, closeFn, nil
}

// storefront migrate
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply schema migrations (postgres) or create indexes (mongo)",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		_, store, log, closeStore, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer closeStore()

		if err := store.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		log.Info("migrations applied")
		return nil
	},
}

var publishEvents bool

// storefront recompute-ratings
var recomputeRatingsCmd = &cobra.Command{
	Use:   "recompute-ratings",
	Short: "Recompute the cached rating of every product from its active reviews",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		cfg, store, log, closeStore, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer closeStore()

		var publisher event.Publisher = event.NewLogPublisher(log)
		if publishEvents {
			producer := pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), log)
			defer producer.Close()
			publisher = producer
		}

		aggregator := service.NewRatingAggregator(store.Ratings(), event.NewProducer(publisher, log), log)
		n, err := aggregator.RecomputeAll(ctx, store.Products())
		if err != nil {
			return fmt.Errorf("recompute ratings after %d products: %w", n, err)
		}
		log.Info("ratings recomputed", slog.Int("products", n))
		return nil
	},
}

func init() {
	recomputeRatingsCmd.Flags().BoolVar(&publishEvents, "publish", false, "publish rating_updated events to Kafka")
}
