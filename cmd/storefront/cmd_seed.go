package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/febluxury/storefront/internal/event"
	"github.com/febluxury/storefront/internal/seed"
	"github.com/febluxury/storefront/internal/service"
)

var seedOpts seed.Options

// storefront seed
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Populate the store with a deterministic demo catalog and reviews",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		cfg, store, log, closeStore, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer closeStore()

		tax, err := cfg.Taxonomy()
		if err != nil {
			return err
		}

		producer := event.NewProducer(event.NewLogPublisher(log), log)
		ratings := service.NewRatingAggregator(store.Ratings(), producer, log)
		products := service.NewProductService(store.Products(), store.Reviews(), tax, producer, service.ProductOptions{
			WriteTimeout:  cfg.WriteTimeout(),
			ImageOwnHosts: cfg.ImageOwnHosts,
		}, log)
		reviews := service.NewReviewService(store.Reviews(), store.Products(), ratings, producer, cfg.WriteTimeout(), log)

		res, err := seed.Run(ctx, products, reviews, seed.NewGenerator(tax, seedOpts.Seed), seedOpts, log)
		log.Info("seed finished",
			slog.Int("products", res.Products),
			slog.Int("reviews", res.Reviews),
		)
		return err
	},
}

func init() {
	seedCmd.Flags().IntVar(&seedOpts.Products, "products", 200, "number of products to create")
	seedCmd.Flags().IntVar(&seedOpts.ReviewsPerProduct, "reviews", 3, "reviews per product, each from a distinct user")
	seedCmd.Flags().Uint64Var(&seedOpts.Seed, "seed", 1, "random seed")
}
