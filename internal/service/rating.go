package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/febluxury/storefront/internal/domain"
	"github.com/febluxury/storefront/internal/event"
	"github.com/febluxury/storefront/internal/query"
	"github.com/febluxury/storefront/internal/repository"
	"github.com/febluxury/storefront/pkg/pagination"
)

var ratingRecomputes = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "storefront_rating_recomputes_total",
		Help: "Total number of product rating recomputations.",
	},
	[]string{"result"},
)

// recomputeBatchSize is the product page size RecomputeAll walks with.
const recomputeBatchSize = 100

// RatingAggregator keeps a product's cached rating and review count equal
// to the mean and number of its active reviews.
type RatingAggregator struct {
	store    repository.RatingStore
	producer *event.Producer
	logger   *slog.Logger
}

// NewRatingAggregator creates a new rating aggregator.
func NewRatingAggregator(store repository.RatingStore, producer *event.Producer, logger *slog.Logger) *RatingAggregator {
	return &RatingAggregator{
		store:    store,
		producer: producer,
		logger:   logger,
	}
}

// Recompute derives the product's rating from its active reviews in one
// store-side operation and publishes the result.
func (a *RatingAggregator) Recompute(ctx context.Context, productID string) (domain.RatingSummary, error) {
	summary, err := a.store.RecomputeRating(ctx, productID)
	if err != nil {
		ratingRecomputes.WithLabelValues("error").Inc()
		return domain.RatingSummary{}, fmt.Errorf("recompute rating: %w", err)
	}
	ratingRecomputes.WithLabelValues("ok").Inc()

	if err := a.producer.PublishRatingUpdated(ctx, productID, summary); err != nil {
		a.logger.ErrorContext(ctx, "failed to publish product.rating_updated event",
			slog.String("product_id", productID),
			slog.String("error", err.Error()),
		)
	}

	a.logger.DebugContext(ctx, "product rating recomputed",
		slog.String("product_id", productID),
		slog.Float64("rating", summary.Average),
		slog.Int("review_count", summary.Count),
	)

	return summary, nil
}

// RecomputeAll walks every product oldest first and recomputes its rating.
// It returns the number of products processed.
func (a *RatingAggregator) RecomputeAll(ctx context.Context, products repository.ProductRepository) (int, error) {
	desc := &query.Descriptor{
		Sort: query.Sort{Field: query.SortCreatedAt},
		Page: pagination.Params{Page: 1, Limit: recomputeBatchSize},
	}

	done := 0
	for {
		if err := ctx.Err(); err != nil {
			return done, err
		}

		batch, total, err := products.List(ctx, desc)
		if err != nil {
			return done, fmt.Errorf("list products page %d: %w", desc.Page.Page, err)
		}

		for i := range batch {
			if _, err := a.Recompute(ctx, batch[i].ID); err != nil {
				return done, fmt.Errorf("product %s: %w", batch[i].ID, err)
			}
			done++
		}

		if len(batch) < desc.Limit() || desc.Skip()+len(batch) >= total {
			break
		}
		desc.Page.Page++
	}

	a.logger.InfoContext(ctx, "ratings recomputed", slog.Int("products", done))
	return done, nil
}
