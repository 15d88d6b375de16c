package service

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/febluxury/storefront/internal/domain"
	"github.com/febluxury/storefront/internal/event"
	"github.com/febluxury/storefront/internal/repository/memory"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestProducer() *event.Producer {
	logger := newTestLogger()
	return event.NewProducer(event.NewLogPublisher(logger), logger)
}

type testEnv struct {
	store    *memory.Store
	products *ProductService
	reviews  *ReviewService
	ratings  *RatingAggregator
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := memory.New()
	producer := newTestProducer()
	logger := newTestLogger()

	ratings := NewRatingAggregator(store.Ratings(), producer, logger)
	return &testEnv{
		store:    store,
		products: NewProductService(store.Products(), store.Reviews(), domain.DefaultTaxonomy(), producer, ProductOptions{}, logger),
		reviews:  NewReviewService(store.Reviews(), store.Products(), ratings, producer, 0, logger),
		ratings:  ratings,
	}
}

func (e *testEnv) createProduct(t *testing.T, name, category string, price float64) *domain.Product {
	t.Helper()
	p, err := e.products.CreateProduct(context.Background(), &CreateProductInput{
		Name:     name,
		Category: category,
		Price:    price,
		Delivery: domain.Delivery{MinDays: 1, MaxDays: 3},
	})
	require.NoError(t, err)
	return p
}

func (e *testEnv) postReview(t *testing.T, productID, userID string, rating int) *PostReviewResult {
	t.Helper()
	res, err := e.reviews.PostReview(context.Background(), &PostReviewInput{
		ProductID: productID,
		UserID:    userID,
		Comment:   "review by " + userID,
		Rating:    rating,
	})
	require.NoError(t, err)
	return res
}
