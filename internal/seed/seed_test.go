package seed

import (
	"context"
	"io"
	"log/slog"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/febluxury/storefront/internal/domain"
	"github.com/febluxury/storefront/internal/event"
	"github.com/febluxury/storefront/internal/repository/memory"
	"github.com/febluxury/storefront/internal/service"
)

func newServices(t *testing.T) (*service.ProductService, *service.ReviewService, *memory.Store) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.New()
	producer := event.NewProducer(event.NewLogPublisher(logger), logger)
	ratings := service.NewRatingAggregator(store.Ratings(), producer, logger)
	products := service.NewProductService(store.Products(), store.Reviews(), domain.DefaultTaxonomy(), producer, service.ProductOptions{}, logger)
	reviews := service.NewReviewService(store.Reviews(), store.Products(), ratings, producer, 0, logger)
	return products, reviews, store
}

func TestGenerator_Deterministic(t *testing.T) {
	a := NewGenerator(domain.DefaultTaxonomy(), 42)
	b := NewGenerator(domain.DefaultTaxonomy(), 42)

	for i := 0; i < 20; i++ {
		assert.Equal(t, a.Product(i), b.Product(i))
	}
}

func TestGenerator_RotatesCategories(t *testing.T) {
	tax := domain.DefaultTaxonomy()
	gen := NewGenerator(tax, 1)

	seen := map[string]bool{}
	for i := range tax.Categories() {
		p := gen.Product(i)
		seen[p.Category] = true
		if p.Subcategory != "" {
			assert.True(t, tax.AllowsSubcategory(p.Category, p.Subcategory), p.Subcategory)
		}
	}
	assert.Len(t, seen, len(tax.Categories()))
}

func TestRun_CreatesProductsAndReviews(t *testing.T) {
	products, reviews, store := newServices(t)
	gen := NewGenerator(domain.DefaultTaxonomy(), 7)

	res, err := Run(context.Background(), products, reviews, gen, Options{Products: 60, ReviewsPerProduct: 3}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	require.NoError(t, err)
	assert.Equal(t, Result{Products: 60, Reviews: 180}, res)

	total, err := store.Reviews().Count(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 180, total)

	page, err := products.ListProducts(context.Background(), url.Values{"limit": {"100"}})
	require.NoError(t, err)
	require.Len(t, page.Items, 60)
	for _, p := range page.Items {
		assert.Equal(t, 3, p.ReviewCount)
		assert.GreaterOrEqual(t, p.Rating, 1.0)
		assert.LessOrEqual(t, p.Rating, 5.0)
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	products, reviews, _ := newServices(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := Run(ctx, products, reviews, NewGenerator(domain.DefaultTaxonomy(), 1), Options{Products: 5}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, res.Products)
}
