package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/febluxury/storefront/internal/domain"
	"github.com/febluxury/storefront/internal/query"
	apperrors "github.com/febluxury/storefront/pkg/errors"
)

type mockRatingStore struct {
	mock.Mock
}

func (m *mockRatingStore) RecomputeRating(ctx context.Context, productID string) (domain.RatingSummary, error) {
	args := m.Called(ctx, productID)
	return args.Get(0).(domain.RatingSummary), args.Error(1)
}

func TestRecompute_DelegatesToStore(t *testing.T) {
	store := new(mockRatingStore)
	agg := NewRatingAggregator(store, newTestProducer(), newTestLogger())

	store.On("RecomputeRating", mock.Anything, "p-1").
		Return(domain.RatingSummary{Average: 3, Count: 2}, nil)

	summary, err := agg.Recompute(context.Background(), "p-1")
	require.NoError(t, err)
	assert.Equal(t, domain.RatingSummary{Average: 3, Count: 2}, summary)
	store.AssertExpectations(t)
}

func TestRecompute_MissingProduct(t *testing.T) {
	store := new(mockRatingStore)
	agg := NewRatingAggregator(store, newTestProducer(), newTestLogger())

	store.On("RecomputeRating", mock.Anything, "gone").
		Return(domain.RatingSummary{}, apperrors.NotFound("product", "gone"))

	_, err := agg.Recompute(context.Background(), "gone")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestRecomputeAll_WalksEveryPage(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		ids = append(ids, env.createProduct(t, "Item", "bags", 10).ID)
	}
	env.postReview(t, ids[0], "u-1", 5)

	n, err := env.ratings.RecomputeAll(ctx, env.store.Products())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestRecomputeAll_MultiplePages(t *testing.T) {
	repo := new(mockProductRepository)
	store := new(mockRatingStore)
	agg := NewRatingAggregator(store, newTestProducer(), newTestLogger())

	full := make([]domain.Product, recomputeBatchSize)
	for i := range full {
		full[i].ID = "p"
	}
	repo.On("List", mock.Anything, mock.MatchedBy(func(d *query.Descriptor) bool { return d.Page.Page == 1 })).
		Return(full, recomputeBatchSize+1, nil).Once()
	repo.On("List", mock.Anything, mock.MatchedBy(func(d *query.Descriptor) bool { return d.Page.Page == 2 })).
		Return([]domain.Product{{ID: "last"}}, recomputeBatchSize+1, nil).Once()
	store.On("RecomputeRating", mock.Anything, mock.Anything).Return(domain.RatingSummary{}, nil)

	n, err := agg.RecomputeAll(context.Background(), repo)
	require.NoError(t, err)
	assert.Equal(t, recomputeBatchSize+1, n)
	repo.AssertExpectations(t)
}

func TestRecomputeAll_StopsOnError(t *testing.T) {
	repo := new(mockProductRepository)
	store := new(mockRatingStore)
	agg := NewRatingAggregator(store, newTestProducer(), newTestLogger())

	repo.On("List", mock.Anything, mock.Anything).
		Return([]domain.Product{{ID: "a"}, {ID: "b"}}, 2, nil)
	store.On("RecomputeRating", mock.Anything, "a").Return(domain.RatingSummary{}, errors.New("timeout"))

	n, err := agg.RecomputeAll(context.Background(), repo)
	require.Error(t, err)
	assert.Zero(t, n)
	assert.Contains(t, err.Error(), "product a")
}
