package memory

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/febluxury/storefront/internal/domain"
	"github.com/febluxury/storefront/internal/query"
	apperrors "github.com/febluxury/storefront/pkg/errors"
)

var now = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func seedProduct(t *testing.T, s *Store, id, name, category string, price float64, age time.Duration) domain.Product {
	t.Helper()
	p := domain.Product{
		ID:        id,
		Name:      name,
		Category:  category,
		Price:     price,
		Stock:     domain.Stock{Status: domain.StockInStock},
		CreatedAt: now.Add(-age),
		UpdatedAt: now.Add(-age),
	}
	require.NoError(t, s.Products().Create(context.Background(), &p))
	return p
}

func submit(t *testing.T, s *Store, id, userID, productID string, rating int, at time.Time) (domain.Review, bool) {
	t.Helper()
	rv := domain.Review{
		ID:        id,
		ProductID: productID,
		UserID:    userID,
		Comment:   fmt.Sprintf("rated %d", rating),
		Rating:    rating,
		CreatedAt: at,
		UpdatedAt: at,
	}
	created, err := s.Reviews().Upsert(context.Background(), &rv)
	require.NoError(t, err)
	return rv, created
}

func TestProducts_CRUD(t *testing.T) {
	ctx := context.Background()
	s := New()
	p := seedProduct(t, s, "p1", "Sunglasses A", "accessories", 100, 0)

	err := s.Products().Create(ctx, &p)
	assert.True(t, errors.Is(err, apperrors.ErrAlreadyExists))

	got, err := s.Products().GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Sunglasses A", got.Name)

	// Update never writes the derived rating fields.
	got.Name = "Sunglasses B"
	got.Rating = 5
	got.ReviewCount = 9
	require.NoError(t, s.Products().Update(ctx, got))
	assert.Equal(t, 0.0, got.Rating)

	stored, err := s.Products().GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Sunglasses B", stored.Name)
	assert.Equal(t, 0, stored.ReviewCount)

	require.NoError(t, s.Products().Delete(ctx, "p1"))
	_, err = s.Products().GetByID(ctx, "p1")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	assert.True(t, errors.Is(s.Products().Delete(ctx, "p1"), apperrors.ErrNotFound))
	assert.True(t, errors.Is(s.Products().Update(ctx, &p), apperrors.ErrNotFound))
}

func TestProducts_List(t *testing.T) {
	s := New()
	for i := 0; i < 23; i++ {
		seedProduct(t, s, fmt.Sprintf("p%02d", i), fmt.Sprintf("Item %d", i), "accessories", float64(i*5), time.Duration(i)*time.Minute)
	}

	desc, err := query.Build(url.Values{"page": {"3"}}, domain.DefaultTaxonomy())
	require.NoError(t, err)

	items, total, err := s.Products().List(context.Background(), desc)
	require.NoError(t, err)
	assert.Equal(t, 23, total)
	assert.Len(t, items, 3)

	desc, err = query.Build(url.Values{"minPrice": {"10"}, "maxPrice": {"50"}, "limit": {"50"}}, domain.DefaultTaxonomy())
	require.NoError(t, err)
	items, total, err = s.Products().List(context.Background(), desc)
	require.NoError(t, err)
	assert.Equal(t, 9, total)
	for _, p := range items {
		assert.True(t, p.Price >= 10 && p.Price <= 50)
	}
}

func TestProducts_FindRelated(t *testing.T) {
	ctx := context.Background()
	s := New()
	src := seedProduct(t, s, "src", "Classic Black Leather Belt", "accessories", 80, 5*time.Minute)
	seedProduct(t, s, "wallet", "brown leather wallet", "bags", 60, 4*time.Minute)
	seedProduct(t, s, "bag", "Belt Bag", "bags", 90, 3*time.Minute)
	seedProduct(t, s, "watch", "Steel Watch", "accessories", 300, 2*time.Minute)
	seedProduct(t, s, "oud", "Oud Wood", "fragrance", 120, time.Minute)

	related, err := s.Products().FindRelated(ctx, query.NewRelatedFilter(&src, 20))
	require.NoError(t, err)

	ids := make([]string, 0, len(related))
	for _, p := range related {
		ids = append(ids, p.ID)
	}
	assert.ElementsMatch(t, []string{"wallet", "bag", "watch"}, ids)

	capped, err := s.Products().FindRelated(ctx, query.NewRelatedFilter(&src, 2))
	require.NoError(t, err)
	assert.Len(t, capped, 2)
}

func TestReviews_UpsertKeepsOnePerAuthor(t *testing.T) {
	ctx := context.Background()
	s := New()
	seedProduct(t, s, "p1", "Sunglasses A", "accessories", 100, 0)

	first, created := submit(t, s, "r1", "u1", "p1", 4, now)
	require.True(t, created)
	assert.False(t, first.IsEdited)
	assert.Equal(t, domain.ReviewStatusActive, first.Status)
	assert.NotNil(t, first.Likes)

	for i, rating := range []int{2, 5, 3} {
		at := now.Add(time.Duration(i+1) * time.Minute)
		rv, created := submit(t, s, fmt.Sprintf("ignored-%d", i), "u1", "p1", rating, at)
		assert.False(t, created)
		assert.Equal(t, "r1", rv.ID)
		assert.Equal(t, rating, rv.Rating)
		assert.True(t, rv.IsEdited)
		require.NotNil(t, rv.EditedAt)
		assert.Equal(t, at, *rv.EditedAt)
		assert.Equal(t, now, rv.CreatedAt)
	}

	all, err := s.Reviews().ListByUser(ctx, "u1", "")
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, 3, all[0].Rating)
	assert.Equal(t, "rated 3", all[0].Comment)
}

func TestReviews_UpsertReactivatesDeleted(t *testing.T) {
	ctx := context.Background()
	s := New()
	submit(t, s, "r1", "u1", "p1", 4, now)

	_, err := s.Reviews().SoftDelete(ctx, "r1", "u1")
	require.NoError(t, err)

	rv, created := submit(t, s, "r2", "u1", "p1", 5, now.Add(time.Minute))
	assert.False(t, created)
	assert.Equal(t, domain.ReviewStatusActive, rv.Status)
}

func TestReviews_UpsertKeepsHiddenHidden(t *testing.T) {
	ctx := context.Background()
	s := New()
	submit(t, s, "r1", "u1", "p1", 1, now)

	s.mu.Lock()
	hidden := s.reviews["r1"]
	hidden.Status = domain.ReviewStatusHidden
	s.reviews["r1"] = hidden
	s.mu.Unlock()

	rv, created := submit(t, s, "r2", "u1", "p1", 5, now.Add(time.Minute))
	assert.False(t, created)
	assert.Equal(t, domain.ReviewStatusHidden, rv.Status)
	assert.Equal(t, 5, rv.Rating)

	active, err := s.Reviews().ListByProduct(ctx, "p1", domain.ReviewStatusActive)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestReviews_SoftDelete(t *testing.T) {
	ctx := context.Background()
	s := New()
	submit(t, s, "r1", "u1", "p1", 4, now)

	_, err := s.Reviews().SoftDelete(ctx, "r1", "someone-else")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))

	rv, err := s.Reviews().SoftDelete(ctx, "r1", "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.ReviewStatusDeleted, rv.Status)

	active, err := s.Reviews().ListByProduct(ctx, "p1", domain.ReviewStatusActive)
	require.NoError(t, err)
	assert.Empty(t, active)

	count, err := s.Reviews().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestReviews_ToggleLike(t *testing.T) {
	ctx := context.Background()
	s := New()
	submit(t, s, "r1", "u1", "p1", 4, now)

	likes, err := s.Reviews().ToggleLike(ctx, "r1", "u2")
	require.NoError(t, err)
	assert.Equal(t, []string{"u2"}, likes)

	liked, err := s.Reviews().ListLikedBy(ctx, "u2")
	require.NoError(t, err)
	require.Len(t, liked, 1)
	assert.Equal(t, "r1", liked[0].ID)

	likes, err = s.Reviews().ToggleLike(ctx, "r1", "u2")
	require.NoError(t, err)
	assert.Empty(t, likes)

	_, err = s.Reviews().ToggleLike(ctx, "missing", "u2")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestReviews_ListOrder(t *testing.T) {
	ctx := context.Background()
	s := New()
	submit(t, s, "old", "u1", "p1", 4, now)
	submit(t, s, "new", "u2", "p1", 2, now.Add(time.Hour))

	reviews, err := s.Reviews().ListByProduct(ctx, "p1", domain.ReviewStatusActive)
	require.NoError(t, err)
	require.Len(t, reviews, 2)
	assert.Equal(t, "new", reviews[0].ID)
	assert.Equal(t, "old", reviews[1].ID)
}

func TestReviews_DeleteByProduct(t *testing.T) {
	ctx := context.Background()
	s := New()
	submit(t, s, "r1", "u1", "p1", 4, now)
	submit(t, s, "r2", "u2", "p1", 2, now)
	submit(t, s, "r3", "u1", "p2", 5, now)

	n, err := s.Reviews().DeleteByProduct(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	left, err := s.Reviews().ListByProduct(ctx, "p1", domain.ReviewStatusActive)
	require.NoError(t, err)
	assert.Empty(t, left)

	// the author index is cleared, so resubmitting creates a new review
	_, created := submit(t, s, "r4", "u1", "p1", 3, now)
	assert.True(t, created)
}

func TestRatings_Recompute(t *testing.T) {
	ctx := context.Background()
	s := New()
	seedProduct(t, s, "p1", "Sunglasses A", "accessories", 100, 0)
	submit(t, s, "r1", "u1", "p1", 4, now)
	submit(t, s, "r2", "u2", "p1", 2, now)

	summary, err := s.Ratings().RecomputeRating(ctx, "p1")
	require.NoError(t, err)
	assert.InDelta(t, 3.0, summary.Average, 1e-9)
	assert.Equal(t, 2, summary.Count)

	_, err = s.Reviews().SoftDelete(ctx, "r2", "u2")
	require.NoError(t, err)
	summary, err = s.Ratings().RecomputeRating(ctx, "p1")
	require.NoError(t, err)
	assert.InDelta(t, 4.0, summary.Average, 1e-9)

	p, err := s.Products().GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.InDelta(t, 4.0, p.Rating, 1e-9)
	assert.Equal(t, 1, p.ReviewCount)

	_, err = s.Reviews().SoftDelete(ctx, "r1", "u1")
	require.NoError(t, err)
	summary, err = s.Ratings().RecomputeRating(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, domain.RatingSummary{}, summary)

	_, err = s.Ratings().RecomputeRating(ctx, "missing")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestRatings_ConcurrentSubmissions(t *testing.T) {
	ctx := context.Background()
	s := New()
	seedProduct(t, s, "p1", "Sunglasses A", "accessories", 100, 0)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rv := domain.Review{
				ID:        fmt.Sprintf("r%d", i),
				ProductID: "p1",
				UserID:    fmt.Sprintf("u%d", i),
				Comment:   "ok",
				Rating:    i%5 + 1,
				CreatedAt: now,
				UpdatedAt: now,
			}
			_, err := s.Reviews().Upsert(ctx, &rv)
			assert.NoError(t, err)
			_, err = s.Ratings().RecomputeRating(ctx, "p1")
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	p, err := s.Products().GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 20, p.ReviewCount)
	assert.InDelta(t, 3.0, p.Rating, 1e-9)
}
