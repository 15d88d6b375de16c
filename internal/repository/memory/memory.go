// Package memory is an in-process store backend. It is safe for concurrent
// use and is intended for development and tests.
package memory

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/febluxury/storefront/internal/domain"
	"github.com/febluxury/storefront/internal/query"
	"github.com/febluxury/storefront/internal/repository"
	apperrors "github.com/febluxury/storefront/pkg/errors"
)

// Store keeps products and reviews in maps guarded by one RWMutex, so a
// rating recompute observes a consistent set of reviews.
type Store struct {
	mu       sync.RWMutex
	products map[string]domain.Product
	reviews  map[string]domain.Review
	// byAuthor indexes reviews by userID + "/" + productID.
	byAuthor map[string]string
}

var _ repository.Store = (*Store)(nil)

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		products: make(map[string]domain.Product),
		reviews:  make(map[string]domain.Review),
		byAuthor: make(map[string]string),
	}
}

// Products returns the product repository.
func (s *Store) Products() repository.ProductRepository { return (*productRepo)(s) }

// Reviews returns the review repository.
func (s *Store) Reviews() repository.ReviewRepository { return (*reviewRepo)(s) }

// Ratings returns the rating store.
func (s *Store) Ratings() repository.RatingStore { return (*ratingStore)(s) }

// Migrate is a no-op.
func (s *Store) Migrate(context.Context) error { return nil }

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close(context.Context) error { return nil }

func authorKey(userID, productID string) string { return userID + "/" + productID }

func cloneProduct(p domain.Product) domain.Product {
	if p.OldPrice != nil {
		v := *p.OldPrice
		p.OldPrice = &v
	}
	if p.AuthorID != nil {
		v := *p.AuthorID
		p.AuthorID = &v
	}
	p.Gallery = slices.Clone(p.Gallery)
	return p
}

func cloneReview(r domain.Review) domain.Review {
	r.Likes = slices.Clone(r.Likes)
	if r.Likes == nil {
		r.Likes = []string{}
	}
	if r.EditedAt != nil {
		v := *r.EditedAt
		r.EditedAt = &v
	}
	return r
}

// ─── products ───────────────────────────────────────────────────────────────

type productRepo Store

func (r *productRepo) Create(_ context.Context, p *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[p.ID]; ok {
		return apperrors.AlreadyExists("product", "id", p.ID)
	}
	r.products[p.ID] = cloneProduct(*p)
	return nil
}

func (r *productRepo) GetByID(_ context.Context, id string) (*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.products[id]
	if !ok {
		return nil, apperrors.NotFound("product", id)
	}
	p = cloneProduct(p)
	return &p, nil
}

// snapshot returns every product in natural (creation) order.
func (r *productRepo) snapshot() []domain.Product {
	out := make([]domain.Product, 0, len(r.products))
	for _, p := range r.products {
		out = append(out, cloneProduct(p))
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].CreatedAt.Compare(out[j].CreatedAt); c != 0 {
			return c < 0
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (r *productRepo) List(_ context.Context, desc *query.Descriptor) ([]domain.Product, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items, total := desc.Apply(r.snapshot())
	return items, total, nil
}

func (r *productRepo) Update(_ context.Context, p *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.products[p.ID]
	if !ok {
		return apperrors.NotFound("product", p.ID)
	}
	next := cloneProduct(*p)
	next.Rating = cur.Rating
	next.ReviewCount = cur.ReviewCount
	next.CreatedAt = cur.CreatedAt
	next.AuthorID = cur.AuthorID
	r.products[p.ID] = next

	p.Rating = cur.Rating
	p.ReviewCount = cur.ReviewCount
	return nil
}

func (r *productRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[id]; !ok {
		return apperrors.NotFound("product", id)
	}
	delete(r.products, id)
	return nil
}

func (r *productRepo) FindRelated(_ context.Context, filter *query.RelatedFilter) ([]domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Product, 0)
	for _, p := range r.snapshot() {
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
		if filter.Matches(&p) {
			out = append(out, p)
		}
	}
	return out, nil
}

// ─── reviews ────────────────────────────────────────────────────────────────

type reviewRepo Store

func (r *reviewRepo) Upsert(_ context.Context, review *domain.Review) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := authorKey(review.UserID, review.ProductID)
	if id, ok := r.byAuthor[key]; ok {
		cur := r.reviews[id]
		editedAt := review.UpdatedAt
		cur.Comment = review.Comment
		cur.Rating = review.Rating
		cur.IsEdited = true
		cur.EditedAt = &editedAt
		if cur.Status == domain.ReviewStatusDeleted {
			cur.Status = domain.ReviewStatusActive
		}
		cur.UpdatedAt = review.UpdatedAt
		r.reviews[id] = cur
		*review = cloneReview(cur)
		return false, nil
	}

	created := cloneReview(*review)
	created.Likes = []string{}
	created.IsEdited = false
	created.EditedAt = nil
	created.Status = domain.ReviewStatusActive
	r.reviews[created.ID] = created
	r.byAuthor[key] = created.ID
	*review = cloneReview(created)
	return true, nil
}

func (r *reviewRepo) GetByID(_ context.Context, id string) (*domain.Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rv, ok := r.reviews[id]
	if !ok {
		return nil, apperrors.NotFound("review", id)
	}
	rv = cloneReview(rv)
	return &rv, nil
}

// collect returns the reviews accepted by keep, newest first.
func (r *reviewRepo) collect(keep func(*domain.Review) bool) []domain.Review {
	out := make([]domain.Review, 0)
	for _, rv := range r.reviews {
		if keep(&rv) {
			out = append(out, cloneReview(rv))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].CreatedAt.Compare(out[j].CreatedAt); c != 0 {
			return c > 0
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (r *reviewRepo) ListByProduct(_ context.Context, productID string, status domain.ReviewStatus) ([]domain.Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.collect(func(rv *domain.Review) bool {
		return rv.ProductID == productID && rv.Status == status
	}), nil
}

func (r *reviewRepo) ListByUser(_ context.Context, userID string, status domain.ReviewStatus) ([]domain.Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.collect(func(rv *domain.Review) bool {
		return rv.UserID == userID && (status == "" || rv.Status == status)
	}), nil
}

func (r *reviewRepo) ListLikedBy(_ context.Context, userID string) ([]domain.Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.collect(func(rv *domain.Review) bool {
		return rv.IsActive() && slices.Contains(rv.Likes, userID)
	}), nil
}

func (r *reviewRepo) SoftDelete(_ context.Context, id, userID string) (*domain.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rv, ok := r.reviews[id]
	if !ok || rv.UserID != userID {
		return nil, apperrors.NotFound("review", id)
	}
	rv.Status = domain.ReviewStatusDeleted
	r.reviews[id] = rv
	rv = cloneReview(rv)
	return &rv, nil
}

func (r *reviewRepo) ToggleLike(_ context.Context, reviewID, userID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rv, ok := r.reviews[reviewID]
	if !ok || rv.Status == domain.ReviewStatusDeleted {
		return nil, apperrors.NotFound("review", reviewID)
	}
	rv.Likes, _ = domain.ToggleLike(rv.Likes, userID)
	r.reviews[reviewID] = rv
	return slices.Clone(rv.Likes), nil
}

func (r *reviewRepo) DeleteByProduct(_ context.Context, productID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for id, rv := range r.reviews {
		if rv.ProductID == productID {
			delete(r.reviews, id)
			delete(r.byAuthor, authorKey(rv.UserID, rv.ProductID))
			n++
		}
	}
	return n, nil
}

func (r *reviewRepo) Count(context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return int64(len(r.reviews)), nil
}

// ─── ratings ────────────────────────────────────────────────────────────────

type ratingStore Store

func (r *ratingStore) RecomputeRating(_ context.Context, productID string) (domain.RatingSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[productID]
	if !ok {
		return domain.RatingSummary{}, apperrors.NotFound("product", productID)
	}

	reviews := make([]domain.Review, 0)
	for _, rv := range r.reviews {
		if rv.ProductID == productID {
			reviews = append(reviews, rv)
		}
	}
	summary := domain.ComputeRatingSummary(reviews)

	p.Rating = summary.Average
	p.ReviewCount = summary.Count
	r.products[productID] = p
	return summary, nil
}
