package repository

import (
	"context"

	"github.com/febluxury/storefront/internal/domain"
	"github.com/febluxury/storefront/internal/query"
)

// ProductRepository defines the interface for product persistence operations.
type ProductRepository interface {
	// Create inserts a new product into the store.
	Create(ctx context.Context, product *domain.Product) error

	// GetByID retrieves a product by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Product, error)

	// List returns one page of products matching the descriptor along with
	// the total number of matches.
	List(ctx context.Context, desc *query.Descriptor) ([]domain.Product, int, error)

	// Update overwrites the admin-editable fields of an existing product.
	// Rating and ReviewCount are left untouched.
	Update(ctx context.Context, product *domain.Product) error

	// Delete removes a product from the store by its identifier.
	Delete(ctx context.Context, id string) error

	// FindRelated returns at most filter.Limit products selected by filter.
	FindRelated(ctx context.Context, filter *query.RelatedFilter) ([]domain.Product, error)
}

// ReviewRepository defines the interface for review persistence operations.
type ReviewRepository interface {
	// Upsert creates the review for (UserID, ProductID) or, when one already
	// exists, edits it in place: comment and rating are replaced, the review
	// is marked edited and re-activated. review is overwritten with the
	// stored state. created reports whether a new review was inserted.
	Upsert(ctx context.Context, review *domain.Review) (created bool, err error)

	// GetByID retrieves a review by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Review, error)

	// ListByProduct returns a product's reviews with the given status,
	// newest first.
	ListByProduct(ctx context.Context, productID string, status domain.ReviewStatus) ([]domain.Review, error)

	// ListByUser returns a user's reviews, newest first. An empty status
	// returns reviews in every status.
	ListByUser(ctx context.Context, userID string, status domain.ReviewStatus) ([]domain.Review, error)

	// ListLikedBy returns the active reviews liked by userID, newest first.
	ListLikedBy(ctx context.Context, userID string) ([]domain.Review, error)

	// SoftDelete marks the review deleted if it belongs to userID and
	// returns it.
	SoftDelete(ctx context.Context, id, userID string) (*domain.Review, error)

	// ToggleLike atomically adds or removes userID from the review's likes
	// and returns the resulting set.
	ToggleLike(ctx context.Context, reviewID, userID string) ([]string, error)

	// DeleteByProduct hard-deletes every review of a product.
	DeleteByProduct(ctx context.Context, productID string) (int64, error)

	// Count returns the number of stored reviews in any status.
	Count(ctx context.Context) (int64, error)
}

// RatingStore recomputes a product's derived rating from its reviews.
type RatingStore interface {
	// RecomputeRating sets the product's Rating to the mean of its active
	// review ratings (0 with none) and ReviewCount to their number, in one
	// store-side operation, and returns the new values.
	RecomputeRating(ctx context.Context, productID string) (domain.RatingSummary, error)
}

// Store bundles the repositories of one backend.
type Store interface {
	Products() ProductRepository
	Reviews() ReviewRepository
	Ratings() RatingStore

	// Migrate creates the schema or indexes the backend needs.
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
