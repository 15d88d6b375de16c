package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/febluxury/storefront/internal/domain"
	"github.com/febluxury/storefront/pkg/database"
	apperrors "github.com/febluxury/storefront/pkg/errors"
)

// RatingStore recomputes product ratings inside a transaction that holds
// the product row lock, so concurrent recomputes for one product run one
// after another and the last one sees every committed review.
type RatingStore struct {
	pool database.DBTX
}

// NewRatingStore creates a new PostgreSQL-backed rating store.
func NewRatingStore(pool database.DBTX) *RatingStore {
	return &RatingStore{pool: pool}
}

// RecomputeRating writes the mean and count of the product's active
// reviews onto the product row and returns them.
func (s *RatingStore) RecomputeRating(ctx context.Context, productID string) (_ domain.RatingSummary, err error) {
	ctx, end := database.TraceQuery(ctx, database.SystemPostgres, "RecomputeRating", "UPDATE products FROM reviews")
	defer func() { end(err) }()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return domain.RatingSummary{}, fmt.Errorf("begin recompute tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var id string
	if err = tx.QueryRow(ctx, `SELECT id FROM products WHERE id = $1 FOR UPDATE`, productID).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.RatingSummary{}, apperrors.NotFound("product", productID)
		}
		return domain.RatingSummary{}, fmt.Errorf("lock product: %w", err)
	}

	query := `
		UPDATE products p
		SET rating = agg.avg_rating, review_count = agg.active_count
		FROM (
			SELECT COALESCE(AVG(rating), 0)::float8 AS avg_rating, count(*)::int AS active_count
			FROM reviews
			WHERE product_id = $1 AND status = 'active'
		) agg
		WHERE p.id = $1
		RETURNING p.rating, p.review_count`

	var summary domain.RatingSummary
	if err = tx.QueryRow(ctx, query, productID).Scan(&summary.Average, &summary.Count); err != nil {
		return domain.RatingSummary{}, fmt.Errorf("write rating: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return domain.RatingSummary{}, fmt.Errorf("commit recompute tx: %w", err)
	}
	return summary, nil
}
