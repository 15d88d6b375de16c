package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/febluxury/storefront/internal/domain"
	"github.com/febluxury/storefront/pkg/database"
	apperrors "github.com/febluxury/storefront/pkg/errors"
)

const reviewColumns = `id, product_id, user_id, comment, rating, likes, is_edited, edited_at, status, created_at, updated_at`

// ReviewRepository implements review persistence operations using PostgreSQL.
type ReviewRepository struct {
	pool database.DBTX
}

// NewReviewRepository creates a new PostgreSQL-backed review repository.
func NewReviewRepository(pool database.DBTX) *ReviewRepository {
	return &ReviewRepository{pool: pool}
}

// Upsert inserts the review or, when (user_id, product_id) already exists,
// edits it in place. xmax is zero only for a freshly inserted row.
func (r *ReviewRepository) Upsert(ctx context.Context, rv *domain.Review) (created bool, err error) {
	ctx, end := database.TraceQuery(ctx, database.SystemPostgres, "UpsertReview", "INSERT reviews ON CONFLICT")
	defer func() { end(err) }()

	query := `
		INSERT INTO reviews (id, product_id, user_id, comment, rating, likes, is_edited, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, '{}', FALSE, 'active', $6, $6)
		ON CONFLICT (user_id, product_id) DO UPDATE
		SET comment    = EXCLUDED.comment,
		    rating     = EXCLUDED.rating,
		    is_edited  = TRUE,
		    edited_at  = EXCLUDED.updated_at,
		    status     = CASE WHEN reviews.status = 'deleted' THEN 'active' ELSE reviews.status END,
		    updated_at = EXCLUDED.updated_at
		RETURNING ` + reviewColumns + `, (xmax = 0) AS inserted`

	var stored domain.Review
	err = scanReview(r.pool.QueryRow(ctx, query,
		rv.ID,
		rv.ProductID,
		rv.UserID,
		rv.Comment,
		rv.Rating,
		rv.UpdatedAt,
	), &stored, &created)
	if err != nil {
		if pgErrorCode(err) == foreignKeyViolation {
			return false, apperrors.NotFound("product", rv.ProductID)
		}
		return false, fmt.Errorf("upsert review: %w", err)
	}

	*rv = stored
	return created, nil
}

// GetByID retrieves a review by its ID.
func (r *ReviewRepository) GetByID(ctx context.Context, id string) (_ *domain.Review, err error) {
	ctx, end := database.TraceQuery(ctx, database.SystemPostgres, "GetReview", "SELECT reviews")
	defer func() { end(err) }()

	var rv domain.Review
	err = scanReview(r.pool.QueryRow(ctx, `SELECT `+reviewColumns+` FROM reviews WHERE id = $1`, id), &rv)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("review", id)
		}
		return nil, fmt.Errorf("get review: %w", err)
	}
	return &rv, nil
}

// ListByProduct returns a product's reviews with the given status, newest
// first.
func (r *ReviewRepository) ListByProduct(ctx context.Context, productID string, status domain.ReviewStatus) (_ []domain.Review, err error) {
	ctx, end := database.TraceQuery(ctx, database.SystemPostgres, "ListProductReviews", "SELECT reviews")
	defer func() { end(err) }()

	return r.list(ctx, `WHERE product_id = $1 AND status = $2`, productID, string(status))
}

// ListByUser returns a user's reviews, newest first. An empty status
// matches every status.
func (r *ReviewRepository) ListByUser(ctx context.Context, userID string, status domain.ReviewStatus) (_ []domain.Review, err error) {
	ctx, end := database.TraceQuery(ctx, database.SystemPostgres, "ListUserReviews", "SELECT reviews")
	defer func() { end(err) }()

	if status == "" {
		return r.list(ctx, `WHERE user_id = $1`, userID)
	}
	return r.list(ctx, `WHERE user_id = $1 AND status = $2`, userID, string(status))
}

// ListLikedBy returns the active reviews liked by userID, newest first.
func (r *ReviewRepository) ListLikedBy(ctx context.Context, userID string) (_ []domain.Review, err error) {
	ctx, end := database.TraceQuery(ctx, database.SystemPostgres, "ListLikedReviews", "SELECT reviews")
	defer func() { end(err) }()

	return r.list(ctx, `WHERE $1 = ANY(likes) AND status = 'active'`, userID)
}

func (r *ReviewRepository) list(ctx context.Context, where string, args ...any) ([]domain.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews ` + where + ` ORDER BY created_at DESC, id DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	reviews := make([]domain.Review, 0)
	for rows.Next() {
		var rv domain.Review
		if err := scanReview(rows, &rv); err != nil {
			return nil, fmt.Errorf("scan review row: %w", err)
		}
		reviews = append(reviews, rv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate review rows: %w", err)
	}

	return reviews, nil
}

// SoftDelete marks the review deleted when it belongs to userID.
func (r *ReviewRepository) SoftDelete(ctx context.Context, id, userID string) (_ *domain.Review, err error) {
	ctx, end := database.TraceQuery(ctx, database.SystemPostgres, "SoftDeleteReview", "UPDATE reviews")
	defer func() { end(err) }()

	query := `
		UPDATE reviews
		SET status = 'deleted', updated_at = $3
		WHERE id = $1 AND user_id = $2
		RETURNING ` + reviewColumns

	var rv domain.Review
	if err = scanReview(r.pool.QueryRow(ctx, query, id, userID, time.Now().UTC()), &rv); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("review", id)
		}
		return nil, fmt.Errorf("soft delete review: %w", err)
	}
	return &rv, nil
}

// ToggleLike adds or removes userID from the review's likes in one UPDATE.
func (r *ReviewRepository) ToggleLike(ctx context.Context, reviewID, userID string) (_ []string, err error) {
	ctx, end := database.TraceQuery(ctx, database.SystemPostgres, "ToggleReviewLike", "UPDATE reviews")
	defer func() { end(err) }()

	query := `
		UPDATE reviews
		SET likes = CASE
		        WHEN $2::text = ANY(likes) THEN array_remove(likes, $2::text)
		        ELSE array_append(likes, $2::text)
		    END
		WHERE id = $1 AND status <> 'deleted'
		RETURNING likes`

	var likes []string
	if err = r.pool.QueryRow(ctx, query, reviewID, userID).Scan(&likes); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("review", reviewID)
		}
		return nil, fmt.Errorf("toggle review like: %w", err)
	}
	return nonNil(likes), nil
}

// DeleteByProduct hard-deletes every review of a product.
func (r *ReviewRepository) DeleteByProduct(ctx context.Context, productID string) (_ int64, err error) {
	ctx, end := database.TraceQuery(ctx, database.SystemPostgres, "DeleteProductReviews", "DELETE reviews")
	defer func() { end(err) }()

	ct, err := r.pool.Exec(ctx, `DELETE FROM reviews WHERE product_id = $1`, productID)
	if err != nil {
		return 0, fmt.Errorf("delete product reviews: %w", err)
	}
	return ct.RowsAffected(), nil
}

// Count returns the number of stored reviews.
func (r *ReviewRepository) Count(ctx context.Context) (_ int64, err error) {
	ctx, end := database.TraceQuery(ctx, database.SystemPostgres, "CountReviews", "SELECT count reviews")
	defer func() { end(err) }()

	var n int64
	if err = r.pool.QueryRow(ctx, `SELECT count(*) FROM reviews`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count reviews: %w", err)
	}
	return n, nil
}

// scanReview scans reviewColumns, followed by any extra destinations.
func scanReview(row rowScanner, rv *domain.Review, extra ...any) error {
	var status string
	dest := []any{
		&rv.ID,
		&rv.ProductID,
		&rv.UserID,
		&rv.Comment,
		&rv.Rating,
		&rv.Likes,
		&rv.IsEdited,
		&rv.EditedAt,
		&status,
		&rv.CreatedAt,
		&rv.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return err
	}
	rv.Status = domain.ReviewStatus(status)
	rv.Likes = nonNil(rv.Likes)
	return nil
}
