package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/febluxury/storefront/internal/domain"
	"github.com/febluxury/storefront/internal/event"
	"github.com/febluxury/storefront/internal/repository"
	apperrors "github.com/febluxury/storefront/pkg/errors"
)

// PostReviewInput holds the parameters for submitting a review.
type PostReviewInput struct {
	ProductID string
	UserID    string
	Comment   string
	Rating    int
}

// PostReviewResult is the outcome of a review submission.
type PostReviewResult struct {
	Review  *domain.Review
	Created bool
	Summary domain.RatingSummary
	// Reviews are the product's active reviews after the write, newest
	// first.
	Reviews []domain.Review
}

// UserActivity is a user's own active reviews and the reviews they like.
type UserActivity struct {
	Reviews      []domain.Review `json:"reviews"`
	LikedReviews []domain.Review `json:"likedReviews"`
}

// ReviewService implements the business logic for review operations.
type ReviewService struct {
	reviews      repository.ReviewRepository
	products     repository.ProductRepository
	aggregator   *RatingAggregator
	producer     *event.Producer
	writeTimeout time.Duration
	logger       *slog.Logger
}

// NewReviewService creates a new review service.
func NewReviewService(
	reviews repository.ReviewRepository,
	products repository.ProductRepository,
	aggregator *RatingAggregator,
	producer *event.Producer,
	writeTimeout time.Duration,
	logger *slog.Logger,
) *ReviewService {
	return &ReviewService{
		reviews:      reviews,
		products:     products,
		aggregator:   aggregator,
		producer:     producer,
		writeTimeout: writeTimeout,
		logger:       logger,
	}
}

// PostReview creates the user's review of a product or, if they already
// reviewed it, edits that review. The product's rating is recomputed
// before returning.
func (s *ReviewService) PostReview(ctx context.Context, input *PostReviewInput) (*PostReviewResult, error) {
	now := time.Now().UTC()
	review := &domain.Review{
		ID:        uuid.New().String(),
		ProductID: input.ProductID,
		UserID:    input.UserID,
		Comment:   strings.TrimSpace(input.Comment),
		Rating:    input.Rating,
		Status:    domain.ReviewStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := review.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.products.GetByID(ctx, input.ProductID); err != nil {
		return nil, fmt.Errorf("get product for review: %w", err)
	}

	ctx, cancel := detach(ctx, s.writeTimeout)
	defer cancel()

	created, err := s.reviews.Upsert(ctx, review)
	if err != nil {
		return nil, fmt.Errorf("upsert review: %w", err)
	}

	summary, err := s.aggregator.Recompute(ctx, review.ProductID)
	if err != nil {
		return nil, err
	}

	if err := s.producer.PublishReviewSubmitted(ctx, review); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.submitted event",
			slog.String("review_id", review.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "review submitted",
		slog.String("review_id", review.ID),
		slog.String("product_id", review.ProductID),
		slog.String("user_id", review.UserID),
		slog.Bool("created", created),
	)

	reviews, err := s.reviews.ListByProduct(ctx, review.ProductID, domain.ReviewStatusActive)
	if err != nil {
		return nil, fmt.Errorf("list product reviews: %w", err)
	}

	return &PostReviewResult{
		Review:  review,
		Created: created,
		Summary: summary,
		Reviews: reviews,
	}, nil
}

// ListProductReviews returns a product's active reviews, newest first.
func (s *ReviewService) ListProductReviews(ctx context.Context, productID string) ([]domain.Review, error) {
	reviews, err := s.reviews.ListByProduct(ctx, productID, domain.ReviewStatusActive)
	if err != nil {
		return nil, fmt.Errorf("list product reviews: %w", err)
	}
	return reviews, nil
}

// ToggleLike likes the review for userID, or unlikes it if they already
// do, and returns the resulting like set. Ratings are unaffected.
func (s *ReviewService) ToggleLike(ctx context.Context, reviewID, userID string) ([]string, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("user id is required")
	}

	ctx, cancel := detach(ctx, s.writeTimeout)
	defer cancel()

	likes, err := s.reviews.ToggleLike(ctx, reviewID, userID)
	if err != nil {
		return nil, fmt.Errorf("toggle review like: %w", err)
	}
	return likes, nil
}

// DeleteReview soft-deletes a review owned by userID and recomputes the
// product's rating. A review owned by someone else is reported as not
// found.
func (s *ReviewService) DeleteReview(ctx context.Context, reviewID, userID string) error {
	ctx, cancel := detach(ctx, s.writeTimeout)
	defer cancel()

	review, err := s.reviews.SoftDelete(ctx, reviewID, userID)
	if err != nil {
		return fmt.Errorf("soft delete review: %w", err)
	}

	if _, err := s.aggregator.Recompute(ctx, review.ProductID); err != nil {
		return err
	}

	if err := s.producer.PublishReviewDeleted(ctx, review); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.deleted event",
			slog.String("review_id", review.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "review deleted",
		slog.String("review_id", review.ID),
		slog.String("product_id", review.ProductID),
	)

	return nil
}

// TotalReviews counts every stored review.
func (s *ReviewService) TotalReviews(ctx context.Context) (int64, error) {
	n, err := s.reviews.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count reviews: %w", err)
	}
	return n, nil
}

// UserReviews returns every review written by userID, newest first. A user
// without reviews is reported as not found.
func (s *ReviewService) UserReviews(ctx context.Context, userID string) ([]domain.Review, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("user id is required")
	}

	reviews, err := s.reviews.ListByUser(ctx, userID, "")
	if err != nil {
		return nil, fmt.Errorf("list user reviews: %w", err)
	}
	if len(reviews) == 0 {
		return nil, apperrors.NotFound("reviews for user", userID)
	}
	return reviews, nil
}

// UserActivity returns userID's active reviews and the active reviews
// they like.
func (s *ReviewService) UserActivity(ctx context.Context, userID string) (*UserActivity, error) {
	own, err := s.reviews.ListByUser(ctx, userID, domain.ReviewStatusActive)
	if err != nil {
		return nil, fmt.Errorf("list user reviews: %w", err)
	}

	liked, err := s.reviews.ListLikedBy(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list liked reviews: %w", err)
	}

	return &UserActivity{Reviews: own, LikedReviews: liked}, nil
}
