package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/febluxury/storefront/internal/service"
	apperrors "github.com/febluxury/storefront/pkg/errors"
	"github.com/febluxury/storefront/pkg/httputil"
	"github.com/febluxury/storefront/pkg/middleware"
	"github.com/febluxury/storefront/pkg/validator"
)

// ReviewHandler handles HTTP requests for review endpoints.
type ReviewHandler struct {
	service *service.ReviewService
	logger  *slog.Logger
}

// NewReviewHandler creates a new review HTTP handler.
func NewReviewHandler(svc *service.ReviewService, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{
		service: svc,
		logger:  logger,
	}
}

// PostReviewRequest is the JSON request body for submitting a review. The
// author is taken from the token, never from the body.
type PostReviewRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Comment   string `json:"comment" validate:"required,max=2000"`
	Rating    int    `json:"rating" validate:"required,min=1,max=5"`
}

// ListProductReviews handles GET /api/reviews/product/{productId}
func (h *ReviewHandler) ListProductReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.service.ListProductReviews(r.Context(), chi.URLParam(r, "productId"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, httputil.Payload{"reviews": reviews})
}

// PostReview handles POST /api/reviews/post-review
func (h *ReviewHandler) PostReview(w http.ResponseWriter, r *http.Request) {
	var req PostReviewRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		httputil.WriteError(w, r, apperrors.Unauthorized("user authentication failed, please login again"), h.logger)
		return
	}

	res, err := h.service.PostReview(r.Context(), &service.PostReviewInput{
		ProductID: req.ProductID,
		UserID:    userID,
		Comment:   req.Comment,
		Rating:    req.Rating,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, httputil.Payload{
		"message":     "review processed successfully",
		"created":     res.Created,
		"review":      res.Review,
		"reviews":     res.Reviews,
		"rating":      res.Summary.Average,
		"reviewCount": res.Summary.Count,
	})
}

// ToggleLike handles POST /api/reviews/{reviewId}/like
func (h *ReviewHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	likes, err := h.service.ToggleLike(r.Context(), chi.URLParam(r, "reviewId"), middleware.UserIDFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, httputil.Payload{"likes": likes})
}

// DeleteReview handles DELETE /api/reviews/{reviewId}
func (h *ReviewHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	err := h.service.DeleteReview(r.Context(), chi.URLParam(r, "reviewId"), middleware.UserIDFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, httputil.Payload{"message": "review deleted successfully"})
}

// TotalReviews handles GET /api/reviews/total-reviews
func (h *ReviewHandler) TotalReviews(w http.ResponseWriter, r *http.Request) {
	total, err := h.service.TotalReviews(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, httputil.Payload{"totalReviews": total})
}

// UserReviews handles GET /api/reviews/user/{userId}
func (h *ReviewHandler) UserReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.service.UserReviews(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, httputil.Payload{"reviews": reviews})
}

// UserActivity handles GET /api/reviews/user/{userId}/activity
func (h *ReviewHandler) UserActivity(w http.ResponseWriter, r *http.Request) {
	activity, err := h.service.UserActivity(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, httputil.Payload{
		"reviews":      activity.Reviews,
		"likedReviews": activity.LikedReviews,
	})
}
