package domain

import (
	"slices"
	"strings"
	"time"

	apperrors "github.com/febluxury/storefront/pkg/errors"
)

// ReviewStatus is the moderation state of a review.
type ReviewStatus string

// Review status constants.
const (
	ReviewStatusActive  ReviewStatus = "active"
	ReviewStatusHidden  ReviewStatus = "hidden"
	ReviewStatusDeleted ReviewStatus = "deleted"
)

// IsValid reports whether s is a known review status.
func (s ReviewStatus) IsValid() bool {
	switch s {
	case ReviewStatusActive, ReviewStatusHidden, ReviewStatusDeleted:
		return true
	}
	return false
}

// Rating bounds.
const (
	MinRating = 1
	MaxRating = 5
)

// Review is a user's review of a product. There is at most one review per
// (UserID, ProductID); resubmitting edits it in place.
type Review struct {
	ID        string       `json:"id"`
	ProductID string       `json:"productId"`
	UserID    string       `json:"userId"`
	Comment   string       `json:"comment"`
	Rating    int          `json:"rating"`
	Likes     []string     `json:"likes"`
	IsEdited  bool         `json:"isEdited"`
	EditedAt  *time.Time   `json:"editedAt,omitempty"`
	Status    ReviewStatus `json:"status"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// Validate checks the fields a submission must carry.
func (r *Review) Validate() error {
	if r.ProductID == "" {
		return apperrors.InvalidInput("product id is required")
	}
	if r.UserID == "" {
		return apperrors.InvalidInput("user id is required")
	}
	if strings.TrimSpace(r.Comment) == "" {
		return apperrors.InvalidInput("comment is required")
	}
	if r.Rating < MinRating || r.Rating > MaxRating {
		return apperrors.InvalidInputf("rating must be between %d and %d", MinRating, MaxRating)
	}
	return nil
}

// IsActive reports whether the review counts toward the product rating.
func (r *Review) IsActive() bool {
	return r.Status == ReviewStatusActive
}

// ToggleLike adds userID to likes if absent, otherwise removes every
// occurrence of it. It returns the new set and whether the user now likes
// the review. The input slice is not modified.
func ToggleLike(likes []string, userID string) ([]string, bool) {
	if slices.Contains(likes, userID) {
		out := make([]string, 0, len(likes))
		for _, id := range likes {
			if id != userID {
				out = append(out, id)
			}
		}
		return out, false
	}
	out := make([]string, 0, len(likes)+1)
	out = append(out, likes...)
	return append(out, userID), true
}

// RatingSummary is the derived rating of a product.
type RatingSummary struct {
	Average float64 `json:"rating"`
	Count   int     `json:"reviewCount"`
}

// ComputeRatingSummary returns the mean rating and count of the active
// reviews in reviews. The average is 0 when there are none.
func ComputeRatingSummary(reviews []Review) RatingSummary {
	var sum, n int
	for i := range reviews {
		if reviews[i].IsActive() {
			sum += reviews[i].Rating
			n++
		}
	}
	if n == 0 {
		return RatingSummary{}
	}
	return RatingSummary{Average: float64(sum) / float64(n), Count: n}
}
