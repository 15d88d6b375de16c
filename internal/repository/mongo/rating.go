package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/febluxury/storefront/internal/domain"
	"github.com/febluxury/storefront/pkg/database"
	apperrors "github.com/febluxury/storefront/pkg/errors"
)

// RatingStore recomputes product ratings with a server-side aggregation.
type RatingStore struct {
	products *mongodriver.Collection
}

// NewRatingStore creates a new MongoDB-backed rating store.
func NewRatingStore(db *mongodriver.Database) *RatingStore {
	return &RatingStore{products: db.Collection(productsCollection)}
}

// recomputePipeline joins the product with the average and count of its
// active reviews and merges the result back onto the product document.
func recomputePipeline(productID string) mongodriver.Pipeline {
	activeReviews := bson.A{
		bson.D{{Key: "$match", Value: bson.D{{Key: "$expr", Value: bson.D{{Key: "$and", Value: bson.A{
			bson.D{{Key: "$eq", Value: bson.A{"$productId", "$$pid"}}},
			bson.D{{Key: "$eq", Value: bson.A{"$status", string(domain.ReviewStatusActive)}}},
		}}}}}}},
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "avg", Value: bson.D{{Key: "$avg", Value: "$rating"}}},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}

	firstOrZero := func(path string) bson.D {
		return bson.D{{Key: "$ifNull", Value: bson.A{
			bson.D{{Key: "$arrayElemAt", Value: bson.A{path, 0}}}, 0,
		}}}
	}

	return mongodriver.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "_id", Value: productID}}}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: reviewsCollection},
			{Key: "let", Value: bson.D{{Key: "pid", Value: "$_id"}}},
			{Key: "pipeline", Value: activeReviews},
			{Key: "as", Value: "summary"},
		}}},
		{{Key: "$project", Value: bson.D{
			{Key: "rating", Value: firstOrZero("$summary.avg")},
			{Key: "reviewCount", Value: firstOrZero("$summary.count")},
		}}},
		{{Key: "$merge", Value: bson.D{
			{Key: "into", Value: productsCollection},
			{Key: "on", Value: "_id"},
			{Key: "whenMatched", Value: "merge"},
			{Key: "whenNotMatched", Value: "discard"},
		}}},
	}
}

// RecomputeRating runs the recompute pipeline for one product and reads
// back the stored result.
func (s *RatingStore) RecomputeRating(ctx context.Context, productID string) (_ domain.RatingSummary, err error) {
	ctx, end := database.TraceQuery(ctx, database.SystemMongo, "RecomputeRating", "products.aggregate")
	defer func() { end(err) }()

	cursor, err := s.products.Aggregate(ctx, recomputePipeline(productID))
	if err != nil {
		return domain.RatingSummary{}, fmt.Errorf("recompute rating: %w", err)
	}
	if err = cursor.Close(ctx); err != nil {
		return domain.RatingSummary{}, fmt.Errorf("close recompute cursor: %w", err)
	}

	var doc struct {
		Rating      float64 `bson:"rating"`
		ReviewCount int     `bson:"reviewCount"`
	}
	opts := options.FindOne().SetProjection(bson.D{
		{Key: "rating", Value: 1},
		{Key: "reviewCount", Value: 1},
	})
	if err = s.products.FindOne(ctx, bson.D{{Key: "_id", Value: productID}}, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return domain.RatingSummary{}, apperrors.NotFound("product", productID)
		}
		return domain.RatingSummary{}, fmt.Errorf("read recomputed rating: %w", err)
	}

	return domain.RatingSummary{Average: doc.Rating, Count: doc.ReviewCount}, nil
}
