package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/febluxury/storefront/internal/domain"
	"github.com/febluxury/storefront/pkg/database"
	apperrors "github.com/febluxury/storefront/pkg/errors"
)

// ReviewRepository implements repository.ReviewRepository on a MongoDB
// collection.
type ReviewRepository struct {
	coll *mongodriver.Collection
}

// NewReviewRepository creates a new MongoDB-backed review repository.
func NewReviewRepository(db *mongodriver.Database) *ReviewRepository {
	return &ReviewRepository{coll: db.Collection(reviewsCollection)}
}

func literal(v any) bson.D {
	return bson.D{{Key: "$literal", Value: v}}
}

// upsertPipeline edits the matched review in place or, when the upsert
// inserts, fills in a fresh one. Every expression in the single $set stage
// sees the document as it was before the update, so a missing createdAt
// identifies the insert.
func upsertPipeline(rv *domain.Review, now time.Time) mongodriver.Pipeline {
	isNew := bson.D{{Key: "$eq", Value: bson.A{
		bson.D{{Key: "$type", Value: "$createdAt"}}, "missing",
	}}}
	// A new or soft-deleted review becomes active; a hidden one stays hidden.
	reactivate := bson.D{{Key: "$eq", Value: bson.A{
		bson.D{{Key: "$ifNull", Value: bson.A{"$status", string(domain.ReviewStatusDeleted)}}},
		string(domain.ReviewStatusDeleted),
	}}}

	return mongodriver.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "_id", Value: bson.D{{Key: "$ifNull", Value: bson.A{"$_id", literal(rv.ID)}}}},
			{Key: "comment", Value: literal(rv.Comment)},
			{Key: "rating", Value: rv.Rating},
			{Key: "status", Value: bson.D{{Key: "$cond", Value: bson.A{
				reactivate, literal(string(domain.ReviewStatusActive)), "$status",
			}}}},
			{Key: "likes", Value: bson.D{{Key: "$ifNull", Value: bson.A{"$likes", bson.A{}}}}},
			{Key: "isEdited", Value: bson.D{{Key: "$cond", Value: bson.A{isNew, false, true}}}},
			{Key: "editedAt", Value: bson.D{{Key: "$cond", Value: bson.A{isNew, "$$REMOVE", now}}}},
			{Key: "createdAt", Value: bson.D{{Key: "$ifNull", Value: bson.A{"$createdAt", now}}}},
			{Key: "updatedAt", Value: now},
		}}},
	}
}

// Upsert creates or edits the review for (UserID, ProductID) in one
// conditional findOneAndUpdate backed by the unique {userId, productId}
// index.
func (r *ReviewRepository) Upsert(ctx context.Context, rv *domain.Review) (created bool, err error) {
	ctx, end := database.TraceQuery(ctx, database.SystemMongo, "UpsertReview", "reviews.findOneAndUpdate")
	defer func() { end(err) }()

	filter := bson.D{
		{Key: "userId", Value: rv.UserID},
		{Key: "productId", Value: rv.ProductID},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var doc reviewDoc
	if err = r.coll.FindOneAndUpdate(ctx, filter, upsertPipeline(rv, rv.UpdatedAt), opts).Decode(&doc); err != nil {
		return false, fmt.Errorf("upsert review: %w", err)
	}

	created = doc.ID == rv.ID && !doc.IsEdited
	*rv = doc.toDomain()
	return created, nil
}

// GetByID retrieves a review by its ID.
func (r *ReviewRepository) GetByID(ctx context.Context, id string) (_ *domain.Review, err error) {
	ctx, end := database.TraceQuery(ctx, database.SystemMongo, "GetReview", "reviews.findOne")
	defer func() { end(err) }()

	var doc reviewDoc
	if err = r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&doc); err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, apperrors.NotFound("review", id)
		}
		return nil, fmt.Errorf("find review: %w", err)
	}
	rv := doc.toDomain()
	return &rv, nil
}

// ListByProduct returns a product's reviews with the given status, newest
// first.
func (r *ReviewRepository) ListByProduct(ctx context.Context, productID string, status domain.ReviewStatus) (_ []domain.Review, err error) {
	ctx, end := database.TraceQuery(ctx, database.SystemMongo, "ListProductReviews", "reviews.find")
	defer func() { end(err) }()

	return r.find(ctx, bson.D{
		{Key: "productId", Value: productID},
		{Key: "status", Value: string(status)},
	})
}

// ListByUser returns a user's reviews, newest first. An empty status
// matches every status.
func (r *ReviewRepository) ListByUser(ctx context.Context, userID string, status domain.ReviewStatus) (_ []domain.Review, err error) {
	ctx, end := database.TraceQuery(ctx, database.SystemMongo, "ListUserReviews", "reviews.find")
	defer func() { end(err) }()

	filter := bson.D{{Key: "userId", Value: userID}}
	if status != "" {
		filter = append(filter, bson.E{Key: "status", Value: string(status)})
	}
	return r.find(ctx, filter)
}

// ListLikedBy returns the active reviews liked by userID, newest first.
func (r *ReviewRepository) ListLikedBy(ctx context.Context, userID string) (_ []domain.Review, err error) {
	ctx, end := database.TraceQuery(ctx, database.SystemMongo, "ListLikedReviews", "reviews.find")
	defer func() { end(err) }()

	return r.find(ctx, bson.D{
		{Key: "likes", Value: userID},
		{Key: "status", Value: string(domain.ReviewStatusActive)},
	})
}

func (r *ReviewRepository) find(ctx context.Context, filter bson.D) ([]domain.Review, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: "createdAt", Value: -1},
		{Key: "_id", Value: -1},
	})

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find reviews: %w", err)
	}

	var docs []reviewDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode reviews: %w", err)
	}

	reviews := make([]domain.Review, 0, len(docs))
	for i := range docs {
		reviews = append(reviews, docs[i].toDomain())
	}
	return reviews, nil
}

// SoftDelete marks the review deleted when it belongs to userID.
func (r *ReviewRepository) SoftDelete(ctx context.Context, id, userID string) (_ *domain.Review, err error) {
	ctx, end := database.TraceQuery(ctx, database.SystemMongo, "SoftDeleteReview", "reviews.findOneAndUpdate")
	defer func() { end(err) }()

	filter := bson.D{
		{Key: "_id", Value: id},
		{Key: "userId", Value: userID},
	}
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "status", Value: string(domain.ReviewStatusDeleted)},
		{Key: "updatedAt", Value: time.Now().UTC()},
	}}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc reviewDoc
	if err = r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, apperrors.NotFound("review", id)
		}
		return nil, fmt.Errorf("soft delete review: %w", err)
	}
	rv := doc.toDomain()
	return &rv, nil
}

// ToggleLike adds or removes userID from the review's likes in a single
// pipeline update.
func (r *ReviewRepository) ToggleLike(ctx context.Context, reviewID, userID string) (_ []string, err error) {
	ctx, end := database.TraceQuery(ctx, database.SystemMongo, "ToggleReviewLike", "reviews.findOneAndUpdate")
	defer func() { end(err) }()

	likes := bson.D{{Key: "$ifNull", Value: bson.A{"$likes", bson.A{}}}}
	user := literal(userID)
	pipeline := mongodriver.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "likes", Value: bson.D{{Key: "$cond", Value: bson.A{
				bson.D{{Key: "$in", Value: bson.A{user, likes}}},
				bson.D{{Key: "$filter", Value: bson.D{
					{Key: "input", Value: likes},
					{Key: "cond", Value: bson.D{{Key: "$ne", Value: bson.A{"$$this", user}}}},
				}}},
				bson.D{{Key: "$concatArrays", Value: bson.A{likes, bson.A{user}}}},
			}}}},
		}}},
	}

	filter := bson.D{
		{Key: "_id", Value: reviewID},
		{Key: "status", Value: bson.D{{Key: "$ne", Value: string(domain.ReviewStatusDeleted)}}},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc reviewDoc
	if err = r.coll.FindOneAndUpdate(ctx, filter, pipeline, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, apperrors.NotFound("review", reviewID)
		}
		return nil, fmt.Errorf("toggle review like: %w", err)
	}
	return doc.toDomain().Likes, nil
}

// DeleteByProduct hard-deletes every review of a product.
func (r *ReviewRepository) DeleteByProduct(ctx context.Context, productID string) (_ int64, err error) {
	ctx, end := database.TraceQuery(ctx, database.SystemMongo, "DeleteProductReviews", "reviews.deleteMany")
	defer func() { end(err) }()

	res, err := r.coll.DeleteMany(ctx, bson.D{{Key: "productId", Value: productID}})
	if err != nil {
		return 0, fmt.Errorf("delete product reviews: %w", err)
	}
	return res.DeletedCount, nil
}

// Count returns the number of review documents.
func (r *ReviewRepository) Count(ctx context.Context) (_ int64, err error) {
	ctx, end := database.TraceQuery(ctx, database.SystemMongo, "CountReviews", "reviews.countDocuments")
	defer func() { end(err) }()

	n, err := r.coll.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("count reviews: %w", err)
	}
	return n, nil
}
