// Package mongo is the MongoDB store backend.
package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/febluxury/storefront/internal/repository"
)

// Store wires the MongoDB repositories over one database.
type Store struct {
	client   *mongodriver.Client
	db       *mongodriver.Database
	products *ProductRepository
	reviews  *ReviewRepository
	ratings  *RatingStore
}

var _ repository.Store = (*Store)(nil)

// NewStore creates a store over the named database of client.
func NewStore(client *mongodriver.Client, database string) *Store {
	return newStore(client, client.Database(database))
}

func newStore(client *mongodriver.Client, db *mongodriver.Database) *Store {
	return &Store{
		client:   client,
		db:       db,
		products: NewProductRepository(db),
		reviews:  NewReviewRepository(db),
		ratings:  NewRatingStore(db),
	}
}

func (s *Store) Products() repository.ProductRepository { return s.products }
func (s *Store) Reviews() repository.ReviewRepository   { return s.reviews }
func (s *Store) Ratings() repository.RatingStore        { return s.ratings }

// indexModels lists the indexes Migrate ensures, by collection.
func indexModels() map[string][]mongodriver.IndexModel {
	return map[string][]mongodriver.IndexModel{
		reviewsCollection: {
			{
				Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "productId", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("user_product_unique"),
			},
			{Keys: bson.D{{Key: "productId", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "likes", Value: 1}}},
		},
		productsCollection: {
			{Keys: bson.D{{Key: "category", Value: 1}, {Key: "subcategory", Value: 1}}},
			{Keys: bson.D{{Key: "price", Value: 1}}},
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		},
	}
}

// Migrate creates the collection indexes. It is idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	for _, coll := range []string{reviewsCollection, productsCollection} {
		if _, err := s.db.Collection(coll).Indexes().CreateMany(ctx, indexModels()[coll]); err != nil {
			return fmt.Errorf("create %s indexes: %w", coll, err)
		}
	}
	return nil
}

// Ping checks the primary is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
