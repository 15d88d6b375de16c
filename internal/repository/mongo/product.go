package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/febluxury/storefront/internal/domain"
	"github.com/febluxury/storefront/internal/query"
	"github.com/febluxury/storefront/pkg/database"
	apperrors "github.com/febluxury/storefront/pkg/errors"
)

// ProductRepository implements repository.ProductRepository on a MongoDB
// collection.
type ProductRepository struct {
	coll *mongodriver.Collection
}

// NewProductRepository creates a new MongoDB-backed product repository.
func NewProductRepository(db *mongodriver.Database) *ProductRepository {
	return &ProductRepository{coll: db.Collection(productsCollection)}
}

// Create inserts a new product document.
func (r *ProductRepository) Create(ctx context.Context, p *domain.Product) (err error) {
	ctx, end := database.TraceQuery(ctx, database.SystemMongo, "CreateProduct", "products.insertOne")
	defer func() { end(err) }()

	if _, err = r.coll.InsertOne(ctx, newProductDoc(p)); err != nil {
		if mongodriver.IsDuplicateKeyError(err) {
			return apperrors.AlreadyExists("product", "id", p.ID)
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// GetByID retrieves a product by its ID.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (_ *domain.Product, err error) {
	ctx, end := database.TraceQuery(ctx, database.SystemMongo, "GetProduct", "products.findOne")
	defer func() { end(err) }()

	var doc productDoc
	if err = r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&doc); err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, apperrors.NotFound("product", id)
		}
		return nil, fmt.Errorf("find product: %w", err)
	}
	p := doc.toDomain()
	return &p, nil
}

// List returns one page of products matching desc and the total number of
// matches.
func (r *ProductRepository) List(ctx context.Context, desc *query.Descriptor) (_ []domain.Product, _ int, err error) {
	ctx, end := database.TraceQuery(ctx, database.SystemMongo, "ListProducts", "products.find")
	defer func() { end(err) }()

	filter := productFilter(&desc.Filter)

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	opts := options.Find().
		SetSort(sortDoc(desc.Sort)).
		SetSkip(int64(desc.Skip())).
		SetLimit(int64(desc.Limit()))

	products, err := r.find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	return products, int(total), nil
}

// Update overwrites the admin-editable fields of a product. The derived
// rating fields are never written here.
func (r *ProductRepository) Update(ctx context.Context, p *domain.Product) (err error) {
	ctx, end := database.TraceQuery(ctx, database.SystemMongo, "UpdateProduct", "products.findOneAndUpdate")
	defer func() { end(err) }()

	p.UpdatedAt = time.Now().UTC()
	doc := newProductDoc(p)

	set := bson.D{
		{Key: "name", Value: doc.Name},
		{Key: "category", Value: doc.Category},
		{Key: "subcategory", Value: doc.Subcategory},
		{Key: "description", Value: doc.Description},
		{Key: "price", Value: doc.Price},
		{Key: "oldPrice", Value: doc.OldPrice},
		{Key: "image", Value: doc.Image},
		{Key: "gallery", Value: doc.Gallery},
		{Key: "stock", Value: doc.Stock},
		{Key: "delivery", Value: doc.Delivery},
		{Key: "updatedAt", Value: doc.UpdatedAt},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var stored productDoc
	err = r.coll.FindOneAndUpdate(ctx, bson.D{{Key: "_id", Value: p.ID}}, bson.D{{Key: "$set", Value: set}}, opts).Decode(&stored)
	if err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return apperrors.NotFound("product", p.ID)
		}
		return fmt.Errorf("update product: %w", err)
	}

	*p = stored.toDomain()
	return nil
}

// Delete removes a product document by its ID.
func (r *ProductRepository) Delete(ctx context.Context, id string) (err error) {
	ctx, end := database.TraceQuery(ctx, database.SystemMongo, "DeleteProduct", "products.deleteOne")
	defer func() { end(err) }()

	res, err := r.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if res.DeletedCount == 0 {
		return apperrors.NotFound("product", id)
	}
	return nil
}

// FindRelated returns products other than the source whose name matches
// the source's name tokens or that share its category.
func (r *ProductRepository) FindRelated(ctx context.Context, f *query.RelatedFilter) (_ []domain.Product, err error) {
	ctx, end := database.TraceQuery(ctx, database.SystemMongo, "FindRelated", "products.find")
	defer func() { end(err) }()

	opts := options.Find()
	if f.Limit > 0 {
		opts.SetLimit(int64(f.Limit))
	}

	products, err := r.find(ctx, relatedFilter(f), opts)
	if err != nil {
		return nil, fmt.Errorf("find related products: %w", err)
	}
	return products, nil
}

func (r *ProductRepository) find(ctx context.Context, filter bson.D, opts *options.FindOptions) ([]domain.Product, error) {
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}

	var docs []productDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	products := make([]domain.Product, 0, len(docs))
	for i := range docs {
		products = append(products, docs[i].toDomain())
	}
	return products, nil
}

// productFilter translates a query filter into a MongoDB filter document.
func productFilter(f *query.Filter) bson.D {
	filter := bson.D{}

	if f.Category != "" {
		filter = append(filter, bson.E{Key: "category", Value: f.Category})
	}
	if f.Subcategory != "" {
		filter = append(filter, bson.E{Key: "subcategory", Value: f.Subcategory})
	}

	if f.MinPrice != nil || f.MaxPrice != nil {
		price := bson.D{}
		if f.MinPrice != nil {
			price = append(price, bson.E{Key: "$gte", Value: *f.MinPrice})
		}
		if f.MaxPrice != nil {
			price = append(price, bson.E{Key: "$lte", Value: *f.MaxPrice})
		}
		filter = append(filter, bson.E{Key: "price", Value: price})
	}

	if f.Text != "" {
		re := containsRegex(f.Text)
		filter = append(filter, bson.E{Key: "$or", Value: bson.A{
			bson.D{{Key: "name", Value: re}},
			bson.D{{Key: "description", Value: re}},
			bson.D{{Key: "category", Value: re}},
			bson.D{{Key: "subcategory", Value: re}},
		}})
	}

	return filter
}

func relatedFilter(f *query.RelatedFilter) bson.D {
	filter := bson.D{{Key: "_id", Value: bson.D{{Key: "$ne", Value: f.ExcludeID}}}}
	if f.NamePattern == "" {
		return append(filter, bson.E{Key: "category", Value: f.Category})
	}
	return append(filter, bson.E{Key: "$or", Value: bson.A{
		bson.D{{Key: "name", Value: bson.D{
			{Key: "$regex", Value: f.NamePattern},
			{Key: "$options", Value: "i"},
		}}},
		bson.D{{Key: "category", Value: f.Category}},
	}})
}

// containsRegex matches text literally and case-insensitively.
func containsRegex(text string) bson.D {
	return bson.D{
		{Key: "$regex", Value: regexp.QuoteMeta(text)},
		{Key: "$options", Value: "i"},
	}
}

// sortDoc orders by the requested field, then by _id for a stable order.
func sortDoc(s query.Sort) bson.D {
	dir := 1
	if s.Desc {
		dir = -1
	}
	return bson.D{
		{Key: s.Field, Value: dir},
		{Key: "_id", Value: dir},
	}
}
