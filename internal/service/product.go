package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/febluxury/storefront/internal/domain"
	"github.com/febluxury/storefront/internal/event"
	"github.com/febluxury/storefront/internal/query"
	"github.com/febluxury/storefront/internal/repository"
	"github.com/febluxury/storefront/pkg/pagination"
)

// Defaults for ProductOptions.
const (
	DefaultRelatedLimit = 20
	DefaultSearchLimit  = 20
)

// ProductOptions tunes ProductService.
type ProductOptions struct {
	RelatedLimit  int
	SearchLimit   int
	WriteTimeout  time.Duration
	ImageOwnHosts []string
}

// ProductService implements the business logic for product operations.
type ProductService struct {
	products repository.ProductRepository
	reviews  repository.ReviewRepository
	taxonomy *domain.Taxonomy
	producer *event.Producer
	opts     ProductOptions
	logger   *slog.Logger
}

// NewProductService creates a new product service.
func NewProductService(
	products repository.ProductRepository,
	reviews repository.ReviewRepository,
	taxonomy *domain.Taxonomy,
	producer *event.Producer,
	opts ProductOptions,
	logger *slog.Logger,
) *ProductService {
	if opts.RelatedLimit <= 0 {
		opts.RelatedLimit = DefaultRelatedLimit
	}
	if opts.SearchLimit <= 0 {
		opts.SearchLimit = DefaultSearchLimit
	}
	return &ProductService{
		products: products,
		reviews:  reviews,
		taxonomy: taxonomy,
		producer: producer,
		opts:     opts,
		logger:   logger,
	}
}

// CreateProductInput holds the parameters for creating a product.
type CreateProductInput struct {
	Name        string
	Category    string
	Subcategory string
	Description string
	Price       float64
	OldPrice    *float64
	Image       string
	Gallery     []string
	Stock       domain.Stock
	Delivery    domain.Delivery
	AuthorID    *string
}

// ListProducts runs the catalog query described by params.
func (s *ProductService) ListProducts(ctx context.Context, params url.Values) (pagination.Result[domain.Product], error) {
	desc, err := query.Build(params, s.taxonomy)
	if err != nil {
		return pagination.Result[domain.Product]{}, err
	}

	products, total, err := s.products.List(ctx, desc)
	if err != nil {
		return pagination.Result[domain.Product]{}, fmt.Errorf("list products: %w", err)
	}

	return query.NewPage(products, total, desc), nil
}

// SearchProducts returns up to the configured number of products whose
// text fields contain text, newest first.
func (s *ProductService) SearchProducts(ctx context.Context, text string) ([]domain.Product, error) {
	desc, err := query.BuildSearch(text, s.opts.SearchLimit)
	if err != nil {
		return nil, err
	}

	products, _, err := s.products.List(ctx, desc)
	if err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}
	return products, nil
}

// GetProduct retrieves a product by its ID.
func (s *ProductService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product by id: %w", err)
	}
	return product, nil
}

// GetProductDetail retrieves a product together with its active reviews,
// newest first.
func (s *ProductService) GetProductDetail(ctx context.Context, id string) (*domain.ProductDetail, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product by id: %w", err)
	}

	reviews, err := s.reviews.ListByProduct(ctx, id, domain.ReviewStatusActive)
	if err != nil {
		return nil, fmt.Errorf("list product reviews: %w", err)
	}

	return &domain.ProductDetail{Product: *product, Reviews: reviews}, nil
}

// FindRelated returns products sharing the source product's category or a
// name token, capped at the configured limit.
func (s *ProductService) FindRelated(ctx context.Context, id string) ([]domain.Product, error) {
	source, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product for related: %w", err)
	}

	related, err := s.products.FindRelated(ctx, query.NewRelatedFilter(source, s.opts.RelatedLimit))
	if err != nil {
		return nil, fmt.Errorf("find related products: %w", err)
	}
	return related, nil
}

// CreateProduct normalizes, validates and stores a new product.
func (s *ProductService) CreateProduct(ctx context.Context, input *CreateProductInput) (*domain.Product, error) {
	now := time.Now().UTC()
	product := &domain.Product{
		ID:          uuid.New().String(),
		Name:        input.Name,
		Category:    input.Category,
		Subcategory: input.Subcategory,
		Description: input.Description,
		Price:       input.Price,
		OldPrice:    input.OldPrice,
		Image:       input.Image,
		Gallery:     input.Gallery,
		Stock:       input.Stock,
		Delivery:    input.Delivery,
		AuthorID:    input.AuthorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	product.Normalize()
	product.NormalizeImages(s.opts.ImageOwnHosts)
	if err := product.Validate(s.taxonomy); err != nil {
		return nil, err
	}

	ctx, cancel := detach(ctx, s.opts.WriteTimeout)
	defer cancel()

	if err := s.products.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	if err := s.producer.PublishProductCreated(ctx, product); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish product.created event",
			slog.String("product_id", product.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "product created",
		slog.String("product_id", product.ID),
		slog.String("category", product.Category),
	)

	return product, nil
}

// UpdateProduct applies a partial update to an existing product. The
// derived rating fields are never changed here.
func (s *ProductService) UpdateProduct(ctx context.Context, id string, patch *domain.ProductPatch) (*domain.Product, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product for update: %w", err)
	}

	patch.Apply(product)
	product.Normalize()
	product.NormalizeImages(s.opts.ImageOwnHosts)
	if err := product.Validate(s.taxonomy); err != nil {
		return nil, err
	}

	ctx, cancel := detach(ctx, s.opts.WriteTimeout)
	defer cancel()

	if err := s.products.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}

	if err := s.producer.PublishProductUpdated(ctx, product); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish product.updated event",
			slog.String("product_id", product.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "product updated",
		slog.String("product_id", product.ID),
	)

	return product, nil
}

// DeleteProduct removes a product and hard-deletes all of its reviews.
func (s *ProductService) DeleteProduct(ctx context.Context, id string) error {
	ctx, cancel := detach(ctx, s.opts.WriteTimeout)
	defer cancel()

	if err := s.products.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	removed, err := s.reviews.DeleteByProduct(ctx, id)
	if err != nil {
		return fmt.Errorf("delete product reviews: %w", err)
	}

	if err := s.producer.PublishProductDeleted(ctx, id, removed); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish product.deleted event",
			slog.String("product_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "product deleted",
		slog.String("product_id", id),
		slog.Int64("reviews_deleted", removed),
	)

	return nil
}

// Categories lists the catalog taxonomy.
func (s *ProductService) Categories() []domain.CategoryInfo {
	return s.taxonomy.Categories()
}
