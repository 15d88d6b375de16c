// Package event publishes catalog and review domain events.
package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/febluxury/storefront/internal/domain"
	pkgkafka "github.com/febluxury/storefront/pkg/kafka"
	"github.com/febluxury/storefront/pkg/logger"
)

// Kafka topic constants for storefront domain events.
const (
	TopicProductCreated       = "ecommerce.product.created"
	TopicProductUpdated       = "ecommerce.product.updated"
	TopicProductDeleted       = "ecommerce.product.deleted"
	TopicProductRatingUpdated = "ecommerce.product.rating_updated"
	TopicReviewSubmitted      = "ecommerce.review.submitted"
	TopicReviewDeleted        = "ecommerce.review.deleted"
)

// Aggregate type constants.
const (
	AggregateTypeProduct = "product"
	AggregateTypeReview  = "review"
)

// SourceStorefront identifies events originating from this service.
const SourceStorefront = "storefront"

// Publisher delivers one event to a topic. *pkgkafka.Producer satisfies it.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// ProductData is the payload for product.created and product.updated.
type ProductData struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Category    string   `json:"category"`
	Subcategory string   `json:"subcategory,omitempty"`
	Price       float64  `json:"price"`
	OldPrice    *float64 `json:"old_price,omitempty"`
	StockStatus string   `json:"stock_status"`
	AuthorID    *string  `json:"author_id,omitempty"`
}

// ProductDeletedData is the payload for a product.deleted event.
type ProductDeletedData struct {
	ID             string `json:"id"`
	ReviewsDeleted int64  `json:"reviews_deleted"`
}

// RatingUpdatedData is the payload for a product.rating_updated event.
type RatingUpdatedData struct {
	ProductID   string  `json:"product_id"`
	Rating      float64 `json:"rating"`
	ReviewCount int     `json:"review_count"`
}

// ReviewData is the payload for review.submitted and review.deleted.
type ReviewData struct {
	ID        string `json:"id"`
	ProductID string `json:"product_id"`
	UserID    string `json:"user_id"`
	Rating    int    `json:"rating"`
	Status    string `json:"status"`
	Edited    bool   `json:"edited"`
}

// Producer publishes storefront domain events.
type Producer struct {
	publisher Publisher
	logger    *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(publisher Publisher, logger *slog.Logger) *Producer {
	return &Producer{
		publisher: publisher,
		logger:    logger,
	}
}

func productData(p *domain.Product) ProductData {
	return ProductData{
		ID:          p.ID,
		Name:        p.Name,
		Category:    p.Category,
		Subcategory: p.Subcategory,
		Price:       p.Price,
		OldPrice:    p.OldPrice,
		StockStatus: string(p.Stock.Status),
		AuthorID:    p.AuthorID,
	}
}

func reviewData(rv *domain.Review) ReviewData {
	return ReviewData{
		ID:        rv.ID,
		ProductID: rv.ProductID,
		UserID:    rv.UserID,
		Rating:    rv.Rating,
		Status:    string(rv.Status),
		Edited:    rv.IsEdited,
	}
}

// PublishProductCreated publishes a product.created event.
func (p *Producer) PublishProductCreated(ctx context.Context, product *domain.Product) error {
	return p.publish(ctx, TopicProductCreated, product.ID, AggregateTypeProduct, productData(product), nil)
}

// PublishProductUpdated publishes a product.updated event.
func (p *Producer) PublishProductUpdated(ctx context.Context, product *domain.Product) error {
	return p.publish(ctx, TopicProductUpdated, product.ID, AggregateTypeProduct, productData(product), nil)
}

// PublishProductDeleted publishes a product.deleted event.
func (p *Producer) PublishProductDeleted(ctx context.Context, id string, reviewsDeleted int64) error {
	data := ProductDeletedData{ID: id, ReviewsDeleted: reviewsDeleted}
	return p.publish(ctx, TopicProductDeleted, id, AggregateTypeProduct, data, nil)
}

// PublishRatingUpdated publishes a product.rating_updated event.
func (p *Producer) PublishRatingUpdated(ctx context.Context, productID string, summary domain.RatingSummary) error {
	data := RatingUpdatedData{
		ProductID:   productID,
		Rating:      summary.Average,
		ReviewCount: summary.Count,
	}
	return p.publish(ctx, TopicProductRatingUpdated, productID, AggregateTypeProduct, data, nil)
}

// PublishReviewSubmitted publishes a review.submitted event for a created
// or edited review.
func (p *Producer) PublishReviewSubmitted(ctx context.Context, review *domain.Review) error {
	return p.publish(ctx, TopicReviewSubmitted, review.ProductID, AggregateTypeReview, reviewData(review), reviewMetadata(review))
}

// PublishReviewDeleted publishes a review.deleted event.
func (p *Producer) PublishReviewDeleted(ctx context.Context, review *domain.Review) error {
	return p.publish(ctx, TopicReviewDeleted, review.ProductID, AggregateTypeReview, reviewData(review), reviewMetadata(review))
}

// reviewMetadata exposes the review and author as x-meta-* headers so
// consumers can filter without decoding the payload.
func reviewMetadata(rv *domain.Review) map[string]string {
	return map[string]string{
		"review_id": rv.ID,
		"user_id":   rv.UserID,
	}
}

// publish keys review events by product ID so they share a partition with
// the rating updates they cause.
func (p *Producer) publish(ctx context.Context, topic, aggregateID, aggregateType string, data any, metadata map[string]string) error {
	event, err := pkgkafka.NewEvent(topic, aggregateID, aggregateType, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		event.WithCorrelationID(id)
	}
	for k, v := range metadata {
		event.WithMetadata(k, v)
	}

	if err := p.publisher.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published domain event",
		slog.String("topic", topic),
		slog.String("aggregate_id", aggregateID),
	)

	return nil
}

// LogPublisher writes events to the log instead of a broker. It is used
// when Kafka is disabled.
type LogPublisher struct {
	logger *slog.Logger
}

// NewLogPublisher creates a publisher that only logs.
func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

// Publish logs the event at info level.
func (l *LogPublisher) Publish(ctx context.Context, topic string, event *pkgkafka.Event) error {
	l.logger.InfoContext(ctx, "domain event",
		slog.String("topic", topic),
		slog.String("event_id", event.EventID),
		slog.String("aggregate_id", event.AggregateID),
		slog.String("data", string(event.Data)),
	)
	return nil
}
