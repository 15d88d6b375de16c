package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/febluxury/storefront/internal/notify"
	"github.com/febluxury/storefront/internal/service"
	"github.com/febluxury/storefront/pkg/health"
	"github.com/febluxury/storefront/pkg/middleware"
)

// ServiceName labels HTTP metrics and spans.
const ServiceName = "storefront"

// RoleAdmin is the role required by catalog write routes.
const RoleAdmin = "admin"

// categoriesMaxAge is the Cache-Control max-age for the taxonomy listing.
const categoriesMaxAge = 300

// RouterConfig carries the collaborators of the HTTP surface.
type RouterConfig struct {
	Products  *service.ProductService
	Reviews   *service.ReviewService
	Receipts  *notify.ReceiptSender
	Validator middleware.TokenValidator
	Health    *health.Handler
	CORS      middleware.CORSConfig

	// ReviewRPS and ReviewBurst bound review writes per caller. A zero
	// ReviewRPS disables the limiter. ReviewLimiter, when set, replaces the
	// in-process token bucket.
	ReviewRPS     float64
	ReviewBurst   int
	ReviewLimiter middleware.Limiter

	// DebugCIDRs, when non-empty, mounts /debug/pprof for those ranges.
	DebugCIDRs []string
}

// NewRouter creates a chi router with all storefront routes registered. The
// context bounds the lifetime of background helpers such as the rate limiter
// janitor.
func NewRouter(ctx context.Context, cfg RouterConfig, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Tracing(ServiceName))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.PrometheusMetrics(ServiceName))
	r.Use(middleware.CORS(cfg.CORS))

	// Health check and metrics endpoints
	r.Get("/health/live", cfg.Health.LivenessHandler())
	r.Get("/health/ready", cfg.Health.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())
	if len(cfg.DebugCIDRs) > 0 && middleware.RegisterPprof(r, cfg.DebugCIDRs, logger) {
		logger.Info("pprof endpoints enabled", slog.Any("cidrs", cfg.DebugCIDRs))
	}

	authenticate := middleware.Auth(cfg.Validator)
	limitWrites := func(next http.Handler) http.Handler { return next }
	switch {
	case cfg.ReviewLimiter != nil:
		limitWrites = middleware.RateLimitWith(cfg.ReviewLimiter, logger)
	case cfg.ReviewRPS > 0:
		limitWrites = middleware.RateLimit(ctx, cfg.ReviewRPS, cfg.ReviewBurst, logger)
	}

	// Product API endpoints
	productHandler := NewProductHandler(cfg.Products, logger)

	r.Route("/api/products", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Get("/", productHandler.ListProducts)
		r.Get("/search", productHandler.SearchProducts)
		r.Get("/related/{id}", productHandler.GetRelated)
		r.Get("/{id}", productHandler.GetProduct)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(middleware.RequireRole(RoleAdmin))

			r.Post("/create-product", productHandler.CreateProduct)
			r.Patch("/update-product/{id}", productHandler.UpdateProduct)
			r.Delete("/{id}", productHandler.DeleteProduct)
		})
	})

	r.With(middleware.CacheControl(categoriesMaxAge)).Get("/api/categories", productHandler.ListCategories)

	// Review API endpoints
	reviewHandler := NewReviewHandler(cfg.Reviews, logger)

	r.Route("/api/reviews", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Get("/product/{productId}", reviewHandler.ListProductReviews)
		r.Get("/total-reviews", reviewHandler.TotalReviews)
		r.Get("/user/{userId}", reviewHandler.UserReviews)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)

			r.Get("/user/{userId}/activity", reviewHandler.UserActivity)
			r.With(limitWrites).Post("/post-review", reviewHandler.PostReview)
			r.With(limitWrites).Post("/{reviewId}/like", reviewHandler.ToggleLike)
			r.Delete("/{reviewId}", reviewHandler.DeleteReview)
		})
	})

	// Email API endpoints
	emailHandler := NewEmailHandler(cfg.Receipts, logger)

	r.Route("/api/email", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Post("/send-receipt-email", emailHandler.SendReceipt)
	})

	return r
}
