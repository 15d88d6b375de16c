package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/febluxury/storefront/internal/auth"
	"github.com/febluxury/storefront/internal/config"
	"github.com/febluxury/storefront/internal/event"
	handler "github.com/febluxury/storefront/internal/handler/http"
	"github.com/febluxury/storefront/internal/notify"
	"github.com/febluxury/storefront/internal/repository"
	"github.com/febluxury/storefront/internal/service"
	"github.com/febluxury/storefront/pkg/database"
	"github.com/febluxury/storefront/pkg/health"
	"github.com/febluxury/storefront/pkg/httpclient"
	"github.com/febluxury/storefront/pkg/httputil"
	pkgkafka "github.com/febluxury/storefront/pkg/kafka"
	"github.com/febluxury/storefront/pkg/middleware"
	"github.com/febluxury/storefront/pkg/tracing"
)

// App wires together all dependencies and runs the storefront service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	store          repository.Store
	producer       *pkgkafka.Producer
	redis          *redis.Client
	tracerShutdown func(context.Context) error
	httpServer     *http.Server
	stopRouter     context.CancelFunc
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	httputil.SetExposeErrors(cfg.IsDevelopment())

	// Initialize tracing. A disabled tracer still installs the propagator.
	tcfg := tracing.DefaultConfig(ServiceName)
	tcfg.Environment = cfg.Environment
	tcfg.Enabled = cfg.OTELEnabled
	tcfg.OTLPEndpoint = cfg.OTELEndpoint
	tcfg.SampleRate = cfg.OTELSampleRate
	tracerShutdown, err := tracing.InitTracer(ctx, tcfg)
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	store, err := OpenStore(connectCtx, cfg, logger)
	if err != nil {
		_ = tracerShutdown(context.Background())
		return nil, err
	}

	healthHandler := health.NewHandler()
	healthHandler.Register("store", store.Ping)

	// Domain events go to Kafka when enabled and to the log otherwise.
	var (
		producer  *pkgkafka.Producer
		publisher event.Publisher = event.NewLogPublisher(logger)
	)
	if cfg.KafkaEnabled {
		producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		publisher = producer
		healthHandler.Register("kafka", producer.Ping)
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	}

	taxonomy, err := cfg.Taxonomy()
	if err != nil {
		_ = store.Close(context.Background())
		_ = tracerShutdown(context.Background())
		return nil, fmt.Errorf("load taxonomy: %w", err)
	}

	// Review writes share one budget across replicas when Redis is set.
	var (
		redisClient   *redis.Client
		reviewLimiter middleware.Limiter
	)
	if cfg.RedisURL != "" && cfg.ReviewRateRPS > 0 {
		redisClient, err = database.NewRedisClient(ctx, database.RedisConfig{URL: cfg.RedisURL}, logger)
		if err != nil {
			_ = store.Close(context.Background())
			_ = tracerShutdown(context.Background())
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		reviewLimiter = middleware.NewRedisLimiterForRate(redisClient, cfg.ReviewRateRPS, cfg.ReviewRateBurst)
		healthHandler.Register("redis", func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
		logger.Info("review rate limit backed by redis")
	}

	logger.Info("readiness checks registered", slog.Any("checks", healthHandler.Names()))

	// Build the dependency graph.
	eventProducer := event.NewProducer(publisher, logger)
	ratings := service.NewRatingAggregator(store.Ratings(), eventProducer, logger)
	productService := service.NewProductService(store.Products(), store.Reviews(), taxonomy, eventProducer, service.ProductOptions{
		RelatedLimit:  cfg.RelatedLimit,
		SearchLimit:   cfg.SearchLimit,
		WriteTimeout:  cfg.WriteTimeout(),
		ImageOwnHosts: cfg.ImageOwnHosts,
	}, logger)
	reviewService := service.NewReviewService(store.Reviews(), store.Products(), ratings, eventProducer, cfg.WriteTimeout(), logger)

	receipts := notify.NewReceiptSender(newMailSender(cfg, logger), cfg.MailFrom, cfg.AdminEmails, logger)
	jwt := auth.NewJWTManager(cfg.TokenSecret(), auth.DefaultTokenTTL)

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.CORSAllowedOrigin
	corsCfg.Environment = cfg.Environment

	// HTTP router.
	routerCtx, stopRouter := context.WithCancel(context.WithoutCancel(ctx))
	router := handler.NewRouter(routerCtx, handler.RouterConfig{
		Products:      productService,
		Reviews:       reviewService,
		Receipts:      receipts,
		Validator:     jwt.Validator(),
		Health:        healthHandler,
		CORS:          corsCfg,
		ReviewRPS:     cfg.ReviewRateRPS,
		ReviewBurst:   cfg.ReviewRateBurst,
		ReviewLimiter: reviewLimiter,
		DebugCIDRs:    cfg.DebugAllowedCIDRs,
	}, logger)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		store:          store,
		producer:       producer,
		redis:          redisClient,
		tracerShutdown: tracerShutdown,
		httpServer:     httpServer,
		stopRouter:     stopRouter,
	}, nil
}

// newMailSender posts through the mail relay when one is configured and
// logs messages otherwise.
func newMailSender(cfg *config.Config, logger *slog.Logger) notify.Sender {
	if cfg.MailRelayURL == "" {
		logger.Warn("MAIL_RELAY_URL not set, receipt emails are only logged")
		return notify.NewLogSender(logger)
	}
	client := httpclient.NewCircuitBreakerClient(
		httpclient.New(httpclient.DefaultConfig()),
		httpclient.DefaultCircuitBreakerConfig("mail-relay"),
		logger,
	)
	return notify.NewRelaySender(client, cfg.MailRelayURL)
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		_ = a.Shutdown()
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	// Graceful HTTP server shutdown with a 10-second deadline.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}
	a.stopRouter()

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		}
	}

	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
		}
	}

	if err := a.store.Close(shutdownCtx); err != nil {
		a.logger.Error("store close error", slog.String("error", err.Error()))
	}

	if err := a.tracerShutdown(shutdownCtx); err != nil {
		a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
	}

	a.logger.Info("application shutdown complete")
	return nil
}
