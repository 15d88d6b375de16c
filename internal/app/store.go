package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/febluxury/storefront/internal/config"
	"github.com/febluxury/storefront/internal/repository"
	"github.com/febluxury/storefront/internal/repository/memory"
	"github.com/febluxury/storefront/internal/repository/mongo"
	"github.com/febluxury/storefront/internal/repository/postgres"
	"github.com/febluxury/storefront/pkg/database"
)

// ServiceName labels logs, metrics, spans and database clients.
const ServiceName = "storefront"

// OpenStore connects the backend selected by cfg.StoreDriver.
func OpenStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (repository.Store, error) {
	database.SetSlowQueryLogging(time.Duration(cfg.SlowQueryThresholdMs)*time.Millisecond, logger)

	switch cfg.StoreDriver {
	case config.DriverMongo:
		mc := cfg.MongoConfig()
		client, err := database.NewMongoClient(ctx, &mc, ServiceName, logger)
		if err != nil {
			return nil, fmt.Errorf("connect to mongo: %w", err)
		}
		logger.Info("connected to MongoDB", slog.String("database", cfg.MongoDB))
		return mongo.NewStore(client, cfg.MongoDB), nil

	case config.DriverPostgres:
		pgCfg := cfg.PostgresConfig()
		pool, err := database.NewPostgresPool(ctx, &pgCfg, logger)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		database.RegisterPoolMetrics(pool, ServiceName)
		logger.Info("connected to PostgreSQL",
			slog.String("host", cfg.PostgresHost),
			slog.Int("port", cfg.PostgresPort),
			slog.String("database", cfg.PostgresDB),
		)
		return postgres.NewStore(pool, logger), nil

	case config.DriverMemory:
		logger.Warn("using in-memory store, data is lost on restart")
		return memory.New(), nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}
