package config

import (
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/febluxury/storefront/internal/domain"
	pkgconfig "github.com/febluxury/storefront/pkg/config"
	"github.com/febluxury/storefront/pkg/database"
)

// Store drivers.
const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// EnvDevelopment is the environment in which relaxed defaults apply.
const EnvDevelopment = "development"

// devJWTSecret signs tokens in development when JWT_SECRET is unset.
const devJWTSecret = "storefront-development-secret"

// Config holds all configuration for the storefront service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat   string `env:"LOG_FORMAT" envDefault:"json"`

	// HTTP server
	HTTPPort int `env:"HTTP_PORT" envDefault:"8001"`

	// Storage
	StoreDriver string `env:"STORE_DRIVER" envDefault:"mongo"`

	// MongoDB
	MongoURI string `env:"MONGO_URI" envDefault:"mongodb://localhost:27017"`
	MongoDB  string `env:"MONGO_DB" envDefault:"storefront"`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"storefront"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"storefront_secret"`
	PostgresDB   string `env:"POSTGRES_DB" envDefault:"storefront"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	// Database pool
	DBMaxConns            int32 `env:"DB_MAX_CONNS" envDefault:"25"`
	DBMinConns            int32 `env:"DB_MIN_CONNS" envDefault:"5"`
	DBMaxConnLifetimeMins int   `env:"DB_MAX_CONN_LIFETIME_MINUTES" envDefault:"60"`
	DBMaxConnIdleTimeMins int   `env:"DB_MAX_CONN_IDLE_TIME_MINUTES" envDefault:"30"`

	// Kafka
	KafkaEnabled bool     `env:"KAFKA_ENABLED" envDefault:"false"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// Auth
	JWTSecret string `env:"JWT_SECRET"`

	// Catalog
	TaxonomyFile      string   `env:"CATALOG_TAXONOMY_FILE"`
	RelatedLimit      int      `env:"RELATED_PRODUCTS_LIMIT" envDefault:"20"`
	SearchLimit       int      `env:"SEARCH_RESULTS_LIMIT" envDefault:"20"`
	WriteTimeoutSecs  int      `env:"STORE_WRITE_TIMEOUT_SECONDS" envDefault:"10"`
	ImageOwnHosts     []string `env:"IMAGE_OWN_HOSTS" envSeparator:","`
	ReviewRateRPS     float64  `env:"REVIEW_RATE_LIMIT_RPS" envDefault:"2"`
	ReviewRateBurst   int      `env:"REVIEW_RATE_LIMIT_BURST" envDefault:"10"`
	CORSAllowedOrigin []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"http://localhost:3000" envSeparator:","`

	// DebugAllowedCIDRs enables /debug/pprof for callers inside these ranges.
	DebugAllowedCIDRs []string `env:"DEBUG_ALLOWED_CIDRS" envSeparator:","`

	// Redis shares the review rate limit across replicas. Empty keeps the
	// limiter in process.
	RedisURL string `env:"REDIS_URL"`

	// Mail
	MailRelayURL string   `env:"MAIL_RELAY_URL"`
	MailFrom     string   `env:"MAIL_FROM" envDefault:"FEB Luxury <orders@febluxury.com>"`
	AdminEmails  []string `env:"ADMIN_EMAILS" envSeparator:","`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	// Slow query logging
	SlowQueryThresholdMs int `env:"LOG_SLOW_QUERY_MS" envDefault:"500"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load storefront config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints that env tags cannot express.
func (c *Config) Validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if !slices.Contains([]string{DriverMongo, DriverPostgres, DriverMemory}, c.StoreDriver) {
		return fmt.Errorf("STORE_DRIVER must be one of mongo, postgres, memory, got %q", c.StoreDriver)
	}
	switch c.StoreDriver {
	case DriverMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("MONGO_URI is required")
		}
		if c.MongoDB == "" {
			return fmt.Errorf("MONGO_DB is required")
		}
	case DriverPostgres:
		if c.PostgresHost == "" {
			return fmt.Errorf("POSTGRES_HOST is required")
		}
		if c.PostgresUser == "" {
			return fmt.Errorf("POSTGRES_USER is required")
		}
	}
	if c.KafkaEnabled && len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required when KAFKA_ENABLED is set")
	}
	if c.JWTSecret == "" && !c.IsDevelopment() {
		return fmt.Errorf("JWT_SECRET is required outside development")
	}
	if c.RelatedLimit < 1 {
		return fmt.Errorf("RELATED_PRODUCTS_LIMIT must be positive, got %d", c.RelatedLimit)
	}
	if c.SearchLimit < 1 {
		return fmt.Errorf("SEARCH_RESULTS_LIMIT must be positive, got %d", c.SearchLimit)
	}
	if c.WriteTimeoutSecs < 1 {
		return fmt.Errorf("STORE_WRITE_TIMEOUT_SECONDS must be positive, got %d", c.WriteTimeoutSecs)
	}
	if c.ReviewRateRPS < 0 || (c.ReviewRateRPS > 0 && c.ReviewRateBurst < 1) {
		return fmt.Errorf("invalid review rate limit: %g rps, burst %d", c.ReviewRateRPS, c.ReviewRateBurst)
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1.0 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %f", c.OTELSampleRate)
	}
	return nil
}

// IsDevelopment reports whether the service runs in the development
// environment.
func (c *Config) IsDevelopment() bool {
	return c.Environment == EnvDevelopment
}

// TokenSecret returns the HMAC key for access tokens.
func (c *Config) TokenSecret() string {
	if c.JWTSecret == "" && c.IsDevelopment() {
		return devJWTSecret
	}
	return c.JWTSecret
}

// WriteTimeout returns the bound on store writes that outlive their request.
func (c *Config) WriteTimeout() time.Duration {
	return time.Duration(c.WriteTimeoutSecs) * time.Second
}

// PostgresConfig returns the connection pool settings.
func (c *Config) PostgresConfig() database.PostgresConfig {
	return database.PostgresConfig{
		Host:            c.PostgresHost,
		Port:            c.PostgresPort,
		User:            c.PostgresUser,
		Password:        c.PostgresPass,
		DBName:          c.PostgresDB,
		SSLMode:         c.PostgresSSL,
		MaxConns:        c.DBMaxConns,
		MinConns:        c.DBMinConns,
		MaxConnLifetime: time.Duration(c.DBMaxConnLifetimeMins) * time.Minute,
		MaxConnIdleTime: time.Duration(c.DBMaxConnIdleTimeMins) * time.Minute,
	}
}

// MongoConfig returns the MongoDB client settings.
func (c *Config) MongoConfig() database.MongoConfig {
	mc := database.DefaultMongoConfig()
	mc.URI = c.MongoURI
	mc.Database = c.MongoDB
	return mc
}

// Taxonomy returns the category taxonomy, read from TaxonomyFile when set.
func (c *Config) Taxonomy() (*domain.Taxonomy, error) {
	if c.TaxonomyFile == "" {
		return domain.DefaultTaxonomy(), nil
	}
	data, err := os.ReadFile(c.TaxonomyFile)
	if err != nil {
		return nil, fmt.Errorf("read taxonomy file: %w", err)
	}
	return domain.ParseTaxonomy(data)
}
