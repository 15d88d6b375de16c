// Package postgres is the PostgreSQL store backend.
package postgres

import (
	"context"
	"embed"
	"errors"
	"io/fs"
	"log/slog"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/febluxury/storefront/internal/repository"
	"github.com/febluxury/storefront/pkg/database"
)

//go:embed migrations/*.up.sql
var migrationFiles embed.FS

// Migrations returns the embedded schema migrations.
func Migrations() fs.FS {
	sub, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}

// Store wires the PostgreSQL repositories over one pool.
type Store struct {
	pool     *pgxpool.Pool
	db       database.DBTX
	logger   *slog.Logger
	products *ProductRepository
	reviews  *ReviewRepository
	ratings  *RatingStore
}

var _ repository.Store = (*Store)(nil)

// NewStore creates a store backed by pool.
func NewStore(pool *pgxpool.Pool, logger *slog.Logger) *Store {
	s := newStore(pool, logger)
	s.pool = pool
	return s
}

func newStore(db database.DBTX, logger *slog.Logger) *Store {
	return &Store{
		db:       db,
		logger:   logger,
		products: NewProductRepository(db),
		reviews:  NewReviewRepository(db),
		ratings:  NewRatingStore(db),
	}
}

func (s *Store) Products() repository.ProductRepository { return s.products }
func (s *Store) Reviews() repository.ReviewRepository   { return s.reviews }
func (s *Store) Ratings() repository.RatingStore        { return s.ratings }

// Migrate applies the embedded schema migrations.
func (s *Store) Migrate(ctx context.Context) error {
	return database.RunMigrations(ctx, s.db, Migrations(), s.logger)
}

// Ping checks the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if s.pool == nil {
		return nil
	}
	return s.pool.Ping(ctx)
}

// Close releases every pooled connection.
func (s *Store) Close(context.Context) error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// SQLSTATE codes the repositories translate.
const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// rowScanner is satisfied by pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}
