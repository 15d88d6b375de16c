package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/febluxury/storefront/internal/domain"
	"github.com/febluxury/storefront/internal/query"
	"github.com/febluxury/storefront/pkg/database"
	apperrors "github.com/febluxury/storefront/pkg/errors"
)

const productColumns = `id, name, category, subcategory, description, price, old_price, image, gallery,
		rating, review_count, stock_status, stock_quantity, delivery_min_days, delivery_max_days,
		author_id, created_at, updated_at`

// sortColumns maps query sort fields to column names.
var sortColumns = map[string]string{
	query.SortCreatedAt:   "created_at",
	query.SortUpdatedAt:   "updated_at",
	query.SortPrice:       "price",
	query.SortName:        "name",
	query.SortRating:      "rating",
	query.SortReviewCount: "review_count",
}

// ProductRepository implements repository.ProductRepository using PostgreSQL.
type ProductRepository struct {
	pool database.DBTX
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool database.DBTX) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// Create inserts a new product into the database.
func (r *ProductRepository) Create(ctx context.Context, p *domain.Product) (err error) {
	ctx, end := database.TraceQuery(ctx, database.SystemPostgres, "CreateProduct", "INSERT products")
	defer func() { end(err) }()

	query := `
		INSERT INTO products (id, name, category, subcategory, description, price, old_price, image, gallery,
			rating, review_count, stock_status, stock_quantity, delivery_min_days, delivery_max_days,
			author_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`

	_, err = r.pool.Exec(ctx, query,
		p.ID,
		p.Name,
		p.Category,
		p.Subcategory,
		p.Description,
		p.Price,
		p.OldPrice,
		p.Image,
		nonNil(p.Gallery),
		p.Rating,
		p.ReviewCount,
		string(p.Stock.Status),
		p.Stock.Quantity,
		p.Delivery.MinDays,
		p.Delivery.MaxDays,
		p.AuthorID,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		if pgErrorCode(err) == uniqueViolation {
			return apperrors.AlreadyExists("product", "id", p.ID)
		}
		return fmt.Errorf("insert product: %w", err)
	}

	return nil
}

// GetByID retrieves a product by its ID.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (_ *domain.Product, err error) {
	ctx, end := database.TraceQuery(ctx, database.SystemPostgres, "GetProduct", "SELECT products")
	defer func() { end(err) }()

	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	var p domain.Product
	if err = scanProduct(r.pool.QueryRow(ctx, query, id), &p); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("product", id)
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &p, nil
}

// List returns one page of products matching desc with the total count.
func (r *ProductRepository) List(ctx context.Context, desc *query.Descriptor) (_ []domain.Product, _ int, err error) {
	ctx, end := database.TraceQuery(ctx, database.SystemPostgres, "ListProducts", "SELECT products")
	defer func() { end(err) }()

	where, args := productConditions(&desc.Filter)
	argIndex := len(args) + 1

	// Use count(*) OVER() for total count in a single query.
	stmt := fmt.Sprintf(`
		SELECT %s,
			   count(*) OVER() AS total_count
		FROM products
		%s
		ORDER BY %s
		LIMIT $%d OFFSET $%d`,
		productColumns, where, orderBy(desc.Sort), argIndex, argIndex+1,
	)
	args = append(args, desc.Limit(), desc.Skip())

	rows, err := r.pool.Query(ctx, stmt, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var (
		products   = make([]domain.Product, 0, desc.Limit())
		totalCount int
	)

	for rows.Next() {
		var p domain.Product
		if err := scanProduct(rows, &p, &totalCount); err != nil {
			return nil, 0, fmt.Errorf("scan product row: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate product rows: %w", err)
	}

	// A page past the end has no rows to carry the window count.
	if len(products) == 0 && desc.Skip() > 0 {
		countQuery := `SELECT count(*) FROM products ` + where
		if err := r.pool.QueryRow(ctx, countQuery, args[:len(args)-2]...).Scan(&totalCount); err != nil {
			return nil, 0, fmt.Errorf("count products: %w", err)
		}
	}

	return products, totalCount, nil
}

// Update overwrites the admin-editable fields of a product. rating and
// review_count are owned by the rating store and are read back, not written.
func (r *ProductRepository) Update(ctx context.Context, p *domain.Product) (err error) {
	ctx, end := database.TraceQuery(ctx, database.SystemPostgres, "UpdateProduct", "UPDATE products")
	defer func() { end(err) }()

	p.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE products
		SET name = $1, category = $2, subcategory = $3, description = $4, price = $5, old_price = $6,
		    image = $7, gallery = $8, stock_status = $9, stock_quantity = $10,
		    delivery_min_days = $11, delivery_max_days = $12, updated_at = $13
		WHERE id = $14
		RETURNING rating, review_count, author_id, created_at`

	err = r.pool.QueryRow(ctx, query,
		p.Name,
		p.Category,
		p.Subcategory,
		p.Description,
		p.Price,
		p.OldPrice,
		p.Image,
		nonNil(p.Gallery),
		string(p.Stock.Status),
		p.Stock.Quantity,
		p.Delivery.MinDays,
		p.Delivery.MaxDays,
		p.UpdatedAt,
		p.ID,
	).Scan(&p.Rating, &p.ReviewCount, &p.AuthorID, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NotFound("product", p.ID)
		}
		return fmt.Errorf("update product: %w", err)
	}

	return nil
}

// Delete removes a product by its ID. Its reviews go with it through the
// ON DELETE CASCADE foreign key.
func (r *ProductRepository) Delete(ctx context.Context, id string) (err error) {
	ctx, end := database.TraceQuery(ctx, database.SystemPostgres, "DeleteProduct", "DELETE products")
	defer func() { end(err) }()

	ct, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("product", id)
	}

	return nil
}

// FindRelated returns products other than the source whose name matches
// the token pattern case-insensitively or that share its category.
func (r *ProductRepository) FindRelated(ctx context.Context, f *query.RelatedFilter) (_ []domain.Product, err error) {
	ctx, end := database.TraceQuery(ctx, database.SystemPostgres, "FindRelated", "SELECT products")
	defer func() { end(err) }()

	var (
		match = "category = $2"
		args  = []any{f.ExcludeID, f.Category}
	)
	if f.NamePattern != "" {
		match = "(category = $2 OR name ~* $3)"
		args = append(args, f.NamePattern)
	}

	limit := ""
	if f.Limit > 0 {
		args = append(args, f.Limit)
		limit = fmt.Sprintf("LIMIT $%d", len(args))
	}

	stmt := fmt.Sprintf(`
		SELECT %s
		FROM products
		WHERE id <> $1 AND %s
		ORDER BY created_at, id
		%s`, productColumns, match, limit)

	rows, err := r.pool.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("find related products: %w", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0)
	for rows.Next() {
		var p domain.Product
		if err := scanProduct(rows, &p); err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product rows: %w", err)
	}

	return products, nil
}

// productConditions renders the WHERE clause for a query filter.
func productConditions(f *query.Filter) (string, []any) {
	var (
		conditions []string
		args       []any
		argIndex   = 1
	)

	if f.Category != "" {
		conditions = append(conditions, fmt.Sprintf("category = $%d", argIndex))
		args = append(args, f.Category)
		argIndex++
	}

	if f.Subcategory != "" {
		conditions = append(conditions, fmt.Sprintf("subcategory = $%d", argIndex))
		args = append(args, f.Subcategory)
		argIndex++
	}

	if f.MinPrice != nil {
		conditions = append(conditions, fmt.Sprintf("price >= $%d", argIndex))
		args = append(args, *f.MinPrice)
		argIndex++
	}

	if f.MaxPrice != nil {
		conditions = append(conditions, fmt.Sprintf("price <= $%d", argIndex))
		args = append(args, *f.MaxPrice)
		argIndex++
	}

	if f.Text != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(name ILIKE $%[1]d OR description ILIKE $%[1]d OR category ILIKE $%[1]d OR subcategory ILIKE $%[1]d)",
			argIndex))
		args = append(args, "%"+escapeLike(f.Text)+"%")
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(conditions, " AND "), args
}

func orderBy(s query.Sort) string {
	col, ok := sortColumns[s.Field]
	if !ok {
		col = "created_at"
	}
	dir := "ASC"
	if s.Desc {
		dir = "DESC"
	}
	return fmt.Sprintf("%s %s, id %s", col, dir, dir)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes text match literally inside a LIKE pattern.
func escapeLike(text string) string {
	return likeEscaper.Replace(text)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// scanProduct scans productColumns, followed by any extra destinations.
func scanProduct(row rowScanner, p *domain.Product, extra ...any) error {
	var stockStatus string
	dest := []any{
		&p.ID,
		&p.Name,
		&p.Category,
		&p.Subcategory,
		&p.Description,
		&p.Price,
		&p.OldPrice,
		&p.Image,
		&p.Gallery,
		&p.Rating,
		&p.ReviewCount,
		&stockStatus,
		&p.Stock.Quantity,
		&p.Delivery.MinDays,
		&p.Delivery.MaxDays,
		&p.AuthorID,
		&p.CreatedAt,
		&p.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return err
	}
	p.Stock.Status = domain.StockStatus(stockStatus)
	return nil
}
