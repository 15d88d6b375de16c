// Package seed populates a store with a deterministic demo catalog and
// reviews through the regular services, so every invariant the API enforces
// also holds for seeded data.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/febluxury/storefront/internal/domain"
	"github.com/febluxury/storefront/internal/service"
)

// ---------------------------------------------------------------------------
// Name generation data
// ---------------------------------------------------------------------------

var finishes = []string{
	"Classic", "Signature", "Heritage", "Monogram", "Quilted",
	"Embossed", "Polished", "Brushed", "Vintage", "Minimal",
	"Sculpted", "Braided", "Crystal", "Satin", "Velvet",
}

var colors = []string{
	"Black", "Ivory", "Gold", "Silver", "Rose",
	"Navy", "Tan", "Burgundy", "Emerald", "Champagne",
}

// nounsPerSubcategory maps each subcategory to product nouns. Categories
// without subcategories fall back to nounsPerCategory.
var nounsPerSubcategory = map[string][]string{
	"sunglasses":       {"Aviator Sunglasses", "Cat-Eye Sunglasses", "Square Shades"},
	"wrist-watches":    {"Chronograph", "Dress Watch", "Automatic Watch"},
	"belts":            {"Leather Belt", "Chain Belt", "Reversible Belt"},
	"bangles-bracelet": {"Bangle", "Cuff Bracelet", "Tennis Bracelet"},
	"earrings":         {"Hoop Earrings", "Drop Earrings", "Stud Earrings"},
	"necklace":         {"Pendant Necklace", "Choker", "Layered Necklace"},
	"pearls":           {"Pearl Strand", "Pearl Drops", "Pearl Brooch"},
}

var nounsPerCategory = map[string][]string{
	"fragrance": {"Eau de Parfum", "Oud Intense", "Body Mist"},
	"bags":      {"Tote", "Clutch", "Crossbody Bag", "Satchel"},
	"clothes":   {"Kaftan", "Silk Blouse", "Wrap Dress", "Blazer"},
	"jewerly":   {"Signet Ring", "Charm Bracelet", "Solitaire Ring"},
}

var comments = []string{
	"Exactly as pictured, beautiful finish.",
	"Lovely quality but delivery took a while.",
	"Gift for my sister, she adores it.",
	"Smaller than expected.",
	"Worth every penny.",
	"Good value, would buy again.",
}

// ---------------------------------------------------------------------------
// Generation
// ---------------------------------------------------------------------------

// Options controls the size and shape of the generated data.
type Options struct {
	Products          int
	ReviewsPerProduct int
	// Seed makes runs reproducible. Equal seeds yield equal catalogs.
	Seed uint64
}

// Result reports what Run created.
type Result struct {
	Products int
	Reviews  int
}

// Generator builds demo products from a taxonomy.
type Generator struct {
	categories []domain.CategoryInfo
	rng        *rand.Rand
}

// NewGenerator creates a generator over the categories of tax.
func NewGenerator(tax *domain.Taxonomy, seed uint64) *Generator {
	return &Generator{
		categories: tax.Categories(),
		rng:        rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// Product returns the i-th demo product input. Categories rotate so every
// category receives products.
func (g *Generator) Product(i int) *service.CreateProductInput {
	cat := g.categories[i%len(g.categories)]
	sub := ""
	nouns := nounsPerCategory[cat.Name]
	if len(cat.Subcategories) > 0 {
		sub = cat.Subcategories[g.rng.IntN(len(cat.Subcategories))]
		if n, ok := nounsPerSubcategory[sub]; ok {
			nouns = n
		}
	}
	if len(nouns) == 0 {
		nouns = []string{cat.Name}
	}

	noun := nouns[g.rng.IntN(len(nouns))]
	color := colors[g.rng.IntN(len(colors))]
	name := fmt.Sprintf("%s %s %s", finishes[g.rng.IntN(len(finishes))], color, noun)

	// Whole prices between 25 and 2500.
	price := float64(25 + g.rng.IntN(2476))
	var oldPrice *float64
	if g.rng.IntN(4) == 0 {
		op := price + float64(10+g.rng.IntN(200))
		oldPrice = &op
	}

	minDays := 1 + g.rng.IntN(5)
	status := domain.StockInStock
	qty := g.rng.IntN(50)
	if qty == 0 {
		status = domain.StockOutOfStock
	}

	return &service.CreateProductInput{
		Name:        name,
		Category:    cat.Name,
		Subcategory: sub,
		Description: fmt.Sprintf("%s in %s. Crafted for everyday elegance.", noun, color),
		Price:       price,
		OldPrice:    oldPrice,
		Image:       fmt.Sprintf("%s-%d.jpg", cat.Name, i),
		Stock:       domain.Stock{Status: status, Quantity: qty},
		Delivery:    domain.Delivery{MinDays: minDays, MaxDays: minDays + g.rng.IntN(7)},
	}
}

// Review returns the review that user u leaves on productID.
func (g *Generator) Review(productID string, u int) *service.PostReviewInput {
	return &service.PostReviewInput{
		ProductID: productID,
		UserID:    fmt.Sprintf("seed-user-%03d", u),
		Comment:   comments[g.rng.IntN(len(comments))],
		Rating:    1 + g.rng.IntN(5),
	}
}

// Run creates opts.Products products, each with opts.ReviewsPerProduct
// reviews from distinct users, and returns how much it created before any
// error.
func Run(ctx context.Context, products *service.ProductService, reviews *service.ReviewService, gen *Generator, opts Options, logger *slog.Logger) (Result, error) {
	var res Result
	for i := 0; i < opts.Products; i++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		p, err := products.CreateProduct(ctx, gen.Product(i))
		if err != nil {
			return res, fmt.Errorf("create product %d: %w", i, err)
		}
		res.Products++

		for u := 0; u < opts.ReviewsPerProduct; u++ {
			if _, err := reviews.PostReview(ctx, gen.Review(p.ID, u)); err != nil {
				return res, fmt.Errorf("review product %s: %w", p.ID, err)
			}
			res.Reviews++
		}

		if res.Products%100 == 0 {
			logger.InfoContext(ctx, "seed progress", slog.Int("products", res.Products), slog.Int("reviews", res.Reviews))
		}
	}
	return res, nil
}
