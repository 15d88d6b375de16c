package domain

import (
	"math"
	"strings"
	"time"

	apperrors "github.com/febluxury/storefront/pkg/errors"
)

// StockStatus describes product availability.
type StockStatus string

// Stock status constants.
const (
	StockInStock    StockStatus = "in-stock"
	StockOutOfStock StockStatus = "out-of-stock"
	StockPreOrder   StockStatus = "pre-order"
)

// IsValid reports whether s is one of the known stock statuses.
func (s StockStatus) IsValid() bool {
	switch s {
	case StockInStock, StockOutOfStock, StockPreOrder:
		return true
	}
	return false
}

// Stock holds availability information for a product.
type Stock struct {
	Status   StockStatus `json:"status"`
	Quantity int         `json:"quantity"`
}

// Delivery is the expected delivery window in days.
type Delivery struct {
	MinDays int `json:"minDays"`
	MaxDays int `json:"maxDays"`
}

// Product is a catalog entry. Rating and ReviewCount are derived from the
// product's active reviews and are only written by the rating aggregator.
type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	Subcategory string    `json:"subcategory,omitempty"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	OldPrice    *float64  `json:"oldPrice,omitempty"`
	Image       string    `json:"image,omitempty"`
	Gallery     []string  `json:"gallery,omitempty"`
	Rating      float64   `json:"rating"`
	ReviewCount int       `json:"reviewCount"`
	Stock       Stock     `json:"stock"`
	Delivery    Delivery  `json:"delivery"`
	AuthorID    *string   `json:"authorId,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Normalize trims the name and puts category and subcategory in stored
// form. An empty stock status becomes in-stock.
func (p *Product) Normalize() {
	p.Name = strings.TrimSpace(p.Name)
	p.Category = NormalizeCategory(p.Category)
	p.Subcategory = NormalizeCategory(p.Subcategory)
	if p.Stock.Status == "" {
		p.Stock.Status = StockInStock
	}
}

// NormalizeImages rewrites Image and every Gallery entry with
// NormalizeImagePath, dropping empty gallery entries.
func (p *Product) NormalizeImages(ownHosts []string) {
	p.Image = NormalizeImagePath(p.Image, ownHosts)
	if len(p.Gallery) == 0 {
		return
	}
	gallery := make([]string, 0, len(p.Gallery))
	for _, g := range p.Gallery {
		if n := NormalizeImagePath(g, ownHosts); n != "" {
			gallery = append(gallery, n)
		}
	}
	p.Gallery = gallery
}

// Validate checks the product invariants against tax. Call Normalize first.
func (p *Product) Validate(tax *Taxonomy) error {
	if p.Name == "" {
		return apperrors.InvalidInput("product name is required")
	}
	if p.Category == "" {
		return apperrors.InvalidInput("product category is required")
	}
	if p.Category != CategoryAll && !tax.HasCategory(p.Category) {
		return apperrors.InvalidInputf("unknown category %q", p.Category)
	}
	if !tax.AllowsSubcategory(p.Category, p.Subcategory) {
		return apperrors.InvalidInputf("subcategory %q is not allowed in category %q", p.Subcategory, p.Category)
	}
	if !isFiniteNonNegative(p.Price) {
		return apperrors.InvalidInput("price must be a non-negative number")
	}
	if p.OldPrice != nil && !isFiniteNonNegative(*p.OldPrice) {
		return apperrors.InvalidInput("old price must be a non-negative number")
	}
	if !p.Stock.Status.IsValid() {
		return apperrors.InvalidInputf("unknown stock status %q", p.Stock.Status)
	}
	if p.Stock.Quantity < 0 {
		return apperrors.InvalidInput("stock quantity must not be negative")
	}
	if p.Delivery.MinDays < 0 || p.Delivery.MaxDays < 0 {
		return apperrors.InvalidInput("delivery days must not be negative")
	}
	if p.Delivery.MinDays > p.Delivery.MaxDays {
		return apperrors.InvalidInput("delivery window start must not be after its end")
	}
	return nil
}

func isFiniteNonNegative(v float64) bool {
	return v >= 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

// ProductPatch is a partial update of the admin-editable product fields.
// Nil fields are left unchanged.
type ProductPatch struct {
	Name        *string
	Category    *string
	Subcategory *string
	Description *string
	Price       *float64
	OldPrice    *float64
	Image       *string
	Gallery     *[]string
	Stock       *Stock
	Delivery    *Delivery
}

// IsEmpty reports whether the patch changes nothing.
func (pp *ProductPatch) IsEmpty() bool {
	return pp.Name == nil && pp.Category == nil && pp.Subcategory == nil &&
		pp.Description == nil && pp.Price == nil && pp.OldPrice == nil &&
		pp.Image == nil && pp.Gallery == nil && pp.Stock == nil && pp.Delivery == nil
}

// Apply copies the set fields onto p. It does not normalize or validate.
func (pp *ProductPatch) Apply(p *Product) {
	if pp.Name != nil {
		p.Name = *pp.Name
	}
	if pp.Category != nil {
		p.Category = *pp.Category
	}
	if pp.Subcategory != nil {
		p.Subcategory = *pp.Subcategory
	}
	if pp.Description != nil {
		p.Description = *pp.Description
	}
	if pp.Price != nil {
		p.Price = *pp.Price
	}
	if pp.OldPrice != nil {
		v := *pp.OldPrice
		p.OldPrice = &v
	}
	if pp.Image != nil {
		p.Image = *pp.Image
	}
	if pp.Gallery != nil {
		p.Gallery = append([]string(nil), (*pp.Gallery)...)
	}
	if pp.Stock != nil {
		p.Stock = *pp.Stock
	}
	if pp.Delivery != nil {
		p.Delivery = *pp.Delivery
	}
}

// ProductDetail is a product together with its active reviews.
type ProductDetail struct {
	Product Product  `json:"product"`
	Reviews []Review `json:"reviews"`
}
