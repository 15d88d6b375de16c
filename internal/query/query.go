// Package query turns untrusted catalog request parameters into validated
// filter, sort and page descriptors that every store backend understands.
package query

import (
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/febluxury/storefront/internal/domain"
	apperrors "github.com/febluxury/storefront/pkg/errors"
	"github.com/febluxury/storefront/pkg/pagination"
)

// Sortable product fields.
const (
	SortCreatedAt   = "createdAt"
	SortUpdatedAt   = "updatedAt"
	SortPrice       = "price"
	SortName        = "name"
	SortRating      = "rating"
	SortReviewCount = "reviewCount"
)

var sortFields = map[string]struct{}{
	SortCreatedAt:   {},
	SortUpdatedAt:   {},
	SortPrice:       {},
	SortName:        {},
	SortRating:      {},
	SortReviewCount: {},
}

// DefaultSort orders newest products first.
var DefaultSort = Sort{Field: SortCreatedAt, Desc: true}

// Filter constrains which products are returned. Zero fields do not
// constrain anything.
type Filter struct {
	Category    string
	Subcategory string
	MinPrice    *float64
	MaxPrice    *float64
	// Text is matched case-insensitively as a substring of name,
	// description, category or subcategory.
	Text string
}

// Sort orders results by one product field.
type Sort struct {
	Field string
	Desc  bool
}

// String renders the sort in request form, e.g. "-createdAt".
func (s Sort) String() string {
	if s.Desc {
		return "-" + s.Field
	}
	return s.Field
}

// Descriptor is a validated catalog query.
type Descriptor struct {
	Filter Filter
	Sort   Sort
	Page   pagination.Params
}

// Skip is the number of matching products before the requested page.
func (d *Descriptor) Skip() int { return d.Page.Skip() }

// Limit is the page size.
func (d *Descriptor) Limit() int { return d.Page.Limit }

// Build validates params against tax. Recognized keys are category,
// subcategory, minPrice, maxPrice, q, sort, page and limit; anything else is
// ignored.
func Build(params url.Values, tax *domain.Taxonomy) (*Descriptor, error) {
	d := &Descriptor{Sort: DefaultSort}

	if raw := strings.TrimSpace(params.Get("category")); raw != "" && !strings.EqualFold(raw, domain.CategoryAll) {
		category := domain.NormalizeCategory(raw)
		if !tax.HasCategory(category) {
			return nil, apperrors.InvalidInputf("unknown category %q", raw)
		}
		d.Filter.Category = category
	}

	if sub := domain.NormalizeCategory(params.Get("subcategory")); sub != domain.CategoryAll {
		d.Filter.Subcategory = sub
	}
	d.Filter.MinPrice = parsePrice(params.Get("minPrice"))
	d.Filter.MaxPrice = parsePrice(params.Get("maxPrice"))
	d.Filter.Text = strings.TrimSpace(params.Get("q"))

	s, err := ParseSort(params.Get("sort"))
	if err != nil {
		return nil, err
	}
	d.Sort = s

	page, err := pagination.Parse(params, pagination.DefaultDefaults())
	if err != nil {
		return nil, err
	}
	d.Page = page

	return d, nil
}

// BuildSearch returns the descriptor for a free-text search capped at limit
// results, newest first. text must not be blank.
func BuildSearch(text string, limit int) (*Descriptor, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperrors.InvalidInput("search query is required")
	}
	if limit < 1 {
		limit = 1
	}
	return &Descriptor{
		Filter: Filter{Text: text},
		Sort:   DefaultSort,
		Page:   pagination.Params{Page: 1, Limit: limit},
	}, nil
}

// ParseSort reads "field" or "-field". Blank input yields DefaultSort.
func ParseSort(raw string) (Sort, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultSort, nil
	}
	s := Sort{Field: raw}
	if strings.HasPrefix(raw, "-") {
		s = Sort{Field: raw[1:], Desc: true}
	}
	if _, ok := sortFields[s.Field]; !ok {
		return Sort{}, apperrors.InvalidInputf("cannot sort by %q", s.Field)
	}
	return s, nil
}

// parsePrice returns nil for blank or unparsable input.
func parsePrice(raw string) *float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &v
}

// Matches reports whether p satisfies the filter.
func (f *Filter) Matches(p *domain.Product) bool {
	if f.Category != "" && p.Category != f.Category {
		return false
	}
	if f.Subcategory != "" && p.Subcategory != f.Subcategory {
		return false
	}
	if f.MinPrice != nil && p.Price < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && p.Price > *f.MaxPrice {
		return false
	}
	if f.Text != "" {
		needle := strings.ToLower(f.Text)
		for _, field := range []string{p.Name, p.Description, p.Category, p.Subcategory} {
			if strings.Contains(strings.ToLower(field), needle) {
				return true
			}
		}
		return false
	}
	return true
}

// Matches reports whether p satisfies the descriptor's filter.
func (d *Descriptor) Matches(p *domain.Product) bool { return d.Filter.Matches(p) }

// Less orders a before b under s. Ties fall back to ID so the order is
// total.
func (s Sort) Less(a, b *domain.Product) bool {
	var c int
	switch s.Field {
	case SortUpdatedAt:
		c = a.UpdatedAt.Compare(b.UpdatedAt)
	case SortPrice:
		c = compareFloat(a.Price, b.Price)
	case SortName:
		c = strings.Compare(a.Name, b.Name)
	case SortRating:
		c = compareFloat(a.Rating, b.Rating)
	case SortReviewCount:
		c = a.ReviewCount - b.ReviewCount
	default:
		c = a.CreatedAt.Compare(b.CreatedAt)
	}
	if c == 0 {
		c = strings.Compare(a.ID, b.ID)
	}
	if s.Desc {
		return c > 0
	}
	return c < 0
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Apply filters, sorts and pages products in memory, returning the page and
// the number of matching products.
func (d *Descriptor) Apply(products []domain.Product) ([]domain.Product, int) {
	matched := make([]domain.Product, 0, len(products))
	for i := range products {
		if d.Filter.Matches(&products[i]) {
			matched = append(matched, products[i])
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return d.Sort.Less(&matched[i], &matched[j])
	})

	total := len(matched)
	start := min(max(d.Skip(), 0), total)
	end := total
	if lim := d.Limit(); lim > 0 && lim < total-start {
		end = start + lim
	}
	return matched[start:end], total
}

// NewPage wraps one page of products with its pager totals.
func NewPage(items []domain.Product, total int, d *Descriptor) pagination.Result[domain.Product] {
	return pagination.NewResult(items, total, d.Page)
}
