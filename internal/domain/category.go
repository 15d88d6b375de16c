package domain

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/febluxury/storefront/pkg/slug"
)

// CategoryAll is the pseudo-category that matches every product and accepts
// any subcategory.
const CategoryAll = "all"

// NormalizeCategory returns the stored form of a category or subcategory
// label: trimmed, lowercased, whitespace runs turned into hyphens.
func NormalizeCategory(s string) string {
	return slug.Generate(s)
}

// CategoryInfo describes one taxonomy entry for API responses.
type CategoryInfo struct {
	Name          string   `json:"name"`
	Subcategories []string `json:"subcategories"`
}

// Taxonomy maps each category to the set of subcategories registered under
// it. The zero value has no categories. A Taxonomy is read-only after
// construction and safe for concurrent use.
type Taxonomy struct {
	order []string
	subs  map[string]map[string]struct{}
}

// NewTaxonomy builds a taxonomy from category -> subcategories. Keys and
// values are normalized; "all" may not be registered as a category.
func NewTaxonomy(categories map[string][]string) (*Taxonomy, error) {
	t := &Taxonomy{subs: make(map[string]map[string]struct{}, len(categories))}
	for rawCat, rawSubs := range categories {
		cat := NormalizeCategory(rawCat)
		if cat == "" {
			return nil, fmt.Errorf("taxonomy: empty category name %q", rawCat)
		}
		if cat == CategoryAll {
			return nil, fmt.Errorf("taxonomy: %q is reserved", CategoryAll)
		}
		if _, dup := t.subs[cat]; dup {
			return nil, fmt.Errorf("taxonomy: duplicate category %q", cat)
		}

		set := make(map[string]struct{}, len(rawSubs))
		for _, rawSub := range rawSubs {
			sub := NormalizeCategory(rawSub)
			if sub == "" {
				return nil, fmt.Errorf("taxonomy: empty subcategory under %q", cat)
			}
			set[sub] = struct{}{}
		}
		t.subs[cat] = set
		t.order = append(t.order, cat)
	}
	sort.Strings(t.order)
	return t, nil
}

// DefaultTaxonomy returns the storefront's built-in category tree.
func DefaultTaxonomy() *Taxonomy {
	t, err := NewTaxonomy(map[string][]string{
		"accessories": {"sunglasses", "wrist-watches", "belts", "bangles-bracelet", "earrings", "necklace", "pearls"},
		"fragrance":   {"designer-niche", "unboxed", "testers", "arabian", "diffuser", "mist"},
		"bags":        {},
		"clothes":     {},
		"jewerly":     {},
	})
	if err != nil {
		panic(err)
	}
	return t
}

// ParseTaxonomy decodes a JSON object of category -> subcategory list.
func ParseTaxonomy(data []byte) (*Taxonomy, error) {
	var raw map[string][]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode taxonomy: %w", err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("taxonomy: no categories defined")
	}
	return NewTaxonomy(raw)
}

// HasCategory reports whether category (already normalized) is registered.
func (t *Taxonomy) HasCategory(category string) bool {
	_, ok := t.subs[category]
	return ok
}

// AllowsSubcategory reports whether subcategory may be stored under
// category. Both values must already be normalized. An empty subcategory
// and the "all" category are always allowed.
func (t *Taxonomy) AllowsSubcategory(category, subcategory string) bool {
	if subcategory == "" || category == CategoryAll {
		return true
	}
	set, ok := t.subs[category]
	if !ok {
		return false
	}
	_, ok = set[subcategory]
	return ok
}

// Categories lists the taxonomy sorted by category, subcategories sorted.
func (t *Taxonomy) Categories() []CategoryInfo {
	out := make([]CategoryInfo, 0, len(t.order))
	for _, cat := range t.order {
		subs := make([]string, 0, len(t.subs[cat]))
		for sub := range t.subs[cat] {
			subs = append(subs, sub)
		}
		sort.Strings(subs)
		out = append(out, CategoryInfo{Name: cat, Subcategories: subs})
	}
	return out
}
