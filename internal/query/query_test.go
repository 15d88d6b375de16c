package query

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/febluxury/storefront/internal/domain"
	apperrors "github.com/febluxury/storefront/pkg/errors"
	"github.com/febluxury/storefront/pkg/pagination"
)

func values(kv ...string) url.Values {
	v := url.Values{}
	for i := 0; i+1 < len(kv); i += 2 {
		v.Set(kv[i], kv[i+1])
	}
	return v
}

func TestBuild_Defaults(t *testing.T) {
	d, err := Build(url.Values{}, domain.DefaultTaxonomy())
	require.NoError(t, err)

	assert.Equal(t, Filter{}, d.Filter)
	assert.Equal(t, DefaultSort, d.Sort)
	assert.Equal(t, "-createdAt", d.Sort.String())
	assert.Equal(t, 1, d.Page.Page)
	assert.Equal(t, 10, d.Limit())
	assert.Equal(t, 0, d.Skip())
}

func TestBuild_Category(t *testing.T) {
	tax := domain.DefaultTaxonomy()

	d, err := Build(values("category", "  Accessories "), tax)
	require.NoError(t, err)
	assert.Equal(t, "accessories", d.Filter.Category)

	d, err = Build(values("category", "all"), tax)
	require.NoError(t, err)
	assert.Empty(t, d.Filter.Category)

	_, err = Build(values("category", "shoes"), tax)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
}

func TestBuild_SubcategoryAllIsNoConstraint(t *testing.T) {
	for _, raw := range []string{"all", " ALL ", ""} {
		d, err := Build(values("category", "accessories", "subcategory", raw), domain.DefaultTaxonomy())
		require.NoError(t, err)
		assert.Empty(t, d.Filter.Subcategory, "subcategory %q", raw)
	}
}

func TestBuild_SubcategoryIsNotCrossChecked(t *testing.T) {
	d, err := Build(values("category", "accessories", "subcategory", "Designer Niche"), domain.DefaultTaxonomy())
	require.NoError(t, err)
	assert.Equal(t, "designer-niche", d.Filter.Subcategory)
}

func TestBuild_PriceRange(t *testing.T) {
	tax := domain.DefaultTaxonomy()

	d, err := Build(values("minPrice", "10", "maxPrice", "50"), tax)
	require.NoError(t, err)
	require.NotNil(t, d.Filter.MinPrice)
	require.NotNil(t, d.Filter.MaxPrice)
	assert.Equal(t, 10.0, *d.Filter.MinPrice)
	assert.Equal(t, 50.0, *d.Filter.MaxPrice)

	d, err = Build(values("minPrice", "abc"), tax)
	require.NoError(t, err)
	assert.Nil(t, d.Filter.MinPrice)
	assert.Nil(t, d.Filter.MaxPrice)

	d, err = Build(values("minPrice", "", "maxPrice", "75.5"), tax)
	require.NoError(t, err)
	assert.Nil(t, d.Filter.MinPrice)
	require.NotNil(t, d.Filter.MaxPrice)
	assert.Equal(t, 75.5, *d.Filter.MaxPrice)
}

func TestBuild_Sort(t *testing.T) {
	tax := domain.DefaultTaxonomy()

	d, err := Build(values("sort", "price"), tax)
	require.NoError(t, err)
	assert.Equal(t, Sort{Field: SortPrice}, d.Sort)

	d, err = Build(values("sort", "-rating"), tax)
	require.NoError(t, err)
	assert.Equal(t, Sort{Field: SortRating, Desc: true}, d.Sort)

	_, err = Build(values("sort", "-password"), tax)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
}

func TestBuild_Pagination(t *testing.T) {
	tax := domain.DefaultTaxonomy()

	d, err := Build(values("page", "3", "limit", "10"), tax)
	require.NoError(t, err)
	assert.Equal(t, 20, d.Skip())

	for _, bad := range []url.Values{
		values("page", "0"),
		values("page", "x"),
		values("limit", "-1"),
		values("limit", "101"),
	} {
		_, err := Build(bad, tax)
		assert.Error(t, err, bad.Encode())
	}
}

func TestBuildSearch(t *testing.T) {
	d, err := BuildSearch("  oud ", 20)
	require.NoError(t, err)
	assert.Equal(t, "oud", d.Filter.Text)
	assert.Equal(t, 20, d.Limit())
	assert.Equal(t, 0, d.Skip())
	assert.Equal(t, DefaultSort, d.Sort)

	_, err = BuildSearch("   ", 20)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
}

func TestFilter_Matches_Text(t *testing.T) {
	f := Filter{Text: "LEATHER"}

	assert.True(t, f.Matches(&domain.Product{Name: "Black Leather Belt"}))
	assert.True(t, f.Matches(&domain.Product{Description: "full-grain leather"}))
	assert.True(t, f.Matches(&domain.Product{Subcategory: "leather-goods"}))
	assert.False(t, f.Matches(&domain.Product{Name: "Oud Wood", Category: "fragrance"}))
}

func catalog(n int) []domain.Product {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	products := make([]domain.Product, n)
	for i := range products {
		products[i] = domain.Product{
			ID:        fmt.Sprintf("p-%02d", i),
			Name:      fmt.Sprintf("Product %d", i),
			Category:  "accessories",
			Price:     float64(i * 5),
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}
	}
	return products
}

func TestDescriptor_Apply_PriceRange(t *testing.T) {
	d, err := Build(values("minPrice", "10", "maxPrice", "50", "limit", "100"), domain.DefaultTaxonomy())
	require.NoError(t, err)

	items, total := d.Apply(catalog(23))
	assert.Equal(t, 9, total)
	for _, p := range items {
		assert.GreaterOrEqual(t, p.Price, 10.0)
		assert.LessOrEqual(t, p.Price, 50.0)
	}

	d, err = Build(values("minPrice", "abc", "limit", "100"), domain.DefaultTaxonomy())
	require.NoError(t, err)
	_, total = d.Apply(catalog(23))
	assert.Equal(t, 23, total)
}

func TestDescriptor_Apply_Pagination(t *testing.T) {
	tax := domain.DefaultTaxonomy()
	products := catalog(23)

	d, err := Build(values("page", "3", "limit", "10"), tax)
	require.NoError(t, err)

	items, total := d.Apply(products)
	page := NewPage(items, total, d)

	assert.Equal(t, 23, page.TotalCount)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, 3, page.CurrentPage)
	assert.Len(t, page.Items, 3)
	// newest first: the three oldest products land on the last page
	assert.Equal(t, "p-02", page.Items[0].ID)
	assert.Equal(t, "p-00", page.Items[2].ID)

	d, err = Build(values("page", "9"), tax)
	require.NoError(t, err)
	items, total = d.Apply(products)
	assert.Empty(t, items)
	assert.Equal(t, 23, total)
}

func TestDescriptor_Apply_HugePage(t *testing.T) {
	_, err := Build(values("page", "9223372036854775807", "limit", "10"), domain.DefaultTaxonomy())
	require.ErrorIs(t, err, apperrors.ErrInvalidInput)

	d := &Descriptor{Sort: DefaultSort, Page: pagination.Params{Page: math.MaxInt, Limit: 10}}
	assert.NotPanics(t, func() {
		items, total := d.Apply(catalog(5))
		assert.Equal(t, 5, total)
		assert.Len(t, items, 5)
	})
}

func TestSort_Less(t *testing.T) {
	a := &domain.Product{ID: "a", Name: "Alpha", Price: 10, Rating: 4}
	b := &domain.Product{ID: "b", Name: "Beta", Price: 20, Rating: 4}

	assert.True(t, Sort{Field: SortPrice}.Less(a, b))
	assert.False(t, Sort{Field: SortPrice, Desc: true}.Less(a, b))
	assert.True(t, Sort{Field: SortName}.Less(a, b))
	// equal ratings fall back to id
	assert.True(t, Sort{Field: SortRating}.Less(a, b))
}

func TestNewPage_EmptyItems(t *testing.T) {
	d, err := Build(url.Values{}, domain.DefaultTaxonomy())
	require.NoError(t, err)

	page := NewPage(nil, 0, d)
	assert.NotNil(t, page.Items)
	assert.Equal(t, 0, page.TotalPages)
	assert.Equal(t, 1, page.CurrentPage)
}
