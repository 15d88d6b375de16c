package pagination

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	apperrors "github.com/febluxury/storefront/pkg/errors"
)

// Defaults controls how Parse fills in and bounds page parameters.
type Defaults struct {
	Page     int
	Limit    int
	MaxLimit int
}

// DefaultDefaults returns page 1, 10 items per page, at most 100.
func DefaultDefaults() Defaults {
	return Defaults{Page: 1, Limit: 10, MaxLimit: 100}
}

// Params is a validated page request.
type Params struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// Skip returns the number of items before the requested page. Params that
// did not come from Parse and would overflow report 0.
func (p Params) Skip() int {
	if p.Page < 1 || p.Limit < 1 || p.Page-1 > math.MaxInt/p.Limit {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

// Parse reads "page" and "limit" from values. Missing or blank values take
// the defaults; anything that is not a positive integer, or a limit above
// MaxLimit, is an INVALID_INPUT error. So is a page so large that its skip
// offset would not fit in an int.
func Parse(values url.Values, d Defaults) (Params, error) {
	page, err := positiveInt(values, "page", d.Page)
	if err != nil {
		return Params{}, err
	}
	limit, err := positiveInt(values, "limit", d.Limit)
	if err != nil {
		return Params{}, err
	}
	if d.MaxLimit > 0 && limit > d.MaxLimit {
		return Params{}, apperrors.InvalidInputf("limit must not exceed %d", d.MaxLimit)
	}
	if page-1 > math.MaxInt/limit {
		return Params{}, apperrors.InvalidInputf("page must not exceed %d", math.MaxInt/limit+1)
	}
	return Params{Page: page, Limit: limit}, nil
}

func positiveInt(values url.Values, key string, def int) (int, error) {
	raw := strings.TrimSpace(values.Get(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return 0, apperrors.InvalidInputf("%s must be a positive integer", key)
	}
	return v, nil
}

// Result is one page of items plus the totals needed to render a pager.
type Result[T any] struct {
	Items       []T `json:"items"`
	TotalCount  int `json:"totalCount"`
	TotalPages  int `json:"totalPages"`
	CurrentPage int `json:"currentPage"`
}

// NewResult builds a Result; TotalPages is ceil(totalCount/limit).
func NewResult[T any](items []T, totalCount int, p Params) Result[T] {
	if items == nil {
		items = []T{}
	}
	totalPages := 0
	if p.Limit > 0 {
		totalPages = (totalCount + p.Limit - 1) / p.Limit
	}
	return Result[T]{
		Items:       items,
		TotalCount:  totalCount,
		TotalPages:  totalPages,
		CurrentPage: p.Page,
	}
}
