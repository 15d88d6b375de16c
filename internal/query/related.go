package query

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/febluxury/storefront/internal/domain"
)

// NameTokens splits name on whitespace and keeps tokens longer than one
// character.
func NameTokens(name string) []string {
	fields := strings.Fields(name)
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if utf8.RuneCountInString(f) > 1 {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// TokenPattern joins the escaped tokens into one alternation. It returns ""
// for no tokens; callers must treat an empty pattern as matching nothing.
func TokenPattern(tokens []string) string {
	if len(tokens) == 0 {
		return ""
	}
	quoted := make([]string, len(tokens))
	for i, t := range tokens {
		quoted[i] = regexp.QuoteMeta(t)
	}
	return strings.Join(quoted, "|")
}

// RelatedFilter selects products related to a source product: any other
// product whose name matches one of the source's name tokens
// (case-insensitive) or that shares its category.
type RelatedFilter struct {
	ExcludeID   string
	Category    string
	NamePattern string
	Limit       int

	re *regexp.Regexp
}

// NewRelatedFilter builds the filter for source, returning at most limit
// products.
func NewRelatedFilter(source *domain.Product, limit int) *RelatedFilter {
	f := &RelatedFilter{
		ExcludeID:   source.ID,
		Category:    source.Category,
		NamePattern: TokenPattern(NameTokens(source.Name)),
		Limit:       limit,
	}
	if f.NamePattern != "" {
		f.re = regexp.MustCompile("(?i)" + f.NamePattern)
	}
	return f
}

// Matches reports whether p is related to the source product.
func (f *RelatedFilter) Matches(p *domain.Product) bool {
	if p.ID == f.ExcludeID {
		return false
	}
	if p.Category == f.Category {
		return true
	}
	return f.re != nil && f.re.MatchString(p.Name)
}
