// Package slug turns free-form labels into lowercase, hyphen-separated keys.
package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var nonKeyRun = regexp.MustCompile(`[^a-z0-9]+`)

// Letters that do not decompose into a base letter plus a combining mark.
var foldReplacer = strings.NewReplacer(
	"ı", "i", "ß", "ss", "æ", "ae", "ø", "o", "ł", "l", "đ", "d", "œ", "oe",
)

// Generate returns the key form of s: diacritics folded, lowercased, every run
// of characters outside [a-z0-9] collapsed to one hyphen, and no leading or
// trailing hyphen.
//
//	"Wrist Watches"      -> "wrist-watches"
//	"Bangles & Bracelet" -> "bangles-bracelet"
//	"Désigner  Niche"    -> "designer-niche"
func Generate(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(t, s); err == nil {
		s = folded
	}
	s = foldReplacer.Replace(s)

	return strings.Trim(nonKeyRun.ReplaceAllString(s, "-"), "-")
}
