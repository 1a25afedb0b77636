// Package normalize canonicalizes the free-text fields that flow through the
// reconciliation engine: names, addresses, states, dates, and timezones.
// All functions are pure and never return an error; unrecognized input
// degrades to a best-effort canonical form so a single bad cell cannot abort
// a sync pass.
package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	reSpaces    = regexp.MustCompile(`\s+`)
	reNameChars = regexp.MustCompile(`[^0-9a-z ]`)
	rePunct     = regexp.MustCompile(`[^\w\s]`)
)

// deaccent strips combining marks after canonical decomposition, so
// "José" compares equal to "Jose".
var deaccent = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Text trims the input and collapses internal whitespace runs to a single
// space. Case is preserved; use Key for comparison keys.
func Text(s string) string {
	s = norm.NFKC.String(s)
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return reSpaces.ReplaceAllString(s, " ")
}

// Key returns a case-folded comparison key for the input. Display values
// should go through Text instead.
func Key(s string) string {
	return strings.ToLower(Text(s))
}

// Address returns a comparison key for a free-text address: Key plus
// punctuation stripped. Never used as a display value.
func Address(s string) string {
	s = Key(s)
	if s == "" {
		return ""
	}
	s = rePunct.ReplaceAllString(s, "")
	return strings.TrimSpace(reSpaces.ReplaceAllString(s, " "))
}

// Name returns a comparison key for a personal name: de-accented ASCII,
// lowercased, restricted to letters, digits, and single spaces.
func Name(s string) string {
	s = Key(s)
	if s == "" {
		return ""
	}
	if out, _, err := transform.String(deaccent, s); err == nil {
		s = out
	}
	s = reNameChars.ReplaceAllString(s, "")
	return strings.TrimSpace(reSpaces.ReplaceAllString(s, " "))
}
