package drivers

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxUsernameLength is the remote API's username length limit.
const MaxUsernameLength = 189

var reUsernameChars = regexp.MustCompile(`[^a-z0-9]`)

var usernameDeaccent = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// usernameSlug reduces a name part to lowercase ASCII letters and digits.
func usernameSlug(s string) string {
	if out, _, err := transform.String(usernameDeaccent, s); err == nil {
		s = out
	}
	return reUsernameChars.ReplaceAllString(strings.ToLower(s), "")
}

// GenerateUsername derives a unique login from a driver's name: first
// initial plus last-name slug, with a numeric suffix to break collisions.
// The suffix always fits within MaxUsernameLength, truncating the base
// rather than the suffix.
func GenerateUsername(first, last string, taken map[string]bool) string {
	base := usernameSlug(first)
	if base != "" {
		base = base[:1]
	}
	base += usernameSlug(last)

	for suffix := 1; ; suffix++ {
		tail := "-" + strconv.Itoa(suffix)
		head := base
		if max := MaxUsernameLength - len(tail); len(head) > max {
			if max < 0 {
				max = 0
			}
			head = head[:max]
		}
		candidate := head + tail
		if !taken[candidate] {
			return candidate
		}
	}
}
