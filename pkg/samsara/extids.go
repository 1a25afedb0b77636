package samsara

import (
	"regexp"
	"strings"

	"github.com/fleetops/rostersync/pkg/logging"
)

// MaxExternalIDLength bounds both keys and values; a SHA-256 hex digest must
// still fit.
const MaxExternalIDLength = 64

var (
	reExtIDKey   = regexp.MustCompile(`[^a-z0-9_]+`)
	reExtIDValue = regexp.MustCompile(`[^A-Za-z0-9._:@-]+`)
)

// SanitizeExternalIDKey lowercases the key and strips disallowed characters.
// Returns "" when nothing valid remains.
func SanitizeExternalIDKey(key string) string {
	out := reExtIDKey.ReplaceAllString(strings.ToLower(strings.TrimSpace(key)), "")
	if len(out) > MaxExternalIDLength {
		out = out[:MaxExternalIDLength]
	}
	return out
}

// SanitizeExternalIDValue strips disallowed characters and enforces the max
// length. Returns "" when nothing valid remains.
func SanitizeExternalIDValue(value string) string {
	out := reExtIDValue.ReplaceAllString(strings.TrimSpace(value), "")
	if len(out) > MaxExternalIDLength {
		out = out[:MaxExternalIDLength]
	}
	return out
}

// SanitizeExternalIDs returns a sanitized copy of the map, applied before
// every remote write. Entries whose key or value sanitizes to empty are
// dropped. Every mutation or drop is logged, never raised.
func SanitizeExternalIDs(ext map[string]string) map[string]string {
	if len(ext) == 0 {
		return nil
	}
	out := make(map[string]string, len(ext))
	for k, v := range ext {
		key := SanitizeExternalIDKey(k)
		if key == "" {
			logging.Warn().Str("key", k).Msg("dropping external id: key sanitized to empty")
			continue
		}
		value := SanitizeExternalIDValue(v)
		if value == "" {
			logging.Warn().Str("key", k).Str("value", v).
				Msg("dropping external id: value sanitized to empty")
			continue
		}
		if key != k || value != v {
			logging.Warn().Str("key", k).Str("sanitized_key", key).
				Msg("sanitized external id before write")
		}
		out[key] = value
	}
	return out
}
