package normalize

import (
	"strings"
	"time"

	"github.com/fleetops/rostersync/pkg/logging"
)

// emptyDateMarkers are spreadsheet placeholders treated as no value.
var emptyDateMarkers = map[string]bool{
	"na": true, "n/a": true, "n.a.": true,
	"none": true, "null": true,
}

// isoLayouts are tried before the spreadsheet fallback formats.
var isoLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// dateLayouts are the fallback formats commonly seen in payroll exports,
// tried in order. Single-digit layouts also accept zero-padded input.
var dateLayouts = []string{
	"2006-1-2",
	"20060102",
	"2006/1/2",
	"1/2/2006",
	"1/2/06",
	"1-2-2006",
	"1-2-06",
	"Jan 2 2006",
	"January 2 2006",
	"2 Jan 2006",
	"2 January 2006",
}

// Date parses the input into an ISO-8601 date (YYYY-MM-DD). Empty markers
// ("na", "none", "0", ...) return "". Unparseable non-empty input logs a
// warning and is normalized as plain text; Date never fails.
func Date(s string) string {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return ""
	}
	if emptyDateMarkers[strings.ToLower(raw)] {
		return ""
	}
	switch raw {
	case "0", "00000000", "0000-00-00":
		return ""
	}

	iso := strings.ReplaceAll(raw, "Z", "+00:00")
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, strings.TrimSuffix(raw, "Z")); err == nil {
			return t.Format("2006-01-02")
		}
		if t, err := time.Parse(layout, iso); err == nil {
			return t.Format("2006-01-02")
		}
	}

	cleaned := strings.NewReplacer(",", " ", ".", "/", `\`, "/").Replace(raw)
	cleaned = strings.TrimSpace(reSpaces.ReplaceAllString(cleaned, " "))
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, cleaned); err == nil {
			return t.Format("2006-01-02")
		}
	}

	logging.Warn().Str("value", raw).Msg("unparseable date; normalizing as plain text")
	return Key(cleaned)
}
