package normalize

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"
)

var (
	reTZKeySanitize = regexp.MustCompile(`[^a-z0-9+-]+`)
	reTZUnderscores = regexp.MustCompile(`_+`)
	reTZOffset      = regexp.MustCompile(`(?i)^(?:(?:UTC|GMT)\s*)?([+-])\s*(\d{1,2})(?::?\s*(\d{2}))?$`)
)

// tzAliases maps sanitized colloquial timezone names to IANA zones.
var tzAliases = map[string]string{
	"central":                "America/Chicago",
	"central_standard_time":  "America/Chicago",
	"central_daylight_time":  "America/Chicago",
	"cst":                    "America/Chicago",
	"cdt":                    "America/Chicago",
	"us_central":             "US/Central",
	"eastern":                "America/New_York",
	"eastern_standard_time":  "America/New_York",
	"eastern_daylight_time":  "America/New_York",
	"est":                    "America/New_York",
	"edt":                    "America/New_York",
	"us_eastern":             "US/Eastern",
	"mountain":               "America/Denver",
	"mountain_standard_time": "America/Denver",
	"mountain_daylight_time": "America/Denver",
	"mst":                    "America/Denver",
	"mdt":                    "America/Denver",
	"us_mountain":            "US/Mountain",
	"pacific":                "America/Los_Angeles",
	"pacific_standard_time":  "America/Los_Angeles",
	"pacific_daylight_time":  "America/Los_Angeles",
	"pst":                    "America/Los_Angeles",
	"pdt":                    "America/Los_Angeles",
	"us_pacific":             "US/Pacific",
	"arizona":                "America/Phoenix",
	"us_arizona":             "US/Arizona",
	"alaska":                 "America/Anchorage",
	"hawaii":                 "Pacific/Honolulu",
	"hst":                    "Pacific/Honolulu",
	"utc":                    "UTC",
	"gmt":                    "UTC",
}

// zoneTable is the process-wide sanitized-name → IANA-name lookup. Built
// once behind zoneTableOnce; treated as immutable after construction.
var (
	zoneTableOnce sync.Once
	zoneTable     map[string]string
)

// tzKey sanitizes a timezone name into the lookup key form: lowercase,
// symbols spelled out, runs of other characters collapsed to underscores.
func tzKey(s string) string {
	s = Text(s)
	s = strings.NewReplacer(
		"#", " number ",
		"%", " percent ",
		"&", " and ",
		"@", " at ",
	).Replace(s)
	s = strings.ToLower(s)
	s = reTZKeySanitize.ReplaceAllString(s, "_")
	s = reTZUnderscores.ReplaceAllString(s, "_")
	return strings.Trim(s, "_")
}

func zones() map[string]string {
	zoneTableOnce.Do(func() {
		zoneTable = make(map[string]string, len(ianaZones))
		for _, name := range ianaZones {
			key := tzKey(name)
			if _, ok := zoneTable[key]; !ok {
				zoneTable[key] = name
			}
		}
	})
	return zoneTable
}

// Timezone normalizes a timezone name to an IANA identifier when possible.
// Resolution order: exact (sanitized) match against the IANA zone list,
// curated alias table, raw parse attempts, UTC-offset pattern, else the
// upper-cased original.
func Timezone(s string) string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return ""
	}

	key := tzKey(trimmed)
	if name, ok := zones()[key]; ok {
		return name
	}
	if alias, ok := tzAliases[key]; ok {
		if name, ok := zones()[tzKey(alias)]; ok {
			return name
		}
		return alias
	}

	if _, err := time.LoadLocation(trimmed); err == nil {
		return trimmed
	}
	alt := strings.ReplaceAll(trimmed, " ", "_")
	if _, err := time.LoadLocation(alt); err == nil {
		return alt
	}

	m := reTZOffset.FindStringSubmatch(trimmed)
	if m == nil {
		m = reTZOffset.FindStringSubmatch(strings.ReplaceAll(trimmed, " ", ""))
	}
	if m != nil {
		return offsetZone(m)
	}

	return strings.ToUpper(trimmed)
}

// offsetZone renders a matched UTC offset as UTC±HH:MM.
func offsetZone(m []string) string {
	hours := 0
	minutes := 0
	fmt.Sscanf(m[2], "%d", &hours)
	if m[3] != "" {
		fmt.Sscanf(m[3], "%d", &minutes)
	}
	total := hours*60 + minutes
	if m[1] == "-" {
		total = -total
	}
	sign := "+"
	if total < 0 {
		sign = "-"
		total = -total
	}
	return fmt.Sprintf("UTC%s%02d:%02d", sign, total/60, total%60)
}
