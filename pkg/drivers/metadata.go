package drivers

import (
	"encoding/csv"
	"io"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/fleetops/rostersync/pkg/errors"
	"github.com/fleetops/rostersync/pkg/logging"
	"github.com/fleetops/rostersync/pkg/normalize"
)

var (
	reHeaderSanitize = regexp.MustCompile(`[^a-z0-9]+`)
	reTagSplit       = regexp.MustCompile(`[\s,;|]+`)
)

// Metadata is the per-driver side-channel data merged from the operator
// maintained CSVs, keyed by normalized driver name.
type Metadata struct {
	Timezone     string
	PeerGroup    string
	LicenseState string
	HireDate     string
	TagIDs       []string
}

// NameKey canonicalizes a driver name for metadata lookup.
func NameKey(name string) string {
	return normalize.Key(name)
}

func headerKey(s string) string {
	return reHeaderSanitize.ReplaceAllString(strings.ToLower(s), "")
}

// findColumn resolves a header by its sanitized form, preferring exact
// matches over substring matches so "timezone" beats "timezone notes".
func findColumn(header []string, candidates ...string) (int, bool) {
	keys := make([]string, len(header))
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, "\uFEFF")
		}
		keys[i] = headerKey(name)
	}
	for _, cand := range candidates {
		want := headerKey(cand)
		for i, key := range keys {
			if key == want {
				return i, true
			}
		}
	}
	for _, cand := range candidates {
		want := headerKey(cand)
		if want == "" {
			continue
		}
		for i, key := range keys {
			if strings.Contains(key, want) {
				return i, true
			}
		}
	}
	return 0, false
}

func readCSVRows(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WrapIO("open", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.WrapParse("csv", path, err)
		}
		rows = append(rows, record)
	}
	return rows, nil
}

func cell(record []string, i int) string {
	if i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

// LoadTimezoneMap reads the driver name → timezone CSV. Unresolvable
// timezone values are logged and dropped rather than propagated.
func LoadTimezoneMap(path string) (map[string]string, error) {
	rows, err := readCSVRows(path)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return map[string]string{}, nil
	}
	nameCol, nameOK := findColumn(rows[0], "driver", "driver name", "name", "full name")
	tzCol, tzOK := findColumn(rows[0], "timezone", "time zone", "tz")
	if !nameOK || !tzOK {
		return nil, &errors.ValidationError{
			Field:   "timezone_map",
			Message: "driver name and timezone columns are required",
		}
	}

	out := make(map[string]string)
	for _, record := range rows[1:] {
		key := NameKey(cell(record, nameCol))
		if key == "" {
			continue
		}
		out[key] = validTimezone(cell(record, tzCol))
	}
	return out, nil
}

// validTimezone resolves the value to an IANA zone, or "" when it cannot be.
func validTimezone(raw string) string {
	if raw == "" {
		return ""
	}
	tz := normalize.Timezone(raw)
	if !strings.Contains(tz, "/") && tz != "UTC" && !strings.HasPrefix(tz, "UTC") {
		logging.Warn().Str("timezone", raw).Msg("unresolvable timezone dropped")
		return ""
	}
	return tz
}

// LoadPeerGroups reads the driver name → peer group CSV.
func LoadPeerGroups(path string) (map[string]string, error) {
	rows, err := readCSVRows(path)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return map[string]string{}, nil
	}
	nameCol, nameOK := findColumn(rows[0], "driver", "driver name", "name", "full name")
	groupCol, groupOK := findColumn(rows[0], "peer group", "peergroup", "group")
	if !nameOK || !groupOK {
		return nil, &errors.ValidationError{
			Field:   "peer_groups",
			Message: "driver name and peer group columns are required",
		}
	}

	out := make(map[string]string)
	for _, record := range rows[1:] {
		key := NameKey(cell(record, nameCol))
		if key == "" {
			continue
		}
		out[key] = normalize.Text(cell(record, groupCol))
	}
	return out, nil
}

// DriverTags is the shape of one driver_tags.csv row after parsing.
type DriverTags struct {
	TagIDs       []string
	LicenseState string
	HireDate     string
}

// LoadDriverTags reads the driver name → tag ids CSV. License state and hire
// date columns are optional.
func LoadDriverTags(path string) (map[string]DriverTags, error) {
	rows, err := readCSVRows(path)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return map[string]DriverTags{}, nil
	}
	nameCol, nameOK := findColumn(rows[0], "driver", "driver name", "name", "full name")
	tagsCol, tagsOK := findColumn(rows[0], "tag ids", "tagids", "tags")
	if !nameOK || !tagsOK {
		return nil, &errors.ValidationError{
			Field:   "driver_tags",
			Message: "driver name and tag ids columns are required",
		}
	}
	licenseCol, licenseOK := findColumn(rows[0], "license state", "licensestate")
	hireCol, hireOK := findColumn(rows[0], "hire date", "hire_date", "hiredate")

	out := make(map[string]DriverTags)
	for _, record := range rows[1:] {
		key := NameKey(cell(record, nameCol))
		if key == "" {
			continue
		}
		dt := DriverTags{TagIDs: parseTagIDs(cell(record, tagsCol))}
		if licenseOK {
			dt.LicenseState = licenseState(cell(record, licenseCol))
		}
		if hireOK {
			dt.HireDate = normalize.Date(cell(record, hireCol))
		}
		out[key] = dt
	}
	return out, nil
}

// parseTagIDs splits a free-form tag cell on whitespace and common
// separators, deduped and sorted.
func parseTagIDs(raw string) []string {
	if raw == "" {
		return nil
	}
	seen := make(map[string]bool)
	var out []string
	for _, part := range reTagSplit.Split(raw, -1) {
		part = strings.TrimSpace(part)
		if part == "" || seen[part] {
			continue
		}
		seen[part] = true
		out = append(out, part)
	}
	sort.Strings(out)
	return out
}

// licenseState accepts two-letter codes only; anything else is logged and
// dropped.
func licenseState(raw string) string {
	s := strings.TrimSpace(raw)
	if len(s) == 2 && isAlpha(s) {
		return strings.ToUpper(s)
	}
	if s != "" {
		logging.Warn().Str("license_state", s).Msg("invalid license state dropped")
	}
	return ""
}

func isAlpha(s string) bool {
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}

// LoadMetadata loads and merges the three operator CSVs into one lookup.
// A driver appearing in any file gets an entry; missing values stay zero.
func LoadMetadata(timezoneCSV, peerGroupsCSV, driverTagsCSV string) (map[string]Metadata, error) {
	tz, err := LoadTimezoneMap(timezoneCSV)
	if err != nil {
		return nil, err
	}
	groups, err := LoadPeerGroups(peerGroupsCSV)
	if err != nil {
		return nil, err
	}
	tags, err := LoadDriverTags(driverTagsCSV)
	if err != nil {
		return nil, err
	}
	return MergeMetadata(tz, groups, tags), nil
}

// MergeMetadata combines the per-file lookups into one map.
func MergeMetadata(tz, groups map[string]string, tags map[string]DriverTags) map[string]Metadata {
	out := make(map[string]Metadata)
	for name, v := range tz {
		m := out[name]
		m.Timezone = v
		out[name] = m
	}
	for name, v := range groups {
		m := out[name]
		m.PeerGroup = v
		out[name] = m
	}
	for name, v := range tags {
		m := out[name]
		m.TagIDs = v.TagIDs
		m.LicenseState = v.LicenseState
		m.HireDate = v.HireDate
		out[name] = m
	}
	return out
}
