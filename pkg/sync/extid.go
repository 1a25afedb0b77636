package sync

import (
	"fmt"
	"time"
)

// Canonical external-id keys the engine owns on address records. Historical
// data carries mixed-case spellings of the same keys; CleanExternalIDs folds
// those onto the canonical lowercase form before any comparison so legacy
// records never produce spurious diffs.
const (
	KeyEncompassID     = "encompass_id"
	KeyStatus          = "encompass_status"
	KeyManaged         = "encompass_managed"
	KeyFingerprint     = "encompass_fingerprint"
	KeyType            = "encompass_type"
	KeyDeleteCandidate = "encompass_delete_candidate"
)

// ownedKeys are the only external-id keys the engine compares and replaces.
// Everything else on the remote record passes through untouched.
var ownedKeys = []string{
	KeyEncompassID,
	KeyStatus,
	KeyManaged,
	KeyFingerprint,
	KeyType,
	KeyDeleteCandidate,
}

// legacyKeys maps historical key spellings onto canonical keys.
var legacyKeys = map[string]string{
	"EncompassId":                KeyEncompassID,
	"ENCOMPASS_ID":               KeyEncompassID,
	"ENCOMPASS_STATUS":           KeyStatus,
	"ENCOMPASS_MANAGED":          KeyManaged,
	"ENCOMPASS_FINGERPRINT":      KeyFingerprint,
	"fingerprint":                KeyFingerprint,
	"ENCOMPASS_TYPE":             KeyType,
	"ENCOMPASS_DELETE_CANDIDATE": KeyDeleteCandidate,
}

// CleanExternalIDs returns a copy of ext with legacy key spellings folded
// onto their canonical lowercase forms. A canonical key already present wins
// over its legacy spelling.
func CleanExternalIDs(ext map[string]string) map[string]string {
	out := make(map[string]string, len(ext))
	for k, v := range ext {
		if _, ok := legacyKeys[k]; !ok {
			out[k] = v
		}
	}
	for k, v := range ext {
		canonical, ok := legacyKeys[k]
		if !ok {
			continue
		}
		if _, exists := out[canonical]; !exists && v != "" {
			out[canonical] = v
		}
	}
	return out
}

// EncompassID extracts the source identifier from a record's external ids,
// accepting legacy spellings.
func EncompassID(ext map[string]string) string {
	return CleanExternalIDs(ext)[KeyEncompassID]
}

// MarkerPolicy selects the quarantine marker format written into
// encompass_delete_candidate. The source history carries both conventions, so
// the format is configuration rather than a constant.
type MarkerPolicy string

const (
	// MarkerLegacyFlag writes the literal "1". Every quarantined record
	// shares the value, which collides with external-id uniqueness on some
	// tenants; kept only for pre-migration state.
	MarkerLegacyFlag MarkerPolicy = "legacy_flag"

	// MarkerTimestamped writes "<UTC compact timestamp>-<record id>",
	// unique per record even within the same second.
	MarkerTimestamped MarkerPolicy = "timestamped"
)

// QuarantineMarker produces the marker value for a record under the policy.
func (p MarkerPolicy) QuarantineMarker(recordID string, now time.Time) string {
	if p == MarkerLegacyFlag {
		return "1"
	}
	return fmt.Sprintf("%s-%s", now.UTC().Format("20060102T150405"), recordID)
}
