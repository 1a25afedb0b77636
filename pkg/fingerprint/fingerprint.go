// Package fingerprint produces stable content hashes over the semantically
// relevant fields of a record. Two inputs that differ only in whitespace,
// casing, or key ordering fingerprint identically; any semantic field change
// produces a different digest.
package fingerprint

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/fleetops/rostersync/pkg/normalize"
)

// Row returns the flat address-row fingerprint over name, status, and
// formatted address, each reduced to its comparison key.
func Row(name, status, formattedAddress string) string {
	payload := normalize.Address(name) + "|" + normalize.Address(status) + "|" + normalize.Address(formattedAddress)
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// canonicalJSON serializes with sorted keys, stable separators, and no HTML
// escaping, mirroring a compact sort_keys JSON dump.
func canonicalJSON(v any) []byte {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		// Normalized values are always plain JSON types; fall back to a
		// deterministic string form if something exotic slips through.
		return []byte(fmt.Sprintf("%v", v))
	}
	return bytes.TrimRight(buf.Bytes(), "\n")
}

// SortedStrings returns a sorted, deduplicated copy of values with empties
// dropped. Used where a sequence is semantically a set (tag ids).
func SortedStrings(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
