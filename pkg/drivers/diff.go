package drivers

import (
	"sort"

	"github.com/fleetops/rostersync/pkg/fingerprint"
	"github.com/fleetops/rostersync/pkg/samsara"
)

// Change is one field-level difference between the existing record and the
// desired state, kept for reporting.
type Change struct {
	From any `json:"from"`
	To   any `json:"to"`
}

// DiffDriver compares an existing driver against the desired state and
// returns the field-level diff alongside the minimal patch. A nil patch
// means no write is needed. Contact fields clear explicitly: a desired empty
// value against a populated record patches the field to empty and removes
// the mirrored metadata key.
func DiffDriver(existing *samsara.Driver, desired *Desired) (map[string]Change, *samsara.DriverPatch) {
	diff := make(map[string]Change)
	patch := &samsara.DriverPatch{}
	d := &desired.Driver

	scalar := func(field, from, to string, dst **string) {
		if from == to {
			return
		}
		diff[field] = Change{From: from, To: to}
		v := to
		*dst = &v
	}

	scalar("firstName", existing.FirstName, d.FirstName, &patch.FirstName)
	scalar("lastName", existing.LastName, d.LastName, &patch.LastName)
	if d.Username != "" {
		scalar("username", existing.Username, d.Username, &patch.Username)
	}
	if d.TimeZone != "" {
		scalar("timeZone", existing.TimeZone, d.TimeZone, &patch.TimeZone)
	}
	scalar("email", existing.Email, d.Email, &patch.Email)
	scalar("primaryPhone", existing.PrimaryPhone, d.PrimaryPhone, &patch.PrimaryPhone)
	scalar("secondaryPhone", existing.SecondaryPhone, d.SecondaryPhone, &patch.SecondaryPhone)

	if existing.IsDeactivated != d.IsDeactivated {
		diff["isDeactivated"] = Change{From: existing.IsDeactivated, To: d.IsDeactivated}
		v := d.IsDeactivated
		patch.IsDeactivated = &v
	}

	eTags := fingerprint.SortedStrings(existing.AllTagIDs())
	dTags := fingerprint.SortedStrings(d.TagIDs)
	if !equalSlices(eTags, dTags) {
		diff["tagIds"] = Change{From: eTags, To: dTags}
		patch.TagIDs = dTags
	}

	diffExternalIDs(existing, d, diff, patch)
	diffMetadata(existing, d, diff, patch)

	if patch.IsZero() {
		return diff, nil
	}
	return diff, patch
}

// diffExternalIDs compares the owned keys only; foreign external ids on the
// record pass through untouched. Any difference replaces the whole map since
// the remote API treats externalIds as a unit.
func diffExternalIDs(existing *samsara.Driver, d *samsara.Driver, diff map[string]Change, patch *samsara.DriverPatch) {
	cleaned := CleanExternalIDs(existing.ExternalIDs)

	// Legacy key spellings on the record force a rewrite even when the
	// folded values already match.
	changed := false
	for k := range existing.ExternalIDs {
		if _, legacy := legacyKeys[k]; legacy {
			changed = true
			break
		}
	}
	for _, key := range []string{KeyEmployeeCode, KeyFingerprint} {
		from, to := cleaned[key], d.ExternalIDs[key]
		if from == to {
			continue
		}
		diff["externalIds."+key] = Change{From: from, To: to}
		changed = true
	}
	if !changed {
		return
	}

	merged := make(map[string]string, len(cleaned)+len(d.ExternalIDs))
	for k, v := range cleaned {
		merged[k] = v
	}
	for k, v := range d.ExternalIDs {
		merged[k] = v
	}
	patch.ExternalIDs = samsara.SanitizeExternalIDs(merged)
}

// diffMetadata compares the owned metadata keys. A desired empty value for
// an owned key removes it; foreign metadata keys are never touched.
func diffMetadata(existing *samsara.Driver, d *samsara.Driver, diff map[string]Change, patch *samsara.DriverPatch) {
	owned := []string{
		MetaWorkEmail, MetaPrimaryPhone, MetaSecondaryPhone,
		MetaPeerGroup, MetaLicenseState, MetaHireDate,
	}
	var meta map[string]*string
	for _, key := range owned {
		from, to := existing.Metadata[key], d.Metadata[key]
		if from == to {
			continue
		}
		if meta == nil {
			meta = make(map[string]*string)
		}
		diff["metadata."+key] = Change{From: from, To: to}
		if to == "" {
			meta[key] = nil
		} else {
			v := to
			meta[key] = &v
		}
	}
	if meta != nil {
		patch.Metadata = meta
	}
}

func equalSlices(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// SortedDiffFields returns the diff's field names in stable order for
// report rows.
func SortedDiffFields(diff map[string]Change) []string {
	fields := make([]string, 0, len(diff))
	for f := range diff {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}
