package sync

import (
	"github.com/fleetops/rostersync/pkg/fingerprint"
	"github.com/fleetops/rostersync/pkg/samsara"
)

// DiffAddress computes the minimal patch turning existing into desired.
// A nil return means no write is needed.
//
// Field rules:
//   - name and formattedAddress compare as scalars, empty equals absent
//   - geofence is skipped entirely for protected records; otherwise legacy
//     center shapes normalize to circles and any difference replaces the
//     whole geofence
//   - external ids compare only over the keys the engine owns, after legacy
//     spellings are folded; unowned keys pass through untouched
//   - tag ids compare as a set, with externally-added tags folded into the
//     desired list first; any difference replaces the whole list
func DiffAddress(existing *samsara.Address, desired *Desired, tags *samsara.TagIndex) *samsara.AddressPatch {
	patch := &samsara.AddressPatch{}

	if existing.Name != desired.Address.Name {
		name := desired.Address.Name
		patch.Name = &name
	}
	if existing.FormattedAddress != desired.Address.FormattedAddress {
		addr := desired.Address.FormattedAddress
		patch.FormattedAddress = &addr
	}

	if !GeofenceProtected(existing, tags) {
		diffGeofence(existing.Geofence, desired.Address.Geofence, patch)
	}

	if ext := diffExternalIDs(existing.ExternalIDs, desired.Address.ExternalIDs); ext != nil {
		patch.ExternalIDs = ext
	}

	// Externally-added tags fold into the desired set so they survive the
	// wholesale tag-list replacement.
	eTags := fingerprint.SortedStrings(existing.AllTagIDs())
	dTags := fingerprint.SortedStrings(append(desired.Address.TagIDs, eTags...))
	if !equalStrings(eTags, dTags) {
		patch.TagIDs = dTags
	}

	if patch.IsZero() {
		return nil
	}
	return patch
}

func diffGeofence(existing, desired *samsara.Geofence, patch *samsara.AddressPatch) {
	e := existing.Canonical()
	d := desired.Canonical()
	switch {
	case e == nil && d == nil:
	case d == nil:
		patch.ClearGeofence = true
	case e == nil,
		e.Latitude != d.Latitude,
		e.Longitude != d.Longitude,
		e.RadiusMeters != d.RadiusMeters:
		// Full replacement, never a partial field patch.
		patch.Geofence = &samsara.Geofence{Circle: d}
	}
}

// diffExternalIDs merges owned-key changes into a full replacement map. The
// remote API replaces the whole external-id set on write, so unowned keys
// are carried over verbatim. Returns nil when nothing owned changed and no
// legacy spelling needs folding.
func diffExternalIDs(existing, desired map[string]string) map[string]string {
	cleaned := CleanExternalIDs(existing)
	changed := len(cleaned) != len(existing)
	if !changed {
		for k, v := range existing {
			if cleaned[k] != v {
				changed = true
				break
			}
		}
	}

	for _, key := range ownedKeys {
		want, ok := desired[key]
		if !ok {
			continue
		}
		if cleaned[key] != want {
			changed = true
			break
		}
	}
	if !changed {
		return nil
	}

	merged := make(map[string]string, len(cleaned)+len(desired))
	for k, v := range cleaned {
		merged[k] = v
	}
	for _, key := range ownedKeys {
		if want, ok := desired[key]; ok {
			merged[key] = want
		}
	}
	return samsara.SanitizeExternalIDs(merged)
}

func equalStrings(a, b []string) bool {
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
