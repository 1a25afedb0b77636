package sync

import (
	"github.com/fleetops/rostersync/pkg/fingerprint"
	"github.com/fleetops/rostersync/pkg/normalize"
	"github.com/fleetops/rostersync/pkg/roster"
	"github.com/fleetops/rostersync/pkg/samsara"
)

// Tag names the engine owns on the remote side.
const (
	ManagedByTag       = "ManagedBy:EncompassSync"
	CandidateDeleteTag = "CandidateDelete"

	// UpdatedGeofenceTag marks addresses whose geofence was hand-tuned in
	// the remote UI; the engine never overwrites those.
	UpdatedGeofenceTag = "Updated Geofence"

	// DefaultGeofenceRadiusMeters is written on newly created circles.
	DefaultGeofenceRadiusMeters = 50
)

// Desired is the target remote state computed from one source row.
type Desired struct {
	Address     samsara.Address
	Fingerprint string
}

// BuildDesiredAddress computes the target address payload for a source row.
// The scope tag and the location/company tags are resolved through the tag
// index; the row fingerprint is stored as an owned external id so unchanged
// rows can short-circuit on later passes.
func BuildDesiredAddress(row roster.SourceRow, tags *samsara.TagIndex, radiusM int) Desired {
	fp := fingerprint.Row(row.Name, row.Status, row.Address)

	ext := map[string]string{
		KeyEncompassID: row.EncompassID,
		KeyStatus:      row.Status,
		KeyManaged:     "1",
		KeyFingerprint: fp,
	}
	if row.CType != "" {
		ext[KeyType] = row.CType
	}

	var tagIDs []string
	if id, ok := tags.IDFor(ManagedByTag); ok {
		tagIDs = append(tagIDs, id)
	}
	for _, name := range []string{row.Location, row.Company} {
		if name == "" {
			continue
		}
		if id, ok := tags.IDFor(name); ok && !contains(tagIDs, id) {
			tagIDs = append(tagIDs, id)
		}
	}

	addr := samsara.Address{
		Name:             row.Name,
		FormattedAddress: row.Address,
		ExternalIDs:      ext,
		TagIDs:           tagIDs,
	}
	if normalize.ValidLatLon(row.Lat, row.Lon) {
		addr.Geofence = &samsara.Geofence{Circle: &samsara.Circle{
			Latitude:     *row.Lat,
			Longitude:    *row.Lon,
			RadiusMeters: radiusM,
		}}
	}
	return Desired{Address: addr, Fingerprint: fp}
}

// IsManaged reports whether the address belongs to the engine's scope: it
// carries a stored source identifier or the managed tag.
func IsManaged(a *samsara.Address, managedTagID string) bool {
	if EncompassID(a.ExternalIDs) != "" {
		return true
	}
	if managedTagID == "" {
		return false
	}
	return contains(a.AllTagIDs(), managedTagID)
}

// GeofenceProtected reports whether the address's geofence must never be
// overwritten: it carries an opaque polygon or the "Updated Geofence" tag.
func GeofenceProtected(a *samsara.Address, tags *samsara.TagIndex) bool {
	if a.Geofence.HasPolygon() {
		return true
	}
	want := normalize.Key(UpdatedGeofenceTag)
	for _, name := range a.TagNames(tags.Names()) {
		if normalize.Key(name) == want {
			return true
		}
	}
	return false
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

// StoredFingerprint returns the fingerprint recorded on the address,
// falling back to the persisted state when the external id is absent.
func StoredFingerprint(a *samsara.Address, state *State) string {
	if fp := CleanExternalIDs(a.ExternalIDs)[KeyFingerprint]; fp != "" {
		return fp
	}
	return state.Fingerprints[a.ID]
}
