package drivers

import (
	"sort"
	"strings"

	"github.com/fleetops/rostersync/pkg/fingerprint"
	"github.com/fleetops/rostersync/pkg/normalize"
	"github.com/fleetops/rostersync/pkg/samsara"
)

// ManagedByDriverTag marks driver records owned by the payroll sync.
const ManagedByDriverTag = "ManagedBy:PaycomSync"

// Metadata keys mirrored onto the remote driver record. Contact values are
// kept in metadata as well as on the typed fields so a later pass can tell
// a sync-written value from an operator edit in the remote UI.
const (
	MetaWorkEmail      = "work_email"
	MetaPrimaryPhone   = "primary_phone"
	MetaSecondaryPhone = "secondary_phone"
	MetaPeerGroup      = "peer_group"
	MetaLicenseState   = "license_state"
	MetaHireDate       = "hire_date"
)

// Desired is the target remote driver state computed from one payroll row.
type Desired struct {
	Driver      samsara.Driver
	Fingerprint string
	Status      Status
}

// BuildDesired computes the target driver payload for a payroll row. Fields
// absent from the row fall back to the existing record so a sparse export
// never blanks data. The employee code comes from the row or, failing that,
// the existing record's external ids; without one the row cannot be synced
// and ok is false.
func BuildDesired(row fingerprint.PayrollRow, existing *samsara.Driver, meta Metadata, managedTagID string) (Desired, bool) {
	code := RowEmployeeCode(row)
	if code == "" && existing != nil {
		code = EmployeeCode(existing.ExternalIDs)
	}
	if code == "" {
		return Desired{}, false
	}

	status := ClassifyStatus(row.Get(statusFields...))

	d := samsara.Driver{
		FirstName:     normalize.Text(row.Get(firstNameFields...)),
		LastName:      normalize.Text(row.Get(lastNameFields...)),
		Username:      strings.TrimSpace(row.Get(usernameFields...)),
		Email:         strings.ToLower(normalize.Text(row.Get(emailFields...))),
		IsDeactivated: status != StatusActive,
	}
	if existing != nil {
		if d.FirstName == "" {
			d.FirstName = existing.FirstName
		}
		if d.LastName == "" {
			d.LastName = existing.LastName
		}
		if d.Username == "" {
			d.Username = existing.Username
		}
		if d.Email == "" {
			d.Email = strings.ToLower(normalize.Text(existing.Email))
		}
	}
	d.PrimaryPhone = normalize.Text(row.Get(primaryPhoneFields...))
	d.SecondaryPhone = normalize.Text(row.Get(secondPhoneFields...))

	tz := meta.Timezone
	if tz == "" {
		tz = normalize.Timezone(row.Get(timeZoneFields...))
	}
	if tz == "" && existing != nil {
		tz = existing.TimeZone
	}
	d.TimeZone = tz

	d.TagIDs = desiredTagIDs(existing, meta.TagIDs, managedTagID)
	d.Metadata = desiredMetadata(&d, meta)

	fp := fingerprint.Payroll(row, tz, meta.PeerGroup, d.TagIDs)
	d.ExternalIDs = samsara.SanitizeExternalIDs(map[string]string{
		KeyEmployeeCode: code,
		KeyFingerprint:  fp,
	})

	return Desired{Driver: d, Fingerprint: fp, Status: status}, true
}

// desiredTagIDs merges the metadata tags, the existing record's tags, and
// the managed scope tag. Tags applied remotely out-of-band survive the sync.
func desiredTagIDs(existing *samsara.Driver, metaTags []string, managedTagID string) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(id string) {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			return
		}
		seen[id] = true
		out = append(out, id)
	}
	for _, id := range metaTags {
		add(id)
	}
	if existing != nil {
		for _, id := range existing.AllTagIDs() {
			add(id)
		}
	}
	add(managedTagID)
	sort.Strings(out)
	return out
}

// desiredMetadata mirrors the contact fields and the operator side-channel
// data into the driver metadata map.
func desiredMetadata(d *samsara.Driver, meta Metadata) map[string]string {
	out := make(map[string]string)
	set := func(key, value string) {
		if value != "" {
			out[key] = value
		}
	}
	set(MetaWorkEmail, d.Email)
	set(MetaPrimaryPhone, d.PrimaryPhone)
	set(MetaSecondaryPhone, d.SecondaryPhone)
	set(MetaPeerGroup, meta.PeerGroup)
	set(MetaLicenseState, meta.LicenseState)
	set(MetaHireDate, meta.HireDate)
	if len(out) == 0 {
		return nil
	}
	return out
}

