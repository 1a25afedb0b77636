package drivers

import (
	"strings"

	"github.com/fleetops/rostersync/pkg/fingerprint"
	"github.com/fleetops/rostersync/pkg/samsara"
)

// Index provides the driver lookups the planner matches against. Maps hold
// pointers into the backing slice; first occurrence wins on key collisions.
type Index struct {
	Records []samsara.Driver

	byID           map[string]*samsara.Driver
	byEmployeeCode map[string]*samsara.Driver
	byUsername     map[string]*samsara.Driver
}

// NewIndex builds the lookup maps over a remote driver snapshot.
func NewIndex(records []samsara.Driver) *Index {
	idx := &Index{
		Records:        records,
		byID:           make(map[string]*samsara.Driver, len(records)),
		byEmployeeCode: make(map[string]*samsara.Driver, len(records)),
		byUsername:     make(map[string]*samsara.Driver, len(records)),
	}
	for i := range records {
		d := &records[i]
		if d.ID != "" {
			if _, ok := idx.byID[d.ID]; !ok {
				idx.byID[d.ID] = d
			}
		}
		if code := EmployeeCode(d.ExternalIDs); code != "" {
			if _, ok := idx.byEmployeeCode[code]; !ok {
				idx.byEmployeeCode[code] = d
			}
		}
		if key := usernameKey(d.Username); key != "" {
			if _, ok := idx.byUsername[key]; !ok {
				idx.byUsername[key] = d
			}
		}
	}
	return idx
}

func usernameKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Find resolves a payroll row to an existing driver: employee code first,
// then explicit driver id, then username.
func (idx *Index) Find(employeeCode, driverID, username string) *samsara.Driver {
	if employeeCode != "" {
		if d, ok := idx.byEmployeeCode[employeeCode]; ok {
			return d
		}
	}
	if driverID != "" {
		if d, ok := idx.byID[driverID]; ok {
			return d
		}
	}
	if key := usernameKey(username); key != "" {
		if d, ok := idx.byUsername[key]; ok {
			return d
		}
	}
	return nil
}

// TakenUsernames returns the username set for collision checks when
// generating logins.
func (idx *Index) TakenUsernames() map[string]bool {
	taken := make(map[string]bool, len(idx.byUsername))
	for key := range idx.byUsername {
		taken[key] = true
	}
	return taken
}

// Row field candidates shared by the desired builder and the planner.
var (
	employeeCodeFields = []string{"employee_code", "employee_id", "employee_number", "worker_id"}
	driverIDFields     = []string{"driver_id", "samsara_driver_id", "id"}
	usernameFields     = []string{"username", "samsara_username", "user_name"}
	firstNameFields    = []string{"first_name", "legal_first_name", "preferred_name_first"}
	lastNameFields     = []string{"last_name", "legal_last_name", "preferred_name_last"}
	emailFields        = []string{"work_email", "company_email", "email", "email_address"}
	primaryPhoneFields = []string{"mobile_phone", "cell_phone", "primary_phone", "phone"}
	secondPhoneFields  = []string{"home_phone", "secondary_phone", "phone_home"}
	statusFields       = []string{"employment_status", "status", "employee_status"}
	timeZoneFields     = []string{"time_zone", "timezone", "tz"}
)

// RowEmployeeCode extracts and sanitizes the employee code from a payroll
// row. Empty means the row cannot be synced on its own.
func RowEmployeeCode(row fingerprint.PayrollRow) string {
	return samsara.SanitizeExternalIDValue(row.Get(employeeCodeFields...))
}

// RowDisplayName joins the row's name parts for metadata lookup.
func RowDisplayName(row fingerprint.PayrollRow) string {
	if name := row.Get("display_name", "name", "full_name"); name != "" {
		return name
	}
	return strings.TrimSpace(row.Get(firstNameFields...) + " " + row.Get(lastNameFields...))
}
