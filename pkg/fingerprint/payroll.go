package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"

	"github.com/fleetops/rostersync/pkg/normalize"
)

var reFieldKey = regexp.MustCompile(`[^a-z0-9]+`)

// fieldKey reduces a payroll column header to its lookup form.
func fieldKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = reFieldKey.ReplaceAllString(s, "_")
	return strings.Trim(s, "_")
}

// PayrollRow is the canonical ordered key/value view of a payroll record.
// Every supported input shape is converted through NewPayrollRow before any
// normalization happens, so the fingerprint pipeline never special-cases
// row shapes.
type PayrollRow struct {
	lookup map[string]string
}

// NewPayrollRow adapts a raw row (CSV header → cell) into a PayrollRow.
// Keys are sanitized; the first occurrence of a sanitized key wins.
func NewPayrollRow(raw map[string]string) PayrollRow {
	lookup := make(map[string]string, len(raw))
	for k, v := range raw {
		key := fieldKey(k)
		if key == "" {
			continue
		}
		if _, ok := lookup[key]; !ok {
			lookup[key] = v
		}
	}
	return PayrollRow{lookup: lookup}
}

// Get returns the first non-empty value among the candidate column names.
func (r PayrollRow) Get(candidates ...string) string {
	for _, cand := range candidates {
		key := fieldKey(cand)
		if key == "" {
			continue
		}
		if v, ok := r.lookup[key]; ok && strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// Payroll computes the fingerprint of a payroll row together with its
// resolved timezone, peer group, and tag ids. The payload groups fields the
// way the driver record is managed remotely so semantically equal exports
// always hash equally.
func Payroll(row PayrollRow, tz, peerGroupID string, tagIDs []string) string {
	payload := map[string]any{
		"address": map[string]any{
			"city":       normalize.Key(row.Get("home_city", "city", "primary_city", "location_city")),
			"country":    normalize.Key(row.Get("home_country", "country")),
			"line1":      normalize.Key(row.Get("home_address_line_1", "home_address1", "address_line_1", "address1", "street_address")),
			"line2":      normalize.Key(row.Get("home_address_line_2", "home_address2", "address_line_2", "address2", "apartment", "suite")),
			"postalCode": normalize.Key(row.Get("home_postal_code", "postal_code", "zip_code", "zip")),
			"state":      normalize.State(row.Get("home_state", "state")),
		},
		"contact": map[string]any{
			"email":         normalize.Key(row.Get("work_email", "company_email", "email", "email_address")),
			"personalEmail": normalize.Key(row.Get("personal_email", "home_email", "alternate_email")),
			"phoneHome":     normalize.Key(row.Get("home_phone", "phone_home")),
			"phoneMobile":   normalize.Key(row.Get("mobile_phone", "cell_phone", "mobile_number")),
			"phoneWork":     normalize.Key(row.Get("work_phone", "business_phone", "phone")),
		},
		"employment": map[string]any{
			"department":       normalize.Key(row.Get("department", "home_department", "department_name")),
			"division":         normalize.Key(row.Get("division", "business_unit", "company_division")),
			"employeeId":       normalize.Text(row.Get("employee_id", "employee_number", "worker_id", "employee_code")),
			"employmentStatus": normalize.Key(row.Get("employment_status", "status", "employee_status")),
			"employmentType":   normalize.Key(row.Get("employment_type", "employee_type", "status_type")),
			"hireDate":         normalize.Date(row.Get("hire_date", "original_hire_date", "start_date", "employment_start_date")),
			"location":         normalize.Key(row.Get("location", "primary_location", "work_location")),
			"manager":          normalize.Name(row.Get("manager", "supervisor", "manager_name", "reports_to")),
			"reHireDate":       normalize.Date(row.Get("rehire_date", "re_hire_date", "recent_rehire_date")),
			"terminationDate":  normalize.Date(row.Get("termination_date", "term_date", "employment_end_date", "end_date")),
			"title":            normalize.Key(row.Get("job_title", "position", "title")),
		},
		"identity": map[string]any{
			"displayName":        normalize.Name(row.Get("display_name", "name")),
			"firstName":          normalize.Name(row.Get("first_name", "legal_first_name", "preferred_name_first")),
			"lastName":           normalize.Name(row.Get("last_name", "legal_last_name", "preferred_name_last")),
			"middleName":         normalize.Name(row.Get("middle_name", "mi")),
			"preferredFirstName": normalize.Name(row.Get("preferred_first_name", "preferred_name")),
			"preferredLastName":  normalize.Name(row.Get("preferred_last_name")),
			"prefix":             normalize.Key(row.Get("prefix", "name_prefix")),
			"suffix":             normalize.Key(row.Get("suffix", "name_suffix")),
		},
		"license": map[string]any{
			"class":      normalize.Key(row.Get("drivers_license_class", "license_class", "driver_license_class")),
			"expiration": normalize.Date(row.Get("drivers_license_expiration", "license_expiration", "license_expiration_date")),
			"number":     normalize.Text(row.Get("drivers_license_number", "license_number", "driver_license_number")),
			"state":      normalize.State(row.Get("drivers_license_state", "license_state", "driver_license_state")),
		},
		"peerGroupId": strings.TrimSpace(peerGroupID),
		"tagIds":      SortedStrings(tagIDs),
		"timezone":    normalize.Timezone(tz),
	}

	sum := sha256.Sum256(canonicalJSON(payload))
	return hex.EncodeToString(sum[:])
}
