package fingerprint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalJSONSortsKeysAndOrdersStably(t *testing.T) {
	a := canonicalJSON(map[string]any{
		"name":   "Foo Bar",
		"status": "Active",
		"nested": map[string]any{"x": "1", "y": "2"},
	})
	b := canonicalJSON(map[string]any{
		"nested": map[string]any{"y": "2", "x": "1"},
		"status": "Active",
		"name":   "Foo Bar",
	})
	assert.Equal(t, a, b)
	assert.NotContains(t, string(a), "\n")
}

func TestRowFingerprint(t *testing.T) {
	fp := Row("Foo Mart", "Active", "123 A St")
	assert.Len(t, fp, 64)
	assert.Equal(t, fp, Row("  foo  MART ", "ACTIVE", "123 a st."))
	assert.NotEqual(t, fp, Row("Foo Mart", "Inactive", "123 A St"))
}

func TestPayrollFingerprintStability(t *testing.T) {
	row := NewPayrollRow(map[string]string{
		"Employee_Code": "E100",
		"First_Name":    "Ana",
		"Last_Name":     "Silva",
		"Home State":    "texas",
		"Hire Date":     "05/01/2023",
	})
	other := NewPayrollRow(map[string]string{
		"employee code": " E100 ",
		"first name":    "  ana",
		"LAST_NAME":     "SILVA",
		"home_state":    "TX",
		"hire_date":     "2023-05-01",
	})
	assert.Equal(t,
		Payroll(row, "CST", "pg-1", []string{"t2", "t1"}),
		Payroll(other, "America/Chicago", "pg-1", []string{"t1", "t2", "t1"}),
	)
}

func TestPayrollFingerprintChangesOnFieldEdit(t *testing.T) {
	row := NewPayrollRow(map[string]string{"Employee_Code": "E100", "Department": "Fleet"})
	moved := NewPayrollRow(map[string]string{"Employee_Code": "E100", "Department": "Yard"})
	assert.NotEqual(t, Payroll(row, "", "", nil), Payroll(moved, "", "", nil))
}

func TestPayrollRowGet(t *testing.T) {
	row := NewPayrollRow(map[string]string{"Work  Email": "a@b.com", "Phone": ""})
	assert.Equal(t, "a@b.com", row.Get("work_email", "email"))
	assert.Equal(t, "", row.Get("phone"))
	assert.Equal(t, "", row.Get("missing"))
}

func TestSortedStrings(t *testing.T) {
	require.Equal(t, []string{"a", "b"}, SortedStrings([]string{"b", " a ", "b", ""}))
	require.Empty(t, SortedStrings(nil))
}
