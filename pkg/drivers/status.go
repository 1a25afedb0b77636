package drivers

import (
	"strings"

	"github.com/fleetops/rostersync/pkg/normalize"
)

// Status classifies a payroll employment status cell.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	// StatusNotHired covers applicants in the payroll export who never
	// became employees; they are skipped, never deactivated.
	StatusNotHired Status = "not_hired"
)

// inactiveTokens are substrings that mark a status as terminated employment.
var inactiveTokens = []string{
	"inactive", "terminate", "termination", "leave", "suspend", "retire",
}

// ClassifyStatus maps a free-text employment status onto a Status. Empty and
// unrecognized values default to active, so a sloppy export never deactivates
// a workforce by accident.
func ClassifyStatus(raw string) Status {
	s := normalize.Key(raw)
	if s == "" || s == "active" {
		return StatusActive
	}
	if strings.Contains(s, "not hire") {
		return StatusNotHired
	}
	for _, token := range inactiveTokens {
		if strings.Contains(s, token) {
			return StatusInactive
		}
	}
	if strings.Contains(s, "term") {
		return StatusInactive
	}
	return StatusActive
}
