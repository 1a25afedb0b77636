package drivers

import (
	"github.com/fleetops/rostersync/pkg/fingerprint"
	"github.com/fleetops/rostersync/pkg/logging"
	"github.com/fleetops/rostersync/pkg/report"
	"github.com/fleetops/rostersync/pkg/samsara"
)

// Planner reason codes.
const (
	ReasonCreate              = "create"
	ReasonUpdate              = "update"
	ReasonDeactivate          = "deactivate"
	ReasonReactivate          = "reactivate"
	ReasonUnchanged           = "unchanged_fingerprint"
	ReasonNoDiff              = "no_diff"
	ReasonMissingEmployeeCode = "missing_employee_code"
	ReasonStatusInactive      = "status_inactive"
	ReasonStatusNotHired      = "status_not_hired"
	ReasonOrphan              = "orphan"
)

// Action is one planned driver reconciliation decision.
type Action struct {
	Kind         report.Kind
	Reason       string
	DriverID     string
	EmployeeCode string
	Username     string
	Status       Status
	Fingerprint  string

	// Create carries the full payload for create actions; Patch the minimal
	// payload otherwise.
	Create *samsara.Driver
	Patch  *samsara.DriverPatch
	Diff   map[string]Change
}

// Planner classifies payroll rows against a remote driver snapshot.
type Planner struct {
	idx          *Index
	meta         map[string]Metadata
	managedTagID string

	matched map[*samsara.Driver]bool
	taken   map[string]bool
}

// NewPlanner builds a planner over the remote snapshot. meta may be nil when
// no operator side-channel CSVs are configured.
func NewPlanner(existing []samsara.Driver, meta map[string]Metadata, managedTagID string) *Planner {
	idx := NewIndex(existing)
	return &Planner{
		idx:          idx,
		meta:         meta,
		managedTagID: managedTagID,
		matched:      make(map[*samsara.Driver]bool),
		taken:        idx.TakenUsernames(),
	}
}

// PlanRow classifies one payroll row.
func (p *Planner) PlanRow(row fingerprint.PayrollRow) Action {
	code := RowEmployeeCode(row)
	existing := p.idx.Find(code, row.Get(driverIDFields...), row.Get(usernameFields...))
	if existing != nil {
		p.matched[existing] = true
	}

	meta := p.meta[NameKey(RowDisplayName(row))]
	desired, ok := BuildDesired(row, existing, meta, p.managedTagID)
	if !ok {
		return Action{
			Kind:     report.KindSkip,
			Reason:   ReasonMissingEmployeeCode,
			Username: row.Get(usernameFields...),
			Status:   ClassifyStatus(row.Get(statusFields...)),
		}
	}

	if existing == nil {
		return p.planCreate(row, desired)
	}
	return p.planExisting(existing, desired)
}

func (p *Planner) planCreate(row fingerprint.PayrollRow, desired Desired) Action {
	code := desired.Driver.ExternalIDs[KeyEmployeeCode]
	if desired.Status != StatusActive {
		reason := ReasonStatusInactive
		if desired.Status == StatusNotHired {
			reason = ReasonStatusNotHired
		}
		return Action{
			Kind:         report.KindSkip,
			Reason:       reason,
			EmployeeCode: code,
			Status:       desired.Status,
		}
	}

	create := desired.Driver
	if create.Username == "" {
		create.Username = GenerateUsername(create.FirstName, create.LastName, p.taken)
	}
	p.taken[usernameKey(create.Username)] = true

	return Action{
		Kind:         report.KindCreate,
		Reason:       ReasonCreate,
		EmployeeCode: code,
		Username:     create.Username,
		Status:       desired.Status,
		Fingerprint:  desired.Fingerprint,
		Create:       &create,
	}
}

func (p *Planner) planExisting(existing *samsara.Driver, desired Desired) Action {
	code := desired.Driver.ExternalIDs[KeyEmployeeCode]
	base := Action{
		DriverID:     existing.ID,
		EmployeeCode: code,
		Username:     desired.Driver.Username,
		Status:       desired.Status,
		Fingerprint:  desired.Fingerprint,
	}

	if StoredFingerprint(existing.ExternalIDs) == desired.Fingerprint &&
		existing.IsDeactivated == desired.Driver.IsDeactivated {
		base.Kind = report.KindSkip
		base.Reason = ReasonUnchanged
		return base
	}

	diff, patch := DiffDriver(existing, &desired)
	if patch == nil {
		base.Kind = report.KindSkip
		base.Reason = ReasonNoDiff
		return base
	}
	base.Patch = patch
	base.Diff = diff

	switch {
	case existing.IsDeactivated && !desired.Driver.IsDeactivated:
		base.Kind = report.KindReactivate
		base.Reason = ReasonReactivate
	case !existing.IsDeactivated && desired.Driver.IsDeactivated:
		base.Kind = report.KindDeactivate
		base.Reason = ReasonDeactivate
	default:
		base.Kind = report.KindUpdate
		base.Reason = ReasonUpdate
	}
	return base
}

// PlanOrphans deactivates in-scope drivers no payroll row matched this pass.
// Scope means an employee code or the managed tag; already-deactivated and
// out-of-scope records are left alone.
func (p *Planner) PlanOrphans() []Action {
	var actions []Action
	for i := range p.idx.Records {
		d := &p.idx.Records[i]
		if p.matched[d] || d.IsDeactivated {
			continue
		}
		code := EmployeeCode(d.ExternalIDs)
		if code == "" {
			if p.managedTagID != "" && containsString(d.AllTagIDs(), p.managedTagID) {
				logging.Debug().Str("driver_id", d.ID).
					Msg("orphan driver in scope by tag but missing employee code")
			}
			continue
		}

		deactivated := true
		actions = append(actions, Action{
			Kind:         report.KindDeactivate,
			Reason:       ReasonOrphan,
			DriverID:     d.ID,
			EmployeeCode: code,
			Username:     d.Username,
			Status:       StatusInactive,
			Fingerprint:  StoredFingerprint(d.ExternalIDs),
			Patch:        &samsara.DriverPatch{IsDeactivated: &deactivated},
			Diff: map[string]Change{
				"isDeactivated": {From: false, To: true},
			},
		})
	}
	return actions
}

func containsString(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
