package sync

import (
	"time"

	"github.com/fleetops/rostersync/pkg/report"
	"github.com/fleetops/rostersync/pkg/roster"
	"github.com/fleetops/rostersync/pkg/samsara"
)

// Skip and action reason codes.
const (
	ReasonCreate             = "create"
	ReasonUpdate             = "update"
	ReasonUnchanged          = "unchanged_fingerprint"
	ReasonScopeRepair        = "scope_repair"
	ReasonNoDiff             = "no_diff"
	ReasonStatusInactive     = "status_inactive"
	ReasonMissingID          = "missing_identifier"
	ReasonAlreadyQuarantined = "already_quarantined"
	ReasonDeleteCandidate    = "delete_candidate"
	ReasonOrphan             = "orphan_candidate_delete"
	ReasonHardDelete         = "hard_delete_after_retention"
	ReasonDeleteNoop         = "delete_noop_not_found_or_protected"
)

// Options configure one reconciliation pass.
type Options struct {
	// GeofenceRadiusMeters is written on created circles.
	GeofenceRadiusMeters int
	// MatchRadiusMeters bounds the nearest-neighbor matcher stage.
	MatchRadiusMeters float64
	// RetentionDays is the minimum quarantine age before hard deletion.
	RetentionDays int
	// ConfirmDelete gates hard deletes; without it quarantined records
	// only age.
	ConfirmDelete bool
	// Marker selects the quarantine marker format.
	Marker MarkerPolicy
}

// withDefaults fills unset options.
func (o Options) withDefaults() Options {
	if o.GeofenceRadiusMeters <= 0 {
		o.GeofenceRadiusMeters = DefaultGeofenceRadiusMeters
	}
	if o.MatchRadiusMeters <= 0 {
		o.MatchRadiusMeters = DefaultMatchRadiusMeters
	}
	if o.RetentionDays <= 0 {
		o.RetentionDays = 30
	}
	if o.Marker == "" {
		o.Marker = MarkerTimestamped
	}
	return o
}

// PlannedAction is one reconciliation decision. It carries everything the
// apply step needs; the classification itself is derived each pass, never
// stored.
type PlannedAction struct {
	Kind        report.Kind
	Reason      string
	AddressID   string
	EncompassID string

	// Create is the full payload for create actions.
	Create *samsara.Address
	// Patch is the minimal payload for update and quarantine actions.
	Patch *samsara.AddressPatch
	// Fingerprint is recorded in state once the write lands.
	Fingerprint string
	// Diff is the patch's wire view, kept for reporting.
	Diff map[string]any
}

// Planner classifies source rows against the remote address set. It is
// stateful within a pass: matches and quarantine marks made for earlier rows
// are visible to later rows and to the orphan sweep.
type Planner struct {
	opts           Options
	tags           *samsara.TagIndex
	managedTagID   string
	candidateTagID string
	warehouses     *roster.Warehouses
	state          *State

	addrs   []samsara.Address
	byEID   map[string]*samsara.Address
	matched map[string]bool
	srcEIDs map[string]bool

	now func() time.Time
}

// NewPlanner builds a planner over a snapshot of the remote address set.
func NewPlanner(addrs []samsara.Address, tags *samsara.TagIndex, warehouses *roster.Warehouses, state *State, opts Options) *Planner {
	p := &Planner{
		opts:       opts.withDefaults(),
		tags:       tags,
		warehouses: warehouses,
		state:      state,
		addrs:      addrs,
		byEID:      IndexByEncompassID(addrs),
		matched:    make(map[string]bool),
		srcEIDs:    make(map[string]bool),
		now:        time.Now,
	}
	if id, ok := tags.IDFor(ManagedByTag); ok {
		p.managedTagID = id
	}
	if id, ok := tags.IDFor(CandidateDeleteTag); ok {
		p.candidateTagID = id
	}
	return p
}

// PlanRow classifies one source row. The returned slice is ordered; a delete
// row can yield both a quarantine and a hard delete in the same pass.
func (p *Planner) PlanRow(row roster.SourceRow) []PlannedAction {
	if row.EncompassID == "" {
		return []PlannedAction{{
			Kind:   report.KindSkip,
			Reason: ReasonMissingID,
		}}
	}
	p.srcEIDs[row.EncompassID] = true

	if row.IsDelete() {
		return p.planDelete(row)
	}
	return p.planUpsert(row)
}

func (p *Planner) planUpsert(row roster.SourceRow) []PlannedAction {
	desired := BuildDesiredAddress(row, p.tags, p.opts.GeofenceRadiusMeters)
	existing := p.resolve(row)

	if existing == nil {
		if row.IsInactive() {
			return []PlannedAction{{
				Kind:        report.KindSkip,
				Reason:      ReasonStatusInactive,
				EncompassID: row.EncompassID,
			}}
		}
		create := desired.Address
		create.ExternalIDs = samsara.SanitizeExternalIDs(create.ExternalIDs)
		return []PlannedAction{{
			Kind:        report.KindCreate,
			Reason:      ReasonCreate,
			EncompassID: row.EncompassID,
			Create:      &create,
			Fingerprint: desired.Fingerprint,
		}}
	}

	p.matched[existing.ID] = true

	if StoredFingerprint(existing, p.state) == desired.Fingerprint {
		if patch := p.scopeRepair(existing, row.EncompassID); patch != nil {
			return []PlannedAction{{
				Kind:        report.KindUpdate,
				Reason:      ReasonScopeRepair,
				AddressID:   existing.ID,
				EncompassID: row.EncompassID,
				Patch:       patch,
				Fingerprint: desired.Fingerprint,
				Diff:        patch.Wire(),
			}}
		}
		return []PlannedAction{{
			Kind:        report.KindSkip,
			Reason:      ReasonUnchanged,
			AddressID:   existing.ID,
			EncompassID: row.EncompassID,
		}}
	}

	patch := DiffAddress(existing, &desired, p.tags)
	if patch == nil {
		return []PlannedAction{{
			Kind:        report.KindSkip,
			Reason:      ReasonNoDiff,
			AddressID:   existing.ID,
			EncompassID: row.EncompassID,
		}}
	}
	return []PlannedAction{{
		Kind:        report.KindUpdate,
		Reason:      ReasonUpdate,
		AddressID:   existing.ID,
		EncompassID: row.EncompassID,
		Patch:       patch,
		Fingerprint: desired.Fingerprint,
		Diff:        patch.Wire(),
	}}
}

// scopeRepair restores the engine's scope markers on a record whose content
// fingerprint is unchanged. The source identifier, the managed marker, and
// the managed tag can be removed by hand on the remote side; without this
// patch such a record drifts out of scope while every pass reports it
// unchanged. Returns nil when the markers are intact.
func (p *Planner) scopeRepair(existing *samsara.Address, encompassID string) *samsara.AddressPatch {
	var patch samsara.AddressPatch
	changed := false

	ext := CleanExternalIDs(existing.ExternalIDs)
	if ext[KeyEncompassID] == "" || ext[KeyManaged] != "1" {
		ext[KeyEncompassID] = encompassID
		ext[KeyManaged] = "1"
		patch.ExternalIDs = samsara.SanitizeExternalIDs(ext)
		changed = true
	}

	if p.managedTagID != "" && !contains(existing.AllTagIDs(), p.managedTagID) {
		patch.TagIDs = append(existing.AllTagIDs(), p.managedTagID)
		changed = true
	}

	if !changed {
		return nil
	}
	return &patch
}

// resolve finds the existing record for a row. External-id lookup first; a
// probable match is attempted only among unmanaged records and, when found,
// indexed under the row's identifier so later rows and the orphan sweep see
// the adoption.
func (p *Planner) resolve(row roster.SourceRow) *samsara.Address {
	if a, ok := p.byEID[row.EncompassID]; ok {
		return a
	}
	var unmanaged []*samsara.Address
	for i := range p.addrs {
		if !IsManaged(&p.addrs[i], p.managedTagID) {
			unmanaged = append(unmanaged, &p.addrs[i])
		}
	}
	a := Match(row, unmanaged, nil, p.opts.MatchRadiusMeters)
	if a != nil {
		p.byEID[row.EncompassID] = a
	}
	return a
}

func (p *Planner) planDelete(row roster.SourceRow) []PlannedAction {
	existing := p.byEID[row.EncompassID]
	if existing == nil ||
		p.warehouses.Protects(existing.ID, existing.Name) ||
		!IsManaged(existing, p.managedTagID) {
		return []PlannedAction{{
			Kind:        report.KindSkip,
			Reason:      ReasonDeleteNoop,
			EncompassID: row.EncompassID,
		}}
	}
	p.matched[existing.ID] = true
	return p.quarantine(existing, row.EncompassID, ReasonDeleteCandidate)
}

// quarantine runs the safe-delete state machine for one record: mark it as a
// delete candidate (tag when configured, unique external-id marker
// otherwise), start the retention clock idempotently, and hard-delete only
// once the operator has confirmed and the window has elapsed.
func (p *Planner) quarantine(existing *samsara.Address, encompassID, reason string) []PlannedAction {
	now := p.now()
	var actions []PlannedAction

	if patch := p.quarantinePatch(existing, now); patch != nil {
		actions = append(actions, PlannedAction{
			Kind:        report.KindQuarantine,
			Reason:      reason,
			AddressID:   existing.ID,
			EncompassID: encompassID,
			Patch:       patch,
			Diff:        patch.Wire(),
		})
	} else {
		actions = append(actions, PlannedAction{
			Kind:        report.KindSkip,
			Reason:      ReasonAlreadyQuarantined,
			AddressID:   existing.ID,
			EncompassID: encompassID,
		})
	}

	p.state.MarkCandidate(existing.ID, now)

	if p.opts.ConfirmDelete && p.state.EligibleForHardDelete(existing.ID, p.opts.RetentionDays, now) {
		actions = append(actions, PlannedAction{
			Kind:        report.KindDelete,
			Reason:      ReasonHardDelete,
			AddressID:   existing.ID,
			EncompassID: encompassID,
		})
	}
	return actions
}

// quarantinePatch builds the marking patch, or nil when the record already
// carries the mark.
func (p *Planner) quarantinePatch(existing *samsara.Address, now time.Time) *samsara.AddressPatch {
	if p.candidateTagID != "" {
		tagIDs := existing.AllTagIDs()
		if contains(tagIDs, p.candidateTagID) {
			return nil
		}
		return &samsara.AddressPatch{TagIDs: append(tagIDs, p.candidateTagID)}
	}

	ext := CleanExternalIDs(existing.ExternalIDs)
	if ext[KeyDeleteCandidate] != "" {
		return nil
	}
	ext[KeyDeleteCandidate] = p.opts.Marker.QuarantineMarker(existing.ID, now)
	return &samsara.AddressPatch{ExternalIDs: samsara.SanitizeExternalIDs(ext)}
}

// PlanOrphans sweeps the remote set for managed records no source row
// matched this pass and feeds each into the safe-delete state machine.
// Warehouse records are never touched.
func (p *Planner) PlanOrphans() []PlannedAction {
	var actions []PlannedAction
	for i := range p.addrs {
		a := &p.addrs[i]
		if a.ID == "" || p.matched[a.ID] {
			continue
		}
		if p.warehouses.Protects(a.ID, a.Name) {
			continue
		}
		if !IsManaged(a, p.managedTagID) {
			continue
		}
		eid := EncompassID(a.ExternalIDs)
		if eid != "" && p.srcEIDs[eid] {
			continue
		}
		actions = append(actions, p.quarantine(a, eid, ReasonOrphan)...)
	}
	return actions
}
