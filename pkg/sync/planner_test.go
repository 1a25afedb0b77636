package sync

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetops/rostersync/pkg/errors"
	"github.com/fleetops/rostersync/pkg/report"
	"github.com/fleetops/rostersync/pkg/roster"
	"github.com/fleetops/rostersync/pkg/samsara"
)

func noWarehouses(t *testing.T) *roster.Warehouses {
	t.Helper()
	w, err := roster.LoadWarehouses(writeTempCSV(t, "samsara_id,name\n"))
	require.NoError(t, err)
	return w
}

func writeTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := t.TempDir() + "/w.csv"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func activeRow() roster.SourceRow {
	return roster.SourceRow{
		EncompassID: "C1", Name: "Foo", Status: "Active",
		Lat: f64(30.1), Lon: f64(-97.7), Address: "123 A St",
	}
}

func TestPlanRowCreateAgainstEmptyRemote(t *testing.T) {
	p := NewPlanner(nil, emptyTags(), noWarehouses(t), NewState(), Options{})

	actions := p.PlanRow(activeRow())
	require.Len(t, actions, 1)
	a := actions[0]
	assert.Equal(t, report.KindCreate, a.Kind)
	require.NotNil(t, a.Create)
	require.NotNil(t, a.Create.Geofence)
	require.NotNil(t, a.Create.Geofence.Circle)
	assert.Equal(t, 30.1, a.Create.Geofence.Circle.Latitude)
	assert.Equal(t, -97.7, a.Create.Geofence.Circle.Longitude)
	assert.Equal(t, 50, a.Create.Geofence.Circle.RadiusMeters)
	assert.NotEmpty(t, a.Create.ExternalIDs[KeyFingerprint])
	assert.Equal(t, a.Fingerprint, a.Create.ExternalIDs[KeyFingerprint])
}

func TestPlanRowUnchangedFingerprintSkips(t *testing.T) {
	row := activeRow()
	desired := BuildDesiredAddress(row, emptyTags(), DefaultGeofenceRadiusMeters)
	remote := desired.Address
	remote.ID = "42"

	p := NewPlanner([]samsara.Address{remote}, emptyTags(), noWarehouses(t), NewState(), Options{})
	actions := p.PlanRow(row)
	require.Len(t, actions, 1)
	assert.Equal(t, report.KindSkip, actions[0].Kind)
	assert.Equal(t, ReasonUnchanged, actions[0].Reason)
	assert.Equal(t, "42", actions[0].AddressID)
}

func TestPlanRowRepairsStrippedScopeMarkers(t *testing.T) {
	row := activeRow()
	desired := BuildDesiredAddress(row, emptyTags(), DefaultGeofenceRadiusMeters)
	remote := desired.Address
	remote.ID = "42"
	// Fingerprint still matches; only the scope markers were edited away.
	delete(remote.ExternalIDs, KeyManaged)

	p := NewPlanner([]samsara.Address{remote}, emptyTags(), noWarehouses(t), NewState(), Options{})
	actions := p.PlanRow(row)
	require.Len(t, actions, 1)
	assert.Equal(t, report.KindUpdate, actions[0].Kind)
	assert.Equal(t, ReasonScopeRepair, actions[0].Reason)
	require.NotNil(t, actions[0].Patch)
	assert.Equal(t, "1", actions[0].Patch.ExternalIDs[KeyManaged])
	assert.Equal(t, row.EncompassID, actions[0].Patch.ExternalIDs[KeyEncompassID])
}

func TestPlanRowRepairsRemovedManagedTag(t *testing.T) {
	tags := samsara.NewTagIndex([]samsara.Tag{{ID: "t-managed", Name: ManagedByTag}})
	row := activeRow()
	desired := BuildDesiredAddress(row, tags, DefaultGeofenceRadiusMeters)
	remote := desired.Address
	remote.ID = "42"
	remote.TagIDs = nil

	p := NewPlanner([]samsara.Address{remote}, tags, noWarehouses(t), NewState(), Options{})
	actions := p.PlanRow(row)
	require.Len(t, actions, 1)
	assert.Equal(t, report.KindUpdate, actions[0].Kind)
	assert.Equal(t, ReasonScopeRepair, actions[0].Reason)
	require.NotNil(t, actions[0].Patch)
	assert.Contains(t, actions[0].Patch.TagIDs, "t-managed")
	assert.Nil(t, actions[0].Patch.ExternalIDs, "intact external ids are not rewritten")
}

func TestPlannerIdempotence(t *testing.T) {
	row := activeRow()
	desired := BuildDesiredAddress(row, emptyTags(), DefaultGeofenceRadiusMeters)
	remote := desired.Address
	remote.ID = "42"
	addrs := []samsara.Address{remote}

	for run := 0; run < 2; run++ {
		p := NewPlanner(addrs, emptyTags(), noWarehouses(t), NewState(), Options{})
		var all []PlannedAction
		all = append(all, p.PlanRow(row)...)
		all = append(all, p.PlanOrphans()...)
		for _, a := range all {
			assert.Equal(t, report.KindSkip, a.Kind, "run %d produced %s", run, a.Kind)
		}
	}
}

func TestPlanRowInactiveWithoutMatchSkips(t *testing.T) {
	p := NewPlanner(nil, emptyTags(), noWarehouses(t), NewState(), Options{})
	row := activeRow()
	row.Status = "INACTIVE"
	actions := p.PlanRow(row)
	require.Len(t, actions, 1)
	assert.Equal(t, report.KindSkip, actions[0].Kind)
	assert.Equal(t, ReasonStatusInactive, actions[0].Reason)
}

func TestPlanRowMissingIdentifier(t *testing.T) {
	p := NewPlanner(nil, emptyTags(), noWarehouses(t), NewState(), Options{})
	actions := p.PlanRow(roster.SourceRow{Name: "No ID"})
	require.Len(t, actions, 1)
	assert.Equal(t, report.KindSkip, actions[0].Kind)
	assert.Equal(t, ReasonMissingID, actions[0].Reason)
}

func managedRemote(id, eid string) samsara.Address {
	return samsara.Address{
		ID:   id,
		Name: "Foo",
		ExternalIDs: map[string]string{
			KeyEncompassID: eid,
			KeyManaged:     "1",
		},
	}
}

func TestDeleteRowQuarantinesFirst(t *testing.T) {
	state := NewState()
	p := NewPlanner([]samsara.Address{managedRemote("42", "C1")}, emptyTags(), noWarehouses(t), state, Options{})

	row := activeRow()
	row.Action = "delete"
	actions := p.PlanRow(row)
	require.Len(t, actions, 1, "no delete without confirm")
	a := actions[0]
	assert.Equal(t, report.KindQuarantine, a.Kind)
	require.NotNil(t, a.Patch)
	marker := a.Patch.ExternalIDs[KeyDeleteCandidate]
	assert.Contains(t, marker, "42", "marker embeds the record id")
	assert.Contains(t, state.CandidateDeletes, "42")
}

func TestQuarantineMarkersUniquePerRecord(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	a := MarkerTimestamped.QuarantineMarker("42", now)
	b := MarkerTimestamped.QuarantineMarker("43", now)
	assert.NotEqual(t, a, b, "same second, different records")
	assert.Equal(t, "1", MarkerLegacyFlag.QuarantineMarker("42", now))
}

func TestDeleteAfterRetentionWithConfirm(t *testing.T) {
	remote := managedRemote("42", "C1")
	remote.ExternalIDs[KeyDeleteCandidate] = "20260701T000000-42"

	state := NewState()
	state.Fingerprints["42"] = "fp"
	state.CandidateDeletes["42"] = "2026-07-01T00:00:00Z"

	p := NewPlanner([]samsara.Address{remote}, emptyTags(), noWarehouses(t), state, Options{
		RetentionDays: 30, ConfirmDelete: true,
	})
	p.now = func() time.Time { return time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC) }

	row := activeRow()
	row.Action = "delete"
	actions := p.PlanRow(row)
	require.Len(t, actions, 2)
	assert.Equal(t, report.KindSkip, actions[0].Kind)
	assert.Equal(t, ReasonAlreadyQuarantined, actions[0].Reason)
	assert.Equal(t, report.KindDelete, actions[1].Kind)
	assert.Equal(t, ReasonHardDelete, actions[1].Reason)
}

func TestDeleteRowProtectedIsNoop(t *testing.T) {
	wPath := writeTempCSV(t, "samsara_id,name\n42,\n")
	warehouses, err := roster.LoadWarehouses(wPath)
	require.NoError(t, err)

	p := NewPlanner([]samsara.Address{managedRemote("42", "C1")}, emptyTags(), warehouses, NewState(), Options{})
	row := activeRow()
	row.Action = "delete"
	actions := p.PlanRow(row)
	require.Len(t, actions, 1)
	assert.Equal(t, report.KindSkip, actions[0].Kind)
	assert.Equal(t, ReasonDeleteNoop, actions[0].Reason)
}

func TestOrphanSweep(t *testing.T) {
	orphan := managedRemote("9", "GONE")
	unmanaged := samsara.Address{ID: "10", Name: "Not Ours"}

	state := NewState()
	p := NewPlanner([]samsara.Address{orphan, unmanaged}, emptyTags(), noWarehouses(t), state, Options{})
	p.PlanRow(activeRow())

	actions := p.PlanOrphans()
	require.Len(t, actions, 1)
	assert.Equal(t, report.KindQuarantine, actions[0].Kind)
	assert.Equal(t, ReasonOrphan, actions[0].Reason)
	assert.Equal(t, "9", actions[0].AddressID)
	assert.Contains(t, state.CandidateDeletes, "9")
}

type fakeClient struct {
	addrs     []samsara.Address
	tags      []samsara.Tag
	created   []*samsara.Address
	patched   map[string]*samsara.AddressPatch
	deleted   []string
	createErr error
	nextID    int
}

func newFakeClient() *fakeClient {
	return &fakeClient{patched: map[string]*samsara.AddressPatch{}, nextID: 100}
}

func (f *fakeClient) ListAddresses(context.Context) ([]samsara.Address, error) { return f.addrs, nil }
func (f *fakeClient) ListTags(context.Context) ([]samsara.Tag, error)          { return f.tags, nil }

func (f *fakeClient) CreateAddress(_ context.Context, a *samsara.Address) (*samsara.Address, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, a)
	f.nextID++
	created := *a
	created.ID = strconv.Itoa(f.nextID)
	return &created, nil
}

func (f *fakeClient) PatchAddress(_ context.Context, id string, p *samsara.AddressPatch) (*samsara.Address, error) {
	f.patched[id] = p
	return &samsara.Address{ID: id}, nil
}

func (f *fakeClient) DeleteAddress(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func TestExecuteDryRunIssuesNoWrites(t *testing.T) {
	client := newFakeClient()
	state := NewState()
	plan := []PlannedAction{
		{Kind: report.KindCreate, Reason: ReasonCreate, Create: &samsara.Address{Name: "X"}, Fingerprint: "fp"},
		{Kind: report.KindDelete, Reason: ReasonHardDelete, AddressID: "9"},
	}
	actions := Execute(context.Background(), client, plan, state, false)
	require.Len(t, actions, 2)
	assert.Empty(t, client.created)
	assert.Empty(t, client.deleted)
	assert.Empty(t, state.Fingerprints)
}

func TestExecuteApplyAdvancesState(t *testing.T) {
	client := newFakeClient()
	state := NewState()
	state.Fingerprints["9"] = "old"
	state.CandidateDeletes["9"] = "2026-01-01T00:00:00Z"

	plan := []PlannedAction{
		{Kind: report.KindCreate, Reason: ReasonCreate, Create: &samsara.Address{Name: "X"}, Fingerprint: "fp-new"},
		{Kind: report.KindDelete, Reason: ReasonHardDelete, AddressID: "9"},
	}
	actions := Execute(context.Background(), client, plan, state, true)
	require.Len(t, actions, 2)

	require.Len(t, client.created, 1)
	assert.NotEmpty(t, actions[0].EntityID)
	assert.Equal(t, "fp-new", state.Fingerprints[actions[0].EntityID])

	assert.Equal(t, []string{"9"}, client.deleted)
	assert.NotContains(t, state.Fingerprints, "9")
	assert.NotContains(t, state.CandidateDeletes, "9")
}

func TestExecuteCapturesConflictAndContinues(t *testing.T) {
	client := newFakeClient()
	client.createErr = &errors.ConflictError{
		Kind: errors.ConflictDuplicateValue, Key: "encompass_id", Value: "C1",
	}
	state := NewState()
	plan := []PlannedAction{
		{Kind: report.KindCreate, Reason: ReasonCreate, Create: &samsara.Address{Name: "X"}},
		{Kind: report.KindUpdate, Reason: ReasonUpdate, AddressID: "7",
			Patch: &samsara.AddressPatch{TagIDs: []string{"t"}}, Fingerprint: "fp"},
	}
	actions := Execute(context.Background(), client, plan, state, true)
	require.Len(t, actions, 2)
	assert.Equal(t, report.KindError, actions[0].Kind)
	assert.Equal(t, "duplicate_external_id", actions[0].Reason)
	assert.Equal(t, report.KindUpdate, actions[1].Kind, "pass continues after conflict")
	assert.Contains(t, client.patched, "7")
	assert.Equal(t, "fp", state.Fingerprints["7"])
}
