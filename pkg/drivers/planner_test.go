package drivers

import (
	"context"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetops/rostersync/pkg/errors"
	"github.com/fleetops/rostersync/pkg/report"
	"github.com/fleetops/rostersync/pkg/samsara"
)

func existingDriver(id, code string) samsara.Driver {
	return samsara.Driver{
		ID:        id,
		FirstName: "Bob",
		LastName:  "Smith",
		Username:  "bsmith-1",
		ExternalIDs: map[string]string{
			KeyEmployeeCode: code,
		},
	}
}

func TestIndexLookupOrder(t *testing.T) {
	records := []samsara.Driver{
		existingDriver("d1", "E100"),
		{ID: "d2", Username: "EJones-1"},
	}
	idx := NewIndex(records)

	assert.Same(t, &idx.Records[0], idx.Find("E100", "", ""))
	assert.Same(t, &idx.Records[1], idx.Find("", "d2", ""))
	assert.Same(t, &idx.Records[1], idx.Find("", "", "ejones-1"), "username folds case")
	assert.Nil(t, idx.Find("E999", "", ""))
}

func TestPlanRowCreateGeneratesUsername(t *testing.T) {
	p := NewPlanner([]samsara.Driver{existingDriver("d1", "E999")}, nil, "")
	row := baseRow()
	delete(row, "Work_Email")
	a := p.PlanRow(payrollRow(row))

	assert.Equal(t, report.KindCreate, a.Kind)
	require.NotNil(t, a.Create)
	assert.Equal(t, "bsmith-2", a.Create.Username, "bsmith-1 is taken")
	assert.Equal(t, "E100", a.EmployeeCode)
	assert.NotEmpty(t, a.Fingerprint)
}

func TestPlanRowCreateUsernamesUniqueWithinPass(t *testing.T) {
	p := NewPlanner(nil, nil, "")
	a := p.PlanRow(payrollRow(baseRow()))
	row2 := baseRow()
	row2["Employee_Code"] = "E101"
	b := p.PlanRow(payrollRow(row2))
	assert.NotEqual(t, a.Create.Username, b.Create.Username)
}

func TestPlanRowMissingEmployeeCode(t *testing.T) {
	p := NewPlanner(nil, nil, "")
	row := baseRow()
	delete(row, "Employee_Code")
	a := p.PlanRow(payrollRow(row))
	assert.Equal(t, report.KindSkip, a.Kind)
	assert.Equal(t, ReasonMissingEmployeeCode, a.Reason)
}

func TestPlanRowInactiveWithoutMatchSkips(t *testing.T) {
	p := NewPlanner(nil, nil, "")
	row := baseRow()
	row["Status"] = "Terminated"
	a := p.PlanRow(payrollRow(row))
	assert.Equal(t, report.KindSkip, a.Kind)
	assert.Equal(t, ReasonStatusInactive, a.Reason)

	row["Status"] = "Do Not Hire"
	a = p.PlanRow(payrollRow(row))
	assert.Equal(t, ReasonStatusNotHired, a.Reason)
}

func TestPlanRowUnchangedFingerprintSkips(t *testing.T) {
	d, ok := BuildDesired(payrollRow(baseRow()), nil, Metadata{}, "")
	require.True(t, ok)
	remote := d.Driver
	remote.ID = "d1"

	p := NewPlanner([]samsara.Driver{remote}, nil, "")
	a := p.PlanRow(payrollRow(baseRow()))
	assert.Equal(t, report.KindSkip, a.Kind)
	assert.Equal(t, ReasonUnchanged, a.Reason)
	assert.Equal(t, "d1", a.DriverID)
}

func TestPlanRowDeactivateOnTerminatedStatus(t *testing.T) {
	remote := existingDriver("d1", "E100")
	p := NewPlanner([]samsara.Driver{remote}, nil, "")

	row := baseRow()
	row["Status"] = "Terminated"
	a := p.PlanRow(payrollRow(row))
	assert.Equal(t, report.KindDeactivate, a.Kind)
	assert.Equal(t, ReasonDeactivate, a.Reason)
	require.NotNil(t, a.Patch)
	require.NotNil(t, a.Patch.IsDeactivated)
	assert.True(t, *a.Patch.IsDeactivated)
}

func TestPlanRowReactivate(t *testing.T) {
	remote := existingDriver("d1", "E100")
	remote.IsDeactivated = true
	p := NewPlanner([]samsara.Driver{remote}, nil, "")

	a := p.PlanRow(payrollRow(baseRow()))
	assert.Equal(t, report.KindReactivate, a.Kind)
	require.NotNil(t, a.Patch)
	require.NotNil(t, a.Patch.IsDeactivated)
	assert.False(t, *a.Patch.IsDeactivated)
}

func TestPlanOrphans(t *testing.T) {
	orphan := existingDriver("d1", "E100")
	noCode := samsara.Driver{ID: "d2", TagIDs: []string{"m1"}}
	alreadyOff := existingDriver("d3", "E300")
	alreadyOff.IsDeactivated = true
	foreign := samsara.Driver{ID: "d4", Username: "someone"}

	p := NewPlanner([]samsara.Driver{orphan, noCode, alreadyOff, foreign}, nil, "m1")
	actions := p.PlanOrphans()
	require.Len(t, actions, 1)
	a := actions[0]
	assert.Equal(t, report.KindDeactivate, a.Kind)
	assert.Equal(t, ReasonOrphan, a.Reason)
	assert.Equal(t, "d1", a.DriverID)
	require.NotNil(t, a.Patch.IsDeactivated)
	assert.True(t, *a.Patch.IsDeactivated)
}

func TestPlanOrphansSkipsMatchedRows(t *testing.T) {
	remote := existingDriver("d1", "E100")
	p := NewPlanner([]samsara.Driver{remote}, nil, "")
	p.PlanRow(payrollRow(baseRow()))
	assert.Empty(t, p.PlanOrphans())
}

type fakeDriverClient struct {
	tags      []samsara.Tag
	drivers   []samsara.Driver
	created   []*samsara.Driver
	patched   map[string]*samsara.DriverPatch
	createErr error
	nextID    int
}

func newFakeDriverClient() *fakeDriverClient {
	return &fakeDriverClient{patched: map[string]*samsara.DriverPatch{}, nextID: 500}
}

func (f *fakeDriverClient) ListTags(context.Context) ([]samsara.Tag, error) {
	return f.tags, nil
}

func (f *fakeDriverClient) ListDrivers(context.Context, bool) ([]samsara.Driver, error) {
	return f.drivers, nil
}

func (f *fakeDriverClient) CreateDriver(_ context.Context, d *samsara.Driver) (*samsara.Driver, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, d)
	f.nextID++
	created := *d
	created.ID = strconv.Itoa(f.nextID)
	return &created, nil
}

func (f *fakeDriverClient) PatchDriver(_ context.Context, id string, p *samsara.DriverPatch) (*samsara.Driver, error) {
	f.patched[id] = p
	return &samsara.Driver{ID: id}, nil
}

func TestExecuteDryRun(t *testing.T) {
	client := newFakeDriverClient()
	deactivated := true
	plan := []Action{
		{Kind: report.KindCreate, Reason: ReasonCreate, Create: &samsara.Driver{FirstName: "X"}},
		{Kind: report.KindDeactivate, Reason: ReasonOrphan, DriverID: "d1",
			Patch: &samsara.DriverPatch{IsDeactivated: &deactivated}},
	}
	results := Execute(context.Background(), client, plan, false)
	require.Len(t, results, 2)
	assert.Empty(t, client.created)
	assert.Empty(t, client.patched)
}

func TestExecuteCapturesErrorsAndContinues(t *testing.T) {
	client := newFakeDriverClient()
	client.createErr = &errors.ConflictError{
		Kind: errors.ConflictDuplicateValue, Key: KeyEmployeeCode, Value: "E100",
	}
	v := "Bob"
	plan := []Action{
		{Kind: report.KindCreate, Reason: ReasonCreate, EmployeeCode: "E100",
			Create: &samsara.Driver{FirstName: "X"}},
		{Kind: report.KindUpdate, Reason: ReasonUpdate, DriverID: "d2",
			Patch: &samsara.DriverPatch{FirstName: &v}},
	}
	results := Execute(context.Background(), client, plan, true)
	require.Len(t, results, 2)
	assert.Equal(t, report.KindError, results[0].Kind)
	assert.Equal(t, "duplicate_external_id", results[0].Reason)
	assert.Equal(t, report.KindUpdate, results[1].Kind)
	assert.Contains(t, client.patched, "d2")
}
