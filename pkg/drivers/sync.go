package drivers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fleetops/rostersync/pkg/errors"
	"github.com/fleetops/rostersync/pkg/logging"
	"github.com/fleetops/rostersync/pkg/report"
	"github.com/fleetops/rostersync/pkg/roster"
	"github.com/fleetops/rostersync/pkg/samsara"
)

// Client is the remote API surface the driver engine consumes.
// *samsara.Client satisfies it.
type Client interface {
	ListTags(ctx context.Context) ([]samsara.Tag, error)
	ListDrivers(ctx context.Context, includeDeactivated bool) ([]samsara.Driver, error)
	CreateDriver(ctx context.Context, d *samsara.Driver) (*samsara.Driver, error)
	PatchDriver(ctx context.Context, id string, patch *samsara.DriverPatch) (*samsara.Driver, error)
}

// Config describes one driver reconciliation pass.
type Config struct {
	// PayrollCSV is the Paycom export.
	PayrollCSV string
	// TimezoneCSV, PeerGroupsCSV, and DriverTagsCSV are the optional
	// operator side-channel files. All three must be set together or left
	// empty.
	TimezoneCSV   string
	PeerGroupsCSV string
	DriverTagsCSV string
	// OutDir receives the report artifacts, under a drivers/ subdirectory.
	OutDir string
	// Apply issues remote writes; off by default.
	Apply bool
}

// Run reconciles a payroll export against the remote driver set: plan every
// row, sweep orphans, execute, and write the report artifacts. Per-row
// failures are captured; the pass always completes.
func Run(ctx context.Context, client Client, cfg Config) error {
	rows, err := roster.ReadPayrollCSV(cfg.PayrollCSV)
	if err != nil {
		return err
	}

	var meta map[string]Metadata
	if cfg.TimezoneCSV != "" {
		meta, err = LoadMetadata(cfg.TimezoneCSV, cfg.PeerGroupsCSV, cfg.DriverTagsCSV)
		if err != nil {
			return err
		}
	}

	tags, err := client.ListTags(ctx)
	if err != nil {
		return err
	}
	managedTagID, _ := samsara.NewTagIndex(tags).IDFor(ManagedByDriverTag)

	existing, err := client.ListDrivers(ctx, true)
	if err != nil {
		return err
	}

	planner := NewPlanner(existing, meta, managedTagID)
	plan := make([]Action, 0, len(rows))
	for _, row := range rows {
		plan = append(plan, planner.PlanRow(row))
	}
	plan = append(plan, planner.PlanOrphans()...)

	logging.Info().Int("rows", len(rows)).Int("existing", len(existing)).
		Bool("apply", cfg.Apply).Msg("driver plan built")

	results := Execute(ctx, client, plan, cfg.Apply)
	return writeReports(cfg.OutDir, plan, results)
}

// Execute walks the plan in order, issuing writes when apply is set.
func Execute(ctx context.Context, client Client, plan []Action, apply bool) []report.Action {
	out := make([]report.Action, 0, len(plan))
	for _, pa := range plan {
		action := report.NewAction(pa.Kind, pa.DriverID, pa.EmployeeCode, pa.Reason)
		if pa.Diff != nil {
			action.Diff = diffView(pa.Diff)
		}

		switch pa.Kind {
		case report.KindCreate:
			action.Payload = pa.Create
			if !apply {
				break
			}
			created, err := client.CreateDriver(ctx, pa.Create)
			if err != nil {
				action = failed(action, err)
				break
			}
			action.EntityID = created.ID

		case report.KindUpdate, report.KindDeactivate, report.KindReactivate:
			action.Payload = pa.Patch.Wire()
			if !apply {
				break
			}
			if _, err := client.PatchDriver(ctx, pa.DriverID, pa.Patch); err != nil {
				action = failed(action, err)
			}
		}

		out = append(out, action)
	}
	return out
}

func failed(action report.Action, err error) report.Action {
	logging.Err(err).Str("kind", string(action.Kind)).
		Str("driver_id", action.EntityID).
		Str("employee_code", action.SourceID).
		Msg("driver apply failed")
	action.Kind = report.KindError
	action.Error = err.Error()
	switch {
	case errors.IsDuplicateExternalID(err):
		action.Reason = "duplicate_external_id"
	case errors.IsInvalidExternalIDKey(err):
		action.Reason = "invalid_external_id_key"
	case errors.IsRateLimited(err):
		action.Reason = "rate_limited"
	default:
		action.Reason = "api_error"
	}
	return action
}

func diffView(diff map[string]Change) map[string]any {
	out := make(map[string]any, len(diff))
	for field, change := range diff {
		out[field] = change
	}
	return out
}

// writeReports emits the driver artifacts under OutDir/drivers/.
func writeReports(outDir string, plan []Action, results []report.Action) error {
	sink, err := report.NewSink(outDir)
	if err != nil {
		return err
	}
	sub, err := sink.Sub("drivers")
	if err != nil {
		return err
	}

	var diffRows []map[string]string
	for _, a := range plan {
		for _, field := range SortedDiffFields(a.Diff) {
			change := a.Diff[field]
			diffRows = append(diffRows, map[string]string{
				"employee_code": a.EmployeeCode,
				"driver_id":     a.DriverID,
				"username":      a.Username,
				"action":        string(a.Kind),
				"field":         field,
				"current":       stringify(change.From),
				"desired":       stringify(change.To),
			})
		}
	}
	if err := sub.WriteCSV("dry_run_diff.csv",
		[]string{"employee_code", "driver_id", "username", "action", "field", "current", "desired"},
		diffRows); err != nil {
		return err
	}

	planRows := make([]map[string]string, 0, len(plan))
	for _, a := range plan {
		planRows = append(planRows, map[string]string{
			"employee_code": a.EmployeeCode,
			"driver_id":     a.DriverID,
			"username":      a.Username,
			"action":        string(a.Kind),
			"status":        string(a.Status),
			"reason":        a.Reason,
			"fingerprint":   a.Fingerprint,
		})
	}
	if err := sub.WriteCSV("drivers_sync_plan.csv",
		[]string{"employee_code", "driver_id", "username", "action", "status", "reason", "fingerprint"},
		planRows); err != nil {
		return err
	}

	resultRows := make([]map[string]string, 0, len(results))
	for _, r := range results {
		resultRows = append(resultRows, map[string]string{
			"employee_code": r.SourceID,
			"driver_id":     r.EntityID,
			"action":        string(r.Kind),
			"reason":        r.Reason,
			"error":         r.Error,
		})
	}
	if err := sub.WriteCSV("drivers_sync_results.csv",
		[]string{"employee_code", "driver_id", "action", "reason", "error"},
		resultRows); err != nil {
		return err
	}

	if err := sub.WriteActionsJSONL("actions.jsonl", results); err != nil {
		return err
	}

	logging.Info().Str("run_id", sink.RunID()).
		Interface("summary", report.Summarize(results)).Msg("driver pass finished")
	return nil
}

func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		if x {
			return "true"
		}
		return "false"
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(raw)
}
