package sync

import (
	"context"
	"path/filepath"
	"strconv"

	"github.com/fleetops/rostersync/pkg/logging"
	"github.com/fleetops/rostersync/pkg/report"
	"github.com/fleetops/rostersync/pkg/roster"
	"github.com/fleetops/rostersync/pkg/samsara"
)

// PassConfig describes one reconciliation pass over an Encompass export.
type PassConfig struct {
	// EncompassCSV is the source file: a complete export for full passes,
	// a delta file for daily passes.
	EncompassCSV string
	// WarehousesPath is the warehouse registry (CSV or YAML).
	WarehousesPath string
	// OutDir receives the report artifacts and, by default, the state file.
	OutDir string
	// StatePath overrides the state file location. Empty means
	// OutDir/state.json.
	StatePath string
	// Apply issues remote writes. Off by default: dry runs report the full
	// plan without touching the remote side.
	Apply bool

	Options Options
}

func (c PassConfig) statePath() string {
	if c.StatePath != "" {
		return c.StatePath
	}
	return filepath.Join(c.OutDir, "state.json")
}

// RunFull reconciles a complete Encompass export against the remote address
// set: upserts every row, then sweeps orphans into the safe-delete state
// machine.
func RunFull(ctx context.Context, client Client, cfg PassConfig) error {
	sink, err := report.NewSink(cfg.OutDir)
	if err != nil {
		return err
	}
	state := LoadState(cfg.statePath())

	warehouses, err := roster.LoadWarehouses(cfg.WarehousesPath)
	if err != nil {
		return err
	}
	rows, err := roster.ReadEncompassCSV(cfg.EncompassCSV)
	if err != nil {
		return err
	}

	planner, err := buildPlanner(ctx, client, warehouses, state, cfg.Options)
	if err != nil {
		return err
	}

	logging.Info().Str("run_id", sink.RunID()).Int("rows", len(rows)).
		Bool("apply", cfg.Apply).Msg("starting full pass")

	var (
		plan      []PlannedAction
		dryRows   []map[string]string
		errorRows []map[string]string
	)
	for _, row := range rows {
		rowPlan := planner.PlanRow(row)
		plan = append(plan, rowPlan...)
		if row.EncompassID == "" {
			errorRows = append(errorRows, map[string]string{
				"error":    "missing_encompass_id",
				"row_name": row.Name,
			})
		}
		if len(rowPlan) > 0 {
			dryRows = append(dryRows, map[string]string{
				"encompass_id": row.EncompassID,
				"name":         row.Name,
				"action":       string(rowPlan[0].Kind),
			})
		}
	}
	plan = append(plan, planner.PlanOrphans()...)

	actions := Execute(ctx, client, plan, state, cfg.Apply)

	if err := sink.WriteActionsJSONL("actions.jsonl", actions); err != nil {
		return err
	}
	if err := sink.WriteCSV("dry_run_diff.csv", []string{"encompass_id", "name", "action"}, dryRows); err != nil {
		return err
	}
	if err := sink.WriteSummaryCSV("sync_report.csv", actions); err != nil {
		return err
	}
	if dup := duplicateRows(rows); len(dup) > 0 {
		if err := sink.WriteCSV("duplicates.csv", []string{"type", "encompass_id", "count"}, dup); err != nil {
			return err
		}
	}
	if len(errorRows) > 0 {
		if err := sink.WriteCSV("errors.csv", []string{"error", "row_name"}, errorRows); err != nil {
			return err
		}
	}

	logging.Info().Str("run_id", sink.RunID()).
		Interface("summary", report.Summarize(actions)).Msg("full pass finished")
	return state.Save(cfg.statePath())
}

// buildPlanner snapshots the remote tag and address sets.
func buildPlanner(ctx context.Context, client Client, warehouses *roster.Warehouses, state *State, opts Options) (*Planner, error) {
	tags, err := client.ListTags(ctx)
	if err != nil {
		return nil, err
	}
	addrs, err := client.ListAddresses(ctx)
	if err != nil {
		return nil, err
	}
	return NewPlanner(addrs, samsara.NewTagIndex(tags), warehouses, state, opts), nil
}

// duplicateRows reports source identifiers appearing more than once.
func duplicateRows(rows []roster.SourceRow) []map[string]string {
	counts := make(map[string]int)
	var order []string
	for _, r := range rows {
		if r.EncompassID == "" {
			continue
		}
		if counts[r.EncompassID] == 0 {
			order = append(order, r.EncompassID)
		}
		counts[r.EncompassID]++
	}
	var out []map[string]string
	for _, eid := range order {
		if counts[eid] > 1 {
			out = append(out, map[string]string{
				"type":         "encompass_duplicate",
				"encompass_id": eid,
				"count":        strconv.Itoa(counts[eid]),
			})
		}
	}
	return out
}
