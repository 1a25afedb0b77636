package sync

import (
	"context"

	"github.com/fleetops/rostersync/pkg/logging"
	"github.com/fleetops/rostersync/pkg/report"
	"github.com/fleetops/rostersync/pkg/roster"
)

// RunDaily reconciles an incremental delta file. Rows carry an explicit
// upsert/delete action hint; there is no orphan sweep, since a delta file
// says nothing about rows it omits.
func RunDaily(ctx context.Context, client Client, cfg PassConfig) error {
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
		Bool("apply", cfg.Apply).Msg("starting daily pass")

	var plan []PlannedAction
	for _, row := range rows {
		plan = append(plan, planner.PlanRow(row)...)
	}

	actions := Execute(ctx, client, plan, state, cfg.Apply)

	if err := sink.WriteActionsJSONL("actions.jsonl", actions); err != nil {
		return err
	}
	if err := sink.WriteSummaryCSV("sync_report.csv", actions); err != nil {
		return err
	}

	logging.Info().Str("run_id", sink.RunID()).
		Interface("summary", report.Summarize(actions)).Msg("daily pass finished")
	return state.Save(cfg.statePath())
}
