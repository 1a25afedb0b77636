package sync

import (
	"context"

	"github.com/fleetops/rostersync/pkg/logging"
	"github.com/fleetops/rostersync/pkg/report"
	"github.com/fleetops/rostersync/pkg/roster"
)

// RunPurge deletes the addresses listed in a CSV ID column, bypassing the
// quarantine flow. Failures are captured per id; the batch keeps going.
func RunPurge(ctx context.Context, client Client, idsCSV string, apply bool) ([]report.Action, error) {
	ids, err := roster.ReadAddressIDs(idsCSV)
	if err != nil {
		return nil, err
	}

	actions := make([]report.Action, 0, len(ids))
	for _, id := range ids {
		action := report.NewAction(report.KindDelete, id, "", "purge")
		if apply {
			if err := client.DeleteAddress(ctx, id); err != nil {
				action = failed(action, err)
			}
		}
		actions = append(actions, action)
	}

	logging.Info().Int("requested", len(ids)).Bool("apply", apply).
		Interface("summary", report.Summarize(actions)).Msg("purge finished")
	return actions, nil
}
