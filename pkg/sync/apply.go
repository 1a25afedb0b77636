package sync

import (
	"context"

	"github.com/fleetops/rostersync/pkg/errors"
	"github.com/fleetops/rostersync/pkg/logging"
	"github.com/fleetops/rostersync/pkg/report"
	"github.com/fleetops/rostersync/pkg/samsara"
)

// Client is the remote API surface the address engine consumes.
// *samsara.Client satisfies it.
type Client interface {
	ListAddresses(ctx context.Context) ([]samsara.Address, error)
	ListTags(ctx context.Context) ([]samsara.Tag, error)
	CreateAddress(ctx context.Context, addr *samsara.Address) (*samsara.Address, error)
	PatchAddress(ctx context.Context, id string, patch *samsara.AddressPatch) (*samsara.Address, error)
	DeleteAddress(ctx context.Context, id string) error
}

// Execute walks the plan in order, issuing writes when apply is set. Remote
// failures are captured per action as error outcomes; the rest of the plan
// still runs. State fingerprints advance only when a write actually lands.
func Execute(ctx context.Context, client Client, plan []PlannedAction, state *State, apply bool) []report.Action {
	out := make([]report.Action, 0, len(plan))
	for _, pa := range plan {
		action := report.NewAction(pa.Kind, pa.AddressID, pa.EncompassID, pa.Reason)
		if pa.Diff != nil {
			action.Diff = pa.Diff
		}

		switch pa.Kind {
		case report.KindCreate:
			action.Payload = pa.Create
			if !apply {
				break
			}
			created, err := client.CreateAddress(ctx, pa.Create)
			if err != nil {
				action = failed(action, err)
				break
			}
			action.EntityID = created.ID
			state.Fingerprints[created.ID] = pa.Fingerprint

		case report.KindUpdate:
			action.Payload = pa.Patch.Wire()
			if !apply {
				break
			}
			if _, err := client.PatchAddress(ctx, pa.AddressID, pa.Patch); err != nil {
				action = failed(action, err)
				break
			}
			state.Fingerprints[pa.AddressID] = pa.Fingerprint

		case report.KindQuarantine:
			action.Payload = pa.Patch.Wire()
			if !apply {
				break
			}
			if _, err := client.PatchAddress(ctx, pa.AddressID, pa.Patch); err != nil {
				action = failed(action, err)
			}

		case report.KindDelete:
			if !apply {
				break
			}
			if err := client.DeleteAddress(ctx, pa.AddressID); err != nil {
				action = failed(action, err)
				break
			}
			state.Forget(pa.AddressID)
		}

		out = append(out, action)
	}
	return out
}

// failed converts an action into an error outcome with a typed reason so
// conflicts are reported distinctly from generic remote failures.
func failed(action report.Action, err error) report.Action {
	logging.Err(err).Str("kind", string(action.Kind)).
		Str("address_id", action.EntityID).
		Str("encompass_id", action.SourceID).
		Msg("apply failed")
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
