package sync

import (
	"github.com/fleetops/rostersync/pkg/normalize"
	"github.com/fleetops/rostersync/pkg/roster"
	"github.com/fleetops/rostersync/pkg/samsara"
)

// DefaultMatchRadiusMeters bounds the nearest-neighbor matching stage. It is
// deliberately tighter than the default geofence radius written on creates.
const DefaultMatchRadiusMeters = 25.0

// IndexByEncompassID maps each address's stored source identifier to the
// address, accepting legacy key spellings.
func IndexByEncompassID(addrs []samsara.Address) map[string]*samsara.Address {
	idx := make(map[string]*samsara.Address)
	for i := range addrs {
		if eid := EncompassID(addrs[i].ExternalIDs); eid != "" {
			if _, ok := idx[eid]; !ok {
				idx[eid] = &addrs[i]
			}
		}
	}
	return idx
}

// Match resolves a source row to zero-or-one existing address. Resolution
// order, first success wins:
//
//  1. external-id index lookup (exact, case-sensitive)
//  2. unique normalized-name match
//  3. unique normalized name+address tuple match
//  4. nearest candidate within radiusM by haversine distance, with ties
//     broken by canonical-address equality then normalized-name equality
//
// Any stage with more than one equally-good candidate resolves to no match:
// the engine never guesses between plausible candidates.
func Match(row roster.SourceRow, candidates []*samsara.Address, byEID map[string]*samsara.Address, radiusM float64) *samsara.Address {
	if row.EncompassID != "" {
		if a, ok := byEID[row.EncompassID]; ok {
			return a
		}
	}
	if a := matchByName(row.Name, candidates); a != nil {
		return a
	}
	return matchProbable(row, candidates, radiusM)
}

func matchByName(name string, candidates []*samsara.Address) *samsara.Address {
	key := normalize.Key(name)
	if key == "" {
		return nil
	}
	var found *samsara.Address
	for _, a := range candidates {
		if normalize.Key(a.Name) == key {
			if found != nil {
				return nil
			}
			found = a
		}
	}
	return found
}

func matchProbable(row roster.SourceRow, candidates []*samsara.Address, radiusM float64) *samsara.Address {
	if len(candidates) == 0 {
		return nil
	}

	nameKey := normalize.Key(row.Name)
	addrKey := normalize.Address(row.Address)

	var exact *samsara.Address
	exactCount := 0
	for _, a := range candidates {
		if normalize.Key(a.Name) == nameKey && normalize.Address(a.FormattedAddress) == addrKey {
			exact = a
			exactCount++
		}
	}
	if exactCount == 1 {
		return exact
	}

	if !normalize.ValidLatLon(row.Lat, row.Lon) {
		return nil
	}

	type scored struct {
		addr *samsara.Address
		dist float64
	}
	var within []scored
	for _, a := range candidates {
		circle := a.Geofence.Canonical()
		if circle == nil {
			continue
		}
		d := normalize.HaversineMeters(*row.Lat, *row.Lon, circle.Latitude, circle.Longitude)
		if d <= radiusM {
			within = append(within, scored{a, d})
		}
	}
	if len(within) == 0 {
		return nil
	}

	minDist := within[0].dist
	for _, s := range within[1:] {
		if s.dist < minDist {
			minDist = s.dist
		}
	}
	var closest []*samsara.Address
	for _, s := range within {
		if s.dist == minDist {
			closest = append(closest, s.addr)
		}
	}
	if len(closest) == 1 {
		return closest[0]
	}

	if a := uniqueBy(closest, func(a *samsara.Address) bool {
		return normalize.Address(a.FormattedAddress) == addrKey
	}); a != nil {
		return a
	}
	return uniqueBy(closest, func(a *samsara.Address) bool {
		return normalize.Key(a.Name) == nameKey
	})
}

// uniqueBy returns the sole element satisfying pred, or nil.
func uniqueBy(addrs []*samsara.Address, pred func(*samsara.Address) bool) *samsara.Address {
	var found *samsara.Address
	for _, a := range addrs {
		if pred(a) {
			if found != nil {
				return nil
			}
			found = a
		}
	}
	return found
}
