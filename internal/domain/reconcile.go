package domain

import (
	"encoding/json"
	"sort"
)

// LotWrite is a partial update for one lot document.
type LotWrite struct {
	Key    string
	Fields map[string]any
}

// ReconcilePlan is the set of writes that brings the stored lots in line with a fetch.
type ReconcilePlan struct {
	Upserts []LotWrite
	Deletes []string
}

// ReconcileLots plans the per-lot writes for a fetch. Every fetched lot is
// upserted with its stored isHidden flag carried forward and unrelated stored
// fields left intact; stored lots absent from the fetch are deleted. stored
// holds the raw documents currently beneath the lots path, keyed by lot key.
func ReconcileLots(stored map[string]json.RawMessage, fresh []Lot) ReconcilePlan {
	var plan ReconcilePlan
	seen := make(map[string]struct{}, len(fresh))

	for _, lot := range fresh {
		existing := decodeFields(stored[lot.ID])
		hidden, _ := existing["isHidden"].(bool)
		lot.IsHidden = hidden

		fields := existing
		for k, v := range lotFields(lot) {
			fields[k] = v
		}

		if _, dup := seen[lot.ID]; dup {
			// later record for the same key wins
			for i := range plan.Upserts {
				if plan.Upserts[i].Key == lot.ID {
					plan.Upserts[i].Fields = fields
				}
			}
			continue
		}
		seen[lot.ID] = struct{}{}
		plan.Upserts = append(plan.Upserts, LotWrite{Key: lot.ID, Fields: fields})
	}

	for key := range stored {
		if _, ok := seen[key]; !ok {
			plan.Deletes = append(plan.Deletes, key)
		}
	}
	sort.Strings(plan.Deletes)
	return plan
}

func lotFields(lot Lot) map[string]any {
	return map[string]any{
		"id":              lot.ID,
		"name":            lot.Name,
		"location":        lot.Location,
		"totalSpaces":     lot.TotalSpaces,
		"availableSpaces": lot.AvailableSpaces,
		"occupancy":       lot.Occupancy,
		"isHidden":        lot.IsHidden,
	}
}

func decodeFields(raw json.RawMessage) map[string]any {
	fields := map[string]any{}
	if len(raw) == 0 {
		return fields
	}
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return map[string]any{}
	}
	return fields
}
