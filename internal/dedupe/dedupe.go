// Package dedupe finds leads that share a phone number and folds them into
// a single surviving record, preserving the provenance of everything it
// removes.
package dedupe

import (
	"sort"

	"gitlab.com/lumora/api/lead-insights-service/internal/model"
	"gitlab.com/lumora/api/lead-insights-service/pkg/phone"
	"gitlab.com/lumora/api/lead-insights-service/pkg/utils"
)

// Merge describes one surviving lead together with the records folded into
// it. Canonical carries the updated provenance fields and is ready to be
// persisted; RemovedIDs lists the folded records to delete.
type Merge struct {
	Canonical  model.Lead
	RemovedIDs []string
}

// Plan holds the full outcome of a dedupe pass over one workspace.
type Plan struct {
	Merges []Merge
}

// MergeCount returns how many surviving records absorbed duplicates.
func (p Plan) MergeCount() int { return len(p.Merges) }

// RemovedCount returns the total number of records the plan folds away.
func (p Plan) RemovedCount() int {
	n := 0
	for _, m := range p.Merges {
		n += len(m.RemovedIDs)
	}
	return n
}

// Build groups leads by canonical phone key and plans one merge per group
// with more than one member. Leads without any phone digits are never
// grouped. The input is not modified.
func Build(leads []model.Lead) Plan {
	groups := make(map[string][]model.Lead)
	order := make([]string, 0)
	for _, l := range leads {
		key := phone.CanonicalKey(l.Phone)
		if key == "" {
			continue
		}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], l)
	}

	var plan Plan
	for _, key := range order {
		group := groups[key]
		if len(group) < 2 {
			continue
		}
		plan.Merges = append(plan.Merges, mergeGroup(group))
	}
	return plan
}

// mergeGroup folds a group of same-phone leads into its canonical member:
// the one with the earliest valid DateAdded, ties broken by lowest ID.
// Records with no parseable DateAdded sort after every dated one.
func mergeGroup(group []model.Lead) Merge {
	sorted := make([]model.Lead, len(group))
	copy(sorted, group)
	sort.SliceStable(sorted, func(i, j int) bool {
		di, iok := utils.ParseISODate(sorted[i].DateAdded)
		dj, jok := utils.ParseISODate(sorted[j].DateAdded)
		switch {
		case iok && !jok:
			return true
		case !iok && jok:
			return false
		case iok && jok && !di.Equal(dj):
			return di.Before(dj)
		default:
			return sorted[i].ID < sorted[j].ID
		}
	})

	canonical := sorted[0]
	merge := Merge{Canonical: canonical}
	for _, dup := range sorted[1:] {
		merge.RemovedIDs = append(merge.RemovedIDs, dup.ID)
		merge.Canonical.DuplicateLeadIDs = append(merge.Canonical.DuplicateLeadIDs, dup.ID)
		merge.Canonical.DuplicateDateAdds = append(merge.Canonical.DuplicateDateAdds, dup.DateAdded)
		// Provenance folded into a duplicate earlier travels with it.
		merge.Canonical.DuplicateLeadIDs = append(merge.Canonical.DuplicateLeadIDs, dup.DuplicateLeadIDs...)
		merge.Canonical.DuplicateDateAdds = append(merge.Canonical.DuplicateDateAdds, dup.DuplicateDateAdds...)
	}
	return merge
}
