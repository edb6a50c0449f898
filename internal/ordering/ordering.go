// Package ordering assigns each lead a stable 1-based chronological rank
// (its "lead number") used for display ordering independent of whatever
// sort the table currently applies.
package ordering

import (
	"sort"

	"gitlab.com/lumora/api/lead-insights-service/internal/model"
	"gitlab.com/lumora/api/lead-insights-service/pkg/utils"
)

// PrimaryDate returns the lead's primary chronological date: the first
// non-empty of dateAdded, firstCallDate, secondCallDate, finalCallDate.
// The returned string may still be malformed; callers decide what that
// means.
func PrimaryDate(lead model.Lead) string {
	for _, candidate := range []string{lead.DateAdded, lead.FirstCallDate, lead.SecondCallDate, lead.FinalCallDate} {
		if candidate != "" {
			return candidate
		}
	}
	return ""
}

// LeadNumbers computes the id -> rank mapping for the given collection.
// Leads with a valid primary date rank first, ascending by date with ties
// broken by id; leads without one follow in their original input order.
// Ranks cover 1..N with no gaps or duplicates. The result is identical for
// any permutation of the same lead set, except that the relative order of
// invalid-dated leads follows the input.
func LeadNumbers(leads []model.Lead) map[string]int {
	type dated struct {
		id   string
		date string
	}

	valid := make([]dated, 0, len(leads))
	invalid := make([]string, 0)

	for _, lead := range leads {
		primary := PrimaryDate(lead)
		if utils.IsValidISODate(primary) {
			valid = append(valid, dated{id: lead.ID, date: primary})
		} else {
			invalid = append(invalid, lead.ID)
		}
	}

	// Lexicographic comparison of YYYY-MM-DD strings is chronological.
	sort.SliceStable(valid, func(i, j int) bool {
		if valid[i].date != valid[j].date {
			return valid[i].date < valid[j].date
		}
		return valid[i].id < valid[j].id
	})

	numbers := make(map[string]int, len(leads))
	rank := 1
	for _, d := range valid {
		numbers[d.id] = rank
		rank++
	}
	for _, id := range invalid {
		numbers[id] = rank
		rank++
	}
	return numbers
}
