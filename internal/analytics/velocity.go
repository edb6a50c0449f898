package analytics

import (
	"sort"

	"gitlab.com/lumora/api/lead-insights-service/internal/model"
	"gitlab.com/lumora/api/lead-insights-service/pkg/utils"
)

// Transition names one stage-to-stage hop measured by the velocity report.
type Transition string

const (
	TransitionAddedToFirst  Transition = "added_to_first_contact"
	TransitionFirstToSecond Transition = "first_to_second_contact"
	TransitionSecondToFinal Transition = "second_to_final"
	TransitionAddedToFinal  Transition = "added_to_final"
)

// Day-difference samples outside [0, maxTransitionDays) are discarded as
// corrupted data (negative gaps or multi-year outliers).
const maxTransitionDays = 365

// VelocityStats holds the latency statistics for one transition. The
// percentile and mean pointers are nil when no qualifying samples exist;
// zero would misrepresent an empty sample set.
type VelocityStats struct {
	Transition Transition `json:"transition"`
	Count      int        `json:"count"`
	P50        *float64   `json:"p50"`
	P75        *float64   `json:"p75"`
	P90        *float64   `json:"p90"`
	Mean       *float64   `json:"mean"`
}

// StageVelocity computes day-difference statistics for the four pipeline
// transitions. A lead contributes a sample to a transition only when both
// of its dates parse; samples that are negative or span a year or more are
// discarded before any statistic is computed.
func StageVelocity(leads []model.Lead) []VelocityStats {
	type pair struct {
		transition Transition
		from, to   func(model.Lead) string
	}
	pairs := []pair{
		{TransitionAddedToFirst, func(l model.Lead) string { return l.DateAdded }, func(l model.Lead) string { return l.FirstCallDate }},
		{TransitionFirstToSecond, func(l model.Lead) string { return l.FirstCallDate }, func(l model.Lead) string { return l.SecondCallDate }},
		{TransitionSecondToFinal, func(l model.Lead) string { return l.SecondCallDate }, func(l model.Lead) string { return l.FinalCallDate }},
		{TransitionAddedToFinal, func(l model.Lead) string { return l.DateAdded }, func(l model.Lead) string { return l.FinalCallDate }},
	}

	result := make([]VelocityStats, 0, len(pairs))
	for _, p := range pairs {
		samples := make([]float64, 0, len(leads))
		for _, lead := range leads {
			from, okFrom := utils.ParseISODate(p.from(lead))
			to, okTo := utils.ParseISODate(p.to(lead))
			if !okFrom || !okTo {
				continue
			}
			days := utils.DaysBetween(from, to)
			if days < 0 || days >= maxTransitionDays {
				continue
			}
			samples = append(samples, float64(days))
		}
		result = append(result, summarize(p.transition, samples))
	}
	return result
}

func summarize(transition Transition, samples []float64) VelocityStats {
	stats := VelocityStats{Transition: transition, Count: len(samples)}
	if len(samples) == 0 {
		return stats
	}
	sort.Float64s(samples)

	stats.P50 = nearestRank(samples, 0.50)
	stats.P75 = nearestRank(samples, 0.75)
	stats.P90 = nearestRank(samples, 0.90)

	sum := 0.0
	for _, s := range samples {
		sum += s
	}
	mean := sum / float64(len(samples))
	stats.Mean = &mean
	return stats
}

// nearestRank indexes the ascending-sorted sample at floor(p * (n-1)).
func nearestRank(sorted []float64, p float64) *float64 {
	idx := int(p * float64(len(sorted)-1))
	v := sorted[idx]
	return &v
}
