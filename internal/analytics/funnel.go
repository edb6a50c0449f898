package analytics

import "gitlab.com/lumora/api/lead-insights-service/internal/model"

// FunnelStep is one bar of the funnel chart.
type FunnelStep struct {
	Label   string  `json:"label"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// Funnel computes the six-step milestone funnel. Each step counts leads
// matching that milestone independently; Registered and Final Other
// partition finalStatus rather than nesting, so the series is not
// guaranteed monotonic. Percentages are relative to the Total step, with
// the denominator floored at 1 so an empty collection yields zeros.
func Funnel(leads []model.Lead) []FunnelStep {
	total := len(leads)
	firstContact, firstStatus, secondContact := 0, 0, 0
	registered, finalOther := 0, 0

	for _, lead := range leads {
		if lead.FirstCallDate != "" {
			firstContact++
		}
		if lead.FirstCallStatus != model.FirstCallEmpty {
			firstStatus++
		}
		if lead.SecondCallDate != "" || lead.SecondCallStatus != model.SecondCallEmpty {
			secondContact++
		}
		switch lead.FinalStatus {
		case model.FinalRegistered:
			registered++
		case model.FinalNotRegistered, model.FinalFollowUpNeeded:
			finalOther++
		}
	}

	denominator := total
	if denominator == 0 {
		denominator = 1
	}

	steps := []FunnelStep{
		{Label: "Total", Count: total},
		{Label: "1st Contact", Count: firstContact},
		{Label: "1st Status", Count: firstStatus},
		{Label: "2nd Contact", Count: secondContact},
		{Label: "Registered", Count: registered},
		{Label: "Final Other", Count: finalOther},
	}
	for i := range steps {
		steps[i].Percent = float64(steps[i].Count) / float64(denominator) * 100
	}
	return steps
}
