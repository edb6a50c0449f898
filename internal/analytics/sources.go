package analytics

import "gitlab.com/lumora/api/lead-insights-service/internal/model"

// SourceConversion reports how one acquisition channel converts to
// registrations.
type SourceConversion struct {
	Source     model.Source `json:"source"`
	Leads      int          `json:"leads"`
	Registered int          `json:"registered"`
	Rate       float64      `json:"rate"`
}

// SourceConversions computes the conversion rate per known source, in
// display order. Sources with zero leads are omitted.
func SourceConversions(leads []model.Lead) []SourceConversion {
	counts := make(map[model.Source]*SourceConversion)
	for _, lead := range leads {
		if lead.Source == model.SourceEmpty {
			continue
		}
		c, ok := counts[lead.Source]
		if !ok {
			c = &SourceConversion{Source: lead.Source}
			counts[lead.Source] = c
		}
		c.Leads++
		if lead.FinalStatus == model.FinalRegistered {
			c.Registered++
		}
	}

	result := make([]SourceConversion, 0, len(counts))
	for _, source := range model.KnownSources() {
		c, ok := counts[source]
		if !ok {
			continue
		}
		c.Rate = float64(c.Registered) / float64(c.Leads)
		result = append(result, *c)
	}
	return result
}
