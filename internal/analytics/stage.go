// Package analytics derives chart-ready aggregates from a lead collection:
// time-bucketed stage series, funnel counts, per-source conversion and
// stage-transition velocity. Every function is pure; callers supply the
// collection and, where time matters, an explicit "now".
package analytics

import "gitlab.com/lumora/api/lead-insights-service/internal/model"

// Stage is the derived pipeline position of a lead. It is computed from the
// status and date fields on demand and never stored.
type Stage string

const (
	StageNew           Stage = "New"
	StageFirstContact  Stage = "1st Contact"
	StageFirstStatus   Stage = "1st Status"
	StageSecondContact Stage = "2nd Contact"
	StageRegistered    Stage = "Registered"
	StageFinalOther    Stage = "Final Other"
)

// AllStages returns every stage in display order.
func AllStages() []Stage {
	return []Stage{StageNew, StageFirstContact, StageFirstStatus, StageSecondContact, StageRegistered, StageFinalOther}
}

// DeriveStage evaluates the stage of a lead. Highest-priority match wins:
// a terminal outcome beats second-call activity, which beats first-call
// activity, which beats a bare record.
func DeriveStage(lead model.Lead) Stage {
	switch lead.FinalStatus {
	case model.FinalRegistered:
		return StageRegistered
	case model.FinalFollowUpNeeded, model.FinalNotRegistered:
		return StageFinalOther
	}
	if lead.SecondCallDate != "" || lead.SecondCallStatus != model.SecondCallEmpty {
		return StageSecondContact
	}
	if lead.FirstCallStatus != model.FirstCallEmpty {
		return StageFirstStatus
	}
	if lead.FirstCallDate != "" {
		return StageFirstContact
	}
	return StageNew
}
