package model

import (
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"gitlab.com/lumora/api/lead-insights-service/pkg/utils"
)

// init ensures gofakeit is seeded.
func init() {
	gofakeit.Seed(time.Now().UnixNano())
}

// NewLead creates a Lead with plausible fake data for tests. Fields set on
// the optional override take precedence when non-zero.
func NewLead(overrideDefaults ...*Lead) *Lead {
	added := utils.Now().AddDate(0, 0, -gofakeit.Number(1, 180))
	base := &Lead{
		ID:          fmt.Sprintf("lead-%s", gofakeit.UUID()),
		WorkspaceID: "workspace_" + gofakeit.LetterN(10),
		Name:        gofakeit.Name(),
		Phone:       gofakeit.Phone(),
		Email:       gofakeit.Email(),
		Source: Source(gofakeit.RandomString([]string{
			string(SourceInstagram), string(SourceFacebook), string(SourceTikTok),
			string(SourceWhatsApp), string(SourceWebForm),
		})),
		DateAdded: utils.FormatISODate(added),
		CreatedAt: added,
		UpdatedAt: utils.Now(),
	}

	if len(overrideDefaults) > 0 && overrideDefaults[0] != nil {
		o := overrideDefaults[0]
		if o.ID != "" {
			base.ID = o.ID
		}
		if o.WorkspaceID != "" {
			base.WorkspaceID = o.WorkspaceID
		}
		if o.Name != "" {
			base.Name = o.Name
		}
		if o.Phone != "" {
			base.Phone = o.Phone
		}
		if o.Email != "" {
			base.Email = o.Email
		}
		if o.Source != "" {
			base.Source = o.Source
		}
		if o.DateAdded != "" {
			base.DateAdded = o.DateAdded
		}
		if o.FirstCallDate != "" {
			base.FirstCallDate = o.FirstCallDate
		}
		if o.FirstCallStatus != "" {
			base.FirstCallStatus = o.FirstCallStatus
		}
		if o.SecondCallDate != "" {
			base.SecondCallDate = o.SecondCallDate
		}
		if o.SecondCallStatus != "" {
			base.SecondCallStatus = o.SecondCallStatus
		}
		if o.FinalCallDate != "" {
			base.FinalCallDate = o.FinalCallDate
		}
		if o.FinalStatus != "" {
			base.FinalStatus = o.FinalStatus
		}
	}

	return base
}

// NewContactedLead creates a Lead that has progressed through the first
// call, useful for stage and funnel tests.
func NewContactedLead(workspaceID string) *Lead {
	lead := NewLead(&Lead{WorkspaceID: workspaceID})
	first, _ := utils.ParseISODate(lead.DateAdded)
	lead.FirstCallDate = utils.FormatISODate(first.AddDate(0, 0, gofakeit.Number(1, 5)))
	lead.FirstCallStatus = FirstCallStatus(gofakeit.RandomString([]string{
		string(FirstCallInterested), string(FirstCallAnswered), string(FirstCallVoicemail),
	}))
	return lead
}

// NewRegisteredLead creates a Lead with a terminal Registered outcome.
func NewRegisteredLead(workspaceID string) *Lead {
	lead := NewContactedLead(workspaceID)
	first, _ := utils.ParseISODate(lead.FirstCallDate)
	lead.SecondCallDate = utils.FormatISODate(first.AddDate(0, 0, gofakeit.Number(1, 7)))
	lead.SecondCallStatus = SecondCallWeCalled
	second, _ := utils.ParseISODate(lead.SecondCallDate)
	lead.FinalCallDate = utils.FormatISODate(second.AddDate(0, 0, gofakeit.Number(1, 7)))
	lead.FinalStatus = FinalRegistered
	return lead
}
