package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm/schema"
)

// Lead represents one prospective customer moving through the three-step
// call pipeline toward a terminal outcome. The chronology-bearing fields
// (DateAdded and the three call dates) hold the raw YYYY-MM-DD strings the
// dashboard edits; malformed values are treated as absent by every derived
// computation rather than rejected.
type Lead struct {
	ID          string `json:"id" gorm:"primaryKey;type:text"`
	WorkspaceID string `json:"workspace_id" gorm:"column:workspace_id;index;type:text" validate:"required"`

	Name   string `json:"name,omitempty" gorm:"type:text"`
	Phone  string `json:"phone,omitempty" gorm:"index;type:text"` // principal dedupe key
	Email  string `json:"email,omitempty" gorm:"type:text"`
	Source Source `json:"source,omitempty" gorm:"type:text"`

	DateAdded string `json:"date_added,omitempty" gorm:"column:date_added;type:text"`

	FirstCallDate   string          `json:"first_call_date,omitempty" gorm:"column:first_call_date;type:text"`
	FirstCallStatus FirstCallStatus `json:"first_call_status,omitempty" gorm:"column:first_call_status;type:text"`
	Notes           string          `json:"notes,omitempty" gorm:"type:text"`

	SecondCallDate   string           `json:"second_call_date,omitempty" gorm:"column:second_call_date;type:text"`
	SecondCallStatus SecondCallStatus `json:"second_call_status,omitempty" gorm:"column:second_call_status;type:text"`
	SecondCallNotes  string           `json:"second_call_notes,omitempty" gorm:"column:second_call_notes;type:text"`

	FinalCallDate string      `json:"final_call_date,omitempty" gorm:"column:final_call_date;type:text"`
	FinalStatus   FinalStatus `json:"final_status,omitempty" gorm:"column:final_status;type:text"`
	FinalNotes    string      `json:"final_notes,omitempty" gorm:"column:final_notes;type:text"`

	LastUpdated *time.Time `json:"last_updated,omitempty" gorm:"column:last_updated"`

	// Provenance of records folded into this one by the phone dedupe pass.
	DuplicateLeadIDs  datatypes.JSONSlice[string] `json:"duplicate_lead_ids,omitempty" gorm:"column:duplicate_lead_ids;type:jsonb"`
	DuplicateDateAdds datatypes.JSONSlice[string] `json:"duplicate_date_adds,omitempty" gorm:"column:duplicate_date_adds;type:jsonb"`

	CreatedAt time.Time `json:"created_at,omitempty" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at,omitempty" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for the Lead model, respecting the Namer.
func (Lead) TableName(namer schema.Namer) string {
	return namer.TableName("leads")
}

// LeadUpdateColumns lists the columns rewritten when a bulk upsert hits an
// existing row. ID and CreatedAt are deliberately absent.
func LeadUpdateColumns() []string {
	return []string{
		"workspace_id", "name", "phone", "email", "source", "date_added",
		"first_call_date", "first_call_status", "notes",
		"second_call_date", "second_call_status", "second_call_notes",
		"final_call_date", "final_status", "final_notes",
		"last_updated", "duplicate_lead_ids", "duplicate_date_adds",
		"updated_at",
	}
}

// Normalize rewrites the enum-backed fields to their closed canonical
// values. Unknown free-form strings collapse to empty, so internal
// computation never sees unvalidated input.
func (l *Lead) Normalize() {
	l.Source = l.Source.Normalize()
	l.FirstCallStatus = l.FirstCallStatus.Normalize()
	l.SecondCallStatus = l.SecondCallStatus.Normalize()
	l.FinalStatus = l.FinalStatus.Normalize()
}
