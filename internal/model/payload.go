package model

// UpsertLeadPayload is the wire form of a single lead create-or-replace
// event. Enum fields are free-form strings here; they are normalized once
// at the boundary before touching storage or computation.
type UpsertLeadPayload struct {
	ID          string `json:"id" validate:"required"`
	WorkspaceID string `json:"workspace_id" validate:"required"`

	Name   string `json:"name,omitempty"`
	Phone  string `json:"phone,omitempty"`
	Email  string `json:"email,omitempty" validate:"omitempty,email"`
	Source string `json:"source,omitempty"`

	DateAdded string `json:"date_added,omitempty"`

	FirstCallDate   string `json:"first_call_date,omitempty"`
	FirstCallStatus string `json:"first_call_status,omitempty"`
	Notes           string `json:"notes,omitempty"`

	SecondCallDate   string `json:"second_call_date,omitempty"`
	SecondCallStatus string `json:"second_call_status,omitempty"`
	SecondCallNotes  string `json:"second_call_notes,omitempty"`

	FinalCallDate string `json:"final_call_date,omitempty"`
	FinalStatus   string `json:"final_status,omitempty"`
	FinalNotes    string `json:"final_notes,omitempty"`
}

// ToLead converts the payload into a normalized Lead record.
func (p UpsertLeadPayload) ToLead() Lead {
	lead := Lead{
		ID:               p.ID,
		WorkspaceID:      p.WorkspaceID,
		Name:             p.Name,
		Phone:            p.Phone,
		Email:            p.Email,
		Source:           Source(p.Source),
		DateAdded:        p.DateAdded,
		FirstCallDate:    p.FirstCallDate,
		FirstCallStatus:  FirstCallStatus(p.FirstCallStatus),
		Notes:            p.Notes,
		SecondCallDate:   p.SecondCallDate,
		SecondCallStatus: SecondCallStatus(p.SecondCallStatus),
		SecondCallNotes:  p.SecondCallNotes,
		FinalCallDate:    p.FinalCallDate,
		FinalStatus:      FinalStatus(p.FinalStatus),
		FinalNotes:       p.FinalNotes,
	}
	lead.Normalize()
	return lead
}

// UpdateLeadPayload is a partial field update; nil pointers mean "leave the
// stored value alone". Every applied update stamps LastUpdated.
type UpdateLeadPayload struct {
	ID          string `json:"id" validate:"required"`
	WorkspaceID string `json:"workspace_id" validate:"required"`

	Name   *string `json:"name,omitempty"`
	Phone  *string `json:"phone,omitempty"`
	Email  *string `json:"email,omitempty"`
	Source *string `json:"source,omitempty"`

	DateAdded *string `json:"date_added,omitempty"`

	FirstCallDate   *string `json:"first_call_date,omitempty"`
	FirstCallStatus *string `json:"first_call_status,omitempty"`
	Notes           *string `json:"notes,omitempty"`

	SecondCallDate   *string `json:"second_call_date,omitempty"`
	SecondCallStatus *string `json:"second_call_status,omitempty"`
	SecondCallNotes  *string `json:"second_call_notes,omitempty"`

	FinalCallDate *string `json:"final_call_date,omitempty"`
	FinalStatus   *string `json:"final_status,omitempty"`
	FinalNotes    *string `json:"final_notes,omitempty"`
}

// ApplyTo copies the set fields onto lead, normalizing enum values.
func (p UpdateLeadPayload) ApplyTo(lead *Lead) {
	if p.Name != nil {
		lead.Name = *p.Name
	}
	if p.Phone != nil {
		lead.Phone = *p.Phone
	}
	if p.Email != nil {
		lead.Email = *p.Email
	}
	if p.Source != nil {
		lead.Source = Source(*p.Source).Normalize()
	}
	if p.DateAdded != nil {
		lead.DateAdded = *p.DateAdded
	}
	if p.FirstCallDate != nil {
		lead.FirstCallDate = *p.FirstCallDate
	}
	if p.FirstCallStatus != nil {
		lead.FirstCallStatus = FirstCallStatus(*p.FirstCallStatus).Normalize()
	}
	if p.Notes != nil {
		lead.Notes = *p.Notes
	}
	if p.SecondCallDate != nil {
		lead.SecondCallDate = *p.SecondCallDate
	}
	if p.SecondCallStatus != nil {
		lead.SecondCallStatus = SecondCallStatus(*p.SecondCallStatus).Normalize()
	}
	if p.SecondCallNotes != nil {
		lead.SecondCallNotes = *p.SecondCallNotes
	}
	if p.FinalCallDate != nil {
		lead.FinalCallDate = *p.FinalCallDate
	}
	if p.FinalStatus != nil {
		lead.FinalStatus = FinalStatus(*p.FinalStatus).Normalize()
	}
	if p.FinalNotes != nil {
		lead.FinalNotes = *p.FinalNotes
	}
}

// ImportLeadsPayload asks the service to run a CSV import against a
// workspace's lead collection.
type ImportLeadsPayload struct {
	WorkspaceID string `json:"workspace_id" validate:"required"`
	// CSV is the raw file content, comma separated with a header row.
	CSV string `json:"csv" validate:"required"`
	// SourceOverride, when non-empty, replaces the source column of every
	// row in the batch.
	SourceOverride string `json:"source_override,omitempty"`
	// TreatDuplicateIDsAsUpdates controls whether a row whose resolved ID
	// already exists becomes an update (true, the default) or a fresh
	// record under a newly minted ID.
	TreatDuplicateIDsAsUpdates *bool `json:"treat_duplicate_ids_as_updates,omitempty"`
}

// ImportSummary reports the outcome of one import run. Merged and Removed
// originate from the post-import dedupe pass.
type ImportSummary struct {
	RowsProcessed int `json:"rows_processed"`
	Created       int `json:"created"`
	Updated       int `json:"updated"`
	Merged        int `json:"merged"`
	Removed       int `json:"removed"`
}

// SnapshotPayload is published after every mutation batch so reactive
// clients know to re-pull the collection and recompute derived views.
type SnapshotPayload struct {
	WorkspaceID string `json:"workspace_id"`
	LeadCount   int    `json:"lead_count"`
	ChangedAt   string `json:"changed_at"`
}
