package importer

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"gitlab.com/lumora/api/lead-insights-service/internal/model"
	"gitlab.com/lumora/api/lead-insights-service/pkg/phone"
)

// Outcome classifies how one upload row was reconciled.
type Outcome string

const (
	OutcomeCreated Outcome = "created"
	OutcomeUpdated Outcome = "updated"
)

// Options tunes a reconciliation batch.
type Options struct {
	WorkspaceID string
	// TreatDuplicateIDsAsUpdates makes a row whose resolved ID already
	// exists an update of that record. When false the row becomes a new
	// record under a freshly minted ID; existing data is never silently
	// overwritten.
	TreatDuplicateIDsAsUpdates bool
	// SourceOverride, when non-empty, replaces the source column of every
	// row in the batch.
	SourceOverride string
	// Now anchors deterministic ID synthesis for rows without a Lead ID
	// column. Supplied by the caller so a batch is reproducible in tests.
	Now time.Time
}

// Result is the outcome of reconciling one parsed upload against the
// authoritative collection.
type Result struct {
	// Leads holds the upsert-ready records in row order.
	Leads []model.Lead
	// Outcomes classifies each row, index-aligned with Leads.
	Outcomes []Outcome
	Created  int
	Updated  int
}

// Reconcile maps parsed rows onto upsert-ready lead records and classifies
// each as created or updated against existingIDs. Rows lacking both phone
// and email are still imported; missing contact info never blocks
// ingestion. Later rows see IDs introduced earlier in the same batch, so
// an in-batch ID repeat reconciles as an update of the first occurrence.
func Reconcile(rows []Row, existingIDs map[string]bool, opts Options) Result {
	result := Result{
		Leads:    make([]model.Lead, 0, len(rows)),
		Outcomes: make([]Outcome, 0, len(rows)),
	}

	known := make(map[string]bool, len(existingIDs)+len(rows))
	for id := range existingIDs {
		known[id] = true
	}

	for i, row := range rows {
		id := row.Lookup(FieldLeadID)
		if id == "" {
			id = synthesizeID(opts.Now, i)
		}

		outcome := OutcomeCreated
		if known[id] {
			if opts.TreatDuplicateIDsAsUpdates {
				outcome = OutcomeUpdated
			} else {
				id = mintFreshID(known)
			}
		}
		known[id] = true

		lead := rowToLead(row, opts)
		lead.ID = id

		result.Leads = append(result.Leads, lead)
		result.Outcomes = append(result.Outcomes, outcome)
		if outcome == OutcomeCreated {
			result.Created++
		} else {
			result.Updated++
		}
	}
	return result
}

func rowToLead(row Row, opts Options) model.Lead {
	contactPhone, email := resolveContact(row)
	contactPhone = phone.NormalizeE164(contactPhone)

	source := row.Lookup(FieldSource)
	if opts.SourceOverride != "" {
		source = opts.SourceOverride
	}

	lead := model.Lead{
		WorkspaceID:      opts.WorkspaceID,
		Name:             row.Lookup(FieldName),
		Phone:            contactPhone,
		Email:            email,
		Source:           model.Source(source),
		DateAdded:        row.Lookup(FieldDateAdded),
		FirstCallDate:    row.Lookup(FieldFirstCallDate),
		FirstCallStatus:  model.FirstCallStatus(row.Lookup(FieldFirstCallStatus)),
		Notes:            row.Lookup(FieldNotes),
		SecondCallDate:   row.Lookup(FieldSecondCallDate),
		SecondCallStatus: model.SecondCallStatus(row.Lookup(FieldSecondCallStatus)),
		SecondCallNotes:  row.Lookup(FieldSecondCallNotes),
		FinalCallDate:    row.Lookup(FieldFinalCallDate),
		FinalStatus:      model.FinalStatus(row.Lookup(FieldFinalStatus)),
		FinalNotes:       row.Lookup(FieldFinalNotes),
	}
	lead.Normalize()
	return lead
}

// resolveContact prefers the combined "phone | email" column, falling back
// to separate Phone and Email columns per side.
func resolveContact(row Row) (phone, email string) {
	combined := row.Lookup(FieldContact)
	if combined != "" {
		parts := strings.SplitN(combined, "|", 2)
		phone = strings.TrimSpace(parts[0])
		if len(parts) == 2 {
			email = strings.TrimSpace(parts[1])
		}
	}
	if phone == "" {
		phone = row.Lookup(FieldPhone)
	}
	if email == "" {
		email = row.Lookup(FieldEmail)
	}
	return phone, email
}

// synthesizeID builds a deterministic row identifier unique within the
// batch for rows that arrive without one.
func synthesizeID(now time.Time, rowIndex int) string {
	return fmt.Sprintf("import-%d-%04d", now.UTC().UnixMilli(), rowIndex)
}

// mintFreshID returns a new identifier guaranteed not to collide with any
// ID already known to the batch.
func mintFreshID(known map[string]bool) string {
	for {
		id := "lead-" + uuid.NewString()
		if !known[id] {
			return id
		}
	}
}
