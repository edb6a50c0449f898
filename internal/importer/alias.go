// Package importer turns an uploaded tabular file into upsert-ready lead
// records: header alias resolution, per-row field extraction, and
// created-vs-updated reconciliation against the authoritative collection.
package importer

import "strings"

// Field names a logical import column, independent of how the uploading
// spreadsheet happened to label it.
type Field string

const (
	FieldLeadID           Field = "lead_id"
	FieldName             Field = "name"
	FieldContact          Field = "contact" // combined "phone | email" column
	FieldPhone            Field = "phone"
	FieldEmail            Field = "email"
	FieldSource           Field = "source"
	FieldDateAdded        Field = "date_added"
	FieldFirstCallDate    Field = "first_call_date"
	FieldFirstCallStatus  Field = "first_call_status"
	FieldNotes            Field = "notes"
	FieldSecondCallDate   Field = "second_call_date"
	FieldSecondCallStatus Field = "second_call_status"
	FieldSecondCallNotes  Field = "second_call_notes"
	FieldFinalCallDate    Field = "final_call_date"
	FieldFinalStatus      Field = "final_status"
	FieldFinalNotes       Field = "final_notes"
)

// aliasTable lists the acceptable header spellings per logical field, in
// priority order. The first alias present with a non-empty value wins.
var aliasTable = map[Field][]string{
	FieldLeadID:           {"Lead ID", "leadId", "ID"},
	FieldName:             {"Name", "Lead Name", "Full Name", "Customer"},
	FieldContact:          {"Contact", "Phone | Email", "Phone/Email"},
	FieldPhone:            {"Phone", "Phone Number", "Mobile"},
	FieldEmail:            {"Email", "Email Address", "E-mail"},
	FieldSource:           {"Source", "Lead Source", "Channel"},
	FieldDateAdded:        {"Date Added", "Added", "Date", "Created"},
	FieldFirstCallDate:    {"First Call Date", "1st Call Date"},
	FieldFirstCallStatus:  {"First Call Status", "1st Call Status", "Call Status"},
	FieldNotes:            {"Notes", "Comments"},
	FieldSecondCallDate:   {"Second Call Date", "2nd Call Date"},
	FieldSecondCallStatus: {"Second Call Status", "2nd Call Status"},
	FieldSecondCallNotes:  {"Second Call Notes", "2nd Call Notes"},
	FieldFinalCallDate:    {"Final Call Date", "Final Date"},
	FieldFinalStatus:      {"Final Status", "Outcome", "Result"},
	FieldFinalNotes:       {"Final Notes"},
}

// Row holds one parsed upload row keyed by canonicalized header.
type Row map[string]string

// Lookup resolves a logical field against the row, trying each alias in
// order and returning the first non-empty value.
func (r Row) Lookup(field Field) string {
	for _, alias := range aliasTable[field] {
		if v, ok := r[canonicalHeader(alias)]; ok {
			if v = strings.TrimSpace(v); v != "" {
				return v
			}
		}
	}
	return ""
}

// canonicalHeader collapses a header spelling for matching: lowercase with
// spaces, underscores, dashes and separators removed. "Lead ID", "leadId"
// and "lead_id" all share a key.
func canonicalHeader(h string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(h)) {
		switch r {
		case ' ', '-', '_', '.', '/':
			continue
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
