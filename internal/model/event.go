package model

import (
	"strings"
	"time"
)

// EventType represents different types of events
type EventType string

// Common event type constants (with versioning)
const (
	// Version 1 lead mutation event types
	V1LeadsUpsert EventType = "v1.leads.upsert"
	V1LeadsUpdate EventType = "v1.leads.update"
	V1LeadsImport EventType = "v1.leads.import"

	// Version 1 published notification event type
	V1LeadsSnapshot EventType = "v1.leads.snapshot"
)

// MapToBaseEventType attempts to map an input subject (potentially suffixed
// with a workspace identifier) back to a known base EventType constant.
// It returns the mapped EventType and true if successful, or an empty
// EventType and false if no mapping is found.
func MapToBaseEventType(input string) (EventType, bool) {
	switch EventType(input) {
	case V1LeadsUpsert, V1LeadsUpdate, V1LeadsImport, V1LeadsSnapshot:
		return EventType(input), true
	}

	// Subjects carry the workspace ID as a trailing token; strip it and
	// retry the match.
	lastDotIndex := strings.LastIndex(input, ".")
	if lastDotIndex <= 0 {
		return "", false
	}

	switch base := EventType(input[:lastDotIndex]); base {
	case V1LeadsUpsert, V1LeadsUpdate, V1LeadsImport, V1LeadsSnapshot:
		return base, true
	default:
		return "", false
	}
}

// GetBaseType returns the event type without the version prefix.
func (et EventType) GetBaseType() EventType {
	s := string(et)
	if idx := strings.Index(s, "."); idx > 0 && strings.HasPrefix(s, "v") {
		return EventType(s[idx+1:])
	}
	return et
}

// GetVersion returns the version prefix of the event type, if any.
func (et EventType) GetVersion() string {
	s := string(et)
	if idx := strings.Index(s, "."); idx > 0 && strings.HasPrefix(s, "v") {
		return s[:idx]
	}
	return ""
}

// MessageMetadata carries JetStream delivery metadata for an in-flight event.
type MessageMetadata struct {
	MessageID        string    `json:"message_id"`
	MessageSubject   string    `json:"message_subject"`
	Stream           string    `json:"stream"`
	Consumer         string    `json:"consumer"`
	StreamSequence   uint64    `json:"stream_sequence"`
	ConsumerSequence uint64    `json:"consumer_sequence"`
	NumDelivered     uint64    `json:"num_delivered"`
	NumPending       uint64    `json:"num_pending"`
	Timestamp        time.Time `json:"timestamp"`
	WorkspaceID      string    `json:"workspace_id"`
}

// ToLastMetadata converts delivery metadata into the persisted form stamped
// onto records touched by the event.
func (m *MessageMetadata) ToLastMetadata() *LastMetadata {
	if m == nil {
		return nil
	}
	return &LastMetadata{
		MessageID:        m.MessageID,
		MessageSubject:   m.MessageSubject,
		Stream:           m.Stream,
		Consumer:         m.Consumer,
		StreamSequence:   m.StreamSequence,
		ConsumerSequence: m.ConsumerSequence,
		WorkspaceID:      m.WorkspaceID,
	}
}

// LastMetadata is the subset of delivery metadata worth keeping after
// processing completes.
type LastMetadata struct {
	MessageID        string `json:"message_id"`
	MessageSubject   string `json:"message_subject"`
	Stream           string `json:"stream"`
	Consumer         string `json:"consumer"`
	StreamSequence   uint64 `json:"stream_sequence"`
	ConsumerSequence uint64 `json:"consumer_sequence"`
	WorkspaceID      string `json:"workspace_id"`
}
