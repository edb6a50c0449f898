package handler

import (
	"context"

	"gitlab.com/lumora/api/lead-insights-service/internal/model"
)

// EventHandlerInterface defines the common interface for event handlers
type EventHandlerInterface interface {
	// HandleEvent processes an event
	HandleEvent(ctx context.Context, eventType model.EventType, metadata *model.MessageMetadata, rawEvent []byte) error
}

// LeadHandlerInterface defines the interface for lead event handlers
type LeadHandlerInterface interface {
	EventHandlerInterface
}

// Ensure the handler implements the interface
var _ LeadHandlerInterface = (*LeadHandler)(nil)
