package usecase

import (
	"context"
	"fmt"

	"gitlab.com/lumora/api/lead-insights-service/internal/jetstream"
	"gitlab.com/lumora/api/lead-insights-service/internal/storage"
	"gitlab.com/lumora/api/lead-insights-service/internal/workspace"
)

// LeadEventService implements lead mutation event processing
type LeadEventService struct {
	leadRepo        storage.LeadRepo
	publisher       jetstream.ClientInterface
	snapshotSubject string
	dedupeWorker    IDedupeWorker // Use the interface type
}

// NewLeadEventService creates a new lead event service
func NewLeadEventService(
	leadRepo storage.LeadRepo,
	publisher jetstream.ClientInterface,
	snapshotSubject string,
	dedupeWorker IDedupeWorker,
) *LeadEventService {
	return &LeadEventService{
		leadRepo:        leadRepo,
		publisher:       publisher,
		snapshotSubject: snapshotSubject,
		dedupeWorker:    dedupeWorker,
	}
}

// validatePayloadWorkspace validates that the payload's workspace field matches
// the workspace ID from context
func validatePayloadWorkspace(ctx context.Context, payloadWorkspaceID string) error {
	if payloadWorkspaceID == "" {
		return nil // Skip validation if the payload does not carry a workspace
	}

	workspaceID, err := workspace.FromContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to get workspace ID: %w", err)
	}

	if payloadWorkspaceID != workspaceID {
		return fmt.Errorf("payload workspace (%s) does not match workspace ID (%s)", payloadWorkspaceID, workspaceID)
	}

	return nil
}
