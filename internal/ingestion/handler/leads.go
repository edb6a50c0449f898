package handler

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"gitlab.com/lumora/api/lead-insights-service/internal/apperrors"
	"gitlab.com/lumora/api/lead-insights-service/internal/model"
	"gitlab.com/lumora/api/lead-insights-service/internal/workspace"
	"gitlab.com/lumora/api/lead-insights-service/pkg/logger"
)

// LeadHandler processes lead mutation events
type LeadHandler struct {
	service LeadService
}

// LeadService defines the interface for lead event processing
type LeadService interface {
	UpsertLead(ctx context.Context, payload model.UpsertLeadPayload, metadata *model.LastMetadata) error
	UpdateLead(ctx context.Context, payload model.UpdateLeadPayload, metadata *model.LastMetadata) error
	RunImport(ctx context.Context, payload model.ImportLeadsPayload, metadata *model.LastMetadata) (*model.ImportSummary, error)
}

// NewLeadHandler creates a new lead event handler
func NewLeadHandler(service LeadService) *LeadHandler {
	return &LeadHandler{
		service: service,
	}
}

// HandleEvent processes lead mutation events
func (h *LeadHandler) HandleEvent(ctx context.Context, eventType model.EventType, metadata *model.MessageMetadata, rawEvent []byte) error {
	requestID := uuid.NewString()
	ctx = workspace.WithRequestID(ctx, requestID)

	log := logger.FromContext(ctx)
	log.Info("Processing lead event", zap.String("type", string(eventType)))

	lastMetadata := metadata.ToLastMetadata()
	var err error
	switch eventType {
	case model.V1LeadsUpsert:
		err = h.handleLeadUpsert(ctx, lastMetadata, rawEvent)
	case model.V1LeadsUpdate:
		err = h.handleLeadUpdate(ctx, lastMetadata, rawEvent)
	case model.V1LeadsImport:
		err = h.handleLeadsImport(ctx, lastMetadata, rawEvent)
	default:
		unsupportedErr := fmt.Errorf("unsupported lead event type: %s", eventType)
		log.Error("Unsupported lead event type", zap.String("eventType", string(eventType)))
		err = apperrors.NewFatal(unsupportedErr, "unsupported lead event type")
	}
	return err
}

// handleLeadUpsert processes lead upsert events
func (h *LeadHandler) handleLeadUpsert(ctx context.Context, metadata *model.LastMetadata, rawEvent []byte) error {
	log := logger.FromContext(ctx)

	var payload model.UpsertLeadPayload
	if err := json.Unmarshal(rawEvent, &payload); err != nil {
		log.Error("Failed to unmarshal lead upsert payload", zap.Error(err))
		return apperrors.NewFatal(err, "failed to unmarshal lead upsert payload")
	}

	if payload.WorkspaceID == "" && metadata != nil {
		payload.WorkspaceID = metadata.WorkspaceID
	}

	log.Info("Processing lead upsert", zap.String("lead_id", payload.ID))
	return h.service.UpsertLead(ctx, payload, metadata)
}

// handleLeadUpdate processes partial lead update events
func (h *LeadHandler) handleLeadUpdate(ctx context.Context, metadata *model.LastMetadata, rawEvent []byte) error {
	log := logger.FromContext(ctx)

	var payload model.UpdateLeadPayload
	if err := json.Unmarshal(rawEvent, &payload); err != nil {
		log.Error("Failed to unmarshal lead update payload", zap.Error(err))
		return apperrors.NewFatal(err, "failed to unmarshal lead update payload")
	}

	if payload.ID == "" {
		validationErr := fmt.Errorf("lead ID is required for update")
		log.Error("Lead update validation failed", zap.Error(validationErr))
		return apperrors.NewFatal(validationErr, "lead ID is required for update")
	}

	if payload.WorkspaceID == "" && metadata != nil {
		payload.WorkspaceID = metadata.WorkspaceID
	}

	log.Info("Processing lead update", zap.String("lead_id", payload.ID))
	return h.service.UpdateLead(ctx, payload, metadata)
}

// handleLeadsImport processes CSV import request events
func (h *LeadHandler) handleLeadsImport(ctx context.Context, metadata *model.LastMetadata, rawEvent []byte) error {
	log := logger.FromContext(ctx)

	var payload model.ImportLeadsPayload
	if err := json.Unmarshal(rawEvent, &payload); err != nil {
		log.Error("Failed to unmarshal import payload", zap.Error(err))
		return apperrors.NewFatal(err, "failed to unmarshal import payload")
	}

	if payload.WorkspaceID == "" && metadata != nil {
		payload.WorkspaceID = metadata.WorkspaceID
	}

	log.Info("Processing leads import",
		zap.String("workspace_id", payload.WorkspaceID),
		zap.Int("csv_bytes", len(payload.CSV)))

	summary, err := h.service.RunImport(ctx, payload, metadata)
	if err != nil {
		return err
	}

	log.Info("Import complete",
		zap.Int("rows_processed", summary.RowsProcessed),
		zap.Int("created", summary.Created),
		zap.Int("updated", summary.Updated),
		zap.Int("merged", summary.Merged),
		zap.Int("removed", summary.Removed))
	return nil
}
