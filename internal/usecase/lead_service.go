package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	apperrors "gitlab.com/lumora/api/lead-insights-service/internal/apperrors"
	"gitlab.com/lumora/api/lead-insights-service/internal/importer"
	"gitlab.com/lumora/api/lead-insights-service/internal/model"
	"gitlab.com/lumora/api/lead-insights-service/internal/observer"
	"gitlab.com/lumora/api/lead-insights-service/internal/validator"
	"gitlab.com/lumora/api/lead-insights-service/internal/workspace"
	"gitlab.com/lumora/api/lead-insights-service/pkg/logger"
	"gitlab.com/lumora/api/lead-insights-service/pkg/utils"
)

// UpsertLead processes the upsertion of a single lead.
func (s *LeadEventService) UpsertLead(ctx context.Context, payload model.UpsertLeadPayload, metadata *model.LastMetadata) error {
	log := logger.FromContext(ctx)

	// Validate input
	if err := validator.Validate(payload); err != nil {
		log.Error("Lead validation failed",
			zap.String("lead_id", payload.ID),
			zap.Error(err),
		)
		return apperrors.NewFatal(err, "lead validation failed")
	}

	// Extract workspace ID
	workspaceID, err := workspace.FromContext(ctx)
	if err != nil || workspaceID == "" {
		log.Error("Failed to get workspace ID from context",
			zap.Error(err),
		)
		return apperrors.NewFatal(err, "failed to get workspace ID from context")
	}

	// Validate that the payload workspace matches the context workspace
	if err := validatePayloadWorkspace(ctx, payload.WorkspaceID); err != nil {
		log.Error("Workspace validation failed for lead",
			zap.String("lead_id", payload.ID),
			zap.String("workspace_id", payload.WorkspaceID),
			zap.String("context_workspace_id", workspaceID),
			zap.Error(err),
		)
		return apperrors.NewFatal(err, "lead workspace mismatch")
	}

	// Transform to database model
	dbLead := payload.ToLead()
	if dbLead.CreatedAt.IsZero() {
		dbLead.CreatedAt = utils.Now()
	}
	dbLead.UpdatedAt = utils.Now()

	// Save to repo
	if err := s.leadRepo.Save(ctx, dbLead); err != nil {
		logFields := []zap.Field{
			zap.String("lead_id", dbLead.ID),
			zap.Error(err),
		}
		if errors.Is(err, apperrors.ErrDatabase) || errors.Is(err, apperrors.ErrConflict) {
			log.Warn("Potentially retryable error during lead upsert", logFields...)
			return apperrors.NewRetryable(err, "retryable repository error during lead upsert")
		}
		log.Error("Fatal error during lead upsert", logFields...)
		return apperrors.NewFatal(err, "fatal repository error during lead upsert")
	}

	log.Info("Successfully upserted lead", zap.String("lead_id", dbLead.ID))

	s.scheduleDedupePass(ctx, workspaceID)
	return nil
}

// UpdateLead processes the partial update of an existing lead.
func (s *LeadEventService) UpdateLead(ctx context.Context, payload model.UpdateLeadPayload, metadata *model.LastMetadata) error {
	log := logger.FromContext(ctx)

	// Validate input
	if err := validator.Validate(payload); err != nil {
		log.Error("Lead update validation failed",
			zap.String("lead_id", payload.ID),
			zap.Error(err),
		)
		return apperrors.NewFatal(err, "lead update validation failed")
	}

	// Extract workspace ID
	workspaceID, err := workspace.FromContext(ctx)
	if err != nil || workspaceID == "" {
		log.Error("Failed to get workspace ID from context",
			zap.Error(err),
		)
		return apperrors.NewFatal(err, "failed to get workspace ID from context")
	}

	// Validate that the payload workspace matches the context workspace
	if err := validatePayloadWorkspace(ctx, payload.WorkspaceID); err != nil {
		log.Error("Workspace validation failed for lead update",
			zap.String("lead_id", payload.ID),
			zap.String("workspace_id", payload.WorkspaceID),
			zap.String("context_workspace_id", workspaceID),
			zap.Error(err),
		)
		return apperrors.NewFatal(err, "lead update workspace mismatch")
	}

	// First, get the existing lead
	existingLead, err := s.leadRepo.FindByID(ctx, payload.ID)
	if err != nil {
		logFields := []zap.Field{
			zap.String("lead_id", payload.ID),
			zap.Error(err),
		}
		if errors.Is(err, apperrors.ErrNotFound) {
			log.Warn("Lead not found for update", logFields...)
			return apperrors.NewFatal(err, "lead not found for update (id: %s)", payload.ID)
		} else if errors.Is(err, apperrors.ErrDatabase) || errors.Is(err, apperrors.ErrConflict) {
			log.Warn("Potentially retryable error fetching lead for update", logFields...)
			return apperrors.NewRetryable(err, "retryable repository error fetching lead for update")
		}
		log.Error("Fatal error fetching lead for update", logFields...)
		return apperrors.NewFatal(err, "fatal repository error fetching lead for update")
	}

	// Apply the partial update and stamp the edit time
	payload.ApplyTo(existingLead)
	now := utils.Now()
	existingLead.LastUpdated = &now
	existingLead.UpdatedAt = now

	if err := s.leadRepo.Update(ctx, *existingLead); err != nil {
		logFields := []zap.Field{
			zap.String("lead_id", existingLead.ID),
			zap.Error(err),
		}
		if errors.Is(err, apperrors.ErrDatabase) || errors.Is(err, apperrors.ErrConflict) {
			log.Warn("Potentially retryable error during lead update", logFields...)
			return apperrors.NewRetryable(err, "retryable repository error during lead update")
		}
		log.Error("Fatal error during lead update", logFields...)
		return apperrors.NewFatal(err, "fatal repository error during lead update")
	}

	log.Info("Successfully updated lead", zap.String("lead_id", existingLead.ID))

	s.scheduleDedupePass(ctx, workspaceID)
	return nil
}

// RunImport ingests a CSV upload into the workspace's collection, reconciles
// rows against existing records, folds phone duplicates and publishes a
// snapshot of the changed collection.
func (s *LeadEventService) RunImport(ctx context.Context, payload model.ImportLeadsPayload, metadata *model.LastMetadata) (*model.ImportSummary, error) {
	log := logger.FromContext(ctx)
	start := utils.Now()

	// Validate input
	if err := validator.Validate(payload); err != nil {
		log.Error("Import payload validation failed",
			zap.String("workspace_id", payload.WorkspaceID),
			zap.Error(err),
		)
		observer.IncImportBatch(payload.WorkspaceID, "rejected")
		return nil, apperrors.NewFatal(err, "import payload validation failed")
	}

	// Extract workspace ID
	workspaceID, err := workspace.FromContext(ctx)
	if err != nil || workspaceID == "" {
		log.Error("Failed to get workspace ID from context",
			zap.Error(err),
		)
		return nil, apperrors.NewFatal(err, "failed to get workspace ID from context")
	}

	// Validate that the payload workspace matches the context workspace
	if err := validatePayloadWorkspace(ctx, payload.WorkspaceID); err != nil {
		log.Error("Workspace validation failed for import",
			zap.String("workspace_id", payload.WorkspaceID),
			zap.String("context_workspace_id", workspaceID),
			zap.Error(err),
		)
		return nil, apperrors.NewFatal(err, "import workspace mismatch")
	}

	rows, err := importer.ParseCSV(strings.NewReader(payload.CSV))
	if err != nil {
		log.Error("Failed to parse import file", zap.Error(err))
		observer.IncImportBatch(workspaceID, "rejected")
		return nil, err
	}

	// Load the current collection once; it seeds both the ID reconciliation
	// and the count check after the dedupe pass.
	existingLeads, err := s.leadRepo.FindAll(ctx)
	if err != nil {
		log.Error("Failed to load existing leads for import", zap.Error(err))
		observer.IncImportBatch(workspaceID, "failed")
		return nil, apperrors.NewRetryable(err, "retryable repository error loading leads for import")
	}
	existingIDs := make(map[string]bool, len(existingLeads))
	for _, lead := range existingLeads {
		existingIDs[lead.ID] = true
	}

	treatDuplicatesAsUpdates := true
	if payload.TreatDuplicateIDsAsUpdates != nil {
		treatDuplicatesAsUpdates = *payload.TreatDuplicateIDsAsUpdates
	}

	result := importer.Reconcile(rows, existingIDs, importer.Options{
		WorkspaceID:                workspaceID,
		TreatDuplicateIDsAsUpdates: treatDuplicatesAsUpdates,
		SourceOverride:             payload.SourceOverride,
		Now:                        start,
	})

	if len(result.Leads) > 0 {
		if err := s.leadRepo.BulkUpsert(ctx, result.Leads); err != nil {
			logFields := []zap.Field{
				zap.Int("count", len(result.Leads)),
				zap.Error(err),
			}
			observer.IncImportBatch(workspaceID, "failed")
			if errors.Is(err, apperrors.ErrDatabase) || errors.Is(err, apperrors.ErrConflict) {
				log.Warn("Potentially retryable error during import bulk upsert", logFields...)
				return nil, apperrors.NewRetryable(err, "retryable repository error during import bulk upsert")
			}
			log.Error("Fatal error during import bulk upsert", logFields...)
			return nil, apperrors.NewFatal(err, "fatal repository error during import bulk upsert")
		}
	}

	observer.IncImportRows(workspaceID, "created", result.Created)
	observer.IncImportRows(workspaceID, "updated", result.Updated)

	// Imports run the dedupe pass inline so the summary can report what the
	// pass folded.
	passResult, err := s.dedupeWorker.RunPass(ctx, workspaceID)
	if err != nil {
		log.Error("Dedupe pass failed after import", zap.Error(err))
		observer.IncImportBatch(workspaceID, "failed")
		return nil, apperrors.NewRetryable(err, "dedupe pass failed after import")
	}

	if err := s.dedupeWorker.PublishSnapshot(ctx, workspaceID, passResult.LeadCount); err != nil {
		// The mutation batch has landed; a lost notification only delays
		// reactive clients until the next one.
		log.Warn("Failed to publish collection snapshot after import", zap.Error(err))
	}

	observer.IncImportBatch(workspaceID, "success")
	summary := &model.ImportSummary{
		RowsProcessed: len(rows),
		Created:       result.Created,
		Updated:       result.Updated,
		Merged:        passResult.Merged,
		Removed:       passResult.Removed,
	}
	log.Info("Successfully processed import",
		zap.Int("rows_processed", summary.RowsProcessed),
		zap.Int("created", summary.Created),
		zap.Int("updated", summary.Updated),
		zap.Int("merged", summary.Merged),
		zap.Int("removed", summary.Removed),
		zap.Duration("duration", time.Since(start)),
	)
	return summary, nil
}

// scheduleDedupePass hands the post-mutation dedupe pass to the worker pool.
// The pass runs on a fresh context; the request context gets cancelled as
// soon as the message is acked.
func (s *LeadEventService) scheduleDedupePass(ctx context.Context, workspaceID string) {
	log := logger.FromContext(ctx)

	taskCtx := workspace.WithID(context.Background(), workspaceID)
	if requestID, err := workspace.RequestIDFromContext(ctx); err == nil {
		taskCtx = workspace.WithRequestID(taskCtx, requestID)
	}

	if err := s.dedupeWorker.SubmitTask(DedupeTaskData{Ctx: taskCtx, WorkspaceID: workspaceID}); err != nil {
		// Dropped passes self-heal: the next mutation schedules another one.
		log.Warn("Failed to schedule dedupe pass",
			zap.String("workspace_id", workspaceID),
			zap.Error(err),
		)
	}
}
