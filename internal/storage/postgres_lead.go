package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"gitlab.com/lumora/api/lead-insights-service/internal/apperrors"
	"gitlab.com/lumora/api/lead-insights-service/internal/model"
	"gitlab.com/lumora/api/lead-insights-service/internal/observer"
	"gitlab.com/lumora/api/lead-insights-service/internal/workspace"
	"gitlab.com/lumora/api/lead-insights-service/pkg/logger"
	"gitlab.com/lumora/api/lead-insights-service/pkg/utils"
)

// --- Lead Repository Methods ---

// Save creates a lead or overwrites an existing one with the same ID.
func (r *PostgresRepo) Save(ctx context.Context, lead model.Lead) error {
	workspaceID, err := workspace.FromContext(ctx)
	if err != nil {
		return fmt.Errorf("%w: failed to get workspace ID from context: %w", apperrors.ErrUnauthorized, err)
	}
	if workspaceID != lead.WorkspaceID {
		return fmt.Errorf("%w: lead WorkspaceID %s does not match workspace %s", apperrors.ErrBadRequest, lead.WorkspaceID, workspaceID)
	}

	operation := func() error {
		tx := r.db.WithContext(ctx).Begin()
		if tx.Error != nil {
			return fmt.Errorf("%w: failed to begin transaction: %w", apperrors.ErrDatabase, tx.Error)
		}
		var txErr error
		defer func() {
			if p := recover(); p != nil {
				tx.Rollback()
				panic(p)
			} else if txErr != nil {
				if rbErr := tx.Rollback().Error; rbErr != nil {
					logger.FromContext(ctx).Error("Failed to rollback transaction after error", zap.Error(rbErr), zap.NamedError("originalTxError", txErr))
				}
			}
		}()

		var existing model.Lead
		result := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", lead.ID).
			First(&existing)
		findErr := result.Error

		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				if createErr := tx.Create(&lead).Error; createErr != nil {
					txErr = checkConstraintViolation(createErr)
					return txErr
				}
			} else {
				txErr = fmt.Errorf("%w: failed to lock lead row: %w", apperrors.ErrDatabase, findErr)
				return txErr
			}
		} else {
			if updateErr := tx.Model(&existing).Updates(lead).Error; updateErr != nil {
				txErr = checkConstraintViolation(updateErr)
				return txErr
			}
		}

		if commitErr := tx.Commit().Error; commitErr != nil {
			txErr = fmt.Errorf("%w: failed to commit save transaction: %w", apperrors.ErrDatabase, commitErr)
			return txErr
		}
		return nil
	}

	commitPolicy := newRetryPolicy(ctx, commitRetryMaxElapsedTime)
	startTime := utils.Now()
	commitErr := retryableOperation(ctx, commitPolicy, "SaveLead Commit", operation)
	observer.ObserveDbOperationDuration("save", "lead", workspaceID, time.Since(startTime), commitErr)
	if commitErr != nil {
		logger.FromContext(ctx).Error("Failed to save lead after retries", zap.Error(commitErr))
		return commitErr
	}
	return nil
}

// Update rewrites specific fields of an existing lead. The lead must already
// exist; a missing row maps to ErrNotFound.
func (r *PostgresRepo) Update(ctx context.Context, lead model.Lead) error {
	workspaceID, err := workspace.FromContext(ctx)
	if err != nil {
		return fmt.Errorf("%w: failed to get workspace ID from context: %w", apperrors.ErrUnauthorized, err)
	}
	if workspaceID != lead.WorkspaceID {
		return fmt.Errorf("%w: lead WorkspaceID %s does not match workspace %s", apperrors.ErrBadRequest, lead.WorkspaceID, workspaceID)
	}
	lead.UpdatedAt = utils.Now()

	operation := func() error {
		tx := r.db.WithContext(ctx).Begin()
		if tx.Error != nil {
			return fmt.Errorf("%w: failed to begin transaction: %w", apperrors.ErrDatabase, tx.Error)
		}
		var txErr error
		defer func() {
			if p := recover(); p != nil {
				tx.Rollback()
				panic(p)
			} else if txErr != nil {
				if rbErr := tx.Rollback().Error; rbErr != nil {
					logger.FromContext(ctx).Error("Failed to rollback transaction after error", zap.Error(rbErr), zap.NamedError("originalTxError", txErr))
				}
			}
		}()

		var existing model.Lead
		result := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", lead.ID).
			First(&existing)
		findErr := result.Error

		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				txErr = fmt.Errorf("%w: lead %s: %w", apperrors.ErrNotFound, lead.ID, findErr)
				return txErr
			}
			txErr = fmt.Errorf("%w: failed to lock lead row: %w", apperrors.ErrDatabase, findErr)
			return txErr
		}

		if updateErr := tx.Model(&existing).Updates(lead).Error; updateErr != nil {
			txErr = checkConstraintViolation(updateErr)
			return txErr
		}

		if commitErr := tx.Commit().Error; commitErr != nil {
			txErr = fmt.Errorf("%w: failed to commit update transaction: %w", apperrors.ErrDatabase, commitErr)
			return txErr
		}
		return nil
	}

	commitPolicy := newRetryPolicy(ctx, commitRetryMaxElapsedTime)
	startTime := utils.Now()
	commitErr := retryableOperation(ctx, commitPolicy, "UpdateLead Commit", operation)
	observer.ObserveDbOperationDuration("update", "lead", workspaceID, time.Since(startTime), commitErr)
	if commitErr != nil {
		logger.FromContext(ctx).Error("Failed to update lead after retries", zap.Error(commitErr))
		return commitErr
	}
	return nil
}

// FindByID retrieves one lead by primary key.
func (r *PostgresRepo) FindByID(ctx context.Context, id string) (*model.Lead, error) {
	workspaceID, err := workspace.FromContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get workspace ID from context: %w", apperrors.ErrUnauthorized, err)
	}

	var lead model.Lead
	operation := func() error {
		result := r.db.WithContext(ctx).
			Where("id = ? AND workspace_id = ?", id, workspaceID).
			First(&lead)
		return result.Error
	}

	readPolicy := newRetryPolicy(ctx, readRetryMaxElapsedTime)
	startTime := utils.Now()
	findErr := retryableOperation(ctx, readPolicy, "FindLeadByID", operation)
	observer.ObserveDbOperationDuration("find_by_id", "lead", workspaceID, time.Since(startTime), findErr)
	if findErr != nil {
		if errors.Is(findErr, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: lead %s: %w", apperrors.ErrNotFound, id, findErr)
		}
		logger.FromContext(ctx).Error("Failed to find lead by ID", zap.String("lead_id", id), zap.Error(findErr))
		return nil, fmt.Errorf("%w: failed to find lead: %w", apperrors.ErrDatabase, findErr)
	}
	return &lead, nil
}

// FindAll retrieves every lead in the workspace, ordered by date added then ID
// so downstream computation sees a stable sequence.
func (r *PostgresRepo) FindAll(ctx context.Context) ([]model.Lead, error) {
	workspaceID, err := workspace.FromContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get workspace ID from context: %w", apperrors.ErrUnauthorized, err)
	}

	var leads []model.Lead
	operation := func() error {
		result := r.db.WithContext(ctx).
			Where("workspace_id = ?", workspaceID).
			Order("date_added, id").
			Find(&leads)
		return result.Error
	}

	readPolicy := newRetryPolicy(ctx, readRetryMaxElapsedTime)
	startTime := utils.Now()
	findErr := retryableOperation(ctx, readPolicy, "FindAllLeads", operation)
	observer.ObserveDbOperationDuration("find_all", "lead", workspaceID, time.Since(startTime), findErr)
	if findErr != nil {
		logger.FromContext(ctx).Error("Failed to list leads", zap.Error(findErr))
		return nil, fmt.Errorf("%w: failed to list leads: %w", apperrors.ErrDatabase, findErr)
	}
	return leads, nil
}

// BulkUpsert performs a bulk upsert operation for lead records.
func (r *PostgresRepo) BulkUpsert(ctx context.Context, leads []model.Lead) error {
	if len(leads) == 0 {
		return nil
	}
	workspaceID, err := workspace.FromContext(ctx)
	if err != nil {
		return fmt.Errorf("%w: failed to get workspace ID from context: %w", apperrors.ErrUnauthorized, err)
	}
	loggerCtx := logger.FromContext(ctx)

	// Filter leads to only include those matching the workspace ID
	validLeads := make([]model.Lead, 0, len(leads))
	for i := range leads {
		if leads[i].WorkspaceID != workspaceID {
			loggerCtx.Warn("Skipping lead in bulk upsert due to mismatched WorkspaceID",
				zap.String("lead_id", leads[i].ID),
				zap.String("lead_workspace_id", leads[i].WorkspaceID),
				zap.String("expected_workspace_id", workspaceID))
			continue
		}
		leads[i].UpdatedAt = utils.Now()
		validLeads = append(validLeads, leads[i])
	}

	if len(validLeads) == 0 {
		loggerCtx.Info("No valid leads found for bulk upsert after workspace ID filtering")
		return nil
	}

	operation := func() error {
		tx := r.db.WithContext(ctx).Begin()
		if tx.Error != nil {
			return fmt.Errorf("%w: failed to begin transaction: %w", apperrors.ErrDatabase, tx.Error)
		}
		var txErr error
		defer func() {
			if p := recover(); p != nil {
				tx.Rollback()
				panic(p)
			} else if txErr != nil {
				if rbErr := tx.Rollback().Error; rbErr != nil {
					loggerCtx.Error("Failed to rollback transaction after error", zap.Error(rbErr), zap.NamedError("originalTxError", txErr))
				}
			}
		}()

		result := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns(model.LeadUpdateColumns()),
		}).Create(&validLeads)

		if result.Error != nil {
			txErr = fmt.Errorf("%w: bulk upsert failed: %w", apperrors.ErrDatabase, result.Error)
			return txErr
		}

		if commitErr := tx.Commit().Error; commitErr != nil {
			txErr = fmt.Errorf("%w: failed to commit bulk upsert transaction: %w", apperrors.ErrDatabase, commitErr)
			return txErr
		}
		loggerCtx.Info("Bulk upsert successful", zap.Int("leads_processed", len(validLeads)), zap.Int64("rows_affected", result.RowsAffected))
		return nil
	}

	commitPolicy := newRetryPolicy(ctx, commitRetryMaxElapsedTime)
	startTime := utils.Now()
	commitErr := retryableOperation(ctx, commitPolicy, "BulkUpsertLeads Commit", operation)
	observer.ObserveDbOperationDuration("bulk_upsert", "lead", workspaceID, time.Since(startTime), commitErr)
	if commitErr != nil {
		loggerCtx.Error("Failed to bulk upsert leads after retries", zap.Error(commitErr))
		return commitErr
	}
	return nil
}

// DeleteByIDs removes leads folded away by a dedupe pass.
func (r *PostgresRepo) DeleteByIDs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	workspaceID, err := workspace.FromContext(ctx)
	if err != nil {
		return fmt.Errorf("%w: failed to get workspace ID from context: %w", apperrors.ErrUnauthorized, err)
	}

	operation := func() error {
		result := r.db.WithContext(ctx).
			Where("id IN ? AND workspace_id = ?", ids, workspaceID).
			Delete(&model.Lead{})
		if result.Error != nil {
			return checkConstraintViolation(result.Error)
		}
		return nil
	}

	commitPolicy := newRetryPolicy(ctx, commitRetryMaxElapsedTime)
	startTime := utils.Now()
	deleteErr := retryableOperation(ctx, commitPolicy, "DeleteLeadsByIDs", operation)
	observer.ObserveDbOperationDuration("delete", "lead", workspaceID, time.Since(startTime), deleteErr)
	if deleteErr != nil {
		logger.FromContext(ctx).Error("Failed to delete leads after retries", zap.Int("count", len(ids)), zap.Error(deleteErr))
		return deleteErr
	}
	return nil
}
