package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"gitlab.com/lumora/api/lead-insights-service/internal/config"
	"gitlab.com/lumora/api/lead-insights-service/internal/dedupe"
	"gitlab.com/lumora/api/lead-insights-service/internal/jetstream"
	"gitlab.com/lumora/api/lead-insights-service/internal/model"
	"gitlab.com/lumora/api/lead-insights-service/internal/observer"
	"gitlab.com/lumora/api/lead-insights-service/internal/storage"
	"gitlab.com/lumora/api/lead-insights-service/internal/workspace"
	"gitlab.com/lumora/api/lead-insights-service/pkg/logger"
	"gitlab.com/lumora/api/lead-insights-service/pkg/utils"
)

// DedupeTaskData holds the necessary data for a dedupe pass task.
type DedupeTaskData struct {
	Ctx         context.Context // Context derived for the task, NOT the original request context
	WorkspaceID string
}

// PassResult summarizes one dedupe pass over a workspace's collection.
type PassResult struct {
	Merged    int
	Removed   int
	LeadCount int
}

// IDedupeWorker defines the interface for the dedupe worker pool.
type IDedupeWorker interface {
	SubmitTask(taskData DedupeTaskData) error
	RunPass(ctx context.Context, workspaceID string) (PassResult, error)
	PublishSnapshot(ctx context.Context, workspaceID string, leadCount int) error
	Stop()
}

// DedupeWorker manages the worker pool for running dedupe passes.
type DedupeWorker struct {
	pool            *ants.PoolWithFunc
	leadRepo        storage.LeadRepo
	publisher       jetstream.ClientInterface
	snapshotSubject string
	cfg             config.DedupeWorkerPoolConfig
	baseLogger      *zap.Logger
}

// Ensure DedupeWorker implements IDedupeWorker
var _ IDedupeWorker = (*DedupeWorker)(nil)

// NewDedupeWorker creates and initializes a new dedupe worker pool.
func NewDedupeWorker(
	cfg config.DedupeWorkerPoolConfig,
	leadRepo storage.LeadRepo,
	publisher jetstream.ClientInterface,
	snapshotSubject string,
	baseLogger *zap.Logger,
) (*DedupeWorker, error) {
	worker := &DedupeWorker{
		leadRepo:        leadRepo,
		publisher:       publisher,
		snapshotSubject: snapshotSubject,
		cfg:             cfg,
		baseLogger:      baseLogger.Named("dedupe_worker"), // Create a named logger
	}

	pool, err := ants.NewPoolWithFunc(cfg.PoolSize, func(i interface{}) {
		taskData, ok := i.(DedupeTaskData)
		if !ok {
			worker.baseLogger.Error("Invalid task data type received", zap.Any("data", i))
			return
		}
		worker.processDedupeTask(taskData)
	},
		ants.WithExpiryDuration(cfg.ExpiryTime),
		ants.WithNonblocking(false), // Block on a full queue, bounded by MaxBlock
		ants.WithMaxBlockingTasks(cfg.QueueSize),
		ants.WithPanicHandler(func(err interface{}) {
			worker.baseLogger.Error("Panic recovered in dedupe worker", zap.Any("panic_error", err), zap.Stack("stack"))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create dedupe worker pool: %w", err)
	}
	worker.pool = pool
	worker.baseLogger.Info("Dedupe worker pool initialized",
		zap.Int("pool_size", cfg.PoolSize),
		zap.Int("queue_size", cfg.QueueSize),
		zap.Duration("expiry_time", cfg.ExpiryTime),
		zap.Duration("max_block_time", cfg.MaxBlock),
	)
	return worker, nil
}

// SubmitTask submits a new dedupe pass task to the worker pool.
func (w *DedupeWorker) SubmitTask(taskData DedupeTaskData) error {
	start := time.Now()
	observer.SetDedupeQueueLength(w.pool.Waiting()) // Approximate queue length

	err := w.pool.Invoke(taskData)

	duration := time.Since(start)

	if err != nil {
		w.baseLogger.Warn("Failed to submit dedupe task to pool",
			zap.String("workspace_id", taskData.WorkspaceID),
			zap.Duration("submit_duration", duration),
			zap.Error(err),
		)
		if errors.Is(err, ants.ErrPoolOverload) {
			return fmt.Errorf("dedupe pool overload: %w", err)
		}
		return fmt.Errorf("failed to invoke dedupe task: %w", err)
	}

	w.baseLogger.Debug("Successfully submitted dedupe task",
		zap.String("workspace_id", taskData.WorkspaceID),
		zap.Duration("submit_duration", duration),
	)
	return nil
}

// processDedupeTask contains the actual logic executed by a worker goroutine.
func (w *DedupeWorker) processDedupeTask(taskData DedupeTaskData) {
	log := logger.FromContextOr(taskData.Ctx, w.baseLogger).With(
		zap.String("task_workspace_id", taskData.WorkspaceID),
	)

	start := time.Now()

	// Repository operations need the workspace ID on the task's context
	taskCtx := workspace.WithID(taskData.Ctx, taskData.WorkspaceID)

	result, err := w.RunPass(taskCtx, taskData.WorkspaceID)
	if err != nil {
		log.Error("Dedupe pass failed", zap.Error(err), zap.Duration("duration", time.Since(start)))
		return
	}

	if err := w.PublishSnapshot(taskCtx, taskData.WorkspaceID, result.LeadCount); err != nil {
		log.Error("Failed to publish collection snapshot after dedupe pass", zap.Error(err))
		return
	}

	log.Debug("Dedupe pass complete",
		zap.Int("merged", result.Merged),
		zap.Int("removed", result.Removed),
		zap.Int("lead_count", result.LeadCount),
		zap.Duration("duration", time.Since(start)),
	)
}

// RunPass loads the workspace's collection, folds phone duplicates into
// their canonical records and deletes the absorbed rows. It is safe to call
// synchronously; the pool path goes through it too.
func (w *DedupeWorker) RunPass(ctx context.Context, workspaceID string) (PassResult, error) {
	log := logger.FromContextOr(ctx, w.baseLogger)

	leads, err := w.leadRepo.FindAll(ctx)
	if err != nil {
		return PassResult{}, fmt.Errorf("failed to load leads for dedupe pass: %w", err)
	}

	plan := dedupe.Build(leads)
	result := PassResult{
		Merged:    plan.MergeCount(),
		Removed:   plan.RemovedCount(),
		LeadCount: len(leads) - plan.RemovedCount(),
	}
	if len(plan.Merges) == 0 {
		return result, nil
	}

	canonicals := make([]model.Lead, 0, len(plan.Merges))
	removedIDs := make([]string, 0, plan.RemovedCount())
	for _, merge := range plan.Merges {
		canonicals = append(canonicals, merge.Canonical)
		removedIDs = append(removedIDs, merge.RemovedIDs...)
	}

	if err := w.leadRepo.BulkUpsert(ctx, canonicals); err != nil {
		return PassResult{}, fmt.Errorf("failed to persist merged leads: %w", err)
	}
	if err := w.leadRepo.DeleteByIDs(ctx, removedIDs); err != nil {
		return PassResult{}, fmt.Errorf("failed to delete absorbed leads: %w", err)
	}

	observer.RecordDedupeOutcome(workspaceID, result.Merged, result.Removed)
	log.Info("Folded duplicate leads",
		zap.String("workspace_id", workspaceID),
		zap.Int("merged", result.Merged),
		zap.Int("removed", result.Removed),
	)
	return result, nil
}

// PublishSnapshot notifies reactive clients that the workspace's collection
// changed and should be re-pulled.
func (w *DedupeWorker) PublishSnapshot(ctx context.Context, workspaceID string, leadCount int) error {
	payload := model.SnapshotPayload{
		WorkspaceID: workspaceID,
		LeadCount:   leadCount,
		ChangedAt:   utils.FormatISO8601(utils.Now()),
	}

	subject := fmt.Sprintf("%s.%s", w.snapshotSubject, workspaceID)
	requestID, _ := workspace.RequestIDFromContext(ctx)
	headers := map[string]string{"Request-Id": requestID}
	if err := w.publisher.Publish(subject, utils.MustMarshalJSON(payload), headers); err != nil {
		return fmt.Errorf("failed to publish snapshot to %s: %w", subject, err)
	}
	return nil
}

// Stop gracefully shuts down the worker pool.
func (w *DedupeWorker) Stop() {
	if w.pool != nil {
		w.baseLogger.Info("Stopping dedupe worker pool...")
		w.pool.Release()
		w.baseLogger.Info("Dedupe worker pool stopped")
	}
}
