package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"

	"gitlab.com/lumora/api/lead-insights-service/internal/apperrors"
	"gitlab.com/lumora/api/lead-insights-service/internal/model"
	"gitlab.com/lumora/api/lead-insights-service/pkg/logger"
)

// --- Retry Logic Configuration ---
const (
	defaultRetryInitialInterval = 50 * time.Millisecond
	defaultRetryMaxInterval     = 2 * time.Second
	readRetryMaxElapsedTime     = 5 * time.Second  // More aggressive for reads
	commitRetryMaxElapsedTime   = 15 * time.Second // More tolerant for commits
)

// PostgresRepo implements LeadRepo on a workspace-scoped schema.
type PostgresRepo struct {
	db *gorm.DB
}

// newRetryPolicy creates a new exponential backoff policy with context awareness.
func newRetryPolicy(ctx context.Context, maxElapsedTime time.Duration) backoff.BackOffContext {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = defaultRetryInitialInterval
	b.MaxInterval = defaultRetryMaxInterval
	b.MaxElapsedTime = maxElapsedTime
	b.Reset()
	return backoff.WithContext(b, ctx)
}

// retryableOperation wraps a database operation with retry logic.
func retryableOperation(ctx context.Context, policy backoff.BackOffContext, opName string, operation func() error) error {
	notify := func(err error, d time.Duration) {
		logger.FromContext(ctx).Warn("Retrying DB operation",
			zap.String("operation", opName),
			zap.Error(err),
			zap.Duration("after", d),
		)
	}

	return backoff.RetryNotify(func() error {
		err := operation()
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) ||
				errors.Is(err, gorm.ErrInvalidTransaction) ||
				errors.Is(err, gorm.ErrDuplicatedKey) ||
				errors.Is(err, gorm.ErrForeignKeyViolated) {
				return backoff.Permanent(err)
			}
			if isTransientError(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		return nil
	}, policy, notify)
}

// isTransientError checks if the error suggests a temporary issue like a network problem.
func isTransientError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// Class 08 — Connection Exception, Class 53 — Insufficient Resources,
		// deadlock and serialization failures.
		if strings.HasPrefix(pgErr.Code, "08") ||
			strings.HasPrefix(pgErr.Code, "53") ||
			pgErr.Code == "40P01" ||
			pgErr.Code == "40001" {
			return true
		}
	}

	errStr := strings.ToLower(err.Error())
	transientIndicators := []string{
		"connection refused",
		"network is unreachable",
		"i/o timeout",
		"broken pipe",
		"connection reset by peer",
		"could not translate host name",
		"no route to host",
		"database system is starting up",
		"connection timed out",
		"connection reset",
	}
	for _, indicator := range transientIndicators {
		if strings.Contains(errStr, indicator) {
			return true
		}
	}

	return false
}

// workspaceNamer qualifies every table with the workspace's schema name.
// It embeds the default NamingStrategy and overrides TableName.
type workspaceNamer struct {
	schema.NamingStrategy
	schemaName string
}

// TableName implements the schema.Namer interface, overriding the default.
func (wn workspaceNamer) TableName(table string) string {
	return fmt.Sprintf("%q.%s", wn.schemaName, table)
}

// SchemaName returns the Postgres schema for one workspace.
func SchemaName(workspaceID string) string {
	return fmt.Sprintf("lumora_%s", workspaceID)
}

// NewPostgresRepo connects to Postgres, ensures the workspace schema exists
// and optionally migrates the lead table into it.
func NewPostgresRepo(dsn string, autoMigrate bool, workspaceID string) (*PostgresRepo, error) {
	connect := func(config *gorm.Config) (*gorm.DB, error) {
		operation := func() (*gorm.DB, error) {
			db, err := gorm.Open(postgres.Open(dsn), config)
			if err != nil {
				if isTransientError(err) {
					logger.Log.Warn("Failed to connect to postgres (transient), retrying...", zap.Error(err))
					return nil, err
				}
				return nil, backoff.Permanent(fmt.Errorf("failed to connect to postgres: %w", err))
			}
			return db, nil
		}
		notify := func(err error, d time.Duration) {
			logger.Log.Warn("Retrying DB connection", zap.Error(err), zap.Duration("after", d))
		}
		b := backoff.NewExponentialBackOff()
		b.InitialInterval = 1 * time.Second
		b.MaxInterval = 15 * time.Second
		b.MaxElapsedTime = 1 * time.Minute
		return backoff.RetryNotifyWithData(operation, b, notify)
	}

	dbDefault, err := connect(&gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres after retries: %w", err)
	}

	schemaName := SchemaName(workspaceID)
	logger.Log.Info("Ensuring PostgreSQL schema exists", zap.String("schema", schemaName))

	if err := dbDefault.Exec(fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %q", schemaName)).Error; err != nil {
		if sqlDB, _ := dbDefault.DB(); sqlDB != nil {
			sqlDB.Close()
		}
		return nil, fmt.Errorf("failed to create schema %s: %w", schemaName, err)
	}

	if sqlDB, sqlErr := dbDefault.DB(); sqlErr != nil {
		logger.Log.Warn("Failed to get underlying SQL DB handle for closing", zap.Error(sqlErr))
	} else if closeErr := sqlDB.Close(); closeErr != nil {
		logger.Log.Warn("Failed to close initial DB connection", zap.Error(closeErr))
	}

	// Reconnect with the workspace namer so table references are qualified
	// with the workspace schema.
	db, err := connect(&gorm.Config{
		NamingStrategy: workspaceNamer{schemaName: schemaName},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to workspace schema %s after retries: %w", schemaName, err)
	}

	repo := &PostgresRepo{db: db}

	if autoMigrate {
		logger.Log.Info("Running auto-migration for workspace schema", zap.String("schema", schemaName))
		if migrateErr := db.AutoMigrate(&model.Lead{}); migrateErr != nil {
			if sqlDB, _ := db.DB(); sqlDB != nil {
				sqlDB.Close()
			}
			return nil, fmt.Errorf("failed to migrate leads table in schema %s: %w", schemaName, migrateErr)
		}
	}

	return repo, nil
}

// NewPostgresRepoWithDB wraps an existing GORM handle. Used by tests.
func NewPostgresRepoWithDB(db *gorm.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

// Ping verifies the database connection is alive. Used by readiness probes.
func (r *PostgresRepo) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying SQL DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the database connection.
func (r *PostgresRepo) Close(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		logger.FromContext(ctx).Warn("Failed to get underlying SQL DB for closing", zap.Error(err))
		return nil
	}

	if closeErr := sqlDB.Close(); closeErr != nil {
		logger.FromContext(ctx).Error("Failed to close database connection", zap.Error(closeErr))
		return fmt.Errorf("failed to close SQL DB: %w", closeErr)
	}

	logger.FromContext(ctx).Info("Database connection closed successfully")
	return nil
}

// checkConstraintViolation inspects database errors and maps them to standard apperrors.
func checkConstraintViolation(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %w", apperrors.ErrNotFound, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		// Class 23 — Integrity Constraint Violation
		case "23505":
			return fmt.Errorf("%w: constraint %s: %w", apperrors.ErrDuplicate, pgErr.ConstraintName, err)
		case "23503":
			return fmt.Errorf("%w: constraint %s: %w", apperrors.ErrBadRequest, pgErr.ConstraintName, err)
		case "23502":
			return fmt.Errorf("%w: null value in column %s: %w", apperrors.ErrBadRequest, pgErr.ColumnName, err)
		case "23514":
			return fmt.Errorf("%w: constraint %s: %w", apperrors.ErrBadRequest, pgErr.ConstraintName, err)

		// Class 22 — Data Exception
		case "22001":
			return fmt.Errorf("%w: value too long for column %s: %w", apperrors.ErrBadRequest, pgErr.ColumnName, err)
		case "22P02":
			return fmt.Errorf("%w: invalid input syntax for type %s: %w", apperrors.ErrBadRequest, pgErr.DataTypeName, err)

		// Class 40 — Transaction Rollback
		case "40001", "40P01":
			return fmt.Errorf("%w: transaction rollback (%s): %w", apperrors.ErrDatabase, pgErr.Code, err)

		default:
			if strings.HasPrefix(pgErr.Code, "53") {
				return fmt.Errorf("%w: insufficient resources (%s): %w", apperrors.ErrDatabase, pgErr.Code, err)
			}
			if strings.HasPrefix(pgErr.Code, "08") {
				return fmt.Errorf("%w: connection error (%s): %w", apperrors.ErrDatabase, pgErr.Code, err)
			}
			return fmt.Errorf("%w: unhandled pgcode %s: %w", apperrors.ErrDatabase, pgErr.Code, err)
		}
	}

	return fmt.Errorf("%w: %w", apperrors.ErrDatabase, err)
}
