package storage

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"gitlab.com/lumora/api/lead-insights-service/internal/apperrors"
)

// Placeholder for AnyTime argument matcher
type AnyTime struct{}

// Match satisfies sqlmock.Argument interface
func (a AnyTime) Match(v driver.Value) bool {
	_, ok := v.(time.Time)
	return ok
}

func TestIsTransientError(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"deadline exceeded", fmt.Errorf("wrapped: %w", context.DeadlineExceeded), true},
		{"connection refused", errors.New("dial tcp 127.0.0.1:5432: connection refused"), true},
		{"broken pipe", errors.New("write: broken pipe"), true},
		{"pg connection exception", &pgconn.PgError{Code: "08006"}, true},
		{"pg insufficient resources", &pgconn.PgError{Code: "53300"}, true},
		{"pg deadlock", &pgconn.PgError{Code: "40P01"}, true},
		{"pg unique violation", &pgconn.PgError{Code: "23505"}, false},
		{"plain application error", errors.New("something else"), false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, isTransientError(tc.err))
		})
	}
}

func TestCheckConstraintViolation(t *testing.T) {
	testCases := []struct {
		name        string
		err         error
		expectedErr error
	}{
		{"nil error", nil, nil},
		{"record not found", gorm.ErrRecordNotFound, apperrors.ErrNotFound},
		{"unique violation", &pgconn.PgError{Code: "23505", ConstraintName: "leads_pkey"}, apperrors.ErrDuplicate},
		{"foreign key violation", &pgconn.PgError{Code: "23503"}, apperrors.ErrBadRequest},
		{"not null violation", &pgconn.PgError{Code: "23502", ColumnName: "workspace_id"}, apperrors.ErrBadRequest},
		{"check violation", &pgconn.PgError{Code: "23514"}, apperrors.ErrBadRequest},
		{"string truncation", &pgconn.PgError{Code: "22001"}, apperrors.ErrBadRequest},
		{"serialization failure", &pgconn.PgError{Code: "40001"}, apperrors.ErrDatabase},
		{"deadlock", &pgconn.PgError{Code: "40P01"}, apperrors.ErrDatabase},
		{"insufficient resources", &pgconn.PgError{Code: "53100"}, apperrors.ErrDatabase},
		{"connection exception", &pgconn.PgError{Code: "08001"}, apperrors.ErrDatabase},
		{"unhandled pg code", &pgconn.PgError{Code: "42601"}, apperrors.ErrDatabase},
		{"plain error", errors.New("boom"), apperrors.ErrDatabase},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mapped := checkConstraintViolation(tc.err)
			if tc.expectedErr == nil {
				assert.NoError(t, mapped)
				return
			}
			assert.ErrorIs(t, mapped, tc.expectedErr)
		})
	}
}

func TestSchemaName(t *testing.T) {
	assert.Equal(t, "lumora_ws-42", SchemaName("ws-42"))
}
