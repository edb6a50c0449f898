package storage

import (
	"context"

	"gitlab.com/lumora/api/lead-insights-service/internal/model"
)

// LeadRepo defines lead storage operations. Every method scopes its work to
// the workspace carried in the context.
type LeadRepo interface {
	Save(ctx context.Context, lead model.Lead) error
	Update(ctx context.Context, lead model.Lead) error
	FindByID(ctx context.Context, id string) (*model.Lead, error)
	FindAll(ctx context.Context) ([]model.Lead, error)
	BulkUpsert(ctx context.Context, leads []model.Lead) error
	DeleteByIDs(ctx context.Context, ids []string) error
	Close(ctx context.Context) error
}
