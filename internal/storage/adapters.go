package storage

import (
	"context"

	"gitlab.com/lumora/api/lead-insights-service/internal/model"
)

// LeadRepoAdapter adapts the PostgresRepo to the LeadRepo interface
type LeadRepoAdapter struct {
	postgres *PostgresRepo
}

// NewLeadRepoAdapter creates a new lead repository adapter
func NewLeadRepoAdapter(postgres *PostgresRepo) LeadRepo {
	return &LeadRepoAdapter{postgres: postgres}
}

// Save saves a lead
func (a *LeadRepoAdapter) Save(ctx context.Context, lead model.Lead) error {
	return a.postgres.Save(ctx, lead)
}

// Update updates a lead
func (a *LeadRepoAdapter) Update(ctx context.Context, lead model.Lead) error {
	return a.postgres.Update(ctx, lead)
}

// FindByID finds a lead by ID
func (a *LeadRepoAdapter) FindByID(ctx context.Context, id string) (*model.Lead, error) {
	return a.postgres.FindByID(ctx, id)
}

// FindAll lists every lead in the workspace
func (a *LeadRepoAdapter) FindAll(ctx context.Context) ([]model.Lead, error) {
	return a.postgres.FindAll(ctx)
}

// BulkUpsert performs a bulk upsert of leads
func (a *LeadRepoAdapter) BulkUpsert(ctx context.Context, leads []model.Lead) error {
	return a.postgres.BulkUpsert(ctx, leads)
}

// DeleteByIDs removes leads by ID
func (a *LeadRepoAdapter) DeleteByIDs(ctx context.Context, ids []string) error {
	return a.postgres.DeleteByIDs(ctx, ids)
}

// Close closes the repository
func (a *LeadRepoAdapter) Close(ctx context.Context) error {
	return a.postgres.Close(ctx)
}

// Ensure the adapter implements the interface
var _ LeadRepo = (*LeadRepoAdapter)(nil)
