package mock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"gitlab.com/lumora/api/lead-insights-service/internal/model"
)

// LeadRepoMock mocks the LeadRepo interface
type LeadRepoMock struct {
	mock.Mock
}

// Save mocks the Save method
func (m *LeadRepoMock) Save(ctx context.Context, lead model.Lead) error {
	args := m.Called(ctx, lead)
	return args.Error(0)
}

// Update mocks the Update method
func (m *LeadRepoMock) Update(ctx context.Context, lead model.Lead) error {
	args := m.Called(ctx, lead)
	return args.Error(0)
}

// FindByID mocks the FindByID method
func (m *LeadRepoMock) FindByID(ctx context.Context, id string) (*model.Lead, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Lead), args.Error(1)
}

// FindAll mocks the FindAll method
func (m *LeadRepoMock) FindAll(ctx context.Context) ([]model.Lead, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Lead), args.Error(1)
}

// BulkUpsert mocks the BulkUpsert method
func (m *LeadRepoMock) BulkUpsert(ctx context.Context, leads []model.Lead) error {
	args := m.Called(ctx, leads)
	return args.Error(0)
}

// DeleteByIDs mocks the DeleteByIDs method
func (m *LeadRepoMock) DeleteByIDs(ctx context.Context, ids []string) error {
	args := m.Called(ctx, ids)
	return args.Error(0)
}

// Close mocks the Close method
func (m *LeadRepoMock) Close(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
