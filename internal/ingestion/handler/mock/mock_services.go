package mock

import (
	"context"

	"github.com/stretchr/testify/mock"
	"gitlab.com/lumora/api/lead-insights-service/internal/model"
)

// MockLeadService is a mock for the LeadService interface
type MockLeadService struct {
	mock.Mock
}

// UpsertLead mocks the UpsertLead method
func (m *MockLeadService) UpsertLead(ctx context.Context, payload model.UpsertLeadPayload, metadata *model.LastMetadata) error {
	args := m.Called(ctx, payload, metadata)
	return args.Error(0)
}

// UpdateLead mocks the UpdateLead method
func (m *MockLeadService) UpdateLead(ctx context.Context, payload model.UpdateLeadPayload, metadata *model.LastMetadata) error {
	args := m.Called(ctx, payload, metadata)
	return args.Error(0)
}

// RunImport mocks the RunImport method
func (m *MockLeadService) RunImport(ctx context.Context, payload model.ImportLeadsPayload, metadata *model.LastMetadata) (*model.ImportSummary, error) {
	args := m.Called(ctx, payload, metadata)
	summary, _ := args.Get(0).(*model.ImportSummary)
	return summary, args.Error(1)
}
