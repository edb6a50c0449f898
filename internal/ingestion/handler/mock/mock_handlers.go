package mock

import (
	"context"

	"github.com/stretchr/testify/mock"
	"gitlab.com/lumora/api/lead-insights-service/internal/model"
)

// MockLeadHandler is a mock for the LeadHandlerInterface
type MockLeadHandler struct {
	mock.Mock
}

// HandleEvent mocks the HandleEvent method
func (m *MockLeadHandler) HandleEvent(ctx context.Context, eventType model.EventType, metadata *model.MessageMetadata, rawEvent []byte) error {
	args := m.Called(ctx, eventType, metadata, rawEvent)
	return args.Error(0)
}
