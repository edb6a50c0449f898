package ingestion

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap/zaptest"

	"gitlab.com/lumora/api/lead-insights-service/internal/model"
	"gitlab.com/lumora/api/lead-insights-service/internal/workspace"
	"gitlab.com/lumora/api/lead-insights-service/pkg/logger"
)

// MockHandler mocks an event handler target for router tests
type MockHandler struct {
	mock.Mock
}

func (m *MockHandler) Handle(ctx context.Context, eventType model.EventType, metadata *model.MessageMetadata, rawEvent []byte) error {
	args := m.Called(ctx, eventType, metadata, rawEvent)
	return args.Error(0)
}

func forwardTo(m *MockHandler) EventHandler {
	return func(ctx context.Context, eventType model.EventType, metadata *model.MessageMetadata, rawEvent []byte) error {
		return m.Handle(ctx, eventType, metadata, rawEvent)
	}
}

func TestRouter_Register(t *testing.T) {
	router := NewRouter()
	mockHandler := new(MockHandler)

	eventType := model.EventType("test.event")
	router.Register(eventType, forwardTo(mockHandler))

	assert.NotNil(t, router.handlers[eventType], "Handler should be registered")
}

func TestRouter_RegisterDefault(t *testing.T) {
	router := NewRouter()
	mockHandler := new(MockHandler)

	router.RegisterDefault(forwardTo(mockHandler))

	assert.NotNil(t, router.defaultHandler, "Default handler should be registered")
}

func TestRouter_Route_ExactMatch(t *testing.T) {
	router := NewRouter()
	mockHandler := new(MockHandler)

	eventType := model.V1LeadsUpsert
	router.Register(eventType, forwardTo(mockHandler))

	rawEvent := []byte(`{"id":"lead-1"}`)
	metadata := &model.MessageMetadata{
		MessageSubject: string(eventType),
		MessageID:      "msg-123",
		WorkspaceID:    "workspace-1",
	}

	mockHandler.On("Handle", mock.Anything, eventType, metadata, rawEvent).Return(nil)

	ctx := logger.WithLogger(context.Background(), zaptest.NewLogger(t))
	err := router.Route(ctx, metadata, rawEvent)

	assert.NoError(t, err)
	mockHandler.AssertExpectations(t)
}

func TestRouter_Route_WorkspaceSuffixedSubject(t *testing.T) {
	router := NewRouter()
	mockHandler := new(MockHandler)

	router.Register(model.V1LeadsUpdate, forwardTo(mockHandler))

	rawEvent := []byte(`{"id":"lead-1"}`)
	metadata := &model.MessageMetadata{
		MessageSubject: string(model.V1LeadsUpdate) + ".workspace-7",
		MessageID:      "msg-124",
		WorkspaceID:    "workspace-7",
	}

	// The subject carries the workspace suffix; the router strips it and
	// the handler sees the bare event type with the workspace on the ctx.
	mockHandler.On("Handle", mock.MatchedBy(func(ctx context.Context) bool {
		ws, err := workspace.FromContext(ctx)
		return err == nil && ws == "workspace-7"
	}), model.V1LeadsUpdate, metadata, rawEvent).Return(nil)

	ctx := logger.WithLogger(context.Background(), zaptest.NewLogger(t))
	err := router.Route(ctx, metadata, rawEvent)

	assert.NoError(t, err)
	mockHandler.AssertExpectations(t)
}

func TestRouter_Route_DefaultHandler(t *testing.T) {
	router := NewRouter()
	mockDefaultHandler := new(MockHandler)

	router.RegisterDefault(forwardTo(mockDefaultHandler))

	rawEvent := []byte(`{"key":"value"}`)
	metadata := &model.MessageMetadata{
		MessageSubject: "invalid.subject.format",
		MessageID:      "msg-456",
		WorkspaceID:    "workspace-2",
	}

	// Unmappable subjects reach the default handler with an empty type.
	mockDefaultHandler.On("Handle", mock.Anything, model.EventType(""), metadata, rawEvent).Return(nil)

	ctx := logger.WithLogger(context.Background(), zaptest.NewLogger(t))
	err := router.Route(ctx, metadata, rawEvent)

	assert.NoError(t, err)
	mockDefaultHandler.AssertExpectations(t)
}

func TestRouter_Route_NoHandler(t *testing.T) {
	router := NewRouter()

	metadata := &model.MessageMetadata{
		MessageSubject: "unhandled.subject",
		MessageID:      "msg-789",
	}

	ctx := logger.WithLogger(context.Background(), zaptest.NewLogger(t))
	err := router.Route(ctx, metadata, []byte(`{}`))

	// No handler and no default: the event is dropped, not errored.
	assert.NoError(t, err)
}

func TestRouter_Route_HandlerErrorPropagates(t *testing.T) {
	router := NewRouter()
	mockHandler := new(MockHandler)

	router.Register(model.V1LeadsImport, forwardTo(mockHandler))

	handlerErr := errors.New("processing failed")
	metadata := &model.MessageMetadata{
		MessageSubject: string(model.V1LeadsImport),
		MessageID:      "msg-999",
	}
	mockHandler.On("Handle", mock.Anything, model.V1LeadsImport, metadata, mock.Anything).Return(handlerErr)

	ctx := logger.WithLogger(context.Background(), zaptest.NewLogger(t))
	err := router.Route(ctx, metadata, []byte(`{}`))

	assert.ErrorIs(t, err, handlerErr)
	mockHandler.AssertExpectations(t)
}
