package usecase

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"gitlab.com/lumora/api/lead-insights-service/internal/config"
	"gitlab.com/lumora/api/lead-insights-service/internal/ingestion"
	"gitlab.com/lumora/api/lead-insights-service/internal/ingestion/handler"
	"gitlab.com/lumora/api/lead-insights-service/internal/jetstream"
	"gitlab.com/lumora/api/lead-insights-service/internal/model"
	"gitlab.com/lumora/api/lead-insights-service/pkg/logger"
)

// Processor orchestrates lead event processing
type Processor struct {
	service       *LeadEventService
	jsClient      jetstream.ClientInterface
	leadsConsumer *ingestion.LeadEventsConsumer
	eventRouter   ingestion.RouterInterface
	leadHandler   handler.LeadHandlerInterface
}

// NewProcessor creates a new processor with all components wired up.
// Accepts the main config object to access NATS settings.
func NewProcessor(service *LeadEventService, jsClient jetstream.ClientInterface, cfg *config.Config, workspaceID string) *Processor {
	// Create the event router
	router := ingestion.NewRouter()

	// Create the handler (used by the router)
	leadHandler := handler.NewLeadHandler(service)

	// Append workspaceID to consumer names for uniqueness
	leadsCfg := cfg.NATS.Leads
	leadsCfg.Consumer = leadsCfg.Consumer + workspaceID
	leadsCfg.QueueGroup = leadsCfg.QueueGroup + workspaceID
	leadsConsumer := ingestion.NewLeadEventsConsumer(jsClient, router, leadsCfg, workspaceID)

	return &Processor{
		service:       service,
		jsClient:      jsClient,
		leadsConsumer: leadsConsumer,
		eventRouter:   router,
		leadHandler:   leadHandler,
	}
}

// GetRouter returns the processor's event router.
func (p *Processor) GetRouter() ingestion.RouterInterface {
	return p.eventRouter
}

// Setup registers handlers and sets up the stream and consumer
func (p *Processor) Setup() error {
	p.eventRouter.Register(model.V1LeadsUpsert, p.leadHandler.HandleEvent)
	p.eventRouter.Register(model.V1LeadsUpdate, p.leadHandler.HandleEvent)
	p.eventRouter.Register(model.V1LeadsImport, p.leadHandler.HandleEvent)

	// Default handler for unknown event types
	p.eventRouter.RegisterDefault(func(ctx context.Context, eventType model.EventType, metadata *model.MessageMetadata, rawEvent []byte) error {
		logger.FromContext(ctx).Warn("Unhandled event type",
			zap.String("type", string(eventType)),
			zap.String("version", eventType.GetVersion()),
			zap.String("base_type", string(eventType.GetBaseType())),
		)
		return nil
	})

	if err := p.leadsConsumer.Setup(); err != nil {
		return fmt.Errorf("failed to setup leads consumer: %w", err)
	}

	logger.Log.Info("Processor setup complete")
	return nil
}

// Start starts the leads consumer
func (p *Processor) Start() error {
	logger.Log.Info("Starting lead event processor...")

	defer func() {
		if r := recover(); r != nil {
			logger.Log.Error("[panic] Recovered from panic in processor",
				zap.Any("panic", r),
				zap.Stack("stack"),
			)
		}
	}()

	if err := p.leadsConsumer.Start(); err != nil {
		return fmt.Errorf("failed to start leads consumer: %w", err)
	}

	logger.Log.Info("Leads consumer started successfully")
	return nil
}

// Stop stops the leads consumer
func (p *Processor) Stop() {
	logger.Log.Info("Stopping lead event processor...")
	p.leadsConsumer.Stop()
	logger.Log.Info("Leads consumer stopped")
}
