package ingestion

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"gitlab.com/lumora/api/lead-insights-service/internal/apperrors"
	"gitlab.com/lumora/api/lead-insights-service/internal/config"
	"gitlab.com/lumora/api/lead-insights-service/internal/jetstream"
	"gitlab.com/lumora/api/lead-insights-service/internal/model"
	"gitlab.com/lumora/api/lead-insights-service/internal/observer"
	"gitlab.com/lumora/api/lead-insights-service/internal/workspace"
	"gitlab.com/lumora/api/lead-insights-service/pkg/logger"
	"gitlab.com/lumora/api/lead-insights-service/pkg/utils"
)

// AckNakAction represents the decision made after processing a message
type AckNakAction int

const (
	ActionAck      AckNakAction = iota // Message processed successfully, ACK it
	ActionNakDelay                     // Retryable error, NAK with calculated delay
	ActionTerm                         // Max retries reached or fatal error, terminate delivery
)

// baseConsumer holds shared components and logic for NATS consumers
type baseConsumer struct {
	client       jetstream.ClientInterface
	router       *Router
	workspaceID  string
	consumerType string
	ctx          context.Context
	cancel       context.CancelFunc
	maxDeliver   int
	nakBaseDelay time.Duration
	nakMaxDelay  time.Duration
}

// newBaseConsumer creates the shared part of a consumer
func newBaseConsumer(client jetstream.ClientInterface, router *Router, workspaceID, consumerType string, maxDeliver int, nakBaseDelay, nakMaxDelay time.Duration) *baseConsumer {
	ctx, cancel := context.WithCancel(context.Background())
	scopedLogger := logger.Log.With(zap.String("workspace_id", workspaceID))
	ctx = logger.WithLogger(ctx, scopedLogger)
	ctx = workspace.WithID(ctx, workspaceID)

	return &baseConsumer{
		client:       client,
		router:       router,
		workspaceID:  workspaceID,
		consumerType: consumerType,
		ctx:          ctx,
		cancel:       cancel,
		maxDeliver:   maxDeliver,
		nakBaseDelay: nakBaseDelay,
		nakMaxDelay:  nakMaxDelay,
	}
}

// modifySubjects derives the stream and consumer subject lists from the
// configured subject bases: the stream captures every workspace with a
// wildcard, the consumer filters on this workspace only.
func modifySubjects(subjects []string, workspaceID string) (streamSubjects, consumerSubjects []string) {
	for _, subject := range subjects {
		streamSubjects = append(streamSubjects, fmt.Sprintf("%s.*", subject))
		consumerSubjects = append(consumerSubjects, fmt.Sprintf("%s.%s", subject, workspaceID))
	}
	return streamSubjects, consumerSubjects
}

// determineAckNakAction decides the fate of a message based on processing
// result and metadata. It returns the action to take and the NAK delay if
// applicable.
func determineAckNakAction(
	processingErr error,
	metadata *nats.MsgMetadata,
	maxDeliver int,
	nakBaseDelay time.Duration,
	nakMaxDelay time.Duration,
) (action AckNakAction, delay time.Duration) {

	if processingErr == nil {
		return ActionAck, 0
	}

	isRetryable := apperrors.IsRetryable(processingErr)
	numDelivered := metadata.NumDelivered

	// Fatal errors and exhausted retries stop redelivery outright.
	if numDelivered >= uint64(maxDeliver) || !isRetryable {
		return ActionTerm, 0
	}

	// Retryable with attempts remaining: NAK with exponential delay.
	attempt := numDelivered
	delay = nakBaseDelay
	if attempt > 1 {
		delay = nakBaseDelay * (1 << (attempt - 1))
	}
	if delay > nakMaxDelay {
		delay = nakMaxDelay
	}
	return ActionNakDelay, delay
}

// handleMessage is the core message processing logic shared by consumer types
func (bc *baseConsumer) handleMessage(msg *nats.Msg) {
	startTime := utils.Now()

	defer func() {
		finalEventType, _ := model.MapToBaseEventType(msg.Subject)
		observer.ObserveEventProcessingDuration(string(finalEventType), bc.workspaceID, bc.consumerType, time.Since(startTime))

		if r := recover(); r != nil {
			logFromCtx := logger.FromContext(bc.ctx)
			logFromCtx.Error("[panic] Recovered from panic in message handler",
				zap.Any("panic", r),
				zap.String("subject", msg.Subject),
				zap.Duration("duration", time.Since(startTime)),
				zap.String("consumerType", bc.consumerType),
				zap.Stack("stack"),
			)
			observer.IncEventsFailed(string(finalEventType), bc.workspaceID, bc.consumerType)
			observer.IncEventProcessingAction(string(finalEventType), bc.workspaceID, bc.consumerType, "panic_nak", "panic")
			if nakErr := msg.Nak(); nakErr != nil {
				logFromCtx.Error("Failed to NAK message after panic", zap.Error(nakErr))
			}
		}
	}()

	msgCtx := bc.ctx
	logFromCtx := logger.FromContext(msgCtx)

	var msgID string
	if msg.Header != nil {
		msgID = msg.Header.Get("Nats-Msg-Id")
	}

	eventType, found := model.MapToBaseEventType(msg.Subject)
	if !found {
		logFromCtx.Warn("Unknown event type", zap.String("subject", msg.Subject))
		if nakErr := msg.Nak(); nakErr != nil {
			logFromCtx.Error("Failed to NAK message for unknown event type", zap.Error(nakErr))
		}
		observer.IncEventProcessingAction(string(eventType), bc.workspaceID, bc.consumerType, "nak_unknown_type", "unknown_event_type")
		return
	}

	metadata, err := msg.Metadata()
	if err != nil {
		logFromCtx.Error("Failed to read message metadata", zap.Error(err), zap.Duration("duration", time.Since(startTime)))
		if nakErr := msg.Nak(); nakErr != nil {
			logFromCtx.Error("Failed to NAK message", zap.Error(nakErr))
		}
		observer.IncEventProcessingAction(string(eventType), bc.workspaceID, bc.consumerType, "nak_metadata_error", "metadata")
		return
	}
	if msgID == "" {
		msgID = fmt.Sprintf("msg-%d", metadata.Sequence.Stream)
	}

	internalMetadata := &model.MessageMetadata{
		StreamSequence:   metadata.Sequence.Stream,
		ConsumerSequence: metadata.Sequence.Consumer,
		NumDelivered:     metadata.NumDelivered,
		NumPending:       metadata.NumPending,
		Timestamp:        metadata.Timestamp,
		Stream:           metadata.Stream,
		Consumer:         metadata.Consumer,
		MessageID:        msgID,
		MessageSubject:   msg.Subject,
		WorkspaceID:      bc.workspaceID,
	}

	observer.IncEventsReceived(string(eventType), bc.workspaceID, bc.consumerType)

	msgCtx = logger.WithLogger(msgCtx, logFromCtx.With(
		zap.String("nats_message_id", msgID),
		zap.Uint64("stream_sequence", internalMetadata.StreamSequence),
		zap.Uint64("consumer_sequence", internalMetadata.ConsumerSequence),
		zap.String("subject", msg.Subject),
		zap.String("stream", internalMetadata.Stream),
		zap.String("consumer", internalMetadata.Consumer),
		zap.String("consumerType", bc.consumerType),
	))

	routingStartTime := utils.Now()
	processingErr := bc.router.Route(msgCtx, internalMetadata, msg.Data)
	observer.ObserveEventRoutingDuration(string(eventType), bc.workspaceID, bc.consumerType, time.Since(routingStartTime))

	enhancedLog := logger.FromContext(msgCtx)

	action, nakDelay := determineAckNakAction(processingErr, metadata, bc.maxDeliver, bc.nakBaseDelay, bc.nakMaxDelay)

	errorType := "none"
	if processingErr != nil {
		errorType = observer.SanitizeErrorType(processingErr.Error())
	}

	switch action {
	case ActionAck:
		enhancedLog.Info("Successfully processed message", zap.Duration("duration", time.Since(startTime)))
		observer.IncEventsProcessed(string(eventType), bc.workspaceID, bc.consumerType)
		observer.IncEventProcessingAction(string(eventType), bc.workspaceID, bc.consumerType, "ack_success", errorType)
		if ackErr := msg.Ack(); ackErr != nil {
			enhancedLog.Error("Failed to ACK message after successful processing", zap.Error(ackErr))
		}

	case ActionNakDelay:
		enhancedLog.Info("NAKing message with delay for redelivery (retryable error)",
			zap.Error(processingErr),
			zap.Uint64("num_delivered", metadata.NumDelivered),
			zap.Int("max_deliver", bc.maxDeliver),
			zap.Duration("nak_delay", nakDelay),
			zap.Duration("duration", time.Since(startTime)),
		)
		observer.IncEventsFailed(string(eventType), bc.workspaceID, bc.consumerType)
		observer.IncEventProcessingAction(string(eventType), bc.workspaceID, bc.consumerType, "nak_retry", errorType)
		if nakErr := msg.NakWithDelay(nakDelay); nakErr != nil {
			enhancedLog.Error("Failed to NAK message with delay", zap.Error(nakErr))
		}

	case ActionTerm:
		isRetryable := apperrors.IsRetryable(processingErr)
		logReason := "max delivery attempts reached"
		if !isRetryable {
			logReason = "fatal error encountered"
		}
		enhancedLog.Warn(fmt.Sprintf("Terminating message delivery: %s", logReason),
			zap.Error(processingErr),
			zap.Uint64("num_delivered", metadata.NumDelivered),
			zap.Int("max_deliver", bc.maxDeliver),
			zap.Bool("is_retryable", isRetryable),
			zap.Duration("duration", time.Since(startTime)),
		)
		observer.IncEventsFailed(string(eventType), bc.workspaceID, bc.consumerType)
		observer.IncEventProcessingAction(string(eventType), bc.workspaceID, bc.consumerType, "term", errorType)
		if termErr := msg.Term(); termErr != nil {
			enhancedLog.Error("Failed to terminate message", zap.Error(termErr))
		}
	}
}

// LeadEventsConsumer handles the lead mutation event stream
type LeadEventsConsumer struct {
	base          *baseConsumer
	cfg           config.ConsumerNatsConfig
	sub           *nats.Subscription
	filterSubject string
}

// NewLeadEventsConsumer creates a consumer for the lead event stream
func NewLeadEventsConsumer(client jetstream.ClientInterface, router *Router, cfg config.ConsumerNatsConfig, workspaceID string) *LeadEventsConsumer {
	base := newBaseConsumer(client, router, workspaceID, "leads", cfg.MaxDeliver, cfg.NakBaseDelay, cfg.NakMaxDelay)
	return &LeadEventsConsumer{
		base: base,
		cfg:  cfg,
	}
}

// Setup configures the NATS stream and consumer for lead events
func (c *LeadEventsConsumer) Setup() error {
	log := logger.FromContext(c.base.ctx)
	log.Info("Setting up LeadEventsConsumer...", zap.String("stream", c.cfg.Stream), zap.String("consumer", c.cfg.Consumer))

	maxAgeRetention := time.Duration(c.cfg.MaxAge*24) * time.Hour
	streamSubjects, consumerSubjects := modifySubjects(c.cfg.SubjectList, c.base.workspaceID)

	streamCfg := &nats.StreamConfig{
		Name:      c.cfg.Stream,
		Subjects:  streamSubjects,
		Storage:   nats.FileStorage,
		Retention: nats.LimitsPolicy,
		MaxAge:    maxAgeRetention,
	}

	if err := c.base.client.SetupStream(c.base.ctx, streamCfg); err != nil {
		log.Error("Failed to setup lead events stream", zap.Error(err), zap.String("stream", c.cfg.Stream))
		return fmt.Errorf("failed to setup lead events stream '%s': %w", c.cfg.Stream, err)
	}

	consumerCfg := &nats.ConsumerConfig{
		Durable:        c.cfg.Consumer,
		DeliverGroup:   c.cfg.QueueGroup,
		FilterSubjects: consumerSubjects,
		AckPolicy:      nats.AckExplicitPolicy,
		DeliverSubject: nats.NewInbox(),
		MaxDeliver:     c.cfg.MaxDeliver,
		AckWait:        30 * time.Second,
		MaxAckPending:  1000,
		ReplayPolicy:   nats.ReplayInstantPolicy,
		DeliverPolicy:  nats.DeliverAllPolicy,
	}
	c.filterSubject = "v1.leads.>"

	if err := c.base.client.SetupConsumer(c.base.ctx, c.cfg.Stream, consumerCfg); err != nil {
		log.Error("Failed to setup lead events consumer", zap.Error(err), zap.String("stream", c.cfg.Stream), zap.String("consumer", c.cfg.Consumer))
		return fmt.Errorf("failed to setup lead events consumer '%s' for stream '%s': %w", c.cfg.Consumer, c.cfg.Stream, err)
	}

	log.Info("LeadEventsConsumer setup complete")
	return nil
}

// Start subscribes to the NATS stream
func (c *LeadEventsConsumer) Start() error {
	log := logger.FromContext(c.base.ctx)

	log.Info("Starting LeadEventsConsumer subscription...", zap.String("stream", c.cfg.Stream), zap.String("consumer", c.cfg.Consumer))

	sub, err := c.base.client.SubscribePush(c.filterSubject, c.cfg.Consumer, c.cfg.QueueGroup, c.cfg.Stream, c.base.handleMessage)
	if err != nil {
		log.Error("Failed to subscribe lead events consumer", zap.Error(err),
			zap.String("stream", c.cfg.Stream),
			zap.String("consumer", c.cfg.Consumer),
			zap.String("group", c.cfg.QueueGroup),
		)
		return fmt.Errorf("failed to subscribe lead events consumer '%s': %w", c.cfg.Consumer, err)
	}
	c.sub = sub
	log.Info("LeadEventsConsumer subscribed successfully")
	return nil
}

// Stop unsubscribes and cleans up resources
func (c *LeadEventsConsumer) Stop() {
	log := logger.FromContext(c.base.ctx)

	log.Info("Stopping LeadEventsConsumer...", zap.String("stream", c.cfg.Stream), zap.String("consumer", c.cfg.Consumer))
	if c.sub != nil {
		if err := c.sub.Drain(); err != nil {
			log.Error("Error draining lead events subscription", zap.Error(err))
		}
		log.Info("Lead events subscription drained")
	}
	if c.base.cancel != nil {
		c.base.cancel()
	}
	log.Info("LeadEventsConsumer stopped")
}
