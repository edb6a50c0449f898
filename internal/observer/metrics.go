package observer

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricsEnabled = true

	// Labels for standard event metrics
	eventProcessingLabels = []string{"event_type", "workspace_id", "consumer_type"}
	// Labels for tracking specific processing actions
	eventActionLabels = []string{"event_type", "workspace_id", "consumer_type", "action", "error_type"}

	EventsReceivedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lead_insights_service_events_received_total",
			Help: "Total number of events received from NATS, labeled by consumer type.",
		},
		eventProcessingLabels,
	)
	EventsProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lead_insights_service_events_processed_total",
			Help: "Total number of events successfully processed and acknowledged, labeled by consumer type.",
		},
		eventProcessingLabels,
	)
	EventsFailedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lead_insights_service_events_failed_total",
			Help: "Total number of events that failed processing (resulting in Nack or error), labeled by consumer type.",
		},
		eventProcessingLabels,
	)

	EventProcessingDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lead_insights_service_event_processing_duration_seconds",
			Help:    "Histogram of event processing durations.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~20s
		},
		eventProcessingLabels,
	)

	EventRoutingDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lead_insights_service_event_routing_duration_seconds",
			Help:    "Histogram of event routing specific durations (time spent in router.Route).",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		},
		eventProcessingLabels,
	)

	EventProcessingActionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lead_insights_service_event_processing_actions_total",
			Help: "Total count of specific actions taken after event processing, labeled by error type.",
		},
		eventActionLabels,
	)

	DatabaseOperationDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lead_insights_service_db_operation_duration_seconds",
			Help:    "Histogram of database operation durations.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~8s
		},
		[]string{"operation", "entity", "workspace_id", "status"},
	)
)

// Import and dedupe pipeline metrics
var (
	importRowsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lead_insights_service_import_rows_total",
			Help: "Total number of import rows reconciled, labeled by outcome.",
		},
		[]string{"workspace_id", "outcome"},
	)
	importBatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lead_insights_service_import_batches_total",
			Help: "Total number of import batches processed, labeled by status.",
		},
		[]string{"workspace_id", "status"},
	)
	dedupeMergesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lead_insights_service_dedupe_merges_total",
			Help: "Total number of surviving records that absorbed duplicates.",
		},
		[]string{"workspace_id"},
	)
	dedupeRemovalsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lead_insights_service_dedupe_removals_total",
			Help: "Total number of duplicate records folded away by the dedupe pass.",
		},
		[]string{"workspace_id"},
	)
	dedupeQueueLength = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "lead_insights_service_dedupe_queue_length",
		Help: "Current number of dedupe tasks waiting in the worker pool.",
	})
)

// InitMetrics toggles metric collection. Call during application startup;
// promauto has already registered the collectors by then.
func InitMetrics(enabled bool) {
	metricsEnabled = enabled
}

// IncEventsReceived increments the events received counter.
func IncEventsReceived(eventType, workspace, consumerType string) {
	if !metricsEnabled {
		return
	}
	EventsReceivedTotal.WithLabelValues(eventType, sanitizeWorkspace(workspace), consumerType).Inc()
}

// IncEventsProcessed increments the events processed counter.
func IncEventsProcessed(eventType, workspace, consumerType string) {
	if !metricsEnabled {
		return
	}
	EventsProcessedTotal.WithLabelValues(eventType, sanitizeWorkspace(workspace), consumerType).Inc()
}

// IncEventsFailed increments the events failed counter.
func IncEventsFailed(eventType, workspace, consumerType string) {
	if !metricsEnabled {
		return
	}
	EventsFailedTotal.WithLabelValues(eventType, sanitizeWorkspace(workspace), consumerType).Inc()
}

// ObserveEventProcessingDuration records the processing time for a specific event.
func ObserveEventProcessingDuration(eventType, workspace, consumerType string, duration time.Duration) {
	if !metricsEnabled {
		return
	}
	EventProcessingDurationSeconds.WithLabelValues(eventType, sanitizeWorkspace(workspace), consumerType).Observe(duration.Seconds())
}

// ObserveEventRoutingDuration records the routing time for a specific event.
func ObserveEventRoutingDuration(eventType, workspace, consumerType string, duration time.Duration) {
	if !metricsEnabled {
		return
	}
	EventRoutingDurationSeconds.WithLabelValues(eventType, sanitizeWorkspace(workspace), consumerType).Observe(duration.Seconds())
}

// ObserveDbOperationDuration records the duration for a database operation.
func ObserveDbOperationDuration(operation, entity, workspace string, duration time.Duration, err error) {
	if !metricsEnabled {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	DatabaseOperationDurationSeconds.WithLabelValues(operation, entity, sanitizeWorkspace(workspace), status).Observe(duration.Seconds())
}

// IncEventProcessingAction increments the counter for a specific processing outcome.
func IncEventProcessingAction(eventType, workspace, consumerType, action, errorType string) {
	if !metricsEnabled {
		return
	}
	EventProcessingActionsTotal.WithLabelValues(eventType, sanitizeWorkspace(workspace), consumerType, action, SanitizeErrorType(errorType)).Inc()
}

// IncImportRows adds reconciled row counts for one outcome category.
func IncImportRows(workspace, outcome string, n int) {
	if !metricsEnabled || n <= 0 {
		return
	}
	importRowsTotal.WithLabelValues(sanitizeWorkspace(workspace), outcome).Add(float64(n))
}

// IncImportBatch increments the import batch counter for a status.
func IncImportBatch(workspace, status string) {
	if !metricsEnabled {
		return
	}
	importBatchesTotal.WithLabelValues(sanitizeWorkspace(workspace), status).Inc()
}

// RecordDedupeOutcome records the merge and removal counts of one dedupe pass.
func RecordDedupeOutcome(workspace string, merges, removals int) {
	if !metricsEnabled {
		return
	}
	ws := sanitizeWorkspace(workspace)
	dedupeMergesTotal.WithLabelValues(ws).Add(float64(merges))
	dedupeRemovalsTotal.WithLabelValues(ws).Add(float64(removals))
}

// SetDedupeQueueLength updates the dedupe worker pool queue gauge.
func SetDedupeQueueLength(length int) {
	if !metricsEnabled {
		return
	}
	dedupeQueueLength.Set(float64(length))
}

// sanitizeWorkspace ensures the workspace label is valid or returns a default value.
func sanitizeWorkspace(workspace string) string {
	if workspace == "" {
		return "unknown"
	}
	return workspace
}

// SanitizeErrorType maps specific errors or provides a default category.
// Keep this simple to avoid high cardinality.
func SanitizeErrorType(errStr string) string {
	if errStr == "" || errStr == "none" {
		return "none"
	}

	switch {
	case strings.Contains(errStr, "database"), strings.Contains(errStr, "SQL"), strings.Contains(errStr, "duplicate key"), strings.Contains(errStr, "constraint"), strings.Contains(errStr, "connection"):
		return "database"
	case strings.Contains(errStr, "validation failed"), strings.Contains(errStr, "bad request"), strings.Contains(errStr, "invalid"), strings.Contains(errStr, "missing field"):
		return "validation"
	case strings.Contains(errStr, "not found"), strings.Contains(errStr, "no rows"):
		return "not_found"
	case strings.Contains(errStr, "nats"), strings.Contains(errStr, "jetstream"):
		return "nats"
	case strings.Contains(errStr, "timeout"), strings.Contains(errStr, "deadline exceeded"):
		return "timeout"
	case strings.Contains(errStr, "unmarshal"), strings.Contains(errStr, "json"):
		return "unmarshal"
	case strings.Contains(errStr, "panic"):
		return "panic"
	default:
		return "unknown"
	}
}
