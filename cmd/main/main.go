package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"gitlab.com/lumora/api/lead-insights-service/internal/config"
	"gitlab.com/lumora/api/lead-insights-service/internal/healthcheck"
	"gitlab.com/lumora/api/lead-insights-service/internal/jetstream"
	"gitlab.com/lumora/api/lead-insights-service/internal/observer"
	"gitlab.com/lumora/api/lead-insights-service/internal/queryapi"
	"gitlab.com/lumora/api/lead-insights-service/internal/storage"
	"gitlab.com/lumora/api/lead-insights-service/internal/usecase"
	"gitlab.com/lumora/api/lead-insights-service/pkg/logger"
	"gitlab.com/lumora/api/lead-insights-service/pkg/utils"
)

func main() {
	// Set timezone to UTC
	time.Local = time.UTC

	// Load configuration
	cfg, err := config.LoadConfig("")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Initialize(cfg.LogLevel); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Initialize metrics conditionally
	metricsEnabled := cfg.Metrics.Enabled
	observer.InitMetrics(metricsEnabled)

	workspaceID := cfg.Workspace.ID
	if workspaceID == "" {
		workspaceID = cfg.Workspace.Default
	}
	if workspaceID == "" {
		logger.Log.Fatal("No workspace configured; set WORKSPACE_ID or workspace.default")
	}

	// Log startup information
	logger.Log.Info("Starting Lead Insights Service",
		zap.String("environment", cfg.Environment),
		zap.String("workspace_id", workspaceID),
		zap.String("nats_url", cfg.NATS.URL),
	)

	// Initialize repository
	postgresRepo, err := initPostgresRepo(cfg.Database.PostgresDSN, cfg.Database.PostgresAutoMigrate, workspaceID)
	if err != nil {
		logger.Log.Fatal("Failed to initialize Postgres repository", zap.Error(err))
	}

	// Initialize JetStream client
	jsClient, err := initJetStreamClient(cfg.NATS.URL)
	if err != nil {
		logger.Log.Fatal("Failed to initialize JetStream client", zap.Error(err))
	}

	// Create the repository adapter for the service
	leadRepo := storage.NewLeadRepoAdapter(postgresRepo)

	// Create dedupe worker pool
	dedupeWorker, err := usecase.NewDedupeWorker(
		cfg.WorkerPools.Dedupe,
		leadRepo,
		jsClient,
		cfg.NATS.SnapshotSubject,
		logger.Log, // Pass the base logger
	)
	if err != nil {
		logger.Log.Fatal("Failed to initialize dedupe worker pool", zap.Error(err))
	}

	// Create service, injecting the worker pool
	service := usecase.NewLeadEventService(leadRepo, jsClient, cfg.NATS.SnapshotSubject, dedupeWorker)

	// Create and set up processor
	processor := usecase.NewProcessor(service, jsClient, cfg, workspaceID)
	if err := processor.Setup(); err != nil {
		logger.Log.Fatal("Failed to set up processor", zap.Error(err))
	}

	// Create the read-side query API server
	queryServer := queryapi.NewServer(cfg.Server.QueryPort, leadRepo, service, workspaceID)

	// Create health check server
	healthServer := healthcheck.NewServer(strconv.Itoa(cfg.Server.Port), logger.Log)
	healthServer.RegisterReadinessCheck("database", postgresRepo.Ping)
	healthServer.RegisterReadinessCheck("nats", func(ctx context.Context) error {
		if conn := jsClient.NatsConn(); conn == nil || !conn.IsConnected() {
			return fmt.Errorf("nats connection is down")
		}
		return nil
	})

	// Register metrics handler if enabled BEFORE starting the server
	if metricsEnabled {
		healthServer.RegisterMetricsHandler(promhttp.Handler())
		logger.Log.Info("Metrics endpoint enabled", zap.String("path", "/metrics"), zap.Int("port", cfg.Server.Port))
	} else {
		logger.Log.Info("Metrics endpoint disabled for environment", zap.String("environment", cfg.Environment))
	}

	// Start health check server (which now might include /metrics)
	healthServer.Start()

	logger.Log.Info("Health check endpoints available",
		zap.String("health", fmt.Sprintf("http://localhost:%d/health", cfg.Server.Port)),
		zap.String("readiness", fmt.Sprintf("http://localhost:%d/ready", cfg.Server.Port)),
	)

	// Start processor
	if err := processor.Start(); err != nil {
		logger.Log.Fatal("Failed to start processor", zap.Error(err))
	}

	// Start query API server in a separate goroutine
	sigChan := make(chan os.Signal, 1)
	go func() {
		if err := queryServer.Start(); err != nil {
			logger.Log.Error("Query API server failed, initiating shutdown...", zap.Error(err))
			select {
			case sigChan <- syscall.SIGTERM:
			default:
				logger.Log.Warn("Could not send SIGTERM to signal channel immediately")
			}
		}
	}()

	// Wait for termination signal
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	logger.Log.Info("Received termination signal", zap.String("signal", sig.String()))

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	logger.Log.Info("Starting graceful shutdown", zap.Duration("timeout", 30*time.Second))

	// Use WaitGroup to track shutdown of all components
	var wg sync.WaitGroup

	numComponents := 5
	wg.Add(numComponents)

	// Shutdown processor (JetStream consumer)
	utils.SafeGo(func() {
		defer wg.Done()
		logger.Log.Info("[shutdown] Stopping event processor")
		start := time.Now()
		processor.Stop()
		logger.Log.Info("[shutdown] Event processor stopped",
			zap.Duration("duration", time.Since(start)))
	}, func(r interface{}, stack []byte) {
		logger.Log.Error("[shutdown] Panic while stopping event processor",
			zap.Any("panic", r),
			zap.ByteString("stack", stack),
		)
		wg.Done() // Ensure WaitGroup is decremented even in case of panic
	})

	// Shutdown dedupe worker pool
	utils.SafeGo(func() {
		defer wg.Done()
		logger.Log.Info("[shutdown] Stopping dedupe worker pool")
		start := time.Now()
		dedupeWorker.Stop()
		logger.Log.Info("[shutdown] Dedupe worker pool stopped",
			zap.Duration("duration", time.Since(start)))
	}, func(r interface{}, stack []byte) {
		logger.Log.Error("[shutdown] Panic while stopping dedupe worker pool",
			zap.Any("panic", r),
			zap.ByteString("stack", stack),
		)
		wg.Done()
	})

	// Shutdown query API server
	utils.SafeGo(func() {
		defer wg.Done()
		logger.Log.Info("[shutdown] Stopping query API server")
		start := time.Now()
		if err := queryServer.Stop(shutdownCtx); err != nil {
			logger.Log.Error("[shutdown] Error stopping query API server", zap.Error(err))
		} else {
			logger.Log.Info("[shutdown] Query API server stopped",
				zap.Duration("duration", time.Since(start)))
		}
	}, func(r interface{}, stack []byte) {
		logger.Log.Error("[shutdown] Panic while stopping query API server",
			zap.Any("panic", r),
			zap.ByteString("stack", stack),
		)
		wg.Done()
	})

	// Shutdown health check server (includes metrics if enabled)
	utils.SafeGo(func() {
		defer wg.Done()
		logger.Log.Info("[shutdown] Stopping health check server")
		start := time.Now()
		if err := healthServer.Stop(shutdownCtx); err != nil {
			logger.Log.Error("[shutdown] Error stopping health check server", zap.Error(err))
		} else {
			logger.Log.Info("[shutdown] Health check server stopped",
				zap.Duration("duration", time.Since(start)))
		}
	}, func(r interface{}, stack []byte) {
		logger.Log.Error("[shutdown] Panic while stopping health check server",
			zap.Any("panic", r),
			zap.ByteString("stack", stack),
		)
		wg.Done() // Ensure WaitGroup is decremented even in case of panic
	})

	// Close database and NATS connections
	utils.SafeGo(func() {
		defer wg.Done()

		logger.Log.Info("[shutdown] Closing PostgreSQL connection")
		pgStart := time.Now()
		if err := postgresRepo.Close(shutdownCtx); err != nil {
			logger.Log.Error("[shutdown] Failed to close PostgreSQL connection", zap.Error(err))
		} else {
			logger.Log.Info("[shutdown] PostgreSQL connection closed",
				zap.Duration("duration", time.Since(pgStart)))
		}

		logger.Log.Info("[shutdown] Closing JetStream connection")
		jsStart := time.Now()
		jsClient.Close()
		logger.Log.Info("[shutdown] JetStream connection closed",
			zap.Duration("duration", time.Since(jsStart)))
	}, func(r interface{}, stack []byte) {
		logger.Log.Error("[shutdown] Panic while closing connections",
			zap.Any("panic", r),
			zap.ByteString("stack", stack),
		)
		wg.Done() // Ensure WaitGroup is decremented even in case of panic
	})

	// Wait with a timeout for all components to shut down
	waitCh := make(chan struct{})
	go func() {
		wg.Wait()
		close(waitCh)
	}()

	select {
	case <-waitCh:
		logger.Log.Info("[shutdown] All components stopped gracefully")
	case <-shutdownCtx.Done():
		logger.Log.Warn("[shutdown] Graceful shutdown timed out, forcing exit")
	}

	logger.Log.Info("Lead Insights Service shutdown complete")
}

// Initialize PostgreSQL repository
func initPostgresRepo(dsn string, autoMigrate bool, workspaceID string) (*storage.PostgresRepo, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is required")
	}

	repo, err := storage.NewPostgresRepo(dsn, autoMigrate, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize postgres repository: %w", err)
	}

	logger.Log.Info("Initialized PostgreSQL repository")
	return repo, nil
}

// initJetStreamClient initializes the JetStream client
func initJetStreamClient(url string) (*jetstream.Client, error) {
	client, err := jetstream.NewClient(url)
	if err != nil {
		return nil, fmt.Errorf("failed to create JetStream client: %w", err)
	}
	// Stream and consumer setup is handled within the processor Setup method
	return client, nil
}
