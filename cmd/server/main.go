package main

// Package main is the entry point for the citypulse-ai server application.
//
// Responsibilities:
//   - Load and validate configuration from YAML and environment variables
//   - Open the incident history store (SQLite or in-memory)
//   - Wire the pattern engine: cluster detector per the configured policy,
//     anomaly detector, risk predictor, risk verdict cache, audit log
//   - Start the REST API server and the WebSocket alert stream
//   - Run the history retention sweep in the background
//   - Implement graceful shutdown with context cancellation
//
// Architecture Flow:
//   1. Incident reports → history store (per location/type timestamp log)
//   2. Analysis requests → pattern engine → cluster / anomaly / risk verdicts
//   3. Alert-worthy verdicts → audit log + WebSocket alert stream
//
// Graceful Shutdown:
//   - Stops accepting HTTP requests
//   - Disconnects alert subscribers
//   - Stops the retention sweep
//   - Finalizes audit logs and closes the history store

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/citypulse/citypulse-ai/internal/audit"
	"github.com/citypulse/citypulse-ai/internal/cache"
	"github.com/citypulse/citypulse-ai/internal/config"
	"github.com/citypulse/citypulse-ai/internal/history"
	"github.com/citypulse/citypulse-ai/internal/pattern"
	"github.com/citypulse/citypulse-ai/internal/pattern/anomaly"
	"github.com/citypulse/citypulse-ai/internal/pattern/cluster"
	"github.com/citypulse/citypulse-ai/internal/pattern/risk"
	"github.com/citypulse/citypulse-ai/internal/pattern/severity"
	"github.com/citypulse/citypulse-ai/internal/server"
)

func main() {
	configPath := os.Getenv("CITYPULSE_CONFIG")
	if configPath == "" {
		configPath = "/etc/citypulse/config.yaml"
	}

	ctx := context.Background()

	mgr, err := config.NewConfigManager(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create config manager: %v\n", err)
		os.Exit(1)
	}
	if err := mgr.Load(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if err := mgr.Validate(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}
	cfg := mgr.Get(ctx)

	logger, err := buildLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// History store
	var store history.Store
	switch cfg.History.Backend {
	case "memory":
		store = history.NewMemoryStore()
	default:
		store, err = history.NewSQLiteStore(cfg.History.SQLitePath)
		if err != nil {
			logger.Fatal("failed to open history store", zap.Error(err))
		}
	}
	defer store.Close()

	// Audit log
	var auditLog audit.Logger
	if cfg.Audit.Enabled {
		auditLog, err = audit.NewLogger(&audit.Config{
			AuditLogPath: cfg.Audit.Path,
			AppLogPath:   cfg.Audit.Path + ".app",
			MaxSize:      cfg.Audit.MaxSizeMB,
			MaxBackups:   cfg.Audit.MaxBackups,
			MaxAge:       cfg.Audit.MaxAgeDays,
			Compress:     true,
			LogLevel:     cfg.Logging.Level,
		})
		if err != nil {
			logger.Fatal("failed to create audit logger", zap.Error(err))
		}
		defer auditLog.Close()
	}

	// Cluster detector per the configured policy
	var detector cluster.Detector
	switch cfg.Pattern.ClusterPolicy {
	case "threshold":
		detector = cluster.NewThresholdDetector(severity.NewThresholdScorer(severity.DefaultConfig()))
	default:
		detector = cluster.NewCriticalityDetector(cluster.DefaultConfig(), severity.NewWeightedScorer(severity.DefaultConfig()))
	}

	// Risk verdict cache
	var verdictCache *cache.VerdictCache
	if cfg.Cache.EnableCaching {
		verdictCache = cache.New(time.Duration(cfg.Cache.TTLSeconds) * time.Second)
	}

	hub := server.NewAlertHub(cfg.Server.AllowedOrigins, logger)

	engine := pattern.NewEngine(pattern.Options{
		ClusterPolicy: cfg.Pattern.ClusterPolicy,
		Detector:      detector,
		Anomaly:       anomaly.NewDetector(anomaly.DefaultConfig()),
		Risk:          risk.NewPredictor(risk.DefaultConfig()),
		Store:         store,
		Cache:         verdictCache,
		Audit:         auditLog,
		Sink:          hub,
		Logger:        logger,
		Retention:     time.Duration(cfg.History.RetentionDays) * 24 * time.Hour,
	})

	// Retention sweep
	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go engine.RunRetentionLoop(sweepCtx, time.Duration(cfg.History.PruneIntervalMinutes)*time.Minute)

	// Config file watch. Most settings need a restart to take effect; changes
	// are surfaced in the log so operators see the drift.
	go func() {
		for updated := range mgr.Watch(sweepCtx) {
			logger.Info("configuration file changed",
				zap.String("cluster_policy", updated.Pattern.ClusterPolicy),
				zap.Int("retention_days", updated.History.RetentionDays))
		}
	}()

	srv, err := server.NewServer(cfg, engine, hub, logger)
	if err != nil {
		logger.Fatal("failed to create server", zap.Error(err))
	}

	if err := srv.Start(); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}

	// Wait for shutdown signal (Ctrl+C or SIGTERM)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	logger.Info("received shutdown signal")

	stopSweep()
	if err := srv.Stop(); err != nil {
		logger.Error("error stopping server", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("shutdown complete")
}

// buildLogger creates the process logger per the logging config.
func buildLogger(cfg *config.Config) (*zap.Logger, error) {
	var zc zap.Config
	if cfg.Logging.Format == "text" {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}

	level, err := zap.ParseAtomicLevel(cfg.Logging.Level)
	if err != nil {
		return nil, err
	}
	zc.Level = level

	return zc.Build()
}
