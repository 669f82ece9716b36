package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/citypulse/citypulse-ai/internal/models"
)

// Logger defines the interface for audit logging
type Logger interface {
	// Log logs an audit event
	Log(ctx context.Context, event *Event) error

	// LogIncidentRecorded logs a history append
	LogIncidentRecorded(ctx context.Context, location, incidentType string) error

	// LogClusterDetected logs a detected incident cluster
	LogClusterDetected(ctx context.Context, alertID string, cluster *models.EventCluster) error

	// LogAnomalyAlert logs an alert-worthy anomaly verdict
	LogAnomalyAlert(ctx context.Context, alertID, location string, verdict models.AnomalyVerdict) error

	// LogRiskElevated logs a HIGH or CRITICAL risk prediction
	LogRiskElevated(ctx context.Context, alertID, location, incidentType string, verdict models.RiskVerdict) error

	// Sync flushes buffered log entries
	Sync() error

	// Close closes the audit logger
	Close() error
}

// Config represents audit logger configuration
type Config struct {
	// AuditLogPath is the path to the audit log file
	AuditLogPath string

	// AppLogPath is the path to the application log file
	AppLogPath string

	// MaxSize is the maximum size in megabytes before rotation
	MaxSize int

	// MaxBackups is the maximum number of old log files to retain
	MaxBackups int

	// MaxAge is the maximum number of days to retain old log files
	MaxAge int

	// Compress determines if rotated files should be compressed
	Compress bool

	// LogLevel is the minimum log level (debug, info, warn, error)
	LogLevel string
}

// DefaultConfig returns default audit logger configuration
func DefaultConfig() *Config {
	return &Config{
		AuditLogPath: "logs/audit.log",
		AppLogPath:   "logs/app.log",
		MaxSize:      100, // megabytes
		MaxBackups:   10,
		MaxAge:       30, // days
		Compress:     true,
		LogLevel:     "info",
	}
}

// auditLogger implements the Logger interface
type auditLogger struct {
	appLogger   *zap.Logger
	auditLogger *zap.Logger
	config      *Config
	mu          sync.Mutex
	buffer      []*Event
	flushTicker *time.Ticker
	stopCh      chan struct{}
}

// NewLogger creates a new audit logger
func NewLogger(config *Config) (Logger, error) {
	if config == nil {
		config = DefaultConfig()
	}

	level, err := zapcore.ParseLevel(config.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %s: %w", config.LogLevel, err)
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	appRotator := &lumberjack.Logger{
		Filename:   config.AppLogPath,
		MaxSize:    config.MaxSize,
		MaxBackups: config.MaxBackups,
		MaxAge:     config.MaxAge,
		Compress:   config.Compress,
	}

	appCore := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(appRotator),
		level,
	)

	appLogger := zap.New(appCore, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))

	// Audit log is append-only and always INFO level
	auditRotator := &lumberjack.Logger{
		Filename:   config.AuditLogPath,
		MaxSize:    config.MaxSize,
		MaxBackups: config.MaxBackups,
		MaxAge:     config.MaxAge,
		Compress:   config.Compress,
	}

	auditCore := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(auditRotator),
		zapcore.InfoLevel,
	)

	auditZapLogger := zap.New(auditCore)

	logger := &auditLogger{
		appLogger:   appLogger,
		auditLogger: auditZapLogger,
		config:      config,
		buffer:      make([]*Event, 0, 100),
		flushTicker: time.NewTicker(1 * time.Second),
		stopCh:      make(chan struct{}),
	}

	go logger.autoFlush()

	return logger, nil
}

// Log logs an audit event
func (l *auditLogger) Log(ctx context.Context, event *Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.buffer = append(l.buffer, event)

	if len(l.buffer) >= 100 {
		return l.flushLocked()
	}

	return nil
}

// flushLocked flushes the buffer (caller must hold lock)
func (l *auditLogger) flushLocked() error {
	if len(l.buffer) == 0 {
		return nil
	}

	for _, event := range l.buffer {
		eventJSON, err := json.Marshal(event)
		if err != nil {
			l.appLogger.Error("failed to marshal audit event",
				zap.Error(err),
				zap.String("event_type", string(event.EventType)),
			)
			continue
		}

		l.auditLogger.Info(string(eventJSON),
			zap.String("correlation_id", event.CorrelationID),
			zap.String("event_type", string(event.EventType)),
			zap.String("result", string(event.Result)),
		)
	}

	l.buffer = l.buffer[:0]

	return nil
}

// autoFlush periodically flushes the buffer
func (l *auditLogger) autoFlush() {
	for {
		select {
		case <-l.flushTicker.C:
			l.mu.Lock()
			_ = l.flushLocked()
			l.mu.Unlock()
		case <-l.stopCh:
			return
		}
	}
}

// LogIncidentRecorded logs a history append
func (l *auditLogger) LogIncidentRecorded(ctx context.Context, location, incidentType string) error {
	event := NewEvent(EventIncidentRecorded).
		WithIncident(location, incidentType).
		WithResult(ResultSuccess).
		WithDescription(fmt.Sprintf("Incident %s recorded for %s", incidentType, location))

	return l.Log(ctx, event)
}

// LogClusterDetected logs a detected incident cluster
func (l *auditLogger) LogClusterDetected(ctx context.Context, alertID string, cluster *models.EventCluster) error {
	event := NewEvent(EventClusterDetected).
		WithCorrelationID(alertID).
		WithIncident(cluster.Location, cluster.EventType).
		WithSeverity(string(cluster.Severity)).
		WithResult(ResultSuccess).
		WithMetadata("count", cluster.Count).
		WithMetadata("affected_radius_km", cluster.AffectedRadiusKm).
		WithDescription(fmt.Sprintf("Cluster of %d %s incidents detected in %s", cluster.Count, cluster.EventType, cluster.Location))

	return l.Log(ctx, event)
}

// LogAnomalyAlert logs an alert-worthy anomaly verdict
func (l *auditLogger) LogAnomalyAlert(ctx context.Context, alertID, location string, verdict models.AnomalyVerdict) error {
	event := NewEvent(EventAnomalyAlert).
		WithCorrelationID(alertID).
		WithIncident(location, "").
		WithSeverity(string(verdict.Severity)).
		WithResult(ResultSuccess).
		WithMetadata("anomaly_type", string(verdict.AnomalyType)).
		WithMetadata("z_score", verdict.ZScore).
		WithMetadata("confidence", verdict.Confidence).
		WithDescription(fmt.Sprintf("Anomaly (%s) detected with %.0f%% confidence", verdict.AnomalyType, verdict.Confidence*100))

	return l.Log(ctx, event)
}

// LogRiskElevated logs a HIGH or CRITICAL risk prediction
func (l *auditLogger) LogRiskElevated(ctx context.Context, alertID, location, incidentType string, verdict models.RiskVerdict) error {
	event := NewEvent(EventRiskElevated).
		WithCorrelationID(alertID).
		WithIncident(location, incidentType).
		WithSeverity(string(verdict.RiskLevel)).
		WithResult(ResultSuccess).
		WithMetadata("risk_score", verdict.RiskScore).
		WithMetadata("predicted_timeframe", verdict.PredictedTimeframe).
		WithDescription(fmt.Sprintf("Risk %s predicted for %s in %s", verdict.RiskLevel, incidentType, location))

	return l.Log(ctx, event)
}

// Sync flushes buffered log entries
func (l *auditLogger) Sync() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.flushLocked(); err != nil {
		return err
	}

	if err := l.auditLogger.Sync(); err != nil {
		return err
	}

	return l.appLogger.Sync()
}

// Close closes the audit logger
func (l *auditLogger) Close() error {
	close(l.stopCh)
	l.flushTicker.Stop()

	if err := l.Sync(); err != nil {
		return err
	}

	return nil
}
