package pattern

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/citypulse/citypulse-ai/internal/audit"
	"github.com/citypulse/citypulse-ai/internal/cache"
	"github.com/citypulse/citypulse-ai/internal/history"
	"github.com/citypulse/citypulse-ai/internal/metrics"
	"github.com/citypulse/citypulse-ai/internal/models"
	"github.com/citypulse/citypulse-ai/internal/pattern/anomaly"
	"github.com/citypulse/citypulse-ai/internal/pattern/cluster"
	"github.com/citypulse/citypulse-ai/internal/pattern/risk"
)

// Package pattern hosts the analysis engine that fronts the cluster,
// anomaly, and risk components.
//
// Responsibilities:
//   - Delegate each analysis call to its configured component
//   - Append incident timestamps to the history store and feed them to the
//     risk predictor
//   - Serve risk verdicts from the TTL cache and invalidate pairs on ingest
//   - Publish alerts for alert-worthy outcomes (cluster found, anomaly with
//     should_alert, HIGH or CRITICAL risk)
//   - Record audit events and prometheus metrics per call
//   - Run the periodic history retention sweep
//
// The engine is the only writer to the history store; analysis calls
// themselves stay pure over their inputs.

// AlertSink receives alerts the engine publishes. The websocket hub is the
// production sink; tests use a channel-backed fake.
type AlertSink interface {
	Publish(alert models.Alert)
}

// Options wires the engine's collaborators.
type Options struct {
	ClusterPolicy string // "criticality" | "threshold", label only
	Detector      cluster.Detector
	Anomaly       anomaly.Detector
	Risk          risk.Predictor
	Store         history.Store
	Cache         *cache.VerdictCache
	Audit         audit.Logger
	Sink          AlertSink
	Logger        *zap.Logger
	Retention     time.Duration
}

// Engine fronts the analysis components.
type Engine struct {
	policy    string
	detector  cluster.Detector
	anomaly   anomaly.Detector
	risk      risk.Predictor
	store     history.Store
	cache     *cache.VerdictCache
	audit     audit.Logger
	sink      AlertSink
	log       *zap.Logger
	retention time.Duration
	now       func() time.Time
}

// NewEngine creates an engine from wired collaborators.
func NewEngine(opts Options) *Engine {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		policy:    opts.ClusterPolicy,
		detector:  opts.Detector,
		anomaly:   opts.Anomaly,
		risk:      opts.Risk,
		store:     opts.Store,
		cache:     opts.Cache,
		audit:     opts.Audit,
		sink:      opts.Sink,
		log:       log,
		retention: opts.Retention,
		now:       time.Now,
	}
}

// AnalyzeIncidents runs cluster detection over the batch. A nil cluster with
// a nil error means no group crossed the policy threshold.
func (e *Engine) AnalyzeIncidents(ctx context.Context, records []models.IncidentRecord, windowMinutes int) (*models.EventCluster, error) {
	start := e.now()
	found := e.detector.Detect(records, windowMinutes)
	metrics.AnalysisDuration.WithLabelValues("cluster").Observe(e.now().Sub(start).Seconds())

	if found == nil {
		metrics.ClusterAnalyses.WithLabelValues(e.policy, "none").Inc()
		return nil, nil
	}

	metrics.ClusterAnalyses.WithLabelValues(e.policy, "cluster").Inc()
	metrics.ClustersDetected.WithLabelValues(string(found.Severity)).Inc()

	alertID := uuid.NewString()
	if e.audit != nil {
		if err := e.audit.LogClusterDetected(ctx, alertID, found); err != nil {
			e.log.Warn("audit write failed", zap.Error(err))
		}
	}
	e.publish(models.Alert{
		ID:           alertID,
		Kind:         models.AlertCluster,
		Location:     found.Location,
		IncidentType: found.EventType,
		Cluster:      found,
		Timestamp:    e.now(),
	})

	e.log.Info("cluster detected",
		zap.String("location", found.Location),
		zap.String("event_type", found.EventType),
		zap.Int("count", found.Count),
		zap.String("severity", string(found.Severity)))
	return found, nil
}

// DetectAnomaly checks the current sample against the historical window.
func (e *Engine) DetectAnomaly(ctx context.Context, current models.Sample, historical []models.Sample) (models.AnomalyVerdict, error) {
	start := e.now()
	verdict, err := e.anomaly.Detect(current, historical)
	metrics.AnalysisDuration.WithLabelValues("anomaly").Observe(e.now().Sub(start).Seconds())

	if err != nil {
		metrics.AnomalyAnalyses.WithLabelValues("error").Inc()
		return models.AnomalyVerdict{}, fmt.Errorf("detect anomaly: %w", err)
	}

	switch {
	case verdict.IsAnomaly:
		metrics.AnomalyAnalyses.WithLabelValues("anomaly").Inc()
		metrics.AnomaliesDetected.WithLabelValues(string(verdict.AnomalyType), string(verdict.Severity)).Inc()
	case strings.HasPrefix(verdict.Reason, "insufficient"):
		metrics.AnomalyAnalyses.WithLabelValues("insufficient_data").Inc()
	default:
		metrics.AnomalyAnalyses.WithLabelValues("normal").Inc()
	}

	if verdict.ShouldAlert {
		alertID := uuid.NewString()
		if e.audit != nil {
			if err := e.audit.LogAnomalyAlert(ctx, alertID, current.Location, verdict); err != nil {
				e.log.Warn("audit write failed", zap.Error(err))
			}
		}
		v := verdict
		e.publish(models.Alert{
			ID:           alertID,
			Kind:         models.AlertAnomaly,
			Location:     current.Location,
			IncidentType: current.Type,
			Anomaly:      &v,
			Timestamp:    e.now(),
		})
	}

	return verdict, nil
}

// PredictRisk scores the future-incident risk for the pair, serving a cached
// verdict when one is fresh.
func (e *Engine) PredictRisk(ctx context.Context, location, incidentType string) (models.RiskVerdict, error) {
	if e.cache != nil {
		if v, ok := e.cache.Get(location, incidentType); ok {
			metrics.RiskCacheHits.Inc()
			return v, nil
		}
		metrics.RiskCacheMisses.Inc()
	}

	timestamps, err := e.store.Timestamps(ctx, location, incidentType)
	if err != nil {
		return models.RiskVerdict{}, fmt.Errorf("load history for %s/%s: %w", location, incidentType, err)
	}

	start := e.now()
	verdict := e.risk.Predict(location, incidentType, timestamps)
	metrics.AnalysisDuration.WithLabelValues("risk").Observe(e.now().Sub(start).Seconds())
	metrics.RiskPredictions.WithLabelValues(string(verdict.RiskLevel)).Inc()

	if e.cache != nil {
		e.cache.Set(location, incidentType, verdict)
	}

	if verdict.RiskLevel == models.RiskHigh || verdict.RiskLevel == models.RiskCritical {
		alertID := uuid.NewString()
		if e.audit != nil {
			if err := e.audit.LogRiskElevated(ctx, alertID, location, incidentType, verdict); err != nil {
				e.log.Warn("audit write failed", zap.Error(err))
			}
		}
		v := verdict
		e.publish(models.Alert{
			ID:           alertID,
			Kind:         models.AlertRisk,
			Location:     location,
			IncidentType: incidentType,
			Risk:         &v,
			Timestamp:    e.now(),
		})
	}

	return verdict, nil
}

// RecordIncident appends the incident to the history store and invalidates
// the pair's cached risk verdict.
func (e *Engine) RecordIncident(ctx context.Context, location, incidentType string, ts time.Time) error {
	if err := e.store.RecordIncident(ctx, location, incidentType, ts); err != nil {
		return fmt.Errorf("record incident for %s/%s: %w", location, incidentType, err)
	}

	if e.cache != nil {
		e.cache.Invalidate(location, incidentType)
	}
	metrics.IncidentsRecorded.WithLabelValues(incidentType).Inc()

	if e.audit != nil {
		if err := e.audit.LogIncidentRecorded(ctx, location, incidentType); err != nil {
			e.log.Warn("audit write failed", zap.Error(err))
		}
	}
	return nil
}

// PruneHistory removes history entries older than the retention window.
func (e *Engine) PruneHistory(ctx context.Context) (int64, error) {
	if e.retention <= 0 {
		return 0, nil
	}

	removed, err := e.store.Prune(ctx, e.now().Add(-e.retention))
	if err != nil {
		return 0, fmt.Errorf("prune history: %w", err)
	}
	if removed > 0 {
		metrics.HistoryPrunedEntries.Add(float64(removed))
		e.log.Info("history pruned", zap.Int64("removed", removed))
	}
	return removed, nil
}

// RunRetentionLoop sweeps the history store and the verdict cache at the
// given interval until the context is cancelled. Intended to run in its own
// goroutine.
func (e *Engine) RunRetentionLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := e.PruneHistory(ctx); err != nil {
				e.log.Error("retention sweep failed", zap.Error(err))
			}
			if e.cache != nil {
				e.cache.Purge()
			}
		}
	}
}

func (e *Engine) publish(alert models.Alert) {
	if e.sink == nil {
		return
	}
	e.sink.Publish(alert)
	metrics.AlertsPublished.WithLabelValues(string(alert.Kind)).Inc()
}
