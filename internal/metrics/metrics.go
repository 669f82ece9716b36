package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Pattern engine metrics for production monitoring
var (
	// Ingest metrics
	IncidentsRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "citypulse_ai_incidents_recorded_total",
			Help: "Total number of incidents appended to the history store",
		},
		[]string{"incident_type"},
	)

	// Cluster analysis metrics
	ClusterAnalyses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "citypulse_ai_cluster_analyses_total",
			Help: "Total number of cluster analyses run",
		},
		[]string{"policy", "outcome"}, // outcome: cluster/none
	)

	ClustersDetected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "citypulse_ai_clusters_detected_total",
			Help: "Total number of clusters detected",
		},
		[]string{"severity"},
	)

	// Anomaly analysis metrics
	AnomalyAnalyses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "citypulse_ai_anomaly_analyses_total",
			Help: "Total number of anomaly analyses run",
		},
		[]string{"outcome"}, // outcome: anomaly/normal/insufficient_data/error
	)

	AnomaliesDetected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "citypulse_ai_anomalies_detected_total",
			Help: "Total number of anomalies detected",
		},
		[]string{"anomaly_type", "severity"},
	)

	// Risk prediction metrics
	RiskPredictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "citypulse_ai_risk_predictions_total",
			Help: "Total number of risk predictions served",
		},
		[]string{"risk_level"},
	)

	RiskCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "citypulse_ai_risk_cache_hits_total",
			Help: "Total number of risk predictions served from cache",
		},
	)

	RiskCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "citypulse_ai_risk_cache_misses_total",
			Help: "Total number of risk predictions computed on cache miss",
		},
	)

	// Analysis latency
	AnalysisDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "citypulse_ai_analysis_duration_seconds",
			Help:    "Analysis duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8), // 100µs to ~1.6s
		},
		[]string{"analysis"}, // analysis: cluster/anomaly/risk
	)

	// Alert metrics
	AlertsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "citypulse_ai_alerts_published_total",
			Help: "Total number of alerts published to subscribers",
		},
		[]string{"kind"}, // kind: cluster/anomaly/risk
	)

	// History store metrics
	HistoryPrunedEntries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "citypulse_ai_history_pruned_entries_total",
			Help: "Total number of history entries removed by the retention sweep",
		},
	)

	// WebSocket metrics
	WebSocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "citypulse_ai_websocket_connections",
			Help: "Current number of active WebSocket connections",
		},
	)

	WebSocketMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "citypulse_ai_websocket_messages_total",
			Help: "Total number of WebSocket messages",
		},
		[]string{"direction"}, // direction: inbound/outbound
	)

	// Rate limit metrics
	RequestsThrottled = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "citypulse_ai_requests_throttled_total",
			Help: "Total number of ingest requests rejected by the rate limiter",
		},
	)
)
