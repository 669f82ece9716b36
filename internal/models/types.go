package models

import (
	"time"
)

// Package models holds the shared data shapes exchanged between the pattern
// engine, the history store, and the API layer. All result types here are
// derived values: they are recomputed per analysis call and never persisted
// by the engine itself.

// Severity is the ordinal severity classification used across cluster,
// anomaly, and risk results.
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// Rank returns the ordinal position of the severity (LOW=0 .. CRITICAL=3).
// Unknown values rank below LOW.
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 0
	case SeverityMedium:
		return 1
	case SeverityHigh:
		return 2
	case SeverityCritical:
		return 3
	}
	return -1
}

// Bump raises the severity by one level. HIGH and CRITICAL are unchanged.
func (s Severity) Bump() Severity {
	switch s {
	case SeverityLow:
		return SeverityMedium
	case SeverityMedium:
		return SeverityHigh
	}
	return s
}

// RiskLevel is the predicted likelihood/urgency classification for future
// incidents at a (location, incident type) pair.
type RiskLevel string

const (
	RiskUnknown  RiskLevel = "UNKNOWN"
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

// AnomalyType classifies the shape of a detected anomaly.
type AnomalyType string

const (
	AnomalySpike        AnomalyType = "spike"
	AnomalyDrop         AnomalyType = "drop"
	AnomalyHighDev      AnomalyType = "high_deviation"
	AnomalyLowDev       AnomalyType = "low_deviation"
	AnomalyPatternBreak AnomalyType = "pattern_break"
)

// IncidentRecord is a single raw incident report received from the upstream
// reporting collaborator. Immutable once ingested.
type IncidentRecord struct {
	ID           string    `json:"id"`
	IncidentType string    `json:"incident_type"`
	Location     string    `json:"location"`
	Description  string    `json:"description"`
	Timestamp    time.Time `json:"timestamp"`
}

// Sample is one observation from the environment/metrics collaborator.
// Fields is a loose bag of readings; the anomaly detector extracts a single
// scalar from it using a fixed key-priority order (value, count, level,
// index, then the first numeric field).
type Sample struct {
	Type     string         `json:"type,omitempty"`
	Location string         `json:"location,omitempty"`
	Fields   map[string]any `json:"fields"`
}

// EventCluster is a group of incident records sharing location and type
// whose count crossed a cluster policy threshold.
type EventCluster struct {
	EventType        string   `json:"event_type"`
	Location         string   `json:"location"`
	Count            int      `json:"count"`
	Severity         Severity `json:"severity"`
	TimeWindow       string   `json:"time_window"`
	AffectedRadiusKm float64  `json:"affected_radius_km"` // always in [0, 15]
}

// AnomalyVerdict is the outcome of a statistical anomaly check of a current
// reading against a historical window.
type AnomalyVerdict struct {
	IsAnomaly   bool        `json:"is_anomaly"`
	Confidence  float64     `json:"confidence"` // always in [0, 1]
	AnomalyType AnomalyType `json:"anomaly_type,omitempty"`
	Severity    Severity    `json:"severity,omitempty"`
	ZScore      float64     `json:"z_score"` // absolute deviation, ≥ 0
	ShouldAlert bool        `json:"should_alert"`
	Reason      string      `json:"reason,omitempty"`
}

// RiskVerdict is the outcome of a future-risk prediction for a
// (location, incident type) pair.
type RiskVerdict struct {
	RiskLevel           RiskLevel `json:"risk_level"`
	Confidence          float64   `json:"confidence"` // always in [0, 1]
	PredictedTimeframe  string    `json:"predicted_timeframe,omitempty"`
	RiskScore           float64   `json:"risk_score"` // always in [0, 1]
	ContributingFactors []string  `json:"contributing_factors,omitempty"`
	RecommendedActions  []string  `json:"recommended_actions,omitempty"`
	Reason              string    `json:"reason,omitempty"`
}

// AlertKind identifies which analysis produced an alert.
type AlertKind string

const (
	AlertCluster AlertKind = "cluster"
	AlertAnomaly AlertKind = "anomaly"
	AlertRisk    AlertKind = "risk"
)

// Alert is the envelope the engine publishes for alert-worthy outcomes.
// Consumers (the websocket hub, downstream notification composers) only ever
// read it; exactly one of Cluster/Anomaly/Risk is set depending on Kind.
type Alert struct {
	ID           string          `json:"id"`
	Kind         AlertKind       `json:"kind"`
	Location     string          `json:"location,omitempty"`
	IncidentType string          `json:"incident_type,omitempty"`
	Cluster      *EventCluster   `json:"cluster,omitempty"`
	Anomaly      *AnomalyVerdict `json:"anomaly,omitempty"`
	Risk         *RiskVerdict    `json:"risk,omitempty"`
	Timestamp    time.Time       `json:"timestamp"`
}
