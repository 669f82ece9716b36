package anomaly

import (
	"errors"

	"github.com/citypulse/citypulse-ai/internal/models"
)

// Package anomaly checks a current reading against a historical window using
// z-score deviation with type- and location-adaptive thresholds.
//
// Responsibilities:
//   - Extract a single scalar from loosely-shaped samples using a fixed
//     key-priority order (value, count, level, index, then the first numeric
//     field by sorted key)
//   - Compute population mean/std over the historical window and the absolute
//     z-score of the current value
//   - Pick the detection threshold from the sample type and location
//   - Classify the anomaly shape (spike, drop, high/low deviation,
//     pattern break) and grade its severity
//   - Degrade to a non-anomalous low-confidence verdict when the history is
//     too short, rather than guessing
//
// Threshold model: event types with tight expected behavior get lower
// (more sensitive) thresholds, noisy types get higher ones, and readings from
// configured high-variance locations get a further +0.5. Unknown and untyped
// samples fall back to the most conservative tier.
//
// Confidence is min(0.95, z/3); an alert is recommended only when the verdict
// is anomalous AND confidence exceeds 0.7, so borderline detections surface
// in results without paging anyone.
//
// Edge cases carried by contract:
//   - fewer than three usable historical values → IsAnomaly=false,
//     Confidence=0, explanatory Reason
//   - zero historical variance → anomalous iff the current value differs
//     from the constant, with Confidence 1.0 and ZScore 0
//   - current sample with no numeric field → ErrNoNumericField
//   - historical samples with no numeric field are skipped silently

// ErrNoNumericField is returned when the current sample carries no field
// coercible to a number.
var ErrNoNumericField = errors.New("anomaly: sample has no numeric field")

// Detector evaluates a current sample against a historical window.
type Detector interface {
	// Detect returns the anomaly verdict for current given historical.
	// The only error condition is a current sample with no numeric field.
	Detect(current models.Sample, historical []models.Sample) (models.AnomalyVerdict, error)
}

// Config holds the adaptive-threshold tables.
type Config struct {
	// MinHistory is the minimum usable historical values required before a
	// statistical verdict is attempted.
	MinHistory int
	// TypeThresholds maps sample type to its z-score threshold.
	TypeThresholds map[string]float64
	// UnknownTypeThreshold applies to types absent from TypeThresholds,
	// untyped samples included.
	UnknownTypeThreshold float64
	// HighVarianceLocations add LocationPenalty to the threshold
	// (matched verbatim).
	HighVarianceLocations []string
	// LocationPenalty is the threshold increase for high-variance locations.
	LocationPenalty float64
}

// DefaultConfig returns the reference threshold tables.
func DefaultConfig() Config {
	return Config{
		MinHistory: 3,
		TypeThresholds: map[string]float64{
			"emergency":               1.5,
			"critical_infrastructure": 1.5,
			"environmental":           2.0,
			"traffic":                 2.0,
		},
		UnknownTypeThreshold:  2.5,
		HighVarianceLocations: []string{"Downtown", "Electronic City"},
		LocationPenalty:       0.5,
	}
}
