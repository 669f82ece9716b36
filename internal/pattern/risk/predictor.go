package risk

import (
	"time"

	"github.com/citypulse/citypulse-ai/internal/models"
)

// Package risk predicts future-incident risk for a (location, incident type)
// pair from its historical timestamps.
//
// Responsibilities:
//   - Extract frequency, trend, location vulnerability, type criticality,
//     and seasonal factors from the timestamp history
//   - Combine the factors into a weighted composite score clamped to [0, 1]
//   - Map the score to a risk level with criticality-adaptive thresholds
//     (critical incident types escalate at lower scores)
//   - Predict a qualitative timeframe and name the contributing factors
//   - Recommend follow-up actions from the level, type, and location
//   - Degrade to UNKNOWN with zero confidence below three data points
//
// Factor weights: frequency 0.30, trend 0.25, location vulnerability 0.20,
// type criticality 0.15, seasonal 0.10. Categorical factors convert to
// numeric as high→0.8 / other→0.4 (location) and high→0.9 / other→0.5
// (criticality).
//
// The predictor is pure over (inputs, clock); the clock is injected so
// recent-window and seasonal behavior is testable.

// Predictor scores the future-incident risk for a location/type pair.
type Predictor interface {
	// Predict returns the risk verdict for the pair given its historical
	// incident timestamps. Order of timestamps is assumed ascending.
	Predict(location, incidentType string, timestamps []time.Time) models.RiskVerdict
}

// Config holds the categorical factor tables.
type Config struct {
	// MinHistory is the minimum timestamp count for a non-UNKNOWN verdict.
	MinHistory int
	// RecentWindow bounds the "recent events" lookback.
	RecentWindow time.Duration
	// HighRiskLocations / MediumRiskLocations grade location vulnerability
	// (matched verbatim).
	HighRiskLocations   []string
	MediumRiskLocations []string
	// HighCriticalityTypes / MediumCriticalityTypes grade the incident type
	// (matched lowercase).
	HighCriticalityTypes   []string
	MediumCriticalityTypes []string
	// MonsoonMonths and PreSummerMonths drive the seasonal factor for
	// water- and grid-related incident types respectively.
	MonsoonMonths   []time.Month
	PreSummerMonths []time.Month
}

// DefaultConfig returns the reference factor tables.
func DefaultConfig() Config {
	return Config{
		MinHistory:             3,
		RecentWindow:           7 * 24 * time.Hour,
		HighRiskLocations:      []string{"HSR Layout", "Electronic City", "Whitefield", "Outer Ring Road"},
		MediumRiskLocations:    []string{"Koramangala", "Indiranagar", "BTM Layout"},
		HighCriticalityTypes:   []string{"emergency", "flooding", "fire", "infrastructure"},
		MediumCriticalityTypes: []string{"maintenance", "traffic", "utilities"},
		MonsoonMonths:          []time.Month{time.June, time.July, time.August, time.September},
		PreSummerMonths:        []time.Month{time.March, time.April, time.May},
	}
}
