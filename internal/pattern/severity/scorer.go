package severity

import "github.com/citypulse/citypulse-ai/internal/models"

// Package severity assigns a severity bucket and an affected-radius estimate
// to a detected incident cluster.
//
// Responsibilities:
//   - Score cluster severity from weighted contextual factors
//   - Estimate the affected radius in kilometres for a cluster
//   - Keep every categorical membership set (impact areas, density areas,
//     keyword lists, base radii) in an overridable configuration table
//   - Stay deterministic: same inputs, same bucket, every time
//
// Scoring model (weighted scorer):
//
//   1. Type criticality
//      - emergency / flooding → +3
//      - infrastructure       → +2
//      - everything else      → +1
//
//   2. Frequency intensity (thresholds depend on the criticality tier)
//      - emergency/flooding: count ≥ 4 → +3, ≥ 2 → +2, else +1
//      - other types:        count ≥ 6 → +3, ≥ 4 → +2, ≥ 2 → +1, else +0
//
//   3. Location impact: +1 when the location is a configured high-impact area
//
//   4. Description keywords (case-insensitive, first hit per record per list)
//      - high-severity words   → +2
//      - medium-severity words → +1
//      - keyword total capped at +3 across all records
//
//   Bucketing: total ≥ 8 → CRITICAL, ≥ 6 → HIGH, ≥ 4 → MEDIUM, else LOW.
//
// Radius model:
//   base radius by type, scaled by severity (CRITICAL ×1.5, HIGH ×1.3,
//   MEDIUM ×1.1), plus (count−1)×0.5 km, ×1.2 in high-density areas,
//   clamped to 15 km. The clamp is enforced on every path.
//
// A second, simpler threshold scorer backs the fallback cluster policy: it
// buckets on raw counts per criticality tier and grows the radius
// multiplicatively with count. Both satisfy the same Scorer interface.

// Scorer computes a severity bucket and affected radius for a cluster of
// same-type, same-location incident records.
type Scorer interface {
	// Score returns the severity bucket and the affected radius in km.
	// The radius is always within [0, MaxRadiusKm].
	Score(incidentType string, count int, location string, records []models.IncidentRecord) (models.Severity, float64)
}

// Config holds the categorical tables the scorers consult. Every set is
// overridable so deployments can tune membership without code changes.
type Config struct {
	// CriticalTypes score +3 on type criticality (matched lowercase).
	CriticalTypes []string
	// InfrastructureTypes score +2 on type criticality.
	InfrastructureTypes []string
	// HighImpactLocations add +1 to the severity total (matched verbatim).
	HighImpactLocations []string
	// HighDensityLocations multiply the radius by 1.2.
	HighDensityLocations []string
	// HighSeverityWords contribute +2 per record on first hit.
	HighSeverityWords []string
	// MediumSeverityWords contribute +1 per record on first hit.
	MediumSeverityWords []string
	// BaseRadiusKm maps lowercase incident type to its base radius.
	BaseRadiusKm map[string]float64
	// DefaultRadiusKm is used for types absent from BaseRadiusKm.
	DefaultRadiusKm float64
	// MaxRadiusKm caps every computed radius.
	MaxRadiusKm float64
}

// DefaultConfig returns the reference scoring tables.
func DefaultConfig() Config {
	return Config{
		CriticalTypes:        []string{"emergency", "flooding"},
		InfrastructureTypes:  []string{"infrastructure"},
		HighImpactLocations:  []string{"HSR Layout", "Whitefield", "Koramangala", "Indiranagar"},
		HighDensityLocations: []string{"HSR Layout", "Koramangala", "BTM Layout"},
		HighSeverityWords:    []string{"urgent", "critical", "severe", "major", "widespread", "complete"},
		MediumSeverityWords:  []string{"multiple", "ongoing", "affecting", "reported"},
		BaseRadiusKm: map[string]float64{
			"flooding":       6.0,
			"infrastructure": 4.0,
			"emergency":      8.0,
			"maintenance":    3.0,
		},
		DefaultRadiusKm: 4.0,
		MaxRadiusKm:     15.0,
	}
}
