package cluster

import "github.com/citypulse/citypulse-ai/internal/models"

// Package cluster groups incident records by location and type and decides
// whether a concerning cluster exists.
//
// Responsibilities:
//   - Group a pre-filtered batch of incident records by (location, type)
//   - Apply a cluster policy to each group and surface the first match
//   - Delegate severity and radius estimation to a severity.Scorer
//   - Stay pure: no retained state, identical output for identical input
//
// Policies:
//
//   1. Criticality policy (the primary heuristic)
//      - HIGH-criticality types (emergency, flooding, fire, gas leak):
//        cluster at count ≥ 2
//      - MEDIUM-criticality types (infrastructure, power outage, water
//        outage): cluster at count ≥ 3, but only in configured
//        high-vulnerability locations
//      - everything else: cluster at count ≥ 4
//
//   2. Threshold policy (the plain fallback)
//      - cluster at count ≥ 3 for any (location, type) pair
//
// Both policies satisfy the same Detector interface so a host can swap in a
// richer implementation (for example one backed by an external reasoning
// service) without touching callers.
//
// Grouping preserves input order: locations in first-seen order, types within
// a location in first-seen order. Ties between qualifying groups are
// therefore broken by data order, and only the first qualifying group is
// returned; the policy never surfaces more than one cluster per call.
//
// The caller is responsible for pre-filtering records to the analysis
// window; the window length is carried through only as a label on the
// result.

// Detector decides whether a batch of incident records contains a
// concerning cluster.
type Detector interface {
	// Detect returns the first qualifying cluster, or nil when no
	// (location, type) group crosses the policy threshold. An empty input
	// yields nil, not an error.
	Detect(records []models.IncidentRecord, windowMinutes int) *models.EventCluster
}

// Config holds the criticality-policy membership tables.
type Config struct {
	// HighCriticalityTypes cluster at count ≥ 2 (matched lowercase).
	HighCriticalityTypes []string
	// MediumCriticalityTypes cluster at count ≥ 3 in vulnerable locations.
	MediumCriticalityTypes []string
	// HighVulnerabilityLocations gate the medium-criticality rule
	// (matched verbatim).
	HighVulnerabilityLocations []string
}

// DefaultConfig returns the reference criticality tables.
func DefaultConfig() Config {
	return Config{
		HighCriticalityTypes:       []string{"emergency", "flooding", "fire", "gas leak"},
		MediumCriticalityTypes:     []string{"infrastructure", "power outage", "water outage"},
		HighVulnerabilityLocations: []string{"HSR Layout", "Whitefield", "Electronic City", "Marathahalli"},
	}
}
