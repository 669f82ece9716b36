package severity

import (
	"strings"

	"github.com/citypulse/citypulse-ai/internal/models"
)

// weightedScorer is the factor-scoring Scorer used by the criticality
// cluster policy.
type weightedScorer struct {
	cfg          Config
	criticalSet  map[string]bool
	infraSet     map[string]bool
	impactSet    map[string]bool
	densitySet   map[string]bool
	baseRadiusKm map[string]float64
}

// NewWeightedScorer creates the factor-scoring severity scorer.
func NewWeightedScorer(cfg Config) Scorer {
	return &weightedScorer{
		cfg:          cfg,
		criticalSet:  lowerSet(cfg.CriticalTypes),
		infraSet:     lowerSet(cfg.InfrastructureTypes),
		impactSet:    exactSet(cfg.HighImpactLocations),
		densitySet:   exactSet(cfg.HighDensityLocations),
		baseRadiusKm: cfg.BaseRadiusKm,
	}
}

// Score computes the weighted severity total and the scaled radius.
func (s *weightedScorer) Score(incidentType string, count int, location string, records []models.IncidentRecord) (models.Severity, float64) {
	t := strings.ToLower(incidentType)
	total := 0

	// Factor 1: type criticality
	switch {
	case s.criticalSet[t]:
		total += 3
	case s.infraSet[t]:
		total += 2
	default:
		total++
	}

	// Factor 2: frequency intensity, thresholds keyed to the criticality tier
	if s.criticalSet[t] {
		switch {
		case count >= 4:
			total += 3
		case count >= 2:
			total += 2
		default:
			total++
		}
	} else {
		switch {
		case count >= 6:
			total += 3
		case count >= 4:
			total += 2
		case count >= 2:
			total++
		}
	}

	// Factor 3: location impact
	if s.impactSet[location] {
		total++
	}

	// Factor 4: description keywords
	total += s.descriptionScore(records)

	sev := bucket(total)
	return sev, s.radius(t, count, location, sev)
}

// descriptionScore scans each record's description for severity keywords.
// A record contributes at most +2 from the high list and +1 from the medium
// list (first hit per list); the combined total is capped at 3.
func (s *weightedScorer) descriptionScore(records []models.IncidentRecord) int {
	score := 0
	for _, rec := range records {
		desc := strings.ToLower(rec.Description)
		for _, w := range s.cfg.HighSeverityWords {
			if strings.Contains(desc, w) {
				score += 2
				break
			}
		}
		for _, w := range s.cfg.MediumSeverityWords {
			if strings.Contains(desc, w) {
				score++
				break
			}
		}
	}
	if score > 3 {
		score = 3
	}
	return score
}

// radius computes base × severity factor + (count−1)×0.5, ×1.2 in dense
// areas, clamped to MaxRadiusKm.
func (s *weightedScorer) radius(lowerType string, count int, location string, sev models.Severity) float64 {
	r, ok := s.baseRadiusKm[lowerType]
	if !ok {
		r = s.cfg.DefaultRadiusKm
	}

	switch sev {
	case models.SeverityCritical:
		r *= 1.5
	case models.SeverityHigh:
		r *= 1.3
	case models.SeverityMedium:
		r *= 1.1
	}

	r += float64(count-1) * 0.5

	if s.densitySet[location] {
		r *= 1.2
	}

	return clampRadius(r, s.cfg.MaxRadiusKm)
}

// thresholdScorer is the simpler count-threshold Scorer used by the fallback
// cluster policy.
type thresholdScorer struct {
	cfg         Config
	criticalSet map[string]bool
	infraSet    map[string]bool
}

// NewThresholdScorer creates the count-threshold severity scorer.
func NewThresholdScorer(cfg Config) Scorer {
	infra := lowerSet(cfg.InfrastructureTypes)
	infra["maintenance"] = true
	return &thresholdScorer{
		cfg:         cfg,
		criticalSet: lowerSet(cfg.CriticalTypes),
		infraSet:    infra,
	}
}

// Score buckets on raw counts per tier and grows the radius with count.
func (s *thresholdScorer) Score(incidentType string, count int, location string, _ []models.IncidentRecord) (models.Severity, float64) {
	t := strings.ToLower(incidentType)

	sev := models.SeverityLow
	if s.criticalSet[t] {
		switch {
		case count >= 5:
			sev = models.SeverityCritical
		case count >= 3:
			sev = models.SeverityHigh
		}
	} else if s.infraSet[t] {
		switch {
		case count >= 8:
			sev = models.SeverityHigh
		case count >= 5:
			sev = models.SeverityMedium
		}
	}

	base := map[string]float64{
		"flooding":       5.0,
		"infrastructure": 3.0,
		"emergency":      7.0,
		"maintenance":    2.0,
	}
	r, ok := base[t]
	if !ok {
		r = 3.0
	}
	r *= 1 + float64(count)*0.2

	return sev, clampRadius(r, s.cfg.MaxRadiusKm)
}

// ─── Helpers ──────────────────────────────────────────────────────────────────

func bucket(total int) models.Severity {
	switch {
	case total >= 8:
		return models.SeverityCritical
	case total >= 6:
		return models.SeverityHigh
	case total >= 4:
		return models.SeverityMedium
	}
	return models.SeverityLow
}

func clampRadius(r, max float64) float64 {
	if r < 0 {
		return 0
	}
	if r > max {
		return max
	}
	return r
}

func lowerSet(items []string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, it := range items {
		m[strings.ToLower(it)] = true
	}
	return m
}

func exactSet(items []string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, it := range items {
		m[it] = true
	}
	return m
}
