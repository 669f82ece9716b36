package severity

import (
	"fmt"
	"math"
	"testing"

	"github.com/citypulse/citypulse-ai/internal/models"
)

func records(n int, desc string) []models.IncidentRecord {
	out := make([]models.IncidentRecord, n)
	for i := range out {
		out[i] = models.IncidentRecord{
			ID:          fmt.Sprintf("r-%d", i),
			Description: desc,
		}
	}
	return out
}

func TestWeightedScorer_FloodingPair(t *testing.T) {
	s := NewWeightedScorer(DefaultConfig())

	// flooding +3, count 2 in the critical tier +2, HSR Layout +1, no keywords
	sev, radius := s.Score("Flooding", 2, "HSR Layout", records(2, "water level rising"))

	if sev != models.SeverityHigh {
		t.Errorf("Expected HIGH severity, got %s", sev)
	}

	// base 6 × 1.3 + 0.5, ×1.2 for HSR Layout density
	want := (6.0*1.3 + 0.5) * 1.2
	if math.Abs(radius-want) > 1e-9 {
		t.Errorf("Expected radius %.2f, got %.2f", want, radius)
	}
}

func TestWeightedScorer_CriticalWithKeywords(t *testing.T) {
	s := NewWeightedScorer(DefaultConfig())

	// flooding +3, count 3 → +2, Koramangala +1, "urgent" ×3 records capped at +3
	sev, radius := s.Score("flooding", 3, "Koramangala", records(3, "urgent: severe waterlogging"))

	if sev != models.SeverityCritical {
		t.Errorf("Expected CRITICAL severity, got %s", sev)
	}

	// base 6 × 1.5 + 2×0.5 = 10, ×1.2 density = 12
	if math.Abs(radius-12.0) > 1e-9 {
		t.Errorf("Expected radius 12.0, got %.2f", radius)
	}
}

func TestWeightedScorer_KeywordCap(t *testing.T) {
	s := NewWeightedScorer(DefaultConfig())

	// maintenance +1, count 1 → +0, plain location +0, keywords capped at +3 ⇒ 4
	sev, _ := s.Score("maintenance", 1, "Central Park",
		records(5, "urgent critical severe major work ongoing affecting roads"))

	if sev != models.SeverityMedium {
		t.Errorf("Expected MEDIUM severity from capped keywords, got %s", sev)
	}
}

func TestWeightedScorer_CountMonotonicity(t *testing.T) {
	s := NewWeightedScorer(DefaultConfig())

	for _, incidentType := range []string{"flooding", "infrastructure", "maintenance"} {
		prev := -1
		for count := 1; count <= 10; count++ {
			sev, _ := s.Score(incidentType, count, "Whitefield", records(count, "no keywords here"))
			if sev.Rank() < prev {
				t.Errorf("%s: severity decreased when count rose to %d", incidentType, count)
			}
			prev = sev.Rank()
		}
	}
}

func TestScorers_RadiusClamp(t *testing.T) {
	cfg := DefaultConfig()
	scorers := map[string]Scorer{
		"weighted":  NewWeightedScorer(cfg),
		"threshold": NewThresholdScorer(cfg),
	}

	for name, s := range scorers {
		for _, incidentType := range []string{"flooding", "emergency", "infrastructure", "maintenance", "unknown"} {
			for count := 1; count <= 50; count += 7 {
				for _, loc := range []string{"HSR Layout", "Koramangala", "Nowhere"} {
					_, radius := s.Score(incidentType, count, loc, records(min(count, 4), "urgent severe"))
					if radius < 0 || radius > cfg.MaxRadiusKm {
						t.Errorf("%s: radius %.2f out of [0, %.1f] for %s count=%d", name, radius, cfg.MaxRadiusKm, incidentType, count)
					}
				}
			}
		}
	}
}

func TestThresholdScorer_Buckets(t *testing.T) {
	s := NewThresholdScorer(DefaultConfig())

	cases := []struct {
		incidentType string
		count        int
		want         models.Severity
	}{
		{"emergency", 5, models.SeverityCritical},
		{"flooding", 3, models.SeverityHigh},
		{"flooding", 2, models.SeverityLow},
		{"infrastructure", 8, models.SeverityHigh},
		{"maintenance", 5, models.SeverityMedium},
		{"traffic", 9, models.SeverityLow},
	}

	for _, tc := range cases {
		sev, _ := s.Score(tc.incidentType, tc.count, "Anywhere", nil)
		if sev != tc.want {
			t.Errorf("%s count=%d: expected %s, got %s", tc.incidentType, tc.count, tc.want, sev)
		}
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
