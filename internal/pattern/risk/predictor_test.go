package risk

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/citypulse/citypulse-ai/internal/models"
)

var monsoonNoon = time.Date(2026, time.July, 15, 12, 0, 0, 0, time.UTC)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// recentTimestamps returns n timestamps spread over the day before now.
func recentTimestamps(now time.Time, n int) []time.Time {
	out := make([]time.Time, n)
	for i := range out {
		out[i] = now.Add(-time.Duration(n-i) * time.Hour)
	}
	return out
}

func TestPredict_InsufficientHistory(t *testing.T) {
	p := NewPredictorAt(DefaultConfig(), fixedClock(monsoonNoon))

	verdict := p.Predict("HSR Layout", "flooding", recentTimestamps(monsoonNoon, 2))

	if verdict.RiskLevel != models.RiskUnknown {
		t.Errorf("Expected UNKNOWN, got %s", verdict.RiskLevel)
	}
	if verdict.Confidence != 0 {
		t.Errorf("Expected zero confidence, got %.3f", verdict.Confidence)
	}
	if len(verdict.ContributingFactors) != 1 || verdict.ContributingFactors[0] != "Limited data availability" {
		t.Errorf("Unexpected factors: %v", verdict.ContributingFactors)
	}
	if len(verdict.RecommendedActions) != 1 || verdict.RecommendedActions[0] != "Collect more incident data" {
		t.Errorf("Unexpected actions: %v", verdict.RecommendedActions)
	}
}

func TestPredict_FloodingInVulnerableArea(t *testing.T) {
	p := NewPredictorAt(DefaultConfig(), fixedClock(monsoonNoon))

	verdict := p.Predict("HSR Layout", "flooding", recentTimestamps(monsoonNoon, 3))

	// frequency 3/7 × 0.30, trend 0.5 × 0.25, location 0.8 × 0.20,
	// criticality 0.9 × 0.15, monsoon 0.3 × 0.10 ≈ 0.5786
	if math.Abs(verdict.RiskScore-0.578571) > 1e-4 {
		t.Errorf("Expected score ≈ 0.5786, got %.4f", verdict.RiskScore)
	}
	if verdict.RiskLevel != models.RiskHigh {
		t.Errorf("Expected HIGH, got %s", verdict.RiskLevel)
	}
	if math.Abs(verdict.Confidence-0.831428) > 1e-4 {
		t.Errorf("Expected confidence ≈ 0.8314, got %.4f", verdict.Confidence)
	}
	if verdict.PredictedTimeframe != "next 2-4 hours" {
		t.Errorf("Expected 'next 2-4 hours', got %q", verdict.PredictedTimeframe)
	}

	wantFactors := []string{
		"High vulnerability area: HSR Layout",
		"Critical incident type: flooding",
	}
	for _, want := range wantFactors {
		if !contains(verdict.ContributingFactors, want) {
			t.Errorf("Missing factor %q in %v", want, verdict.ContributingFactors)
		}
	}

	for _, want := range []string{
		"Deploy preventive measures immediately",
		"Monitor weather conditions",
		"Prepare evacuation routes",
		"Focus attention on HSR Layout area",
	} {
		if !contains(verdict.RecommendedActions, want) {
			t.Errorf("Missing action %q in %v", want, verdict.RecommendedActions)
		}
	}
}

func TestPredict_QuietPairScoresLow(t *testing.T) {
	p := NewPredictorAt(DefaultConfig(), fixedClock(monsoonNoon))

	// Everything outside the recent window, ordinary location, medium type.
	old := []time.Time{
		monsoonNoon.AddDate(0, -1, 0),
		monsoonNoon.AddDate(0, -1, 5),
		monsoonNoon.AddDate(0, -1, 10),
	}
	verdict := p.Predict("Central Park", "traffic", old)

	if math.Abs(verdict.RiskScore-0.29) > 1e-9 {
		t.Errorf("Expected score 0.29, got %.4f", verdict.RiskScore)
	}
	if verdict.RiskLevel != models.RiskLow {
		t.Errorf("Expected LOW, got %s", verdict.RiskLevel)
	}
	if math.Abs(verdict.Confidence-0.542) > 1e-9 {
		t.Errorf("Expected confidence 0.542, got %.4f", verdict.Confidence)
	}
	if verdict.PredictedTimeframe != "next 2-7 days" {
		t.Errorf("Expected 'next 2-7 days', got %q", verdict.PredictedTimeframe)
	}
	if len(verdict.ContributingFactors) != 0 {
		t.Errorf("Expected no factors for a quiet pair, got %v", verdict.ContributingFactors)
	}
}

func TestPredict_FrequencyFactor(t *testing.T) {
	p := NewPredictorAt(DefaultConfig(), fixedClock(monsoonNoon))

	// Four events in a week pushes frequency above 0.5.
	verdict := p.Predict("HSR Layout", "flooding", recentTimestamps(monsoonNoon, 4))
	if !contains(verdict.ContributingFactors, "High recent incident frequency") {
		t.Errorf("Expected the frequency factor, got %v", verdict.ContributingFactors)
	}
}

func TestPredict_SeasonalFactor(t *testing.T) {
	cfg := DefaultConfig()
	winterNoon := time.Date(2026, time.January, 15, 12, 0, 0, 0, time.UTC)

	july := NewPredictorAt(cfg, fixedClock(monsoonNoon)).
		Predict("HSR Layout", "flooding", recentTimestamps(monsoonNoon, 3))
	january := NewPredictorAt(cfg, fixedClock(winterNoon)).
		Predict("HSR Layout", "flooding", recentTimestamps(winterNoon, 3))

	if july.RiskScore <= january.RiskScore {
		t.Errorf("Expected monsoon to raise flooding risk: july=%.4f january=%.4f",
			july.RiskScore, january.RiskScore)
	}

	preSummer := time.Date(2026, time.April, 15, 12, 0, 0, 0, time.UTC)
	apr := NewPredictorAt(cfg, fixedClock(preSummer)).
		Predict("Whitefield", "infrastructure", recentTimestamps(preSummer, 3))
	jan := NewPredictorAt(cfg, fixedClock(winterNoon)).
		Predict("Whitefield", "infrastructure", recentTimestamps(winterNoon, 3))
	if apr.RiskScore <= jan.RiskScore {
		t.Errorf("Expected pre-summer to raise infrastructure risk: april=%.4f january=%.4f",
			apr.RiskScore, jan.RiskScore)
	}
}

func TestPredict_ScoreAndConfidenceBounds(t *testing.T) {
	p := NewPredictorAt(DefaultConfig(), fixedClock(monsoonNoon))

	cases := []struct {
		location, incidentType string
		n                      int
	}{
		{"HSR Layout", "flooding", 40},
		{"Electronic City", "emergency", 12},
		{"Nowhere", "picnic", 3},
		{"BTM Layout", "traffic", 6},
	}

	for _, tc := range cases {
		verdict := p.Predict(tc.location, tc.incidentType, recentTimestamps(monsoonNoon, tc.n))
		if verdict.RiskScore < 0 || verdict.RiskScore > 1 {
			t.Errorf("%s/%s: score %.4f out of [0,1]", tc.location, tc.incidentType, verdict.RiskScore)
		}
		if verdict.Confidence < 0 || verdict.Confidence > 1 {
			t.Errorf("%s/%s: confidence %.4f out of [0,1]", tc.location, tc.incidentType, verdict.Confidence)
		}
		if verdict.Reason == "" {
			t.Errorf("%s/%s: expected a reason", tc.location, tc.incidentType)
		}
	}
}

func TestPredict_CriticalTypeEscalatesEarlier(t *testing.T) {
	p := NewPredictorAt(DefaultConfig(), fixedClock(monsoonNoon))

	// Identical history: the critical type must not come out below the
	// benign type's level.
	ts := recentTimestamps(monsoonNoon, 3)
	flooding := p.Predict("Koramangala", "flooding", ts)
	picnic := p.Predict("Koramangala", "picnic", ts)

	if rank(flooding.RiskLevel) < rank(picnic.RiskLevel) {
		t.Errorf("Expected flooding ≥ picnic: %s vs %s", flooding.RiskLevel, picnic.RiskLevel)
	}
}

func TestPredict_TimeframeNeedsRecentEvents(t *testing.T) {
	p := NewPredictorAt(DefaultConfig(), fixedClock(monsoonNoon))

	// One recent event plus older history: HIGH without the short window.
	ts := []time.Time{
		monsoonNoon.AddDate(0, 0, -20),
		monsoonNoon.AddDate(0, 0, -15),
		monsoonNoon.AddDate(0, 0, -10),
		monsoonNoon.Add(-2 * time.Hour),
	}
	verdict := p.Predict("HSR Layout", "flooding", ts)
	if verdict.RiskLevel != models.RiskHigh {
		t.Fatalf("Expected HIGH, got %s (score %.4f)", verdict.RiskLevel, verdict.RiskScore)
	}
	if verdict.PredictedTimeframe != "next 6-12 hours" {
		t.Errorf("Expected 'next 6-12 hours' with one recent event, got %q", verdict.PredictedTimeframe)
	}
}

func TestRecommendActions_TypeSpecific(t *testing.T) {
	actions := recommendActions(models.RiskMedium, "power", "Whitefield")
	if !contains(actions, "Check power grid stability") || !contains(actions, "Verify backup systems") {
		t.Errorf("Expected grid actions for power incidents, got %v", actions)
	}
	if contains(actions, "Deploy preventive measures immediately") {
		t.Errorf("Did not expect urgent actions at MEDIUM, got %v", actions)
	}

	last := actions[len(actions)-1]
	if !strings.Contains(last, "Whitefield") {
		t.Errorf("Expected the focus action to name the location, got %q", last)
	}
}

// ─── Helpers ──────────────────────────────────────────────────────────────────

func contains(items []string, want string) bool {
	for _, it := range items {
		if it == want {
			return true
		}
	}
	return false
}

func rank(level models.RiskLevel) int {
	switch level {
	case models.RiskCritical:
		return 4
	case models.RiskHigh:
		return 3
	case models.RiskMedium:
		return 2
	case models.RiskLow:
		return 1
	}
	return 0
}
