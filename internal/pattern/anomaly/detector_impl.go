package anomaly

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/citypulse/citypulse-ai/internal/models"
)

// priorityKeys is the fixed extraction order before falling back to the
// first numeric field by sorted key.
var priorityKeys = []string{"value", "count", "level", "index"}

type detector struct {
	cfg     Config
	varLocs map[string]bool
}

// NewDetector creates the z-score anomaly detector.
func NewDetector(cfg Config) Detector {
	varLocs := make(map[string]bool, len(cfg.HighVarianceLocations))
	for _, loc := range cfg.HighVarianceLocations {
		varLocs[loc] = true
	}
	return &detector{cfg: cfg, varLocs: varLocs}
}

func (d *detector) Detect(current models.Sample, historical []models.Sample) (models.AnomalyVerdict, error) {
	value, ok := ExtractValue(current)
	if !ok {
		return models.AnomalyVerdict{}, ErrNoNumericField
	}

	// Historical samples without a numeric field never enter the baseline.
	values := make([]float64, 0, len(historical))
	for _, s := range historical {
		if v, ok := ExtractValue(s); ok {
			values = append(values, v)
		}
	}

	if len(values) < d.cfg.MinHistory {
		return models.AnomalyVerdict{
			IsAnomaly:  false,
			Confidence: 0,
			Reason:     fmt.Sprintf("insufficient historical data: %d of %d required points", len(values), d.cfg.MinHistory),
		}, nil
	}

	mean := meanOf(values)
	std := populationStd(values, mean)

	var (
		zScore     float64
		isAnomaly  bool
		confidence float64
	)
	if std == 0 {
		// A flat history makes any deviation certain. ZScore stays 0 so
		// the verdict remains representable.
		isAnomaly = value != mean
		if isAnomaly {
			confidence = 1.0
		}
	} else {
		zScore = math.Abs(value-mean) / std
		isAnomaly = zScore > d.threshold(current.Type, current.Location)
		confidence = math.Min(0.95, zScore/3.0)
	}

	kind := classify(value, values, mean)
	sev := gradeSeverity(zScore, kind)

	verdict := models.AnomalyVerdict{
		IsAnomaly:   isAnomaly,
		Confidence:  confidence,
		AnomalyType: kind,
		Severity:    sev,
		ZScore:      zScore,
		ShouldAlert: isAnomaly && confidence > 0.7,
	}
	if isAnomaly {
		verdict.Reason = fmt.Sprintf("anomalous pattern with %.0f%% confidence, z-score %.2f", confidence*100, zScore)
	} else {
		verdict.Reason = fmt.Sprintf("normal pattern, z-score %.2f", zScore)
	}
	return verdict, nil
}

// threshold picks the detection threshold for the sample's type, raised for
// high-variance locations. Untyped samples get the unknown tier.
func (d *detector) threshold(sampleType, location string) float64 {
	t, ok := d.cfg.TypeThresholds[sampleType]
	if !ok {
		t = d.cfg.UnknownTypeThreshold
	}
	if d.varLocs[location] {
		t += d.cfg.LocationPenalty
	}
	return t
}

// classify names the anomaly shape. Ordered decision list, first match wins.
func classify(current float64, values []float64, mean float64) models.AnomalyType {
	maxVal, minVal := values[0], values[0]
	for _, v := range values[1:] {
		if v > maxVal {
			maxVal = v
		}
		if v < minVal {
			minVal = v
		}
	}

	switch {
	case current > maxVal*1.2:
		return models.AnomalySpike
	case current < minVal*0.8:
		return models.AnomalyDrop
	case current > mean*1.5:
		return models.AnomalyHighDev
	case current < mean*0.5:
		return models.AnomalyLowDev
	}
	return models.AnomalyPatternBreak
}

// gradeSeverity buckets the z-score, bumped one level for spikes and drops.
func gradeSeverity(zScore float64, kind models.AnomalyType) models.Severity {
	sev := models.SeverityLow
	switch {
	case zScore > 4.0:
		sev = models.SeverityCritical
	case zScore > 3.0:
		sev = models.SeverityHigh
	case zScore > 2.0:
		sev = models.SeverityMedium
	}

	if kind == models.AnomalySpike || kind == models.AnomalyDrop {
		sev = sev.Bump()
	}
	return sev
}

// ─── Helpers ──────────────────────────────────────────────────────────────────

// ExtractValue pulls a single scalar out of a sample: the priority keys
// first, then the remaining fields in sorted-key order so the fallback is
// deterministic.
func ExtractValue(s models.Sample) (float64, bool) {
	for _, k := range priorityKeys {
		if raw, ok := s.Fields[k]; ok {
			if v, ok := coerce(raw); ok {
				return v, true
			}
		}
	}

	rest := make([]string, 0, len(s.Fields))
	for k := range s.Fields {
		rest = append(rest, k)
	}
	sort.Strings(rest)
	for _, k := range rest {
		if v, ok := coerce(s.Fields[k]); ok {
			return v, true
		}
	}
	return 0, false
}

func coerce(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		// Collaborators sometimes report readings as strings ("25", "3.5").
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

func meanOf(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func populationStd(values []float64, mean float64) float64 {
	sum := 0.0
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)))
}
