package cluster

import (
	"fmt"
	"strings"

	"github.com/citypulse/citypulse-ai/internal/models"
	"github.com/citypulse/citypulse-ai/internal/pattern/severity"
)

// group is one (location, type) bucket of records, in input order.
type group struct {
	location string
	// eventType keeps the casing of the first record seen for the pair;
	// matching against the criticality tables is done lowercase.
	eventType string
	records   []models.IncidentRecord
}

// criticalityDetector applies the tiered criticality policy.
type criticalityDetector struct {
	highSet   map[string]bool
	mediumSet map[string]bool
	vulnSet   map[string]bool
	scorer    severity.Scorer
}

// NewCriticalityDetector creates the primary, criticality-tiered cluster
// detector. The scorer is consulted only for groups that qualify.
func NewCriticalityDetector(cfg Config, scorer severity.Scorer) Detector {
	return &criticalityDetector{
		highSet:   lowerSet(cfg.HighCriticalityTypes),
		mediumSet: lowerSet(cfg.MediumCriticalityTypes),
		vulnSet:   exactSet(cfg.HighVulnerabilityLocations),
		scorer:    scorer,
	}
}

// Detect walks the groups location-major and returns the first one that
// crosses its criticality tier's threshold.
func (d *criticalityDetector) Detect(records []models.IncidentRecord, windowMinutes int) *models.EventCluster {
	for _, g := range groupRecords(records) {
		if d.qualifies(g) {
			return buildCluster(g, windowMinutes, d.scorer)
		}
	}
	return nil
}

func (d *criticalityDetector) qualifies(g group) bool {
	t := strings.ToLower(g.eventType)
	count := len(g.records)
	switch {
	case d.highSet[t]:
		return count >= 2
	case d.mediumSet[t]:
		return count >= 3 && d.vulnSet[g.location]
	default:
		return count >= 4
	}
}

// thresholdDetector applies the plain count threshold to every group.
type thresholdDetector struct {
	minCount int
	scorer   severity.Scorer
}

// NewThresholdDetector creates the fallback detector: any (location, type)
// pair with at least three records clusters, regardless of type.
func NewThresholdDetector(scorer severity.Scorer) Detector {
	return &thresholdDetector{minCount: 3, scorer: scorer}
}

func (d *thresholdDetector) Detect(records []models.IncidentRecord, windowMinutes int) *models.EventCluster {
	for _, g := range groupRecords(records) {
		if len(g.records) >= d.minCount {
			return buildCluster(g, windowMinutes, d.scorer)
		}
	}
	return nil
}

// ─── Helpers ──────────────────────────────────────────────────────────────────

// groupRecords buckets records location-major: locations in first-seen
// order, then types within each location in first-seen order. All of a
// location's groups are walked before the next location's.
func groupRecords(records []models.IncidentRecord) []group {
	type bucket struct {
		groups []group
		index  map[string]int // lowercase type → index into groups
	}
	var buckets []*bucket
	locIndex := make(map[string]int)

	for _, rec := range records {
		li, ok := locIndex[rec.Location]
		if !ok {
			li = len(buckets)
			locIndex[rec.Location] = li
			buckets = append(buckets, &bucket{index: make(map[string]int)})
		}
		b := buckets[li]

		t := strings.ToLower(rec.IncidentType)
		gi, ok := b.index[t]
		if !ok {
			gi = len(b.groups)
			b.index[t] = gi
			b.groups = append(b.groups, group{
				location:  rec.Location,
				eventType: rec.IncidentType,
			})
		}
		b.groups[gi].records = append(b.groups[gi].records, rec)
	}

	var out []group
	for _, b := range buckets {
		out = append(out, b.groups...)
	}
	return out
}

func buildCluster(g group, windowMinutes int, scorer severity.Scorer) *models.EventCluster {
	count := len(g.records)
	sev, radius := scorer.Score(g.eventType, count, g.location, g.records)
	return &models.EventCluster{
		EventType:        g.eventType,
		Location:         g.location,
		Count:            count,
		Severity:         sev,
		TimeWindow:       fmt.Sprintf("%d minutes", windowMinutes),
		AffectedRadiusKm: radius,
	}
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
