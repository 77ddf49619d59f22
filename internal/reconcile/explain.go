package reconcile

import (
	"fmt"
	"strings"
	"time"

	"github.com/sells-group/consensus-engine/internal/model"
)

// ConfidenceLevel buckets an overall confidence score.
type ConfidenceLevel string

const (
	LevelHigh    ConfidenceLevel = "high"
	LevelMedium  ConfidenceLevel = "medium"
	LevelLow     ConfidenceLevel = "low"
	LevelVeryLow ConfidenceLevel = "very_low"
)

// Level returns the bucket for an overall confidence score.
func Level(confidence int) ConfidenceLevel {
	switch {
	case confidence >= 70:
		return LevelHigh
	case confidence >= 50:
		return LevelMedium
	case confidence >= 30:
		return LevelLow
	default:
		return LevelVeryLow
	}
}

// explain synthesizes the plain-language confidence explanation for a built
// consensus.
func explain(ec *model.EntityConsensus, rawBySource map[string]model.SourceReport, now time.Time) string {
	var reasons []string

	docCount := 0
	var newest time.Time
	for _, report := range rawBySource {
		if model.IsDocumentDerived(report.SourceID) {
			docCount++
		}
		if report.ObservedAt.After(newest) {
			newest = report.ObservedAt
		}
	}

	switch {
	case len(rawBySource) == 0:
		reasons = append(reasons, "no sources returned data")
	case docCount > 0:
		reasons = append(reasons, fmt.Sprintf("%d sources consulted (%d document-derived)", len(rawBySource), docCount))
	default:
		reasons = append(reasons, fmt.Sprintf("%d sources consulted", len(rawBySource)))
	}

	fresh := freshnessScore(newest, now)
	switch {
	case fresh >= 100:
		reasons = append(reasons, "data collected within the last 24 hours")
	case fresh >= 80:
		reasons = append(reasons, "data collected within the last week")
	case fresh >= 60:
		reasons = append(reasons, "data collected within the last month")
	default:
		reasons = append(reasons, "data is over a month old")
	}

	// Only metrics whose spread breached the variance threshold count
	// against the variance score; outlier-removal warnings do not.
	flagged := 0
	for _, mc := range ec.Metrics {
		if mc.IsAvailable && mc.VariancePercent != nil && *mc.VariancePercent > varianceWarnThreshold*100 {
			flagged++
		}
	}
	varianceScore := 100 - 20*flagged
	if varianceScore < 0 {
		varianceScore = 0
	}
	if flagged > 0 {
		reasons = append(reasons, fmt.Sprintf("%d metrics show source disagreement (variance score %d)", flagged, varianceScore))
	} else {
		reasons = append(reasons, "sources are in close agreement")
	}

	available := len(model.AllMetrics) - len(ec.DataGaps)
	completeness := available * 100 / len(model.AllMetrics)
	reasons = append(reasons, fmt.Sprintf("%d of %d tracked metrics available (%d%% complete)", available, len(model.AllMetrics), completeness))

	switch Level(ec.OverallConfidence) {
	case LevelHigh:
		reasons = append(reasons, "high confidence: suitable for downstream analysis")
	case LevelMedium:
		reasons = append(reasons, "medium confidence: usable with attention to flagged metrics")
	case LevelLow:
		reasons = append(reasons, "low confidence: treat any derived analysis with caution")
	case LevelVeryLow:
		reasons = append(reasons, "very low confidence: downstream analysis should be blocked")
	}

	return strings.Join(reasons, "; ")
}

// freshnessScore bands the age of the most recent observation: 100 inside a
// day, then 80/60/30 at the 1-day, 6-day, and 1-month boundaries.
func freshnessScore(newest, now time.Time) int {
	if newest.IsZero() {
		return 30
	}
	age := now.Sub(newest)
	switch {
	case age < 24*time.Hour:
		return 100
	case age < 6*24*time.Hour:
		return 80
	case age < 30*24*time.Hour:
		return 60
	default:
		return 30
	}
}
