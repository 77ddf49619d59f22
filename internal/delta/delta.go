// Package delta compares consecutive consensus snapshots for the headline
// metrics and reports which moved beyond a threshold.
package delta

import (
	"time"

	"github.com/google/uuid"

	"github.com/sells-group/consensus-engine/internal/model"
)

const (
	// DefaultThresholdPercent is the reporting bar for a changed metric.
	DefaultThresholdPercent = 2.0

	// significantPercent is the stricter bar that flags a persisted audit
	// row as significant.
	significantPercent = 5.0
)

// Diff compares the headline metrics of two snapshots. Metrics absent on
// either side are skipped, never treated as a 100% change; a zero previous
// value is likewise skipped.
func Diff(previous, current *model.EntityConsensus, thresholdPercent float64) model.DeltaReport {
	var report model.DeltaReport
	if previous == nil || current == nil {
		return report
	}

	for _, metric := range model.HeadlineMetrics {
		prev := previous.Metric(metric)
		curr := current.Metric(metric)
		if !prev.IsAvailable || !curr.IsAvailable || prev.Value == nil || curr.Value == nil {
			continue
		}
		if *prev.Value == 0 {
			continue
		}

		change := abs(*curr.Value-*prev.Value) / abs(*prev.Value) * 100
		if change > report.MaxChangePercent {
			report.MaxChangePercent = change
		}
		if change >= thresholdPercent {
			report.ChangedMetrics = append(report.ChangedMetrics, model.MetricDelta{
				Metric:        metric,
				From:          *prev.Value,
				To:            *curr.Value,
				ChangePercent: change,
			})
		}
	}

	report.HasSignificantChange = len(report.ChangedMetrics) > 0
	return report
}

// Records converts a delta report into persistable audit rows. Rows at or
// above the stricter significance bar are flagged.
func Records(entityID string, report model.DeltaReport, detectedAt time.Time) []model.DeltaRecord {
	if len(report.ChangedMetrics) == 0 {
		return nil
	}
	records := make([]model.DeltaRecord, len(report.ChangedMetrics))
	for i, md := range report.ChangedMetrics {
		records[i] = model.DeltaRecord{
			ID:            uuid.New().String(),
			EntityID:      entityID,
			Metric:        md.Metric,
			PreviousValue: md.From,
			CurrentValue:  md.To,
			ChangePercent: md.ChangePercent,
			IsSignificant: md.ChangePercent >= significantPercent,
			DetectedAt:    detectedAt,
		}
	}
	return records
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
