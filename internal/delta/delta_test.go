package delta

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/consensus-engine/internal/model"
)

func f(v float64) *float64 { return &v }

func snapshot(values map[model.MetricName]float64) *model.EntityConsensus {
	metrics := make(map[model.MetricName]model.MetricConsensus, len(values))
	for name, v := range values {
		metrics[name] = model.MetricConsensus{Value: f(v), IsAvailable: true, Confidence: 80}
	}
	return &model.EntityConsensus{EntityID: "acme", Metrics: metrics}
}

func TestDiff_ChangeAboveThreshold(t *testing.T) {
	prev := snapshot(map[model.MetricName]float64{model.MetricRevenue: 100})
	curr := snapshot(map[model.MetricName]float64{model.MetricRevenue: 106})

	report := Diff(prev, curr, DefaultThresholdPercent)

	require.Len(t, report.ChangedMetrics, 1)
	md := report.ChangedMetrics[0]
	assert.Equal(t, model.MetricRevenue, md.Metric)
	assert.Equal(t, 100.0, md.From)
	assert.Equal(t, 106.0, md.To)
	assert.InDelta(t, 6.0, md.ChangePercent, 1e-9)
	assert.True(t, report.HasSignificantChange)
	assert.InDelta(t, 6.0, report.MaxChangePercent, 1e-9)
}

func TestDiff_ChangeBelowThreshold(t *testing.T) {
	prev := snapshot(map[model.MetricName]float64{model.MetricRevenue: 100})
	curr := snapshot(map[model.MetricName]float64{model.MetricRevenue: 101})

	report := Diff(prev, curr, DefaultThresholdPercent)

	assert.Empty(t, report.ChangedMetrics)
	assert.False(t, report.HasSignificantChange)
	assert.InDelta(t, 1.0, report.MaxChangePercent, 1e-9)
}

func TestDiff_ModerateChangeSetsFlag(t *testing.T) {
	// A 3% move clears the reporting threshold, so the report-level flag is
	// set even though the per-record significance bar is not.
	prev := snapshot(map[model.MetricName]float64{model.MetricRevenue: 100})
	curr := snapshot(map[model.MetricName]float64{model.MetricRevenue: 103})

	report := Diff(prev, curr, DefaultThresholdPercent)

	require.Len(t, report.ChangedMetrics, 1)
	assert.True(t, report.HasSignificantChange)

	records := Records("acme", report, time.Now())
	require.Len(t, records, 1)
	assert.False(t, records[0].IsSignificant)
}

func TestDiff_AbsentMetricSkipped(t *testing.T) {
	// Revenue disappears on the current side: skipped, not a 100% change.
	prev := snapshot(map[model.MetricName]float64{model.MetricRevenue: 100})
	curr := snapshot(map[model.MetricName]float64{model.MetricSharePrice: 50})

	report := Diff(prev, curr, DefaultThresholdPercent)

	assert.Empty(t, report.ChangedMetrics)
	assert.False(t, report.HasSignificantChange)
}

func TestDiff_ZeroPreviousSkipped(t *testing.T) {
	prev := snapshot(map[model.MetricName]float64{model.MetricNetMargin: 0})
	curr := snapshot(map[model.MetricName]float64{model.MetricNetMargin: 4})

	report := Diff(prev, curr, DefaultThresholdPercent)

	assert.Empty(t, report.ChangedMetrics)
}

func TestDiff_NilSides(t *testing.T) {
	curr := snapshot(map[model.MetricName]float64{model.MetricRevenue: 100})

	assert.Empty(t, Diff(nil, curr, 2).ChangedMetrics)
	assert.Empty(t, Diff(curr, nil, 2).ChangedMetrics)
}

func TestDiff_OnlyHeadlineMetricsWatched(t *testing.T) {
	// A large move in a non-headline metric is ignored.
	prev := snapshot(map[model.MetricName]float64{model.MetricCapex: 100})
	curr := snapshot(map[model.MetricName]float64{model.MetricCapex: 400})

	report := Diff(prev, curr, DefaultThresholdPercent)

	assert.Empty(t, report.ChangedMetrics)
}

func TestRecords_SignificanceBar(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	report := model.DeltaReport{
		ChangedMetrics: []model.MetricDelta{
			{Metric: model.MetricRevenue, From: 100, To: 106, ChangePercent: 6},
			{Metric: model.MetricSharePrice, From: 100, To: 103, ChangePercent: 3},
		},
	}

	records := Records("acme", report, now)

	require.Len(t, records, 2)
	assert.True(t, records[0].IsSignificant)  // 6% clears the 5% bar
	assert.False(t, records[1].IsSignificant) // 3% does not
	for _, r := range records {
		assert.NotEmpty(t, r.ID)
		assert.Equal(t, "acme", r.EntityID)
		assert.Equal(t, now, r.DetectedAt)
	}
}

func TestRecords_EmptyReport(t *testing.T) {
	assert.Nil(t, Records("acme", model.DeltaReport{}, time.Now()))
}
