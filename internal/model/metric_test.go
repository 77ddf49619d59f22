package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllMetrics_Complete(t *testing.T) {
	assert.Len(t, AllMetrics, 30)

	seen := make(map[MetricName]bool, len(AllMetrics))
	for _, m := range AllMetrics {
		assert.True(t, m.Valid(), "metric %s", m)
		assert.NotEmpty(t, m.Label(), "metric %s", m)
		assert.False(t, seen[m], "duplicate metric %s", m)
		seen[m] = true
	}
}

func TestMetricName_Valid(t *testing.T) {
	assert.True(t, MetricRevenue.Valid())
	assert.False(t, MetricName("not_a_metric").Valid())
	assert.False(t, MetricName("").Valid())
}

func TestMetricName_Units(t *testing.T) {
	assert.Equal(t, UnitCurrency, MetricRevenue.Unit())
	assert.Equal(t, UnitPercent, MetricNetMargin.Unit())
	assert.Equal(t, UnitRatio, MetricPERatio.Unit())
	assert.Equal(t, UnitCount, MetricEmployeeCount.Unit())
}

func TestHeadlineMetrics_Subset(t *testing.T) {
	require.Len(t, HeadlineMetrics, 6)
	for _, m := range HeadlineMetrics {
		assert.True(t, m.Valid(), "headline metric %s", m)
	}
	assert.Contains(t, HeadlineMetrics, MetricMarketCap)
	assert.Contains(t, HeadlineMetrics, MetricSharePrice)
	assert.Contains(t, HeadlineMetrics, MetricRevenue)
	assert.Contains(t, HeadlineMetrics, MetricNetMargin)
	assert.Contains(t, HeadlineMetrics, MetricPERatio)
	assert.Contains(t, HeadlineMetrics, MetricEBITDAMargin)
}

func TestTrustTable_KnownSources(t *testing.T) {
	tt := DefaultTrustTable()

	assert.Equal(t, 1.30, tt.Weight(SourceExchangeFiling))
	assert.Equal(t, 1.10, tt.Weight(SourceFinancialAPI))
	assert.Equal(t, 0.35, tt.Weight(SourceModelInferred))
}

func TestTrustTable_UnknownSourceFallsBack(t *testing.T) {
	tt := DefaultTrustTable()
	assert.Equal(t, tt.Weight(SourceSearchSnippet), tt.Weight("brand_new_provider"))
}

func TestIsDocumentDerived(t *testing.T) {
	assert.True(t, IsDocumentDerived(SourceExchangeFiling))
	assert.True(t, IsDocumentDerived(SourceOfficialReport))
	assert.True(t, IsDocumentDerived(SourceAnnualReport))
	assert.False(t, IsDocumentDerived(SourceFinancialAPI))
	assert.False(t, IsDocumentDerived(SourceMemory))
}
