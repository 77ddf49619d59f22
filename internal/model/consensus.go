// Package model defines the data types exchanged between the acquisition,
// reconciliation, and rendering layers.
package model

import "time"

// EntityKind distinguishes what a consensus describes.
type EntityKind string

const (
	EntityCompany  EntityKind = "company"
	EntityIndustry EntityKind = "industry"
)

// SourceObservation is one provider's claim about one metric at one point in
// time. Immutable once created.
type SourceObservation struct {
	Value       *float64  `json:"value"`
	SourceID    string    `json:"source_id"`
	ObservedAt  time.Time `json:"observed_at"`
	TrustWeight float64   `json:"trust_weight"`
}

// ContributingSource records one observation that survived reconciliation,
// kept for audit.
type ContributingSource struct {
	SourceID string  `json:"source_id"`
	RawValue float64 `json:"raw_value"`
	Weight   float64 `json:"weight"`
}

// MetricConsensus is the reconciled result for a single metric.
type MetricConsensus struct {
	Value               *float64             `json:"value"`
	Confidence          int                  `json:"confidence"`
	VariancePercent     *float64             `json:"variance_percent,omitempty"`
	HasWarning          bool                 `json:"has_warning"`
	WarningReason       string               `json:"warning_reason,omitempty"`
	ContributingSources []ContributingSource `json:"contributing_sources,omitempty"`
	IsAvailable         bool                 `json:"is_available"`
}

// EntityConsensus is the reconciled result for one entity across all
// tracked metrics. Constructed fresh on every reconciliation and never
// mutated afterward; a newer consensus supersedes it.
type EntityConsensus struct {
	EntityID              string                         `json:"entity_id"`
	EntityName            string                         `json:"entity_name"`
	EntityKind            EntityKind                     `json:"entity_kind"`
	FiscalPeriod          string                         `json:"fiscal_period"`
	Metrics               map[MetricName]MetricConsensus `json:"metrics"`
	OverallConfidence     int                            `json:"overall_confidence"`
	SourcesUsed           []string                       `json:"sources_used"`
	DataGaps              []string                       `json:"data_gaps"`
	VarianceWarnings      []string                       `json:"variance_warnings"`
	ObservedAt            time.Time                      `json:"observed_at"`
	ExpiresAt             time.Time                      `json:"expires_at"`
	ConfidenceExplanation string                         `json:"confidence_explanation"`
}

// Metric returns the consensus for a single metric, or an unavailable
// placeholder if the metric was never reconciled.
func (e *EntityConsensus) Metric(name MetricName) MetricConsensus {
	if mc, ok := e.Metrics[name]; ok {
		return mc
	}
	return MetricConsensus{IsAvailable: false}
}

// Expired reports whether the consensus has passed its own expiry.
func (e *EntityConsensus) Expired(now time.Time) bool {
	return now.After(e.ExpiresAt)
}

// SourceReport is one provider's full payload for an entity: every metric it
// could supply, stamped with when the data was collected. A nil metric value
// means the provider had nothing for that metric.
type SourceReport struct {
	SourceID    string                  `json:"source_id"`
	ObservedAt  time.Time               `json:"observed_at"`
	TrustWeight float64                 `json:"trust_weight,omitempty"` // 0 = look up from the reliability table
	Metrics     map[MetricName]*float64 `json:"metrics"`
}

// MetricDelta describes one headline metric that moved between two
// consensus snapshots.
type MetricDelta struct {
	Metric        MetricName `json:"metric"`
	From          float64    `json:"from"`
	To            float64    `json:"to"`
	ChangePercent float64    `json:"change_percent"`
}

// DeltaReport is the output of comparing two consensus snapshots.
type DeltaReport struct {
	ChangedMetrics       []MetricDelta `json:"changed_metrics"`
	HasSignificantChange bool          `json:"has_significant_change"`
	MaxChangePercent     float64       `json:"max_change_percent"`
}

// DeltaRecord is a persisted audit row for one detected change.
type DeltaRecord struct {
	ID            string     `json:"id"`
	EntityID      string     `json:"entity_id"`
	Metric        MetricName `json:"metric"`
	PreviousValue float64    `json:"previous_value"`
	CurrentValue  float64    `json:"current_value"`
	ChangePercent float64    `json:"change_percent"`
	IsSignificant bool       `json:"is_significant"`
	DetectedAt    time.Time  `json:"detected_at"`
}
