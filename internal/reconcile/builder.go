package reconcile

import (
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/consensus-engine/internal/model"
)

// Builder assembles an EntityConsensus from raw per-source reports by
// running the metric reconciler once per tracked metric.
type Builder struct {
	trust model.TrustTable
	ttl   time.Duration
}

// NewBuilder creates a Builder. ttl controls how long a built consensus is
// considered current when replayed through the memory path.
func NewBuilder(trust model.TrustTable, ttl time.Duration) *Builder {
	if trust == nil {
		trust = model.DefaultTrustTable()
	}
	return &Builder{trust: trust, ttl: ttl}
}

// Build reconciles every tracked metric for one entity from the merged
// per-source reports. It always returns a well-formed consensus; an empty
// input map yields an all-unavailable result with zero confidence.
func (b *Builder) Build(entityID, entityName string, kind model.EntityKind, fiscalPeriod string, rawBySource map[string]model.SourceReport, now time.Time) *model.EntityConsensus {
	ec := &model.EntityConsensus{
		EntityID:     entityID,
		EntityName:   entityName,
		EntityKind:   kind,
		FiscalPeriod: fiscalPeriod,
		Metrics:      make(map[model.MetricName]model.MetricConsensus, len(model.AllMetrics)),
		ObservedAt:   now,
		ExpiresAt:    now.Add(b.ttl),
	}

	// Stable iteration over sources keeps the output reproducible.
	sourceIDs := make([]string, 0, len(rawBySource))
	for id := range rawBySource {
		sourceIDs = append(sourceIDs, id)
	}
	sort.Strings(sourceIDs)

	var confidenceSum, available int
	for _, metric := range model.AllMetrics {
		obs := make([]model.SourceObservation, 0, len(sourceIDs))
		for _, id := range sourceIDs {
			report := rawBySource[id]
			v, ok := report.Metrics[metric]
			if !ok || v == nil {
				continue
			}
			weight := report.TrustWeight
			if weight == 0 {
				weight = b.trust.Weight(report.SourceID)
			}
			obs = append(obs, model.SourceObservation{
				Value:       v,
				SourceID:    report.SourceID,
				ObservedAt:  report.ObservedAt,
				TrustWeight: weight,
			})
		}

		mc := Reconcile(obs, now)
		ec.Metrics[metric] = mc

		if mc.IsAvailable {
			confidenceSum += mc.Confidence
			available++
		} else {
			ec.DataGaps = append(ec.DataGaps, string(metric))
		}
		if mc.HasWarning {
			ec.VarianceWarnings = append(ec.VarianceWarnings,
				fmt.Sprintf("%s: %s", metric.Label(), mc.WarningReason))
		}
	}

	if available > 0 {
		ec.OverallConfidence = int(math.Round(float64(confidenceSum) / float64(available)))
	}
	ec.SourcesUsed = sourceIDs
	ec.ConfidenceExplanation = explain(ec, rawBySource, now)

	zap.L().Debug("consensus built",
		zap.String("entity", entityID),
		zap.Int("overall_confidence", ec.OverallConfidence),
		zap.Int("available_metrics", available),
		zap.Int("data_gaps", len(ec.DataGaps)),
		zap.Int("variance_warnings", len(ec.VarianceWarnings)),
	)
	return ec
}
