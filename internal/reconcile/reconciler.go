// Package reconcile turns conflicting per-source observations into a single
// consensus value per metric, with a calibrated confidence score and an
// explicit record of disagreement.
package reconcile

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/sells-group/consensus-engine/internal/model"
)

const (
	// Observations collected more than this long ago are discarded.
	freshnessCutoff = 36 * 30 * 24 * time.Hour

	// Effective weight decays linearly with collection age in hours, down
	// to a floor. The decay keys off when the observation was collected,
	// not the underlying fiscal period; flagged for product review.
	decayPerHour = 0.005
	decayFloor   = 0.3

	// Robust outlier rejection: modified z-score above this is excluded.
	outlierZThreshold = 2.5
	madScale          = 1.4826

	// Variance above this fraction of the consensus value raises a warning.
	varianceWarnThreshold = 0.15
)

type weightedObs struct {
	sourceID  string
	value     float64
	effWeight float64
}

// Reconcile reduces all source observations for one metric to a single
// MetricConsensus. It never returns an error: missing or unusable input
// degrades to IsAvailable=false. Output is deterministic for identical
// inputs.
func Reconcile(observations []model.SourceObservation, now time.Time) model.MetricConsensus {
	cutoff := now.Add(-freshnessCutoff)

	// Freshness filter.
	var survivors []weightedObs
	for _, obs := range observations {
		if obs.Value == nil || math.IsNaN(*obs.Value) || math.IsInf(*obs.Value, 0) {
			continue
		}
		if obs.ObservedAt.Before(cutoff) {
			continue
		}
		survivors = append(survivors, weightedObs{
			sourceID:  obs.SourceID,
			value:     *obs.Value,
			effWeight: obs.TrustWeight * freshnessFactor(obs.ObservedAt, now),
		})
	}
	if len(survivors) == 0 {
		return model.MetricConsensus{IsAvailable: false, Confidence: 0}
	}

	// Outlier rejection via median absolute deviation.
	cleaned, removed := rejectOutliers(survivors)

	values := make([]float64, len(cleaned))
	weights := make([]float64, len(cleaned))
	for i, o := range cleaned {
		values[i] = o.value
		weights[i] = o.effWeight
	}

	consensus := weightedMedian(values, weights)

	// Variance: raw spread of the cleaned set relative to the consensus.
	variance := 0.0
	if consensus != 0 {
		lo, hi := values[0], values[0]
		for _, v := range values {
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
		variance = (hi - lo) / abs(consensus)
	}
	varianceWarn := variance > varianceWarnThreshold

	// Confidence score.
	var weightSum float64
	for _, w := range weights {
		weightSum += w
	}
	avgWeight := weightSum / float64(len(cleaned))

	agreementBonus := 0.0
	if !varianceWarn {
		agreementBonus = 10
	}
	multiSourceBonus := 0.0
	switch {
	case len(cleaned) >= 3:
		multiSourceBonus = 15
	case len(cleaned) == 2:
		multiSourceBonus = 8
	}
	outlierPenalty := 5 * float64(len(removed))

	confidence := int(math.Round(avgWeight*70 + agreementBonus + multiSourceBonus - outlierPenalty))
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 100 {
		confidence = 100
	}

	contributing := make([]model.ContributingSource, len(cleaned))
	for i, o := range cleaned {
		contributing[i] = model.ContributingSource{
			SourceID: o.sourceID,
			RawValue: o.value,
			Weight:   o.effWeight,
		}
	}

	variancePct := variance * 100
	mc := model.MetricConsensus{
		Value:               &consensus,
		Confidence:          confidence,
		VariancePercent:     &variancePct,
		HasWarning:          varianceWarn || len(removed) > 0,
		ContributingSources: contributing,
		IsAvailable:         true,
	}
	mc.WarningReason = warningReason(varianceWarn, variancePct, removed)
	return mc
}

// freshnessFactor decays linearly from 1.0 toward a floor as the observation
// ages, by wall-clock hours since collection.
func freshnessFactor(observedAt, now time.Time) float64 {
	hours := now.Sub(observedAt).Hours()
	if hours <= 0 {
		return 1.0
	}
	f := 1 - hours*decayPerHour
	if f < decayFloor {
		return decayFloor
	}
	return f
}

// rejectOutliers removes observations whose modified z-score exceeds the
// threshold. Rejection is skipped entirely when two or fewer observations
// remain, or when MAD collapses to zero (identical values would otherwise
// all be rejected).
func rejectOutliers(obs []weightedObs) (cleaned, removed []weightedObs) {
	if len(obs) <= 2 {
		return obs, nil
	}
	values := make([]float64, len(obs))
	for i, o := range obs {
		values[i] = o.value
	}
	med := median(values)
	spread := mad(values, med)
	if spread == 0 {
		return obs, nil
	}
	threshold := outlierZThreshold * madScale * spread
	for _, o := range obs {
		if abs(o.value-med) > threshold {
			removed = append(removed, o)
		} else {
			cleaned = append(cleaned, o)
		}
	}
	if len(cleaned) == 0 {
		return obs, nil
	}
	return cleaned, removed
}

func warningReason(varianceWarn bool, variancePct float64, removed []weightedObs) string {
	var parts []string
	if varianceWarn {
		parts = append(parts, fmt.Sprintf("sources disagree by %.1f%%", variancePct))
	}
	if len(removed) > 0 {
		excluded := make([]string, len(removed))
		for i, o := range removed {
			excluded[i] = fmt.Sprintf("%s=%g", o.sourceID, o.value)
		}
		parts = append(parts, "excluded outliers: "+strings.Join(excluded, ", "))
	}
	return strings.Join(parts, "; ")
}
