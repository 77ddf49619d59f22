package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMedian(t *testing.T) {
	assert.Equal(t, 0.0, median(nil))
	assert.Equal(t, 5.0, median([]float64{5}))
	assert.Equal(t, 110.0, median([]float64{500, 100, 110}))
	assert.Equal(t, 105.0, median([]float64{110, 100}))
}

func TestMedian_DoesNotMutateInput(t *testing.T) {
	in := []float64{3, 1, 2}
	median(in)
	assert.Equal(t, []float64{3, 1, 2}, in)
}

func TestMAD(t *testing.T) {
	// Values {100, 110, 500} around median 110: deviations {10, 0, 390}.
	assert.Equal(t, 10.0, mad([]float64{100, 110, 500}, 110))
	assert.Equal(t, 0.0, mad([]float64{7, 7, 7}, 7))
}

func TestWeightedMedian(t *testing.T) {
	// Single value.
	assert.Equal(t, 42.0, weightedMedian([]float64{42}, []float64{0.5}))

	// Cumulative weight reaches half of 1.7 (0.85) at the first sorted
	// value.
	assert.Equal(t, 100.0, weightedMedian([]float64{110, 100}, []float64{0.8, 0.9}))

	// Heavier tail pulls the median right.
	assert.Equal(t, 110.0, weightedMedian([]float64{100, 110}, []float64{0.2, 0.9}))
}

func TestWeightedMedian_EqualWeights(t *testing.T) {
	// With equal weights the first value already holds half the total.
	assert.Equal(t, 100.0, weightedMedian([]float64{115, 100}, []float64{1, 1}))
}
