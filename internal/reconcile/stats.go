package reconcile

import "sort"

// median returns the middle value of vs (mean of the two middle values for
// even counts). vs is not modified.
func median(vs []float64) float64 {
	if len(vs) == 0 {
		return 0
	}
	sorted := append([]float64(nil), vs...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

// mad returns the median absolute deviation of vs around center.
func mad(vs []float64, center float64) float64 {
	devs := make([]float64, len(vs))
	for i, v := range vs {
		devs[i] = abs(v - center)
	}
	return median(devs)
}

// weightedMedian returns the value at which cumulative weight first reaches
// half of the total weight, with entries sorted ascending by value.
func weightedMedian(values, weights []float64) float64 {
	type pair struct{ v, w float64 }
	pairs := make([]pair, len(values))
	var total float64
	for i := range values {
		pairs[i] = pair{values[i], weights[i]}
		total += weights[i]
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].v < pairs[j].v })

	half := total / 2
	var cum float64
	for _, p := range pairs {
		cum += p.w
		if cum >= half {
			return p.v
		}
	}
	return pairs[len(pairs)-1].v
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
