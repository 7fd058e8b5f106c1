package outlier

import (
	"math"
	"sort"
)

// Quantile returns the p-quantile of values using linear interpolation between
// the closest ranks at position (n-1)*p. values need not be sorted and is not modified.
// The result is NaN for an empty input.
func Quantile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return quantileSorted(sorted, p)
}

func quantileSorted(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	pos := float64(len(sorted)-1) * p
	lo := math.Floor(pos)
	hi := math.Ceil(pos)
	a := sorted[int(lo)]
	b := sorted[int(hi)]
	return a + (b-a)*(pos-lo)
}

// Quartiles returns Q1, the median and Q3 of values.
func Quartiles(values []float64) (q1, median, q3 float64) {
	if len(values) == 0 {
		nan := math.NaN()
		return nan, nan, nan
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return quantileSorted(sorted, 0.25), quantileSorted(sorted, 0.5), quantileSorted(sorted, 0.75)
}
