package lightcurve

import (
	"math"
	"sort"
)

// median computes the median by sorting and taking the element at index
// len/2. For even counts this selects a single middle element rather than
// averaging the two candidates; the charting layer and the detection
// threshold both depend on this exact convention, so do not "fix" it to
// the textbook definition.
func median(values []float64) (float64, error) {
	if len(values) == 0 {
		return 0, ErrEmptyInput
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return sorted[len(sorted)/2], nil
}

// mad computes the median absolute deviation around med, using the same
// single-element median convention.
func mad(values []float64, med float64) (float64, error) {
	if len(values) == 0 {
		return 0, ErrEmptyInput
	}
	devs := make([]float64, len(values))
	for i, v := range values {
		devs[i] = math.Abs(v - med)
	}
	return median(devs)
}
