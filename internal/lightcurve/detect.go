package lightcurve

import "math"

// Detector default tuning. DefaultSigma is the documented multiplier for
// the median - sigma*MAD threshold; it can be raised or lowered per
// deployment through the tuning config without changing the detection
// contract.
const (
	DefaultSigma      = 3.0
	DefaultMinSamples = 100
	DefaultDepthSpan  = 10
)

// TransitEvent is one detected dip. Start and End are the time values of
// the first and last below-threshold sample of the contiguous run. Depth
// is the difference between the curve's median flux and the minimum flux
// in a small window around the run's exit.
type TransitEvent struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Depth float64 `json:"depth"`
}

// Detector flags contiguous low-flux runs as transit events using a
// robust median/MAD outlier threshold. The zero value is not useful; use
// NewDetector for the documented defaults.
type Detector struct {
	// Sigma is the MAD multiplier: threshold = median - Sigma*MAD.
	Sigma float64
	// MinSamples is the curve length below which detection is skipped
	// and an empty event list returned. Below roughly a hundred points
	// the MAD threshold is statistically meaningless.
	MinSamples int
	// DepthSpan is the half-width, in samples, of the window around a
	// run's exit used to measure event depth.
	DepthSpan int
}

// NewDetector returns a Detector with the default tuning.
func NewDetector() Detector {
	return Detector{Sigma: DefaultSigma, MinSamples: DefaultMinSamples, DepthSpan: DefaultDepthSpan}
}

// Detect scans the curve in time order and returns the closed transit
// events found. A run still open at the end of the sequence is dropped:
// a trailing partial transit has no defined end time. Detection runs
// against the curve exactly as given, so normalise or detrend first if
// that is what the caller wants thresholded.
//
// MAD = 0 is not an error; it collapses the threshold onto the median so
// only strictly lower flux values register. ErrEmptyInput is returned
// only when there are zero valid flux values on a curve long enough to
// detect on.
func (d Detector) Detect(lc LightCurve) ([]TransitEvent, error) {
	if lc.Len() < d.MinSamples {
		return []TransitEvent{}, nil
	}

	valid := lc.ValidFlux()
	med, err := median(valid)
	if err != nil {
		return nil, err
	}
	dev, err := mad(valid, med)
	if err != nil {
		return nil, err
	}
	threshold := med - d.Sigma*dev

	events := []TransitEvent{}
	inTransit := false
	var start float64
	var lastBelow int

	for i, s := range lc.Samples {
		switch {
		case !inTransit && s.Flux < threshold:
			// Strict < on entry: a sample exactly at the threshold
			// never opens a run.
			inTransit = true
			start = s.Time
			lastBelow = i
		case inTransit && s.Flux >= threshold:
			events = append(events, TransitEvent{
				Start: start,
				End:   lc.Samples[lastBelow].Time,
				Depth: med - d.windowMin(lc, i),
			})
			inTransit = false
		case inTransit && s.Flux < threshold:
			lastBelow = i
		}
		// Invalid samples fail both comparisons and leave the state
		// unchanged: they occupy a time slot but contribute no flux.
	}

	return events, nil
}

// windowMin returns the minimum valid flux in [i-DepthSpan, i+DepthSpan]
// clamped to the sample range.
func (d Detector) windowMin(lc LightCurve, i int) float64 {
	lo := i - d.DepthSpan
	if lo < 0 {
		lo = 0
	}
	hi := i + d.DepthSpan
	if hi > len(lc.Samples)-1 {
		hi = len(lc.Samples) - 1
	}
	min := math.Inf(1)
	for j := lo; j <= hi; j++ {
		if s := lc.Samples[j]; s.Valid() && s.Flux < min {
			min = s.Flux
		}
	}
	return min
}
