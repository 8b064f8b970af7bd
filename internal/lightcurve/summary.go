package lightcurve

import (
	"gonum.org/v1/gonum/stat"
)

// Summary carries the scalar metadata returned alongside a processed
// curve: counts for the chart legend plus basic flux statistics.
type Summary struct {
	SampleCount        int     `json:"sample_count"`
	DetectedEventCount int     `json:"detected_event_count"`
	DurationDays       float64 `json:"duration_days"`
	MeanFlux           float64 `json:"mean_flux"`
	StdFlux            float64 `json:"std_flux"`
}

// Summarize computes the summary block for a curve and its detected
// events. Mean and standard deviation are over valid flux values only;
// both are zero for a curve with no valid samples.
func Summarize(lc LightCurve, events []TransitEvent) Summary {
	sum := Summary{
		SampleCount:        lc.Len(),
		DetectedEventCount: len(events),
	}
	if lc.Len() > 0 {
		sum.DurationDays = lc.Samples[lc.Len()-1].Time - lc.Samples[0].Time
	}
	valid := lc.ValidFlux()
	if len(valid) > 0 {
		sum.MeanFlux = stat.Mean(valid, nil)
		sum.StdFlux = stat.StdDev(valid, nil)
	}
	if len(valid) < 2 {
		sum.StdFlux = 0
	}
	return sum
}
