// Package lightcurve implements the light-curve processing pipeline:
// median normalisation, linear detrending, and robust transit detection
// over ordered (time, flux, flux_error) samples.
//
// All transformations are pure: they take a curve and return a new curve,
// leaving the input untouched. Detection always runs against the curve it
// is handed, so callers decide whether to normalise or detrend first.
package lightcurve

import (
	"math"
)

// Sample is one observation in a light curve. FluxErr is nil when the
// source had no error column or a null entry for this cadence. A sample
// whose flux is NaN keeps its slot in the sequence but contributes
// nothing to statistics.
type Sample struct {
	Time    float64  `json:"time"`
	Flux    float64  `json:"flux"`
	FluxErr *float64 `json:"flux_err"`
}

// Valid reports whether the sample's flux is usable for statistics.
func (s Sample) Valid() bool {
	return !math.IsNaN(s.Flux) && !math.IsInf(s.Flux, 0)
}

// LightCurve is a time-ordered sequence of flux samples for one
// target/mission pair. Treat it as immutable: transformations return a
// new curve rather than mutating in place, which keeps concurrent reads
// safe without locking.
type LightCurve struct {
	TargetID string   `json:"target_id"`
	Mission  string   `json:"mission"`
	Samples  []Sample `json:"samples"`
}

// New builds a LightCurve from parallel time/flux/flux_err arrays as
// delivered by the data source. fluxErr may be nil (no error column) or
// contain nil entries; time and flux must be the same length.
func New(targetID, mission string, times, flux []float64, fluxErr []*float64) LightCurve {
	n := len(times)
	if len(flux) < n {
		n = len(flux)
	}
	samples := make([]Sample, n)
	for i := 0; i < n; i++ {
		samples[i] = Sample{Time: times[i], Flux: flux[i]}
		if fluxErr != nil && i < len(fluxErr) && fluxErr[i] != nil {
			e := *fluxErr[i]
			samples[i].FluxErr = &e
		}
	}
	return LightCurve{TargetID: targetID, Mission: mission, Samples: samples}
}

// Len returns the total number of samples, valid or not.
func (lc LightCurve) Len() int { return len(lc.Samples) }

// ValidFlux returns the flux values of all valid samples, in time order.
func (lc LightCurve) ValidFlux() []float64 {
	out := make([]float64, 0, len(lc.Samples))
	for _, s := range lc.Samples {
		if s.Valid() {
			out = append(out, s.Flux)
		}
	}
	return out
}

// clone copies the curve, including the pointed-to flux errors, so the
// copy can be modified without aliasing the original.
func (lc LightCurve) clone() LightCurve {
	out := LightCurve{TargetID: lc.TargetID, Mission: lc.Mission}
	out.Samples = make([]Sample, len(lc.Samples))
	for i, s := range lc.Samples {
		out.Samples[i] = Sample{Time: s.Time, Flux: s.Flux}
		if s.FluxErr != nil {
			e := *s.FluxErr
			out.Samples[i].FluxErr = &e
		}
	}
	return out
}
