package mast

import (
	"hash/fnv"
	"math"
	"math/rand"
	"strings"

	"github.com/stellar-data/lightcurve.report/internal/lightcurve"
)

// Synthesize builds a reproducible light curve for a target: unit flux
// with low-frequency stellar variability, white noise, and, for targets
// that look like planet hosts, injected periodic transits. The target id
// seeds everything, so the same target always gets the same curve.
func Synthesize(targetID, mission string) lightcurve.LightCurve {
	seed := targetSeed(targetID)
	rng := rand.New(rand.NewSource(int64(seed)))

	var n int
	var durationDays float64
	switch strings.ToUpper(mission) {
	case "TESS":
		// One TESS sector at two-minute cadence.
		n, durationDays = 2000, 27.0
	case "KEPLER":
		n, durationDays = 4000, 90.0
	default:
		n, durationDays = 1500, 30.0
	}

	times := make([]float64, n)
	flux := make([]float64, n)
	step := durationDays / float64(n-1)
	for i := range times {
		times[i] = float64(i) * step
		flux[i] = 1.0
	}

	// Low-frequency variability with harmonics, then white noise.
	variabilityAmp := 0.001 + float64(seed%100)/50000
	variabilityScale := 2.0 + float64(seed%10)
	for h := 1; h < 5; h++ {
		for i := range flux {
			flux[i] += variabilityAmp * math.Sin(2*math.Pi*times[i]/(variabilityScale*float64(h))) / float64(h)
		}
	}
	noiseLevel := 0.0005 + float64(seed%50)/100000
	for i := range flux {
		flux[i] += rng.NormFloat64() * noiseLevel
	}

	if hasTransits(targetID, seed) {
		injectTransits(times, flux, seed, durationDays)
	}

	fluxErr := make([]*float64, n)
	for i := range fluxErr {
		e := noiseLevel
		fluxErr[i] = &e
	}

	return lightcurve.New(targetID, strings.ToUpper(mission), times, flux, fluxErr)
}

// injectTransits subtracts a box-shaped dip from flux at every transit
// epoch. Period, depth, and duration all derive from the seed.
func injectTransits(times, flux []float64, seed uint32, durationDays float64) {
	period := 2.0 + float64(seed%20)
	depth := 0.002 + float64(seed%100)/100000
	duration := 0.1 + float64(seed%50)/1000
	for t0 := period / 2; t0 < durationDays; t0 += period {
		for i := range flux {
			if math.Abs(times[i]-t0) < duration/2 {
				flux[i] -= depth
			}
		}
	}
}

// hasTransits decides whether a synthetic target hosts a planet. Named
// candidates always do; the rest by seed so roughly a third of targets
// show transits.
func hasTransits(targetID string, seed uint32) bool {
	upper := strings.ToUpper(targetID)
	return strings.Contains(upper, "TOI") || strings.Contains(upper, "KOI") || seed%3 == 0
}

func targetSeed(targetID string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(targetID))
	return h.Sum32()
}
