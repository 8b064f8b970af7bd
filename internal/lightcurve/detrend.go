package lightcurve

// MinDetrendSamples is the minimum number of valid samples required
// before a linear fit is attempted. Below this the fit is unreliable and
// Detrend returns the curve unchanged; that is a defined no-op, not an
// error.
const MinDetrendSamples = 10

// Detrend removes a linear drift from the flux series. It fits
// flux = slope*time + intercept by ordinary least squares over the valid
// samples, subtracts the fitted trend, and adds back 1.0 so a perfectly
// linear curve comes out flat at unity.
//
// Returns ErrDegenerateInput when all time values are identical (the
// normal-equation denominator vanishes) and the curve is long enough to
// fit.
func Detrend(lc LightCurve) (LightCurve, error) {
	var n float64
	var sumX, sumY, sumXY, sumXX float64
	for _, s := range lc.Samples {
		if !s.Valid() {
			continue
		}
		n++
		sumX += s.Time
		sumY += s.Flux
		sumXY += s.Time * s.Flux
		sumXX += s.Time * s.Time
	}

	if n < MinDetrendSamples {
		return lc, nil
	}

	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return LightCurve{}, ErrDegenerateInput
	}

	slope := (n*sumXY - sumX*sumY) / denom
	intercept := (sumY - slope*sumX) / n

	out := lc.clone()
	for i := range out.Samples {
		s := &out.Samples[i]
		s.Flux = s.Flux - (slope*s.Time + intercept) + 1.0
	}
	return out, nil
}
