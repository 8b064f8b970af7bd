package lightcurve

// Normalize rescales the curve so its median flux is 1.0, making curves
// from different instruments comparable. Every sample's flux and flux
// error are divided by the median of the valid flux values. Returns
// ErrEmptyInput when the curve has no valid flux samples.
func Normalize(lc LightCurve) (LightCurve, error) {
	med, err := median(lc.ValidFlux())
	if err != nil {
		return LightCurve{}, err
	}

	out := lc.clone()
	for i := range out.Samples {
		out.Samples[i].Flux /= med
		if out.Samples[i].FluxErr != nil {
			*out.Samples[i].FluxErr /= med
		}
	}
	return out, nil
}
