package lightcurve

// Options selects which pipeline stages run before detection. Both
// stages recompute from the curve they are handed in the fixed
// normalise-then-detrend order, so the result is always a pure function
// of the original curve, never of a previous toggle's output.
type Options struct {
	Normalize bool `json:"normalize"`
	Detrend   bool `json:"detrend"`
}

// Process applies the enabled stages to lc and runs detection on the
// result. Detection sees the curve exactly as transformed, so toggling
// either stage changes which events are found.
func Process(det Detector, lc LightCurve, opts Options) (LightCurve, []TransitEvent, error) {
	cur := lc
	var err error
	if opts.Normalize {
		cur, err = Normalize(cur)
		if err != nil {
			return LightCurve{}, nil, err
		}
	}
	if opts.Detrend {
		cur, err = Detrend(cur)
		if err != nil {
			return LightCurve{}, nil, err
		}
	}
	events, err := det.Detect(cur)
	if err != nil {
		return LightCurve{}, nil, err
	}
	return cur, events, nil
}
