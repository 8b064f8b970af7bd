package lightcurve

import "errors"

// ErrEmptyInput is returned when a statistic (median, MAD) is requested
// over zero valid flux values.
var ErrEmptyInput = errors.New("lightcurve: no valid flux samples")

// ErrDegenerateInput is returned by Detrend when the time values carry no
// variance, so the least-squares slope is undefined.
var ErrDegenerateInput = errors.New("lightcurve: time values have no variance")
