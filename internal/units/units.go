// Package units provides shared constants and validation for flux-depth units
package units

// Unit constants. The pipeline works in relative (dimensionless) flux;
// ppm is the convention most transit catalogues publish depths in.
const (
	Relative = "rel"
	PPM      = "ppm"
	Percent  = "percent"
)

// ValidUnits contains all valid depth unit values
var ValidUnits = []string{Relative, PPM, Percent}

// IsValid checks if the given unit is in the list of valid units
func IsValid(unit string) bool {
	for _, validUnit := range ValidUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// GetValidUnitsString returns a comma-separated string of valid units for error messages
func GetValidUnitsString() string {
	return "rel, ppm, percent"
}

// ConvertDepth converts a transit depth from relative flux to the target units.
// The pipeline and database always carry relative flux.
func ConvertDepth(depthRel float64, targetUnits string) float64 {
	switch targetUnits {
	case PPM:
		return depthRel * 1e6
	case Percent:
		return depthRel * 100
	case Relative:
		return depthRel
	default:
		return depthRel
	}
}

// DaysToHours converts a duration expressed in days (the time axis unit of
// mission light curves) to hours for display.
func DaysToHours(days float64) float64 {
	return days * 24
}
