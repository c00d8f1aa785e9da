// Package units provides shared constants and conversions for angle units.
//
// The arm speaks radians on the wire; configuration files and the HTTP API
// speak degrees because that is what operators reason in. Everything that
// crosses that boundary goes through this package.
package units

import (
	"math"

	"gonum.org/v1/gonum/floats/scalar"
)

// Unit constants
const (
	Radians = "rad"
	Degrees = "deg"
)

// ValidUnits contains all valid angle unit values
var ValidUnits = []string{Radians, Degrees}

// IsValid checks if the given unit is in the list of valid units
func IsValid(unit string) bool {
	for _, validUnit := range ValidUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// DegToRad converts an angle in degrees to radians.
func DegToRad(deg float64) float64 {
	return deg * math.Pi / 180.0
}

// RadToDeg converts an angle in radians to degrees.
func RadToDeg(rad float64) float64 {
	return rad * 180.0 / math.Pi
}

// ConvertAngle converts an angle stored in radians to the target units.
// Status frames carry radians; unknown units fall back to radians.
func ConvertAngle(rad float64, targetUnits string) float64 {
	switch targetUnits {
	case Degrees:
		return RadToDeg(rad)
	case Radians:
		return rad
	default:
		return rad
	}
}

// WithinTolerance reports whether two angles in radians agree to within tol
// radians.
func WithinTolerance(a, b, tol float64) bool {
	return scalar.EqualWithinAbs(a, b, tol)
}
