// Package units provides shared constants and conversions between the
// scanner's fixed-point wire units and the SI units used everywhere else.
package units

import "math"

// Angle unit constants accepted by display and CLI code.
const (
	Radians = "rad"
	Degrees = "deg"
)

// ValidAngleUnits contains all valid angle unit values
var ValidAngleUnits = []string{Radians, Degrees}

// IsValidAngleUnit checks if the given unit is in the list of valid angle units
func IsValidAngleUnit(unit string) bool {
	for _, validUnit := range ValidAngleUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// GetValidAngleUnitsString returns a comma-separated string of valid units for error messages
func GetValidAngleUnitsString() string {
	return "rad, deg"
}

// ConvertAngle converts an angle in radians to the target units.
// Unknown units fall back to radians.
func ConvertAngle(rad float64, targetUnits string) float64 {
	switch targetUnits {
	case Degrees:
		return RadToDeg(rad)
	default:
		return rad
	}
}

const (
	// HalfTurn is π radians.
	HalfTurn = math.Pi
	// QuarterTurn is π/2 radians.
	QuarterTurn = math.Pi / 2
	// FullTurn is 2π radians.
	FullTurn = 2 * math.Pi
)

// DegToRad converts degrees to radians.
func DegToRad(deg float64) float64 { return deg * math.Pi / 180.0 }

// RadToDeg converts radians to degrees.
func RadToDeg(rad float64) float64 { return rad * 180.0 / math.Pi }

// MillimetersToMeters converts a scanner range reading (1 mm per LSB).
func MillimetersToMeters(mm uint16) float64 {
	return float64(mm) / 1000.0
}

// CentidegreesToRadians converts a scanner bearing (0.01° per LSB).
func CentidegreesToRadians(cdeg uint16) float64 {
	return DegToRad(float64(cdeg) / 100.0)
}

// WrapTwoPi wraps an angle into [0, 2π). Non-finite input yields 0.
func WrapTwoPi(a float64) float64 {
	return wrap(a, FullTurn)
}

func wrap(a, period float64) float64 {
	if math.IsNaN(a) || math.IsInf(a, 0) {
		return 0
	}
	a = math.Mod(a, period)
	if a < 0 {
		a += period
	}
	// math.Mod of a tiny negative value can round back up to the period.
	if a >= period {
		a = 0
	}
	return a
}
