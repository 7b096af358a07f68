package fold

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

const (
	pi  = math.Pi
	tau = 2 * pi
	// epsilon is the magnitude under which a denominator is treated as zero.
	epsilon = 1e-12
)

var (
	// ErrTooFewSamples is returned when a curve needs more samples than given.
	ErrTooFewSamples = errors.New("too few curve samples")
	// ErrTooFewControlPoints is returned by curve constructors given
	// fewer than two control points.
	ErrTooFewControlPoints = errors.New("too few control points")
)

// Clamp x between a and b, assume a <= b
func Clamp(x, a, b float64) float64 {
	if x < a {
		return a
	}
	if x > b {
		return b
	}
	return x
}

// Sign returns the sheet sign of x: -1 for negative x and +1 otherwise.
// Zero is positive so a flat sample never flips a fold side.
func Sign(x float64) float64 {
	if x < 0 {
		return -1
	}
	return 1
}

// nearZero reports whether x is negligible as a denominator.
func nearZero(x float64) bool {
	return math.Abs(x) < epsilon
}

// EqualFloat64 compares two float64 values for equality within an
// absolute tolerance scaled by their magnitude.
func EqualFloat64(a, b, tol float64) bool {
	if a == b {
		return true
	}
	scale := math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
	return math.Abs(a-b) <= tol*scale
}

// CotToSinCos converts a cotangent to a (cos, sin) pair with a
// non-negative sine. NaN maps to (0, 1), a right angle.
func CotToSinCos(cot float64) r2.Vec {
	if math.IsNaN(cot) {
		return r2.Vec{X: 0, Y: 1}
	}
	if math.IsInf(cot, 0) {
		return r2.Vec{X: Sign(cot), Y: 0}
	}
	s := 1 / math.Sqrt(1+cot*cot)
	return r2.Vec{X: cot * s, Y: s}
}

// SinCos returns the (cos, sin) pair of an angle in radians.
func SinCos(radians float64) r2.Vec {
	s, c := math.Sincos(radians)
	return r2.Vec{X: c, Y: s}
}

// Radians returns the angle of a (cos, sin) pair.
func Radians(sc r2.Vec) float64 {
	return math.Atan2(sc.Y, sc.X)
}
