package fold

import "gonum.org/v1/gonum/spatial/r3"

// ParametricCurve is a continuous curve over the parameter range [0, 1].
type ParametricCurve interface {
	// Position returns the point of the curve at t.
	Position(t float64) r3.Vec
	// Differential returns the derivative of the given order at t.
	// Order 0 is the position.
	Differential(t float64, order int) r3.Vec
	// Divide samples the curve into n segments of equal arc length,
	// returning n+1 samples.
	Divide(n int) DividedCurve
}

// LengthRK4 integrates |c'(t)| over the parameter grid ts with the
// fourth order Runge-Kutta rule and returns the total length.
func LengthRK4(c ParametricCurve, ts []float64) float64 {
	if len(ts) < 2 {
		return 0
	}
	length := 0.0
	prevT := ts[0]
	prevDl := r3.Norm(c.Differential(prevT, 1))
	for _, t := range ts[1:] {
		dl := r3.Norm(c.Differential(t, 1))
		dt := t - prevT
		k1 := prevDl
		k2 := r3.Norm(c.Differential((prevT+t)/2, 1))
		k3 := k2
		k4 := dl
		length += dt * (k1 + 2*k2 + 2*k3 + k4) / 6
		prevT, prevDl = t, dl
	}
	return length
}
