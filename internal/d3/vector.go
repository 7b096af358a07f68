package d3

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// R3 vector manipulation routines shared by the fold packages.
// Degenerate inputs (zero vectors) map to zero outputs instead of NaN.

// unitEpsilon is the norm below which a vector is considered zero.
const unitEpsilon = 1e-12

// EqualWithin reports whether every component of a and b differs by at
// most tol.
func EqualWithin(a, b r3.Vec, tol float64) bool {
	return math.Abs(a.X-b.X) <= tol &&
		math.Abs(a.Y-b.Y) <= tol &&
		math.Abs(a.Z-b.Z) <= tol
}

// IsZero reports whether a has a negligible norm.
func IsZero(a r3.Vec) bool { return r3.Norm(a) < unitEpsilon }

// Unit returns a scaled to unit length. The zero vector is returned
// for vectors with negligible norm.
func Unit(a r3.Vec) r3.Vec {
	n := r3.Norm(a)
	if n < unitEpsilon {
		return r3.Vec{}
	}
	return r3.Scale(1/n, a)
}

// OrthoNormalize normalizes a and returns b made orthogonal to a and
// normalized. Zero inputs produce zero outputs.
func OrthoNormalize(a, b r3.Vec) (r3.Vec, r3.Vec) {
	a = Unit(a)
	b = r3.Sub(b, r3.Scale(r3.Dot(a, b), a))
	return a, Unit(b)
}

// Angle returns the unsigned angle in radians between a and b.
func Angle(a, b r3.Vec) float64 {
	na, nb := r3.Norm(a), r3.Norm(b)
	if na < unitEpsilon || nb < unitEpsilon {
		return 0
	}
	return math.Acos(clamp(r3.Dot(a, b)/(na*nb), -1, 1))
}

// MinElem return a vector with the minimum components of two vectors.
func MinElem(a, b r3.Vec) r3.Vec {
	return r3.Vec{X: math.Min(a.X, b.X), Y: math.Min(a.Y, b.Y), Z: math.Min(a.Z, b.Z)}
}

// MaxElem return a vector with the maximum components of two vectors.
func MaxElem(a, b r3.Vec) r3.Vec {
	return r3.Vec{X: math.Max(a.X, b.X), Y: math.Max(a.Y, b.Y), Z: math.Max(a.Z, b.Z)}
}

// Clamp x between a and b, assume a <= b
func clamp(x, a, b float64) float64 {
	return math.Min(b, math.Max(x, a))
}

// Set is a collection of points.
type Set []r3.Vec

// Min return the minimum components of a set of vectors.
func (a Set) Min() r3.Vec {
	vmin := a[0]
	for _, v := range a[1:] {
		vmin = MinElem(vmin, v)
	}
	return vmin
}

// Max return the maximum components of a set of vectors.
func (a Set) Max() r3.Vec {
	vmax := a[0]
	for _, v := range a[1:] {
		vmax = MaxElem(vmax, v)
	}
	return vmax
}

// Bounds returns the bounding box of the set.
func (a Set) Bounds() Box {
	return Box{Min: a.Min(), Max: a.Max()}
}
