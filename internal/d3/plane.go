package d3

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Plane is the set of points x satisfying Normal·x + Distance = 0.
// Normal is unit length or zero for a degenerate plane.
type Plane struct {
	Normal   r3.Vec
	Distance float64
}

// NewPlane returns the plane with the given normal through point.
func NewPlane(normal, point r3.Vec) Plane {
	n := Unit(normal)
	return Plane{Normal: n, Distance: -r3.Dot(n, point)}
}

// SignedDistance returns the distance from p to the plane, positive on
// the side the normal points to.
func (pl Plane) SignedDistance(p r3.Vec) float64 {
	return r3.Dot(pl.Normal, p) + pl.Distance
}

// Ray is a half-line starting at Origin. Direction is unit length or zero.
type Ray struct {
	Origin    r3.Vec
	Direction r3.Vec
}

// NewRay returns a ray from origin heading along dir.
func NewRay(origin, dir r3.Vec) Ray {
	return Ray{Origin: origin, Direction: Unit(dir)}
}

// At returns the point at distance t along the ray.
func (r Ray) At(t float64) r3.Vec {
	return r3.Add(r.Origin, r3.Scale(t, r.Direction))
}

// Raycast intersects the ray's supporting line with the plane. It returns
// the signed distance along the ray and whether the intersection lies
// ahead of the origin (t >= 0). A ray parallel to the plane, or a
// degenerate plane or ray, returns (0, false).
func (pl Plane) Raycast(r Ray) (t float64, ok bool) {
	vdot := r3.Dot(r.Direction, pl.Normal)
	if math.Abs(vdot) < unitEpsilon {
		return 0, false
	}
	t = -pl.SignedDistance(r.Origin) / vdot
	return t, t >= 0
}

// ClosestOnLine returns the point of line a0a1 closest to line b0b1.
// For coplanar lines it is their intersection. Parallel or degenerate
// lines return a0.
func ClosestOnLine(a0, a1, b0, b1 r3.Vec) r3.Vec {
	n1 := Unit(r3.Sub(a1, a0))
	n2 := Unit(r3.Sub(b1, b0))
	dot := r3.Dot(n1, n2)
	den := 1 - dot*dot
	if den < unitEpsilon {
		return a0
	}
	d := r3.Dot(r3.Sub(n1, r3.Scale(dot, n2)), r3.Sub(b0, a0)) / den
	return r3.Add(a0, r3.Scale(d, n1))
}
