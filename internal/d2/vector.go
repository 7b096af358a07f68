package d2

import (
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// Planar routines for geometry lying on the XZ plane, where developed
// surfaces and paper outlines live.

// XZ projects v along the Y axis. The X coordinate maps to X and Z to Y.
func XZ(v r3.Vec) r2.Vec {
	return r2.Vec{X: v.X, Y: v.Z}
}

// Cross returns the z component of the cross product of a and b.
func Cross(a, b r2.Vec) float64 {
	return a.X*b.Y - a.Y*b.X
}

// SegmentsCross reports whether segments a0a1 and b0b1 properly cross.
// Touching endpoints and collinear overlaps do not count.
func SegmentsCross(a0, a1, b0, b1 r2.Vec) bool {
	da, db := r2.Sub(a1, a0), r2.Sub(b1, b0)
	s1 := Cross(da, r2.Sub(b0, a0))
	t1 := Cross(da, r2.Sub(b1, a0))
	s2 := Cross(db, r2.Sub(a0, b0))
	t2 := Cross(db, r2.Sub(a1, b0))
	return s1*t1 < 0 && s2*t2 < 0
}

// SegmentsCrossXZ is SegmentsCross for segments projected along Y.
func SegmentsCrossXZ(a0, a1, b0, b1 r3.Vec) bool {
	return SegmentsCross(XZ(a0), XZ(a1), XZ(b0), XZ(b1))
}
