package d3

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Transform represents a 3D affine transformation such as the one mapping
// a crease curve onto its handle curve.
// The zero value of Transform is the identity transform.
type Transform struct {
	// in order to make the zero value of Transform represent the identity
	// transform we store it with the identity matrix subtracted.
	// These diagonal elements are subtracted such that
	//  d00 = x00-1, d11 = x11-1, d22 = x22-1, d33 = x33-1
	// where x00, x11, x22, x33 are the matrix diagonal elements.
	// We can then check for identity in if blocks like so:
	//  if T == (Transform{})
	d00, x01, x02, x03 float64
	x10, d11, x12, x13 float64
	x20, x21, d22, x23 float64
	x30, x31, x32, d33 float64
}

// Apply applies the Transform to the point v and returns the result.
func (t Transform) Apply(v r3.Vec) r3.Vec {
	// https://github.com/mrdoob/three.js/blob/dev/src/math/Vector3.js#L262
	w := 1 / (t.x30*v.X + t.x31*v.Y + t.x32*v.Z + t.d33 + 1)
	return r3.Vec{
		X: ((t.d00+1)*v.X + t.x01*v.Y + t.x02*v.Z + t.x03) * w,
		Y: (t.x10*v.X + (t.d11+1)*v.Y + t.x12*v.Z + t.x13) * w,
		Z: (t.x20*v.X + t.x21*v.Y + (t.d22+1)*v.Z + t.x23) * w,
	}
}

// ComposeTransform creates a new transform for a given translation to
// position, scaling vector scale and rotation q.
// The identity Transform is constructed with
//  ComposeTransform(Vec{}, Vec{1,1,1}, Identity())
func ComposeTransform(position, scale r3.Vec, q Rotation) Transform {
	x2 := q.Imag + q.Imag
	y2 := q.Jmag + q.Jmag
	z2 := q.Kmag + q.Kmag
	xx := q.Imag * x2
	yy := q.Jmag * y2
	zz := q.Kmag * z2
	xy := q.Imag * y2
	xz := q.Imag * z2
	yz := q.Jmag * z2
	wx := q.Real * x2
	wy := q.Real * y2
	wz := q.Real * z2

	var t Transform
	t.d00 = (1-(yy+zz))*scale.X - 1
	t.x10 = (xy + wz) * scale.X
	t.x20 = (xz - wy) * scale.X

	t.x01 = (xy - wz) * scale.Y
	t.d11 = (1-(xx+zz))*scale.Y - 1
	t.x21 = (yz + wx) * scale.Y

	t.x02 = (xz + wy) * scale.Z
	t.x12 = (yz - wx) * scale.Z
	t.d22 = (1-(xx+yy))*scale.Z - 1

	t.x03 = position.X
	t.x13 = position.Y
	t.x23 = position.Z
	return t
}

// Translate adds Vec to the positional Transform.
func (t Transform) Translate(v r3.Vec) Transform {
	t.x03 += v.X
	t.x13 += v.Y
	t.x23 += v.Z
	return t
}

// LossyScale returns the length of each transformed basis axis.
// Shear and reflection are not recovered.
func (t Transform) LossyScale() r3.Vec {
	return r3.Vec{
		X: math.Sqrt((t.d00+1)*(t.d00+1) + t.x10*t.x10 + t.x20*t.x20),
		Y: math.Sqrt(t.x01*t.x01 + (t.d11+1)*(t.d11+1) + t.x21*t.x21),
		Z: math.Sqrt(t.x02*t.x02 + t.x12*t.x12 + (t.d22+1)*(t.d22+1)),
	}
}

// Rotation returns the rotation part of the transform after removing
// the per-axis scale. A singular transform returns the identity.
func (t Transform) Rotation() Rotation {
	s := t.LossyScale()
	if s.X < unitEpsilon || s.Y < unitEpsilon || s.Z < unitEpsilon {
		return Identity()
	}
	return rotationFromMatrix(
		(t.d00+1)/s.X, t.x01/s.Y, t.x02/s.Z,
		t.x10/s.X, (t.d11+1)/s.Y, t.x12/s.Z,
		t.x20/s.X, t.x21/s.Y, (t.d22+1)/s.Z,
	)
}
