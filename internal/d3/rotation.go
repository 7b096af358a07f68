package d3

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Rotation is a unit quaternion rotation. Unlike r3.Rotation the
// constructors in this package never produce NaN for degenerate input:
// a zero axis or zero vector yields the identity rotation.
//
// Composition follows quaternion multiplication: q.Mul(p) applies p first.
type Rotation r3.Rotation

// Identity returns the rotation that leaves vectors unchanged.
func Identity() Rotation { return Rotation{Real: 1} }

// AngleAxis returns the rotation of angle radians about axis.
// The rotation of v is v cos(angle) + (axis×v) sin(angle) + ...
// for a unit axis.
func AngleAxis(angle float64, axis r3.Vec) Rotation {
	if IsZero(axis) || angle == 0 {
		return Identity()
	}
	return Rotation(r3.NewRotation(angle, axis))
}

// FromTo returns the shortest rotation taking the direction of from onto
// the direction of to. Antiparallel inputs rotate half a turn about an
// arbitrary perpendicular axis.
func FromTo(from, to r3.Vec) Rotation {
	from, to = Unit(from), Unit(to)
	if from == (r3.Vec{}) || to == (r3.Vec{}) {
		return Identity()
	}
	const eps = 1e-12
	var axis r3.Vec
	w := r3.Dot(from, to) + 1
	if w < eps {
		w = 0
		if math.Abs(from.X) > math.Abs(from.Z) {
			axis = r3.Vec{X: -from.Y, Y: from.X}
		} else {
			axis = r3.Vec{Y: -from.Z, Z: from.Y}
		}
	} else {
		axis = r3.Cross(from, to)
	}
	return Rotation{Real: w, Imag: axis.X, Jmag: axis.Y, Kmag: axis.Z}.normalize()
}

// Apply rotates v.
func (q Rotation) Apply(v r3.Vec) r3.Vec {
	return r3.Rotation(q).Rotate(v)
}

// Mul returns the rotation that applies p and then q.
func (q Rotation) Mul(p Rotation) Rotation {
	return Rotation(quat.Mul(quat.Number(q), quat.Number(p))).normalize()
}

// Inverse returns the inverse rotation of q.
func (q Rotation) Inverse() Rotation {
	return Rotation(quat.Conj(quat.Number(q))).normalize()
}

// Vector returns the rotation vector of q: its axis scaled by the angle of
// the shorter arc in radians.
func (q Rotation) Vector() r3.Vec {
	if q.Real < 0 {
		q = Rotation(quat.Scale(-1, quat.Number(q)))
	}
	imag := r3.Vec{X: q.Imag, Y: q.Jmag, Z: q.Kmag}
	s := r3.Norm(imag)
	if s < unitEpsilon {
		return r3.Scale(2, imag)
	}
	return r3.Scale(2*math.Atan2(s, q.Real)/s, imag)
}

// Nlerp returns the normalized linear interpolation between a and b.
// t is clamped to [0,1] and the shorter arc is taken.
func Nlerp(a, b Rotation, t float64) Rotation {
	t = clamp(t, 0, 1)
	qa, qb := quat.Number(a), quat.Number(b)
	if qa.Real*qb.Real+qa.Imag*qb.Imag+qa.Jmag*qb.Jmag+qa.Kmag*qb.Kmag < 0 {
		qb = quat.Scale(-1, qb)
	}
	q := quat.Add(quat.Scale(1-t, qa), quat.Scale(t, qb))
	return Rotation(q).normalize()
}

func (q Rotation) normalize() Rotation {
	n := quat.Abs(quat.Number(q))
	if n < unitEpsilon {
		return Identity()
	}
	return Rotation(quat.Scale(1/n, quat.Number(q)))
}

// rotationFromMatrix returns the rotation of an orthonormal 3x3
// matrix given in row-major order.
func rotationFromMatrix(m00, m01, m02, m10, m11, m12, m20, m21, m22 float64) Rotation {
	var q Rotation
	trace := m00 + m11 + m22
	switch {
	case trace > 0:
		s := 0.5 / math.Sqrt(trace+1)
		q.Real = 0.25 / s
		q.Imag = (m21 - m12) * s
		q.Jmag = (m02 - m20) * s
		q.Kmag = (m10 - m01) * s
	case m00 > m11 && m00 > m22:
		s := 2 * math.Sqrt(1+m00-m11-m22)
		q.Real = (m21 - m12) / s
		q.Imag = 0.25 * s
		q.Jmag = (m01 + m10) / s
		q.Kmag = (m02 + m20) / s
	case m11 > m22:
		s := 2 * math.Sqrt(1+m11-m00-m22)
		q.Real = (m02 - m20) / s
		q.Imag = (m01 + m10) / s
		q.Jmag = 0.25 * s
		q.Kmag = (m12 + m21) / s
	default:
		s := 2 * math.Sqrt(1+m22-m00-m11)
		q.Real = (m10 - m01) / s
		q.Imag = (m02 + m20) / s
		q.Jmag = (m12 + m21) / s
		q.Kmag = 0.25 * s
	}
	return q.normalize()
}
