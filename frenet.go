package fold

import (
	"math"

	"github.com/soypat/fold/internal/d3"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// FrenetFrame is the moving orthonormal frame of a space curve.
// It is right handed with Normal = Binormal × Tangent.
//
// A ruling direction r is encoded relative to a frame by two angle pairs
// stored as (cos, sin) in an r2.Vec:
//  r = β.X·T + β.Y·(α.X·N + α.Y·B)
// β is the angle between the ruling and the tangent, α the rotation of the
// ruling about the tangent measured from the normal toward the binormal.
type FrenetFrame struct {
	Tangent  r3.Vec
	Normal   r3.Vec
	Binormal r3.Vec
}

// IdentityFrame returns the frame with tangent +Z, normal +X and binormal +Y.
// Curves reconstructed without torsion from this frame lie in the XZ plane.
func IdentityFrame() FrenetFrame {
	return FrenetFrame{
		Tangent:  r3.Vec{Z: 1},
		Normal:   r3.Vec{X: 1},
		Binormal: r3.Vec{Y: 1},
	}
}

// OrthoFrame builds a frame from a tangent and an approximate binormal
// using Gram-Schmidt. Zero inputs produce zero axes, never NaN.
func OrthoFrame(tangent, binormal r3.Vec) FrenetFrame {
	tangent, binormal = d3.OrthoNormalize(tangent, binormal)
	return FrenetFrame{
		Tangent:  tangent,
		Normal:   r3.Cross(binormal, tangent),
		Binormal: binormal,
	}
}

// Negate returns the frame with every axis reversed.
func (f FrenetFrame) Negate() FrenetFrame {
	return FrenetFrame{
		Tangent:  r3.Scale(-1, f.Tangent),
		Normal:   r3.Scale(-1, f.Normal),
		Binormal: r3.Scale(-1, f.Binormal),
	}
}

// Rotated returns the frame with every axis rotated by q.
func (f FrenetFrame) Rotated(q d3.Rotation) FrenetFrame {
	return FrenetFrame{
		Tangent:  q.Apply(f.Tangent),
		Normal:   q.Apply(f.Normal),
		Binormal: q.Apply(f.Binormal),
	}
}

// EqualWithin reports whether all axes of f and g match within tol.
func (f FrenetFrame) EqualWithin(g FrenetFrame, tol float64) bool {
	return equalVec(f.Tangent, g.Tangent, tol) &&
		equalVec(f.Normal, g.Normal, tol) &&
		equalVec(f.Binormal, g.Binormal, tol)
}

func equalVec(a, b r3.Vec, tol float64) bool {
	return EqualFloat64(a.X, b.X, tol) && EqualFloat64(a.Y, b.Y, tol) && EqualFloat64(a.Z, b.Z, tol)
}

// Rotate advances the frame along an arc of the given length: the
// tangent turns about the binormal by curvature·arcLength and the binormal
// turns about the tangent by torsion·arcLength.
//
// Both turns happen at once as a single rotation of the whole frame about
// the Darboux vector τT + κB by |(κ,τ)|·arcLength. This is exact for an
// arc of constant curvature and torsion and keeps the frame orthonormal.
// Without torsion it reduces to turning the tangent about the fixed
// binormal.
func (f FrenetFrame) Rotate(curvature, torsion, arcLength float64) FrenetFrame {
	if torsion*arcLength == 0 {
		t := d3.AngleAxis(curvature*arcLength, f.Binormal).Apply(f.Tangent)
		return FrenetFrame{Tangent: t, Normal: r3.Cross(f.Binormal, t), Binormal: f.Binormal}
	}
	darboux := r3.Add(r3.Scale(torsion, f.Tangent), r3.Scale(curvature, f.Binormal))
	return f.Rotated(d3.AngleAxis(r3.Norm(darboux)*arcLength, darboux))
}

// TowardRotation returns the rotation taking from onto to. The tangents are
// aligned first and the binormals second, so for orthonormal frames the
// rotated from equals to.
func TowardRotation(from, to FrenetFrame) d3.Rotation {
	tangentRot := d3.FromTo(from.Tangent, to.Tangent)
	tmp := from.Rotated(tangentRot)
	binormalRot := d3.FromTo(tmp.Binormal, to.Binormal)
	return binormalRot.Mul(tangentRot)
}

// RotationBetween returns the discrete curvature and torsion that turn prev
// into next over arcLength, the inverse of Rotate for orthonormal frames.
// A zero arcLength returns zeros.
func RotationBetween(prev, next FrenetFrame, arcLength float64) (curvature, torsion float64) {
	if nearZero(arcLength) {
		return 0, 0
	}
	v := TowardRotation(prev, next).Vector()
	return r3.Dot(v, prev.Binormal) / arcLength, r3.Dot(v, prev.Tangent) / arcLength
}

// RulingSinCos returns the unit ruling direction encoded by alpha and beta.
func (f FrenetFrame) RulingSinCos(alpha, beta r2.Vec) r3.Vec {
	return r3.Add(
		r3.Scale(beta.X, f.Tangent),
		r3.Scale(beta.Y, r3.Add(r3.Scale(alpha.X, f.Normal), r3.Scale(alpha.Y, f.Binormal))),
	)
}

// Ruling returns the ruling direction for alpha and beta given in radians.
func (f FrenetFrame) Ruling(alpha, beta float64) r3.Vec {
	return f.RulingSinCos(SinCos(alpha), SinCos(beta))
}

// AlphaSinCos returns the (cos, sin) of the ruling's rotation about the
// tangent. A ruling parallel to the tangent returns (0, 0).
func (f FrenetFrame) AlphaSinCos(ruling r3.Vec) r2.Vec {
	rt := d3.Unit(r3.Cross(ruling, f.Tangent))
	return r2.Vec{
		X: r3.Dot(rt, r3.Scale(-1, f.Binormal)),
		Y: r3.Dot(rt, f.Normal),
	}
}

// BetaSinCos returns the (cos, sin) of the angle between ruling and tangent.
// The sine is never negative.
func (f FrenetFrame) BetaSinCos(ruling r3.Vec) r2.Vec {
	rn := d3.Unit(ruling)
	return r2.Vec{
		X: r3.Dot(rn, f.Tangent),
		Y: r3.Norm(r3.Cross(rn, f.Tangent)),
	}
}

// Alpha returns the alpha angle of ruling in radians.
func (f FrenetFrame) Alpha(ruling r3.Vec) float64 { return Radians(f.AlphaSinCos(ruling)) }

// Beta returns the beta angle of ruling in radians.
func (f FrenetFrame) Beta(ruling r3.Vec) float64 { return Radians(f.BetaSinCos(ruling)) }

// FoldRuling returns the direction of the ruling on the other side of the
// crease that keeps both sheets developable across the fold.
func (f FrenetFrame) FoldRuling(ruling r3.Vec, curvature, torsion float64) r3.Vec {
	alpha := f.AlphaSinCos(ruling)
	beta := f.BetaSinCos(ruling)
	return f.RulingSinCos(FoldAlpha(alpha), FoldBeta(beta, alpha, curvature, torsion))
}

// FoldAlpha mirrors alpha about the binormal.
func FoldAlpha(alpha r2.Vec) r2.Vec {
	return r2.Vec{X: -alpha.X, Y: alpha.Y}
}

// FoldBeta returns the beta of the fold ruling given the beta and alpha of
// the handle ruling. The fold relation is
//  cot βs = 2τ/(κ·α.Y) − cot β
// When κ·α.Y·β.Y vanishes the result degenerates to a ruling along the
// tangent, (±1, 0), signed by the numerator.
func FoldBeta(beta, alpha r2.Vec, curvature, torsion float64) r2.Vec {
	num := 2*torsion*beta.Y - curvature*alpha.Y*beta.X
	den := curvature * alpha.Y * beta.Y
	if nearZero(den) {
		return r2.Vec{X: Sign(num), Y: 0}
	}
	cot := num / den
	s := 1 / math.Sqrt(1+cot*cot)
	return r2.Vec{X: cot * s, Y: s}
}
