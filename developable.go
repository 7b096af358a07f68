package fold

import (
	"github.com/soypat/fold/internal/d3"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// Ruling is the straight line of a ruled surface leaving a crease sample.
// Alpha and Beta encode Direction relative to the sample's Frenet frame,
// see FrenetFrame.
type Ruling struct {
	Direction r3.Vec
	Length    float64
	Alpha     r2.Vec
	Beta      r2.Vec
}

// Endpoint returns the far end of the ruling leaving origin.
func (r Ruling) Endpoint(origin r3.Vec) r3.Vec {
	return r3.Add(origin, r3.Scale(r.Length, r.Direction))
}

// DevelopableSurface is a ruled surface over a crease curve with one ruling
// per crease sample.
type DevelopableSurface struct {
	curve   DividedCurve
	rulings []Ruling
}

// Rulings returns the vectors joining each point of a to the point of b
// with the same index. The slices must have equal length.
func Rulings(a, b []r3.Vec) []r3.Vec {
	if len(a) != len(b) {
		panic("ruling endpoint length mismatch")
	}
	out := make([]r3.Vec, len(a))
	for i := range a {
		out[i] = r3.Sub(b[i], a[i])
	}
	return out
}

// NewSurfaceFromRulings builds a surface from one ruling vector per crease
// sample. Ruling lengths are the vector norms; a zero vector gives a zero
// ruling with zero angles.
func NewSurfaceFromRulings(curve DividedCurve, rulings []r3.Vec) DevelopableSurface {
	if len(rulings) != curve.Len() {
		panic("ruling count does not match curve length")
	}
	rs := make([]Ruling, len(rulings))
	for i, r := range rulings {
		frame := curve.samples[i].Frame
		rs[i] = Ruling{
			Direction: d3.Unit(r),
			Length:    r3.Norm(r),
			Alpha:     frame.AlphaSinCos(r),
			Beta:      frame.BetaSinCos(r),
		}
	}
	return DevelopableSurface{curve: curve, rulings: rs}
}

// NewSurfaceFromHandle builds the surface whose rulings join each crease
// sample to the handle sample with the same index.
func NewSurfaceFromHandle(curve, handle DividedCurve) DevelopableSurface {
	return NewSurfaceFromRulings(curve, Rulings(curve.Positions(), handle.Positions()))
}

// NewSurfaceFromAngles builds a surface from per-sample ruling lengths
// and angle pairs.
func NewSurfaceFromAngles(curve DividedCurve, lengths []float64, alpha, beta []r2.Vec) DevelopableSurface {
	n := curve.Len()
	if len(lengths) != n || len(alpha) != n || len(beta) != n {
		panic("ruling data does not match curve length")
	}
	rs := make([]Ruling, n)
	for i := range rs {
		rs[i] = Ruling{
			Direction: curve.samples[i].Frame.RulingSinCos(alpha[i], beta[i]),
			Length:    lengths[i],
			Alpha:     alpha[i],
			Beta:      beta[i],
		}
	}
	return DevelopableSurface{curve: curve, rulings: rs}
}

// NewSurfaceFromRadians builds the developable surface with the given
// alpha profile in radians. Beta follows from the developability
// condition cot β = (dα/ds + τ)/(κ sin α), where diffRads holds dα per
// sample.
func NewSurfaceFromRadians(curve DividedCurve, lengths, radians, diffRads []float64) DevelopableSurface {
	n := curve.Len()
	if len(radians) != n || len(diffRads) != n {
		panic("alpha profile does not match curve length")
	}
	alpha := make([]r2.Vec, n)
	beta := make([]r2.Vec, n)
	for i, s := range curve.samples {
		alpha[i] = SinCos(radians[i])
		beta[i] = CotToSinCos((diffRads[i] + s.Torsion) / (s.Curvature * alpha[i].Y))
	}
	return NewSurfaceFromAngles(curve, lengths, alpha, beta)
}

// NewSurfaceFromAlphaProfile is NewSurfaceFromRadians with unit ruling
// lengths and dα estimated by finite differences of radians.
func NewSurfaceFromAlphaProfile(curve DividedCurve, radians []float64) DevelopableSurface {
	lengths := make([]float64, len(radians))
	for i := range lengths {
		lengths[i] = 1
	}
	return NewSurfaceFromRadians(curve, lengths, radians, diffRadians(radians))
}

func diffRadians(radians []float64) []float64 {
	n := len(radians)
	d := make([]float64, n)
	if n < 2 {
		return d
	}
	d[0] = radians[1] - radians[0]
	for i := 1; i < n-1; i++ {
		d[i] = (radians[i+1] - radians[i-1]) / 2
	}
	d[n-1] = radians[n-1] - radians[n-2]
	return d
}

// Curve returns the crease curve of the surface.
func (s DevelopableSurface) Curve() DividedCurve { return s.curve }

// Len returns the number of rulings.
func (s DevelopableSurface) Len() int { return len(s.rulings) }

// Ruling returns ruling i.
func (s DevelopableSurface) Ruling(i int) Ruling { return s.rulings[i] }

// Rulings returns a copy of the rulings.
func (s DevelopableSurface) Rulings() []Ruling { return append([]Ruling(nil), s.rulings...) }

// Directions returns the unit ruling directions.
func (s DevelopableSurface) Directions() []r3.Vec {
	out := make([]r3.Vec, len(s.rulings))
	for i := range s.rulings {
		out[i] = s.rulings[i].Direction
	}
	return out
}

// Lengths returns the ruling lengths.
func (s DevelopableSurface) Lengths() []float64 {
	out := make([]float64, len(s.rulings))
	for i := range s.rulings {
		out[i] = s.rulings[i].Length
	}
	return out
}

// Alphas returns the per-ruling alpha pairs.
func (s DevelopableSurface) Alphas() []r2.Vec {
	out := make([]r2.Vec, len(s.rulings))
	for i := range s.rulings {
		out[i] = s.rulings[i].Alpha
	}
	return out
}

// Betas returns the per-ruling beta pairs.
func (s DevelopableSurface) Betas() []r2.Vec {
	out := make([]r2.Vec, len(s.rulings))
	for i := range s.rulings {
		out[i] = s.rulings[i].Beta
	}
	return out
}

// Endpoints returns the far end of every ruling.
func (s DevelopableSurface) Endpoints() []r3.Vec {
	out := make([]r3.Vec, len(s.rulings))
	for i := range s.rulings {
		out[i] = s.rulings[i].Endpoint(s.curve.samples[i].Position)
	}
	return out
}

// WithCurve returns a surface with the same ruling angles and lengths
// over another crease of equal sample count.
func (s DevelopableSurface) WithCurve(curve DividedCurve) DevelopableSurface {
	return NewSurfaceFromAngles(curve, s.Lengths(), s.Alphas(), s.Betas())
}

// FoldAlpha returns the alpha of the fold ruling at sample i.
func (s DevelopableSurface) FoldAlpha(i int) r2.Vec {
	return FoldAlpha(s.rulings[i].Alpha)
}

// FoldBeta returns the beta of the fold ruling at sample i.
func (s DevelopableSurface) FoldBeta(i int) r2.Vec {
	smp := s.curve.samples[i]
	return FoldBeta(s.rulings[i].Beta, s.rulings[i].Alpha, smp.Curvature, smp.Torsion)
}

// FoldRuling returns the unit direction of the fold ruling at sample i.
func (s DevelopableSurface) FoldRuling(i int) r3.Vec {
	return s.curve.samples[i].Frame.RulingSinCos(s.FoldAlpha(i), s.FoldBeta(i))
}

// FoldRulingAt returns the fold ruling of ruling at a crease sample.
func FoldRulingAt(ruling r3.Vec, frame FrenetFrame, curvature, torsion float64) r3.Vec {
	return frame.FoldRuling(ruling, curvature, torsion)
}

// FoldSurface returns the surface on the other side of the crease whose
// rulings are the fold rulings with the lengths of s.
func (s DevelopableSurface) FoldSurface() DevelopableSurface {
	rulings := make([]r3.Vec, len(s.rulings))
	for i := range rulings {
		rulings[i] = r3.Scale(s.rulings[i].Length, s.FoldRuling(i))
	}
	return NewSurfaceFromRulings(s.curve, rulings)
}

// BihandleCurve integrates the sub-handle curve: the far ends of the fold
// rulings of the given length, chained so that consecutive fold rulings
// stay coplanar. Each point is the intersection of the previous point's
// crease-parallel ray with the plane spanned by the crease tangent and the
// fold ruling. When no forward intersection exists the point is either
// clamped to its predecessor or earlier points are moved back to the
// first prior segment that reaches the plane. modified marks every
// sample whose position was produced by one of these corrections.
func (s DevelopableSurface) BihandleCurve(length float64) (sub DividedCurve, modified []bool) {
	n := s.curve.Len()
	modified = make([]bool, n)
	if n == 0 {
		return DividedCurve{}, modified
	}
	crease := s.curve.samples
	pos := make([]r3.Vec, 1, n)
	pos[0] = r3.Add(crease[0].Position, r3.Scale(length, s.FoldRuling(0)))
	for i := 1; i < n; i++ {
		fr := s.FoldRuling(i)
		strip := d3.NewPlane(r3.Cross(fr, crease[i].Frame.Tangent), crease[i].Position)
		if crease[i].Torsion*s.rulings[i].Alpha.Y < 0 {
			ray := d3.NewRay(pos[i-1], r3.Sub(crease[i].Position, crease[i-1].Position))
			if t, ok := strip.Raycast(ray); ok {
				pos = append(pos, ray.At(t))
			} else {
				pos = append(pos, pos[i-1])
				modified[i] = true
			}
			continue
		}
		for j := i - 1; j >= 0; j-- {
			ray := d3.NewRay(pos[j], r3.Sub(crease[j+1].Position, crease[j].Position))
			t, ok := strip.Raycast(ray)
			if !ok && j > 0 {
				continue
			}
			// On j == 0 without a hit the signed distance is used as is.
			from := j + 1
			if !ok {
				from = 0
			}
			p := ray.At(t)
			for k := from; k < i; k++ {
				pos[k] = p
				modified[k] = true
			}
			pos = append(pos, p)
			break
		}
	}
	return NewDividedCurve(pos), modified
}

// developedProfile returns the sheet sign and planar curvature profile
// used to unroll the surface.
func (s DevelopableSurface) developedProfile() (side float64, kCosA, torsions []float64) {
	side = Sign(s.rulings[0].Alpha.X)
	kCosA = make([]float64, len(s.rulings))
	torsions = make([]float64, len(s.rulings))
	for i, r := range s.rulings {
		kCosA[i] = side * s.curve.samples[i].Curvature * r.Alpha.X
	}
	return side, kCosA, torsions
}

// Develop unrolls the surface into the XZ plane. The developed crease has
// the geodesic curvature κ·cos α of the surface crease, no torsion and the same
// arc lengths. Rulings keep their beta and length and lie in the plane.
func (s DevelopableSurface) Develop() DevelopableSurface {
	if len(s.rulings) == 0 {
		return DevelopableSurface{}
	}
	side, kCosA, torsions := s.developedProfile()
	curve := Reconstruct(kCosA, torsions, s.curve.ArcLengths(), IdentityFrame(), r3.Vec{})
	alpha := make([]r2.Vec, len(s.rulings))
	for i := range alpha {
		alpha[i] = r2.Vec{X: side, Y: 0}
	}
	return NewSurfaceFromAngles(curve, s.Lengths(), alpha, s.Betas())
}

// DevelopedCurve returns the crease of Develop.
func (s DevelopableSurface) DevelopedCurve() DividedCurve {
	if len(s.rulings) == 0 {
		return DividedCurve{}
	}
	_, kCosA, torsions := s.developedProfile()
	return Reconstruct(kCosA, torsions, s.curve.ArcLengths(), IdentityFrame(), r3.Vec{})
}

// InflectionPoints returns the indices i such that samples i and i+1 lie
// on different sheets, that is sign(α.X) changes between them.
func (s DevelopableSurface) InflectionPoints() []int {
	var index []int
	for i := 1; i < len(s.rulings); i++ {
		if Sign(s.rulings[i-1].Alpha.X) != Sign(s.rulings[i].Alpha.X) {
			index = append(index, i-1)
		}
	}
	return index
}
