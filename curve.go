package fold

import (
	"github.com/soypat/fold/internal/d3"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"
)

// Sample is one point of a discretized curve with its differential data.
// ArcLength is the length element |dx/di| at the sample, not a cumulative
// length.
type Sample struct {
	Position  r3.Vec
	Frame     FrenetFrame
	ArcLength float64
	Curvature float64
	Torsion   float64
}

// DividedCurve is an ordered, immutable sequence of curve samples.
// Operations return new curves and never modify their receiver.
type DividedCurve struct {
	samples []Sample
}

// NewDividedCurve estimates the differential geometry of a point sequence
// with finite differences: one sided at the ends and centered in the
// interior, applied three times for the first three derivatives.
// Curvature and torsion are zero where they are undefined.
func NewDividedCurve(points []r3.Vec) DividedCurve {
	dx := finiteDiff(points)
	ddx := finiteDiff(dx)
	dddx := finiteDiff(ddx)
	samples := make([]Sample, len(points))
	for i := range points {
		samples[i] = differentialSample(points[i], dx[i], ddx[i], dddx[i])
	}
	return DividedCurve{samples: samples}
}

// NewCurveFromSamples returns a curve holding a copy of samples.
func NewCurveFromSamples(samples []Sample) DividedCurve {
	return DividedCurve{samples: append([]Sample(nil), samples...)}
}

// SampleParametric evaluates a parametric curve and its analytic
// derivatives at each parameter. arcLengths must have the same length as
// params and is stored as given.
func SampleParametric(c ParametricCurve, params, arcLengths []float64) DividedCurve {
	if len(params) != len(arcLengths) {
		panic("params and arcLengths length mismatch")
	}
	samples := make([]Sample, len(params))
	for i, t := range params {
		samples[i] = differentialSample(c.Position(t), c.Differential(t, 1), c.Differential(t, 2), c.Differential(t, 3))
		samples[i].ArcLength = arcLengths[i]
	}
	return DividedCurve{samples: samples}
}

// differentialSample returns the Frenet data of a point from its first
// three derivatives. A vanishing first derivative gives the identity frame
// with zero arc length, and a vanishing dx×ddx a zero binormal, both with
// zero curvature and torsion.
func differentialSample(pos, dx, ddx, dddx r3.Vec) Sample {
	n1 := r3.Norm(dx)
	if nearZero(n1) {
		return Sample{Position: pos, Frame: IdentityFrame()}
	}
	cross := r3.Cross(dx, ddx)
	nc := r3.Norm(cross)
	tangent := r3.Scale(1/n1, dx)
	var binormal r3.Vec
	var curvature, torsion float64
	if !nearZero(nc) {
		binormal = r3.Scale(1/nc, cross)
		curvature = nc / (n1 * n1 * n1)
		torsion = r3.Dot(cross, dddx) / (nc * nc)
	}
	return Sample{
		Position:  pos,
		Frame:     OrthoFrame(tangent, binormal),
		ArcLength: n1,
		Curvature: curvature,
		Torsion:   torsion,
	}
}

// finiteDiff returns the finite difference of x with the same length as x.
func finiteDiff(x []r3.Vec) []r3.Vec {
	n := len(x)
	dx := make([]r3.Vec, n)
	if n < 2 {
		return dx
	}
	dx[0] = r3.Sub(x[1], x[0])
	for i := 1; i < n-1; i++ {
		dx[i] = r3.Scale(0.5, r3.Sub(x[i+1], x[i-1]))
	}
	dx[n-1] = r3.Sub(x[n-1], x[n-2])
	return dx
}

// Reconstruct integrates curvature, torsion and arc length into a curve
// starting at startPos with frame start. Frames are advanced leap-frog
// style, frame i from frame i-2 over the span l[i-2]+l[i-1], and positions
// with the trapezoidal rule. The three slices must have equal length.
func Reconstruct(curvatures, torsions, arcLengths []float64, start FrenetFrame, startPos r3.Vec) DividedCurve {
	n := len(curvatures)
	checkLengths(n, torsions, arcLengths)
	frames := make([]FrenetFrame, 0, n)
	if n > 0 {
		frames = append(frames, start)
	}
	if n > 1 {
		frames = append(frames, start.Rotate(curvatures[0], torsions[0], arcLengths[0]))
	}
	for i := 2; i < n; i++ {
		l := arcLengths[i-2] + arcLengths[i-1]
		frames = append(frames, frames[i-2].Rotate(curvatures[i-1], torsions[i-1], l))
	}
	return ReconstructFrames(curvatures, torsions, arcLengths, frames, startPos)
}

// ReconstructFrames integrates positions from known frames with the
// trapezoidal rule: x[i] = x[i-1] + (l[i-1]·t[i-1] + l[i]·t[i])/2.
func ReconstructFrames(curvatures, torsions, arcLengths []float64, frames []FrenetFrame, startPos r3.Vec) DividedCurve {
	n := len(curvatures)
	checkLengths(n, torsions, arcLengths)
	if len(frames) != n {
		panic("frames length mismatch")
	}
	samples := make([]Sample, n)
	pos := startPos
	for i := range samples {
		if i > 0 {
			step := r3.Add(r3.Scale(arcLengths[i-1], frames[i-1].Tangent), r3.Scale(arcLengths[i], frames[i].Tangent))
			pos = r3.Add(pos, r3.Scale(0.5, step))
		}
		samples[i] = Sample{
			Position:  pos,
			Frame:     frames[i],
			ArcLength: arcLengths[i],
			Curvature: curvatures[i],
			Torsion:   torsions[i],
		}
	}
	return DividedCurve{samples: samples}
}

// ReconstructPlanar reconstructs a torsion free curve with unit arc
// lengths from the identity frame at the origin.
func ReconstructPlanar(curvatures []float64) DividedCurve {
	n := len(curvatures)
	torsions := make([]float64, n)
	arcLengths := make([]float64, n)
	floats.AddConst(1, arcLengths)
	return Reconstruct(curvatures, torsions, arcLengths, IdentityFrame(), r3.Vec{})
}

func checkLengths(n int, s ...[]float64) {
	for _, v := range s {
		if len(v) != n {
			panic("curve data length mismatch")
		}
	}
}

// Len returns the number of samples.
func (c DividedCurve) Len() int { return len(c.samples) }

// At returns sample i.
func (c DividedCurve) At(i int) Sample { return c.samples[i] }

// First returns the first sample. It panics on an empty curve.
func (c DividedCurve) First() Sample { return c.samples[0] }

// Last returns the last sample. It panics on an empty curve.
func (c DividedCurve) Last() Sample { return c.samples[len(c.samples)-1] }

// Samples returns a copy of the curve samples.
func (c DividedCurve) Samples() []Sample { return append([]Sample(nil), c.samples...) }

// Positions returns a copy of the sample positions.
func (c DividedCurve) Positions() []r3.Vec {
	out := make([]r3.Vec, len(c.samples))
	for i := range c.samples {
		out[i] = c.samples[i].Position
	}
	return out
}

// Frames returns a copy of the sample frames.
func (c DividedCurve) Frames() []FrenetFrame {
	out := make([]FrenetFrame, len(c.samples))
	for i := range c.samples {
		out[i] = c.samples[i].Frame
	}
	return out
}

// ArcLengths returns a copy of the per-sample arc lengths.
func (c DividedCurve) ArcLengths() []float64 {
	out := make([]float64, len(c.samples))
	for i := range c.samples {
		out[i] = c.samples[i].ArcLength
	}
	return out
}

// Curvatures returns a copy of the per-sample curvatures.
func (c DividedCurve) Curvatures() []float64 {
	out := make([]float64, len(c.samples))
	for i := range c.samples {
		out[i] = c.samples[i].Curvature
	}
	return out
}

// Torsions returns a copy of the per-sample torsions.
func (c DividedCurve) Torsions() []float64 {
	out := make([]float64, len(c.samples))
	for i := range c.samples {
		out[i] = c.samples[i].Torsion
	}
	return out
}

// Length returns the sum of the per-sample arc lengths.
func (c DividedCurve) Length() float64 {
	return floats.Sum(c.ArcLengths())
}

// SubCurve returns samples from through to, both inclusive.
func (c DividedCurve) SubCurve(from, to int) DividedCurve {
	return NewCurveFromSamples(c.samples[from : to+1])
}

// Truncate returns the first n samples of the curve.
func (c DividedCurve) Truncate(n int) DividedCurve {
	return NewCurveFromSamples(c.samples[:n])
}

// MergeCurve concatenates the samples of the given curves.
func MergeCurve(curves ...DividedCurve) DividedCurve {
	var samples []Sample
	for _, c := range curves {
		samples = append(samples, c.samples...)
	}
	return DividedCurve{samples: samples}
}

// Rotate returns the curve with positions and frames rotated about the origin.
func (c DividedCurve) Rotate(q d3.Rotation) DividedCurve {
	samples := c.Samples()
	for i := range samples {
		samples[i].Position = q.Apply(samples[i].Position)
		samples[i].Frame = samples[i].Frame.Rotated(q)
	}
	return DividedCurve{samples: samples}
}

// AlignCurve rigidly moves the curve so its first sample sits at pos with
// frame. An empty curve is returned unchanged.
func (c DividedCurve) AlignCurve(pos r3.Vec, frame FrenetFrame) DividedCurve {
	if len(c.samples) == 0 {
		return c
	}
	rotated := c.Rotate(TowardRotation(c.samples[0].Frame, frame))
	trans := r3.Sub(pos, rotated.samples[0].Position)
	for i := range rotated.samples {
		rotated.samples[i].Position = r3.Add(rotated.samples[i].Position, trans)
	}
	return rotated
}

// ScalingCurve scales the curve about the origin by s. Arc lengths scale
// with s, curvature and torsion with 1/s. Frames are unchanged.
func (c DividedCurve) ScalingCurve(s float64) DividedCurve {
	samples := c.Samples()
	for i := range samples {
		samples[i].Position = r3.Scale(s, samples[i].Position)
		samples[i].ArcLength *= s
		samples[i].Curvature /= s
		samples[i].Torsion /= s
	}
	return DividedCurve{samples: samples}
}

// Transform applies an affine transform. Positions are mapped exactly,
// frames are rotated by the transform's rotation and the differential
// quantities use the x-axis scale as a uniform scale.
func (c DividedCurve) Transform(t d3.Transform) DividedCurve {
	q := t.Rotation()
	s := t.LossyScale().X
	samples := c.Samples()
	for i := range samples {
		samples[i].Position = t.Apply(samples[i].Position)
		samples[i].Frame = samples[i].Frame.Rotated(q)
		samples[i].ArcLength *= s
		samples[i].Curvature /= s
		samples[i].Torsion /= s
	}
	return DividedCurve{samples: samples}
}
