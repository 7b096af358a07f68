package fold

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

const (
	// lengthTolerance is the arc length error accepted by the parameter
	// bisection of BezierCurve.Divide.
	lengthTolerance = 1e-3
	// maxBisectionDepth bounds the bisection for degenerate curves.
	maxBisectionDepth = 64
)

var _ ParametricCurve = (*BezierCurve)(nil)

// BezierCurve is a Bezier curve of arbitrary degree evaluated in the
// Bernstein basis. The binomial table is owned by the curve and rebuilt
// only when the number of control points changes.
type BezierCurve struct {
	controlPoints []r3.Vec
	// binomials[n][i] holds n choose i for n below the control point count.
	binomials [][]float64
}

// NewBezierCurve returns a Bezier curve over a copy of controlPoints.
func NewBezierCurve(controlPoints []r3.Vec) (*BezierCurve, error) {
	var b BezierCurve
	if err := b.SetControlPoints(controlPoints); err != nil {
		return nil, err
	}
	return &b, nil
}

// ControlPoints returns a copy of the control points.
func (b *BezierCurve) ControlPoints() []r3.Vec {
	return append([]r3.Vec(nil), b.controlPoints...)
}

// SetControlPoints replaces the control points of the curve.
func (b *BezierCurve) SetControlPoints(controlPoints []r3.Vec) error {
	if len(controlPoints) < 2 {
		return fmt.Errorf("bezier curve got %d control points: %w", len(controlPoints), ErrTooFewControlPoints)
	}
	b.controlPoints = append(b.controlPoints[:0], controlPoints...)
	if len(b.binomials) != len(controlPoints) {
		b.binomials = binomialTable(len(controlPoints))
	}
	return nil
}

// binomialTable returns Pascal's triangle with n rows.
func binomialTable(n int) [][]float64 {
	table := make([][]float64, n)
	for row := range table {
		table[row] = make([]float64, row+1)
		table[row][0], table[row][row] = 1, 1
		for i := 1; i < row; i++ {
			table[row][i] = table[row-1][i-1] + table[row-1][i]
		}
	}
	return table
}

func (b *BezierCurve) basis(degree, i int, t float64) float64 {
	return b.binomials[degree][i] * math.Pow(t, float64(i)) * math.Pow(1-t, float64(degree-i))
}

// derivative returns the order-th derivative of basis function i of the
// given degree: B'(n,i) = n·(B(n-1,i-1) - B(n-1,i)).
func (b *BezierCurve) derivative(degree, i int, t float64, order int) float64 {
	if i < 0 || degree < i {
		return 0
	}
	if order == 0 {
		return b.basis(degree, i, t)
	}
	return float64(degree) * (b.derivative(degree-1, i-1, t, order-1) - b.derivative(degree-1, i, t, order-1))
}

// Position returns the point of the curve at t.
func (b *BezierCurve) Position(t float64) r3.Vec {
	degree := len(b.controlPoints) - 1
	var pos r3.Vec
	for i, cp := range b.controlPoints {
		pos = r3.Add(pos, r3.Scale(b.basis(degree, i, t), cp))
	}
	return pos
}

// Differential returns the order-th derivative of the curve at t.
func (b *BezierCurve) Differential(t float64, order int) r3.Vec {
	degree := len(b.controlPoints) - 1
	var v r3.Vec
	for i, cp := range b.controlPoints {
		v = r3.Add(v, r3.Scale(b.derivative(degree, i, t, order), cp))
	}
	return v
}

// Divide samples the curve at n+1 parameters splitting it into n
// segments of equal arc length. Every sample carries arc length L/n
// where L is the total curve length. Divide panics if n < 1.
func (b *BezierCurve) Divide(n int) DividedCurve {
	if n < 1 {
		panic("bezier divide count must be positive")
	}
	ts := candidateParameters(n)
	lengths := make([]float64, len(ts))
	for i := 1; i < len(ts); i++ {
		lengths[i] = lengths[i-1] + LengthRK4(b, ts[i-1:i+1])
	}
	dx := lengths[len(lengths)-1] / float64(n)

	params := make([]float64, 1, n+1)
	search := 1
	for i := 1; i < n; i++ {
		goal := float64(i) * dx
		for search < len(lengths)-1 && lengths[search] < goal {
			search++
		}
		params = append(params, b.parameterFromLength(lengths[search-1], ts[search-1], ts[search], goal, 0))
	}
	params = append(params, 1)

	arcLengths := make([]float64, len(params))
	for i := range arcLengths {
		arcLengths[i] = dx
	}
	return SampleParametric(b, params, arcLengths)
}

// parameterFromLength bisects [t0, t1] for the parameter whose cumulative
// arc length is goal. length is the cumulative arc length at t0.
func (b *BezierCurve) parameterFromLength(length, t0, t1, goal float64, depth int) float64 {
	tmid := (t0 + t1) / 2
	lmid := length + LengthRK4(b, []float64{t0, tmid})
	if math.Abs(lmid-goal) < lengthTolerance || depth >= maxBisectionDepth {
		return tmid
	}
	if goal < lmid {
		return b.parameterFromLength(length, t0, tmid, goal, depth+1)
	}
	return b.parameterFromLength(lmid, tmid, t1, goal, depth+1)
}

// candidateParameters returns the increasing parameter grid used to
// tabulate arc length before bisection. Each of the n sections is split
// into a number of steps that starts at n for the middle section and is
// halved (rounding up) moving outward: once after the middle section,
// then after spans of 1, 2, 4... sections.
func candidateParameters(n int) []float64 {
	steps := make([]int, n)
	local, count := n, 0
	span := 0.5
	for d := range steps {
		steps[d] = local
		if count++; float64(count) >= span {
			count = 0
			span *= 2
			local = (local + 1) / 2
		}
	}
	// Steps are mirrored about the middle section, so the first sections
	// are as coarse as the last ones instead of staying at full density.
	mid := (n - 1) / 2
	ts := []float64{0}
	for i := 0; i < n; i++ {
		d := i - mid
		if d < 0 {
			d = -d
		}
		local := steps[d]
		for j := 1; j <= local; j++ {
			ts = append(ts, float64(i)/float64(n)+float64(j)/float64(local)/float64(n))
		}
	}
	return ts
}
