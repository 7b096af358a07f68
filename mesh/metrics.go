package mesh

import (
	"math"

	"github.com/soypat/fold/internal/d2"
	"github.com/soypat/fold/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

// span returns the near and far vertex of ruling i.
func (m *SurfaceMesh) span(i int) (near, far r3.Vec, ok bool) {
	idx := m.rulings[i]
	if len(idx) == 0 {
		return near, far, false
	}
	return m.vertices[idx[0]], m.vertices[idx[len(idx)-1]], true
}

// Flatness returns for each pair of adjacent rulings the distance between
// the diagonals of their quad relative to the mean diagonal length. A
// planar quad scores 0. The value of pair (i, i+1) is stored at i and the
// last entry is always 0.
func (m *SurfaceMesh) Flatness() []float64 {
	n := len(m.rulings)
	if n == 0 {
		return nil
	}
	flat := make([]float64, n)
	for i := 1; i < n; i++ {
		x0, y0, ok0 := m.span(i - 1)
		x1, y1, ok1 := m.span(i)
		if ok0 && ok1 {
			flat[i-1] = flatness(x0, y0, x1, y1)
		}
	}
	return flat
}

func flatness(x0, y0, x1, y1 r3.Vec) float64 {
	d0, d1 := r3.Sub(y1, x0), r3.Sub(y0, x1)
	lavg := (r3.Norm(d0) + r3.Norm(d1)) / 2
	c := r3.Cross(d0, d1)
	cn := r3.Norm(c)
	if cn < 1e-12 || lavg < 1e-12 {
		// Parallel diagonals, the quad is planar.
		return 0
	}
	return math.Abs(r3.Dot(c, r3.Sub(x1, x0))) / cn / lavg
}

// Developabilities returns at every interior crease sample the sum of the
// angles between the two crease edges and the rulings on both sides of
// the fold, minus 2π. A developable fold scores 0. foldDirections are the
// ruling directions of the other side. End samples score 0.
func (m *SurfaceMesh) Developabilities(foldDirections []r3.Vec) []float64 {
	n := len(m.positions)
	dev := make([]float64, n)
	if n < 3 {
		return dev
	}
	for i := 1; i < n-1; i++ {
		c0 := r3.Sub(m.positions[i-1], m.positions[i])
		c1 := r3.Sub(m.positions[i+1], m.positions[i])
		rl, rr := m.directions[i], foldDirections[i]
		sum := d3.Angle(c0, rl) + d3.Angle(c1, rl) + d3.Angle(c0, rr) + d3.Angle(c1, rr)
		dev[i] = sum - 2*math.Pi
	}
	return dev
}

// Crossed reports for every ruling whether its span crosses that of a
// neighbour when projected on the XZ plane. Both rulings of a crossing
// pair are marked.
func (m *SurfaceMesh) Crossed() []bool {
	n := len(m.rulings)
	crossed := make([]bool, n)
	for i := 1; i < n; i++ {
		x0, y0, ok0 := m.span(i - 1)
		x1, y1, ok1 := m.span(i)
		if ok0 && ok1 && d2.SegmentsCrossXZ(x0, y0, x1, y1) {
			crossed[i-1] = true
			crossed[i] = true
		}
	}
	return crossed
}

// Lengths returns the far length of every ruling, 0 for empty rulings.
func (m *SurfaceMesh) Lengths() []float64 {
	out := make([]float64, len(m.lengths))
	for i, ls := range m.lengths {
		if len(ls) > 0 {
			out[i] = ls[len(ls)-1]
		}
	}
	return out
}
