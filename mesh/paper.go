package mesh

import (
	"fmt"
	"sort"

	"github.com/soypat/fold/internal/d2"
	"github.com/soypat/fold/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

// Paper is the outline of the sheet on the XZ plane. Rulings are clipped
// against it when trimming.
type Paper struct {
	// closed loop, first vertex repeated at the end.
	vertices []r3.Vec
	// ray length used for crossing tests, the bounding box diagonal.
	max float64
}

// NewPaper returns the paper bounded by the polygon points. The loop is
// closed automatically.
func NewPaper(points []r3.Vec) (*Paper, error) {
	if len(points) < 3 {
		return nil, fmt.Errorf("paper outline needs 3 points, got %d", len(points))
	}
	vertices := make([]r3.Vec, len(points), len(points)+1)
	copy(vertices, points)
	return &Paper{
		vertices: append(vertices, points[0]),
		max:      d3.Set(points).Bounds().Diagonal(),
	}, nil
}

// Vertices returns the closed outline loop.
func (p *Paper) Vertices() []r3.Vec { return append([]r3.Vec(nil), p.vertices...) }

// ray returns the end of a segment from pt along unit dir long enough to
// leave the outline from any start point.
func (p *Paper) ray(pt, dir r3.Vec) r3.Vec {
	reach := p.max + r3.Norm(r3.Sub(pt, p.vertices[0]))
	return r3.Add(pt, r3.Scale(reach, dir))
}

// IsCrossing reports whether the ray from pt along dir crosses any
// outline edge.
func (p *Paper) IsCrossing(pt, dir r3.Vec) bool {
	end := p.ray(pt, dir)
	for i := 1; i < len(p.vertices); i++ {
		if d2.SegmentsCrossXZ(pt, end, p.vertices[i-1], p.vertices[i]) {
			return true
		}
	}
	return false
}

// Intersections returns the points where the ray from pt along dir
// crosses outline edges, in edge order.
func (p *Paper) Intersections(pt, dir r3.Vec) []r3.Vec {
	end := p.ray(pt, dir)
	var out []r3.Vec
	for i := 1; i < len(p.vertices); i++ {
		a, b := p.vertices[i-1], p.vertices[i]
		if d2.SegmentsCrossXZ(pt, end, a, b) {
			out = append(out, d3.ClosestOnLine(pt, end, a, b))
		}
	}
	return out
}

// Trim clips every ruling to the paper. The ruling's vertices are moved to
// its sorted crossing distances. An odd crossing count means the crease
// point lies inside the paper and a vertex at distance 0 is prepended.
func (m *SurfaceMesh) Trim(paper *Paper) {
	base := m.base
	lengths := make([][]float64, len(m.positions))
	for i, pt := range m.positions {
		cross := paper.Intersections(pt, m.directions[i])
		ls := make([]float64, 0, len(cross)+1)
		for _, c := range cross {
			ls = append(ls, r3.Norm(r3.Sub(c, pt)))
		}
		sort.Float64s(ls)
		if len(cross)%2 != 0 {
			ls = append([]float64{0}, ls...)
		}
		lengths[i] = ls
	}
	m.setLengths(m.positions, m.directions, lengths)
	m.base = base
}

// CopyTrim applies the ruling lengths of from, typically the trimmed
// developed counterpart of m. Both meshes must have the same ruling count.
func (m *SurfaceMesh) CopyTrim(from *SurfaceMesh) {
	base := m.base
	m.setLengths(m.positions, m.directions, from.lengths)
	m.base = base
}

// ResetTrim restores the untrimmed rulings.
func (m *SurfaceMesh) ResetTrim() {
	m.setLengths(m.positions, m.directions, m.base)
}
