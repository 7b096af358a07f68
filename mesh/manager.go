package mesh

import (
	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/spatial/r3"
)

// DefaultWeldTolerance is the distance under which two crease vertices are
// merged by RulingVertexManager.
const DefaultWeldTolerance = 1e-5

// RulingVertexManager builds one mesh out of several ruled surfaces
// sharing a crease, such as the handle and sub-handle sides of a fold.
// Crease vertices of different surfaces that coincide are welded so the
// resulting mesh is connected across the fold.
type RulingVertexManager struct {
	tol      float64
	vertices []r3.Vec
	surfaces [][][]VertexIndex
	// crease holds every ruling start vertex for welding.
	crease kdtree.Tree
}

// NewRulingVertexManager returns an empty manager welding vertices closer
// than tol. A non positive tol selects DefaultWeldTolerance.
func NewRulingVertexManager(tol float64) *RulingVertexManager {
	if tol <= 0 {
		tol = DefaultWeldTolerance
	}
	return &RulingVertexManager{tol: tol}
}

// AddSurface starts a new surface. Following AddRuling calls append to it.
func (m *RulingVertexManager) AddSurface() {
	m.surfaces = append(m.surfaces, nil)
}

// SurfaceCount returns the number of surfaces added.
func (m *RulingVertexManager) SurfaceCount() int { return len(m.surfaces) }

// RulingCount returns the number of rulings of a surface.
func (m *RulingVertexManager) RulingCount(surface int) int { return len(m.surfaces[surface]) }

// Vertices returns the welded vertex positions.
func (m *RulingVertexManager) Vertices() []r3.Vec { return append([]r3.Vec(nil), m.vertices...) }

// AddRuling appends a ruling starting at pos with vertices at each of the
// lengths along dir to the current surface. The first vertex is shared
// with the previous ruling or with any crease vertex already added when
// they coincide, and the last vertex with the previous ruling's last.
// Rulings with fewer than two lengths add no vertices.
func (m *RulingVertexManager) AddRuling(pos, dir r3.Vec, lengths []float64) {
	if len(m.surfaces) == 0 {
		m.AddSurface()
	}
	surf := len(m.surfaces) - 1
	var ruling []VertexIndex
	if len(lengths) < 2 {
		m.surfaces[surf] = append(m.surfaces[surf], ruling)
		return
	}
	at := func(l float64) r3.Vec { return r3.Add(pos, r3.Scale(l, dir)) }
	v0, vn := at(lengths[0]), at(lengths[len(lengths)-1])
	first, firstOK := VertexIndex(0), false
	last, lastOK := VertexIndex(0), false
	if rulings := m.surfaces[surf]; len(rulings) > 0 && len(rulings[len(rulings)-1]) > 1 {
		prev := rulings[len(rulings)-1]
		if m.coincide(v0, prev[0]) {
			first, firstOK = prev[0], true
		}
		if m.coincide(vn, prev[len(prev)-1]) {
			last, lastOK = prev[len(prev)-1], true
		}
	}
	if !firstOK && m.crease.Root != nil {
		near, dist := m.crease.Nearest(weldPoint{p: v0})
		if near != nil && dist <= m.tol*m.tol {
			first, firstOK = near.(weldPoint).index, true
		}
	}
	if !firstOK {
		first = m.addVertex(v0)
		m.crease.Insert(weldPoint{p: v0, index: first}, false)
	}
	ruling = append(ruling, first)
	for _, l := range lengths[1 : len(lengths)-1] {
		ruling = append(ruling, m.addVertex(at(l)))
	}
	if !lastOK {
		last = m.addVertex(vn)
	}
	ruling = append(ruling, last)
	m.surfaces[surf] = append(m.surfaces[surf], ruling)
}

func (m *RulingVertexManager) addVertex(v r3.Vec) VertexIndex {
	m.vertices = append(m.vertices, v)
	return VertexIndex(len(m.vertices) - 1)
}

func (m *RulingVertexManager) coincide(v r3.Vec, i VertexIndex) bool {
	return r3.Norm2(r3.Sub(v, m.vertices[i])) <= m.tol*m.tol
}

// StartVertex returns the crease side vertex of a ruling.
func (m *RulingVertexManager) StartVertex(surface, ruling int) (VertexIndex, bool) {
	idx := m.surfaces[surface][ruling]
	if len(idx) == 0 {
		return 0, false
	}
	return idx[0], true
}

// EndVertex returns the far vertex of a ruling.
func (m *RulingVertexManager) EndVertex(surface, ruling int) (VertexIndex, bool) {
	idx := m.surfaces[surface][ruling]
	if len(idx) == 0 {
		return 0, false
	}
	return idx[len(idx)-1], true
}

// Triangles returns the strip triangles of all surfaces. The winding of
// surface j is reversed when reverse[j] is true, so surfaces on opposite
// sides of the crease face the same way.
func (m *RulingVertexManager) Triangles(reverse []bool) []VertexIndex {
	var tris []VertexIndex
	for j, surf := range m.surfaces {
		for i := 1; i < len(surf); i++ {
			t := StripTriangles(surf[i-1], surf[i], m.vertices)
			if j < len(reverse) && reverse[j] {
				reverseSlice(t)
			}
			tris = append(tris, t...)
		}
	}
	return tris
}

// weldPoint is a crease vertex stored in the weld kd-tree.
type weldPoint struct {
	p     r3.Vec
	index VertexIndex
}

// Compare implements kdtree.Comparable.
func (w weldPoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(weldPoint)
	switch d {
	case 0:
		return w.p.X - q.p.X
	case 1:
		return w.p.Y - q.p.Y
	case 2:
		return w.p.Z - q.p.Z
	}
	panic("unreachable")
}

func (w weldPoint) Dims() int { return 3 }

// Distance returns the squared distance between the points.
func (w weldPoint) Distance(c kdtree.Comparable) float64 {
	return r3.Norm2(r3.Sub(w.p, c.(weldPoint).p))
}
