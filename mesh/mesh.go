// Package mesh discretizes developable surfaces into ruling lines and
// triangle strips, clips rulings against a paper outline and measures the
// quality of a fold.
//
// Every ruling of a SurfaceMesh owns a sorted list of lengths along its
// direction. Without trimming the list is {0, length}. Trimming against a
// paper outline replaces it with the entry and exit distances of the
// ruling ray, so a ruling may produce zero, two or more vertices.
package mesh

import (
	"errors"

	"github.com/soypat/fold"
	"github.com/soypat/fold/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

// ErrEmptyMesh is returned when a mesh operation needs at least one ruling.
var ErrEmptyMesh = errors.New("empty mesh")

// VertexIndex indexes the vertex slice of a mesh.
type VertexIndex int

// SurfaceMesh is the ruling and strip mesh of one developable surface.
type SurfaceMesh struct {
	positions  []r3.Vec
	directions []r3.Vec
	lengths    [][]float64
	// untrimmed lengths restored by ResetTrim.
	base [][]float64

	vertices []r3.Vec
	rulings  [][]VertexIndex
}

// NewSurfaceMesh returns the mesh of surf.
func NewSurfaceMesh(surf fold.DevelopableSurface) *SurfaceMesh {
	m := &SurfaceMesh{}
	m.SetSurface(surf)
	return m
}

// SetSurface meshes the rulings of surf from the crease to their ends.
func (m *SurfaceMesh) SetSurface(surf fold.DevelopableSurface) {
	m.SetDirections(surf.Curve().Positions(), surf.Directions(), surf.Lengths())
}

// SetRulings meshes rulings given as vectors from the crease positions.
// A zero ruling gets a zero direction and length.
func (m *SurfaceMesh) SetRulings(positions, rulings []r3.Vec) {
	dirs := make([]r3.Vec, len(rulings))
	lengths := make([]float64, len(rulings))
	for i, r := range rulings {
		dirs[i] = d3.Unit(r)
		if dirs[i] != (r3.Vec{}) {
			lengths[i] = r3.Norm(r)
		}
	}
	m.SetDirections(positions, dirs, lengths)
}

// SetDirections meshes rulings from unit directions and lengths.
func (m *SurfaceMesh) SetDirections(positions, directions []r3.Vec, lengths []float64) {
	ls := make([][]float64, len(lengths))
	for i, l := range lengths {
		ls[i] = []float64{0, l}
	}
	m.setLengths(positions, directions, ls)
	m.base = cloneLengths(ls)
}

// SetLengths meshes rulings whose vertices lie at each of the given
// distances along their direction. The untrimmed state used by ResetTrim
// is set to the span from 0 to the last length of every ruling.
func (m *SurfaceMesh) SetLengths(positions, directions []r3.Vec, lengths [][]float64) {
	m.setLengths(positions, directions, lengths)
	m.base = make([][]float64, len(lengths))
	for i, ls := range lengths {
		end := 0.0
		if len(ls) > 0 {
			end = ls[len(ls)-1]
		}
		m.base[i] = []float64{0, end}
	}
}

func (m *SurfaceMesh) setLengths(positions, directions []r3.Vec, lengths [][]float64) {
	if len(positions) != len(directions) || len(positions) != len(lengths) {
		panic("mesh ruling data length mismatch")
	}
	m.positions = append(m.positions[:0], positions...)
	m.directions = append(m.directions[:0], directions...)
	m.lengths = cloneLengths(lengths)
	m.Build()
}

func cloneLengths(lengths [][]float64) [][]float64 {
	out := make([][]float64, len(lengths))
	for i := range lengths {
		out[i] = append([]float64(nil), lengths[i]...)
	}
	return out
}

// Build regenerates vertices and per ruling index lists from the ruling
// data. The setters call it, so it is only needed after direct changes.
func (m *SurfaceMesh) Build() {
	m.vertices = m.vertices[:0]
	m.rulings = make([][]VertexIndex, len(m.lengths))
	for i, ls := range m.lengths {
		idx := make([]VertexIndex, len(ls))
		for j, l := range ls {
			idx[j] = VertexIndex(len(m.vertices))
			m.vertices = append(m.vertices, r3.Add(m.positions[i], r3.Scale(l, m.directions[i])))
		}
		m.rulings[i] = idx
	}
}

// Len returns the number of rulings.
func (m *SurfaceMesh) Len() int { return len(m.rulings) }

// Positions returns the crease positions the rulings start from.
func (m *SurfaceMesh) Positions() []r3.Vec { return append([]r3.Vec(nil), m.positions...) }

// Directions returns the unit ruling directions.
func (m *SurfaceMesh) Directions() []r3.Vec { return append([]r3.Vec(nil), m.directions...) }

// RulingLengths returns the vertex distances of every ruling.
func (m *SurfaceMesh) RulingLengths() [][]float64 { return cloneLengths(m.lengths) }

// Vertices returns the mesh vertices.
func (m *SurfaceMesh) Vertices() []r3.Vec { return append([]r3.Vec(nil), m.vertices...) }

// RulingIndices returns the vertex indices of every ruling in order of
// distance from the crease.
func (m *SurfaceMesh) RulingIndices() [][]VertexIndex {
	out := make([][]VertexIndex, len(m.rulings))
	for i := range m.rulings {
		out[i] = append([]VertexIndex(nil), m.rulings[i]...)
	}
	return out
}

// RulingLines returns the line segments drawn for the rulings: every
// consecutive entry and exit vertex pair.
func (m *SurfaceMesh) RulingLines() [][2]VertexIndex {
	var lines [][2]VertexIndex
	for _, idx := range m.rulings {
		for j := 1; j < len(idx); j += 2 {
			lines = append(lines, [2]VertexIndex{idx[j-1], idx[j]})
		}
	}
	return lines
}

// Outline returns the closed boundary polyline: the far ends of the
// rulings in order, then their near ends in reverse and the first point
// again. Meshes with fewer than four vertices have no outline.
func (m *SurfaceMesh) Outline() []r3.Vec {
	if len(m.vertices) < 4 {
		return nil
	}
	var outer, inner []r3.Vec
	for _, idx := range m.rulings {
		if len(idx) == 0 {
			continue
		}
		inner = append(inner, m.vertices[idx[0]])
		outer = append(outer, m.vertices[idx[len(idx)-1]])
	}
	for i := len(inner) - 1; i >= 0; i-- {
		outer = append(outer, inner[i])
	}
	return append(outer, outer[0])
}

// Triangles returns the strip triangles between adjacent rulings as
// vertex index triplets.
func (m *SurfaceMesh) Triangles() []VertexIndex {
	var tris []VertexIndex
	for i := 1; i < len(m.rulings); i++ {
		tris = append(tris, StripTriangles(m.rulings[i-1], m.rulings[i], m.vertices)...)
	}
	return tris
}

// BackTriangles returns Triangles with reversed winding.
func (m *SurfaceMesh) BackTriangles() []VertexIndex {
	tris := m.Triangles()
	reverseSlice(tris)
	return tris
}

// Normals returns the area weighted vertex normals of Triangles.
func (m *SurfaceMesh) Normals() []r3.Vec {
	return vertexNormals(m.vertices, m.Triangles())
}

// BackNormals returns the negated Normals.
func (m *SurfaceMesh) BackNormals() []r3.Vec {
	normals := m.Normals()
	for i := range normals {
		normals[i] = r3.Scale(-1, normals[i])
	}
	return normals
}

func vertexNormals(vertices []r3.Vec, tris []VertexIndex) []r3.Vec {
	normals := make([]r3.Vec, len(vertices))
	for i := 0; i+2 < len(tris); i += 3 {
		a, b, c := vertices[tris[i]], vertices[tris[i+1]], vertices[tris[i+2]]
		n := r3.Cross(r3.Sub(b, a), r3.Sub(c, a))
		for _, v := range tris[i : i+3] {
			normals[v] = r3.Add(normals[v], n)
		}
	}
	for i := range normals {
		normals[i] = d3.Unit(normals[i])
	}
	return normals
}

func reverseSlice[T any](s []T) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
