package render

import (
	"fmt"
	"io"

	"github.com/soypat/fold/mesh"
	"gonum.org/v1/gonum/spatial/r3"
)

// MeshRenderer reads the triangles of an indexed mesh.
type MeshRenderer struct {
	vertices []r3.Vec
	indices  []mesh.VertexIndex
	// next is the position in indices of the first unread triangle.
	next int
}

var _ Renderer = (*MeshRenderer)(nil)

// NewMeshRenderer returns a renderer over the triangles given as vertex
// index triplets. Triangles that collapse to a line or a point are skipped.
func NewMeshRenderer(vertices []r3.Vec, indices []mesh.VertexIndex) (*MeshRenderer, error) {
	if len(indices)%3 != 0 {
		return nil, fmt.Errorf("triangle index count %d not a multiple of 3", len(indices))
	}
	for _, idx := range indices {
		if idx < 0 || int(idx) >= len(vertices) {
			return nil, fmt.Errorf("vertex index %d out of range [0,%d)", idx, len(vertices))
		}
	}
	return &MeshRenderer{vertices: vertices, indices: indices}, nil
}

// FromSurface returns a renderer over the strip triangles of m. When
// double is true the back faces are included so the sheet has two sides.
func FromSurface(m *mesh.SurfaceMesh, double bool) (*MeshRenderer, error) {
	tris := m.Triangles()
	if double {
		tris = append(tris, m.BackTriangles()...)
	}
	return NewMeshRenderer(m.Vertices(), tris)
}

// ReadTriangles implements Renderer.
func (r *MeshRenderer) ReadTriangles(dst []Triangle3) (n int, err error) {
	for n < len(dst) && r.next < len(r.indices) {
		i := r.indices[r.next : r.next+3]
		r.next += 3
		t := Triangle3{V: [3]r3.Vec{r.vertices[i[0]], r.vertices[i[1]], r.vertices[i[2]]}}
		if t.Normal() == (r3.Vec{}) {
			continue
		}
		dst[n] = t
		n++
	}
	if r.next >= len(r.indices) {
		return n, io.EOF
	}
	return n, nil
}

// Remaining returns the number of unread triangles, collapsed ones
// included.
func (r *MeshRenderer) Remaining() int { return (len(r.indices) - r.next) / 3 }
