// Package render turns fold meshes into triangles and writes them as
// binary STL.
package render

import (
	"errors"
	"io"

	"gonum.org/v1/gonum/spatial/r3"
)

// Triangle3 is a triangle in 3D space. Counter clockwise vertex order
// faces the normal.
type Triangle3 struct {
	V [3]r3.Vec
}

// Normal returns the unit normal of the triangle. A degenerate triangle
// returns the zero vector.
func (t Triangle3) Normal() r3.Vec {
	n := r3.Cross(r3.Sub(t.V[1], t.V[0]), r3.Sub(t.V[2], t.V[0]))
	norm := r3.Norm(n)
	if norm == 0 {
		return r3.Vec{}
	}
	return r3.Scale(1/norm, n)
}

// Degenerate reports whether two vertices of the triangle coincide
// within tol.
func (t Triangle3) Degenerate(tol float64) bool {
	return r3.Norm(r3.Sub(t.V[0], t.V[1])) <= tol ||
		r3.Norm(r3.Sub(t.V[1], t.V[2])) <= tol ||
		r3.Norm(r3.Sub(t.V[2], t.V[0])) <= tol
}

// Renderer is a triangle source. ReadTriangles fills dst and returns the
// number of triangles written and io.EOF once the source is exhausted.
type Renderer interface {
	ReadTriangles(dst []Triangle3) (int, error)
}

// maxEmptyReads is the number of consecutive empty reads after which
// RenderAll gives up on a Renderer.
const maxEmptyReads = 100

// RenderAll reads r until it returns io.EOF, which is not reported as an
// error. Renderers with a Remaining method get the result preallocated.
func RenderAll(r Renderer) ([]Triangle3, error) {
	var model []Triangle3
	if s, ok := r.(interface{ Remaining() int }); ok {
		model = make([]Triangle3, 0, s.Remaining())
	}
	batch := make([]Triangle3, 256)
	empty := 0
	for {
		n, err := r.ReadTriangles(batch)
		model = append(model, batch[:n]...)
		if errors.Is(err, io.EOF) {
			return model, nil
		} else if err != nil {
			return model, err
		}
		if n > 0 {
			empty = 0
		} else if empty++; empty >= maxEmptyReads {
			return model, io.ErrNoProgress
		}
	}
}
