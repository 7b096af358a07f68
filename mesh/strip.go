package mesh

import "gonum.org/v1/gonum/spatial/r3"

// StripTriangles triangulates the quads between two adjacent rulings with
// vertex lists vn0 and vn1. Consecutive vertex pairs of a ruling bound one
// quad. When the rulings have different vertex counts each vertex of the
// shorter one is paired with its nearest vertex of the longer one, found
// by walking the longer list until the distance starts to grow.
// A quad collapsed on one side yields a single triangle.
func StripTriangles(vn0, vn1 []VertexIndex, vertices []r3.Vec) []VertexIndex {
	switch {
	case len(vn0) > len(vn1):
		return makeTriangles(matchVertices(vn1, vn0, vertices), vn1)
	case len(vn0) < len(vn1):
		return makeTriangles(vn0, matchVertices(vn0, vn1, vertices))
	}
	return makeTriangles(vn0, vn1)
}

// matchVertices returns for every goal vertex the first local nearest
// vertex of target.
func matchVertices(goal, target []VertexIndex, vertices []r3.Vec) []VertexIndex {
	prod := make([]VertexIndex, 0, len(goal))
	for _, g := range goal {
		minDist := -1.0
		var pair VertexIndex
		for _, t := range target {
			d := r3.Norm2(r3.Sub(vertices[g], vertices[t]))
			if minDist >= 0 && d > minDist {
				break
			}
			minDist = d
			pair = t
		}
		prod = append(prod, pair)
	}
	return prod
}

func makeTriangles(vn0, vn1 []VertexIndex) []VertexIndex {
	var tris []VertexIndex
	for i := 1; i < len(vn0); i += 2 {
		if vn0[i] == vn1[i] {
			tris = append(tris, vn1[i], vn1[i-1], vn0[i-1])
			continue
		}
		tris = append(tris,
			vn0[i-1], vn0[i], vn1[i],
			vn1[i], vn1[i-1], vn0[i-1],
		)
	}
	return tris
}
