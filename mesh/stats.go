package mesh

import (
	"fmt"
	"math"

	"github.com/soypat/fold"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat"
)

// Stats summarizes a per ruling metric.
type Stats struct {
	Max, Min, Mean float64
	Values         []float64
}

// NewStats returns the summary of values. An empty slice gives zero Stats.
func NewStats(values []float64) Stats {
	if len(values) == 0 {
		return Stats{}
	}
	return Stats{
		Max:    floats.Max(values),
		Min:    floats.Min(values),
		Mean:   stat.Mean(values, nil),
		Values: append([]float64(nil), values...),
	}
}

// AbsStats returns the summary of the absolute values.
func AbsStats(values []float64) Stats {
	abs := make([]float64, len(values))
	for i, v := range values {
		abs[i] = math.Abs(v)
	}
	return NewStats(abs)
}

// Evaluate maps every value to [0,1] relative to target: 0 for values at
// or below 0 and 1 for values at or beyond target.
func (s Stats) Evaluate(target float64) []float64 {
	out := make([]float64, len(s.Values))
	if target == 0 {
		return out
	}
	for i, v := range s.Values {
		out[i] = fold.Clamp(v/target, 0, 1)
	}
	return out
}

// Tolerances are the acceptance thresholds of a fold's quality report.
type Tolerances struct {
	// Distance bounds the gap between the developed creases of the two
	// sides of the fold.
	Distance float64
	// Flatness bounds the out of plane deviation of ruling quads.
	Flatness float64
	// Developability bounds the angle defect at the crease in radians.
	Developability float64
}

// DefaultTolerances returns a gap of 0.5, a flatness of 1e-5 and an angle
// defect of 8.7e-4 radians, about 0.05°.
func DefaultTolerances() Tolerances {
	return Tolerances{
		Distance:       0.5,
		Flatness:       1e-5,
		Developability: 8.7e-4,
	}
}

// Report is the quality report of a fold built from a handle surface and
// a sub-handle surface sharing the crease.
type Report struct {
	HandleFlatness    Stats
	SubhandleFlatness Stats
	Developability    Stats
	// Crossed rulings of the developed surfaces.
	HandleCrossed    []bool
	SubhandleCrossed []bool
	// Gap is the distance between the developed creases of both sides.
	Gap Stats
	// Vertices and Triangles hold the welded mesh of both surfaces.
	Vertices  []r3.Vec
	Triangles []VertexIndex
}

// Passed reports whether every metric is within tol.
func (r Report) Passed(tol Tolerances) bool {
	return r.HandleFlatness.Max <= tol.Flatness &&
		r.SubhandleFlatness.Max <= tol.Flatness &&
		r.Developability.Max <= tol.Developability &&
		r.Gap.Max <= tol.Distance &&
		!anyTrue(r.HandleCrossed) && !anyTrue(r.SubhandleCrossed)
}

func anyTrue(b []bool) bool {
	for _, v := range b {
		if v {
			return true
		}
	}
	return false
}

// Verify builds the meshes of both sides of a fold and measures them.
// When paper is not nil the developed rulings are trimmed to it and the
// 3D rulings follow the same trim.
func Verify(handle, subhandle fold.DevelopableSurface, paper *Paper) (Report, error) {
	if handle.Len() == 0 || subhandle.Len() == 0 {
		return Report{}, fmt.Errorf("verify: %w", ErrEmptyMesh)
	}
	if handle.Len() != subhandle.Len() {
		return Report{}, fmt.Errorf("verify: handle has %d rulings, sub-handle %d", handle.Len(), subhandle.Len())
	}
	h3, s3 := NewSurfaceMesh(handle), NewSurfaceMesh(subhandle)
	hDev, sDev := handle.Develop(), subhandle.Develop()
	h2, s2 := NewSurfaceMesh(hDev), NewSurfaceMesh(sDev)
	if paper != nil {
		h2.Trim(paper)
		s2.Trim(paper)
		h3.CopyTrim(h2)
		s3.CopyTrim(s2)
	}

	hc, sc := hDev.Curve(), sDev.Curve()
	gap := make([]float64, hc.Len())
	for i := range gap {
		gap[i] = r3.Norm(r3.Sub(sc.At(i).Position, hc.At(i).Position))
	}

	mgr := NewRulingVertexManager(DefaultWeldTolerance)
	for _, m := range []*SurfaceMesh{h3, s3} {
		mgr.AddSurface()
		for i := range m.positions {
			mgr.AddRuling(m.positions[i], m.directions[i], m.lengths[i])
		}
	}
	return Report{
		HandleFlatness:    AbsStats(h3.Flatness()),
		SubhandleFlatness: AbsStats(s3.Flatness()),
		Developability:    AbsStats(h3.Developabilities(s3.directions)),
		HandleCrossed:     h2.Crossed(),
		SubhandleCrossed:  s2.Crossed(),
		Gap:               NewStats(gap),
		Vertices:          mgr.vertices,
		Triangles:         mgr.Triangles([]bool{false, true}),
	}, nil
}
