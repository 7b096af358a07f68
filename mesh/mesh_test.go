package mesh

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/soypat/fold"
	"gonum.org/v1/gonum/spatial/r3"
)

func diff(t *testing.T, want, got any, opts ...cmp.Option) {
	t.Helper()
	if d := cmp.Diff(want, got, opts...); d != "" {
		t.Error(d)
	}
}

// strip returns a flat sheet: a straight crease of n unit samples along
// +Z with rulings of length w toward +X on the handle side and -X on the
// sub-handle side.
func strip(n int, w float64) (handle, subhandle fold.DevelopableSurface) {
	k := make([]float64, n)
	tau := make([]float64, n)
	l := make([]float64, n)
	for i := range l {
		l[i] = 1
	}
	crease := fold.Reconstruct(k, tau, l, fold.IdentityFrame(), r3.Vec{})
	right := make([]r3.Vec, n)
	left := make([]r3.Vec, n)
	for i := range right {
		right[i] = r3.Vec{X: w}
		left[i] = r3.Vec{X: -w}
	}
	return fold.NewSurfaceFromRulings(crease, right), fold.NewSurfaceFromRulings(crease, left)
}

func TestStripTrianglesUnequal(t *testing.T) {
	vertices := []r3.Vec{
		{}, {Z: 1},
		{X: 1}, {X: 1, Z: 0.4}, {X: 1, Z: 0.6}, {X: 1, Z: 1},
	}
	got := StripTriangles([]VertexIndex{0, 1}, []VertexIndex{2, 3, 4, 5}, vertices)
	diff(t, []VertexIndex{0, 1, 5, 5, 2, 0}, got)
	// Order of the rulings does not change which vertices are paired.
	got = StripTriangles([]VertexIndex{2, 3, 4, 5}, []VertexIndex{0, 1}, vertices)
	diff(t, []VertexIndex{2, 5, 1, 1, 0, 2}, got)
}

func TestStripTrianglesCollapsed(t *testing.T) {
	vertices := []r3.Vec{{}, {Y: 1}, {X: 1}}
	got := StripTriangles([]VertexIndex{0, 1}, []VertexIndex{2, 1}, vertices)
	diff(t, []VertexIndex{1, 2, 0}, got)
}

func TestSurfaceMeshBuild(t *testing.T) {
	handle, _ := strip(3, 2)
	m := NewSurfaceMesh(handle)
	if m.Len() != 3 {
		t.Fatalf("got %d rulings", m.Len())
	}
	approx := cmpopts.EquateApprox(0, 1e-12)
	diff(t, []r3.Vec{{}, {X: 2}, {Z: 1}, {X: 2, Z: 1}, {Z: 2}, {X: 2, Z: 2}}, m.Vertices(), approx)
	diff(t, [][2]VertexIndex{{0, 1}, {2, 3}, {4, 5}}, m.RulingLines())
	diff(t, []float64{2, 2, 2}, m.Lengths(), approx)
	tris := m.Triangles()
	if len(tris) != 12 {
		t.Fatalf("got %d triangle indices", len(tris))
	}
	back := m.BackTriangles()
	for i := range tris {
		if back[len(back)-1-i] != tris[i] {
			t.Fatal("back triangles are not reversed")
		}
	}
	normals, backNormals := m.Normals(), m.BackNormals()
	for i, n := range normals {
		if math.Abs(math.Abs(n.Y)-1) > 1e-12 {
			t.Errorf("normal %d not along Y: %v", i, n)
		}
		if r3.Add(n, backNormals[i]) != (r3.Vec{}) {
			t.Errorf("back normal %d: %v", i, backNormals[i])
		}
	}
	outline := m.Outline()
	if len(outline) != 7 || outline[0] != outline[6] {
		t.Errorf("outline not closed: %v", outline)
	}
}

func TestTrim(t *testing.T) {
	paper, err := NewPaper([]r3.Vec{{X: -1, Z: -1}, {X: 1, Z: -1}, {X: 1, Z: 1}, {X: -1, Z: 1}})
	if err != nil {
		t.Fatal(err)
	}
	var m SurfaceMesh
	m.SetDirections([]r3.Vec{{}, {X: 5, Z: 5}}, []r3.Vec{{X: 1}, {X: 1}}, []float64{5, 5})
	m.Trim(paper)
	approx := cmpopts.EquateApprox(0, 1e-12)
	diff(t, [][]float64{{0, 1}, {}}, m.RulingLengths(), approx, cmpopts.EquateEmpty())
	if len(m.Vertices()) != 2 {
		t.Errorf("got %d vertices after trim", len(m.Vertices()))
	}
	if !paper.IsCrossing(r3.Vec{}, r3.Vec{Z: 1}) || paper.IsCrossing(r3.Vec{X: 5}, r3.Vec{X: 1}) {
		t.Error("unexpected crossing result")
	}

	var other SurfaceMesh
	other.SetDirections([]r3.Vec{{Y: 1}, {Y: 2}}, []r3.Vec{{Z: 1}, {Z: 1}}, []float64{3, 3})
	other.CopyTrim(&m)
	diff(t, []r3.Vec{{Y: 1}, {Y: 1, Z: 1}}, other.Vertices(), approx)

	m.ResetTrim()
	diff(t, [][]float64{{0, 5}, {0, 5}}, m.RulingLengths())
}

func TestTrimOutside(t *testing.T) {
	paper, err := NewPaper([]r3.Vec{{X: -1, Z: -1}, {X: 1, Z: -1}, {X: 1, Z: 1}, {X: -1, Z: 1}})
	if err != nil {
		t.Fatal(err)
	}
	var m SurfaceMesh
	m.SetDirections(
		[]r3.Vec{{X: -3}, {Z: 0.5}, {X: -3}, {X: -2, Z: -0.5}},
		[]r3.Vec{{X: 1}, {X: 1}, {X: -1}, {X: 1 / math.Sqrt2, Z: 1 / math.Sqrt2}},
		[]float64{5, 5, 5, 5},
	)
	m.Trim(paper)
	// A ruling starting outside the paper enters and leaves it, even when
	// the far edge is beyond the outline's diagonal.
	want := [][]float64{{2, 4}, {0, 1}, {}, {math.Sqrt2, 1.5 * math.Sqrt2}}
	diff(t, want, m.RulingLengths(), cmpopts.EquateApprox(0, 1e-12), cmpopts.EquateEmpty())
}

func TestNewPaperTooFew(t *testing.T) {
	if _, err := NewPaper([]r3.Vec{{}, {X: 1}}); err == nil {
		t.Error("expected error for two point outline")
	}
}

func TestCrossed(t *testing.T) {
	var m SurfaceMesh
	m.SetRulings(
		[]r3.Vec{{}, {X: 1}, {X: 2}},
		[]r3.Vec{{Z: 2}, {X: -math.Sqrt2, Z: math.Sqrt2}, {Z: 2}},
	)
	diff(t, []bool{true, true, false}, m.Crossed())
}

func TestFlatness(t *testing.T) {
	var m SurfaceMesh
	m.SetRulings([]r3.Vec{{}, {X: 1}}, []r3.Vec{{Y: 1}, {Z: 1}})
	approx := cmpopts.EquateApprox(0, 1e-12)
	diff(t, []float64{1 / math.Sqrt(6), 0}, m.Flatness(), approx)

	// Parallel rulings on a circle form a cylinder with planar quads.
	const n = 12
	pos := make([]r3.Vec, n)
	rulings := make([]r3.Vec, n)
	for i := range pos {
		s, c := math.Sincos(float64(i) * math.Pi / n)
		pos[i] = r3.Vec{X: 3 * c, Z: 3 * s}
		rulings[i] = r3.Vec{Y: 2}
	}
	m.SetRulings(pos, rulings)
	for i, f := range m.Flatness() {
		if f > 1e-12 {
			t.Errorf("cylinder quad %d flatness %g", i, f)
		}
	}
}

func TestDevelopabilities(t *testing.T) {
	handle, subhandle := strip(4, 1)
	m := NewSurfaceMesh(handle)
	dev := m.Developabilities(subhandle.Directions())
	diff(t, []float64{0, 0, 0, 0}, dev, cmpopts.EquateApprox(0, 1e-12))
}

func TestRulingVertexManagerWeld(t *testing.T) {
	mgr := NewRulingVertexManager(0)
	pos := []r3.Vec{{}, {X: 1}, {X: 2}}
	for _, dir := range []r3.Vec{{Y: 1}, {Y: -1}} {
		mgr.AddSurface()
		for _, p := range pos {
			mgr.AddRuling(p, dir, []float64{0, 1})
		}
	}
	if mgr.SurfaceCount() != 2 || mgr.RulingCount(1) != 3 {
		t.Fatalf("surfaces=%d rulings=%d", mgr.SurfaceCount(), mgr.RulingCount(1))
	}
	if got := len(mgr.Vertices()); got != 9 {
		t.Fatalf("got %d vertices, want 9", got)
	}
	for i := range pos {
		a, _ := mgr.StartVertex(0, i)
		b, _ := mgr.StartVertex(1, i)
		if a != b {
			t.Errorf("crease vertex %d not welded: %d != %d", i, a, b)
		}
	}
	want := []VertexIndex{
		0, 1, 3, 3, 2, 0,
		2, 3, 5, 5, 4, 2,
		0, 2, 7, 7, 6, 0,
		2, 4, 8, 8, 7, 2,
	}
	diff(t, want, mgr.Triangles([]bool{false, true}))
}

func TestRulingVertexManagerApex(t *testing.T) {
	mgr := NewRulingVertexManager(DefaultWeldTolerance)
	mgr.AddRuling(r3.Vec{}, r3.Vec{Y: 1}, []float64{0, 1})
	mgr.AddRuling(r3.Vec{X: 1}, r3.Vec{X: -1 / math.Sqrt2, Y: 1 / math.Sqrt2}, []float64{0, math.Sqrt2})
	e0, _ := mgr.EndVertex(0, 0)
	e1, _ := mgr.EndVertex(0, 1)
	if e0 != e1 {
		t.Fatalf("apex not welded: %d != %d", e0, e1)
	}
	diff(t, []VertexIndex{1, 2, 0}, mgr.Triangles(nil))
	// Rulings without vertices are kept as empty entries.
	mgr.AddRuling(r3.Vec{X: 5}, r3.Vec{Y: 1}, nil)
	if _, ok := mgr.StartVertex(0, 2); ok {
		t.Error("empty ruling has a start vertex")
	}
}

func TestStats(t *testing.T) {
	approx := cmpopts.EquateApprox(0, 1e-12)
	s := NewStats([]float64{1, -2, 3})
	diff(t, Stats{Max: 3, Min: -2, Mean: 2. / 3, Values: []float64{1, -2, 3}}, s, approx)
	a := AbsStats([]float64{1, -2, 3})
	diff(t, Stats{Max: 3, Min: 1, Mean: 2, Values: []float64{1, 2, 3}}, a, approx)
	diff(t, Stats{}, NewStats(nil))

	e := NewStats([]float64{-1, 1, 4}).Evaluate(2)
	diff(t, []float64{0, 0.5, 1}, e, approx)
	diff(t, []float64{0, 0, 0}, NewStats([]float64{-1, 1, 4}).Evaluate(0))
}

func TestVerifyFlatSheet(t *testing.T) {
	handle, subhandle := strip(5, 1)
	report, err := Verify(handle, subhandle, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !report.Passed(DefaultTolerances()) {
		t.Errorf("flat sheet failed: %+v", report)
	}
	if len(report.Vertices) != 15 {
		t.Errorf("got %d welded vertices, want 15", len(report.Vertices))
	}
	if len(report.Triangles) != 48 {
		t.Errorf("got %d triangle indices, want 48", len(report.Triangles))
	}
	if report.Gap.Max > 1e-12 {
		t.Errorf("gap %g", report.Gap.Max)
	}

	paper, err := NewPaper([]r3.Vec{{X: -0.5, Z: -1}, {X: 0.5, Z: -1}, {X: 0.5, Z: 5}, {X: -0.5, Z: 5}})
	if err != nil {
		t.Fatal(err)
	}
	report, err = Verify(handle, subhandle, paper)
	if err != nil {
		t.Fatal(err)
	}
	for _, v := range report.Vertices {
		if math.Abs(v.X) > 0.5+1e-12 {
			t.Errorf("vertex %v outside paper", v)
		}
	}
	if len(report.Vertices) != 15 {
		t.Errorf("got %d trimmed vertices, want 15", len(report.Vertices))
	}
}

func TestVerifyInvalid(t *testing.T) {
	handle, _ := strip(5, 1)
	short, _ := strip(4, 1)
	if _, err := Verify(fold.DevelopableSurface{}, handle, nil); !errors.Is(err, ErrEmptyMesh) {
		t.Errorf("expected ErrEmptyMesh, got %v", err)
	}
	if _, err := Verify(handle, short, nil); err == nil {
		t.Error("expected mismatch error")
	}
}
