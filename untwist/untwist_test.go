package untwist

import (
	"bytes"
	"errors"
	"log/slog"
	"math"
	"strings"
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

// helix reconstructs n samples of constant curvature and torsion with
// unit arc lengths.
func helix(curvature, torsion float64, n int, start fold.FrenetFrame) fold.DividedCurve {
	k := make([]float64, n)
	tau := make([]float64, n)
	l := make([]float64, n)
	for i := range k {
		k[i] = curvature
		tau[i] = torsion
		l[i] = 1
	}
	return fold.Reconstruct(k, tau, l, start, r3.Vec{})
}

// flatArc is a torsion free arc of radius r spanning half a turn.
func flatArc(r float64, n int) fold.DividedCurve {
	k := make([]float64, n)
	tau := make([]float64, n)
	l := make([]float64, n)
	for i := range k {
		k[i] = 1 / r
		l[i] = math.Pi * r / float64(n-1)
	}
	return fold.Reconstruct(k, tau, l, fold.IdentityFrame(), r3.Vec{})
}

// sheetHandle places handle points at normal·cn + binormal·sb[i] from
// each crease sample, with cn[i] and sb[i] chosen per sample.
func sheetHandle(c fold.DividedCurve, cn, sb []float64) fold.DividedCurve {
	pts := make([]r3.Vec, c.Len())
	for i := range pts {
		s := c.At(i)
		dir := r3.Add(r3.Scale(cn[i], s.Frame.Normal), r3.Scale(sb[i], s.Frame.Binormal))
		pts[i] = r3.Add(s.Position, dir)
	}
	return fold.NewDividedCurve(pts)
}

func TestUntwistFlatArc(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.Logger = slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	crease := flatArc(10, 41)
	res, err := Untwist(crease, fold.Translation(r3.Vec{Y: 2}), 3, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Converged || res.Iterations != 1 || res.Segments != 1 {
		t.Fatalf("converged=%v iterations=%d segments=%d", res.Converged, res.Iterations, res.Segments)
	}
	if res.Crease.Len() != crease.Len() || res.Handle.Len() != crease.Len() || res.Subhandle.Len() != crease.Len() {
		t.Fatalf("lengths %d %d %d", res.Crease.Len(), res.Handle.Len(), res.Subhandle.Len())
	}
	want := crease.Positions()
	for i := range want {
		want[i].Y += 3
	}
	diff(t, want, res.Subhandle.Positions(), cmpopts.EquateApprox(0, 1e-9))
	diff(t, crease.Positions(), res.Crease.Positions(), cmpopts.EquateApprox(0, 1e-9))
	if !strings.Contains(buf.String(), "segment converged") {
		t.Errorf("missing debug record, got %q", buf.String())
	}
}

func TestUntwistTooShort(t *testing.T) {
	crease := flatArc(1, 2).Truncate(1)
	_, err := Untwist(crease, fold.Transform{}, 1, DefaultConfig())
	if !errors.Is(err, fold.ErrTooFewSamples) {
		t.Errorf("want ErrTooFewSamples, got %v", err)
	}
	_, err = Untwist(flatArc(1, 5), fold.Transform{}, 0, DefaultConfig())
	if err == nil {
		t.Error("want error for zero length")
	}
}

func TestUntwistKeepsSampleCount(t *testing.T) {
	crease := helix(0.2, 0.05, 31, fold.IdentityFrame())
	res, err := Untwist(crease, fold.Translation(r3.Vec{X: -1, Y: 1}), 2, Config{MaxIterations: 5})
	if err != nil {
		t.Fatal(err)
	}
	n := crease.Len()
	if res.Crease.Len() != n || res.Handle.Len() != n || res.Subhandle.Len() != n {
		t.Fatalf("lengths %d %d %d want %d", res.Crease.Len(), res.Handle.Len(), res.Subhandle.Len(), n)
	}
	for i, p := range res.Crease.Positions() {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsNaN(p.Z) {
			t.Fatalf("NaN crease position at %d", i)
		}
	}
}

func TestSegmentGapTolerance(t *testing.T) {
	arc := flatArc(10, 31)
	taus := make([]float64, arc.Len())
	for i := range taus {
		taus[i] = 0.1
	}
	crease := fold.Reconstruct(arc.Curvatures(), taus, arc.ArcLengths(), fold.IdentityFrame(), r3.Vec{})
	handle := crease.Transform(fold.Translation(r3.Vec{Y: 2}))
	subs := Split(crease, handle)
	first := crease.First()
	cs := NewCrossSection(first.Position, first.Frame, handle.First().Position, first.Curvature, first.Torsion, 3)
	cfg := DefaultConfig()
	seg := NewCorrector(cfg).Segment(subs[0], cs, 1, len(subs) > 1)
	if seg.Crease.Len() != subs[0].Crease.Len() || seg.Subhandle.Len() != seg.Crease.Len() {
		t.Fatalf("segment lengths %d %d", seg.Crease.Len(), seg.Subhandle.Len())
	}
	if !seg.Converged {
		if seg.Iterations != cfg.MaxIterations {
			t.Errorf("unconverged segment stopped after %d iterations", seg.Iterations)
		}
		return
	}
	surf := fold.NewSurfaceFromHandle(seg.Crease, seg.Handle)
	subSurf := fold.NewSurfaceFromHandle(seg.Crease, seg.Subhandle)
	for i := 0; i < surf.Len(); i++ {
		if gap := GapError(surf, subSurf, i); gap > cfg.Tolerance {
			t.Errorf("converged segment sample %d gap %g over tolerance %g", i, gap, cfg.Tolerance)
		}
	}
	if cs.Crease != seg.Crease.Last().Position {
		t.Errorf("cross section not advanced: %v", cs.Crease)
	}
}

func TestSplit(t *testing.T) {
	crease := flatArc(10, 11)
	cn := make([]float64, 11)
	sb := make([]float64, 11)
	for i := range cn {
		cn[i] = 0.6
		if i >= 5 {
			cn[i] = -0.6
		}
		sb[i] = 0.8
	}
	subs := Split(crease, sheetHandle(crease, cn, sb))
	if len(subs) != 2 {
		t.Fatalf("want 2 sub curves, got %d", len(subs))
	}
	if subs[0].Start != 0 || subs[0].Count != 4 || subs[0].Crease.Len() != 5 {
		t.Errorf("first sub curve %+v", subs[0])
	}
	if subs[1].Start != 4 || subs[1].Count != 6 || subs[1].Crease.Len() != 7 {
		t.Errorf("second sub curve %+v", subs[1])
	}

	for i := range cn {
		cn[i] = 0.6
	}
	subs = Split(crease, sheetHandle(crease, cn, sb))
	if len(subs) != 1 || subs[0].Count != 10 {
		t.Errorf("single sheet split into %d", len(subs))
	}
}

func TestNonInflectionRange(t *testing.T) {
	crease := flatArc(10, 6)
	cn := []float64{0.6, 0.6, 0.6, 0.6, 0.6, 0.6}
	sb := []float64{0.8, 0.8, -0.8, -0.8, -0.8, 0.8}
	surf := fold.NewSurfaceFromHandle(crease, sheetHandle(crease, cn, sb))
	for _, test := range []struct {
		i    int
		want []int
	}{
		{0, []int{0, 1}},
		{3, []int{2, 3, 4}},
		{5, []int{5}},
	} {
		diff(t, test.want, NonInflectionRange(surf, test.i))
	}
}

func TestCrossSectionNext(t *testing.T) {
	cs := &CrossSection{Sign: 1}
	cs.Next(r3.Vec{}, r3.Vec{Y: 1}, r3.Vec{X: 1}, r3.Vec{Z: 1})
	if cs.Sign != -1 {
		t.Errorf("sign not flipped: %v", cs.Sign)
	}
	want := r3.Vec{X: -math.Sqrt2 / 2, Y: -math.Sqrt2 / 2}
	diff(t, want, cs.Frame.Binormal, cmpopts.EquateApprox(0, 1e-12))
	diff(t, r3.Vec{Z: 1}, cs.Frame.Tangent, cmpopts.EquateApprox(0, 1e-12))
}

func TestNewCrossSectionFlat(t *testing.T) {
	c := flatArc(10, 5)
	s := c.First()
	cs := NewCrossSection(s.Position, s.Frame, r3.Add(s.Position, r3.Vec{Y: 2}), s.Curvature, s.Torsion, 3)
	diff(t, r3.Add(s.Position, r3.Vec{Y: 3}), cs.Subhandle, cmpopts.EquateApprox(0, 1e-12))
	if cs.Sign != 1 {
		t.Errorf("sign %v", cs.Sign)
	}
}

func TestUntwistCurve(t *testing.T) {
	h := helix(0.3, 0.1, 20, fold.IdentityFrame())
	same := UntwistCurve(h, 1)
	diff(t, h.Positions(), same.Positions(), cmpopts.EquateApprox(0, 1e-9))
	diff(t, h.Torsions(), same.Torsions())

	flat := UntwistCurve(h, 0)
	b0 := flat.First().Frame.Binormal
	for i, f := range flat.Frames() {
		if r3.Norm(r3.Sub(f.Binormal, b0)) > 1e-9 {
			t.Errorf("binormal %d not aligned: %v", i, f.Binormal)
		}
	}
	for i, tau := range flat.Torsions() {
		if tau != 0 {
			t.Errorf("torsion %d = %v", i, tau)
		}
	}
}

func TestPressCurve(t *testing.T) {
	start := fold.OrthoFrame(r3.Vec{X: 1}, r3.Vec{Z: 1})
	h := helix(0.3, 0.1, 15, start)
	zero := make([]float64, h.Len())
	same := PressCurve(h, zero, r3.Vec{})
	diff(t, h.Positions(), same.Positions(), cmpopts.EquateApprox(0, 1e-9))

	full := make([]float64, h.Len())
	for i := range full {
		full[i] = 1
	}
	pressed := PressCurve(h, full, r3.Vec{})
	for i, f := range pressed.Frames() {
		if r3.Norm(r3.Sub(f.Binormal, r3.Vec{Y: 1})) > 1e-9 {
			t.Errorf("binormal %d not pressed: %v", i, f.Binormal)
		}
	}
	tau := pressed.Torsions()
	for i := 0; i < len(tau)-1; i++ {
		if tau[i] != 0 {
			t.Errorf("torsion %d = %v", i, tau[i])
		}
	}
	diff(t, h.First().Position, pressed.First().Position)
}

func TestPressSurfaceZero(t *testing.T) {
	h := helix(0.3, 0.1, 10, fold.IdentityFrame())
	cn := make([]float64, h.Len())
	sb := make([]float64, h.Len())
	for i := range cn {
		cn[i], sb[i] = -0.6, 0.8
	}
	surf := fold.NewSurfaceFromHandle(h, sheetHandle(h, cn, sb))
	got := PressSurface(surf, make([]float64, h.Len()))
	diff(t, h.Positions(), got.Positions(), cmpopts.EquateApprox(0, 1e-9))
}

func TestGapAndSuitableTorsion(t *testing.T) {
	c := flatArc(10, 9)
	cn := make([]float64, c.Len())
	sb := make([]float64, c.Len())
	for i := range cn {
		cn[i], sb[i] = -0.6, 0.8
	}
	surf := fold.NewSurfaceFromHandle(c, sheetHandle(c, cn, sb))
	sub := surf.FoldSurface()
	for i := 0; i < c.Len(); i++ {
		// The fold ruling mirrors cos α, so the gap closes.
		if g := GapError(surf, sub, i); g > 1e-9 {
			t.Errorf("gap %d = %v", i, g)
		}
		// A torsion free crease with perpendicular rulings needs none.
		if st := SuitableTorsion(surf, sub, i); math.Abs(st) > 1e-9 {
			t.Errorf("suitable torsion %d = %v", i, st)
		}
	}
}
