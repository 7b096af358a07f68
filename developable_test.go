package fold

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/soypat/fold/internal/d2"
	"github.com/soypat/fold/internal/d3"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestSurfaceFromRulings(t *testing.T) {
	c := arcCurve(10, math.Pi, 21)
	s := coneSurface(c, 2)
	for i := 0; i < s.Len(); i++ {
		r := s.Ruling(i)
		if math.Abs(r.Length-2) > 1e-12 {
			t.Errorf("ruling %d length %v", i, r.Length)
		}
		if math.Abs(r.Alpha.X+0.6) > 1e-9 || math.Abs(r.Alpha.Y-0.8) > 1e-9 {
			t.Errorf("ruling %d alpha %v", i, r.Alpha)
		}
		if math.Abs(r.Beta.X) > 1e-9 || math.Abs(r.Beta.Y-1) > 1e-9 {
			t.Errorf("ruling %d beta %v", i, r.Beta)
		}
	}
	// Rebuilding from the angle encoding gives back the same directions.
	again := NewSurfaceFromAngles(c, s.Lengths(), s.Alphas(), s.Betas())
	diff(t, s.Directions(), again.Directions(), cmpopts.EquateApprox(0, 1e-12))

	profile := make([]float64, c.Len())
	for i := range profile {
		profile[i] = math.Atan2(0.8, -0.6)
	}
	fromRadians := NewSurfaceFromAlphaProfile(c, profile)
	diff(t, s.Directions(), fromRadians.Directions(), cmpopts.EquateApprox(0, 1e-9))
}

func TestSurfaceZeroRuling(t *testing.T) {
	c := NewDividedCurve(semicircle(1, 5))
	rulings := make([]r3.Vec, 5)
	s := NewSurfaceFromRulings(c, rulings)
	for i := 0; i < s.Len(); i++ {
		r := s.Ruling(i)
		if r.Length != 0 || hasNaN(r.Direction) || math.IsNaN(r.Alpha.X) || math.IsNaN(r.Beta.X) {
			t.Errorf("ruling %d: %+v", i, r)
		}
	}
}

func TestFoldSurfaceInvolution(t *testing.T) {
	s := coneSurface(arcCurve(10, math.Pi, 21), 2)
	back := s.FoldSurface().FoldSurface()
	diff(t, s.Endpoints(), back.Endpoints(), cmpopts.EquateApprox(0, 1e-9))
	fold := s.FoldSurface()
	for i := 0; i < s.Len(); i++ {
		a, fa := s.Ruling(i).Alpha, fold.Ruling(i).Alpha
		if math.Abs(fa.X+a.X) > 1e-9 || math.Abs(fa.Y-a.Y) > 1e-9 {
			t.Errorf("sample %d fold alpha %v from %v", i, fa, a)
		}
	}
}

func TestBihandleCone(t *testing.T) {
	const h = 2
	c := arcCurve(10, math.Pi, 41)
	s := coneSurface(c, h)
	sub, modified := s.BihandleCurve(h)
	if sub.Len() != c.Len() {
		t.Fatalf("got %d sub-handle samples", sub.Len())
	}
	for i, m := range modified {
		if m {
			t.Errorf("sample %d modified", i)
		}
	}
	crease, subPos := c.Positions(), sub.Positions()
	for i := 1; i < len(crease); i++ {
		if d2.SegmentsCrossXZ(crease[i-1], subPos[i-1], crease[i], subPos[i]) {
			t.Errorf("rulings %d and %d cross", i-1, i)
		}
	}
	// The sub-handle is the mirror image of the handle about the crease
	// plane's binormal: same height, opposite lean.
	for i := range subPos {
		if math.Abs(subPos[i].Y-0.8*h) > 1e-6 {
			t.Errorf("sample %d height %v", i, subPos[i].Y)
		}
	}
}

func TestBihandleInPlane(t *testing.T) {
	const r, h = 10.0, 1.5
	crease := semicircle(r, 31)
	handle := make([]r3.Vec, len(crease))
	for i, p := range crease {
		handle[i] = r3.Scale((r+h)/r, p)
	}
	c := NewDividedCurve(crease)
	s := NewSurfaceFromHandle(c, NewDividedCurve(handle))
	for i := 0; i < s.Len(); i++ {
		if a := s.Ruling(i).Alpha; a.Y != 0 {
			t.Errorf("sample %d alpha %v", i, a)
		}
	}
	sub, modified := s.BihandleCurve(h)
	if len(modified) != len(crease) {
		t.Fatalf("modified mask length %d", len(modified))
	}
	for i, p := range sub.Positions() {
		if math.Abs(p.Y) > 1e-12 || hasNaN(p) {
			t.Errorf("sample %d left the crease plane: %v", i, p)
		}
	}
}

func TestBihandleTwisted(t *testing.T) {
	const r, h, n = 30.0, 12.0, 61
	for _, tau := range []float64{0.001, 0.004, -0.004, 0.02} {
		k := make([]float64, n)
		taus := make([]float64, n)
		l := make([]float64, n)
		for i := range k {
			k[i] = 1 / r
			taus[i] = tau
			l[i] = math.Pi * r / (n - 1)
		}
		crease := Reconstruct(k, taus, l, IdentityFrame(), r3.Vec{})
		handle := make([]r3.Vec, n)
		for i, p := range crease.Positions() {
			handle[i] = r3.Add(p, r3.Vec{Y: h})
		}
		s := NewSurfaceFromHandle(crease, NewDividedCurve(handle))
		sub, modified := s.BihandleCurve(h)
		for i, m := range modified {
			if m {
				t.Errorf("tau=%g: sample %d modified", tau, i)
			}
		}
		subSurf := NewSurfaceFromHandle(crease, sub)
		for i, rl := range subSurf.Rulings() {
			if rl.Length < h-1e-9 || hasNaN(rl.Direction) {
				t.Errorf("tau=%g: sub-handle ruling %d: %+v", tau, i, rl)
			}
		}
		for name, surf := range map[string]DevelopableSurface{"handle": s, "sub-handle": subSurf} {
			dev := surf.Develop()
			pos, ends := dev.Curve().Positions(), dev.Endpoints()
			for i := 1; i < n; i++ {
				if d2.SegmentsCrossXZ(pos[i-1], ends[i-1], pos[i], ends[i]) {
					t.Errorf("tau=%g: developed %s rulings %d and %d cross", tau, name, i-1, i)
				}
			}
		}
	}
}

func TestBihandleEmpty(t *testing.T) {
	sub, modified := DevelopableSurface{}.BihandleCurve(1)
	if sub.Len() != 0 || len(modified) != 0 {
		t.Error("empty surface produced samples")
	}
}

func TestDevelopCone(t *testing.T) {
	const r = 10.0
	c := arcCurve(r, math.Pi, 21)
	s := coneSurface(c, 2)
	dev := s.Develop()
	if dev.Len() != s.Len() {
		t.Fatalf("got %d developed rulings", dev.Len())
	}
	dc := dev.Curve()
	diff(t, c.ArcLengths(), dc.ArcLengths())
	diff(t, s.Betas(), dev.Betas())
	diff(t, s.Lengths(), dev.Lengths())
	for i := 0; i < dev.Len(); i++ {
		smp := dc.At(i)
		if math.Abs(smp.Curvature-0.6/r) > 1e-12 || smp.Torsion != 0 {
			t.Errorf("sample %d curvature %v torsion %v", i, smp.Curvature, smp.Torsion)
		}
		if a := dev.Ruling(i).Alpha; a != (r2.Vec{X: -1, Y: 0}) {
			t.Errorf("sample %d developed alpha %v", i, a)
		}
		if math.Abs(smp.Position.Y) > 1e-12 || math.Abs(dev.Ruling(i).Direction.Y) > 1e-12 {
			t.Errorf("sample %d not in the XZ plane", i)
		}
	}
	diff(t, dc.Positions(), s.DevelopedCurve().Positions())
}

func TestDevelopPlanarIsIdentity(t *testing.T) {
	c := arcCurve(5, math.Pi/2, 17)
	rulings := make([]r3.Vec, c.Len())
	for i := range rulings {
		rulings[i] = r3.Scale(-1, c.At(i).Frame.Normal)
	}
	dev := NewSurfaceFromRulings(c, rulings).Develop()
	diff(t, c.Positions(), dev.Curve().Positions(), cmpopts.EquateApprox(0, 1e-12))
}

func TestInflectionPoints(t *testing.T) {
	c := NewDividedCurve(semicircle(1, 6))
	alpha := []r2.Vec{{X: 1}, {X: 0}, {X: -1}, {X: -1}, {X: 1}, {X: 1}}
	beta := make([]r2.Vec, 6)
	lengths := make([]float64, 6)
	for i := range beta {
		beta[i] = r2.Vec{Y: 1}
		lengths[i] = 1
	}
	s := NewSurfaceFromAngles(c, lengths, alpha, beta)
	diff(t, []int{1, 3}, s.InflectionPoints())
}

func TestWithCurve(t *testing.T) {
	c := arcCurve(4, math.Pi, 15)
	s := coneSurface(c, 1)
	moved := c.AlignCurve(r3.Vec{X: 3, Y: 1}, OrthoFrame(r3.Vec{X: 1}, r3.Vec{Z: 1}))
	m := s.WithCurve(moved)
	a, b := s.Endpoints(), m.Endpoints()
	for i := 1; i < len(a); i++ {
		d0 := r3.Norm(r3.Sub(a[i], a[i-1]))
		d1 := r3.Norm(r3.Sub(b[i], b[i-1]))
		if math.Abs(d0-d1) > 1e-9 {
			t.Errorf("endpoint spacing %d: %v != %v", i, d1, d0)
		}
	}
	if !d3.EqualWithin(m.Curve().First().Position, r3.Vec{X: 3, Y: 1}, 1e-12) {
		t.Error("crease not moved")
	}
}
