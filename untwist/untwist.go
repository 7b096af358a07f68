// Package untwist corrects a creased curve so that the sub-handle curve of
// a single curved fold closes without a gap.
//
// The crease is split at its inflection points and every segment is
// handled in turn. Within a segment the torsion profile is scaled down
// uniformly until the crease gap error of every sample falls under the
// configured tolerance. The segments are then chained back together, each
// one starting from the cross section left by the previous.
package untwist

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/soypat/fold"
	"github.com/soypat/fold/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

// Config parameterizes the untwist corrector.
type Config struct {
	// Tolerance is the largest accepted crease gap error per sample.
	Tolerance float64
	// MaxIterations bounds the torsion rescaling loop of each segment.
	MaxIterations int
	// Logger receives per iteration debug records and non-convergence
	// warnings. Nil discards them.
	Logger *slog.Logger
}

// DefaultConfig returns the configuration used when none is given:
// a gap tolerance of 1e-2 and at most 50 iterations per segment.
func DefaultConfig() Config {
	return Config{
		Tolerance:     1e-2,
		MaxIterations: 50,
	}
}

func (cfg Config) logger() *slog.Logger {
	if cfg.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return cfg.Logger
}

// SubCurve is the part of a crease lying on a single sheet. Adjacent
// sub curves share the inflection sample between them.
type SubCurve struct {
	Crease fold.DividedCurve
	// Start is the index of the first sample in the full crease.
	Start int
	// Count is the index span covered, one less than the sample count.
	Count int
}

// Split divides the crease at the samples where the handle rulings change
// sheet, that is where the sign of cos α flips.
func Split(crease, handle fold.DividedCurve) []SubCurve {
	surf := fold.NewSurfaceFromHandle(crease, handle)
	n := crease.Len()
	if n == 0 {
		return nil
	}
	newSub := func(from, to int) SubCurve {
		return SubCurve{Crease: crease.SubCurve(from, to), Start: from, Count: to - from}
	}
	var subs []SubCurve
	start := 0
	prev := fold.Sign(surf.Ruling(0).Alpha.X)
	for i := 1; i < n; i++ {
		sign := fold.Sign(surf.Ruling(i).Alpha.X)
		if sign != prev {
			subs = append(subs, newSub(start, i-1))
			start = i - 1
		}
		prev = sign
	}
	return append(subs, newSub(start, n-1))
}

// CrossSection is the state handed from one segment to the next: the
// positions of the crease, handle and sub-handle at the segment boundary
// and the frame the next segment's crease is aligned to.
type CrossSection struct {
	Crease    r3.Vec
	Handle    r3.Vec
	Subhandle r3.Vec
	Frame     fold.FrenetFrame
	// Sign is the sheet sign of the handle ruling at the boundary.
	Sign float64
}

// NewCrossSection returns the cross section at the start of a crease whose
// handle ruling ends at handle. The sub-handle point is placed along the
// fold ruling at the given length.
func NewCrossSection(crease r3.Vec, frame fold.FrenetFrame, handle r3.Vec, curvature, torsion, length float64) *CrossSection {
	r := r3.Sub(handle, crease)
	fr := frame.FoldRuling(r, curvature, torsion)
	return &CrossSection{
		Crease:    crease,
		Handle:    handle,
		Subhandle: r3.Add(crease, r3.Scale(length, fr)),
		Frame:     frame,
		Sign:      fold.Sign(frame.AlphaSinCos(r).X),
	}
}

// Next moves the cross section to the end of a finished segment. The new
// frame's binormal bisects the handle and sub-handle rulings and its
// orientation flips with the sheet.
func (cs *CrossSection) Next(crease, handle, subhandle, tangent r3.Vec) {
	cs.Crease = crease
	cs.Handle = handle
	cs.Subhandle = subhandle
	r := d3.Unit(r3.Sub(handle, crease))
	fr := d3.Unit(r3.Sub(subhandle, crease))
	binormal := d3.Unit(r3.Add(r, fr))
	cs.Sign *= -1
	cs.Frame = fold.OrthoFrame(tangent, r3.Scale(cs.Sign, binormal))
}

// SegmentResult is the corrected geometry of one sub curve.
type SegmentResult struct {
	Crease    fold.DividedCurve
	Handle    fold.DividedCurve
	Subhandle fold.DividedCurve
	// Converged is false when MaxIterations ran out before every sample's
	// gap error fell under the tolerance.
	Converged  bool
	Iterations int
}

// CutEdge drops the last sample of every curve. It removes the inflection
// sample shared with the following segment before merging.
func (r SegmentResult) CutEdge() SegmentResult {
	n := r.Crease.Len() - 1
	r.Crease = r.Crease.Truncate(n)
	r.Handle = r.Handle.Truncate(n)
	r.Subhandle = r.Subhandle.Truncate(n)
	return r
}

// Corrector runs the per segment untwist loop.
type Corrector struct {
	cfg Config
	log *slog.Logger
}

// NewCorrector returns a corrector using cfg. Zero tolerance or iteration
// values are replaced by the defaults.
func NewCorrector(cfg Config) *Corrector {
	def := DefaultConfig()
	if cfg.Tolerance <= 0 {
		cfg.Tolerance = def.Tolerance
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = def.MaxIterations
	}
	return &Corrector{cfg: cfg, log: cfg.logger()}
}

// Segment untwists a sub curve starting at cross section cs, which is
// advanced to the end of the segment. The handle is the crease scaled by
// handleScale and placed at the cross section's handle point.
// endIsInflection selects the beta preserving plane at the last sample.
func (c *Corrector) Segment(sub SubCurve, cs *CrossSection, handleScale float64, endIsInflection bool) SegmentResult {
	initial := sub.Crease
	initialTorsions := initial.Torsions()
	crease := initial.AlignCurve(cs.Crease, cs.Frame)
	handle := crease.ScalingCurve(handleScale).AlignCurve(cs.Handle, cs.Frame)
	log := c.log.With(slog.Int("start", sub.Start), slog.Int("count", sub.Count))

	var res SegmentResult
	var pos []r3.Vec
	for iter := 0; iter < c.cfg.MaxIterations; iter++ {
		surf := fold.NewSurfaceFromHandle(crease, handle)
		pos = subhandlePositions(crease, surf, cs.Subhandle, endIsInflection)
		subSurf := fold.NewSurfaceFromRulings(crease, fold.Rulings(crease.Positions(), pos))

		ratio := 1.0
		update := false
		for i := 0; i < crease.Len(); i++ {
			gap := GapError(surf, subSurf, i)
			if gap <= c.cfg.Tolerance {
				continue
			}
			update = true
			r := math.Abs(SuitableTorsion(surf, subSurf, i) / initialTorsions[i])
			if r < ratio {
				ratio = r
			}
			log.Debug("crease gap", slog.Int("index", i), slog.Float64("gap", gap))
		}
		if !update {
			res = SegmentResult{
				Crease:     crease,
				Handle:     handle,
				Subhandle:  fold.NewDividedCurve(pos),
				Converged:  true,
				Iterations: iter + 1,
			}
			log.Debug("segment converged", slog.Int("iterations", iter+1))
			cs.Next(crease.Last().Position, handle.Last().Position, pos[len(pos)-1], crease.Last().Frame.Tangent)
			return res
		}
		log.Debug("untwist iteration", slog.Int("iteration", iter), slog.Float64("torsionRatio", ratio))
		crease = UntwistCurve(initial, ratio).AlignCurve(cs.Crease, cs.Frame)
		handle = crease.ScalingCurve(handleScale).AlignCurve(cs.Handle, cs.Frame)
	}

	log.Warn("untwist did not converge", slog.Int("iterations", c.cfg.MaxIterations))
	for len(pos) < crease.Len() {
		pos = append(pos, pos[len(pos)-1])
	}
	res = SegmentResult{
		Crease:     crease,
		Handle:     handle,
		Subhandle:  fold.NewDividedCurve(pos),
		Iterations: c.cfg.MaxIterations,
	}
	cs.Next(crease.Last().Position, handle.Last().Position, pos[len(pos)-1], crease.Last().Frame.Tangent)
	return res
}

// subhandlePositions chains the sub-handle points of a segment. Each point
// is the intersection of a crease parallel ray from its predecessor with
// the plane spanned by the crease tangent and the fold ruling.
func subhandlePositions(crease fold.DividedCurve, surf fold.DevelopableSurface, start r3.Vec, endIsInflection bool) []r3.Vec {
	n := crease.Len()
	planes := make([]d3.Plane, n)
	for i := range planes {
		smp := crease.At(i)
		planes[i] = d3.NewPlane(r3.Cross(surf.FoldRuling(i), smp.Frame.Tangent), smp.Position)
	}
	pos := make([]r3.Vec, 1, n)
	pos[0] = start
	for i := 1; i < n; i++ {
		smp := crease.At(i)
		if i == n-1 && endIsInflection {
			// Torsion vanishes at an inflection so the fold ruling must
			// keep the handle ruling's beta.
			axis := r3.Cross(smp.Frame.Tangent, r3.Sub(pos[i-1], smp.Position))
			beta := surf.Ruling(i).Beta
			q := d3.AngleAxis(math.Atan2(beta.Y, -beta.X), axis)
			planes[i] = d3.NewPlane(q.Apply(smp.Frame.Tangent), smp.Position)
		}
		ray := d3.NewRay(pos[i-1], r3.Sub(smp.Position, crease.At(i-1).Position))
		if t, ok := planes[i].Raycast(ray); ok {
			pos = append(pos, ray.At(t))
			continue
		}
		if fold.Sign(smp.Torsion)*fold.Sign(surf.Ruling(i).Alpha.Y) < 0 {
			// Sample i twists away: hold the previous point.
			pos = append(pos, ray.At(0))
			continue
		}
		// Sample i-1 or earlier overshot: walk back to the first earlier
		// segment that still reaches plane i.
		p := pos[0]
		j := i - 1
		for ; j > 0; j-- {
			back := d3.NewRay(pos[j-1], r3.Sub(crease.At(j).Position, crease.At(j-1).Position))
			if t, ok := planes[i].Raycast(back); ok {
				p = back.At(t)
				break
			}
		}
		for ; j < len(pos); j++ {
			pos[j] = p
		}
		pos = append(pos, p)
	}
	return pos
}

// GapError estimates the angular gap left at sample i between the handle
// surface and the sub-handle surface when the developed strips are
// joined, summed over the whole crease.
func GapError(surf, subSurf fold.DevelopableSurface, i int) float64 {
	smp := surf.Curve().At(i)
	cosSum := surf.Ruling(i).Alpha.X + subSurf.Ruling(i).Alpha.X
	return math.Abs(smp.Curvature * cosSum * smp.ArcLength * float64(surf.Len()))
}

// SuitableTorsion returns the torsion at sample i for which the handle and
// sub-handle rulings satisfy the fold relation exactly. A ruling parallel
// to the tangent yields an infinite or NaN result.
func SuitableTorsion(surf, subSurf fold.DevelopableSurface, i int) float64 {
	r, sr := surf.Ruling(i), subSurf.Ruling(i)
	cotB := r.Beta.X / r.Beta.Y
	subCotB := sr.Beta.X / sr.Beta.Y
	return (cotB*r.Alpha.Y + subCotB*sr.Alpha.Y) * surf.Curve().At(i).Curvature / 2
}

// UntwistCurve scales the torsion of curve by ratio and bends the samples
// accordingly: every binormal step between consecutive samples is reduced
// to ratio of itself by rotating the remaining tail of the curve about
// the current sample. A ratio of 1 leaves the curve unchanged and 0
// flattens it.
func UntwistCurve(curve fold.DividedCurve, ratio float64) fold.DividedCurve {
	samples := curve.Samples()
	for i := range samples {
		samples[i].Torsion *= ratio
	}
	for i := 0; i < len(samples)-1; i++ {
		back := d3.FromTo(samples[i+1].Frame.Binormal, samples[i].Frame.Binormal)
		rotateTail(samples, i, d3.Nlerp(back, d3.Identity(), ratio))
	}
	return fold.NewCurveFromSamples(samples)
}

// rotateTail rotates positions and frames of samples after i about
// sample i.
func rotateTail(samples []fold.Sample, i int, q d3.Rotation) {
	origin := samples[i].Position
	for j := i + 1; j < len(samples); j++ {
		samples[j].Position = r3.Add(origin, q.Apply(r3.Sub(samples[j].Position, origin)))
		samples[j].Frame = samples[j].Frame.Rotated(q)
	}
}

// PressCurve flattens a curve as if pressed against a plane with normal
// direction. pressures[i] in [0,1] removes that fraction of the torsion
// step at sample i; the curvature step is kept in proportion to how
// perpendicular the tangent is to direction. pressures[0] also turns the
// starting frame toward the identity frame.
func PressCurve(curve fold.DividedCurve, pressures []float64, direction r3.Vec) fold.DividedCurve {
	n := curve.Len()
	if n == 0 {
		return curve
	}
	checkPressures(n, pressures)
	first := curve.First()
	toIdentity := fold.TowardRotation(first.Frame, fold.IdentityFrame())
	initRot := d3.Nlerp(d3.Identity(), toIdentity, pressures[0])
	samples := curve.AlignCurve(first.Position, first.Frame.Rotated(initRot)).Samples()
	orig := curve.Samples()
	for i := 0; i < n-1; i++ {
		kappaRatio := 1 - math.Abs(r3.Dot(orig[i].Frame.Tangent, direction))
		tauRatio := 1 - pressures[i]
		sign := fold.Sign(r3.Dot(direction, orig[i].Frame.Binormal))
		nextSign := fold.Sign(r3.Dot(direction, orig[i+1].Frame.Binormal))
		toPlanarKappa := d3.FromTo(samples[i+1].Frame.Tangent, samples[i].Frame.Tangent)
		toPlanarTau := d3.FromTo(samples[i+1].Frame.Binormal, r3.Scale(sign*nextSign, samples[i].Frame.Binormal))
		rotKappa := d3.Nlerp(toPlanarKappa, d3.Identity(), kappaRatio)
		rotTau := d3.Nlerp(toPlanarTau, d3.Identity(), tauRatio)
		rotateTail(samples, i, rotTau.Mul(rotKappa))
		samples[i].Curvature *= kappaRatio
		samples[i].Torsion *= tauRatio
	}
	return fold.NewCurveFromSamples(samples)
}

// PressSurface flattens the crease of surf by removing pressures[i] of the
// torsion step at each sample. Binormals are matched up to the sheet sign
// given by sin α so the handle side of the fold is preserved.
func PressSurface(surf fold.DevelopableSurface, pressures []float64) fold.DividedCurve {
	curve := surf.Curve()
	n := curve.Len()
	checkPressures(n, pressures)
	samples := curve.Samples()
	for i := 0; i < n-1; i++ {
		tauRatio := 1 - pressures[i]
		sign := fold.Sign(surf.Ruling(i).Alpha.Y)
		nextSign := fold.Sign(surf.Ruling(i + 1).Alpha.Y)
		toPlanarTau := d3.FromTo(samples[i+1].Frame.Binormal, r3.Scale(sign*nextSign, samples[i].Frame.Binormal))
		rotateTail(samples, i, d3.Nlerp(toPlanarTau, d3.Identity(), tauRatio))
		samples[i].Torsion *= tauRatio
	}
	return fold.NewCurveFromSamples(samples)
}

func checkPressures(n int, pressures []float64) {
	if len(pressures) != n {
		panic(fmt.Sprintf("got %d pressures for %d samples", len(pressures), n))
	}
}

// NonInflectionRange returns the contiguous indices around i whose handle
// rulings share the sign of sin α with ruling i.
func NonInflectionRange(surf fold.DevelopableSurface, i int) []int {
	sign := fold.Sign(surf.Ruling(i).Alpha.Y)
	lo, hi := i, i
	for lo > 0 && fold.Sign(surf.Ruling(lo-1).Alpha.Y) == sign {
		lo--
	}
	for hi < surf.Len()-1 && fold.Sign(surf.Ruling(hi+1).Alpha.Y) == sign {
		hi++
	}
	index := make([]int, 0, hi-lo+1)
	for k := lo; k <= hi; k++ {
		index = append(index, k)
	}
	return index
}

// Result is the untwisted fold.
type Result struct {
	Crease    fold.DividedCurve
	Handle    fold.DividedCurve
	Subhandle fold.DividedCurve
	// Segments is the number of sub curves the crease was split into.
	Segments int
	// Converged reports whether every segment converged.
	Converged bool
	// Iterations is the total number of iterations over all segments.
	Iterations int
}

// Untwist corrects crease so the sub-handle curve at the given fold ruling
// length closes. The handle curve is crease mapped by creaseToHandle; the
// handle of every corrected segment is the crease scaled by the x-axis
// scale of creaseToHandle.
func Untwist(crease fold.DividedCurve, creaseToHandle fold.Transform, length float64, cfg Config) (Result, error) {
	if crease.Len() < 2 {
		return Result{}, fmt.Errorf("untwist: %d samples: %w", crease.Len(), fold.ErrTooFewSamples)
	}
	if length <= 0 || math.IsNaN(length) {
		return Result{}, errors.New("untwist: fold ruling length must be positive")
	}
	handle := crease.Transform(creaseToHandle)
	subs := Split(crease, handle)
	handleScale := creaseToHandle.LossyScale().X
	c := NewCorrector(cfg)
	c.log.Debug("untwist start", slog.Int("samples", crease.Len()), slog.Int("segments", len(subs)))

	first := crease.First()
	cs := NewCrossSection(first.Position, first.Frame, handle.First().Position, first.Curvature, first.Torsion, length)
	res := Result{Segments: len(subs), Converged: true}
	var creases, handles, subhandles []fold.DividedCurve
	for i, sub := range subs {
		last := i == len(subs)-1
		seg := c.Segment(sub, cs, handleScale, !last)
		if !last {
			seg = seg.CutEdge()
		}
		res.Converged = res.Converged && seg.Converged
		res.Iterations += seg.Iterations
		creases = append(creases, seg.Crease)
		handles = append(handles, seg.Handle)
		subhandles = append(subhandles, seg.Subhandle)
	}
	res.Crease = fold.MergeCurve(creases...)
	res.Handle = fold.MergeCurve(handles...)
	res.Subhandle = fold.MergeCurve(subhandles...)
	return res, nil
}
