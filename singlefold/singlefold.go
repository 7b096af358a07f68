// Package singlefold constructs the three curves of a single curved fold:
// the crease, the handle curve bounding the sheet on one side and the
// sub-handle curve bounding the sheet folded over to the other side.
//
// Several construction modes are available. They differ in how they deal
// with sub-handle rulings that would cross each other when the crease
// twists faster than the fold allows.
package singlefold

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"slices"

	"github.com/soypat/fold"
	"github.com/soypat/fold/untwist"
	"gonum.org/v1/gonum/spatial/r3"
)

// Mode selects the construction method of the sub-handle curve.
type Mode int

const (
	// RawRuling places every sub-handle point along its fold ruling with
	// no crossing correction.
	RawRuling Mode = iota
	// AllowGap chains the sub-handle curve and moves crossing points back,
	// leaving a gap at the crease where the fold relation is broken.
	AllowGap
	// Untwist reduces the crease torsion segment by segment until the gap
	// closes.
	Untwist
	// Press flattens the crease locally around the samples that needed a
	// correction.
	Press
	// Optimize averages the crease torsion with the torsion implied by the
	// corrected sub-handle and reintegrates the crease.
	Optimize
)

// String returns the mode name used in log records.
func (m Mode) String() string {
	switch m {
	case RawRuling:
		return "raw ruling"
	case AllowGap:
		return "allow gap"
	case Untwist:
		return "untwist"
	case Press:
		return "press"
	case Optimize:
		return "optimize"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// Config holds the parameters of a fold construction.
type Config struct {
	Mode Mode
	// Length is the length of the fold rulings from the crease to the
	// sub-handle curve.
	Length float64
	// CreaseToHandle maps the crease onto the handle curve.
	CreaseToHandle fold.Transform
	// Iterations bounds the Press and Optimize loops.
	Iterations int
	// Untwist configures the Untwist mode.
	Untwist untwist.Config
	// Logger receives progress records. Nil discards them.
	Logger *slog.Logger
}

// DefaultConfig returns the AllowGap configuration with fold rulings of
// length 10 and a handle coinciding with the crease.
func DefaultConfig() Config {
	return Config{
		Mode:       AllowGap,
		Length:     10,
		Iterations: 100,
		Untwist:    untwist.DefaultConfig(),
	}
}

// Result is a constructed fold.
type Result struct {
	Crease    fold.DividedCurve
	Handle    fold.DividedCurve
	Subhandle fold.DividedCurve
	// Modified marks sub-handle samples moved by the crossing correction.
	Modified []bool
	// Converged is false when an iterative mode stopped at its bound.
	Converged bool
	// Iterations run by the iterative modes.
	Iterations int
	// Pressures holds the final per sample pressures of the Press mode.
	Pressures []float64
	// Errors holds the torsion mismatch of every Optimize iteration.
	Errors []float64
}

// HandleSurface returns the developable surface between crease and handle.
func (r Result) HandleSurface() fold.DevelopableSurface {
	return fold.NewSurfaceFromHandle(r.Crease, r.Handle)
}

// SubhandleSurface returns the developable surface between crease and
// sub-handle.
func (r Result) SubhandleSurface() fold.DevelopableSurface {
	return fold.NewSurfaceFromHandle(r.Crease, r.Subhandle)
}

// Construct builds the fold of crease with cfg.
func Construct(crease fold.DividedCurve, cfg Config) (Result, error) {
	if crease.Len() < 2 {
		return Result{}, fmt.Errorf("singlefold: %d samples: %w", crease.Len(), fold.ErrTooFewSamples)
	}
	if !(cfg.Length > 0) {
		return Result{}, errors.New("singlefold: fold ruling length must be positive")
	}
	if cfg.Iterations <= 0 {
		cfg.Iterations = DefaultConfig().Iterations
	}
	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	log = log.With(slog.String("mode", cfg.Mode.String()))
	b := builder{cfg: cfg, log: log}
	switch cfg.Mode {
	case RawRuling:
		return b.rawRuling(crease), nil
	case AllowGap:
		return b.allowGap(crease, crease.Transform(cfg.CreaseToHandle)), nil
	case Untwist:
		ucfg := cfg.Untwist
		if ucfg.Logger == nil {
			ucfg.Logger = log
		}
		res, err := untwist.Untwist(crease, cfg.CreaseToHandle, cfg.Length, ucfg)
		if err != nil {
			return Result{}, fmt.Errorf("singlefold: %w", err)
		}
		return Result{
			Crease:     res.Crease,
			Handle:     res.Handle,
			Subhandle:  res.Subhandle,
			Modified:   make([]bool, res.Crease.Len()),
			Converged:  res.Converged,
			Iterations: res.Iterations,
		}, nil
	case Press:
		return b.press(crease), nil
	case Optimize:
		return b.optimize(crease), nil
	}
	return Result{}, fmt.Errorf("singlefold: unknown mode %v", cfg.Mode)
}

type builder struct {
	cfg Config
	log *slog.Logger
}

func (b builder) rawRuling(crease fold.DividedCurve) Result {
	handle := crease.Transform(b.cfg.CreaseToHandle)
	surf := fold.NewSurfaceFromHandle(crease, handle)
	pos := make([]r3.Vec, crease.Len())
	for i := range pos {
		pos[i] = r3.Add(crease.At(i).Position, r3.Scale(b.cfg.Length, surf.FoldRuling(i)))
	}
	return Result{
		Crease:    crease,
		Handle:    handle,
		Subhandle: fold.NewDividedCurve(pos),
		Modified:  make([]bool, crease.Len()),
		Converged: true,
	}
}

func (b builder) allowGap(crease, handle fold.DividedCurve) Result {
	surf := fold.NewSurfaceFromHandle(crease, handle)
	sub, modified := surf.BihandleCurve(b.cfg.Length)
	return Result{
		Crease:    crease,
		Handle:    handle,
		Subhandle: sub,
		Modified:  modified,
		Converged: true,
	}
}

// press raises the pressure on the sheet range around the first corrected
// sample until no sample needs a correction.
func (b builder) press(initial fold.DividedCurve) Result {
	initialSurf := fold.NewSurfaceFromHandle(initial, initial.Transform(b.cfg.CreaseToHandle))
	initialTorsions := initial.Torsions()
	pressures := make([]float64, initial.Len())
	var res Result
	for iter := 0; iter < b.cfg.Iterations; iter++ {
		crease := untwist.PressSurface(initialSurf, pressures)
		res = b.allowGap(crease, crease.Transform(b.cfg.CreaseToHandle))
		res.Iterations = iter + 1
		surf := res.HandleSurface()
		subSurf := res.SubhandleSurface()
		raised := false
		for i, mod := range res.Modified {
			if !mod {
				continue
			}
			p := 1 - untwist.SuitableTorsion(surf, subSurf, i)/initialTorsions[i]
			if math.IsNaN(p) || p < pressures[i] {
				continue
			}
			p = fold.Clamp(p, 0, 1)
			for _, j := range untwist.NonInflectionRange(initialSurf, i) {
				pressures[j] = p
			}
			b.log.Debug("press", slog.Int("iteration", iter), slog.Int("index", i), slog.Float64("pressure", p))
			raised = true
			break
		}
		if !raised {
			// Corrections no pressure can remove leave the fold unconverged.
			res.Converged = !slices.Contains(res.Modified, true)
			if !res.Converged {
				b.log.Warn("press stalled", slog.Int("iteration", iter))
			}
			res.Pressures = pressures
			return res
		}
	}
	b.log.Warn("press did not converge", slog.Int("iterations", b.cfg.Iterations))
	res.Converged = false
	res.Pressures = pressures
	return res
}

// optimize moves the crease torsion halfway toward the torsion the
// corrected sub-handle implies, once per iteration.
func (b builder) optimize(crease fold.DividedCurve) Result {
	res := b.allowGap(crease, crease.Transform(b.cfg.CreaseToHandle))
	n := crease.Len()
	curvatures := make([]float64, n)
	torsions := make([]float64, n)
	for iter := 0; iter < b.cfg.Iterations; iter++ {
		surfH := res.HandleSurface()
		surfSH := res.SubhandleSurface()
		var mismatch float64
		for i := 0; i < n; i++ {
			smp := res.Crease.At(i)
			rh, rsh := surfH.Ruling(i), surfSH.Ruling(i)
			cotH := rh.Beta.X / rh.Beta.Y
			cotSH := rsh.Beta.X / rsh.Beta.Y
			tauSH := (cotH + cotSH) / 2 * smp.Curvature * rsh.Alpha.Y
			curvatures[i] = smp.Curvature
			torsions[i] = smp.Torsion
			if math.IsNaN(tauSH) || math.IsInf(tauSH, 0) {
				continue
			}
			torsions[i] = (smp.Torsion + tauSH) / 2
			mismatch += math.Abs(smp.Torsion - tauSH)
		}
		res.Errors = append(res.Errors, mismatch)
		b.log.Debug("optimize", slog.Int("iteration", iter), slog.Float64("error", mismatch))
		first := res.Crease.First()
		next := fold.Reconstruct(curvatures, torsions, res.Crease.ArcLengths(), first.Frame, first.Position)
		errs := res.Errors
		res = b.allowGap(next, next.Transform(b.cfg.CreaseToHandle))
		res.Errors = errs
		res.Iterations = iter + 1
	}
	return res
}
