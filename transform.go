package fold

import (
	"github.com/soypat/fold/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

// Transform is an affine map of space, used to place the handle curve
// relative to the crease. The zero value is the identity.
type Transform = d3.Transform

// Translation returns the transform that moves points by v.
func Translation(v r3.Vec) Transform {
	return d3.Transform{}.Translate(v)
}

// NewTransform returns the transform that scales by scale, rotates by
// angle radians about axis and then translates to position.
func NewTransform(position, scale r3.Vec, angle float64, axis r3.Vec) Transform {
	return d3.ComposeTransform(position, scale, d3.AngleAxis(angle, axis))
}
