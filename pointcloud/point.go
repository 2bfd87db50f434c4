// Package pointcloud holds obstacle point sets and reads and writes them as PCD files.
package pointcloud

import (
	"math"

	"github.com/golang/geo/r3"
)

// NewVector convenience method for creating a vector.
func NewVector(x, y, z float64) r3.Vector {
	return r3.Vector{X: x, Y: y, Z: z}
}

// Vectors is a series of three-dimensional vectors.
type Vectors []r3.Vector

// Finite returns the vectors with no NaN or infinite component, in their original order.
func (vs Vectors) Finite() Vectors {
	out := make(Vectors, 0, len(vs))
	for _, v := range vs {
		if math.IsNaN(v.X) || math.IsNaN(v.Y) || math.IsNaN(v.Z) ||
			math.IsInf(v.X, 0) || math.IsInf(v.Y, 0) || math.IsInf(v.Z, 0) {
			continue
		}
		out = append(out, v)
	}
	return out
}

// Bounds returns the axis-aligned minimum and maximum corners of the vectors. Both are the zero
// vector when vs is empty.
func (vs Vectors) Bounds() (r3.Vector, r3.Vector) {
	if len(vs) == 0 {
		return r3.Vector{}, r3.Vector{}
	}
	lo, hi := vs[0], vs[0]
	for _, v := range vs[1:] {
		lo = r3.Vector{X: math.Min(lo.X, v.X), Y: math.Min(lo.Y, v.Y), Z: math.Min(lo.Z, v.Z)}
		hi = r3.Vector{X: math.Max(hi.X, v.X), Y: math.Max(hi.Y, v.Y), Z: math.Max(hi.Z, v.Z)}
	}
	return lo, hi
}
