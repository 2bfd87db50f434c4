// Package spatialmath defines the spatial types and operations the planner needs: vectors in R3,
// unit quaternion orientations and poses.
package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// Orientation expresses the orientation of a rigid body or a frame of reference in 3D Euclidean space.
// Every implementation must be convertible to a quaternion.
type Orientation interface {
	Quaternion() quat.Number
}

// quaternion is the default Orientation implementation. It is stored as given and normalized on use.
type quaternion quat.Number

// Quaternion returns the orientation as a unit quaternion. A quaternion with zero norm is
// treated as no rotation.
func (q *quaternion) Quaternion() quat.Number {
	return Normalize(quat.Number(*q))
}

// NewZeroOrientation returns an orientation which signifies no rotation.
func NewZeroOrientation() Orientation {
	return &quaternion{1, 0, 0, 0}
}

// NewQuaternion returns an Orientation from the real (w) and imaginary (x, y, z) parts of a quaternion.
func NewQuaternion(w, x, y, z float64) Orientation {
	return &quaternion{Real: w, Imag: x, Jmag: y, Kmag: z}
}

// Normalize scales q to unit length. The zero quaternion normalizes to the identity rotation.
func Normalize(q quat.Number) quat.Number {
	norm := quat.Abs(q)
	if norm == 0 || math.IsNaN(norm) {
		return quat.Number{Real: 1}
	}
	return quat.Scale(1/norm, q)
}

// OrientationAlmostEqual will return a bool describing whether 2 orientations are approximately the same.
func OrientationAlmostEqual(o1, o2 Orientation) bool {
	return QuaternionAlmostEqual(o1.Quaternion(), o2.Quaternion(), 1e-5)
}

// QuaternionAlmostEqual is an equality test for all the float components of a quaternion. Quaternions have double coverage, q and -q
// represent the same rotation, so both are accepted.
func QuaternionAlmostEqual(a, b quat.Number, tol float64) bool {
	same := math.Abs(a.Real-b.Real) < tol &&
		math.Abs(a.Imag-b.Imag) < tol &&
		math.Abs(a.Jmag-b.Jmag) < tol &&
		math.Abs(a.Kmag-b.Kmag) < tol
	if same {
		return true
	}
	return math.Abs(a.Real+b.Real) < tol &&
		math.Abs(a.Imag+b.Imag) < tol &&
		math.Abs(a.Jmag+b.Jmag) < tol &&
		math.Abs(a.Kmag+b.Kmag) < tol
}

// RotateVector rotates v by the given orientation, taking a vector expressed in the orientation's local
// frame into its parent frame. A nil orientation leaves v unchanged.
func RotateVector(o Orientation, v r3.Vector) r3.Vector {
	if o == nil {
		return v
	}
	q := o.Quaternion()
	rotated := quat.Mul(quat.Mul(q, quat.Number{Imag: v.X, Jmag: v.Y, Kmag: v.Z}), quat.Conj(q))
	return r3.Vector{X: rotated.Imag, Y: rotated.Jmag, Z: rotated.Kmag}
}
