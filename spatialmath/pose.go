package spatialmath

import (
	"fmt"

	"github.com/golang/geo/r3"
)

// Pose represents a position and orientation of a body in its parent frame.
type Pose interface {
	Point() r3.Vector
	Orientation() Orientation
}

type pose struct {
	point       r3.Vector
	orientation Orientation
}

// NewZeroPose returns a pose at the origin with no rotation.
func NewZeroPose() Pose {
	return &pose{orientation: NewZeroOrientation()}
}

// NewPose takes in a position and orientation and returns a Pose. A nil orientation means no rotation.
func NewPose(p r3.Vector, o Orientation) Pose {
	if o == nil {
		o = NewZeroOrientation()
	}
	return &pose{point: p, orientation: o}
}

func (p *pose) Point() r3.Vector {
	return p.point
}

func (p *pose) Orientation() Orientation {
	return p.orientation
}

func (p *pose) String() string {
	q := p.orientation.Quaternion()
	return fmt.Sprintf("{X:%.3f Y:%.3f Z:%.3f QW:%.4f QX:%.4f QY:%.4f QZ:%.4f}",
		p.point.X, p.point.Y, p.point.Z, q.Real, q.Imag, q.Jmag, q.Kmag)
}
