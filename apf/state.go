package apf

import (
	"context"

	"github.com/golang/geo/r3"
	"go.uber.org/atomic"

	"go.viam.com/localplanner/spatialmath"
)

type obstacleSnapshot struct {
	points []r3.Vector
}

// State caches the latest obstacle point set and the latest vehicle pose. The two are updated
// independently by their feeds and each update replaces the previous value wholesale. Reads
// always observe a complete snapshot of each, so feeds may run on other goroutines than the
// planner; no correlation between the two snapshots is attempted.
type State struct {
	obstacles atomic.Pointer[obstacleSnapshot]
	pose      atomic.Pointer[spatialmath.Pose]
}

// NewState returns a State with no obstacle data and the vehicle at the origin with no rotation.
func NewState() *State {
	s := &State{}
	p := spatialmath.NewZeroPose()
	s.pose.Store(&p)
	return s
}

// SetObstacles replaces the cached obstacle set with points. Points are expressed in the
// body-local frame: centered on the vehicle's sensing origin and rotated with the vehicle, not
// in the global frame. The points are not filtered or validated. The slice is copied, so the
// caller may reuse it.
func (s *State) SetObstacles(points []r3.Vector) {
	snapshot := &obstacleSnapshot{points: make([]r3.Vector, len(points))}
	copy(snapshot.points, points)
	s.obstacles.Store(snapshot)
}

// SetPose replaces the cached pose with a global position and orientation. A nil orientation
// means no rotation.
func (s *State) SetPose(position r3.Vector, orientation spatialmath.Orientation) {
	p := spatialmath.NewPose(position, orientation)
	s.pose.Store(&p)
}

// Obstacles returns the latest obstacle set and whether any set has been received yet. The
// returned slice must not be modified.
func (s *State) Obstacles() ([]r3.Vector, bool) {
	snapshot := s.obstacles.Load()
	if snapshot == nil {
		return nil, false
	}
	return snapshot.points, true
}

// Pose returns the latest pose.
func (s *State) Pose() spatialmath.Pose {
	if p := s.pose.Load(); p != nil {
		return *p
	}
	return spatialmath.NewZeroPose()
}

// CurrentPosition returns the position of the latest pose. It never fails.
func (s *State) CurrentPosition(ctx context.Context) (r3.Vector, error) {
	return s.Pose().Point(), nil
}
