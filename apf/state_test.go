package apf

import (
	"context"
	"sync"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"go.viam.com/localplanner/spatialmath"
)

func TestStateInitial(t *testing.T) {
	s := NewState()
	points, hasData := s.Obstacles()
	test.That(t, hasData, test.ShouldBeFalse)
	test.That(t, points, test.ShouldBeEmpty)
	test.That(t, poseAlmostEqual(s.Pose(), spatialmath.NewZeroPose()), test.ShouldBeTrue)

	var zero State
	test.That(t, poseAlmostEqual(zero.Pose(), spatialmath.NewZeroPose()), test.ShouldBeTrue)
}

func TestStateSetObstacles(t *testing.T) {
	s := NewState()

	in := []r3.Vector{{X: 1}, {Y: 2}}
	s.SetObstacles(in)
	in[0] = r3.Vector{X: 100}

	points, hasData := s.Obstacles()
	test.That(t, hasData, test.ShouldBeTrue)
	test.That(t, points, test.ShouldResemble, []r3.Vector{{X: 1}, {Y: 2}})

	// replaced, never merged
	s.SetObstacles([]r3.Vector{{Z: 3}})
	points, _ = s.Obstacles()
	test.That(t, points, test.ShouldResemble, []r3.Vector{{Z: 3}})

	s.SetObstacles(nil)
	points, hasData = s.Obstacles()
	test.That(t, hasData, test.ShouldBeTrue)
	test.That(t, points, test.ShouldHaveLength, 0)
}

func TestStateSetPose(t *testing.T) {
	s := NewState()
	o := &spatialmath.EulerAngles{Yaw: 1}
	s.SetPose(r3.Vector{X: 1, Y: 2, Z: 3}, o)
	test.That(t, s.Pose().Point(), test.ShouldResemble, r3.Vector{X: 1, Y: 2, Z: 3})
	test.That(t, spatialmath.OrientationAlmostEqual(s.Pose().Orientation(), o), test.ShouldBeTrue)

	pos, err := s.CurrentPosition(context.Background())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pos, test.ShouldResemble, r3.Vector{X: 1, Y: 2, Z: 3})

	s.SetPose(r3.Vector{Z: 1}, nil)
	test.That(t, poseAlmostEqual(s.Pose(), spatialmath.NewPose(r3.Vector{Z: 1}, nil)), test.ShouldBeTrue)
}

func TestStateSnapshotsAreWhole(t *testing.T) {
	s := NewState()
	s.SetObstacles([]r3.Vector{{X: 0}})

	const iterations = 500
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		points := make([]r3.Vector, 64)
		for i := 1; i <= iterations; i++ {
			for j := range points {
				points[j] = r3.Vector{X: float64(i)}
			}
			s.SetObstacles(points)
			s.SetPose(r3.Vector{X: float64(i), Y: float64(i)}, nil)
		}
	}()

	torn := 0
	go func() {
		defer wg.Done()
		for i := 0; i < iterations; i++ {
			points, _ := s.Obstacles()
			for _, p := range points {
				if p != points[0] {
					torn++
					break
				}
			}
			if pt := s.Pose().Point(); pt.X != pt.Y {
				torn++
			}
		}
	}()
	wg.Wait()
	test.That(t, torn, test.ShouldEqual, 0)
}

func poseAlmostEqual(a, b spatialmath.Pose) bool {
	return spatialmath.R3VectorAlmostEqual(a.Point(), b.Point(), 1e-8) &&
		spatialmath.OrientationAlmostEqual(a.Orientation(), b.Orientation())
}
