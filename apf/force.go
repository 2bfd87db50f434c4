// Package apf implements an artificial potential field local planner. Each call blends an
// attractive pull toward a goal with a repulsive push away from the latest sensed obstacle
// points and returns one desired velocity.
package apf

import (
	"math"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/localplanner/logging"
	"go.viam.com/localplanner/spatialmath"
)

const (
	// clampedDistance replaces the distance of any point closer than min_dist.
	clampedDistance = 0.25
	// goalDampingRadius is the goal distance under which repulsion is scaled down by that distance.
	goalDampingRadius = 1.0
	// groundSafetyGain scales the upward push applied below ground_safe_height.
	groundSafetyGain = 3.0
)

var (
	// ErrNoObstacleData is returned when no obstacle set has been received yet.
	ErrNoObstacleData = errors.New("no obstacle data received yet")
	// ErrEmptyObstacleSet is returned when the latest obstacle set has no points.
	ErrEmptyObstacleSet = errors.New("obstacle set is empty")
	// ErrNonFinitePosition is returned when the current position has a NaN or infinite component.
	ErrNonFinitePosition = errors.New("current position is not finite")
	// ErrNonFiniteGoal is returned when the goal has a NaN or infinite component.
	ErrNonFiniteGoal = errors.New("goal is not finite")
)

// Observation describes one successful force computation.
type Observation struct {
	Duration time.Duration
	// Obstacles is the size of the obstacle set the computation read.
	Obstacles int
	// Considered is how many of those points contributed to the repulsive force.
	Considered int
	// Clamped is how many considered points were closer than min_dist.
	Clamped int
}

// Hook receives an Observation after every successful computation.
type Hook func(Observation)

// Option configures a Planner.
type Option func(*Planner)

// WithHook registers a hook called after every successful computation.
func WithHook(hook Hook) Option {
	return func(p *Planner) {
		p.hook = hook
	}
}

// WithClock replaces the clock used to time computations.
func WithClock(clk clock.Clock) Option {
	return func(p *Planner) {
		p.clock = clk
	}
}

// Planner computes desired velocities from the latest State. It holds no force state between calls.
type Planner struct {
	cfg    Config
	state  *State
	logger logging.Logger
	clock  clock.Clock
	hook   Hook
}

// NewPlanner returns a Planner reading from state. The config is validated and then fixed for the
// planner's lifetime.
func NewPlanner(cfg Config, state *State, logger logging.Logger, opts ...Option) (*Planner, error) {
	if err := cfg.Validate("apf"); err != nil {
		return nil, err
	}
	if state == nil {
		return nil, errors.New("planner needs a state to read from")
	}
	p := &Planner{
		cfg:    cfg,
		state:  state,
		logger: logger,
		clock:  clock.New(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Config returns the parameters the planner was built with.
func (p *Planner) Config() Config {
	return p.cfg
}

// ComputeForce returns the desired velocity for moving from currentPosition toward goal given the
// latest obstacles and pose. ok is false when no velocity could be produced; the caller should
// hold its previous command or enter a fail-safe state for this cycle.
func (p *Planner) ComputeForce(goal, currentPosition r3.Vector) (r3.Vector, bool) {
	v, err := p.Force(goal, currentPosition)
	return v, err == nil
}

// Force is ComputeForce with the reason for a failure reported as one of the Err* sentinels.
func (p *Planner) Force(goal, currentPosition r3.Vector) (r3.Vector, error) {
	start := p.clock.Now()

	points, hasData := p.state.Obstacles()
	if !hasData {
		return r3.Vector{}, ErrNoObstacleData
	}
	if len(points) == 0 {
		return r3.Vector{}, ErrEmptyObstacleSet
	}
	if !spatialmath.IsFinite(currentPosition) {
		return r3.Vector{}, ErrNonFinitePosition
	}
	if !spatialmath.IsFinite(goal) {
		return r3.Vector{}, ErrNonFiniteGoal
	}

	pose := p.state.Pose()
	altitude := pose.Point().Z

	attractive := AttractiveForce(p.cfg, goal, currentPosition)
	goalDist := goal.Sub(currentPosition).Norm()

	local, result := RepulsiveForce(p.cfg, points, altitude, goalDist)
	repulsive := spatialmath.RotateVector(pose.Orientation(), local)
	if safety := GroundSafetyForce(p.cfg, altitude); safety.Z != 0 {
		p.logger.Debugw("near the ground", "altitude", altitude, "push", safety.Z)
		repulsive = repulsive.Add(safety)
	}
	if result.Clamped > 0 {
		p.logger.Debugw("obstacles inside min_dist were clamped", "count", result.Clamped, "closest", result.Closest)
	}

	if p.hook != nil {
		p.hook(Observation{
			Duration:   p.clock.Since(start),
			Obstacles:  len(points),
			Considered: result.Considered,
			Clamped:    result.Clamped,
		})
	}
	return repulsive.Add(attractive), nil
}

// AttractiveForce returns the pull toward goal in the global frame. Its magnitude is k_att times
// the goal distance, saturating at k_att * max_att_dist.
func AttractiveForce(cfg Config, goal, currentPosition r3.Vector) r3.Vector {
	delta := goal.Sub(currentPosition)
	dist := delta.Norm()
	if dist > cfg.MaxAttDist {
		return delta.Mul(cfg.KAtt * cfg.MaxAttDist / dist)
	}
	return delta.Mul(cfg.KAtt)
}

// RepulsiveResult counts what RepulsiveForce did with the points it was given.
type RepulsiveResult struct {
	Considered int
	Clamped    int
	// Closest is the distance of the nearest considered point before clamping, or +Inf if none.
	Closest float64
}

// RepulsiveForce returns the mean push away from the body-local points in the body-local frame.
// altitude is the vehicle's global height and is used to reject ground returns. goalDist damps the
// push when the goal is closer than one unit so that obstacles around the goal do not block arrival.
func RepulsiveForce(cfg Config, points []r3.Vector, altitude, goalDist float64) (r3.Vector, RepulsiveResult) {
	result := RepulsiveResult{Closest: math.Inf(1)}
	var push r3.Vector
	for _, pt := range points {
		d, ok := ObstacleDistance(cfg, pt, altitude)
		if !ok {
			continue
		}
		if d < result.Closest {
			result.Closest = d
		}
		if d < cfg.MinDist {
			d = clampedDistance
			result.Clamped++
		}
		result.Considered++

		gain := cfg.KPush * (1/d - 1/cfg.ObsDistance) / (d * d)
		if goalDist < goalDampingRadius {
			gain *= goalDist
		}
		push = push.Add(pt.Mul(-gain / d))
	}
	if result.Considered > 0 {
		push = push.Mul(1 / float64(result.Considered))
	}
	return push, result
}

// ObstacleDistance returns the distance of a body-local point from the vehicle and whether the point
// contributes to the repulsive force: it must not be ground clutter and must lie within
// obs_distance.
func ObstacleDistance(cfg Config, point r3.Vector, altitude float64) (float64, bool) {
	// absolute value: points far below the vehicle with a small global height are dropped too
	if math.Abs(altitude+point.Z) < cfg.GroundHeight {
		return 0, false
	}
	d := point.Norm()
	if d > cfg.ObsDistance || math.IsNaN(d) || math.IsInf(d, 0) {
		return 0, false
	}
	return d, true
}

// GroundSafetyForce returns the upward push in the global frame applied when the vehicle is below
// ground_safe_height. It is zero otherwise.
func GroundSafetyForce(cfg Config, altitude float64) r3.Vector {
	if altitude < cfg.GroundSafeHeight {
		return r3.Vector{Z: groundSafetyGain * (cfg.GroundSafeHeight - altitude)}
	}
	return r3.Vector{}
}
