// Package control runs the planning loop around the potential field planner: once per tick it
// asks for a velocity toward the current goal and forwards it to a velocity controller.
package control

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/localplanner/logging"
	"go.viam.com/localplanner/utils"
)

const (
	defaultFrequencyHz = 10.
	maxFrequencyHz     = 200.
	defaultHoldCycles  = 5
)

// ForceComputer produces a desired velocity from a goal and the current position.
type ForceComputer interface {
	Force(goal, currentPosition r3.Vector) (r3.Vector, error)
}

// Localizer reports where the vehicle currently is in the global frame.
type Localizer interface {
	CurrentPosition(ctx context.Context) (r3.Vector, error)
}

// VelocityController executes velocity commands.
type VelocityController interface {
	SetVelocity(ctx context.Context, velocity r3.Vector) error
}

// LoopConfig configures the planning loop.
type LoopConfig struct {
	// FrequencyHz is how often the loop ticks.
	FrequencyHz float64 `json:"frequency_hz"`
	// HoldCycles is how many consecutive failed cycles resend the last good command before the
	// loop commands zero velocity.
	HoldCycles *int `json:"hold_cycles,omitempty"`
}

// DefaultLoopConfig returns a 10Hz loop holding the last command for 5 failed cycles.
func DefaultLoopConfig() LoopConfig {
	hold := defaultHoldCycles
	return LoopConfig{FrequencyHz: defaultFrequencyHz, HoldCycles: &hold}
}

// Validate ensures all parts of the config are valid. Unset fields are filled with defaults.
func (cfg *LoopConfig) Validate(path string) error {
	if cfg.FrequencyHz == 0 {
		cfg.FrequencyHz = defaultFrequencyHz
	}
	if !(cfg.FrequencyHz > 0) || cfg.FrequencyHz > maxFrequencyHz {
		return errors.Errorf("%s: frequency_hz must be in (0, %v], got %v", path, maxFrequencyHz, cfg.FrequencyHz)
	}
	if float64(time.Second)/cfg.FrequencyHz >= math.MaxInt64 {
		return errors.Errorf("%s: frequency_hz %v is too low to represent its period", path, cfg.FrequencyHz)
	}
	if cfg.HoldCycles == nil {
		hold := defaultHoldCycles
		cfg.HoldCycles = &hold
	}
	if *cfg.HoldCycles < 0 {
		return errors.Errorf("%s: hold_cycles cannot be negative, got %d", path, *cfg.HoldCycles)
	}
	return nil
}

// Period is the time between two ticks.
func (cfg LoopConfig) Period() time.Duration {
	return time.Duration(float64(time.Second) / cfg.FrequencyHz)
}

// LoopOption configures a Loop.
type LoopOption func(*Loop)

// WithLoopClock replaces the clock that drives the loop's ticker.
func WithLoopClock(clk clock.Clock) LoopOption {
	return func(l *Loop) {
		l.clock = clk
	}
}

// Loop calls the planner once per tick and forwards the result to the controller. When the
// planner fails, the previous command is held for up to HoldCycles ticks, after which zero
// velocity is commanded until the planner recovers.
type Loop struct {
	cfg        LoopConfig
	planner    ForceComputer
	localizer  Localizer
	controller VelocityController
	logger     logging.Logger
	clock      clock.Clock

	mu       sync.Mutex
	goal     *r3.Vector
	last     *r3.Vector
	failures int
	failSafe bool
	workers  utils.StoppableWorkers
}

// NewLoop returns a stopped loop.
func NewLoop(
	cfg LoopConfig,
	planner ForceComputer,
	localizer Localizer,
	controller VelocityController,
	logger logging.Logger,
	opts ...LoopOption,
) (*Loop, error) {
	if err := cfg.Validate("loop"); err != nil {
		return nil, err
	}
	if planner == nil || localizer == nil || controller == nil {
		return nil, errors.New("loop needs a planner, a localizer and a controller")
	}
	l := &Loop{
		cfg:        cfg,
		planner:    planner,
		localizer:  localizer,
		controller: controller,
		logger:     logger,
		clock:      clock.New(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// SetGoal sets the global position the loop steers toward.
func (l *Loop) SetGoal(goal r3.Vector) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.goal = &goal
}

// ClearGoal stops the loop from commanding anything until a new goal is set.
func (l *Loop) ClearGoal() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.goal = nil
	l.last = nil
	l.failures = 0
	l.failSafe = false
}

// Tick runs one planning cycle. Errors come only from the controller; planner and localizer
// failures are absorbed by holding or zeroing the command.
func (l *Loop) Tick(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.goal == nil {
		return nil
	}

	velocity, err := l.plan(ctx, *l.goal)
	if err == nil {
		if l.failSafe {
			l.logger.Infow("planner recovered", "failed_cycles", l.failures)
		}
		l.failures = 0
		l.failSafe = false
		l.last = &velocity
		return l.controller.SetVelocity(ctx, velocity)
	}

	l.failures++
	if l.failures <= *l.cfg.HoldCycles && l.last != nil {
		l.logger.Debugw("holding previous command", "reason", err, "failed_cycles", l.failures)
		return l.controller.SetVelocity(ctx, *l.last)
	}
	if !l.failSafe {
		l.logger.Warnw("planner failing, commanding zero velocity", "reason", err, "failed_cycles", l.failures)
		l.failSafe = true
	}
	l.last = nil
	return l.controller.SetVelocity(ctx, r3.Vector{})
}

func (l *Loop) plan(ctx context.Context, goal r3.Vector) (r3.Vector, error) {
	current, err := l.localizer.CurrentPosition(ctx)
	if err != nil {
		return r3.Vector{}, errors.Wrap(err, "getting current position")
	}
	return l.planner.Force(goal, current)
}

// Start runs Tick at the configured frequency until Stop is called.
func (l *Loop) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.workers != nil {
		return errors.New("loop already started")
	}
	l.logger.Infow("starting planning loop", "frequency_hz", l.cfg.FrequencyHz, "hold_cycles", *l.cfg.HoldCycles)
	l.workers = utils.NewStoppableWorkerWithTicker(l.clock, l.cfg.Period(), func(ctx context.Context) {
		if err := l.Tick(ctx); err != nil {
			l.logger.Errorw("failed to send velocity command", "error", err)
		}
	})
	return nil
}

// Stop stops a started loop and waits for the tick in progress to finish.
func (l *Loop) Stop() {
	l.mu.Lock()
	workers := l.workers
	l.workers = nil
	l.mu.Unlock()
	if workers != nil {
		workers.Stop()
	}
}
