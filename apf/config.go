package apf

import (
	"math"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// Default parameter values.
const (
	DefaultObsDistance      = 2.5
	DefaultKPush            = 1.0
	DefaultKAtt             = 0.4
	DefaultMinDist          = 0.3
	DefaultMaxAttDist       = 5.0
	DefaultGroundHeight     = 0.1
	DefaultGroundSafeHeight = 0.2
)

// Config holds the tunable gains and distances of the potential field. It is loaded once at
// startup and never mutated afterwards.
type Config struct {
	// ObsDistance is the sensing radius; points farther than this from the body origin are ignored.
	ObsDistance float64 `json:"obs_distance"`
	// KPush scales the repulsive force.
	KPush float64 `json:"k_push"`
	// KAtt scales the attractive force.
	KAtt float64 `json:"k_att"`
	// MinDist is the radius under which a point's distance is clamped.
	MinDist float64 `json:"min_dist"`
	// MaxAttDist is the goal distance beyond which the attractive force stops growing.
	MaxAttDist float64 `json:"max_att_dist"`
	// GroundHeight rejects points whose global height magnitude is below it.
	GroundHeight float64 `json:"ground_height"`
	// GroundSafeHeight is the altitude under which an upward push is added.
	GroundSafeHeight float64 `json:"ground_safe_height"`
}

// DefaultConfig returns the parameters the planner runs with when nothing is configured.
func DefaultConfig() Config {
	return Config{
		ObsDistance:      DefaultObsDistance,
		KPush:            DefaultKPush,
		KAtt:             DefaultKAtt,
		MinDist:          DefaultMinDist,
		MaxAttDist:       DefaultMaxAttDist,
		GroundHeight:     DefaultGroundHeight,
		GroundSafeHeight: DefaultGroundSafeHeight,
	}
}

// Validate ensures all parts of the config are valid. The path is used to prefix errors.
func (cfg Config) Validate(path string) error {
	var err error
	fields := []struct {
		name  string
		value float64
	}{
		{"obs_distance", cfg.ObsDistance},
		{"k_push", cfg.KPush},
		{"k_att", cfg.KAtt},
		{"min_dist", cfg.MinDist},
		{"max_att_dist", cfg.MaxAttDist},
		{"ground_height", cfg.GroundHeight},
		{"ground_safe_height", cfg.GroundSafeHeight},
	}
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			err = multierr.Append(err, errors.Errorf("%s: %s must be finite, got %v", path, f.name, f.value))
		}
	}
	if err != nil {
		return err
	}

	if cfg.MinDist <= 0 {
		err = multierr.Append(err, errors.Errorf("%s: min_dist must be positive, got %v", path, cfg.MinDist))
	}
	if cfg.ObsDistance <= cfg.MinDist {
		err = multierr.Append(err, errors.Errorf(
			"%s: obs_distance (%v) must be greater than min_dist (%v)", path, cfg.ObsDistance, cfg.MinDist))
	}
	if cfg.MaxAttDist <= 0 {
		err = multierr.Append(err, errors.Errorf("%s: max_att_dist must be positive, got %v", path, cfg.MaxAttDist))
	}
	if cfg.GroundSafeHeight < 0 {
		err = multierr.Append(err, errors.Errorf("%s: ground_safe_height cannot be negative, got %v", path, cfg.GroundSafeHeight))
	}
	return err
}
