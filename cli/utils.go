package cli

import (
	"fmt"
	"strings"

	"github.com/golang/geo/r3"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"github.com/urfave/cli/v2"

	"go.viam.com/localplanner/spatialmath"
)

// parseFloats parses exactly n comma separated numbers.
func parseFloats(s string, n int) ([]float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != n {
		return nil, errors.Errorf("expected %d comma separated values, got %q", n, s)
	}
	out := make([]float64, n)
	for i, part := range parts {
		f, err := cast.ToFloat64E(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		out[i] = f
	}
	return out, nil
}

func parseVector(s string) (r3.Vector, error) {
	f, err := parseFloats(s, 3)
	if err != nil {
		return r3.Vector{}, err
	}
	return r3.Vector{X: f[0], Y: f[1], Z: f[2]}, nil
}

func vectorFlag(c *cli.Context, name string) (r3.Vector, error) {
	v, err := parseVector(c.String(name))
	if err != nil {
		return r3.Vector{}, errors.Wrapf(err, "--%s", name)
	}
	return v, nil
}

// orientationFlags reads --orientation or --euler. Neither means no rotation.
func orientationFlags(c *cli.Context) (spatialmath.Orientation, error) {
	if c.IsSet(flagOrientation) && c.IsSet(flagEuler) {
		return nil, errors.Errorf("only one of --%s and --%s may be given", flagOrientation, flagEuler)
	}
	if c.IsSet(flagOrientation) {
		f, err := parseFloats(c.String(flagOrientation), 4)
		if err != nil {
			return nil, errors.Wrapf(err, "--%s", flagOrientation)
		}
		return spatialmath.NewQuaternion(f[0], f[1], f[2], f[3]), nil
	}
	if c.IsSet(flagEuler) {
		f, err := parseFloats(c.String(flagEuler), 3)
		if err != nil {
			return nil, errors.Wrapf(err, "--%s", flagEuler)
		}
		return &spatialmath.EulerAngles{Roll: f[0], Pitch: f[1], Yaw: f[2]}, nil
	}
	return spatialmath.NewZeroOrientation(), nil
}

func vectorRow(name string, v r3.Vector) table.Row {
	return table.Row{name, formatFloat(v.X), formatFloat(v.Y), formatFloat(v.Z)}
}

func formatFloat(f float64) string {
	return fmt.Sprintf("%.4f", f)
}
