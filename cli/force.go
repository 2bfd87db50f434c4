package cli

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v2"

	"go.viam.com/localplanner/apf"
	"go.viam.com/localplanner/pointcloud"
	"go.viam.com/localplanner/spatialmath"
)

// ForceAction runs one force computation and prints each term.
func ForceAction(c *cli.Context) error {
	cfg := configFromContext(c)
	logger := loggerFromContext(c)

	points, err := pointcloud.NewFromFile(c.Path(flagObstacles))
	if err != nil {
		return err
	}
	position, err := vectorFlag(c, flagPosition)
	if err != nil {
		return err
	}
	goal, err := vectorFlag(c, flagGoal)
	if err != nil {
		return err
	}
	current := position
	if c.IsSet(flagCurrent) {
		if current, err = vectorFlag(c, flagCurrent); err != nil {
			return err
		}
	}
	orientation, err := orientationFlags(c)
	if err != nil {
		return err
	}

	state := apf.NewState()
	state.SetObstacles(points)
	state.SetPose(position, orientation)

	var obs apf.Observation
	planner, err := apf.NewPlanner(cfg.APF, state, logger, apf.WithHook(func(o apf.Observation) { obs = o }))
	if err != nil {
		return err
	}
	total, err := planner.Force(goal, current)
	if err != nil {
		return err
	}

	local, _ := apf.RepulsiveForce(cfg.APF, points, position.Z, goal.Sub(current).Norm())
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Term", "X", "Y", "Z"})
	t.AppendRow(vectorRow("attractive", apf.AttractiveForce(cfg.APF, goal, current)))
	t.AppendRow(vectorRow("repulsive", spatialmath.RotateVector(orientation, local)))
	t.AppendRow(vectorRow("ground safety", apf.GroundSafetyForce(cfg.APF, position.Z)))
	t.AppendSeparator()
	t.AppendRow(vectorRow("total", total))
	fmt.Fprintln(c.App.Writer, t.Render())
	ea := spatialmath.QuatToEulerAngles(orientation.Quaternion())
	fmt.Fprintf(c.App.Writer, "orientation: roll %.4f pitch %.4f yaw %.4f\n", ea.Roll, ea.Pitch, ea.Yaw)
	fmt.Fprintf(c.App.Writer, "points: %d considered: %d clamped: %d\n", obs.Obstacles, obs.Considered, obs.Clamped)
	if finite := points.Finite(); len(finite) > 0 {
		lo, hi := finite.Bounds()
		fmt.Fprintf(c.App.Writer, "bounds: %v to %v\n", lo, hi)
	}

	if fn := c.Path(flagWrite); fn != "" {
		considered := make(pointcloud.Vectors, 0, obs.Considered)
		for _, p := range points {
			if _, ok := apf.ObstacleDistance(cfg.APF, p, position.Z); ok {
				considered = append(considered, p)
			}
		}
		if err := pointcloud.WriteToPCDFile(considered, fn, pointcloud.PCDBinary); err != nil {
			return err
		}
		logger.Infow("wrote considered points", "path", fn, "count", len(considered))
	}
	return nil
}
