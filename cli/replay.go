package cli

import (
	"context"
	"fmt"
	"sync"

	"github.com/golang/geo/r3"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v2"

	"go.viam.com/localplanner/apf"
	"go.viam.com/localplanner/control"
	"go.viam.com/localplanner/ros"
)

// recordingController keeps every commanded velocity.
type recordingController struct {
	mu       sync.Mutex
	commands []r3.Vector
}

func (rc *recordingController) SetVelocity(ctx context.Context, v r3.Vector) error {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.commands = append(rc.commands, v)
	return nil
}

func (rc *recordingController) last() (r3.Vector, bool) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	if len(rc.commands) == 0 {
		return r3.Vector{}, false
	}
	return rc.commands[len(rc.commands)-1], true
}

// ReplayAction feeds a ros bag through the planning loop, ticking once per point cloud.
func ReplayAction(c *cli.Context) error {
	goal, err := vectorFlag(c, flagGoal)
	if err != nil {
		return err
	}
	rb, err := ros.ReadBag(c.Path(flagBag))
	if err != nil {
		return err
	}
	events, err := ros.LoadEvents(rb, c.String(flagOdomTopic), c.String(flagCloudTopic))
	if err != nil {
		return err
	}
	return replayEvents(c, events, goal)
}

func replayEvents(c *cli.Context, events []ros.Event, goal r3.Vector) error {
	cfg := configFromContext(c)
	logger := loggerFromContext(c)

	state := apf.NewState()
	var stats control.CycleStats
	planner, err := apf.NewPlanner(cfg.APF, state, logger, apf.WithHook(stats.Record))
	if err != nil {
		return err
	}
	controller := &recordingController{}
	loop, err := control.NewLoop(cfg.Loop, planner, state, controller, logger)
	if err != nil {
		return err
	}
	loop.SetGoal(goal)

	t := table.NewWriter()
	t.AppendHeader(table.Row{"Time", "X", "Y", "Z"})
	err = ros.Replay(c.Context, events, state, func(ev ros.Event) error {
		if !ev.IsCloud() {
			return nil
		}
		if err := loop.Tick(c.Context); err != nil {
			return err
		}
		if v, ok := controller.last(); ok {
			row := vectorRow(ev.Time.UTC().Format("15:04:05.000"), v)
			t.AppendRow(row)
		}
		return nil
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, t.Render())

	summary, err := stats.Summary()
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "cycles: %d mean: %s median: %s p95: %s max: %s mean considered: %.1f clamped: %d\n",
		summary.Count, summary.Mean, summary.Median, summary.P95, summary.Max, summary.MeanConsidered, summary.Clamped)
	return nil
}
