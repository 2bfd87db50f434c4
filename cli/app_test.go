package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang/geo/r3"
	"github.com/urfave/cli/v2"
	"go.viam.com/test"

	"go.viam.com/localplanner/config"
	"go.viam.com/localplanner/logging"
	"go.viam.com/localplanner/pointcloud"
	"go.viam.com/localplanner/ros"
	"go.viam.com/localplanner/spatialmath"
)

func writeCloud(t *testing.T, points pointcloud.Vectors) string {
	t.Helper()
	fn := filepath.Join(t.TempDir(), "obstacles.pcd")
	test.That(t, pointcloud.WriteToPCDFile(points, fn, pointcloud.PCDBinary), test.ShouldBeNil)
	return fn
}

func TestForceAction(t *testing.T) {
	fn := writeCloud(t, pointcloud.Vectors{{X: 10, Y: 0, Z: 0}})

	var out, errOut bytes.Buffer
	app := NewApp(&out, &errOut)
	err := app.Run([]string{
		"apf", "force",
		"--obstacles", fn,
		"--position", "0,0,1",
		"--euler", "0,0,1.57",
		"--goal", "1,0,1",
	})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out.String(), test.ShouldContainSubstring, "total")
	test.That(t, out.String(), test.ShouldContainSubstring, "0.4000")
	test.That(t, out.String(), test.ShouldContainSubstring, "points: 1 considered: 0 clamped: 0")
	test.That(t, out.String(), test.ShouldContainSubstring, "orientation: roll 0.0000 pitch 0.0000 yaw 1.5700")

	cfgFile := filepath.Join(t.TempDir(), "planner.json")
	test.That(t, os.WriteFile(cfgFile, []byte(`{"apf": {"k_att": 1}}`), 0o600), test.ShouldBeNil)
	out.Reset()
	err = NewApp(&out, &errOut).Run([]string{
		"apf", "-c", cfgFile, "force",
		"--obstacles", fn,
		"--position", "0,0,1",
		"--goal", "0,2,1",
	})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out.String(), test.ShouldContainSubstring, "2.0000")
}

func TestForceWriteConsidered(t *testing.T) {
	orig := logging.Global()
	defer logging.ReplaceGlobal(orig)

	fn := writeCloud(t, pointcloud.Vectors{{X: 10, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 0.5, Y: 0, Z: -0.95}})
	considered := filepath.Join(t.TempDir(), "considered.pcd")

	var out, errOut bytes.Buffer
	err := NewApp(&out, &errOut).Run([]string{
		"apf", "force",
		"--obstacles", fn,
		"--position", "0,0,1",
		"--goal", "1,0,1",
		"--write-considered", considered,
	})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out.String(), test.ShouldContainSubstring, "points: 3 considered: 1 clamped: 0")
	test.That(t, logging.Global(), test.ShouldNotEqual, orig)

	points, err := pointcloud.NewFromFile(considered)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, []r3.Vector(points), test.ShouldResemble, []r3.Vector{{X: 1, Y: 0, Z: 0}})
}

func TestForceActionErrors(t *testing.T) {
	fn := writeCloud(t, pointcloud.Vectors{{X: 1, Y: 0, Z: 0}})
	for _, tc := range []struct {
		name string
		args []string
		msg  string
	}{
		{"bad position", []string{"--obstacles", fn, "--position", "0,0", "--goal", "1,0,1"}, "--position"},
		{"bad goal", []string{"--obstacles", fn, "--position", "0,0,1", "--goal", "a,b,c"}, "--goal"},
		{"two orientations", []string{
			"--obstacles", fn, "--position", "0,0,1", "--goal", "1,0,1",
			"--euler", "0,0,0", "--orientation", "1,0,0,0",
		}, "only one of"},
		{"missing file", []string{"--obstacles", filepath.Join(t.TempDir(), "missing.pcd"), "--position", "0,0,1", "--goal", "1,0,1"}, "no such file"},
		{"non-finite goal", []string{"--obstacles", fn, "--position", "0,0,1", "--goal", "NaN,0,0"}, "goal is not finite"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			var out, errOut bytes.Buffer
			err := NewApp(&out, &errOut).Run(append([]string{"apf", "force"}, tc.args...))
			test.That(t, err, test.ShouldNotBeNil)
			test.That(t, err.Error(), test.ShouldContainSubstring, tc.msg)
		})
	}
}

func TestDefaultsAction(t *testing.T) {
	var out, errOut bytes.Buffer
	test.That(t, NewApp(&out, &errOut).Run([]string{"apf", "defaults"}), test.ShouldBeNil)

	var decoded map[string]interface{}
	test.That(t, json.Unmarshal(out.Bytes(), &decoded), test.ShouldBeNil)
	test.That(t, decoded["apf"].(map[string]interface{})["obs_distance"], test.ShouldEqual, 2.5)

	// the printed defaults read back as the default config
	cfg, err := config.FromReader(context.Background(), "", &out, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg, test.ShouldResemble, config.Default())
}

func TestReplayEvents(t *testing.T) {
	var out, errOut bytes.Buffer
	app := NewApp(&out, &errOut)
	app.Metadata = map[string]interface{}{
		metadataConfig: config.Default(),
		metadataLogger: logging.NewTestLogger(t),
	}
	c := cli.NewContext(app, flag.NewFlagSet("replay", flag.ContinueOnError), nil)

	start := time.Unix(100, 0)
	events := []ros.Event{
		{Time: start, Pose: spatialmath.NewPose(r3.Vector{Z: 1}, nil)},
		{Time: start.Add(time.Second), Points: pointcloud.Vectors{{X: 10, Y: 0, Z: 0}}},
		// an empty cloud fails the planner so the loop holds the previous command
		{Time: start.Add(2 * time.Second)},
	}
	test.That(t, replayEvents(c, events, r3.Vector{X: 1, Z: 1}), test.ShouldBeNil)

	output := out.String()
	test.That(t, strings.Count(output, "0.4000"), test.ShouldEqual, 2)
	test.That(t, output, test.ShouldContainSubstring, "cycles: 1")

	err := NewApp(&out, &errOut).Run([]string{"apf", "replay", "--bag", "/nonexistent.bag", "--goal", "1,0,0"})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "unable to open input file")
}
