package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.viam.com/test"

	"go.viam.com/localplanner/apf"
	"go.viam.com/localplanner/control"
	"go.viam.com/localplanner/logging"
)

func TestRead(t *testing.T) {
	logger := logging.NewTestLogger(t)
	t.Setenv("APF_K_PUSH", "1.5")

	fn := filepath.Join(t.TempDir(), "planner.json")
	contents := `{
		"apf": {"apf/k_push": "${APF_K_PUSH}", "obs_distance": 3, "apf/min_dist": 0.5},
		"loop": {"frequency_hz": 20, "hold_cycles": 3},
		"log_level": "debug"
	}`
	test.That(t, os.WriteFile(fn, []byte(contents), 0o600), test.ShouldBeNil)

	cfg, err := Read(context.Background(), fn, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.ConfigFilePath, test.ShouldEqual, fn)

	expected := apf.DefaultConfig()
	expected.KPush = 1.5
	expected.ObsDistance = 3
	expected.MinDist = 0.5
	test.That(t, cfg.APF, test.ShouldResemble, expected)
	test.That(t, cfg.Loop.FrequencyHz, test.ShouldEqual, 20.)
	test.That(t, *cfg.Loop.HoldCycles, test.ShouldEqual, 3)
	test.That(t, cfg.LogLevel, test.ShouldEqual, logging.DEBUG)

	_, err = Read(context.Background(), filepath.Join(t.TempDir(), "missing.json"), logger)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestFromReaderDefaults(t *testing.T) {
	cfg, err := FromReader(context.Background(), "", strings.NewReader(`{}`), logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg, test.ShouldResemble, Default())
	test.That(t, cfg.Loop, test.ShouldResemble, control.DefaultLoopConfig())
}

func TestFromReaderErrors(t *testing.T) {
	logger := logging.NewTestLogger(t)
	for _, tc := range []struct {
		name, contents, msg string
	}{
		{"not json", `apf: 1`, "cannot parse config"},
		{"bad parameter", `{"apf": {"k_att": "strong"}}`, `parameter "k_att"`},
		{"min_dist too large", `{"apf": {"min_dist": 3}}`, "must be greater than min_dist"},
		{"bad loop", `{"loop": {"frequency_hz": 1000}}`, "frequency_hz"},
		{"bad log level", `{"log_level": "chatty"}`, "log_level"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := FromReader(context.Background(), "", strings.NewReader(tc.contents), logger)
			test.That(t, err, test.ShouldNotBeNil)
			test.That(t, err.Error(), test.ShouldContainSubstring, tc.msg)
		})
	}
}
