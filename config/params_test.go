package config

import (
	"testing"

	"go.viam.com/test"

	"go.viam.com/localplanner/apf"
	"go.viam.com/localplanner/logging"
)

func TestAPFConfigFromParams(t *testing.T) {
	logger, logs := logging.NewObservedTestLogger(t)

	cfg, err := APFConfigFromParams(nil, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg, test.ShouldResemble, apf.DefaultConfig())

	cfg, err = APFConfigFromParams(map[string]interface{}{
		"apf/obs_distance":       4,
		"apf/k_push":             "2",
		"k_att":                  float32(0.5),
		"max_att_dist":           int64(8),
		"apf/ground_height":      0.05,
		"apf/ground_safe_height": "0",
		"apf/frame_id":           1,
	}, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg, test.ShouldResemble, apf.Config{
		ObsDistance:      4,
		KPush:            2,
		KAtt:             0.5,
		MinDist:          apf.DefaultMinDist,
		MaxAttDist:       8,
		GroundHeight:     0.05,
		GroundSafeHeight: 0,
	})
	test.That(t, logs.FilterMessage("ignoring unknown planner parameter").Len(), test.ShouldEqual, 1)

	_, err = APFConfigFromParams(map[string]interface{}{"k_att": 1, "apf/k_att": 2}, logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "both with and without")

	_, err = APFConfigFromParams(map[string]interface{}{"apf/k_att": []int{1}}, logger)
	test.That(t, err, test.ShouldNotBeNil)

	_, err = APFConfigFromParams(map[string]interface{}{"max_att_dist": -1}, logger)
	test.That(t, err, test.ShouldNotBeNil)
}
