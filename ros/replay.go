package ros

import (
	"context"
	"sort"
	"time"

	"github.com/edaniels/gobag/rosbag"
	"github.com/pkg/errors"

	"go.viam.com/localplanner/apf"
	"go.viam.com/localplanner/pointcloud"
	"go.viam.com/localplanner/spatialmath"
)

// Event is one recorded input to the planner: either an obstacle cloud or an odometry pose.
type Event struct {
	Time time.Time
	// Points is set for cloud events and holds body-local points.
	Points pointcloud.Vectors
	// Pose is set for odometry events.
	Pose spatialmath.Pose
}

// IsCloud reports whether the event carries obstacle points.
func (e Event) IsCloud() bool {
	return e.Pose == nil
}

// LoadEvents reads odometry and point cloud topics from a bag and merges them in time order.
func LoadEvents(rb *rosbag.RosBag, odomTopic, cloudTopic string) ([]Event, error) {
	odomMsgs, err := AllMessagesForTopic(rb, odomTopic)
	if err != nil {
		return nil, err
	}
	cloudMsgs, err := AllMessagesForTopic(rb, cloudTopic)
	if err != nil {
		return nil, err
	}
	return EventsFromMessages(odomMsgs, cloudMsgs)
}

// EventsFromMessages decodes gobag JSON messages and merges them in time order. Events recorded at
// the same time keep odometry first.
func EventsFromMessages(odomMsgs, cloudMsgs []map[string]interface{}) ([]Event, error) {
	events := make([]Event, 0, len(odomMsgs)+len(cloudMsgs))
	for i, msg := range odomMsgs {
		odom, err := DecodeOdometry(msg)
		if err != nil {
			return nil, errors.Wrapf(err, "odometry message %d", i)
		}
		events = append(events, Event{
			Time: odom.Meta.Time(),
			Pose: spatialmath.NewPose(odom.Position(), odom.Orientation()),
		})
	}
	for i, msg := range cloudMsgs {
		cloud, err := DecodePointCloud2(msg)
		if err != nil {
			return nil, errors.Wrapf(err, "point cloud message %d", i)
		}
		points, err := cloud.Points()
		if err != nil {
			return nil, errors.Wrapf(err, "point cloud message %d", i)
		}
		events = append(events, Event{Time: cloud.Meta.Time(), Points: points})
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Time.Before(events[j].Time)
	})
	return events, nil
}

// Replay applies events to the planner state in order. after, if not nil, is called once each
// event has been applied; an error from it stops the replay.
func Replay(ctx context.Context, events []Event, state *apf.State, after func(Event) error) error {
	for _, ev := range events {
		if err := ctx.Err(); err != nil {
			return err
		}
		if ev.IsCloud() {
			state.SetObstacles(ev.Points)
		} else {
			state.SetPose(ev.Pose.Point(), ev.Pose.Orientation())
		}
		if after == nil {
			continue
		}
		if err := after(ev); err != nil {
			return err
		}
	}
	return nil
}
