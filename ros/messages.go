package ros

import (
	"encoding/base64"
	"encoding/binary"
	"math"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/spf13/cast"

	"go.viam.com/localplanner/pointcloud"
	"go.viam.com/localplanner/spatialmath"
)

// PointField datatypes from sensor_msgs/PointField.
const (
	pointFieldFloat32 = 7
	pointFieldFloat64 = 8
)

// Meta is the bag record time gobag attaches to every message.
type Meta struct {
	Secs  int64 `mapstructure:"secs"`
	Nsecs int64 `mapstructure:"nsecs"`
}

// Time returns the record time.
func (m Meta) Time() time.Time {
	return time.Unix(m.Secs, m.Nsecs)
}

type vector3 struct {
	X float64 `mapstructure:"x"`
	Y float64 `mapstructure:"y"`
	Z float64 `mapstructure:"z"`
}

type quaternion struct {
	X float64 `mapstructure:"x"`
	Y float64 `mapstructure:"y"`
	Z float64 `mapstructure:"z"`
	W float64 `mapstructure:"w"`
}

// OdometryMessage is a nav_msgs/Odometry record. Only the pose is kept.
type OdometryMessage struct {
	Meta Meta `mapstructure:"meta"`
	Data struct {
		ChildFrameID string `mapstructure:"child_frame_id"`
		Pose         struct {
			Pose struct {
				Position    vector3    `mapstructure:"position"`
				Orientation quaternion `mapstructure:"orientation"`
			} `mapstructure:"pose"`
		} `mapstructure:"pose"`
	} `mapstructure:"data"`
}

// Position returns the position in the odometry frame.
func (m *OdometryMessage) Position() r3.Vector {
	p := m.Data.Pose.Pose.Position
	return r3.Vector{X: p.X, Y: p.Y, Z: p.Z}
}

// Orientation returns the body orientation in the odometry frame.
func (m *OdometryMessage) Orientation() spatialmath.Orientation {
	q := m.Data.Pose.Pose.Orientation
	return spatialmath.NewQuaternion(q.W, q.X, q.Y, q.Z)
}

// PointField describes one field of a PointCloud2 point.
type PointField struct {
	Name     string `mapstructure:"name"`
	Offset   uint32 `mapstructure:"offset"`
	Datatype uint8  `mapstructure:"datatype"`
	Count    uint32 `mapstructure:"count"`
}

// PointCloud2Message is a sensor_msgs/PointCloud2 record.
type PointCloud2Message struct {
	Meta Meta `mapstructure:"meta"`
	Data struct {
		Height      uint32       `mapstructure:"height"`
		Width       uint32       `mapstructure:"width"`
		Fields      []PointField `mapstructure:"fields"`
		IsBigEndian bool         `mapstructure:"is_bigendian"`
		PointStep   uint32       `mapstructure:"point_step"`
		RowStep     uint32       `mapstructure:"row_step"`
		// Data is either a base64 string or an array of byte values depending on how the bag was
		// converted.
		Data interface{} `mapstructure:"data"`
	} `mapstructure:"data"`
}

// DecodeOdometry decodes a gobag JSON message into an OdometryMessage.
func DecodeOdometry(msg map[string]interface{}) (*OdometryMessage, error) {
	var odom OdometryMessage
	if err := mapstructure.Decode(msg, &odom); err != nil {
		return nil, errors.Wrap(err, "cannot decode odometry message")
	}
	return &odom, nil
}

// DecodePointCloud2 decodes a gobag JSON message into a PointCloud2Message.
func DecodePointCloud2(msg map[string]interface{}) (*PointCloud2Message, error) {
	var cloud PointCloud2Message
	if err := mapstructure.Decode(msg, &cloud); err != nil {
		return nil, errors.Wrap(err, "cannot decode point cloud message")
	}
	return &cloud, nil
}

func (m *PointCloud2Message) bytes() ([]byte, error) {
	switch data := m.Data.Data.(type) {
	case nil:
		return nil, nil
	case []byte:
		return data, nil
	case string:
		return base64.StdEncoding.DecodeString(data)
	case []interface{}:
		out := make([]byte, len(data))
		for i, v := range data {
			b, err := cast.ToUint8E(v)
			if err != nil {
				return nil, errors.Wrapf(err, "data[%d]", i)
			}
			out[i] = b
		}
		return out, nil
	default:
		return nil, errors.Errorf("unsupported point cloud data of type %T", data)
	}
}

func (m *PointCloud2Message) field(name string) (PointField, error) {
	for _, f := range m.Data.Fields {
		if f.Name == name {
			if f.Datatype != pointFieldFloat32 && f.Datatype != pointFieldFloat64 {
				return PointField{}, errors.Errorf("field %q has unsupported datatype %d", name, f.Datatype)
			}
			return f, nil
		}
	}
	return PointField{}, errors.Errorf("point cloud has no %q field", name)
}

// Points returns the x, y and z of every point in the cloud, including points with a non-finite
// coordinate.
func (m *PointCloud2Message) Points() (pointcloud.Vectors, error) {
	var fields [3]PointField
	for i, name := range []string{"x", "y", "z"} {
		f, err := m.field(name)
		if err != nil {
			return nil, err
		}
		fields[i] = f
	}
	data, err := m.bytes()
	if err != nil {
		return nil, err
	}

	var order binary.ByteOrder = binary.LittleEndian
	if m.Data.IsBigEndian {
		order = binary.BigEndian
	}
	read := func(buf []byte, f PointField) (float64, error) {
		size := uint32(4)
		if f.Datatype == pointFieldFloat64 {
			size = 8
		}
		if uint64(f.Offset)+uint64(size) > uint64(len(buf)) {
			return 0, errors.Errorf("field %q overflows the point", f.Name)
		}
		if size == 4 {
			return float64(math.Float32frombits(order.Uint32(buf[f.Offset:]))), nil
		}
		return math.Float64frombits(order.Uint64(buf[f.Offset:])), nil
	}

	rowStep := uint64(m.Data.RowStep)
	if rowStep == 0 {
		rowStep = uint64(m.Data.Width) * uint64(m.Data.PointStep)
	}
	// capacity is bounded by the bytes present, not the declared size
	var capacity uint64
	if m.Data.PointStep > 0 {
		capacity = min(uint64(m.Data.Height)*uint64(m.Data.Width), uint64(len(data))/uint64(m.Data.PointStep))
	}
	points := make(pointcloud.Vectors, 0, capacity)
	for row := uint32(0); row < m.Data.Height; row++ {
		for col := uint32(0); col < m.Data.Width; col++ {
			start := uint64(row)*rowStep + uint64(col)*uint64(m.Data.PointStep)
			end := start + uint64(m.Data.PointStep)
			if end > uint64(len(data)) {
				return nil, errors.Errorf("point cloud data too short: need %d bytes, have %d", end, len(data))
			}
			buf := data[start:end]
			var coords [3]float64
			for i, f := range fields {
				v, err := read(buf, f)
				if err != nil {
					return nil, err
				}
				coords[i] = v
			}
			points = append(points, r3.Vector{X: coords[0], Y: coords[1], Z: coords[2]})
		}
	}
	return points, nil
}
