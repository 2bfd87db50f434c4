package ros

import (
	"encoding/base64"
	"encoding/binary"
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"go.viam.com/localplanner/spatialmath"
)

func odomMsg(secs int64, x, y, z float64) map[string]interface{} {
	return map[string]interface{}{
		"meta": map[string]interface{}{"secs": float64(secs), "nsecs": float64(0)},
		"data": map[string]interface{}{
			"child_frame_id": "base_link",
			"pose": map[string]interface{}{
				"pose": map[string]interface{}{
					"position":    map[string]interface{}{"x": x, "y": y, "z": z},
					"orientation": map[string]interface{}{"x": 0., "y": 0., "z": math.Sqrt2 / 2, "w": math.Sqrt2 / 2},
				},
			},
		},
	}
}

// encodeCloud packs points as little or big endian FLOAT32 x, y, z plus a padding field.
func encodeCloud(points []r3.Vector, bigEndian bool) []byte {
	var order binary.ByteOrder = binary.LittleEndian
	if bigEndian {
		order = binary.BigEndian
	}
	out := make([]byte, 16*len(points))
	for i, p := range points {
		buf := out[16*i:]
		order.PutUint32(buf[0:], math.Float32bits(float32(p.X)))
		order.PutUint32(buf[4:], math.Float32bits(float32(p.Y)))
		order.PutUint32(buf[8:], math.Float32bits(float32(p.Z)))
	}
	return out
}

func cloudMsg(secs int64, data interface{}, width int, bigEndian bool) map[string]interface{} {
	field := func(name string, offset float64) map[string]interface{} {
		return map[string]interface{}{"name": name, "offset": offset, "datatype": 7., "count": 1.}
	}
	return map[string]interface{}{
		"meta": map[string]interface{}{"secs": float64(secs), "nsecs": float64(0)},
		"data": map[string]interface{}{
			"height":       1.,
			"width":        float64(width),
			"fields":       []interface{}{field("x", 0), field("y", 4), field("z", 8), field("intensity", 12)},
			"is_bigendian": bigEndian,
			"point_step":   16.,
			"row_step":     float64(16 * width),
			"data":         data,
			"is_dense":     false,
		},
	}
}

func TestDecodeOdometry(t *testing.T) {
	odom, err := DecodeOdometry(odomMsg(12, 1, 2, 3))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, odom.Meta.Time().Unix(), test.ShouldEqual, int64(12))
	test.That(t, odom.Data.ChildFrameID, test.ShouldEqual, "base_link")
	test.That(t, odom.Position(), test.ShouldResemble, r3.Vector{X: 1, Y: 2, Z: 3})
	yaw := &spatialmath.EulerAngles{Yaw: math.Pi / 2}
	test.That(t, spatialmath.OrientationAlmostEqual(odom.Orientation(), yaw), test.ShouldBeTrue)

	_, err = DecodeOdometry(map[string]interface{}{"data": "nope"})
	test.That(t, err, test.ShouldNotBeNil)
}

func TestPointCloud2Points(t *testing.T) {
	points := []r3.Vector{{X: 1, Y: 2, Z: 3}, {X: -0.5, Y: 0.25, Z: 4}}
	withNaN := append([]r3.Vector{{X: math.NaN(), Y: 0, Z: 0}}, points...)

	t.Run("base64 little endian", func(t *testing.T) {
		data := base64.StdEncoding.EncodeToString(encodeCloud(withNaN, false))
		cloud, err := DecodePointCloud2(cloudMsg(1, data, len(withNaN), false))
		test.That(t, err, test.ShouldBeNil)
		got, err := cloud.Points()
		test.That(t, err, test.ShouldBeNil)
		// non-finite points are kept; the planner skips them
		test.That(t, got, test.ShouldHaveLength, 3)
		test.That(t, math.IsNaN(got[0].X), test.ShouldBeTrue)
		test.That(t, []r3.Vector(got[1:]), test.ShouldResemble, points)
	})

	t.Run("array big endian", func(t *testing.T) {
		raw := encodeCloud(points, true)
		data := make([]interface{}, len(raw))
		for i, b := range raw {
			data[i] = float64(b)
		}
		cloud, err := DecodePointCloud2(cloudMsg(1, data, len(points), true))
		test.That(t, err, test.ShouldBeNil)
		got, err := cloud.Points()
		test.That(t, err, test.ShouldBeNil)
		test.That(t, []r3.Vector(got), test.ShouldResemble, points)
	})

	t.Run("oversized declaration", func(t *testing.T) {
		msg := cloudMsg(1, "", 0, false)
		d := msg["data"].(map[string]interface{})
		d["width"] = float64(1 << 31)
		d["height"] = float64(1 << 31)
		d["row_step"] = 0.
		cloud, err := DecodePointCloud2(msg)
		test.That(t, err, test.ShouldBeNil)
		_, err = cloud.Points()
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "too short")
	})

	t.Run("short data", func(t *testing.T) {
		data := base64.StdEncoding.EncodeToString(encodeCloud(points, false))
		cloud, err := DecodePointCloud2(cloudMsg(1, data, 3, false))
		test.That(t, err, test.ShouldBeNil)
		_, err = cloud.Points()
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "too short")
	})

	t.Run("missing field", func(t *testing.T) {
		msg := cloudMsg(1, "", 0, false)
		msg["data"].(map[string]interface{})["fields"] = []interface{}{}
		cloud, err := DecodePointCloud2(msg)
		test.That(t, err, test.ShouldBeNil)
		_, err = cloud.Points()
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, `no "x" field`)
	})

	t.Run("unsupported datatype", func(t *testing.T) {
		msg := cloudMsg(1, "", 0, false)
		msg["data"].(map[string]interface{})["fields"] = []interface{}{
			map[string]interface{}{"name": "x", "offset": 0., "datatype": 2., "count": 1.},
		}
		cloud, err := DecodePointCloud2(msg)
		test.That(t, err, test.ShouldBeNil)
		_, err = cloud.Points()
		test.That(t, err, test.ShouldNotBeNil)
	})
}
