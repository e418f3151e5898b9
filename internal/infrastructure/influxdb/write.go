package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/roomsense/gateway/internal/telemetry"
)

// sensorMeasurement is the measurement name for all sensor readings.
const sensorMeasurement = "sensor_data"

// WriteSensorReading records a sensor reading in the time-series store.
//
// The write is non-blocking; points are batched and sent asynchronously.
// Tag names are part of the stored data contract and must not change
// without migrating downstream dashboards.
//
// Example:
//
//	client.WriteSensorReading(telemetry.Reading{
//	    Room:       "101",
//	    DeviceID:   "AA:BB:CC:DD:EE:FF",
//	    DeviceName: "window-sensor",
//	    SensorID:   "00002a6e-0000-1000-8000-00805f9b34fb",
//	    SensorName: "Temperature",
//	    Value:      2150,
//	    Timestamp:  time.Now(),
//	})
func (c *Client) WriteSensorReading(reading telemetry.Reading) {
	if !c.IsConnected() {
		return
	}

	ts := reading.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	point := write.NewPoint(
		sensorMeasurement,
		map[string]string{
			"room":        reading.Room,
			"device_ID":   reading.DeviceID,
			"device_name": reading.DeviceName,
			"sensor_ID":   reading.SensorID,
			"sensor_name": reading.SensorName,
		},
		map[string]interface{}{
			"value": reading.Value,
		},
		ts,
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for measurements that don't fit WriteSensorReading, such as
// gateway self-metrics.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}
