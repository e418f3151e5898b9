// Package tsdb provides VictoriaMetrics connectivity for the RoomSense gateway.
//
// It writes to VictoriaMetrics using InfluxDB line protocol over HTTP.
// The write path needs nothing beyond net/http.
//
// # Purpose
//
// This is the alternative telemetry backend to the influxdb package.
// Deployments that already run VictoriaMetrics select it with
// telemetry.backend: victoriametrics in config.yaml; the stored schema
// (sensor_data measurement, room/device/sensor tags) is identical to the
// InfluxDB backend so dashboards work against either.
//
// # Usage
//
//	cfg := config.VictoriaMetricsConfig{
//	    URL:           "http://localhost:8428",
//	    BatchSize:     1000,
//	    FlushInterval: 1,
//	}
//
//	client, err := tsdb.Connect(ctx, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	client.WriteSensorReading(telemetry.Reading{
//	    Room: "101", DeviceID: "AA:BB:CC:DD:EE:FF", DeviceName: "window-sensor",
//	    SensorID: "00002a6e-0000-1000-8000-00805f9b34fb", SensorName: "Temperature",
//	    Value: 2150,
//	})
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
// Writes are batched internally and flushed on size threshold or timer.
//
// # Error Handling
//
// Write operations are non-blocking and batch errors are reported via a callback.
// Connection and health check errors are returned directly.
//
// # Performance
//
// Writes are batched according to config.yaml settings (batch_size, flush_interval).
// Batch flush is a single HTTP POST with newline-delimited line protocol.
// VictoriaMetrics processes these with minimal overhead.
package tsdb
