// Package influxdb provides InfluxDB connectivity for the RoomSense gateway.
//
// It wraps the official influxdb-client-go v2 library with gateway-specific
// patterns for connection management, sensor writes, and health monitoring.
//
// # Purpose
//
// This package handles time-series storage for decoded sensor readings.
// Every notification the gateway receives from a subscribed BLE
// characteristic ends up here as a point in the sensor_data measurement,
// tagged by room, device and sensor so dashboards can slice per room or
// per characteristic.
//
// # Usage
//
//	cfg := config.InfluxDBConfig{
//	    URL:    "http://localhost:8086",
//	    Token:  "your-token",
//	    Org:    "roomsense",
//	    Bucket: "sensors",
//	}
//
//	client, err := influxdb.Connect(cfg)
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
// The underlying write API uses non-blocking batched writes.
//
// # Error Handling
//
// Write operations are non-blocking and batch errors are logged via a callback.
// Connection and health check errors are returned directly.
//
// # Performance
//
// Writes are batched according to config.yaml settings (batch_size, flush_interval).
// This reduces network overhead for high-frequency notification streams.
package influxdb
