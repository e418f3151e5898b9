package telemetry

import "time"

// Reading is a single decoded sensor value with its full provenance:
// the room the gateway serves, the device it came from, and the
// characteristic that produced it.
type Reading struct {
	Room       string
	DeviceID   string // MAC address
	DeviceName string
	SensorID   string // characteristic UUID
	SensorName string // resolved characteristic name
	Value      int64
	Timestamp  time.Time
}

// Sink receives decoded sensor readings for durable time-series storage.
//
// Implementations must not block: readings arrive on the notification hot
// path and are expected to be batched internally.
type Sink interface {
	WriteSensorReading(reading Reading)
	Flush()
	Close() error
}

// Nop is a Sink that discards everything. Used when telemetry is disabled
// so callers never need a nil check.
type Nop struct{}

func (Nop) WriteSensorReading(Reading) {}
func (Nop) Flush()                     {}
func (Nop) Close() error               { return nil }
