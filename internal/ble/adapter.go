package ble

import "context"

// ServiceESS is the Environmental Sensing Service UUID. Devices that do not
// expose this service are rejected at connect time.
const ServiceESS = "0000181a-0000-1000-8000-00805f9b34fb"

// Flags describes a characteristic's capabilities.
//
// BlueZ does not expose GATT property bits through the adapter library on
// every platform, so implementations may report best-effort values; actual
// capability is enforced by the peripheral at operation time.
type Flags struct {
	Read   bool
	Write  bool
	Notify bool
}

// Characteristic represents a GATT characteristic on a connected device.
type Characteristic interface {
	// UUID returns the characteristic's 128-bit UUID string.
	UUID() string

	// Flags returns the characteristic's capability flags.
	Flags() Flags

	// Read performs a GATT read and returns the raw value.
	Read() ([]byte, error)

	// Write performs a GATT write with the raw payload.
	Write(data []byte) error

	// IsNotifying reports whether a notification subscription is active.
	IsNotifying() bool

	// StartNotifications subscribes to value-change events. The callback
	// is invoked from the adapter's event goroutine and must not block.
	StartNotifications(callback func(data []byte)) error

	// StopNotifications cancels the subscription.
	StopNotifications() error
}

// Service represents a GATT service on a connected device.
type Service interface {
	// UUID returns the service's 128-bit UUID string.
	UUID() string

	// Characteristics enumerates the service's characteristics.
	Characteristics() ([]Characteristic, error)
}

// Device represents a discovered peripheral, connected or not.
type Device interface {
	// MAC returns the device's hardware address.
	MAC() string

	// Name returns the advertised local name, or an error when the
	// device never advertised one.
	Name() (string, error)

	// Connect establishes a GATT connection.
	Connect(ctx context.Context) error

	// Disconnect tears the connection down.
	Disconnect() error

	// Services enumerates the device's GATT services. Only valid while
	// connected.
	Services() ([]Service, error)
}

// Adapter abstracts the Bluetooth hardware for discovery and connection.
//
// Discovery is a background activity: StartDiscovery begins populating an
// internal device cache, ListDiscovered snapshots it, and WaitForDevice
// blocks until a specific address shows up (or the context expires).
type Adapter interface {
	// Enable powers on the Bluetooth adapter.
	Enable() error

	// StartDiscovery begins scanning for advertising peripherals.
	StartDiscovery() error

	// StopDiscovery halts an active scan. Stopping an inactive scan is
	// not an error.
	StopDiscovery() error

	// ListDiscovered returns the addresses of every peripheral seen since
	// the adapter was enabled.
	ListDiscovered() []string

	// WaitForDevice blocks until the given address has been discovered
	// and returns its device handle. Discovery must be active, or the
	// device must already be cached, for this to ever succeed.
	WaitForDevice(ctx context.Context, mac string) (Device, error)
}
