package ble

import "errors"

// Domain-specific errors for BLE operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrDeviceNotFound is returned when a device is not in the discovery
	// cache within the allowed wait.
	ErrDeviceNotFound = errors.New("ble: device not found")

	// ErrNotConnected is returned for GATT operations on a device without
	// an active connection.
	ErrNotConnected = errors.New("ble: device not connected")

	// ErrConnectFailed is returned when a GATT connect attempt fails.
	ErrConnectFailed = errors.New("ble: connect failed")

	// ErrNoName is returned when a device never advertised a local name.
	ErrNoName = errors.New("ble: device has no advertised name")

	// ErrDiscoveryFailed is returned when the adapter cannot start or
	// sustain a scan.
	ErrDiscoveryFailed = errors.New("ble: discovery failed")
)
