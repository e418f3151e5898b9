package gateway

import "errors"

// Domain-specific errors for gateway operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrNotConnected is returned when an operation targets a device with
	// no live session.
	ErrNotConnected = errors.New("gateway: device not connected")

	// ErrMissingService is returned when a connected device does not
	// expose the Environmental Sensing Service. Terminal for the connect
	// attempt; the device is disconnected before the error is returned.
	ErrMissingService = errors.New("gateway: environmental sensing service not present")

	// ErrCharNotFound is returned when a command names a characteristic
	// the session does not hold.
	ErrCharNotFound = errors.New("gateway: characteristic not found")

	// ErrShortValue is returned when a characteristic value is too short
	// to decode as a 32-bit integer.
	ErrShortValue = errors.New("gateway: value shorter than 4 bytes")
)
