package registry

import "errors"

// Domain-specific errors for registry operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrDeviceNotFound is returned when no device exists for a MAC address.
	ErrDeviceNotFound = errors.New("registry: device not found")

	// ErrInvalidActivity is returned for activity kinds outside the
	// defined set.
	ErrInvalidActivity = errors.New("registry: invalid activity kind")
)
