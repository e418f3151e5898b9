// Package gateway is the core of the room gateway: the device session
// manager and the command router.
//
// # Sessions
//
// A session is one live BLE connection to an environmental sensor. The
// Gateway owns the session set and is its single source of truth:
// at most one session exists per MAC address, connect/disconnect for one
// device are serialized on a per-MAC lock, and operations on distinct
// devices run independently. Connecting verifies the device exposes the
// Environmental Sensing Service and enumerates its characteristics;
// devices without the service are disconnected and rejected.
//
// # Commands
//
// Commands arrive as JSON payloads on the room's MQTT topics:
//
//	room-{room}/command/config/{list|scan|connect|disconnect|disconnectAll|history}
//	room-{room}/command/device        (describe, read, write, notify)
//
// Request/response commands answer on topics derived from the requester's
// clientID; connect and disconnect answer everyone at once with a status
// event on room-{room}/response/device/status. Messages the router cannot
// classify are logged and dropped without a response. Every message runs
// on its own goroutine, so a slow operation against one device never
// delays commands for another.
//
// # Notifications
//
// Characteristic notifications are queued from the BLE driver's callback
// onto an internal channel and drained by a single pump goroutine, which
// decodes each value as a little-endian 32-bit signed integer, records a
// telemetry reading, and publishes a notify event for the room. A failure
// on one notification never affects the session that produced it.
package gateway
