package mqtt

import "fmt"

// Well-known topics shared by every room gateway.
const (
	// StatusTopic carries gateway presence payloads ({room, status}).
	// It is also the last-will topic.
	StatusTopic = "room/status"

	// BroadcastTopic is a site-wide ping: any message published here is
	// answered by every online gateway on the caller's room-status topic.
	BroadcastTopic = "broadcast"
)

// Topics provides builders for the room-scoped topic hierarchy.
// Using these helpers ensures consistent topic naming across the codebase.
//
// Command topics (gateway subscribes):
//
//	room-{room}/command/config/{list|scan|connect|disconnect|disconnectAll|history}
//	room-{room}/command/device
//
// Broadcast response topics (gateway publishes):
//
//	room-{room}/response/device/status
//	room-{room}/response/device/notify
//
// Per-requester response topics are derived from the clientID supplied in
// each command payload, so concurrent callers never see each other's
// responses.
type Topics struct {
	Room string
}

// ConfigCommands returns the wildcard pattern for all config commands.
//
// Pattern: room-101/command/config/#
func (t Topics) ConfigCommands() string {
	return fmt.Sprintf("room-%s/command/config/#", t.Room)
}

// ConfigCommand returns the topic for a single config command.
//
// Example: room-101/command/config/scan
func (t Topics) ConfigCommand(cmd string) string {
	return fmt.Sprintf("room-%s/command/config/%s", t.Room, cmd)
}

// ConfigPrefix returns the prefix shared by all config command topics.
// Used to classify inbound topics and extract the command name.
func (t Topics) ConfigPrefix() string {
	return fmt.Sprintf("room-%s/command/config/", t.Room)
}

// DeviceCommands returns the topic for device-scoped commands.
//
// Example: room-101/command/device
func (t Topics) DeviceCommands() string {
	return fmt.Sprintf("room-%s/command/device", t.Room)
}

// DeviceStatus returns the broadcast topic for device status events.
//
// Example: room-101/response/device/status
func (t Topics) DeviceStatus() string {
	return fmt.Sprintf("room-%s/response/device/status", t.Room)
}

// DeviceNotify returns the broadcast topic for sensor notification events.
//
// Example: room-101/response/device/notify
func (t Topics) DeviceNotify() string {
	return fmt.Sprintf("room-%s/response/device/notify", t.Room)
}

// =============================================================================
// Per-requester response topics
// =============================================================================

// ClientDevices returns the device-list response topic for a requester.
//
// Example: dashboard-7/devices
func ClientDevices(clientID string) string {
	return clientID + "/devices"
}

// ClientScan returns the scan-result response topic for a requester.
func ClientScan(clientID string) string {
	return clientID + "/scan"
}

// ClientHistory returns the activity-history response topic for a requester.
func ClientHistory(clientID string) string {
	return clientID + "/history"
}

// ClientChars returns the characteristic-list response topic for a requester.
func ClientChars(clientID string) string {
	return clientID + "/chars"
}

// ClientCmd returns the command-result response topic for a requester.
func ClientCmd(clientID string) string {
	return clientID + "/cmd"
}

// ClientRoomStatus returns the presence-reply topic for a requester.
// Used to answer broadcast pings.
func ClientRoomStatus(clientID string) string {
	return clientID + "/room-status"
}
