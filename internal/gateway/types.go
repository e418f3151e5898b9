package gateway

import (
	"encoding/binary"
	"fmt"
	"time"
)

// Message is the JSON payload carried by every inbound command topic.
// Fields beyond clientID are optional; which ones a command requires is
// documented per command in the router.
type Message struct {
	// ClientID names the requester. Per-requester response topics are
	// derived from it, so concurrent callers never see each other's
	// responses.
	ClientID string `json:"clientID"`

	// Device is the target MAC address.
	Device string `json:"device,omitempty"`

	// Char is the target characteristic UUID.
	Char string `json:"char,omitempty"`

	// Cmd is the device-scoped operation: read, write or notify.
	Cmd string `json:"cmd,omitempty"`

	// Data is the raw write payload, sent to the characteristic as bytes.
	Data string `json:"data,omitempty"`

	// Status filters a list command to connected devices when set to
	// "connected".
	Status string `json:"status,omitempty"`
}

// DiscoveredDevice is one scan hit: an advertising peripheral that is not
// currently connected.
type DiscoveredDevice struct {
	Name string `json:"name"`
	MAC  string `json:"mac"`
}

// ScanResult is the response to a scan command.
type ScanResult struct {
	Room    string             `json:"room"`
	Devices []DiscoveredDevice `json:"devices"`
	Error   string             `json:"error,omitempty"`
}

// DeviceRecord is one known device in a list response.
type DeviceRecord struct {
	MAC       string    `json:"mac"`
	Name      string    `json:"name"`
	FirstSeen time.Time `json:"firstSeen"`
	Connected bool      `json:"connected"`
}

// DeviceList is the response to a list command. Error carries
// "no devices found" when the registry is empty.
type DeviceList struct {
	Room    string         `json:"room"`
	Devices []DeviceRecord `json:"devices,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// ActivityRecord is one activity log entry in a history response.
type ActivityRecord struct {
	Activity  string    `json:"activity"`
	Data      string    `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ActivityList is the response to a history command: a device's recent
// activity log entries, newest first.
type ActivityList struct {
	Room     string           `json:"room"`
	Device   string           `json:"device"`
	Activity []ActivityRecord `json:"activity,omitempty"`
	Error    string           `json:"error,omitempty"`
}

// CharDescriptor describes one characteristic of a connected device:
// its UUID, the resolved human name, and live capability flags. Recomputed
// per request, never cached.
type CharDescriptor struct {
	UUID       string `json:"uuid"`
	Name       string `json:"name"`
	Identifier string `json:"identifier,omitempty"`
	Source     string `json:"source"`
	Read       bool   `json:"read"`
	Write      bool   `json:"write"`
	Notify     bool   `json:"notify"`
	Notifying  bool   `json:"notifying"`
}

// CharList is the response to a device describe command.
type CharList struct {
	Room   string           `json:"room"`
	Device string           `json:"device"`
	Chars  []CharDescriptor `json:"chars,omitempty"`
	Error  string           `json:"error,omitempty"`
}

// CommandResult is the response to a device read/write/notify command.
type CommandResult struct {
	Room      string `json:"room"`
	Device    string `json:"device"`
	Char      string `json:"char,omitempty"`
	Cmd       string `json:"cmd"`
	Value     *int32 `json:"value,omitempty"`
	Notifying *bool  `json:"notifying,omitempty"`
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
}

// Command result status values.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// StatusEvent is the broadcast payload published on the device-status topic
// whenever a device connects or disconnects.
type StatusEvent struct {
	Room   string `json:"room"`
	Device string `json:"device"`
	Name   string `json:"name,omitempty"`
	Status string `json:"status"`
}

// Device status values for StatusEvent.
const (
	DeviceConnected    = "connected"
	DeviceDisconnected = "disconnected"
)

// NotifyEvent is the broadcast payload published on the device-notify topic
// for each decoded sensor notification.
type NotifyEvent struct {
	Room       string    `json:"room"`
	Device     string    `json:"device"`
	DeviceName string    `json:"deviceName,omitempty"`
	Sensor     string    `json:"sensor"`
	SensorName string    `json:"sensorName"`
	Value      int32     `json:"value"`
	Timestamp  time.Time `json:"timestamp"`
}

// RoomStatus is the reply to a broadcast ping, published on the
// requester's room-status topic.
type RoomStatus struct {
	Room   string `json:"room"`
	Status string `json:"status"`
}

// decodeInt32 decodes a characteristic value as a 4-byte little-endian
// signed integer, the wire encoding used by the sensor firmware. Longer
// payloads are accepted and decoded from their first four bytes.
func decodeInt32(data []byte) (int32, error) {
	if len(data) < 4 {
		return 0, fmt.Errorf("%w: got %d", ErrShortValue, len(data))
	}
	return int32(binary.LittleEndian.Uint32(data[:4])), nil
}

// encodeInt32 is the inverse of decodeInt32.
func encodeInt32(value int32) []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, uint32(value))
	return buf
}
