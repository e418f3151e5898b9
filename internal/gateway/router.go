package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/roomsense/gateway/internal/infrastructure/mqtt"
	"github.com/roomsense/gateway/internal/registry"
)

// Config command names, matched against the last topic segment.
const (
	cmdList          = "list"
	cmdScan          = "scan"
	cmdConnect       = "connect"
	cmdDisconnect    = "disconnect"
	cmdDisconnectAll = "disconnectAll"
	cmdHistory       = "history"
)

// defaultHistoryLimit caps a history response when the requester does not
// name a limit.
const defaultHistoryLimit = 20

// Device command names, matched against the payload cmd field.
const (
	cmdRead   = "read"
	cmdWrite  = "write"
	cmdNotify = "notify"
)

// handleConfigMessage dispatches room-{room}/command/config/* messages.
// The command name is the topic suffix; the payload carries the requester
// identity and any arguments.
//
// Malformed payloads and unknown commands are logged and dropped without a
// response; a client that cannot be classified cannot be answered either.
func (g *Gateway) handleConfigMessage(topic string, payload []byte) error {
	cmd := strings.TrimPrefix(topic, g.topics.ConfigPrefix())
	if cmd == topic || strings.Contains(cmd, "/") {
		g.logDebug("ignoring config topic", "topic", topic)
		return nil
	}

	msg, err := parseMessage(payload)
	if err != nil {
		g.logError("parsing config command", err)
		return nil
	}

	g.logDebug("config command received", "cmd", cmd, "clientID", msg.ClientID)

	switch cmd {
	case cmdList:
		g.handleList(msg)
	case cmdScan:
		g.handleScan(msg)
	case cmdConnect:
		if msg.Device == "" {
			g.logDebug("connect command without device", "clientID", msg.ClientID)
			return nil
		}
		// Failures are deliberate silence on the bus: the requester
		// learns of success from the device-status event.
		if err := g.Connect(g.ctx, msg.Device); err != nil {
			g.logError("connect command", err)
		}
	case cmdDisconnect:
		if msg.Device == "" {
			g.logDebug("disconnect command without device", "clientID", msg.ClientID)
			return nil
		}
		if err := g.Disconnect(g.ctx, msg.Device); err != nil {
			g.logError("disconnect command", err)
		}
	case cmdDisconnectAll:
		for mac, err := range g.DisconnectAll(g.ctx) {
			g.logError(fmt.Sprintf("disconnectAll: %s", mac), err)
		}
	case cmdHistory:
		g.handleHistory(msg)
	default:
		g.logDebug("unknown config command", "cmd", cmd)
	}
	return nil
}

// handleList answers with the registry's device list on the requester's
// devices topic.
func (g *Gateway) handleList(msg Message) {
	if msg.ClientID == "" {
		g.logDebug("list command without clientID")
		return
	}

	response := DeviceList{Room: g.room}

	devices, err := g.registry.List(g.ctx, msg.Status == DeviceConnected)
	switch {
	case err != nil:
		g.logError("listing devices", err)
		response.Error = "device lookup failed"
	case len(devices) == 0:
		response.Error = "no devices found"
	default:
		response.Devices = make([]DeviceRecord, 0, len(devices))
		for _, d := range devices {
			response.Devices = append(response.Devices, DeviceRecord{
				MAC:       d.MAC,
				Name:      d.Name,
				FirstSeen: d.FirstSeen,
				Connected: d.Connected,
			})
		}
	}

	g.publishJSON(mqtt.ClientDevices(msg.ClientID), response)
}

// handleScan runs a full discovery window and answers with the devices
// found, excluding anything already connected.
func (g *Gateway) handleScan(msg Message) {
	if msg.ClientID == "" {
		g.logDebug("scan command without clientID")
		return
	}

	response := ScanResult{Room: g.room}

	found, err := g.Scan(g.ctx, g.scanWindow)
	if err != nil {
		g.logError("scan command", err)
		response.Error = "scan failed"
	} else {
		response.Devices = found
	}

	g.publishJSON(mqtt.ClientScan(msg.ClientID), response)
}

// handleHistory answers with a device's recent activity log on the
// requester's history topic. Data optionally carries a decimal entry
// limit; anything unparseable falls back to the default.
func (g *Gateway) handleHistory(msg Message) {
	if msg.ClientID == "" {
		g.logDebug("history command without clientID")
		return
	}

	response := ActivityList{Room: g.room, Device: msg.Device}

	if msg.Device == "" {
		response.Error = "history requires a device"
		g.publishJSON(mqtt.ClientHistory(msg.ClientID), response)
		return
	}

	limit := defaultHistoryLimit
	if n, err := strconv.Atoi(msg.Data); err == nil && n > 0 {
		limit = n
	}

	activities, err := g.registry.ListActivity(g.ctx, msg.Device, limit)
	switch {
	case errors.Is(err, registry.ErrDeviceNotFound):
		response.Error = "device not found"
	case err != nil:
		g.logError("history command", err)
		response.Error = "activity lookup failed"
	case len(activities) == 0:
		response.Error = "no activity recorded"
	default:
		response.Activity = make([]ActivityRecord, 0, len(activities))
		for _, a := range activities {
			response.Activity = append(response.Activity, ActivityRecord{
				Activity:  string(a.Kind),
				Data:      a.Data,
				Timestamp: a.Timestamp,
			})
		}
	}

	g.publishJSON(mqtt.ClientHistory(msg.ClientID), response)
}

// handleDeviceMessage dispatches room-{room}/command/device messages: a
// describe when no characteristic is named, otherwise read, write or
// notify against one characteristic.
func (g *Gateway) handleDeviceMessage(topic string, payload []byte) error {
	msg, err := parseMessage(payload)
	if err != nil {
		g.logError("parsing device command", err)
		return nil
	}
	if msg.Device == "" {
		g.logDebug("device command without device", "clientID", msg.ClientID)
		return nil
	}

	if msg.Char == "" {
		g.handleDescribe(msg)
		return nil
	}

	switch msg.Cmd {
	case cmdRead:
		value, err := g.Read(g.ctx, msg.Device, msg.Char)
		g.publishCommandResult(msg, &value, nil, err)
	case cmdWrite:
		if msg.Data == "" {
			g.publishCommandResult(msg, nil, nil, fmt.Errorf("write requires data"))
			return nil
		}
		err := g.Write(g.ctx, msg.Device, msg.Char, msg.Data)
		g.publishCommandResult(msg, nil, nil, err)
	case cmdNotify:
		notifying, err := g.ToggleNotify(g.ctx, msg.Device, msg.Char)
		g.publishCommandResult(msg, nil, &notifying, err)
	default:
		g.logDebug("unknown device command", "cmd", msg.Cmd)
	}
	return nil
}

// handleDescribe answers with the characteristic descriptors of a
// connected device on the requester's chars topic.
func (g *Gateway) handleDescribe(msg Message) {
	if msg.ClientID == "" {
		g.logDebug("describe command without clientID")
		return
	}

	response := CharList{Room: g.room, Device: msg.Device}

	chars, err := g.Describe(msg.Device)
	if err != nil {
		g.logError("describe command", err)
		response.Error = err.Error()
	} else {
		response.Chars = chars
	}

	g.publishJSON(mqtt.ClientChars(msg.ClientID), response)
}

// publishCommandResult answers a read/write/notify command on the
// requester's cmd topic. Without a clientID the operation still ran; there
// is just nowhere to report it, so failures go to the log only.
func (g *Gateway) publishCommandResult(msg Message, value *int32, notifying *bool, err error) {
	if err != nil {
		g.logError(fmt.Sprintf("%s command", msg.Cmd), err)
	}
	if msg.ClientID == "" {
		return
	}

	topic := mqtt.ClientCmd(msg.ClientID)

	if g.terse {
		g.publishString(topic, terseResult(value, notifying, err))
		return
	}

	result := CommandResult{
		Room:   g.room,
		Device: msg.Device,
		Char:   msg.Char,
		Cmd:    msg.Cmd,
		Status: StatusOK,
	}
	if err != nil {
		result.Status = StatusError
		result.Error = err.Error()
	} else {
		result.Value = value
		result.Notifying = notifying
	}
	g.publishJSON(topic, result)
}

// terseResult renders a scalar command outcome for the terse response
// style: the decimal value for reads, on/off for notify toggles, ok for
// writes.
func terseResult(value *int32, notifying *bool, err error) string {
	switch {
	case err != nil:
		return "error: " + err.Error()
	case value != nil:
		return strconv.FormatInt(int64(*value), 10)
	case notifying != nil && *notifying:
		return "on"
	case notifying != nil:
		return "off"
	default:
		return "ok"
	}
}

// handleBroadcast answers a site-wide presence ping on the requester's
// room-status topic. The payload is either a Message or, for very simple
// clients, a bare clientID string.
func (g *Gateway) handleBroadcast(_ string, payload []byte) error {
	clientID := ""
	if msg, err := parseMessage(payload); err == nil {
		clientID = msg.ClientID
	}
	if clientID == "" {
		clientID = strings.TrimSpace(string(payload))
	}
	if clientID == "" || strings.ContainsAny(clientID, "{}#+/") {
		g.logDebug("broadcast ping without usable clientID")
		return nil
	}

	topic := mqtt.ClientRoomStatus(clientID)
	if g.terse {
		g.publishString(topic, "online")
		return nil
	}
	g.publishJSON(topic, RoomStatus{Room: g.room, Status: "online"})
	return nil
}

// parseMessage decodes an inbound command payload.
func parseMessage(payload []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Message{}, fmt.Errorf("malformed command payload: %w", err)
	}
	return msg, nil
}
