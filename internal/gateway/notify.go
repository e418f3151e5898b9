package gateway

import (
	"time"

	"github.com/roomsense/gateway/internal/telemetry"
	"github.com/roomsense/gateway/internal/uuids"
)

// sensorEvent is one raw notification, captured in the BLE driver's
// callback goroutine and handed to the event pump for decoding.
type sensorEvent struct {
	mac      string
	name     string
	charUUID string
	payload  []byte
	received time.Time
}

// notifyCallback builds the value-changed handler for one characteristic.
// The handler only copies the payload and queues it; decoding, telemetry
// and publishing all happen on the pump goroutine so the driver callback
// never blocks and never re-enters session state.
func (g *Gateway) notifyCallback(mac, name, charUUID string) func(data []byte) {
	return func(data []byte) {
		event := sensorEvent{
			mac:      mac,
			name:     name,
			charUUID: charUUID,
			payload:  append([]byte(nil), data...),
			received: time.Now().UTC(),
		}

		select {
		case g.events <- event:
		default:
			g.logDebug("notification dropped, event queue full", "mac", mac, "char", charUUID)
		}
	}
}

// runEventPump consumes queued notifications until the gateway stops.
func (g *Gateway) runEventPump() {
	defer g.wg.Done()

	for {
		select {
		case <-g.ctx.Done():
			return
		case event := <-g.events:
			g.handleSensorEvent(event)
		}
	}
}

// handleSensorEvent decodes one notification, records it in the telemetry
// sink, and publishes a notify event for the room. Any failure here is
// logged and dropped; a bad reading never tears down the session or the
// subscription that produced it.
func (g *Gateway) handleSensorEvent(event sensorEvent) {
	value, err := decodeInt32(event.payload)
	if err != nil {
		g.logError("decoding notification", err)
		return
	}

	record := uuids.ResolveCategory(event.charUUID, uuids.CategoryCharacteristic)

	g.sink.WriteSensorReading(telemetry.Reading{
		Room:       g.room,
		DeviceID:   event.mac,
		DeviceName: event.name,
		SensorID:   event.charUUID,
		SensorName: record.Name,
		Value:      int64(value),
		Timestamp:  event.received,
	})

	g.publishJSON(g.topics.DeviceNotify(), NotifyEvent{
		Room:       g.room,
		Device:     event.mac,
		DeviceName: event.name,
		Sensor:     event.charUUID,
		SensorName: record.Name,
		Value:      value,
		Timestamp:  event.received,
	})
}
