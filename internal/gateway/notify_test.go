package gateway

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

func TestNotification_FlowsToSinkAndBus(t *testing.T) {
	char := newMockChar(uuidTemp)
	h := newTestHarness(t, "", newSensorDevice(testMAC, testName, char))
	ctx := context.Background()

	if err := h.gateway.Connect(ctx, testMAC); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if _, err := h.gateway.ToggleNotify(ctx, testMAC, uuidTemp); err != nil {
		t.Fatalf("ToggleNotify() error = %v", err)
	}

	char.trigger(encodeInt32(2150))

	waitFor(t, func() bool { return len(h.sink.all()) == 1 }, "reading never reached the sink")

	reading := h.sink.all()[0]
	if reading.Room != testRoom {
		t.Errorf("Room = %q, want %q", reading.Room, testRoom)
	}
	if reading.DeviceID != testMAC {
		t.Errorf("DeviceID = %q, want %q", reading.DeviceID, testMAC)
	}
	if reading.DeviceName != testName {
		t.Errorf("DeviceName = %q, want %q", reading.DeviceName, testName)
	}
	if reading.SensorID != uuidTemp {
		t.Errorf("SensorID = %q, want %q", reading.SensorID, uuidTemp)
	}
	if reading.SensorName != "Temperature" {
		t.Errorf("SensorName = %q, want Temperature", reading.SensorName)
	}
	if reading.Value != 2150 {
		t.Errorf("Value = %d, want 2150", reading.Value)
	}
	if reading.Timestamp.IsZero() {
		t.Error("Timestamp is zero")
	}

	waitFor(t, func() bool { return len(h.mqtt.on(h.topics.DeviceNotify())) == 1 },
		"notify event never published")

	var event NotifyEvent
	if err := json.Unmarshal(h.mqtt.on(h.topics.DeviceNotify())[0].payload, &event); err != nil {
		t.Fatalf("unmarshaling notify event: %v", err)
	}
	if event.Room != testRoom || event.Device != testMAC || event.Value != 2150 {
		t.Errorf("event = %+v, want room %s device %s value 2150", event, testRoom, testMAC)
	}
	if event.SensorName != "Temperature" {
		t.Errorf("event.SensorName = %q, want Temperature", event.SensorName)
	}
}

func TestNotification_BadPayloadDropped(t *testing.T) {
	char := newMockChar(uuidTemp)
	h := newTestHarness(t, "", newSensorDevice(testMAC, testName, char))
	ctx := context.Background()

	if err := h.gateway.Connect(ctx, testMAC); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if _, err := h.gateway.ToggleNotify(ctx, testMAC, uuidTemp); err != nil {
		t.Fatalf("ToggleNotify() error = %v", err)
	}

	// Too short to decode. The event is dropped without touching the
	// session or the subscription.
	char.trigger([]byte{0x01, 0x02})

	// A good reading afterwards must still flow, proving the pump
	// survived the bad one.
	char.trigger(encodeInt32(42))
	waitFor(t, func() bool { return len(h.sink.all()) == 1 }, "good reading never reached the sink")

	if got := h.sink.all()[0].Value; got != 42 {
		t.Errorf("Value = %d, want 42", got)
	}
	if !char.IsNotifying() {
		t.Error("subscription torn down by bad payload")
	}
	if _, err := h.gateway.Describe(testMAC); err != nil {
		t.Errorf("session lost after bad payload: %v", err)
	}
}

func TestNotification_StoppedCharEmitsNothing(t *testing.T) {
	char := newMockChar(uuidTemp)
	h := newTestHarness(t, "", newSensorDevice(testMAC, testName, char))
	ctx := context.Background()

	if err := h.gateway.Connect(ctx, testMAC); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if _, err := h.gateway.ToggleNotify(ctx, testMAC, uuidTemp); err != nil {
		t.Fatalf("toggle on: %v", err)
	}
	if _, err := h.gateway.ToggleNotify(ctx, testMAC, uuidTemp); err != nil {
		t.Fatalf("toggle off: %v", err)
	}

	char.trigger(encodeInt32(1))
	time.Sleep(50 * time.Millisecond)

	if readings := h.sink.all(); len(readings) != 0 {
		t.Errorf("len(readings) = %d after notify-off, want 0", len(readings))
	}
}

func TestDecodeInt32(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		want    int32
		wantErr bool
	}{
		{"positive", []byte{0x66, 0x08, 0x00, 0x00}, 2150, false},
		{"negative", []byte{0xD8, 0xFF, 0xFF, 0xFF}, -40, false},
		{"zero", []byte{0x00, 0x00, 0x00, 0x00}, 0, false},
		{"extra bytes ignored", []byte{0x01, 0x00, 0x00, 0x00, 0xFF}, 1, false},
		{"short", []byte{0x01, 0x02}, 0, true},
		{"empty", nil, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeInt32(tt.data)
			if (err != nil) != tt.wantErr {
				t.Fatalf("decodeInt32() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("decodeInt32() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestEncodeDecodeInt32_RoundTrip(t *testing.T) {
	for _, value := range []int32{0, 1, -1, 2150, -2150, 2147483647, -2147483648} {
		got, err := decodeInt32(encodeInt32(value))
		if err != nil {
			t.Fatalf("decodeInt32(encodeInt32(%d)) error = %v", value, err)
		}
		if got != value {
			t.Errorf("round trip of %d = %d", value, got)
		}
	}
}
