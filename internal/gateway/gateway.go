package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/roomsense/gateway/internal/ble"
	"github.com/roomsense/gateway/internal/infrastructure/mqtt"
	"github.com/roomsense/gateway/internal/registry"
	"github.com/roomsense/gateway/internal/telemetry"
)

// Default discovery windows, used when Options leaves them zero.
const (
	defaultScanWindow   = 3000 * time.Millisecond
	defaultRescanWindow = 500 * time.Millisecond
)

// eventQueueSize bounds the notification event channel. Notifications
// arriving while the queue is full are dropped with a log line rather than
// blocking the BLE driver's callback goroutine.
const eventQueueSize = 64

// MQTTClient is the interface for MQTT operations.
// This allows mocking the MQTT client in tests.
type MQTTClient interface {
	// Publish sends a message to a topic.
	Publish(topic string, payload []byte, qos byte, retained bool) error

	// Subscribe registers a handler for a topic pattern.
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error

	// IsConnected reports whether the broker connection is up.
	IsConnected() bool
}

// Logger interface for optional logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Options contains the dependencies and policy for a Gateway.
type Options struct {
	// Room is the physical room this gateway serves. Scopes every
	// command and broadcast topic.
	Room string

	// MQTT is the broker connection. Required.
	MQTT MQTTClient

	// Adapter is the Bluetooth hardware abstraction. Required.
	Adapter ble.Adapter

	// Registry persists devices and their activity history. Required.
	Registry registry.Repository

	// Telemetry receives decoded sensor readings. Optional; nil disables
	// time-series recording.
	Telemetry telemetry.Sink

	// ScanWindow is the discovery duration for a full scan.
	// Zero means the 3000 ms default.
	ScanWindow time.Duration

	// RescanWindow is the short pre-connect discovery duration.
	// Zero means the 500 ms default.
	RescanWindow time.Duration

	// ResponseStyle selects the response payload shape: "terse" publishes
	// bare values for scalar responses, anything else publishes verbose
	// JSON everywhere.
	ResponseStyle string

	// QoS is used for every gateway publish and subscribe.
	QoS byte

	// Logger is optional. Nil disables logging.
	Logger Logger
}

// Gateway bridges BLE environmental sensors in one room to the MQTT
// broker. It owns the set of live device sessions, routes inbound
// commands, and pumps sensor notifications to the telemetry sink.
type Gateway struct {
	room         string
	mqtt         MQTTClient
	adapter      ble.Adapter
	registry     registry.Repository
	sink         telemetry.Sink
	topics       mqtt.Topics
	scanWindow   time.Duration
	rescanWindow time.Duration
	terse        bool
	qos          byte
	logger       Logger

	sessions *sessionSet
	events   chan sensorEvent

	ctx       context.Context
	ctxCancel context.CancelFunc
	wg        sync.WaitGroup
	commands  sync.WaitGroup
	stopOnce  sync.Once
}

// New creates a Gateway from the given options. The gateway does not talk
// to the broker or the adapter until Start is called.
func New(opts Options) (*Gateway, error) {
	if opts.Room == "" {
		return nil, errors.New("gateway: room is required")
	}
	if opts.MQTT == nil {
		return nil, errors.New("gateway: mqtt client is required")
	}
	if opts.Adapter == nil {
		return nil, errors.New("gateway: ble adapter is required")
	}
	if opts.Registry == nil {
		return nil, errors.New("gateway: registry is required")
	}

	sink := opts.Telemetry
	if sink == nil {
		sink = telemetry.Nop{}
	}
	scanWindow := opts.ScanWindow
	if scanWindow <= 0 {
		scanWindow = defaultScanWindow
	}
	rescanWindow := opts.RescanWindow
	if rescanWindow <= 0 {
		rescanWindow = defaultRescanWindow
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Gateway{
		room:         opts.Room,
		mqtt:         opts.MQTT,
		adapter:      opts.Adapter,
		registry:     opts.Registry,
		sink:         sink,
		topics:       mqtt.Topics{Room: opts.Room},
		scanWindow:   scanWindow,
		rescanWindow: rescanWindow,
		terse:        opts.ResponseStyle == "terse",
		qos:          opts.QoS,
		logger:       opts.Logger,
		sessions:     newSessionSet(),
		events:       make(chan sensorEvent, eventQueueSize),
		ctx:          ctx,
		ctxCancel:    cancel,
	}, nil
}

// Start subscribes to the room's command topics and the site broadcast
// topic, and starts the notification event pump.
func (g *Gateway) Start() error {
	if err := g.mqtt.Subscribe(g.topics.ConfigCommands(), g.qos, g.dispatch(g.handleConfigMessage)); err != nil {
		return err
	}
	if err := g.mqtt.Subscribe(g.topics.DeviceCommands(), g.qos, g.dispatch(g.handleDeviceMessage)); err != nil {
		return err
	}
	if err := g.mqtt.Subscribe(mqtt.BroadcastTopic, g.qos, g.dispatch(g.handleBroadcast)); err != nil {
		return err
	}

	g.wg.Add(1)
	go g.runEventPump()

	g.logInfo("gateway started", "room", g.room)
	return nil
}

// Stop cancels in-flight commands, disconnects every device session and
// shuts down the event pump. Safe to call more than once.
func (g *Gateway) Stop() {
	g.stopOnce.Do(func() {
		g.ctxCancel()
		g.commands.Wait()
		for mac, err := range g.DisconnectAll(context.Background()) {
			g.logDebug("disconnect on shutdown failed", "mac", mac, "error", err)
		}
		g.wg.Wait()
		g.logInfo("gateway stopped", "room", g.room)
	})
}

// dispatch hands each inbound message to its own goroutine. The broker
// client delivers messages one at a time on a single goroutine, so a
// handler blocking on a slow GATT operation would otherwise stall every
// other command, including disconnects for unrelated devices.
func (g *Gateway) dispatch(handler mqtt.MessageHandler) mqtt.MessageHandler {
	return func(topic string, payload []byte) error {
		select {
		case <-g.ctx.Done():
			return g.ctx.Err()
		default:
		}
		g.commands.Add(1)
		go func() {
			defer g.commands.Done()
			if err := handler(topic, payload); err != nil {
				g.logError("command handler", err)
			}
		}()
		return nil
	}
}

// ReconnectKnown attempts to re-establish sessions with every device the
// registry remembers. Used at startup when reconnect_on_start is set;
// individual failures are logged and do not abort the rest.
func (g *Gateway) ReconnectKnown(ctx context.Context) {
	devices, err := g.registry.List(ctx, false)
	if err != nil {
		g.logError("listing devices for reconnect", err)
		return
	}

	for _, device := range devices {
		if err := g.Connect(ctx, device.MAC); err != nil {
			g.logDebug("startup reconnect failed", "mac", device.MAC, "error", err)
		}
	}
}

// publishJSON marshals and publishes a response payload. Publish failures
// are logged and abandoned; retry policy lives with the broker session,
// not here.
func (g *Gateway) publishJSON(topic string, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		g.logError("marshaling response", err)
		return
	}
	if err := g.mqtt.Publish(topic, payload, g.qos, false); err != nil {
		g.logError("publishing response", err)
	}
}

// publishString publishes a bare string payload, used by the terse
// response style.
func (g *Gateway) publishString(topic, payload string) {
	if err := g.mqtt.Publish(topic, []byte(payload), g.qos, false); err != nil {
		g.logError("publishing response", err)
	}
}

// logInfo logs an info message if a logger is set.
func (g *Gateway) logInfo(msg string, keysAndValues ...any) {
	if g.logger != nil {
		g.logger.Info(msg, keysAndValues...)
	}
}

// logError logs an error message if a logger is set.
func (g *Gateway) logError(msg string, err error) {
	if g.logger != nil {
		g.logger.Error(msg, "error", err)
	}
}

// logDebug logs a debug message if a logger is set.
func (g *Gateway) logDebug(msg string, keysAndValues ...any) {
	if g.logger != nil {
		g.logger.Debug(msg, keysAndValues...)
	}
}
