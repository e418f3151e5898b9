package gateway

import (
	"context"
	"sync"
	"time"

	"github.com/roomsense/gateway/internal/ble"
	"github.com/roomsense/gateway/internal/registry"
	"github.com/roomsense/gateway/internal/uuids"
)

// session is one live device connection: the GATT handle plus the ordered
// characteristic handles discovered under the Environmental Sensing
// Service. Sessions are in-memory only and die with the connection.
type session struct {
	mac    string
	name   string
	device ble.Device
	chars  []ble.Characteristic

	// callbacks holds the notification handler bound to each
	// characteristic at connect time, keyed by normalized UUID. The
	// notify command passes the stored handler to StartNotifications so
	// toggling never rebinds.
	callbacks map[string]func(data []byte)
}

// characteristic finds a session characteristic by UUID. Short-form and
// 128-bit spellings of the same UUID match.
func (s *session) characteristic(uuid string) (ble.Characteristic, bool) {
	want := uuids.Normalize(uuid)
	for _, c := range s.chars {
		if uuids.Normalize(c.UUID()) == want {
			return c, true
		}
	}
	return nil, false
}

// sessionSet is the concurrency-safe registry of live sessions.
//
// Two layers of locking: the set mutex guards the maps for snapshot reads
// and lookups, and a per-MAC mutex serializes connect/disconnect for one
// device without blocking operations on any other device.
type sessionSet struct {
	mu       sync.RWMutex
	sessions map[string]*session
	keyLocks map[string]*sync.Mutex
}

func newSessionSet() *sessionSet {
	return &sessionSet{
		sessions: make(map[string]*session),
		keyLocks: make(map[string]*sync.Mutex),
	}
}

// keyLock returns the serialization lock for a MAC, creating it on first
// use. Key locks are never removed; the set of devices a gateway ever
// talks to is small.
func (ss *sessionSet) keyLock(mac string) *sync.Mutex {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	lock, ok := ss.keyLocks[mac]
	if !ok {
		lock = &sync.Mutex{}
		ss.keyLocks[mac] = lock
	}
	return lock
}

func (ss *sessionSet) get(mac string) (*session, bool) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	s, ok := ss.sessions[mac]
	return s, ok
}

func (ss *sessionSet) put(s *session) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.sessions[s.mac] = s
}

func (ss *sessionSet) remove(mac string) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	delete(ss.sessions, mac)
}

// macs returns a snapshot of the currently connected addresses.
func (ss *sessionSet) macs() []string {
	ss.mu.RLock()
	defer ss.mu.RUnlock()

	out := make([]string, 0, len(ss.sessions))
	for mac := range ss.sessions {
		out = append(out, mac)
	}
	return out
}

// Scan runs discovery for the configured window and returns the advertising
// devices that are not already connected. Peripherals that never advertised
// a local name are skipped; an unnamed advert is not an error, there is
// just nothing useful to show a caller.
//
// Scan does not touch persistent storage.
func (g *Gateway) Scan(ctx context.Context, window time.Duration) ([]DiscoveredDevice, error) {
	if err := g.adapter.StartDiscovery(); err != nil {
		return nil, err
	}

	select {
	case <-time.After(window):
	case <-ctx.Done():
	}

	if err := g.adapter.StopDiscovery(); err != nil {
		g.logError("stopping discovery", err)
	}

	var found []DiscoveredDevice
	for _, mac := range g.adapter.ListDiscovered() {
		if _, connected := g.sessions.get(mac); connected {
			continue
		}

		// The address is cached, so this resolves immediately.
		lookupCtx, cancel := context.WithTimeout(ctx, time.Second)
		dev, err := g.adapter.WaitForDevice(lookupCtx, mac)
		cancel()
		if err != nil {
			g.logDebug("skipping scanned device", "mac", mac, "error", err)
			continue
		}

		name, err := dev.Name()
		if err != nil || name == "" {
			continue
		}

		found = append(found, DiscoveredDevice{Name: name, MAC: mac})
	}

	return found, nil
}

// Connect establishes a session with a device: a short rescan to refresh
// the adapter cache, a GATT connect, verification that the Environmental
// Sensing Service is present, and characteristic enumeration with a
// notification handler bound per characteristic.
//
// Connect is idempotent per device. A second call for a MAC that already
// has a live session returns immediately without touching the device or
// appending another activity record; concurrent calls for the same MAC are
// serialized and coalesce into one session.
func (g *Gateway) Connect(ctx context.Context, mac string) error {
	lock := g.sessions.keyLock(mac)
	lock.Lock()
	defer lock.Unlock()

	if _, ok := g.sessions.get(mac); ok {
		g.logDebug("connect coalesced, session already live", "mac", mac)
		return nil
	}

	// Refresh the adapter cache so a device that went quiet since the
	// last full scan still resolves. Best effort.
	if err := g.adapter.StartDiscovery(); err != nil {
		g.logDebug("rescan start failed", "mac", mac, "error", err)
	} else {
		select {
		case <-time.After(g.rescanWindow):
		case <-ctx.Done():
		}
		if err := g.adapter.StopDiscovery(); err != nil {
			g.logError("stopping rescan", err)
		}
	}

	waitCtx, cancel := context.WithTimeout(ctx, g.scanWindow)
	dev, err := g.adapter.WaitForDevice(waitCtx, mac)
	cancel()
	if err != nil {
		return err
	}

	// Unnamed devices can still be connected; the registry keeps
	// whatever name it already has.
	name, _ := dev.Name()

	if err := dev.Connect(ctx); err != nil {
		return err
	}

	chars, err := g.environmentalCharacteristics(dev)
	if err != nil {
		if dcErr := dev.Disconnect(); dcErr != nil {
			g.logError("disconnecting after failed connect", dcErr)
		}
		return err
	}

	s := &session{
		mac:       mac,
		name:      name,
		device:    dev,
		chars:     chars,
		callbacks: make(map[string]func(data []byte), len(chars)),
	}
	for _, c := range chars {
		s.callbacks[uuids.Normalize(c.UUID())] = g.notifyCallback(mac, name, c.UUID())
	}
	g.sessions.put(s)

	// History is best effort: a failed activity write never undoes the
	// connection.
	if _, err := g.registry.RecordActivity(ctx, mac, name, registry.ActivityConnect, ""); err != nil {
		g.logError("recording connect activity", err)
	}

	g.publishJSON(g.topics.DeviceStatus(), StatusEvent{
		Room:   g.room,
		Device: mac,
		Name:   name,
		Status: DeviceConnected,
	})

	g.logInfo("device connected", "mac", mac, "name", name, "chars", len(chars))
	return nil
}

// environmentalCharacteristics finds the Environmental Sensing Service on
// a connected device and enumerates its characteristics. Returns
// ErrMissingService when the device does not expose the service.
func (g *Gateway) environmentalCharacteristics(dev ble.Device) ([]ble.Characteristic, error) {
	services, err := dev.Services()
	if err != nil {
		return nil, err
	}

	want := uuids.Normalize(ble.ServiceESS)
	for _, svc := range services {
		if uuids.Normalize(svc.UUID()) != want {
			continue
		}
		return svc.Characteristics()
	}
	return nil, ErrMissingService
}

// Disconnect tears down a device session. The session is removed and the
// disconnect recorded even when the GATT disconnect itself fails; a device
// that errors on disconnect is not usable either way. The GATT error, if
// any, is returned after cleanup so callers can report it.
func (g *Gateway) Disconnect(ctx context.Context, mac string) error {
	lock := g.sessions.keyLock(mac)
	lock.Lock()
	defer lock.Unlock()

	s, ok := g.sessions.get(mac)
	if !ok {
		return ErrNotConnected
	}

	for _, c := range s.chars {
		if c.IsNotifying() {
			if err := c.StopNotifications(); err != nil {
				g.logDebug("stopping notifications on disconnect", "mac", mac, "char", c.UUID(), "error", err)
			}
		}
	}

	gattErr := s.device.Disconnect()
	if gattErr != nil {
		g.logError("gatt disconnect", gattErr)
	}
	g.sessions.remove(mac)

	if _, err := g.registry.RecordActivity(ctx, mac, s.name, registry.ActivityDisconnect, ""); err != nil {
		g.logError("recording disconnect activity", err)
	}

	g.publishJSON(g.topics.DeviceStatus(), StatusEvent{
		Room:   g.room,
		Device: mac,
		Name:   s.name,
		Status: DeviceDisconnected,
	})

	g.logInfo("device disconnected", "mac", mac)
	return gattErr
}

// DisconnectAll disconnects every tracked session. Each device is attempted
// independently; failures are reported per device and never abort the rest.
func (g *Gateway) DisconnectAll(ctx context.Context) map[string]error {
	failures := make(map[string]error)
	for _, mac := range g.sessions.macs() {
		if err := g.Disconnect(ctx, mac); err != nil {
			failures[mac] = err
		}
	}
	return failures
}

// Describe enumerates a connected device's characteristics, resolving each
// UUID to its human name and attaching live capability flags.
func (g *Gateway) Describe(mac string) ([]CharDescriptor, error) {
	s, ok := g.sessions.get(mac)
	if !ok {
		return nil, ErrNotConnected
	}

	descriptors := make([]CharDescriptor, 0, len(s.chars))
	for _, c := range s.chars {
		record := uuids.ResolveCategory(c.UUID(), uuids.CategoryCharacteristic)
		flags := c.Flags()
		descriptors = append(descriptors, CharDescriptor{
			UUID:       c.UUID(),
			Name:       record.Name,
			Identifier: record.Identifier,
			Source:     record.Source,
			Read:       flags.Read,
			Write:      flags.Write,
			Notify:     flags.Notify,
			Notifying:  c.IsNotifying(),
		})
	}
	return descriptors, nil
}

// Read performs a GATT read on a session characteristic and decodes the
// value as a little-endian 32-bit signed integer.
func (g *Gateway) Read(ctx context.Context, mac, char string) (int32, error) {
	c, err := g.sessionChar(mac, char)
	if err != nil {
		return 0, err
	}

	raw, err := c.Read()
	if err != nil {
		return 0, err
	}
	value, err := decodeInt32(raw)
	if err != nil {
		return 0, err
	}

	if _, err := g.registry.RecordActivity(ctx, mac, "", registry.ActivityRead, c.UUID()); err != nil {
		g.logError("recording read activity", err)
	}
	return value, nil
}

// Write sends a payload to a session characteristic. The payload is passed
// through as raw bytes; whatever encoding the target characteristic
// expects is the caller's responsibility.
func (g *Gateway) Write(ctx context.Context, mac, char, data string) error {
	c, err := g.sessionChar(mac, char)
	if err != nil {
		return err
	}

	if err := c.Write([]byte(data)); err != nil {
		return err
	}

	if _, err := g.registry.RecordActivity(ctx, mac, "", registry.ActivityWrite, data); err != nil {
		g.logError("recording write activity", err)
	}
	return nil
}

// ToggleNotify flips a characteristic's notification subscription and
// returns the resulting state. Starting reuses the handler bound at
// connect time.
func (g *Gateway) ToggleNotify(ctx context.Context, mac, char string) (bool, error) {
	s, ok := g.sessions.get(mac)
	if !ok {
		return false, ErrNotConnected
	}
	c, ok := s.characteristic(char)
	if !ok {
		return false, ErrCharNotFound
	}

	if c.IsNotifying() {
		if err := c.StopNotifications(); err != nil {
			return true, err
		}
		if _, err := g.registry.RecordActivity(ctx, mac, "", registry.ActivityNotifyOff, c.UUID()); err != nil {
			g.logError("recording notify-off activity", err)
		}
		return false, nil
	}

	if err := c.StartNotifications(s.callbacks[uuids.Normalize(c.UUID())]); err != nil {
		return false, err
	}
	if _, err := g.registry.RecordActivity(ctx, mac, "", registry.ActivityNotifyOn, c.UUID()); err != nil {
		g.logError("recording notify-on activity", err)
	}
	return true, nil
}

// sessionChar resolves a (mac, char) pair to a live characteristic handle.
func (g *Gateway) sessionChar(mac, char string) (ble.Characteristic, error) {
	s, ok := g.sessions.get(mac)
	if !ok {
		return nil, ErrNotConnected
	}
	c, ok := s.characteristic(char)
	if !ok {
		return nil, ErrCharNotFound
	}
	return c, nil
}
