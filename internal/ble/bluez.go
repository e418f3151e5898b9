package ble

import (
	"context"
	"fmt"
	"sync"

	"tinygo.org/x/bluetooth"
)

// BlueZAdapter implements Adapter on top of tinygo-org/bluetooth, which
// speaks to BlueZ over D-Bus on Linux.
type BlueZAdapter struct {
	adapter *bluetooth.Adapter
	cache   *discoveryCache

	mu       sync.Mutex
	scanning bool
	scanDone chan struct{}
}

// NewBlueZAdapter creates a BLE adapter backed by the platform default
// Bluetooth adapter.
func NewBlueZAdapter() *BlueZAdapter {
	return &BlueZAdapter{
		adapter: bluetooth.DefaultAdapter,
		cache:   newDiscoveryCache(),
	}
}

// Enable powers on the Bluetooth adapter.
func (a *BlueZAdapter) Enable() error {
	if err := a.adapter.Enable(); err != nil {
		return fmt.Errorf("%w: enable: %w", ErrDiscoveryFailed, err)
	}
	return nil
}

// StartDiscovery begins a background scan feeding the device cache.
// Starting while a scan is already active is a no-op.
func (a *BlueZAdapter) StartDiscovery() error {
	a.mu.Lock()
	if a.scanning {
		a.mu.Unlock()
		return nil
	}
	a.scanning = true
	a.scanDone = make(chan struct{})
	done := a.scanDone
	a.mu.Unlock()

	go func() {
		defer close(done)
		// Scan blocks until StopScan is called; results stream into
		// the cache as they arrive.
		err := a.adapter.Scan(func(_ *bluetooth.Adapter, result bluetooth.ScanResult) {
			a.cache.add(result.Address.String(), result.LocalName())
		})
		_ = err // scan errors after StopScan are expected noise

		a.mu.Lock()
		a.scanning = false
		a.mu.Unlock()
	}()

	return nil
}

// StopDiscovery halts the active scan and waits for the scan goroutine to
// drain. Safe to call when no scan is running.
func (a *BlueZAdapter) StopDiscovery() error {
	a.mu.Lock()
	if !a.scanning {
		a.mu.Unlock()
		return nil
	}
	done := a.scanDone
	a.mu.Unlock()

	if err := a.adapter.StopScan(); err != nil {
		return fmt.Errorf("%w: stop scan: %w", ErrDiscoveryFailed, err)
	}
	<-done
	return nil
}

// ListDiscovered returns every address seen since the adapter was enabled.
func (a *BlueZAdapter) ListDiscovered() []string {
	return a.cache.list()
}

// WaitForDevice blocks until the address shows up in the discovery cache.
func (a *BlueZAdapter) WaitForDevice(ctx context.Context, mac string) (Device, error) {
	entry, err := a.cache.wait(ctx, mac)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrDeviceNotFound, mac)
	}
	return &bluezDevice{adapter: a.adapter, mac: entry.mac, name: entry.name}, nil
}

// Compile-time check that BlueZAdapter implements Adapter.
var _ Adapter = (*BlueZAdapter)(nil)

// bluezDevice is a handle for a discovered peripheral.
type bluezDevice struct {
	adapter *bluetooth.Adapter
	mac     string
	name    string

	mu        sync.Mutex
	device    bluetooth.Device
	connected bool
}

func (d *bluezDevice) MAC() string {
	return d.mac
}

func (d *bluezDevice) Name() (string, error) {
	if d.name == "" {
		return "", fmt.Errorf("%w: %s", ErrNoName, d.mac)
	}
	return d.name, nil
}

func (d *bluezDevice) Connect(ctx context.Context) error {
	var addr bluetooth.Address
	addr.Set(d.mac)

	// tinygo's Connect blocks with its own internal timeout; wrap it so
	// the caller's context is honoured too.
	type result struct {
		device bluetooth.Device
		err    error
	}
	ch := make(chan result, 1)
	go func() {
		device, err := d.adapter.Connect(addr, bluetooth.ConnectionParams{})
		ch <- result{device, err}
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %s: %w", ErrConnectFailed, d.mac, ctx.Err())
	case r := <-ch:
		if r.err != nil {
			return fmt.Errorf("%w: %s: %w", ErrConnectFailed, d.mac, r.err)
		}
		d.mu.Lock()
		d.device = r.device
		d.connected = true
		d.mu.Unlock()
		return nil
	}
}

func (d *bluezDevice) Disconnect() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.connected {
		return ErrNotConnected
	}
	d.connected = false
	return d.device.Disconnect()
}

func (d *bluezDevice) Services() ([]Service, error) {
	d.mu.Lock()
	device := d.device
	connected := d.connected
	d.mu.Unlock()
	if !connected {
		return nil, ErrNotConnected
	}

	svcs, err := device.DiscoverServices(nil)
	if err != nil {
		return nil, fmt.Errorf("ble: discover services on %s: %w", d.mac, err)
	}

	services := make([]Service, len(svcs))
	for i := range svcs {
		services[i] = &bluezService{service: svcs[i], mac: d.mac}
	}
	return services, nil
}

type bluezService struct {
	service bluetooth.DeviceService
	mac     string
}

func (s *bluezService) UUID() string {
	return s.service.UUID().String()
}

func (s *bluezService) Characteristics() ([]Characteristic, error) {
	chars, err := s.service.DiscoverCharacteristics(nil)
	if err != nil {
		return nil, fmt.Errorf("ble: discover characteristics on %s: %w", s.mac, err)
	}

	out := make([]Characteristic, len(chars))
	for i := range chars {
		out[i] = &bluezCharacteristic{char: chars[i]}
	}
	return out, nil
}

type bluezCharacteristic struct {
	char bluetooth.DeviceCharacteristic

	mu        sync.Mutex
	notifying bool
}

func (c *bluezCharacteristic) UUID() string {
	return c.char.UUID().String()
}

// Flags reports best-effort capabilities. tinygo/bluetooth does not expose
// GATT property bits, so everything is reported capable and the peripheral
// rejects unsupported operations at GATT level.
func (c *bluezCharacteristic) Flags() Flags {
	return Flags{Read: true, Write: true, Notify: true}
}

func (c *bluezCharacteristic) Read() ([]byte, error) {
	buf := make([]byte, 512) // maximum attribute value length
	n, err := c.char.Read(buf)
	if err != nil {
		return nil, fmt.Errorf("ble: read %s: %w", c.UUID(), err)
	}
	return buf[:n], nil
}

func (c *bluezCharacteristic) Write(data []byte) error {
	if _, err := c.char.WriteWithoutResponse(data); err != nil {
		return fmt.Errorf("ble: write %s: %w", c.UUID(), err)
	}
	return nil
}

func (c *bluezCharacteristic) IsNotifying() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.notifying
}

func (c *bluezCharacteristic) StartNotifications(callback func(data []byte)) error {
	if err := c.char.EnableNotifications(callback); err != nil {
		return fmt.Errorf("ble: enable notifications on %s: %w", c.UUID(), err)
	}
	c.mu.Lock()
	c.notifying = true
	c.mu.Unlock()
	return nil
}

func (c *bluezCharacteristic) StopNotifications() error {
	// Passing a nil handler disables the subscription in BlueZ.
	if err := c.char.EnableNotifications(nil); err != nil {
		return fmt.Errorf("ble: disable notifications on %s: %w", c.UUID(), err)
	}
	c.mu.Lock()
	c.notifying = false
	c.mu.Unlock()
	return nil
}
