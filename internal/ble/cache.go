package ble

import (
	"context"
	"sync"
)

// discoveryCache accumulates scan results keyed by address and lets callers
// wait for a specific address to appear.
//
// Entries persist until the adapter is re-enabled: BlueZ keeps known
// peripherals cached the same way, and sessions outlive individual scans.
type discoveryCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	waiters map[string][]chan cacheEntry
}

type cacheEntry struct {
	mac  string
	name string
}

func newDiscoveryCache() *discoveryCache {
	return &discoveryCache{
		entries: make(map[string]cacheEntry),
		waiters: make(map[string][]chan cacheEntry),
	}
}

// add records a discovery result and wakes any waiters for that address.
// A later sighting with a non-empty name upgrades a nameless entry.
func (c *discoveryCache) add(mac, name string) {
	c.mu.Lock()
	existing, ok := c.entries[mac]
	if ok && name == "" {
		name = existing.name
	}
	entry := cacheEntry{mac: mac, name: name}
	c.entries[mac] = entry

	waiters := c.waiters[mac]
	delete(c.waiters, mac)
	c.mu.Unlock()

	for _, w := range waiters {
		w <- entry
	}
}

// list snapshots all cached addresses.
func (c *discoveryCache) list() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	macs := make([]string, 0, len(c.entries))
	for mac := range c.entries {
		macs = append(macs, mac)
	}
	return macs
}

// get returns the cached entry for an address, if present.
func (c *discoveryCache) get(mac string) (cacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[mac]
	return entry, ok
}

// wait blocks until the address is discovered or the context expires.
func (c *discoveryCache) wait(ctx context.Context, mac string) (cacheEntry, error) {
	c.mu.Lock()
	if entry, ok := c.entries[mac]; ok {
		c.mu.Unlock()
		return entry, nil
	}
	ch := make(chan cacheEntry, 1)
	c.waiters[mac] = append(c.waiters[mac], ch)
	c.mu.Unlock()

	select {
	case entry := <-ch:
		return entry, nil
	case <-ctx.Done():
		c.removeWaiter(mac, ch)
		return cacheEntry{}, ErrDeviceNotFound
	}
}

// removeWaiter drops a cancelled waiter so add never blocks on it.
func (c *discoveryCache) removeWaiter(mac string, ch chan cacheEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	waiters := c.waiters[mac]
	for i, w := range waiters {
		if w == ch {
			c.waiters[mac] = append(waiters[:i], waiters[i+1:]...)
			break
		}
	}
	if len(c.waiters[mac]) == 0 {
		delete(c.waiters, mac)
	}
}
