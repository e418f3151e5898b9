// Package registry persists the gateway's knowledge of sensor devices.
//
// Two tables back it: devices, a permanent record of every device ever
// contacted (keyed by MAC address, carrying the advertised name, first-seen
// timestamp and current connected flag), and device_activity, an
// append-only log of state-changing and I/O operations (connect,
// disconnect, read, write, notify-on, notify-off).
//
// RecordActivity is the write path the session manager uses: one
// transaction that creates the device row on first contact, tracks the
// connected flag, and appends the log entry, so partial state is never
// observable.
//
// # Usage
//
//	repo := registry.NewSQLiteRepository(db.Conn())
//	device, err := repo.RecordActivity(ctx, mac, name, registry.ActivityConnect, "")
package registry
