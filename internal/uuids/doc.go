// Package uuids resolves Bluetooth UUIDs to human-readable names.
//
// BLE devices expose services and characteristics as 128-bit UUIDs; the
// ones assigned by the Bluetooth SIG all sit on a common base UUID with a
// distinguishing 16-bit short form (0000xxxx-0000-1000-8000-00805F9B34FB).
// This package normalizes incoming UUIDs to that short form and looks them
// up in embedded assigned-numbers tables.
//
// Unknown UUIDs never fail resolution: they produce a synthetic record
// with a "Custom ..." name so vendor-specific characteristics flow through
// the gateway exactly like standard ones.
//
//	rec := uuids.Resolve("00002a6e-0000-1000-8000-00805f9b34fb")
//	// rec.Name == "Temperature", rec.UUID == "2A6E", rec.Source == "gss"
package uuids
