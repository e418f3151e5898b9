// Package ble abstracts the Bluetooth adapter the gateway uses to reach
// environmental sensors.
//
// The Adapter interface covers the whole lifecycle the session manager
// needs: background discovery into an address cache, blocking waits for a
// specific peripheral, GATT connect/disconnect, and service/characteristic
// enumeration with read, write and notification subscription per
// characteristic.
//
// The production implementation is BlueZAdapter (tinygo-org/bluetooth over
// BlueZ D-Bus). Tests substitute in-memory fakes behind the same
// interfaces.
package ble
