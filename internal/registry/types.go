package registry

import "time"

// Device is a durable record of a sensor the gateway has contacted.
// Rows are never deleted; Connected tracks the current link state and is
// reset on gateway startup.
type Device struct {
	// ID is the database-assigned identifier.
	ID int64

	// MAC is the hardware address, unique per device.
	MAC string

	// Name is the advertised local name captured at first contact.
	Name string

	// FirstSeen is when the device was first recorded.
	FirstSeen time.Time

	// Connected reports whether the gateway currently holds a session.
	Connected bool
}

// ActivityKind classifies an activity log entry.
type ActivityKind string

// Activity kinds appended by the session manager and command router.
const (
	ActivityConnect    ActivityKind = "connect"
	ActivityDisconnect ActivityKind = "disconnect"
	ActivityRead       ActivityKind = "read"
	ActivityWrite      ActivityKind = "write"
	ActivityNotifyOn   ActivityKind = "notify-on"
	ActivityNotifyOff  ActivityKind = "notify-off"
)

// Valid reports whether the kind is one of the defined activity kinds.
func (k ActivityKind) Valid() bool {
	switch k {
	case ActivityConnect, ActivityDisconnect, ActivityRead, ActivityWrite,
		ActivityNotifyOn, ActivityNotifyOff:
		return true
	}
	return false
}

// Activity is one append-only log entry for a device.
type Activity struct {
	ID        int64
	DeviceID  int64
	Kind      ActivityKind
	Data      string // optional payload: characteristic UUID, written value
	Timestamp time.Time
}
