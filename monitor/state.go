package monitor

import "fmt"

// Status is the observable connectivity state of the monitor.
type Status int

const (
	StatusUnknown Status = iota
	StatusConnected
	StatusDisconnected
)

// String returns a human-readable representation of the status.
func (s Status) String() string {
	switch s {
	case StatusConnected:
		return "Connected"
	case StatusDisconnected:
		return "Disconnected"
	default:
		return "Unknown"
	}
}

// State is what the monitor knows between cycles.
// An empty LastIP or LastCountry means unset.
type State struct {
	LastIP      string
	LastCountry string
	// AlertArmed is true when a disconnection alert may fire on the next
	// failed resolution.
	AlertArmed bool
	// NotificationsEnabled gates the Notifier; the Display is always updated.
	NotificationsEnabled bool
}

// NewState returns the initial Unknown state.
func NewState(notificationsEnabled bool) State {
	return State{
		AlertArmed:           true,
		NotificationsEnabled: notificationsEnabled,
	}
}

// Status derives the observable status from the state.
func (s State) Status() Status {
	switch {
	case s.LastIP != "":
		return StatusConnected
	case !s.AlertArmed:
		return StatusDisconnected
	default:
		return StatusUnknown
	}
}

// PollResult is the outcome of resolving address and country once.
type PollResult struct {
	IP      string
	Country string
}

// Connected reports whether an address was obtained.
func (r PollResult) Connected() bool {
	return r.IP != ""
}

// EventKind identifies what happened during a poll cycle.
type EventKind int

const (
	EventDisconnected EventKind = iota
	EventCountryChanged
)

// String returns a human-readable representation of the event kind.
func (k EventKind) String() string {
	switch k {
	case EventDisconnected:
		return "Disconnected"
	case EventCountryChanged:
		return "CountryChanged"
	default:
		return "Unknown"
	}
}

// Event is emitted by a poll cycle.
type Event struct {
	Kind    EventKind
	IP      string
	Country string
}

// DisconnectedEvent returns the alert raised when no address is obtainable.
func DisconnectedEvent() Event {
	return Event{Kind: EventDisconnected}
}

// CountryChangedEvent returns the event for a newly resolved address.
func CountryChangedEvent(ip, country string) Event {
	return Event{Kind: EventCountryChanged, IP: ip, Country: country}
}

func (e Event) String() string {
	if e.Kind == EventCountryChanged {
		return fmt.Sprintf("%s(%s, %s)", e.Kind, e.IP, e.Country)
	}
	return e.Kind.String()
}
