// Package provision surfaces WiFi provisioning state transitions.
// The daemon does not run the configuration access point itself; a
// helper service does, and publishes its state to an env-style
// snapshot file. This package turns that snapshot into an event
// stream the device runtime consumes.
package provision

// Event is a provisioning state transition.
type Event string

const (
	// EventConnected fires when the device joins the network. The
	// accessory server is started on the first one.
	EventConnected Event = "CONNECTED"

	// EventDisconnected fires when the network connection drops.
	EventDisconnected Event = "DISCONNECTED"

	// EventAPStart fires when the configuration access point comes
	// up; the station mode indicator starts.
	EventAPStart Event = "AP_START"

	// EventAPStop fires when the access point shuts down; the
	// station mode indicator stops.
	EventAPStop Event = "AP_STOP"
)

// Watcher delivers provisioning events.
type Watcher interface {
	// Events returns the event stream. The channel is closed when the
	// watcher is closed.
	Events() <-chan Event

	// Close stops the watcher and closes the event channel.
	Close() error
}
