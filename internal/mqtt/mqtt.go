// Package mqtt mirrors outward notifications and lifecycle events to
// an MQTT broker for diagnostics and home-automation integrations
// that sit outside the accessory protocol. Publishing is best-effort:
// a failure never blocks or fails gesture dispatch.
package mqtt

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/bitsplusatoms/hkbutton/internal/logic"
)

// TopicPrefix is the base topic; the device name is appended.
const TopicPrefix = "home/button"

// EventTopic returns the gesture event topic for a device.
func EventTopic(device string) string {
	return fmt.Sprintf("%s/%s/events", TopicPrefix, device)
}

// SystemTopic returns the lifecycle event topic for a device.
func SystemTopic(device string) string {
	return fmt.Sprintf("%s/%s/system", TopicPrefix, device)
}

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a gesture event to the broker.
	Publish(event GestureEvent) error

	// PublishSystem sends a lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// GestureEvent is one dispatched gesture on one channel.
type GestureEvent struct {
	Timestamp time.Time
	Channel   string
	Gesture   logic.Gesture
	// Value is the published notification value, nil when the gesture
	// carried no outward event.
	Value *uint8
}

// SystemEvent is a lifecycle event (startup, provisioning transition,
// reset).
type SystemEvent struct {
	Timestamp time.Time
	Event     string // e.g., "STARTUP", "SHUTDOWN", "RESET", "PROVISIONING"
	Reason    string // e.g., "SIGTERM", "AP_START"
	Retained  bool
}

// Payload is the JSON structure for gesture events.
type Payload struct {
	Button ButtonPayload `json:"button"`
}

// ButtonPayload contains the gesture event details.
type ButtonPayload struct {
	Timestamp string `json:"timestamp"`
	Channel   string `json:"channel"`
	Gesture   string `json:"gesture"`
	Value     *uint8 `json:"value,omitempty"`
}

// FormatPayload creates the JSON payload for a gesture event.
func FormatPayload(event GestureEvent) ([]byte, error) {
	payload := Payload{
		Button: ButtonPayload{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Channel:   event.Channel,
			Gesture:   string(event.Gesture),
			Value:     event.Value,
		},
	}
	return json.Marshal(payload)
}

// SystemPayload is the JSON structure for lifecycle events.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the lifecycle event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a lifecycle event.
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
