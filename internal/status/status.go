// Package status provides a thread-safe status tracker for the
// hkbutton daemon. It is read by the HTTP status handlers.
package status

import (
	"sync"
	"time"

	"github.com/bitsplusatoms/hkbutton/internal/logic"
)

// ChannelStatus is the last observed activity on one channel.
type ChannelStatus struct {
	LastGesture logic.Gesture
	LastValue   *uint8
	LastTime    time.Time
	Gestures    int
}

// Config contains daemon configuration for display.
type Config struct {
	Device         string
	Broker         string
	HTTPAddr       string
	ResetThreshold int
	ResetScope     string
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type with its own channel map copy, safe to use
// after the lock is released.
type Snapshot struct {
	Channels       map[string]ChannelStatus
	ResetCount     int
	Provisioning   bool
	Connected      bool
	HomeKitStarted bool
	MQTTConnected  bool
	StartTime      time.Time
	Now            time.Time
	Config         Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
// Channels are registered up front so the status page shows inert
// channels too.
func NewTracker(startTime time.Time, cfg Config, channels []string) *Tracker {
	chans := make(map[string]ChannelStatus, len(channels))
	for _, name := range channels {
		chans[name] = ChannelStatus{}
	}
	return &Tracker{
		snap: Snapshot{
			Channels:  chans,
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// RecordGesture notes a dispatched gesture and the resulting reset
// counter value.
func (t *Tracker) RecordGesture(channel string, g logic.Gesture, value *uint8, at time.Time, resetCount int) {
	t.mu.Lock()
	ch := t.snap.Channels[channel]
	ch.LastGesture = g
	ch.LastValue = value
	ch.LastTime = at
	ch.Gestures++
	t.snap.Channels[channel] = ch
	t.snap.ResetCount = resetCount
	t.mu.Unlock()
}

// SetProvisioning sets whether the configuration access point is up.
func (t *Tracker) SetProvisioning(on bool) {
	t.mu.Lock()
	t.snap.Provisioning = on
	t.mu.Unlock()
}

// SetConnected sets whether the device has a network connection.
func (t *Tracker) SetConnected(connected bool) {
	t.mu.Lock()
	t.snap.Connected = connected
	t.mu.Unlock()
}

// SetHomeKitStarted sets whether the accessory server is running.
func (t *Tracker) SetHomeKitStarted(started bool) {
	t.mu.Lock()
	t.snap.HomeKitStarted = started
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	chans := make(map[string]ChannelStatus, len(s.Channels))
	for k, v := range s.Channels {
		chans[k] = v
	}
	s.Channels = chans
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
