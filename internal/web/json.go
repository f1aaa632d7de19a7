package web

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/bitsplusatoms/hkbutton/internal/status"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Channels      []ChannelJSON `json:"channels"`
	ResetCount    int           `json:"reset_count"`
	Provisioning  bool          `json:"provisioning"`
	Connected     bool          `json:"connected"`
	HomeKit       bool          `json:"homekit_started"`
	UptimeSeconds int64         `json:"uptime_seconds"`
	StartTime     string        `json:"start_time"`
	Timestamp     string        `json:"timestamp"`
	MQTT          MQTTStatus    `json:"mqtt"`
	Config        ConfigJSON    `json:"config"`
}

// ChannelJSON is the JSON representation of one channel's activity.
type ChannelJSON struct {
	Name        string `json:"name"`
	LastGesture string `json:"last_gesture,omitempty"`
	LastValue   *uint8 `json:"last_value,omitempty"`
	LastTime    string `json:"last_time,omitempty"`
	Gestures    int    `json:"gestures"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker,omitempty"`
}

// ConfigJSON is the JSON representation of the displayed config.
type ConfigJSON struct {
	Device         string `json:"device"`
	HTTPAddr       string `json:"http_addr"`
	ResetThreshold int    `json:"reset_threshold"`
	ResetScope     string `json:"reset_scope"`
}

func formatJSON(snap status.Snapshot) []byte {
	inner := StatusInner{
		Channels:      channelsJSON(snap),
		ResetCount:    snap.ResetCount,
		Provisioning:  snap.Provisioning,
		Connected:     snap.Connected,
		HomeKit:       snap.HomeKitStarted,
		UptimeSeconds: int64(snap.Uptime().Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT: MQTTStatus{
			Connected: snap.MQTTConnected,
			Broker:    snap.Config.Broker,
		},
		Config: ConfigJSON{
			Device:         snap.Config.Device,
			HTTPAddr:       snap.Config.HTTPAddr,
			ResetThreshold: snap.Config.ResetThreshold,
			ResetScope:     snap.Config.ResetScope,
		},
	}

	out, err := json.Marshal(StatusJSON{Status: inner})
	if err != nil {
		// Snapshot contains only marshalable values; this is unreachable.
		return []byte(`{"status":{}}`)
	}
	return out
}

func channelsJSON(snap status.Snapshot) []ChannelJSON {
	names := make([]string, 0, len(snap.Channels))
	for name := range snap.Channels {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]ChannelJSON, 0, len(names))
	for _, name := range names {
		ch := snap.Channels[name]
		cj := ChannelJSON{
			Name:        name,
			LastGesture: string(ch.LastGesture),
			LastValue:   ch.LastValue,
			Gestures:    ch.Gestures,
		}
		if !ch.LastTime.IsZero() {
			cj.LastTime = ch.LastTime.UTC().Format(time.RFC3339)
		}
		out = append(out, cj)
	}
	return out
}
